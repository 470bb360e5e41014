package main

import (
	"log/slog"

	"github.com/brellorand/memento-mori-client/internal/cdn"
	"github.com/brellorand/memento-mori-client/internal/finder"
	"github.com/spf13/cobra"
)

var (
	downloadDir   string
	downloadForce bool
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download asset bundles from the CDN",
	Long: `Download the bundles holding asset paths that match the given patterns,
prefixes and extensions. Bundles already present in the output directory are
skipped unless --force is set. Without --output, bundles are saved in the
cache directory of the asset version.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		dir := downloadDir
		if dir == "" {
			dir = s.cache.BundleDir(s.version, cfg.System)
		}

		f, err := finder.New(c.BundlePathMap(), findOpts)
		if err != nil {
			return err
		}

		names := f.BundleNames(dir, downloadForce)
		if len(names) == 0 {
			slog.Info("All bundles have already been downloaded (use --force to force them to be re-downloaded)")
			return nil
		}

		_, err = s.client.DownloadBundles(cmd.Context(), names, cdn.DownloadOptions{
			Dir:      dir,
			Workers:  cfg.Workers,
			Force:    downloadForce,
			Progress: !noProgress,
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	addFinderFlags(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadDir, "output", "o", "", "directory to save bundles in")
	downloadCmd.Flags().BoolVarP(&downloadForce, "force", "F", false, "download bundles even if they already exist")
}
