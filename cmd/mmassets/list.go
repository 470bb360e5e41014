package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/brellorand/memento-mori-client/internal/catalog"
	"github.com/brellorand/memento-mori-client/internal/finder"
	"github.com/brellorand/memento-mori-client/internal/output"
	"github.com/spf13/cobra"
)

var (
	listPath   string
	listDepth  int
	listAll    bool
	findOpts   finder.Options
	listCounts bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List asset paths, file extensions or bundles",
}

var listAssetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List asset paths",
	Long: `List the files in the asset tree, optionally below --path. With --depth,
directories at that depth are listed instead of being descended into.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		return listAssets(cmd.OutOrStdout(), c, listPath, listDepth, !listAll)
	},
}

var listExtensionsCmd = &cobra.Command{
	Use:     "extensions",
	Aliases: []string{"exts"},
	Short:   "List file extensions used by assets",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		raw, err := s.rawCatalog(cmd.Context())
		if err != nil {
			return err
		}
		return listExtensions(cmd.OutOrStdout(), raw.InternalIDs, cfg.OutputFormat)
	},
}

var listBundlesCmd = &cobra.Command{
	Use:   "bundles",
	Short: "List bundles and the asset paths they contain",
	Long: `List bundles whose asset paths match the given patterns, prefixes and
extensions, with the matching paths of each.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		return listBundles(cmd.OutOrStdout(), c, findOpts, listCounts, cfg.OutputFormat)
	},
}

func listAssets(w io.Writer, c *catalog.Catalog, path string, depth int, skipSentinel bool) error {
	root := c.Tree().Root()
	if path != "" {
		var err error
		if root, err = c.GetAsset(path); err != nil {
			return err
		}
	}

	for a := range root.Flat(depth, skipSentinel) {
		if _, err := fmt.Fprintln(w, a.String()); err != nil {
			return err
		}
	}
	return nil
}

type extensionCount struct {
	Extension string `json:"extension" yaml:"extension"`
	Count     int    `json:"count" yaml:"count"`
}

// listExtensions prints extension counts, most common first
func listExtensions(w io.Writer, internalIDs []string, format string) error {
	counts := catalog.ExtensionCounts(internalIDs)

	rows := make([]extensionCount, 0, len(counts))
	for ext, n := range counts {
		rows = append(rows, extensionCount{Extension: ext, Count: n})
	}
	slices.SortFunc(rows, func(a, b extensionCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Extension, b.Extension)
	})

	return output.Write(w, format, rows)
}

func listBundles(w io.Writer, c *catalog.Catalog, opts finder.Options, countsOnly bool, format string) error {
	f, err := finder.New(c.BundlePathMap(), opts)
	if err != nil {
		return err
	}

	selected := f.Candidates()
	if opts.Limit > 0 && len(selected) > opts.Limit {
		selected = selected[:opts.Limit]
	}

	if countsOnly {
		for _, s := range selected {
			if _, err := fmt.Fprintf(w, "%s\t%d\n", s.Bundle, len(s.Paths)); err != nil {
				return err
			}
		}
		return nil
	}
	return output.Write(w, format, selected)
}

func addFinderFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&findOpts.Names, "name", "n", nil, "names of specific bundles to include")
	cmd.Flags().StringSliceVarP(&findOpts.Patterns, "asset-path", "p", nil, "asset path globs for which bundles should be included")
	cmd.Flags().StringSliceVar(&findOpts.Prefixes, "prefix", nil, "asset path prefixes for which bundles should be included")
	cmd.Flags().StringSliceVarP(&findOpts.Extensions, "extension", "x", nil, "asset file extensions for which bundles should be included")
	cmd.Flags().IntVarP(&findOpts.Limit, "limit", "L", 0, "limit the number of bundles")
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listAssetsCmd, listExtensionsCmd, listBundlesCmd)

	listAssetsCmd.Flags().StringVarP(&listPath, "path", "p", "", "show assets relative to the specified path")
	listAssetsCmd.Flags().IntVarP(&listDepth, "depth", "d", -1, "show assets up to the specified depth")
	listAssetsCmd.Flags().BoolVar(&listAll, "all", false, "include the asset URL pseudo-directory")

	addFinderFlags(listBundlesCmd)
	listBundlesCmd.Flags().BoolVar(&listCounts, "counts", false, "print bundle names with the number of matching paths")
}
