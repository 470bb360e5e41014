package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/brellorand/memento-mori-client/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string

	system       string
	assetVersion string
	catalogPath  string
	cacheDir     string
	noCache      bool
	workers      int
	outputFormat string
	logLevel     string
	logFormat    string
	noProgress   bool
)

var rootCmd = &cobra.Command{
	Use:   "mmassets",
	Short: "Memento Mori asset catalog tool",
	Long: `mmassets reads the Addressables content catalog of Memento Mori and answers
questions about it: which files exist, which bundle holds a file, and which
bundles to download for a set of asset paths.

The catalog is read from a local file (--catalog) or fetched from the asset
CDN for an asset version and cached for the rest of the day.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("system") {
			cfg.System = system
		}
		if flags.Changed("asset-version") {
			cfg.AssetVersion = assetVersion
		}
		if flags.Changed("catalog") {
			cfg.Catalog = catalogPath
		}
		if flags.Changed("cache-dir") {
			cfg.CacheDir = cacheDir
		}
		if flags.Changed("no-cache") {
			cfg.NoCache = noCache
		}
		if flags.Changed("workers") {
			cfg.Workers = workers
		}
		if flags.Changed("format") {
			cfg.OutputFormat = outputFormat
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		slog.SetDefault(slog.New(handler))

		slog.Debug("Configuration",
			"system", cfg.System,
			"asset_version", cfg.AssetVersion,
			"catalog", cfg.Catalog,
			"cache_dir", cfg.CacheDir,
			"no_cache", cfg.NoCache,
			"workers", cfg.Workers,
			"output_format", cfg.OutputFormat)

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is mmassets.yaml in $HOME or pwd)")
	rootCmd.PersistentFlags().StringVar(&system, "system", "", "client platform (Android, Windows, iOS)")
	rootCmd.PersistentFlags().StringVarP(&assetVersion, "asset-version", "V", "", "asset version of the catalog to fetch (default: latest cached)")
	rootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "c", "", "path to a local catalog.json")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache directory (default ~/.mmassets/cache)")
	rootCmd.PersistentFlags().BoolVarP(&noCache, "no-cache", "C", false, "do not read cached catalog data")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "P", 0, "number of parallel workers")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "output format (json, json-pretty, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
