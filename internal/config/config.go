package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultAssetURLFormat is the CDN location of catalogs and bundles. {0} is
// replaced with "{system}/{name}".
const DefaultAssetURLFormat = "https://cdn-mememori.akamaized.net/asset/MementoMori/{0}"

type Config struct {
	AssetURLFormat string `mapstructure:"asset_url_format"`
	System         string `mapstructure:"system"`
	AssetVersion   string `mapstructure:"asset_version"`
	Catalog        string `mapstructure:"catalog"`
	CacheDir       string `mapstructure:"cache_dir"`
	NoCache        bool   `mapstructure:"no_cache"`
	Workers        int    `mapstructure:"workers"`
	OutputFormat   string `mapstructure:"output_format"`
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
}

// DefaultCacheDir returns ~/.mmassets/cache, falling back to the working
// directory when the home directory is unknown.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mmassets", "cache")
	}
	return filepath.Join(home, ".mmassets", "cache")
}

// Load initializes and loads configuration from file
func Load(cfgFile string) (*Config, error) {
	viper.SetDefault("asset_url_format", DefaultAssetURLFormat)
	viper.SetDefault("system", SystemAndroid)
	viper.SetDefault("cache_dir", DefaultCacheDir())
	viper.SetDefault("no_cache", false)
	viper.SetDefault("workers", 8)
	viper.SetDefault("output_format", FormatJSONPretty)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName("mmassets")
		viper.SetConfigType("yaml")
	}

	// The config file is optional
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
