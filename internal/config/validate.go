package config

import (
	"fmt"
	"strings"
)

// Client platforms the CDN serves bundles for
const (
	SystemAndroid = "Android"
	SystemWindows = "Windows"
	SystemIOS     = "iOS"
)

// Output formats for saved and listed data
const (
	FormatJSON       = "json"
	FormatJSONPretty = "json-pretty"
	FormatYAML       = "yaml"
)

const maxWorkers = 64

var validSystems = map[string]bool{
	SystemAndroid: true,
	SystemWindows: true,
	SystemIOS:     true,
}

var validFormats = map[string]bool{
	FormatJSON:       true,
	FormatJSONPretty: true,
	FormatYAML:       true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks every field that has a closed set of values. It is called
// by Load and again after command line overrides are applied.
func (c *Config) Validate() error {
	if !validSystems[c.System] {
		return fmt.Errorf("unsupported system '%s': supported systems are Android, Windows, iOS", c.System)
	}
	if !strings.Contains(c.AssetURLFormat, "{0}") {
		return fmt.Errorf("asset_url_format %q has no {0} placeholder", c.AssetURLFormat)
	}
	if c.Workers < 1 || c.Workers > maxWorkers {
		return fmt.Errorf("workers must be between 1 and %d, got %d", maxWorkers, c.Workers)
	}
	if !validFormats[c.OutputFormat] {
		return fmt.Errorf("unsupported output format '%s': supported formats are json, json-pretty, yaml", c.OutputFormat)
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("unsupported log level '%s'", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unsupported log format '%s'", c.LogFormat)
	}
	if c.CacheDir == "" && !c.NoCache {
		return fmt.Errorf("cache_dir cannot be empty unless no_cache is set")
	}
	return nil
}
