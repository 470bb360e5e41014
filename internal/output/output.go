// Package output renders decoded catalog data as json, indented json or yaml.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/brellorand/memento-mori-client/internal/config"
)

// Formats lists the accepted format names
var Formats = []string{config.FormatJSON, config.FormatJSONPretty, config.FormatYAML}

// Write encodes v to w in the named format. Non-ASCII text is written as is.
func Write(w io.Writer, format string, v any) error {
	switch format {
	case config.FormatJSON, config.FormatJSONPretty:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if format == config.FormatJSONPretty {
			enc.SetIndent("", "    ")
		}
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid output format %q: choose from %v", format, Formats)
	}
}

// Ext returns the file extension for a format
func Ext(format string) string {
	if format == config.FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// SaveFile writes v to path in the named format, creating parent
// directories. An existing file is left alone unless force is set, in which
// case saved reports false.
func SaveFile(path, format string, v any, force bool) (saved bool, err error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return false, err
	}
	if err := Write(f, format, v); err != nil {
		f.Close()
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	return true, nil
}
