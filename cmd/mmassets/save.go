package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/brellorand/memento-mori-client/internal/catalog"
	"github.com/brellorand/memento-mori-client/internal/config"
	"github.com/brellorand/memento-mori-client/internal/output"
	"github.com/spf13/cobra"
)

var (
	saveDir      string
	saveForce    bool
	saveSplit    bool
	saveDecode   bool
	saveNoSubdir bool
)

const catalogDirName = "asset-catalog"

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the catalog or data derived from it to a directory",
}

var saveCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Save the raw asset catalog",
	Long: `Save the raw asset catalog JSON. With --split every top-level key is
written to its own file, and --decode writes the base64 encoded sections as
binary .dat files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		if !saveSplit {
			data, err := s.source.Raw(cmd.Context(), s.version)
			if err != nil {
				return err
			}
			return saveRaw(filepath.Join(saveDir, "asset-catalog.json"), data, saveForce)
		}

		raw, err := s.rawCatalog(cmd.Context())
		if err != nil {
			return err
		}
		dir := filepath.Join(saveDir, catalogDirName)
		if saveNoSubdir {
			dir = saveDir
		}
		return saveSplitCatalog(dir, raw, saveDecode, saveForce)
	},
}

var saveKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Save the decoded catalog keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		return saveData("asset-catalog-keys", c.Keys())
	},
}

var saveLocationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Save the resolved resource locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		return saveData("asset-catalog-locations", c.Locations())
	},
}

var saveBundlePathMapCmd = &cobra.Command{
	Use:   "bundle-path-map",
	Short: "Save the map of bundle names to the asset paths they contain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		return saveData("asset-catalog-bundle_path_map", c.BundlePathMap())
	},
}

func saveData(name string, v any) error {
	path := filepath.Join(saveDir, name+output.Ext(cfg.OutputFormat))
	slog.Info("Saving", "path", path)
	saved, err := output.SaveFile(path, cfg.OutputFormat, v, saveForce)
	if err != nil {
		return err
	}
	if !saved {
		slog.Warn("Skipping file that already exists (use --force to overwrite)", "path", path)
	}
	return nil
}

func saveRaw(path string, data []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			slog.Warn("Skipping file that already exists (use --force to overwrite)", "path", path)
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	slog.Info("Saving", "path", path)
	return os.WriteFile(path, data, 0644)
}

// blobFields maps the base64 encoded catalog keys to their decoded sections
var blobFields = map[string]func(catalog.Blobs) []byte{
	"m_KeyDataString":    func(b catalog.Blobs) []byte { return b.Key },
	"m_BucketDataString": func(b catalog.Blobs) []byte { return b.Bucket },
	"m_EntryDataString":  func(b catalog.Blobs) []byte { return b.Entry },
	"m_ExtraDataString":  func(b catalog.Blobs) []byte { return b.Extra },
}

// saveSplitCatalog writes one file per top-level catalog key into dir
func saveSplitCatalog(dir string, raw *catalog.RawCatalog, decode, force bool) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("splitting catalog: %w", err)
	}

	var blobs catalog.Blobs
	if decode {
		if blobs, err = raw.Blobs(); err != nil {
			return err
		}
	}

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		value := fields[key]
		if get, ok := blobFields[key]; ok && decode {
			if err := saveRaw(filepath.Join(dir, key+".dat"), get(blobs), force); err != nil {
				return err
			}
			continue
		}

		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
		path := filepath.Join(dir, key+".json")
		saved, err := output.SaveFile(path, config.FormatJSONPretty, v, force)
		if err != nil {
			return err
		}
		if !saved {
			slog.Warn("Skipping file that already exists (use --force to overwrite)", "path", path)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.AddCommand(saveCatalogCmd, saveKeysCmd, saveLocationsCmd, saveBundlePathMapCmd)

	saveCmd.PersistentFlags().StringVarP(&saveDir, "output", "o", "", "output directory")
	saveCmd.PersistentFlags().BoolVarP(&saveForce, "force", "F", false, "overwrite files that already exist")
	_ = saveCmd.MarkPersistentFlagRequired("output")

	saveCatalogCmd.Flags().BoolVarP(&saveSplit, "split", "s", false, "split the catalog into separate files for each top-level key")
	saveCatalogCmd.Flags().BoolVarP(&saveDecode, "decode", "d", false, "decode base64 encoded content (only with --split)")
	saveCatalogCmd.Flags().BoolVarP(&saveNoSubdir, "no-subdir", "S", false, "with --split, write into the output dir instead of a subdirectory")
}
