package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brellorand/memento-mori-client/internal/codec"
	"github.com/brellorand/memento-mori-client/internal/utils"
)

// ErrMiss is returned when an entry is absent, stale, disabled or unreadable.
var ErrMiss = errors.New("cache miss")

// Cache stores downloaded catalogs and derived snapshots below a root
// directory, one subdirectory per asset version and system. Entries are only
// considered fresh on the calendar day they were written.
type Cache struct {
	root    string
	enabled bool
}

// New creates a cache rooted at dir. A disabled cache misses on every read
// but still writes, so the next run can use it.
func New(dir string, enabled bool) *Cache {
	return &Cache{root: dir, enabled: enabled}
}

// Dir returns the cache root
func (c *Cache) Dir() string {
	return c.root
}

// VersionDir returns the cache directory for an asset version and system
func (c *Cache) VersionDir(version, system string) string {
	return filepath.Join(c.root, version, system)
}

// CatalogPath returns the path of the raw catalog JSON for a version
func (c *Cache) CatalogPath(version, system string) string {
	return filepath.Join(c.VersionDir(version, system), "catalog.json")
}

// SnapshotPath returns the path of the CBOR snapshot of a parsed catalog
func (c *Cache) SnapshotPath(version, system string) string {
	return filepath.Join(c.VersionDir(version, system), "catalog.cbor")
}

// BundleDir returns the directory downloaded bundles are saved to by default
func (c *Cache) BundleDir(version, system string) string {
	return filepath.Join(c.VersionDir(version, system), "bundles")
}

// BundlePath returns the path to a bundle file for a version
func (c *Cache) BundlePath(version, system, bundleName string) string {
	return filepath.Join(c.BundleDir(version, system), SafeName(bundleName))
}

// SafeName flattens a bundle name into a single file name
func SafeName(bundleName string) string {
	safeBundleName := strings.ReplaceAll(bundleName, "/", "_")
	return strings.ReplaceAll(safeBundleName, " ", "_")
}

// LatestVersion returns the highest asset version with a cached catalog for
// system. Directories that are not version numbers are ignored.
func (c *Cache) LatestVersion(system string) (string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading cache directory: %w", err)
	}

	var latest string
	for _, e := range entries {
		if !e.IsDir() || !FileExists(c.CatalogPath(e.Name(), system)) {
			continue
		}
		if _, err := utils.ParseVersionInfo(e.Name()); err != nil {
			continue
		}
		if latest == "" {
			latest = e.Name()
			continue
		}
		if cmp, _ := utils.CompareVersions(e.Name(), latest); cmp > 0 {
			latest = e.Name()
		}
	}

	if latest == "" {
		return "", fmt.Errorf("%w: no cached catalog for %s in %s", ErrMiss, system, c.root)
	}
	return latest, nil
}

// EnsureDir creates a directory and all parent directories
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// FileSize returns the size of a file, or 0 if it doesn't exist
func FileSize(filename string) int64 {
	info, err := os.Stat(filename)
	if err != nil {
		return 0
	}
	return info.Size()
}

// fresh returns ErrMiss unless the cache is enabled and path was modified
// today in local time.
func (c *Cache) fresh(path string) error {
	if !c.enabled {
		return ErrMiss
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMiss, err)
	}
	if !sameDay(info.ModTime(), time.Now()) {
		return fmt.Errorf("%w: %s is from %s", ErrMiss, path, info.ModTime().Format(time.DateOnly))
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

// Get returns the contents of a fresh cached file.
func (c *Cache) Get(path string) ([]byte, error) {
	if err := c.fresh(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMiss, err)
	}
	return data, nil
}

// Store writes data to path, creating parent directories.
func (c *Cache) Store(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", path, err)
	}
	slog.Debug("Stored cache entry", "path", path, "bytes", len(data))
	return nil
}

// LoadSnapshot decodes a fresh CBOR snapshot into v. A snapshot that cannot
// be decoded is logged and reported as a miss.
func (c *Cache) LoadSnapshot(path string, v any) error {
	data, err := c.Get(path)
	if err != nil {
		return err
	}
	if err := codec.Unmarshal(data, v); err != nil {
		slog.Warn("Error deserializing cached data", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrMiss, err)
	}
	return nil
}

// StoreSnapshot encodes v as CBOR and writes it to path.
func (c *Cache) StoreSnapshot(path string, v any) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return c.Store(path, data)
}
