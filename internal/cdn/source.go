package cdn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/brellorand/memento-mori-client/internal/cache"
	"github.com/brellorand/memento-mori-client/internal/catalog"
)

// Source resolves the raw catalog for an asset version, preferring a local
// file, then today's cache entries, then the CDN.
type Source struct {
	Client *Client
	Cache  *cache.Cache
	// Path, when set, is a local catalog.json and no network is used.
	Path string
}

// Raw returns the catalog JSON bytes for version.
func (s *Source) Raw(ctx context.Context, version string) ([]byte, error) {
	if s.Path != "" {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
		return data, nil
	}

	path := s.Cache.CatalogPath(version, s.Client.System())
	data, err := s.Cache.Get(path)
	if err == nil {
		slog.Debug("Using cached catalog", "path", path)
		return data, nil
	}
	slog.Debug("Catalog not cached", "reason", err)

	data, err = s.Client.FetchCatalog(ctx, version)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Store(path, data); err != nil {
		slog.Warn("Failed to cache catalog", "path", path, "error", err)
	}
	return data, nil
}

// Catalog returns the parsed catalog for version. Parsed catalogs are kept
// as CBOR snapshots next to the cached JSON.
func (s *Source) Catalog(ctx context.Context, version string) (*catalog.RawCatalog, error) {
	if s.Path != "" {
		data, err := s.Raw(ctx, version)
		if err != nil {
			return nil, err
		}
		return catalog.ParseRaw(data)
	}

	snapshot := s.Cache.SnapshotPath(version, s.Client.System())
	var raw catalog.RawCatalog
	err := s.Cache.LoadSnapshot(snapshot, &raw)
	if err == nil {
		slog.Debug("Using catalog snapshot", "path", snapshot)
		return &raw, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		return nil, err
	}

	data, err := s.Raw(ctx, version)
	if err != nil {
		return nil, err
	}
	parsed, err := catalog.ParseRaw(data)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.StoreSnapshot(snapshot, parsed); err != nil {
		slog.Warn("Failed to store catalog snapshot", "path", snapshot, "error", err)
	}
	return parsed, nil
}
