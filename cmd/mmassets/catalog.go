package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brellorand/memento-mori-client/internal/cache"
	"github.com/brellorand/memento-mori-client/internal/catalog"
	"github.com/brellorand/memento-mori-client/internal/cdn"
	"github.com/brellorand/memento-mori-client/internal/utils"
)

// session bundles what commands need to reach the catalog
type session struct {
	cache   *cache.Cache
	client  *cdn.Client
	source  *cdn.Source
	version string
}

func newSession() (*session, error) {
	s := &session{
		cache:   cache.New(cfg.CacheDir, !cfg.NoCache),
		client:  cdn.NewClient(cfg.AssetURLFormat, cfg.System, nil),
		version: cfg.AssetVersion,
	}
	s.source = &cdn.Source{Client: s.client, Cache: s.cache, Path: cfg.Catalog}

	if s.version == "" && cfg.Catalog == "" {
		latest, err := s.cache.LatestVersion(cfg.System)
		if err != nil {
			return nil, fmt.Errorf("no asset version given and none cached: %w", err)
		}
		slog.Info("Using latest cached asset version", "version", latest)
		s.version = latest
	}
	return s, nil
}

// rawCatalog returns the parsed but undecoded catalog
func (s *session) rawCatalog(ctx context.Context) (*catalog.RawCatalog, error) {
	raw, err := s.source.Catalog(ctx, s.version)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return raw, nil
}

// catalog returns the fully decoded catalog
func (s *session) catalog(ctx context.Context) (*catalog.Catalog, error) {
	raw, err := s.rawCatalog(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c, err := catalog.Decode(raw, catalog.DecodeOptions{Workers: cfg.Workers})
	if err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	slog.Info("Decoded catalog",
		"locations", utils.Number(int64(len(c.Locations()))),
		"bundles", utils.Number(int64(len(c.BundleNames()))),
		"elapsed", utils.Duration(time.Since(start)))
	return c, nil
}

func loadCatalog(ctx context.Context) (*session, *catalog.Catalog, error) {
	s, err := newSession()
	if err != nil {
		return nil, nil, err
	}
	c, err := s.catalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, c, nil
}
