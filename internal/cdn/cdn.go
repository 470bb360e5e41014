// Package cdn downloads catalogs and asset bundles from the game's asset CDN.
// It handles URL construction, catalog retrieval with caching, and bundle
// downloads with bounded concurrency and progress tracking.
package cdn

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/brellorand/memento-mori-client/internal/cache"
	"github.com/brellorand/memento-mori-client/internal/utils"
	"github.com/sourcegraph/conc/pool"
)

// ConstructURL substitutes "{system}/{name}" for the {0} placeholder of an
// asset URL format.
func ConstructURL(format, system, name string) string {
	return strings.Replace(format, "{0}", system+"/"+name, 1)
}

// Client fetches files for one client platform.
type Client struct {
	http      *http.Client
	urlFormat string
	system    string
}

// NewClient creates a client. A nil httpClient uses a default client with a
// generous timeout for large bundles.
func NewClient(urlFormat, system string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{http: httpClient, urlFormat: urlFormat, system: system}
}

// URL returns the CDN URL of a named asset file
func (c *Client) URL(name string) string {
	return ConstructURL(c.urlFormat, c.system, name)
}

func (c *Client) System() string {
	return c.system
}

// FetchCatalog downloads the catalog JSON for an asset version
func (c *Client) FetchCatalog(ctx context.Context, version string) ([]byte, error) {
	url := c.URL(version + ".json")
	slog.Info("Fetching catalog from CDN", "url", url)

	data, err := utils.Fetch(ctx, c.http, url)
	if err != nil {
		return nil, fmt.Errorf("downloading catalog from %s: %w", url, err)
	}
	return data, nil
}

// DownloadOptions controls DownloadBundles
type DownloadOptions struct {
	// Dir is the directory bundles are written to
	Dir      string
	Workers  int
	Force    bool
	Progress bool
}

// DownloadStats summarizes a DownloadBundles call
type DownloadStats struct {
	Downloaded int
	Cached     int
	Bytes      int64
	Elapsed    time.Duration
}

// DownloadBundles fetches the named bundles into opts.Dir. Bundles already
// present with a non-zero size are skipped unless opts.Force is set. The
// first failed download cancels the remaining ones.
func (c *Client) DownloadBundles(ctx context.Context, bundleNames []string, opts DownloadOptions) (DownloadStats, error) {
	var stats DownloadStats
	bundlesToDownload := make([]string, 0, len(bundleNames))

	for _, bundleName := range bundleNames {
		bundlePath := filepath.Join(opts.Dir, cache.SafeName(bundleName))

		if !opts.Force {
			if size := cache.FileSize(bundlePath); size > 0 {
				slog.Debug("Bundle already saved", "bundle", bundleName, "size", size)
				stats.Cached++
				continue
			}
		}

		bundlesToDownload = append(bundlesToDownload, bundleName)
	}

	if len(bundlesToDownload) == 0 {
		slog.Info("Using saved bundles", "count", stats.Cached)
		return stats, nil
	}

	if err := cache.EnsureDir(opts.Dir); err != nil {
		return stats, fmt.Errorf("creating bundle directory: %w", err)
	}

	slog.Info("Downloading bundles", "count", len(bundlesToDownload), "workers", opts.Workers)

	progress := utils.NewProgress(len(bundlesToDownload), opts.Progress)
	start := time.Now()

	var downloaded atomic.Int64
	var total atomic.Int64

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(max(opts.Workers, 1))

	for _, bundleName := range bundlesToDownload {
		p.Go(func(ctx context.Context) error {
			bundlePath := filepath.Join(opts.Dir, cache.SafeName(bundleName))
			bundleURL := c.URL(bundleName)

			if !opts.Progress {
				slog.Info("Downloading bundle", "bundle", bundleName)
			}
			n, err := utils.DownloadFile(ctx, c.http, bundlePath, bundleURL)
			if err != nil {
				return fmt.Errorf("downloading bundle %s from %s: %w", bundleName, bundleURL, err)
			}

			downloaded.Add(1)
			total.Add(n)
			progress.Increment(bundleName)
			return nil
		})
	}

	err := p.Wait()
	if err != nil {
		progress.Abort()
	}
	progress.Finish()

	stats.Downloaded = int(downloaded.Load())
	stats.Bytes = total.Load()
	stats.Elapsed = time.Since(start)

	if err != nil {
		return stats, err
	}

	slog.Info("Downloaded bundles",
		"count", stats.Downloaded,
		"size", utils.Bytes(stats.Bytes),
		"elapsed", utils.Duration(stats.Elapsed),
		"rate", utils.Rate(stats.Bytes, stats.Elapsed))
	return stats, nil
}
