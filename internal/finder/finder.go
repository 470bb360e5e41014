// Package finder selects bundles to download from a catalog's bundle path
// map using path patterns, path prefixes and file extensions.
package finder

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/brellorand/memento-mori-client/internal/cache"
	"github.com/brellorand/memento-mori-client/internal/catalog"
)

// Options narrows the bundles a Finder returns. Empty fields do not filter.
type Options struct {
	// Names restricts the result to these bundles.
	Names []string
	// Patterns are shell globs matched against whole asset paths. A "*"
	// also matches "/".
	Patterns []string
	// Prefixes select asset paths that start with any of them.
	Prefixes []string
	// Extensions keep bundles holding at least one selected path with one
	// of these suffixes.
	Extensions []string
	// Limit caps the number of returned bundles when positive.
	Limit int
}

// Finder selects bundles from a bundle path map
type Finder struct {
	bundles  *catalog.BundlePathMap
	names    map[string]bool
	index    *PathIndex
	patterns []glob.Glob
	opts     Options
}

// New compiles the patterns in opts
func New(bundles *catalog.BundlePathMap, opts Options) (*Finder, error) {
	f := &Finder{bundles: bundles, opts: opts}
	if len(opts.Names) > 0 {
		f.names = make(map[string]bool, len(opts.Names))
		for _, n := range opts.Names {
			f.names[n] = true
		}
	}
	for _, pat := range opts.Patterns {
		g, err := glob.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid path pattern %q: %w", pat, err)
		}
		f.patterns = append(f.patterns, g)
	}
	if len(opts.Prefixes) > 0 {
		f.index = NewPathIndex(bundles)
	}
	return f, nil
}

// Selection is a bundle with the asset paths in it that passed the filters
type Selection struct {
	Bundle string   `json:"bundle" yaml:"bundle"`
	Paths  []string `json:"paths" yaml:"paths"`
}

// Candidates returns matching bundles in bundle path map order, ignoring
// Limit.
func (f *Finder) Candidates() []Selection {
	var byPrefix map[string]map[string]bool
	if f.index != nil {
		byPrefix = make(map[string]map[string]bool)
		for _, prefix := range f.opts.Prefixes {
			f.index.WalkPrefix(prefix, func(path string, bundles []string) bool {
				for _, b := range bundles {
					if byPrefix[b] == nil {
						byPrefix[b] = make(map[string]bool)
					}
					byPrefix[b][path] = true
				}
				return true
			})
		}
	}

	filtering := len(f.patterns) > 0 || f.index != nil

	var out []Selection
	for bundle, paths := range f.bundles.All() {
		if f.names != nil && !f.names[bundle] {
			continue
		}
		selected := paths
		if filtering {
			selected = nil
			for _, p := range paths {
				if byPrefix[bundle][p] || f.matches(p) {
					selected = append(selected, p)
				}
			}
		}
		if len(selected) == 0 || !f.hasExtension(selected) {
			continue
		}
		out = append(out, Selection{Bundle: bundle, Paths: selected})
	}
	return out
}

func (f *Finder) matches(path string) bool {
	for _, g := range f.patterns {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func (f *Finder) hasExtension(paths []string) bool {
	if len(f.opts.Extensions) == 0 {
		return true
	}
	for _, p := range paths {
		for _, ext := range f.opts.Extensions {
			if strings.HasSuffix(p, ext) {
				return true
			}
		}
	}
	return false
}

// BundleNames returns the names of matching bundles. Unless force is set,
// bundles already saved in saveDir are dropped before Limit applies.
func (f *Finder) BundleNames(saveDir string, force bool) []string {
	candidates := f.Candidates()
	slog.Debug("Found bundles to download", "count", len(candidates))

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !force && cache.FileExists(filepath.Join(saveDir, cache.SafeName(c.Bundle))) {
			continue
		}
		names = append(names, c.Bundle)
	}
	if !force {
		slog.Debug("Filtered to new bundles", "count", len(names))
	}

	if f.opts.Limit > 0 && len(names) > f.opts.Limit {
		names = names[:f.opts.Limit]
	}
	return names
}
