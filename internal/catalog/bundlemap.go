package catalog

import (
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// bundlePrefix marks internal ids that name a downloadable bundle file.
const bundlePrefix = "0#/"

const bundleExt = ".bundle"

// BundlePathMap maps bundle file names to the relative paths of the files
// packed inside them. Bundles keep the order in which they were first seen.
type BundlePathMap struct {
	names []string
	paths map[string][]string
}

// Bundles returns the bundle names in first-seen order.
func (m *BundlePathMap) Bundles() []string {
	return m.names
}

// Paths returns the relative paths stored in the named bundle.
func (m *BundlePathMap) Paths(bundle string) ([]string, bool) {
	paths, ok := m.paths[bundle]
	return paths, ok
}

func (m *BundlePathMap) Len() int {
	return len(m.names)
}

// All iterates over bundles and their paths in first-seen order.
func (m *BundlePathMap) All() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, name := range m.names {
			if !yield(name, m.paths[name]) {
				return
			}
		}
	}
}

// Map returns the bundle paths as a plain map.
func (m *BundlePathMap) Map() map[string][]string {
	return m.paths
}

func (m *BundlePathMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.paths)
}

func (m *BundlePathMap) MarshalYAML() (any, error) {
	return m.paths, nil
}

// BuildBundlePathMap walks the raw entry records and records, for every
// entry whose dependency key is a bundle file name, the relative path of the
// referencing internal id. The path comes from the internal id prefix table
// rather than the primary key, which can be both less complete and more
// specific than the file's actual location. A path appears once per bundle
// even when the file is stored as several serialized types.
func BuildBundlePathMap(entries []Entry, internalIDs, prefixes []string, keys []Value) (*BundlePathMap, error) {
	m := &BundlePathMap{paths: make(map[string][]string)}
	seen := make(map[string]map[string]struct{})

	for i, e := range entries {
		if e.DependencyKey < 0 {
			continue
		}

		key, err := lookup(keys, e.DependencyKey, "dependency key")
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		bundle, ok := StringValue(key)
		if !ok || !strings.HasSuffix(bundle, bundleExt) {
			continue
		}

		internalID, err := lookup(internalIDs, e.InternalID, "internal id")
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		path, err := ResolveInternalIDPath(internalID, prefixes)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		bundlePaths, ok := seen[bundle]
		if !ok {
			bundlePaths = make(map[string]struct{})
			seen[bundle] = bundlePaths
			m.names = append(m.names, bundle)
		}
		if _, dup := bundlePaths[path]; dup {
			continue
		}
		bundlePaths[path] = struct{}{}
		m.paths[bundle] = append(m.paths[bundle], path)
	}

	return m, nil
}

// SplitInternalID splits "{prefix_index}#/{relative_path}" into the prefix
// index and the relative path without its leading slash.
func SplitInternalID(internalID string) (int, string, error) {
	num, rest, ok := strings.Cut(internalID, "#")
	if !ok {
		return 0, "", fmt.Errorf("%w: %q has no prefix separator", ErrMalformedInternalID, internalID)
	}
	idx, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q has non-numeric prefix index", ErrMalformedInternalID, internalID)
	}
	return idx, strings.TrimPrefix(rest, "/"), nil
}

// ResolveInternalIDPath joins an internal id's relative path onto the prefix
// it references.
func ResolveInternalIDPath(internalID string, prefixes []string) (string, error) {
	idx, name, err := SplitInternalID(internalID)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(prefixes) {
		return "", fmt.Errorf("%w: prefix index %d in %q, %d prefixes", ErrIndexOutOfRange, idx, internalID, len(prefixes))
	}

	prefix := prefixes[idx]
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix + name, nil
	}
	return prefix + "/" + name, nil
}

// BundleNames returns the file names of internal ids under prefix index 0,
// which is reserved for downloadable bundle files.
func BundleNames(internalIDs []string) []string {
	var names []string
	for _, id := range internalIDs {
		if name, ok := strings.CutPrefix(id, bundlePrefix); ok {
			names = append(names, name)
		}
	}
	return names
}
