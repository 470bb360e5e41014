package finder

import (
	"slices"
	"strings"

	"github.com/armon/go-radix"

	"github.com/brellorand/memento-mori-client/internal/catalog"
)

// PathIndex maps asset paths to the bundles that contain them and answers
// prefix queries in time proportional to the prefix length.
type PathIndex struct {
	tree *radix.Tree
}

// NewPathIndex indexes every path of a bundle path map
func NewPathIndex(m *catalog.BundlePathMap) *PathIndex {
	tree := radix.New()
	for bundle, paths := range m.All() {
		for _, p := range paths {
			if v, ok := tree.Get(p); ok {
				bundles := v.([]string)
				if !slices.Contains(bundles, bundle) {
					tree.Insert(p, append(bundles, bundle))
				}
				continue
			}
			tree.Insert(p, []string{bundle})
		}
	}
	return &PathIndex{tree: tree}
}

func normalize(p string) string {
	return strings.TrimPrefix(p, "/")
}

// Len returns the number of indexed paths
func (idx *PathIndex) Len() int {
	return idx.tree.Len()
}

// Lookup returns the bundles containing the exact asset path
func (idx *PathIndex) Lookup(path string) ([]string, bool) {
	v, ok := idx.tree.Get(normalize(path))
	if !ok {
		return nil, false
	}
	return v.([]string), true
}

// WalkPrefix calls fn for every indexed path starting with prefix, in
// lexical order, until fn returns false.
func (idx *PathIndex) WalkPrefix(prefix string, fn func(path string, bundles []string) bool) {
	idx.tree.WalkPrefix(normalize(prefix), func(key string, value interface{}) bool {
		return !fn(key, value.([]string))
	})
}

// PrefixBundles returns the distinct bundles holding any path below prefix
func (idx *PathIndex) PrefixBundles(prefix string) []string {
	seen := make(map[string]bool)
	var out []string
	idx.WalkPrefix(prefix, func(_ string, bundles []string) bool {
		for _, b := range bundles {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
		return true
	})
	return out
}
