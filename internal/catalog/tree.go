package catalog

import (
	"fmt"
	"iter"
	"strings"
)

// AssetFullURLDir is the pseudo-directory the game registers as internal id
// prefix for its own asset URL. It holds no real files and is skipped when
// flattening from the root.
const AssetFullURLDir = "{Ortega.Common.Manager.GameManager.AssetFullUrl}"

const noParent = -1

// Tree is a read-only trie of asset directories and files. Nodes live in a
// single arena and refer to each other by index.
type Tree struct {
	nodes []treeNode
}

type treeNode struct {
	name     string
	parent   int
	depth    int
	dir      bool
	children []int
	index    map[string]int
}

// Asset is a handle to a node of a Tree: a directory or a file.
// Handles are comparable; two handles are equal when they name the same node.
type Asset struct {
	t  *Tree
	id int
}

// BuildTree creates one directory chain per internal id prefix and then adds
// every internal id as a file under the directory of its prefix index.
func BuildTree(prefixes, internalIDs []string) (*Tree, error) {
	t := &Tree{}
	root := t.newNode("", noParent, true)

	dirs := make([]int, len(prefixes))
	for i, prefix := range prefixes {
		id, err := t.addDir(root, prefix)
		if err != nil {
			return nil, fmt.Errorf("adding prefix %d %q: %w", i, prefix, err)
		}
		dirs[i] = id
	}

	for _, internalID := range internalIDs {
		idx, rel, err := SplitInternalID(internalID)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(dirs) {
			return nil, fmt.Errorf("%w: prefix index %d in %q, %d prefixes", ErrIndexOutOfRange, idx, internalID, len(dirs))
		}
		if err := t.addAsset(dirs[idx], rel); err != nil {
			return nil, fmt.Errorf("adding %q: %w", internalID, err)
		}
	}

	return t, nil
}

func (t *Tree) newNode(name string, parent int, dir bool) int {
	n := treeNode{name: name, parent: parent, dir: dir}
	if parent != noParent {
		n.depth = t.nodes[parent].depth + 1
	}
	if dir {
		n.index = make(map[string]int)
	}
	id := len(t.nodes)
	t.nodes = append(t.nodes, n)
	if parent != noParent {
		p := &t.nodes[parent]
		p.children = append(p.children, id)
		p.index[name] = id
	}
	return id
}

func segments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

// addDir descends from the given directory along path, creating missing
// directories, and returns the last one.
func (t *Tree) addDir(from int, path string) (int, error) {
	return t.descendOrCreate(from, segments(path))
}

func (t *Tree) descendOrCreate(cur int, parts []string) (int, error) {
	for _, part := range parts {
		child, ok := t.nodes[cur].index[part]
		if !ok {
			child = t.newNode(part, cur, true)
		} else if !t.nodes[child].dir {
			return 0, fmt.Errorf("%w: %q", ErrNotDirectory, Asset{t, child}.String())
		}
		cur = child
	}
	return cur, nil
}

// addAsset stores a file at the relative path below the given directory. An
// existing node with the same name is kept as is.
func (t *Tree) addAsset(from int, rel string) error {
	parts := segments(rel)
	if len(parts) == 0 {
		return fmt.Errorf("%w: empty asset name", ErrMalformedInternalID)
	}

	dir, err := t.descendOrCreate(from, parts[:len(parts)-1])
	if err != nil {
		return err
	}

	name := parts[len(parts)-1]
	if _, exists := t.nodes[dir].index[name]; !exists {
		t.newNode(name, dir, false)
	}
	return nil
}

// Root returns the unnamed root directory.
func (t *Tree) Root() Asset {
	return Asset{t: t, id: 0}
}

// Len returns the number of nodes in the tree, including the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Get looks up a path relative to the root.
func (t *Tree) Get(path string) (Asset, error) {
	return t.Root().Get(path)
}

func (a Asset) node() *treeNode {
	return &a.t.nodes[a.id]
}

func (a Asset) Name() string {
	return a.node().name
}

func (a Asset) IsDir() bool {
	return a.node().dir
}

// Depth is the number of ancestors of the node; the root has depth 0.
func (a Asset) Depth() int {
	return a.node().depth
}

// Parent returns the containing directory. The root has none.
func (a Asset) Parent() (Asset, bool) {
	p := a.node().parent
	if p == noParent {
		return Asset{}, false
	}
	return Asset{t: a.t, id: p}, true
}

// String returns the slash-joined names from the root down to this node.
func (a Asset) String() string {
	var names []string
	for id := a.id; id != noParent; id = a.t.nodes[id].parent {
		if n := &a.t.nodes[id]; n.parent != noParent {
			names = append(names, n.name)
		}
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

// Len returns the number of direct children; files have none.
func (a Asset) Len() int {
	return len(a.node().children)
}

// Children returns the direct children in insertion order.
func (a Asset) Children() []Asset {
	children := a.node().children
	out := make([]Asset, len(children))
	for i, id := range children {
		out[i] = Asset{t: a.t, id: id}
	}
	return out
}

// Child returns the direct child with the given name.
func (a Asset) Child(name string) (Asset, bool) {
	id, ok := a.node().index[name]
	if !ok {
		return Asset{}, false
	}
	return Asset{t: a.t, id: id}, true
}

// Get resolves a slash-separated path below this node. Empty segments are
// ignored, so an empty path returns the node itself.
func (a Asset) Get(path string) (Asset, error) {
	cur := a
	for _, part := range segments(path) {
		child, ok := cur.Child(part)
		if !ok {
			return Asset{}, fmt.Errorf("%w: %q", ErrAssetNotFound, path)
		}
		cur = child
	}
	return cur, nil
}

// Flat yields the files below this node. Once a directory at depth maxDepth
// is reached, all of its children are yielded as they are, directories
// included, without descending further. A negative maxDepth never stops
// early. When skipSentinel is set and this node is the root, the
// AssetFullURLDir pseudo-directory is left out. The sequence can be ranged
// over any number of times.
func (a Asset) Flat(maxDepth int, skipSentinel bool) iter.Seq[Asset] {
	return func(yield func(Asset) bool) {
		if !a.IsDir() {
			return
		}
		a.t.flat(a.id, maxDepth, skipSentinel, yield)
	}
}

func (t *Tree) flat(id, maxDepth int, skipSentinel bool, yield func(Asset) bool) bool {
	n := &t.nodes[id]
	stop := maxDepth >= 0 && n.depth == maxDepth
	for _, c := range n.children {
		child := &t.nodes[c]
		if skipSentinel && n.parent == noParent && child.name == AssetFullURLDir {
			continue
		}
		if child.dir && !stop {
			if !t.flat(c, maxDepth, skipSentinel, yield) {
				return false
			}
			continue
		}
		if !yield(Asset{t: t, id: c}) {
			return false
		}
	}
	return true
}
