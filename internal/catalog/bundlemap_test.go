package catalog_test

import (
	"testing"

	"github.com/brellorand/memento-mori-client/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBundlePathMap(t *testing.T) {
	prefixes := []string{
		catalog.AssetFullURLDir,
		"Assets/AddressableConvertAssets/Banner/LocalRaid",
		"Assets/AddressableConvertAssets/Icon/",
	}
	internalIDs := []string{
		"0#/62a70f458f55919d69c737052a1a2a0a.bundle",
		"0#/0009f326fb5c3ee00f92ba11c7b0e6c7.bundle",
		"1#/RQB_000001.png",
		"2#/Item/ITM_000001.png",
		"2#/Item/ITM_000002.png",
	}
	keys := []catalog.Value{
		catalog.AsciiString("62a70f458f55919d69c737052a1a2a0a.bundle"),
		catalog.AsciiString("0009f326fb5c3ee00f92ba11c7b0e6c7.bundle"),
		catalog.AsciiString("Banner/LocalRaid/RQB_000001"),
		catalog.Int32(12),
		catalog.AsciiString("not-an-archive.json"),
	}

	entries := []catalog.Entry{
		// bundle files themselves have no dependency
		{InternalID: 0, DependencyKey: -1, PrimaryKey: 0},
		{InternalID: 1, DependencyKey: -1, PrimaryKey: 1},
		// same file under two serialized types
		{InternalID: 2, DependencyKey: 0, PrimaryKey: 2, ResourceType: 0},
		{InternalID: 2, DependencyKey: 0, PrimaryKey: 2, ResourceType: 1},
		{InternalID: 3, DependencyKey: 1, PrimaryKey: 2},
		{InternalID: 4, DependencyKey: 1, PrimaryKey: 2},
		// dependency keys that are not bundle file names
		{InternalID: 4, DependencyKey: 3, PrimaryKey: 2},
		{InternalID: 4, DependencyKey: 4, PrimaryKey: 2},
	}

	m, err := catalog.BuildBundlePathMap(entries, internalIDs, prefixes, keys)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"62a70f458f55919d69c737052a1a2a0a.bundle",
		"0009f326fb5c3ee00f92ba11c7b0e6c7.bundle",
	}, m.Bundles())
	assert.Equal(t, 2, m.Len())

	paths, ok := m.Paths("62a70f458f55919d69c737052a1a2a0a.bundle")
	require.True(t, ok)
	assert.Equal(t, []string{"Assets/AddressableConvertAssets/Banner/LocalRaid/RQB_000001.png"}, paths)

	paths, ok = m.Paths("0009f326fb5c3ee00f92ba11c7b0e6c7.bundle")
	require.True(t, ok)
	assert.Equal(t, []string{
		"Assets/AddressableConvertAssets/Icon/Item/ITM_000001.png",
		"Assets/AddressableConvertAssets/Icon/Item/ITM_000002.png",
	}, paths)

	_, ok = m.Paths("not-an-archive.json")
	assert.False(t, ok)

	var order []string
	for name := range m.All() {
		order = append(order, name)
	}
	assert.Equal(t, m.Bundles(), order)

	t.Run("dependency key out of range", func(t *testing.T) {
		_, err := catalog.BuildBundlePathMap([]catalog.Entry{{DependencyKey: 9}}, internalIDs, prefixes, keys)
		assert.ErrorIs(t, err, catalog.ErrIndexOutOfRange)
	})

	t.Run("prefix index out of range", func(t *testing.T) {
		_, err := catalog.BuildBundlePathMap([]catalog.Entry{{InternalID: 0, DependencyKey: 0}}, []string{"7#/x.png"}, prefixes, keys)
		assert.ErrorIs(t, err, catalog.ErrIndexOutOfRange)
	})
}

func TestSplitInternalID(t *testing.T) {
	idx, rel, err := catalog.SplitInternalID("12#/Spine/Character/CHR_000001.skel.bytes")
	require.NoError(t, err)
	assert.Equal(t, 12, idx)
	assert.Equal(t, "Spine/Character/CHR_000001.skel.bytes", rel)

	idx, rel, err = catalog.SplitInternalID("3#a#b")
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
	assert.Equal(t, "a#b", rel)

	_, _, err = catalog.SplitInternalID("no-separator.png")
	assert.ErrorIs(t, err, catalog.ErrMalformedInternalID)

	_, _, err = catalog.SplitInternalID("x#/file.png")
	assert.ErrorIs(t, err, catalog.ErrMalformedInternalID)
}

func TestBundleNames(t *testing.T) {
	names := catalog.BundleNames([]string{"0#/hash123.bundle", "1#/img.png", "0#/other.bundle", "10#/x"})
	assert.Equal(t, []string{"hash123.bundle", "other.bundle"}, names)
}

func TestExtensionCounts(t *testing.T) {
	counts := catalog.ExtensionCounts([]string{"0#/a.bundle", "1#/a.png", "1#/b/c.png", "2#/d.skel.bytes", "2#/noext"})
	assert.Equal(t, map[string]int{".png": 2, ".bytes": 1, "": 1}, counts)
}
