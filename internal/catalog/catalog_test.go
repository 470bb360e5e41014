package catalog_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/brellorand/memento-mori-client/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureCatalog returns catalog JSON with two bundles, three packed files
// and one location carrying extra data.
func fixtureCatalog(t *testing.T) []byte {
	t.Helper()

	keys := []catalog.Value{
		catalog.AsciiString("aaa.bundle"),
		catalog.AsciiString("bbb.bundle"),
		catalog.AsciiString("Banner/LocalRaid/RQB_000001"),
		catalog.UnicodeString("Icon/Item/ITM_000001"),
		catalog.Int32(5),
	}
	// locations: 0 aaa, 1 bbb, 2 RQB (texture), 3 RQB (sprite), 4 ITM
	keyBlob, bucketBlob := keyTable(t, keys, [][]int32{{0}, {1}, {2, 3}, {4}, {2, 4}})

	var extra blob
	opts := extra.object(t, &catalog.JSONRecord{
		AssemblyName: "Unity.ResourceManager",
		ClassName:    "AssetBundleRequestOptions",
		JSON:         map[string]any{"m_Hash": "0123", "m_BundleSize": float64(2048)},
	})

	entries := entryBlob(
		catalog.Entry{InternalID: 0, Provider: 0, DependencyKey: -1, ExtraData: opts, PrimaryKey: 0, ResourceType: 2},
		catalog.Entry{InternalID: 1, Provider: 0, DependencyKey: -1, ExtraData: -1, PrimaryKey: 1, ResourceType: 2},
		catalog.Entry{InternalID: 2, Provider: 1, DependencyKey: 0, ExtraData: -1, PrimaryKey: 2, ResourceType: 0},
		catalog.Entry{InternalID: 2, Provider: 1, DependencyKey: 0, ExtraData: -1, PrimaryKey: 2, ResourceType: 1},
		catalog.Entry{InternalID: 3, Provider: 1, DependencyKey: 1, ExtraData: -1, PrimaryKey: 3, ResourceType: 1},
	)

	raw := map[string]any{
		"m_LocatorId":   "AddressablesMainContentCatalog",
		"m_ProviderIds": []string{"Ortega.Common.OrtegaAssestBundleProvider", "UnityEngine.ResourceManagement.ResourceProviders.BundledAssetProvider"},
		"m_InternalIds": []string{
			"0#/aaa.bundle",
			"0#/bbb.bundle",
			"1#/RQB_000001.png",
			"2#/Item/ITM_000001.png",
		},
		"m_KeyDataString":    b64(keyBlob),
		"m_BucketDataString": b64(bucketBlob),
		"m_EntryDataString":  b64(entries),
		"m_ExtraDataString":  b64(extra.Bytes()),
		"m_resourceTypes":    []catalog.SerializedType{texture, sprite, archive},
		"m_InternalIdPrefixes": []string{
			catalog.AssetFullURLDir,
			"Assets/AddressableConvertAssets/Banner/LocalRaid",
			"Assets/AddressableConvertAssets/Icon",
		},
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	return data
}

func TestLoad(t *testing.T) {
	c, err := catalog.Load(fixtureCatalog(t), catalog.DecodeOptions{})
	require.NoError(t, err)

	assert.Equal(t, "AddressablesMainContentCatalog", c.LocatorID())
	assert.Len(t, c.Buckets(), 5)
	assert.Len(t, c.Keys(), 5)
	assert.Len(t, c.Entries(), 5)
	require.Len(t, c.Locations(), 5)

	t.Run("resources follow buckets", func(t *testing.T) {
		resources := c.Resources()
		require.Len(t, resources, len(c.Buckets()))
		for i, bucket := range c.Buckets() {
			assert.Equal(t, c.Keys()[i], resources[i].Key)
			require.Len(t, resources[i].Locations, len(bucket.Entries))
			for j, e := range bucket.Entries {
				assert.Equal(t, c.Locations()[e], resources[i].Locations[j])
			}
		}

		locs, ok := c.Resource(catalog.AsciiString("Banner/LocalRaid/RQB_000001"))
		require.True(t, ok)
		require.Len(t, locs, 2)
		assert.Equal(t, texture, locs[0].SerializedType)
		assert.Equal(t, sprite, locs[1].SerializedType)

		_, ok = c.Resource(catalog.UnicodeString("Banner/LocalRaid/RQB_000001"))
		assert.False(t, ok, "keys of different types are distinct")

		locs, ok = c.Resource(catalog.Int32(5))
		require.True(t, ok)
		assert.Len(t, locs, 2)
	})

	t.Run("bundle locations carry request options", func(t *testing.T) {
		loc := c.Locations()[0]
		assert.Equal(t, "0#/aaa.bundle", loc.InternalID)
		rec, ok := loc.ExtraData.(*catalog.JSONRecord)
		require.True(t, ok)
		assert.Equal(t, "0123", rec.JSON.(map[string]any)["m_Hash"])
	})

	t.Run("bundle names and path map", func(t *testing.T) {
		assert.Equal(t, []string{"aaa.bundle", "bbb.bundle"}, c.BundleNames())

		m := c.BundlePathMap()
		assert.Equal(t, []string{"aaa.bundle", "bbb.bundle"}, m.Bundles())
		paths, _ := m.Paths("aaa.bundle")
		assert.Equal(t, []string{"Assets/AddressableConvertAssets/Banner/LocalRaid/RQB_000001.png"}, paths)
		paths, _ = m.Paths("bbb.bundle")
		assert.Equal(t, []string{"Assets/AddressableConvertAssets/Icon/Item/ITM_000001.png"}, paths)

		data, err := json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"aaa.bundle": ["Assets/AddressableConvertAssets/Banner/LocalRaid/RQB_000001.png"],
			"bbb.bundle": ["Assets/AddressableConvertAssets/Icon/Item/ITM_000001.png"]
		}`, string(data))
	})

	t.Run("asset tree", func(t *testing.T) {
		a, err := c.GetAsset("Assets/AddressableConvertAssets/Icon/Item/ITM_000001.png")
		require.NoError(t, err)
		assert.False(t, a.IsDir())

		_, err = c.GetAsset("Assets/Missing")
		assert.ErrorIs(t, err, catalog.ErrAssetNotFound)

		assert.Equal(t, []string{
			"Assets/AddressableConvertAssets/Banner/LocalRaid/RQB_000001.png",
			"Assets/AddressableConvertAssets/Icon/Item/ITM_000001.png",
		}, flatPaths(c.Tree().Root().Flat(-1, true)))
	})

	t.Run("parallel decode matches", func(t *testing.T) {
		other, err := catalog.Load(fixtureCatalog(t), catalog.DecodeOptions{Workers: 4})
		require.NoError(t, err)
		assert.Equal(t, c.Locations(), other.Locations())
		assert.Equal(t, c.Resources(), other.Resources())
	})

	t.Run("concurrent readers", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = c.GetAsset("Assets/AddressableConvertAssets/Icon")
				_ = flatPaths(c.Tree().Root().Flat(-1, true))
				_, _ = c.Resource(catalog.AsciiString("aaa.bundle"))
			}()
		}
		wg.Wait()
	})
}

func TestDecodeFailures(t *testing.T) {
	corrupt := func(t *testing.T, field string, value any) []byte {
		t.Helper()
		var raw map[string]any
		require.NoError(t, json.Unmarshal(fixtureCatalog(t), &raw))
		raw[field] = value
		data, err := json.Marshal(raw)
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name   string
		field  string
		value  any
		target error
	}{
		{"truncated bucket blob", "m_BucketDataString", b64([]byte{5, 0, 0, 0, 1}), catalog.ErrTruncated},
		{"truncated entry blob", "m_EntryDataString", b64((&blob{}).i32(1, 0, 0).Bytes()), catalog.ErrTruncated},
		{"internal id out of range", "m_InternalIds", []string{"0#/aaa.bundle"}, catalog.ErrIndexOutOfRange},
		{"missing resource types", "m_resourceTypes", []any{}, catalog.ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := catalog.Load(corrupt(t, tt.field, tt.value), catalog.DecodeOptions{})
			assert.ErrorIs(t, err, tt.target)
			assert.Nil(t, c)
		})
	}

	t.Run("bad base64", func(t *testing.T) {
		_, err := catalog.Load(corrupt(t, "m_KeyDataString", "!!!"), catalog.DecodeOptions{})
		assert.ErrorContains(t, err, "m_KeyDataString")
	})

	t.Run("not json", func(t *testing.T) {
		_, err := catalog.Load([]byte("{"), catalog.DecodeOptions{})
		assert.Error(t, err)
	})
}
