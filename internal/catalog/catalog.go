// Package catalog decodes Addressables content catalogs: the JSON manifest a
// Unity client uses to locate asset bundles and the files packed in them.
// Decoding is all or nothing; a Catalog is fully built by Decode and is
// read-only afterwards, so it may be shared between goroutines.
package catalog

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// RawCatalog is the catalog JSON as delivered by the CDN.
type RawCatalog struct {
	LocatorID            string           `json:"m_LocatorId"`
	InstanceProviderData json.RawMessage  `json:"m_InstanceProviderData,omitempty"`
	SceneProviderData    json.RawMessage  `json:"m_SceneProviderData,omitempty"`
	ResourceProviderData json.RawMessage  `json:"m_ResourceProviderData,omitempty"`
	ProviderIDs          []string         `json:"m_ProviderIds"`
	InternalIDs          []string         `json:"m_InternalIds"`
	KeyData              string           `json:"m_KeyDataString"`
	BucketData           string           `json:"m_BucketDataString"`
	EntryData            string           `json:"m_EntryDataString"`
	ExtraData            string           `json:"m_ExtraDataString"`
	ResourceTypes        []SerializedType `json:"m_resourceTypes"`
	InternalIDPrefixes   []string         `json:"m_InternalIdPrefixes"`
}

// Blobs holds the four base64-decoded binary sections of a catalog.
type Blobs struct {
	Key    []byte
	Bucket []byte
	Entry  []byte
	Extra  []byte
}

// ParseRaw unmarshals catalog JSON.
func ParseRaw(data []byte) (*RawCatalog, error) {
	var raw RawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalog json: %w", err)
	}
	return &raw, nil
}

// Blobs base64-decodes the binary sections.
func (raw *RawCatalog) Blobs() (Blobs, error) {
	var b Blobs
	for _, f := range []struct {
		name string
		src  string
		dst  *[]byte
	}{
		{"m_KeyDataString", raw.KeyData, &b.Key},
		{"m_BucketDataString", raw.BucketData, &b.Bucket},
		{"m_EntryDataString", raw.EntryData, &b.Entry},
		{"m_ExtraDataString", raw.ExtraData, &b.Extra},
	} {
		data, err := base64.StdEncoding.DecodeString(f.src)
		if err != nil {
			return Blobs{}, fmt.Errorf("decoding %s: %w", f.name, err)
		}
		*f.dst = data
	}
	return b, nil
}

// DecodeOptions tunes Decode. The zero value decodes on one goroutine.
type DecodeOptions struct {
	Workers int
}

// Catalog is a fully decoded catalog with all derived indexes.
type Catalog struct {
	raw           *RawCatalog
	buckets       []Bucket
	keys          []Value
	entries       []Entry
	locations     []ResourceLocation
	resources     []Resource
	resourceIndex map[string]int
	bundlePaths   *BundlePathMap
	bundleNames   []string
	tree          *Tree
}

// Decode builds every derived structure of the catalog. Any malformed blob
// or out of range index fails the whole decode.
func Decode(raw *RawCatalog, opts DecodeOptions) (*Catalog, error) {
	blobs, err := raw.Blobs()
	if err != nil {
		return nil, err
	}

	c := &Catalog{raw: raw}

	if c.buckets, err = DecodeBuckets(blobs.Bucket); err != nil {
		return nil, fmt.Errorf("decoding buckets: %w", err)
	}
	if c.keys, err = DecodeKeys(blobs.Key, c.buckets); err != nil {
		return nil, fmt.Errorf("decoding keys: %w", err)
	}
	slog.Debug("Decoded key table", "buckets", len(c.buckets))

	if c.entries, err = DecodeEntries(blobs.Entry); err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}

	c.locations, err = ResolveLocations(c.entries, LocationTables{
		InternalIDs:   raw.InternalIDs,
		ProviderIDs:   raw.ProviderIDs,
		ResourceTypes: raw.ResourceTypes,
		Keys:          c.keys,
		Extra:         blobs.Extra,
	}, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("resolving locations: %w", err)
	}
	slog.Debug("Resolved locations", "entries", len(c.entries))

	if c.resources, err = BuildResources(c.keys, c.buckets, c.locations); err != nil {
		return nil, fmt.Errorf("building resources: %w", err)
	}
	c.resourceIndex = make(map[string]int, len(c.resources))
	for i, r := range c.resources {
		c.resourceIndex[valueKey(r.Key)] = i
	}

	c.bundlePaths, err = BuildBundlePathMap(c.entries, raw.InternalIDs, raw.InternalIDPrefixes, c.keys)
	if err != nil {
		return nil, fmt.Errorf("building bundle path map: %w", err)
	}

	if c.tree, err = BuildTree(raw.InternalIDPrefixes, raw.InternalIDs); err != nil {
		return nil, fmt.Errorf("building asset tree: %w", err)
	}
	c.bundleNames = BundleNames(raw.InternalIDs)

	slog.Debug("Built catalog indexes",
		"bundles", len(c.bundleNames),
		"mapped_bundles", c.bundlePaths.Len(),
		"tree_nodes", c.tree.Len())

	return c, nil
}

// Load parses and decodes catalog JSON in one step.
func Load(data []byte, opts DecodeOptions) (*Catalog, error) {
	raw, err := ParseRaw(data)
	if err != nil {
		return nil, err
	}
	return Decode(raw, opts)
}

func (c *Catalog) Raw() *RawCatalog {
	return c.raw
}

func (c *Catalog) LocatorID() string {
	return c.raw.LocatorID
}

func (c *Catalog) InternalIDs() []string {
	return c.raw.InternalIDs
}

func (c *Catalog) Buckets() []Bucket {
	return c.buckets
}

func (c *Catalog) Keys() []Value {
	return c.keys
}

func (c *Catalog) Entries() []Entry {
	return c.entries
}

func (c *Catalog) Locations() []ResourceLocation {
	return c.locations
}

// Resources returns every key with the locations of its bucket, in bucket order.
func (c *Catalog) Resources() []Resource {
	return c.resources
}

// Resource returns the locations stored under key. When a key occurs in
// several buckets the last one wins.
func (c *Catalog) Resource(key Value) ([]ResourceLocation, bool) {
	i, ok := c.resourceIndex[valueKey(key)]
	if !ok {
		return nil, false
	}
	return c.resources[i].Locations, true
}

func (c *Catalog) BundlePathMap() *BundlePathMap {
	return c.bundlePaths
}

// BundleNames returns the downloadable bundle file names.
func (c *Catalog) BundleNames() []string {
	return c.bundleNames
}

func (c *Catalog) Tree() *Tree {
	return c.tree
}

// GetAsset resolves a path in the asset tree.
func (c *Catalog) GetAsset(path string) (Asset, error) {
	a, err := c.tree.Get(path)
	if err != nil {
		return Asset{}, fmt.Errorf("invalid asset path: %w", err)
	}
	return a, nil
}

// ExtensionCounts counts file extensions of the internal ids that are not
// bundle files. Files without an extension are counted under "".
func ExtensionCounts(internalIDs []string) map[string]int {
	counts := make(map[string]int)
	for _, id := range internalIDs {
		if strings.HasPrefix(id, bundlePrefix) {
			continue
		}
		counts[path.Ext(id)]++
	}
	return counts
}
