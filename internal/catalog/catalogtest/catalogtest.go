// Package catalogtest builds small but complete catalog JSON documents for
// tests of packages that consume decoded catalogs.
package catalogtest

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"path"
	"strings"
	"testing"

	"github.com/brellorand/memento-mori-client/internal/catalog"
)

// Bundle is a bundle file and the asset paths packed in it
type Bundle struct {
	Name  string
	Paths []string
}

var (
	fileType   = catalog.SerializedType{AssemblyName: "UnityEngine.CoreModule", ClassName: "UnityEngine.Object"}
	bundleType = catalog.SerializedType{AssemblyName: "Unity.ResourceManager", ClassName: "UnityEngine.ResourceManagement.ResourceProviders.IAssetBundleResource"}
)

type writer struct {
	bytes.Buffer
}

func (w *writer) i32(vs ...int32) {
	for _, v := range vs {
		_ = binary.Write(&w.Buffer, binary.LittleEndian, v)
	}
}

func (w *writer) str1(s string) {
	w.WriteByte(byte(len(s)))
	w.WriteString(s)
}

func (w *writer) str4(s string) {
	w.i32(int32(len(s)))
	w.WriteString(s)
}

// ascii appends an ASCII string object and returns its offset
func (w *writer) ascii(s string) int32 {
	offset := int32(w.Len())
	w.WriteByte(byte(catalog.ObjectAsciiString))
	w.str4(s)
	return offset
}

// record appends a JSON record object and returns its offset
func (w *writer) record(assembly, class, payload string) int32 {
	offset := int32(w.Len())
	w.WriteByte(byte(catalog.ObjectJSON))
	w.str1(assembly)
	w.str1(class)
	w.str4(payload)
	return offset
}

// JSON returns catalog JSON in which every bundle is an internal id under
// the asset URL prefix and every path an internal id under an empty prefix,
// so bundle path map entries equal the given paths. Each path's primary key
// is the path without its extension.
func JSON(t testing.TB, bundles ...Bundle) []byte {
	t.Helper()

	var keys, extra, entries writer
	var buckets [][]int32
	var keyOffsets []int32
	var internalIDs []string
	var entryCount int32

	addKey := func(k string) int32 {
		keyOffsets = append(keyOffsets, keys.ascii(k))
		buckets = append(buckets, nil)
		return int32(len(keyOffsets) - 1)
	}
	addEntry := func(internalID string, provider, depKey, extraOffset, primaryKey, resourceType int32) {
		internalIDs = append(internalIDs, internalID)
		entries.i32(int32(len(internalIDs)-1), provider, depKey, 0, extraOffset, primaryKey, resourceType)
		buckets[primaryKey] = append(buckets[primaryKey], entryCount)
		entryCount++
	}

	for _, b := range bundles {
		key := addKey(b.Name)
		opts := extra.record("Unity.ResourceManager", "AssetBundleRequestOptions", `{"m_BundleName":"`+b.Name+`"}`)
		addEntry("0#/"+b.Name, 0, -1, opts, key, 1)
	}
	for i, b := range bundles {
		for _, p := range b.Paths {
			key := addKey(strings.TrimSuffix(p, path.Ext(p)))
			addEntry("1#/"+p, 1, int32(i), -1, key, 0)
		}
	}

	var bucketBlob writer
	bucketBlob.i32(int32(len(buckets)))
	for i, entryList := range buckets {
		bucketBlob.i32(keyOffsets[i], int32(len(entryList)))
		bucketBlob.i32(entryList...)
	}

	var entryBlob writer
	entryBlob.i32(entryCount)
	entryBlob.Write(entries.Bytes())

	raw := catalog.RawCatalog{
		LocatorID:          "AddressablesMainContentCatalog",
		ProviderIDs:        []string{"Ortega.Common.OrtegaAssestBundleProvider", "UnityEngine.ResourceManagement.ResourceProviders.BundledAssetProvider"},
		InternalIDs:        internalIDs,
		KeyData:            base64.StdEncoding.EncodeToString(keys.Bytes()),
		BucketData:         base64.StdEncoding.EncodeToString(bucketBlob.Bytes()),
		EntryData:          base64.StdEncoding.EncodeToString(entryBlob.Bytes()),
		ExtraData:          base64.StdEncoding.EncodeToString(extra.Bytes()),
		ResourceTypes:      []catalog.SerializedType{fileType, bundleType},
		InternalIDPrefixes: []string{catalog.AssetFullURLDir, ""},
	}

	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("encoding catalog: %v", err)
	}
	return data
}

// Load decodes the catalog built by JSON
func Load(t testing.TB, bundles ...Bundle) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load(JSON(t, bundles...), catalog.DecodeOptions{})
	if err != nil {
		t.Fatalf("decoding catalog: %v", err)
	}
	return c
}
