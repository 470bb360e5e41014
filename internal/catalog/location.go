package catalog

import (
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"
)

// entryFields is the number of int32 fields in one entry record.
const entryFields = 7

// minChunk is the smallest number of entries handed to one resolver goroutine.
const minChunk = 2048

// Entry is one fixed-width record of the entry blob. All fields except
// ExtraData are indices; ExtraData is a byte offset into the extra blob.
// DependencyKey and ExtraData use -1 for "absent".
type Entry struct {
	InternalID     int32
	Provider       int32
	DependencyKey  int32
	DependencyHash int32
	ExtraData      int32
	PrimaryKey     int32
	ResourceType   int32
}

// SerializedType names the .NET type a resource is loaded as.
type SerializedType struct {
	AssemblyName string `json:"m_AssemblyName" yaml:"assembly_name"`
	ClassName    string `json:"m_ClassName" yaml:"class_name"`
}

// ResourceLocation is a fully resolved entry record.
type ResourceLocation struct {
	InternalID         string         `json:"internal_id" yaml:"internal_id"`
	ProviderID         string         `json:"provider_id" yaml:"provider_id"`
	DependencyKeyIndex int32          `json:"dependency_key_idx" yaml:"dependency_key_idx"`
	DependencyKey      Value          `json:"dependency_key" yaml:"dependency_key"`
	DependencyHash     int32          `json:"dependency_hash" yaml:"dependency_hash"`
	ExtraData          Value          `json:"data" yaml:"data"`
	PrimaryKeyIndex    int32          `json:"primary_key_idx" yaml:"primary_key_idx"`
	PrimaryKey         Value          `json:"primary_key" yaml:"primary_key"`
	SerializedType     SerializedType `json:"serialized_type" yaml:"serialized_type"`
}

// LocationTables holds the tables that entry records index into.
type LocationTables struct {
	InternalIDs   []string
	ProviderIDs   []string
	ResourceTypes []SerializedType
	Keys          []Value
	Extra         []byte
}

// Resource pairs a key with the locations of its bucket.
type Resource struct {
	Key       Value              `json:"key" yaml:"key"`
	Locations []ResourceLocation `json:"locations" yaml:"locations"`
}

// DecodeEntries parses the entry blob: an int32 record count followed by
// that many records of seven int32 fields.
func DecodeEntries(blob []byte) ([]Entry, error) {
	r := NewReader(blob)

	count, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading entry count: %w", err)
	}
	if count < 0 || int(count) > r.Remaining()/(entryFields*4) {
		return nil, fmt.Errorf("%w: %d entries declared in %d bytes", ErrTruncated, count, r.Remaining())
	}

	entries := make([]Entry, count)
	for i := range entries {
		f, err := r.ReadInt32s(entryFields)
		if err != nil {
			return nil, fmt.Errorf("reading entry %d: %w", i, err)
		}
		entries[i] = Entry{
			InternalID:     f[0],
			Provider:       f[1],
			DependencyKey:  f[2],
			DependencyHash: f[3],
			ExtraData:      f[4],
			PrimaryKey:     f[5],
			ResourceType:   f[6],
		}
	}

	return entries, nil
}

// ResolveLocations cross-references every entry against the tables. The
// result preserves entry order. With workers > 1, large entry lists are
// split into contiguous chunks resolved concurrently; any error aborts the
// whole resolution.
func ResolveLocations(entries []Entry, tables LocationTables, workers int) ([]ResourceLocation, error) {
	locations := make([]ResourceLocation, len(entries))

	resolveRange := func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			loc, err := resolveEntry(entries[i], &tables)
			if err != nil {
				return fmt.Errorf("resolving entry %d: %w", i, err)
			}
			locations[i] = loc
		}
		return nil
	}

	if workers <= 1 || len(entries) <= minChunk {
		if err := resolveRange(0, len(entries)); err != nil {
			return nil, err
		}
		return locations, nil
	}

	chunk := max((len(entries)+workers-1)/workers, minChunk)
	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for lo := 0; lo < len(entries); lo += chunk {
		hi := min(lo+chunk, len(entries))
		p.Go(func() error {
			return resolveRange(lo, hi)
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("Resolved resource locations", "count", len(locations), "workers", workers, "chunk", chunk)

	return locations, nil
}

func resolveEntry(e Entry, t *LocationTables) (ResourceLocation, error) {
	internalID, err := lookup(t.InternalIDs, e.InternalID, "internal id")
	if err != nil {
		return ResourceLocation{}, err
	}
	providerID, err := lookup(t.ProviderIDs, e.Provider, "provider id")
	if err != nil {
		return ResourceLocation{}, err
	}
	serializedType, err := lookup(t.ResourceTypes, e.ResourceType, "resource type")
	if err != nil {
		return ResourceLocation{}, err
	}

	loc := ResourceLocation{
		InternalID:         internalID,
		ProviderID:         providerID,
		DependencyKeyIndex: e.DependencyKey,
		DependencyHash:     e.DependencyHash,
		PrimaryKeyIndex:    e.PrimaryKey,
		SerializedType:     serializedType,
	}

	if e.DependencyKey >= 0 {
		if loc.DependencyKey, err = lookup(t.Keys, e.DependencyKey, "dependency key"); err != nil {
			return ResourceLocation{}, err
		}
	}
	if e.PrimaryKey >= 0 {
		if loc.PrimaryKey, err = lookup(t.Keys, e.PrimaryKey, "primary key"); err != nil {
			return ResourceLocation{}, err
		}
	}
	if e.ExtraData >= 0 {
		if loc.ExtraData, err = DecodeObject(t.Extra, int(e.ExtraData)); err != nil {
			return ResourceLocation{}, fmt.Errorf("decoding extra data: %w", err)
		}
	}

	return loc, nil
}

func lookup[T any](table []T, idx int32, what string) (T, error) {
	if idx < 0 || int(idx) >= len(table) {
		var zero T
		return zero, fmt.Errorf("%w: %s index %d, table has %d", ErrIndexOutOfRange, what, idx, len(table))
	}
	return table[idx], nil
}

// BuildResources pairs each key with the locations its bucket references.
// The result is aligned with keys and buckets.
func BuildResources(keys []Value, buckets []Bucket, locations []ResourceLocation) ([]Resource, error) {
	if len(keys) != len(buckets) {
		return nil, fmt.Errorf("%w: %d keys for %d buckets", ErrIndexOutOfRange, len(keys), len(buckets))
	}

	resources := make([]Resource, len(buckets))
	for i, bucket := range buckets {
		locs := make([]ResourceLocation, len(bucket.Entries))
		for j, e := range bucket.Entries {
			loc, err := lookup(locations, e, "location")
			if err != nil {
				return nil, fmt.Errorf("bucket %d: %w", i, err)
			}
			locs[j] = loc
		}
		resources[i] = Resource{Key: keys[i], Locations: locs}
	}

	return resources, nil
}
