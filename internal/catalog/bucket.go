package catalog

import "fmt"

// Bucket groups the entry indices that share one key. Its position in the
// bucket list is the index of its key in the key table.
type Bucket struct {
	Offset  int32   `json:"offset" yaml:"offset"`
	Entries []int32 `json:"entries" yaml:"entries"`
}

// DecodeBuckets parses the bucket blob: an int32 bucket count followed by
// (offset, entry count, entry indices...) for every bucket.
func DecodeBuckets(blob []byte) ([]Bucket, error) {
	r := NewReader(blob)

	count, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading bucket count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative bucket count %d", ErrTruncated, count)
	}

	// Every bucket needs at least 8 bytes, which bounds the allocation for
	// corrupt counts.
	if int(count) > r.Remaining()/8 {
		return nil, fmt.Errorf("%w: %d buckets declared in %d bytes", ErrTruncated, count, r.Remaining())
	}

	buckets := make([]Bucket, count)
	for i := range buckets {
		offset, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading bucket %d offset: %w", i, err)
		}
		entryCount, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading bucket %d entry count: %w", i, err)
		}
		entries, err := r.ReadInt32s(int(entryCount))
		if err != nil {
			return nil, fmt.Errorf("reading bucket %d entries: %w", i, err)
		}
		buckets[i] = Bucket{Offset: offset, Entries: entries}
	}

	return buckets, nil
}

// DecodeKeys decodes one key per bucket at the bucket's offset in the key
// blob. The result is aligned with buckets by index.
func DecodeKeys(keyBlob []byte, buckets []Bucket) ([]Value, error) {
	keys := make([]Value, len(buckets))
	for i, bucket := range buckets {
		key, err := DecodeObject(keyBlob, int(bucket.Offset))
		if err != nil {
			return nil, fmt.Errorf("decoding key %d: %w", i, err)
		}
		keys[i] = key
	}
	return keys, nil
}
