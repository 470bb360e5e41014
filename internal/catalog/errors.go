package catalog

import "errors"

var (
	// ErrTruncated is returned when a read or length prefix runs past the end of a blob.
	ErrTruncated = errors.New("truncated data")

	// ErrIndexOutOfRange is returned when an entry field or prefix index does not
	// point into its target table.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidRecord is returned when a JSON object record carries a payload
	// that is not valid JSON.
	ErrInvalidRecord = errors.New("invalid json object record")

	// ErrInvalidString is returned when string bytes do not match their declared encoding.
	ErrInvalidString = errors.New("invalid string encoding")

	// ErrMalformedInternalID is returned for internal ids that are not shaped
	// like "{prefix_index}#/{relative_path}".
	ErrMalformedInternalID = errors.New("malformed internal id")

	// ErrAssetNotFound is returned by path lookups that miss.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrNotDirectory is returned when a path descends through a leaf asset.
	ErrNotDirectory = errors.New("not a directory")
)
