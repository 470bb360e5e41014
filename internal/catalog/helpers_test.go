package catalog_test

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/brellorand/memento-mori-client/internal/catalog"
	"github.com/stretchr/testify/require"
)

// blob is a little-endian byte builder for catalog fixtures.
type blob struct {
	bytes.Buffer
}

func (b *blob) i32(vs ...int32) *blob {
	for _, v := range vs {
		_ = binary.Write(&b.Buffer, binary.LittleEndian, v)
	}
	return b
}

func (b *blob) u8(v uint8) *blob {
	b.WriteByte(v)
	return b
}

func (b *blob) str1(s string) *blob {
	b.WriteByte(byte(int8(len(s))))
	b.WriteString(s)
	return b
}

func (b *blob) str4(s string) *blob {
	b.i32(int32(len(s)))
	b.WriteString(s)
	return b
}

// object appends an encoded value and returns its offset.
func (b *blob) object(t *testing.T, v catalog.Value) int32 {
	t.Helper()
	offset := int32(b.Len())
	b.u8(uint8(v.Type()))
	switch v := v.(type) {
	case catalog.AsciiString:
		b.str4(string(v))
	case catalog.UnicodeString:
		b.str4(string(v))
	case catalog.UInt16:
		_ = binary.Write(&b.Buffer, binary.LittleEndian, uint16(v))
	case catalog.UInt32:
		_ = binary.Write(&b.Buffer, binary.LittleEndian, uint32(v))
	case catalog.Int32:
		b.i32(int32(v))
	case catalog.Hash128:
		b.str1(string(v))
	case catalog.TypeName:
		b.str1(string(v))
	case *catalog.JSONRecord:
		payload, err := json.Marshal(v.JSON)
		require.NoError(t, err)
		b.str1(v.AssemblyName).str1(v.ClassName).str4(string(payload))
	default:
		t.Fatalf("unsupported value %T", v)
	}
	return offset
}

// keyTable encodes keys into a key blob and a matching bucket blob whose
// entry lists come from entries.
func keyTable(t *testing.T, keys []catalog.Value, entries [][]int32) (keyBlob, bucketBlob []byte) {
	t.Helper()
	require.Len(t, entries, len(keys))

	var kb, bb blob
	bb.i32(int32(len(keys)))
	for i, k := range keys {
		offset := kb.object(t, k)
		bb.i32(offset, int32(len(entries[i]))).i32(entries[i]...)
	}
	return kb.Bytes(), bb.Bytes()
}

func entryBlob(entries ...catalog.Entry) []byte {
	var b blob
	b.i32(int32(len(entries)))
	for _, e := range entries {
		b.i32(e.InternalID, e.Provider, e.DependencyKey, e.DependencyHash, e.ExtraData, e.PrimaryKey, e.ResourceType)
	}
	return b.Bytes()
}

func b64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func flatPaths(seq func(func(catalog.Asset) bool)) []string {
	var out []string
	for a := range seq {
		out = append(out, a.String())
	}
	return out
}
