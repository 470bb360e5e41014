package catalog_test

import (
	"testing"

	"github.com/brellorand/memento-mori-client/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	data := []byte{
		0xff,
		0x34, 0x12,
		0xfe, 0xff, 0xff, 0xff,
		0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
		'a', 'b',
	}
	r := catalog.NewReader(data)

	i8, err := r.ReadInt8()
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i32)

	vals, err := r.ReadInt32s(2)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2}, vals)

	b, err := r.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(b))
	assert.Equal(t, len(data), r.Offset())
	assert.Zero(t, r.Remaining())

	t.Run("reads past the end", func(t *testing.T) {
		_, err := r.ReadUint8()
		assert.ErrorIs(t, err, catalog.ErrTruncated)
		_, err = r.ReadBytes(1)
		assert.ErrorIs(t, err, catalog.ErrTruncated)
		assert.Equal(t, len(data), r.Offset(), "failed reads do not move the cursor")
	})

	t.Run("seek", func(t *testing.T) {
		require.NoError(t, r.Seek(1))
		u16, err := r.ReadUint16()
		require.NoError(t, err)
		assert.Equal(t, uint16(0x1234), u16)

		assert.ErrorIs(t, r.Seek(-1), catalog.ErrTruncated)
		assert.ErrorIs(t, r.Seek(len(data)+1), catalog.ErrTruncated)
		assert.NoError(t, r.Seek(len(data)))
	})

	t.Run("bad counts", func(t *testing.T) {
		r := catalog.NewReader(data)
		_, err := r.ReadInt32s(-1)
		assert.ErrorIs(t, err, catalog.ErrTruncated)
		_, err = r.ReadInt32s(5)
		assert.ErrorIs(t, err, catalog.ErrTruncated)
		_, err = r.ReadBytes(-2)
		assert.ErrorIs(t, err, catalog.ErrTruncated)
	})
}
