package catalog

import (
	"encoding/binary"
	"fmt"
)

// Reader is a forward-only little-endian cursor over a byte slice with
// random-access Seek. Every read is bounds-checked and reports ErrTruncated
// instead of panicking on short input.
type Reader struct {
	data []byte
	p    int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return fmt.Errorf("%w: seek to %d in %d bytes", ErrTruncated, offset, len(r.data))
	}
	r.p = offset
	return nil
}

func (r *Reader) Offset() int {
	return r.p
}

func (r *Reader) Remaining() int {
	return len(r.data) - r.p
}

func (r *Reader) need(n int) error {
	if n < 0 || r.p+n > len(r.data) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.p, r.Remaining())
	}
	return nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.p]
	r.p++
	return v, nil
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.p:])
	r.p += 2
	return v, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.p:])
	r.p += 4
	return v, nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadInt32s reads n consecutive int32 values.
func (r *Reader) ReadInt32s(n int) ([]int32, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative count %d at offset %d", ErrTruncated, n, r.p)
	}
	if err := r.need(n * 4); err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(r.data[r.p:]))
		r.p += 4
	}
	return out, nil
}

// ReadBytes returns the next n bytes. The returned slice aliases the
// underlying buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.p : r.p+n]
	r.p += n
	return b, nil
}
