package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ObjectType is the one-byte tag that prefixes every serialized object in
// the key and extra data blobs.
type ObjectType uint8

const (
	ObjectAsciiString   ObjectType = 0
	ObjectUnicodeString ObjectType = 1
	ObjectUInt16        ObjectType = 2
	ObjectUInt32        ObjectType = 3
	ObjectInt32         ObjectType = 4
	ObjectHash128       ObjectType = 5
	ObjectTypeName      ObjectType = 6
	ObjectJSON          ObjectType = 7
)

func (t ObjectType) String() string {
	switch t {
	case ObjectAsciiString:
		return "ascii_string"
	case ObjectUnicodeString:
		return "unicode_string"
	case ObjectUInt16:
		return "uint16"
	case ObjectUInt32:
		return "uint32"
	case ObjectInt32:
		return "int32"
	case ObjectHash128:
		return "hash128"
	case ObjectTypeName:
		return "type_name"
	case ObjectJSON:
		return "json"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Value is a decoded serialized object. The concrete types are AsciiString,
// UnicodeString, UInt16, UInt32, Int32, Hash128, TypeName and *JSONRecord.
type Value interface {
	Type() ObjectType
	String() string
	value()
}

type (
	AsciiString   string
	UnicodeString string
	Hash128       string
	TypeName      string
	UInt16        uint16
	UInt32        uint32
	Int32         int32
)

// JSONRecord is a serialized object whose payload is a JSON document tagged
// with the .NET type it was produced from.
type JSONRecord struct {
	AssemblyName string `json:"assembly_name" yaml:"assembly_name"`
	ClassName    string `json:"class_name" yaml:"class_name"`
	JSON         any    `json:"json" yaml:"json"`
}

func (AsciiString) Type() ObjectType   { return ObjectAsciiString }
func (UnicodeString) Type() ObjectType { return ObjectUnicodeString }
func (UInt16) Type() ObjectType        { return ObjectUInt16 }
func (UInt32) Type() ObjectType        { return ObjectUInt32 }
func (Int32) Type() ObjectType         { return ObjectInt32 }
func (Hash128) Type() ObjectType       { return ObjectHash128 }
func (TypeName) Type() ObjectType      { return ObjectTypeName }
func (*JSONRecord) Type() ObjectType   { return ObjectJSON }

func (v AsciiString) String() string   { return string(v) }
func (v UnicodeString) String() string { return string(v) }
func (v Hash128) String() string       { return string(v) }
func (v TypeName) String() string      { return string(v) }
func (v UInt16) String() string        { return strconv.FormatUint(uint64(v), 10) }
func (v UInt32) String() string        { return strconv.FormatUint(uint64(v), 10) }
func (v Int32) String() string         { return strconv.FormatInt(int64(v), 10) }

func (r *JSONRecord) String() string {
	payload, err := json.Marshal(r.JSON)
	if err != nil {
		payload = []byte(fmt.Sprint(r.JSON))
	}
	return r.AssemblyName + "|" + r.ClassName + "|" + string(payload)
}

func (AsciiString) value()   {}
func (UnicodeString) value() {}
func (UInt16) value()        {}
func (UInt32) value()        {}
func (Int32) value()         {}
func (Hash128) value()       {}
func (TypeName) value()      {}
func (*JSONRecord) value()   {}

// StringValue returns the string carried by v when v is one of the string
// kinds. Numeric values and JSON records report false.
func StringValue(v Value) (string, bool) {
	switch s := v.(type) {
	case AsciiString:
		return string(s), true
	case UnicodeString:
		return string(s), true
	case Hash128:
		return string(s), true
	case TypeName:
		return string(s), true
	default:
		return "", false
	}
}

// valueKey is the canonical identity of a value, used to index resources by key.
func valueKey(v Value) string {
	return strconv.Itoa(int(v.Type())) + ":" + v.String()
}

// DecodeObject decodes the serialized object that starts at offset in blob.
// Tags outside the known scalar and string kinds are read as JSON records,
// which fail if the bytes that follow are not a well-formed record.
func DecodeObject(blob []byte, offset int) (Value, error) {
	r := NewReader(blob)
	if err := r.Seek(offset); err != nil {
		return nil, err
	}

	tag, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("reading object tag: %w", err)
	}

	var v Value
	switch ObjectType(tag) {
	case ObjectAsciiString:
		var s string
		s, err = readString4(r, true)
		v = AsciiString(s)
	case ObjectUnicodeString:
		var s string
		s, err = readString4(r, false)
		v = UnicodeString(s)
	case ObjectUInt16:
		var n uint16
		n, err = r.ReadUint16()
		v = UInt16(n)
	case ObjectUInt32:
		var n uint32
		n, err = r.ReadUint32()
		v = UInt32(n)
	case ObjectInt32:
		var n int32
		n, err = r.ReadInt32()
		v = Int32(n)
	case ObjectHash128:
		var s string
		s, err = readString1(r)
		v = Hash128(s)
	case ObjectTypeName:
		var s string
		s, err = readString1(r)
		v = TypeName(s)
	default:
		v, err = readJSONRecord(r)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s object at offset %d: %w", ObjectType(tag), offset, err)
	}

	return v, nil
}

// readString1 reads an int8-length-prefixed ASCII string.
func readString1(r *Reader) (string, error) {
	n, err := r.ReadInt8()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return asciiString(b)
}

// readString4 reads an int32-length-prefixed string, ASCII or UTF-8.
func readString4(r *Reader, ascii bool) (string, error) {
	b, err := readByteString4(r)
	if err != nil {
		return "", err
	}
	if ascii {
		return asciiString(b)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: invalid utf-8 at offset %d", ErrInvalidString, r.Offset()-len(b))
	}
	return string(b), nil
}

func readByteString4(r *Reader) ([]byte, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

func asciiString(b []byte) (string, error) {
	for i, c := range b {
		if c > 0x7f {
			return "", fmt.Errorf("%w: non-ascii byte 0x%02x at position %d", ErrInvalidString, c, i)
		}
	}
	return string(b), nil
}

// readJSONRecord reads assembly name, class name and JSON payload, in that order.
func readJSONRecord(r *Reader) (*JSONRecord, error) {
	assembly, err := readString1(r)
	if err != nil {
		return nil, fmt.Errorf("reading assembly name: %w", err)
	}
	class, err := readString1(r)
	if err != nil {
		return nil, fmt.Errorf("reading class name: %w", err)
	}
	payload, err := readByteString4(r)
	if err != nil {
		return nil, fmt.Errorf("reading json payload: %w", err)
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	return &JSONRecord{AssemblyName: assembly, ClassName: class, JSON: doc}, nil
}
