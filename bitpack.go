// Package bitpack serializes structured messages into compact, bit-granular
// binary payloads.
//
// Every field is written with exactly as many bits as its declared range
// needs: an integer known to lie in [0, 100000] takes 17 bits, a float in
// [-128, 128] with 20 bits of precision takes 20 bits, and a boolean takes one.
// The wire format carries no tags or field lengths, so writer and reader must
// agree on the schema.
//
// # Core Features
//
//   - MSB-first bit streams with raw, range-compressed and quantized fields
//   - Bounded arrays, byte blobs, optional values and tagged unions
//   - Schemas from Go struct tags, from code, or from YAML/JSON documents
//   - Optional frames with compression (Zstd, S2, LZ4, Snappy), schema
//     fingerprint and checksum
//
// # Basic Usage
//
// Describing a message with struct tags:
//
//	import "github.com/arloliu/bitpack"
//
//	type Position struct {
//	    ID   uint32  `bit:"uint,min=0,max=100000"`
//	    X    float32 `bit:"float,min=-128,max=128,bits=20"`
//	    Y    float32 `bit:"float,min=-128,max=128,bits=20"`
//	    Conn *int64
//	}
//
//	packed, err := bitpack.Marshal(&Position{ID: 7, X: 1.5, Y: -3})
//
//	var p Position
//	err = bitpack.Unmarshal(packed, &p)
//
// Types implementing bitstream.Encodable and bitstream.Decodable encode
// themselves and bypass the struct binder.
//
// # Package Structure
//
// This package provides convenient top-level wrappers. Use the bitstream,
// compressor and schema packages directly for hand-written codecs and runtime
// schemas, and the frame package for the envelope format.
package bitpack

import (
	"fmt"
	"reflect"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/frame"
	"github.com/arloliu/bitpack/internal/binding"
	"github.com/arloliu/bitpack/schema"
)

// NewWriter creates an empty bit stream writer.
//
// Call Release on the writer when it is no longer needed to return its buffer
// to the pool.
func NewWriter() *bitstream.Writer {
	return bitstream.NewWriter()
}

// NewReader creates a bit stream reader over data. The reader does not copy
// data, which must not be modified while it is read.
func NewReader(data []byte) *bitstream.Reader {
	return bitstream.NewReader(data)
}

// Marshal packs v into a new byte slice.
//
// v is either a bitstream.Encodable (or a value whose pointer is one) or a
// struct, or pointer to struct, described by `bit` struct tags.
//
// Returns:
//   - []byte: The packed message, padded with zero bits to a whole byte
//   - error: Schema errors for unbindable types, or value errors such as
//     errs.ErrValueOutOfRange and errs.ErrArrayTooLong
//
// Example:
//
//	packed, err := bitpack.Marshal(&Position{ID: 7, X: 1.5, Y: -3})
func Marshal(v any) ([]byte, error) {
	w := bitstream.NewWriter()
	defer w.Release()

	if err := Encode(w, v); err != nil {
		return nil, err
	}

	return w.PackBytes(), nil
}

// Encode appends v to w. It accepts the same values as Marshal and can be
// used to write several messages into one stream.
func Encode(w *bitstream.Writer, v any) error {
	if e, ok := encodable(v); ok {
		return e.EncodeBits(w)
	}

	b, err := binding.Of(v)
	if err != nil {
		return err
	}

	return b.Encode(w, v)
}

// Unmarshal unpacks data into v, which must be a non-nil pointer.
//
// The whole of data must be consumed: unread whole bytes or non-zero padding
// bits fail with errs.ErrTrailingData.
func Unmarshal(data []byte, v any) error {
	r := bitstream.NewReader(data)
	if err := Decode(r, v); err != nil {
		return err
	}

	return r.Done()
}

// Decode reads one message from r into v, which must be a non-nil pointer to
// a bitstream.Decodable or to a tagged struct.
func Decode(r *bitstream.Reader, v any) error {
	if d, ok := v.(bitstream.Decodable); ok {
		return d.DecodeBits(r)
	}

	b, err := binding.Of(v)
	if err != nil {
		return err
	}

	return b.Decode(r, v)
}

// SchemaOf returns the record schema derived from the struct type of v.
//
// The result describes the wire format produced by Marshal for v and is
// cached per type. Types that encode themselves have no derived schema.
func SchemaOf(v any) (*schema.Record, error) {
	b, err := binding.Of(v)
	if err != nil {
		return nil, err
	}

	return b.Record(), nil
}

// MarshalFrame packs v and wraps it in a frame.
//
// For tagged structs the frame records the schema fingerprint, which
// UnmarshalFrame checks. Options given here override the defaults.
func MarshalFrame(v any, opts ...frame.EncoderOption) ([]byte, error) {
	packed, err := Marshal(v)
	if err != nil {
		return nil, err
	}

	if _, self := encodable(v); !self {
		if rec, err := SchemaOf(v); err == nil {
			opts = append([]frame.EncoderOption{frame.WithFingerprint(rec.Fingerprint())}, opts...)
		}
	}

	return frame.Encode(packed, opts...)
}

// UnmarshalFrame validates a frame and unpacks its message into v.
//
// For tagged structs the frame must carry the fingerprint of v's schema, or
// decoding fails with errs.ErrSchemaMismatch.
func UnmarshalFrame(data []byte, v any, opts ...frame.DecoderOption) error {
	if _, self := v.(bitstream.Decodable); !self {
		rec, err := SchemaOf(v)
		if err != nil {
			return err
		}
		opts = append([]frame.DecoderOption{frame.WithExpectedFingerprint(rec.Fingerprint())}, opts...)
	}

	packed, _, err := frame.Decode(data, opts...)
	if err != nil {
		return err
	}

	return Unmarshal(packed, v)
}

var encodableType = reflect.TypeFor[bitstream.Encodable]()

// encodable reports whether v, or a pointer to a copy of v, encodes itself.
func encodable(v any) (bitstream.Encodable, bool) {
	if e, ok := v.(bitstream.Encodable); ok {
		return e, true
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	if rv.Kind() == reflect.Pointer || !reflect.PointerTo(rv.Type()).Implements(encodableType) {
		return nil, false
	}

	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	e, ok := p.Interface().(bitstream.Encodable)

	return e, ok
}

// MustSchemaOf is like SchemaOf but panics on error. It is meant for
// package-level declarations.
func MustSchemaOf(v any) *schema.Record {
	rec, err := SchemaOf(v)
	if err != nil {
		panic(fmt.Sprintf("bitpack: %v", err))
	}

	return rec
}
