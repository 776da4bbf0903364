package schema

import (
	"fmt"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/compressor"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
)

// Type is the wire representation of a single value.
//
// Types are created by the constructors in this package (RawOf, IntOf,
// ArrayOf, ...). *Record and *Union are types too, so records nest and unions
// can be used as fields or array elements.
type Type interface {
	// Kind reports the wire representation.
	Kind() format.FieldKind
	// String returns the canonical description used for fingerprints.
	String() string
	// FixedBits returns the encoded width when every value has the same size.
	FixedBits() (int, bool)

	validate() error
	encode(w *bitstream.Writer, v any) error
	decode(r *bitstream.Reader) (any, error)
	fromDoc(v any) (any, error)
	toDoc(v any) any
}

// scalar provides the document conversions of types whose values map
// directly to JSON scalars.
type scalar struct{}

func (scalar) fromDoc(v any) (any, error) { return v, nil }
func (scalar) toDoc(v any) any            { return v }

type rawType struct {
	scalar
	raw format.RawType
}

// RawOf returns the natively sized representation of a scalar or string.
func RawOf(raw format.RawType) Type {
	return rawType{raw: raw}
}

func (t rawType) Kind() format.FieldKind { return format.KindRaw }
func (t rawType) String() string         { return t.raw.String() }

func (t rawType) FixedBits() (int, bool) {
	if t.raw == format.RawString {
		return 0, false
	}

	return t.raw.Bits(), true
}

func (t rawType) validate() error {
	if t.raw < format.RawBool || t.raw > format.RawString {
		return fmt.Errorf("%w: unknown raw type %d", errs.ErrInvalidSchema, t.raw)
	}

	return nil
}

func (t rawType) encode(w *bitstream.Writer, v any) error {
	switch t.raw {
	case format.RawBool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: want bool, got %T", errs.ErrInvalidValue, v)
		}
		w.AppendBool(b)

		return nil
	case format.RawInt8, format.RawInt16, format.RawInt32, format.RawInt64:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		width := t.raw.Bits()
		if width < 64 && (n < -(1<<(width-1)) || n > (1<<(width-1))-1) {
			return fmt.Errorf("%w: %d overflows %s", errs.ErrValueOutOfRange, n, t.raw)
		}
		w.AppendBits(uint64(n), width)

		return nil
	case format.RawUint8, format.RawUint16, format.RawUint32, format.RawUint64:
		n, err := toUint64(v)
		if err != nil {
			return err
		}
		width := t.raw.Bits()
		if width < 64 && n >= 1<<width {
			return fmt.Errorf("%w: %d overflows %s", errs.ErrValueOutOfRange, n, t.raw)
		}
		w.AppendBits(n, width)

		return nil
	case format.RawFloat32:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		w.AppendFloat32(float32(f))

		return nil
	case format.RawFloat64:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		w.AppendFloat64(f)

		return nil
	case format.RawString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: want string, got %T", errs.ErrInvalidValue, v)
		}

		return w.AppendString(s)
	default:
		return fmt.Errorf("%w: unknown raw type %d", errs.ErrInvalidSchema, t.raw)
	}
}

func (t rawType) decode(r *bitstream.Reader) (any, error) {
	switch t.raw {
	case format.RawBool:
		return r.ReadBool()
	case format.RawInt8:
		return r.ReadInt8()
	case format.RawInt16:
		return r.ReadInt16()
	case format.RawInt32:
		return r.ReadInt32()
	case format.RawInt64:
		return r.ReadInt64()
	case format.RawUint8:
		return r.ReadUint8()
	case format.RawUint16:
		return r.ReadUint16()
	case format.RawUint32:
		return r.ReadUint32()
	case format.RawUint64:
		return r.ReadUint64()
	case format.RawFloat32:
		return r.ReadFloat32()
	case format.RawFloat64:
		return r.ReadFloat64()
	case format.RawString:
		return r.ReadString()
	default:
		return nil, fmt.Errorf("%w: unknown raw type %d", errs.ErrInvalidSchema, t.raw)
	}
}

type intType struct {
	scalar
	c   compressor.Int[int64]
	err error
}

// IntOf returns a range-compressed signed integer. Decoded values are int64.
func IntOf(minValue, maxValue int64) Type {
	c, err := compressor.NewInt(minValue, maxValue)
	return intType{c: c, err: err}
}

func (t intType) Kind() format.FieldKind { return format.KindInt }
func (t intType) String() string         { return fmt.Sprintf("int(%d,%d)", t.c.Min(), t.c.Max()) }
func (t intType) FixedBits() (int, bool) { return t.c.RequiredBits(), true }
func (t intType) validate() error        { return t.err }

func (t intType) encode(w *bitstream.Writer, v any) error {
	n, err := toInt64(v)
	if err != nil {
		return err
	}

	return t.c.Write(w, n)
}

func (t intType) decode(r *bitstream.Reader) (any, error) {
	return t.c.Read(r)
}

type uintType struct {
	scalar
	c   compressor.Uint[uint64]
	err error
}

// UintOf returns a range-compressed unsigned integer. Decoded values are uint64.
func UintOf(minValue, maxValue uint64) Type {
	c, err := compressor.NewUint(minValue, maxValue)
	return uintType{c: c, err: err}
}

func (t uintType) Kind() format.FieldKind { return format.KindUint }
func (t uintType) String() string         { return fmt.Sprintf("uint(%d,%d)", t.c.Min(), t.c.Max()) }
func (t uintType) FixedBits() (int, bool) { return t.c.RequiredBits(), true }
func (t uintType) validate() error        { return t.err }

func (t uintType) encode(w *bitstream.Writer, v any) error {
	n, err := toUint64(v)
	if err != nil {
		return err
	}

	return t.c.Write(w, n)
}

func (t uintType) decode(r *bitstream.Reader) (any, error) {
	return t.c.Read(r)
}

type floatType struct {
	scalar
	c   compressor.Floating[float32]
	err error
}

// FloatOf returns a quantized float32. Decoded values are float32.
func FloatOf(minValue, maxValue float32, bits int) Type {
	c, err := compressor.NewFloat(minValue, maxValue, bits)
	return floatType{c: c, err: err}
}

func (t floatType) Kind() format.FieldKind { return format.KindFloat }
func (t floatType) String() string {
	return fmt.Sprintf("float(%v,%v,%d)", t.c.Min(), t.c.Max(), t.c.Bits())
}
func (t floatType) FixedBits() (int, bool) { return t.c.RequiredBits(), true }
func (t floatType) validate() error        { return t.err }

func (t floatType) encode(w *bitstream.Writer, v any) error {
	f, err := toFloat64(v)
	if err != nil {
		return err
	}

	return t.c.Write(w, float32(f))
}

func (t floatType) decode(r *bitstream.Reader) (any, error) {
	return t.c.Read(r)
}

type doubleType struct {
	scalar
	c   compressor.Floating[float64]
	err error
}

// DoubleOf returns a quantized float64. Decoded values are float64.
func DoubleOf(minValue, maxValue float64, bits int) Type {
	c, err := compressor.NewDouble(minValue, maxValue, bits)
	return doubleType{c: c, err: err}
}

func (t doubleType) Kind() format.FieldKind { return format.KindDouble }
func (t doubleType) String() string {
	return fmt.Sprintf("double(%v,%v,%d)", t.c.Min(), t.c.Max(), t.c.Bits())
}
func (t doubleType) FixedBits() (int, bool) { return t.c.RequiredBits(), true }
func (t doubleType) validate() error        { return t.err }

func (t doubleType) encode(w *bitstream.Writer, v any) error {
	f, err := toFloat64(v)
	if err != nil {
		return err
	}

	return t.c.Write(w, f)
}

func (t doubleType) decode(r *bitstream.Reader) (any, error) {
	return t.c.Read(r)
}

type bitsType struct {
	scalar
	n int
}

// BitsOf returns an unsigned integer stored in exactly n bits, n in [1, 64].
// Decoded values are uint64.
func BitsOf(n int) Type {
	return bitsType{n: n}
}

func (t bitsType) Kind() format.FieldKind { return format.KindBits }
func (t bitsType) String() string         { return fmt.Sprintf("bits(%d)", t.n) }
func (t bitsType) FixedBits() (int, bool) { return t.n, true }

func (t bitsType) validate() error {
	if t.n < 1 || t.n > 64 {
		return fmt.Errorf("%w: %d not in [1, 64]", errs.ErrInvalidBitCount, t.n)
	}

	return nil
}

func (t bitsType) encode(w *bitstream.Writer, v any) error {
	n, err := toUint64(v)
	if err != nil {
		return err
	}
	if t.n < 64 && n > (uint64(1)<<t.n)-1 {
		return fmt.Errorf("%w: %d does not fit in %d bits", errs.ErrValueOutOfRange, n, t.n)
	}
	w.AppendBits(n, t.n)

	return nil
}

func (t bitsType) decode(r *bitstream.Reader) (any, error) {
	return r.ReadBits(t.n)
}

type skipType struct {
	def any
}

// SkipOf returns a type that is never written. Decoding yields def.
func SkipOf(def any) Type {
	return skipType{def: def}
}

func (t skipType) Kind() format.FieldKind                { return format.KindSkip }
func (t skipType) String() string                        { return "skip" }
func (t skipType) FixedBits() (int, bool)                { return 0, true }
func (t skipType) validate() error                       { return nil }
func (t skipType) encode(*bitstream.Writer, any) error   { return nil }
func (t skipType) decode(*bitstream.Reader) (any, error) { return t.def, nil }
func (t skipType) fromDoc(any) (any, error)              { return t.def, nil }
func (t skipType) toDoc(v any) any                       { return v }
