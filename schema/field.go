package schema

import (
	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/format"
)

// Field is a named member of a record. Fields are encoded in declaration order.
type Field struct {
	Name string
	Type Type
}

// Raw declares a natively sized scalar or string field.
func Raw(name string, raw format.RawType) Field {
	return Field{Name: name, Type: RawOf(raw)}
}

// CompressedInt declares a signed integer field bounded by [minValue, maxValue].
func CompressedInt(name string, minValue, maxValue int64) Field {
	return Field{Name: name, Type: IntOf(minValue, maxValue)}
}

// CompressedUint declares an unsigned integer field bounded by [minValue, maxValue].
func CompressedUint(name string, minValue, maxValue uint64) Field {
	return Field{Name: name, Type: UintOf(minValue, maxValue)}
}

// CompressedFloat declares a float32 field quantized to bits bits.
func CompressedFloat(name string, minValue, maxValue float32, bits int) Field {
	return Field{Name: name, Type: FloatOf(minValue, maxValue, bits)}
}

// CompressedDouble declares a float64 field quantized to bits bits.
func CompressedDouble(name string, minValue, maxValue float64, bits int) Field {
	return Field{Name: name, Type: DoubleOf(minValue, maxValue, bits)}
}

// Bits declares an unsigned field stored in exactly n bits.
func Bits(name string, n int) Field {
	return Field{Name: name, Type: BitsOf(n)}
}

// BoundedArray declares an array of at most maxCount elements of elem.
func BoundedArray(name string, elem Type, maxCount int) Field {
	return Field{Name: name, Type: ArrayOf(elem, maxCount)}
}

// CompressedIntArray declares an array of compressed signed integers.
func CompressedIntArray(name string, minValue, maxValue int64, maxCount int) Field {
	return BoundedArray(name, IntOf(minValue, maxValue), maxCount)
}

// CompressedUintArray declares an array of compressed unsigned integers.
func CompressedUintArray(name string, minValue, maxValue uint64, maxCount int) Field {
	return BoundedArray(name, UintOf(minValue, maxValue), maxCount)
}

// CompressedFloatArray declares an array of quantized float32 values.
func CompressedFloatArray(name string, minValue, maxValue float32, bits, maxCount int) Field {
	return BoundedArray(name, FloatOf(minValue, maxValue, bits), maxCount)
}

// CompressedDoubleArray declares an array of quantized float64 values.
func CompressedDoubleArray(name string, minValue, maxValue float64, bits, maxCount int) Field {
	return BoundedArray(name, DoubleOf(minValue, maxValue, bits), maxCount)
}

// UnboundedArray declares an array with a 32-bit count prefix.
func UnboundedArray(name string, elem Type) Field {
	return Field{Name: name, Type: ListOf(elem)}
}

// Bytes declares a byte blob of at most maxCount bytes, or up to
// bitstream.DefaultMaxBytes when maxCount is zero.
func Bytes(name string, maxCount int) Field {
	return Field{Name: name, Type: BytesOf(maxCount)}
}

// Skip declares a field that is not part of the wire format. Decoding sets it
// to def.
func Skip(name string, def any) Field {
	return Field{Name: name, Type: SkipOf(def)}
}

// Nested declares a nested record field.
func Nested(name string, rec *Record) Field {
	if rec == nil {
		return Field{Name: name}
	}

	return Field{Name: name, Type: rec}
}

// UnionField declares a tagged union field.
func UnionField(name string, u *Union) Field {
	if u == nil {
		return Field{Name: name}
	}

	return Field{Name: name, Type: u}
}

// Optional declares a field that may be absent, stored as a presence bit
// followed by the value.
func Optional(name string, elem Type) Field {
	return Field{Name: name, Type: OptionalOf(elem)}
}

// Custom declares a field whose values implement bitstream.Codable.
func Custom(name string, factory func() bitstream.Codable) Field {
	return Field{Name: name, Type: CustomOf(factory)}
}
