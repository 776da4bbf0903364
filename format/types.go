package format

import "strings"

type (
	// FieldKind identifies how a schema field is represented on the wire.
	FieldKind uint8
	// RawType identifies a natively sized scalar encoded with its full bit pattern.
	RawType uint8
	// CompressionType identifies the payload compression of a frame.
	CompressionType uint8
)

const (
	KindRaw            FieldKind = 0x1 // KindRaw is a natively sized scalar or string.
	KindInt            FieldKind = 0x2 // KindInt is a range-compressed signed integer.
	KindUint           FieldKind = 0x3 // KindUint is a range-compressed unsigned integer.
	KindFloat          FieldKind = 0x4 // KindFloat is a quantized float32.
	KindDouble         FieldKind = 0x5 // KindDouble is a quantized float64.
	KindBits           FieldKind = 0x6 // KindBits is an unsigned integer with an explicit bit width.
	KindArray          FieldKind = 0x7 // KindArray is a count-prefixed array bounded by a max count.
	KindUnboundedArray FieldKind = 0x8 // KindUnboundedArray is an array with a 32-bit count prefix.
	KindBytes          FieldKind = 0x9 // KindBytes is a count-prefixed raw byte blob.
	KindSkip           FieldKind = 0xA // KindSkip is a field that is never written.
	KindRecord         FieldKind = 0xB // KindRecord is a nested record.
	KindUnion          FieldKind = 0xC // KindUnion is a tagged union.
	KindOptional       FieldKind = 0xD // KindOptional is a presence bit followed by the value.
	KindCustom         FieldKind = 0xE // KindCustom is a user type with its own bit stream codec.

	RawBool    RawType = 0x1 // RawBool is a single bit.
	RawInt8    RawType = 0x2 // RawInt8 is 8 bits two's complement.
	RawInt16   RawType = 0x3 // RawInt16 is 16 bits two's complement.
	RawInt32   RawType = 0x4 // RawInt32 is 32 bits two's complement.
	RawInt64   RawType = 0x5 // RawInt64 is 64 bits two's complement.
	RawUint8   RawType = 0x6 // RawUint8 is 8 bits.
	RawUint16  RawType = 0x7 // RawUint16 is 16 bits.
	RawUint32  RawType = 0x8 // RawUint32 is 32 bits.
	RawUint64  RawType = 0x9 // RawUint64 is 64 bits.
	RawFloat32 RawType = 0xA // RawFloat32 is the IEEE-754 binary32 pattern.
	RawFloat64 RawType = 0xB // RawFloat64 is the IEEE-754 binary64 pattern.
	RawString  RawType = 0xC // RawString is a 32-bit length followed by UTF-8 bytes.

	CompressionNone   CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd   CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2     CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4    CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionSnappy CompressionType = 0x5 // CompressionSnappy represents Snappy compression.
)

func (k FieldKind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBits:
		return "bits"
	case KindArray:
		return "array"
	case KindUnboundedArray:
		return "list"
	case KindBytes:
		return "bytes"
	case KindSkip:
		return "skip"
	case KindRecord:
		return "record"
	case KindUnion:
		return "union"
	case KindOptional:
		return "optional"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Bits returns the fixed wire width of the raw type in bits.
// Strings are variable and report 0.
func (r RawType) Bits() int {
	switch r {
	case RawBool:
		return 1
	case RawInt8, RawUint8:
		return 8
	case RawInt16, RawUint16:
		return 16
	case RawInt32, RawUint32, RawFloat32:
		return 32
	case RawInt64, RawUint64, RawFloat64:
		return 64
	default:
		return 0
	}
}

func (r RawType) String() string {
	switch r {
	case RawBool:
		return "bool"
	case RawInt8:
		return "int8"
	case RawInt16:
		return "int16"
	case RawInt32:
		return "int32"
	case RawInt64:
		return "int64"
	case RawUint8:
		return "uint8"
	case RawUint16:
		return "uint16"
	case RawUint32:
		return "uint32"
	case RawUint64:
		return "uint64"
	case RawFloat32:
		return "float32"
	case RawFloat64:
		return "float64"
	case RawString:
		return "string"
	default:
		return "unknown"
	}
}

// ParseRawType returns the raw type named s, as produced by RawType.String.
func ParseRawType(s string) (RawType, bool) {
	for r := RawBool; r <= RawString; r++ {
		if r.String() == s {
			return r, true
		}
	}

	return 0, false
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionSnappy:
		return "Snappy"
	default:
		return "Unknown"
	}
}

// ParseCompressionType parses a case-insensitive compression name such as "zstd".
func ParseCompressionType(s string) (CompressionType, bool) {
	for c := CompressionNone; c <= CompressionSnappy; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, true
		}
	}

	return 0, false
}
