package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawType_Bits(t *testing.T) {
	tests := []struct {
		raw  RawType
		bits int
	}{
		{RawBool, 1},
		{RawInt8, 8},
		{RawUint8, 8},
		{RawInt16, 16},
		{RawUint16, 16},
		{RawInt32, 32},
		{RawUint32, 32},
		{RawFloat32, 32},
		{RawInt64, 64},
		{RawUint64, 64},
		{RawFloat64, 64},
		{RawString, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw.String(), func(t *testing.T) {
			require.Equal(t, tt.bits, tt.raw.Bits())
		})
	}
}

func TestParseRawType(t *testing.T) {
	for r := RawBool; r <= RawString; r++ {
		got, ok := ParseRawType(r.String())
		require.True(t, ok, r.String())
		require.Equal(t, r, got)
	}

	_, ok := ParseRawType("complex128")
	require.False(t, ok)
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		in   string
		want CompressionType
		ok   bool
	}{
		{"none", CompressionNone, true},
		{"ZSTD", CompressionZstd, true},
		{"s2", CompressionS2, true},
		{"Lz4", CompressionLZ4, true},
		{"snappy", CompressionSnappy, true},
		{"gzip", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCompressionType(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFieldKind_String(t *testing.T) {
	require.Equal(t, "int", KindInt.String())
	require.Equal(t, "list", KindUnboundedArray.String())
	require.Equal(t, "unknown", FieldKind(0).String())
	require.Equal(t, "Unknown", CompressionType(0).String())
}
