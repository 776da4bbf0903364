// Package compressor maps bounded numeric values to the minimum number of bits
// that can represent every value in their range.
//
// Integer compressors are lossless: a value in [min, max] is stored as its
// offset from min using RequiredBits bits. Floating compressors are lossy: the
// range is quantized into 2^bits - 1 steps and the decoded value is within half
// a step of the original.
//
// Compressors are immutable after construction and safe for concurrent use.
// Bounds and bit counts are validated once by the constructors, so the
// per-value cost is a subtraction and a shift.
//
//	var speed = compressor.MustFloat(0, 50, 12)
//
//	if err := speed.Write(w, 12.5); err != nil {
//	    return err
//	}
//	v, err := speed.Read(r)
package compressor

import "github.com/arloliu/bitpack/bitstream"

// Codec is the common behavior of all compressors.
type Codec[T any] interface {
	// Write appends v to w using RequiredBits bits.
	Write(w *bitstream.Writer, v T) error
	// Read decodes a value written by Write.
	Read(r *bitstream.Reader) (T, error)
	// RequiredBits returns the fixed number of bits used per value.
	RequiredBits() int
}

// WriteSlice writes a count bounded by maxCount followed by every value.
func WriteSlice[T any](c Codec[T], w *bitstream.Writer, values []T, maxCount int) error {
	return bitstream.AppendSlice(w, values, maxCount, c.Write)
}

// ReadSlice reads values written by WriteSlice with the same maxCount.
func ReadSlice[T any](c Codec[T], r *bitstream.Reader, maxCount int) ([]T, error) {
	return bitstream.ReadSlice(r, maxCount, c.Read)
}
