package compressor

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/constraints"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
)

// Int compresses signed integers bounded by [Min, Max].
type Int[T constraints.Signed] struct {
	minValue T
	maxValue T
	span     uint64 // max - min, computed in 64-bit two's complement
	bits     int
}

var _ Codec[int64] = Int[int64]{}

// NewInt creates a signed integer compressor. minValue must be below maxValue.
func NewInt[T constraints.Signed](minValue, maxValue T) (Int[T], error) {
	if minValue >= maxValue {
		return Int[T]{}, fmt.Errorf("%w: min %d must be below max %d", errs.ErrInvalidBounds, minValue, maxValue)
	}

	span := uint64(int64(maxValue)) - uint64(int64(minValue))

	return Int[T]{
		minValue: minValue,
		maxValue: maxValue,
		span:     span,
		bits:     bits.Len64(span),
	}, nil
}

// MustInt is like NewInt but panics on invalid bounds.
func MustInt[T constraints.Signed](minValue, maxValue T) Int[T] {
	c, err := NewInt(minValue, maxValue)
	if err != nil {
		panic(err)
	}

	return c
}

// Min returns the lower bound.
func (c Int[T]) Min() T { return c.minValue }

// Max returns the upper bound.
func (c Int[T]) Max() T { return c.maxValue }

// RequiredBits returns ceil(log2(max - min + 1)).
func (c Int[T]) RequiredBits() int { return c.bits }

// Write appends v as its offset from Min.
//
// Values outside [Min, Max] fail with errs.ErrValueOutOfRange and nothing is
// written.
func (c Int[T]) Write(w *bitstream.Writer, v T) error {
	if v < c.minValue || v > c.maxValue {
		return fmt.Errorf("%w: %d not in [%d, %d]", errs.ErrValueOutOfRange, v, c.minValue, c.maxValue)
	}

	w.AppendBits(uint64(int64(v))-uint64(int64(c.minValue)), c.bits)

	return nil
}

// Read decodes a value written by Write.
func (c Int[T]) Read(r *bitstream.Reader) (T, error) {
	step, err := r.ReadBits(c.bits)
	if err != nil {
		return 0, err
	}
	if step > c.span {
		return 0, fmt.Errorf("%w: step %d exceeds range %d", errs.ErrInvalidEncoding, step, c.span)
	}

	return T(int64(uint64(int64(c.minValue)) + step)), nil
}

// WriteSlice writes a count bounded by maxCount followed by every value.
func (c Int[T]) WriteSlice(w *bitstream.Writer, values []T, maxCount int) error {
	return WriteSlice[T](c, w, values, maxCount)
}

// ReadSlice reads values written by WriteSlice with the same maxCount.
func (c Int[T]) ReadSlice(r *bitstream.Reader, maxCount int) ([]T, error) {
	return ReadSlice[T](c, r, maxCount)
}

func (c Int[T]) String() string {
	return fmt.Sprintf("int[%d,%d]", c.minValue, c.maxValue)
}
