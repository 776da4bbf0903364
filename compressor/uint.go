package compressor

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/constraints"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
)

// Uint compresses unsigned integers bounded by [Min, Max].
type Uint[T constraints.Unsigned] struct {
	minValue T
	maxValue T
	span     uint64
	bits     int
}

var _ Codec[uint64] = Uint[uint64]{}

// NewUint creates an unsigned integer compressor. minValue must be below maxValue.
func NewUint[T constraints.Unsigned](minValue, maxValue T) (Uint[T], error) {
	if minValue >= maxValue {
		return Uint[T]{}, fmt.Errorf("%w: min %d must be below max %d", errs.ErrInvalidBounds, minValue, maxValue)
	}

	span := uint64(maxValue) - uint64(minValue)

	return Uint[T]{
		minValue: minValue,
		maxValue: maxValue,
		span:     span,
		bits:     bits.Len64(span),
	}, nil
}

// MustUint is like NewUint but panics on invalid bounds.
func MustUint[T constraints.Unsigned](minValue, maxValue T) Uint[T] {
	c, err := NewUint(minValue, maxValue)
	if err != nil {
		panic(err)
	}

	return c
}

// Min returns the lower bound.
func (c Uint[T]) Min() T { return c.minValue }

// Max returns the upper bound.
func (c Uint[T]) Max() T { return c.maxValue }

// RequiredBits returns ceil(log2(max - min + 1)).
func (c Uint[T]) RequiredBits() int { return c.bits }

// Write appends v as its offset from Min.
//
// Values outside [Min, Max] fail with errs.ErrValueOutOfRange and nothing is
// written.
func (c Uint[T]) Write(w *bitstream.Writer, v T) error {
	if v < c.minValue || v > c.maxValue {
		return fmt.Errorf("%w: %d not in [%d, %d]", errs.ErrValueOutOfRange, v, c.minValue, c.maxValue)
	}

	w.AppendBits(uint64(v)-uint64(c.minValue), c.bits)

	return nil
}

// Read decodes a value written by Write.
func (c Uint[T]) Read(r *bitstream.Reader) (T, error) {
	step, err := r.ReadBits(c.bits)
	if err != nil {
		return 0, err
	}
	if step > c.span {
		return 0, fmt.Errorf("%w: step %d exceeds range %d", errs.ErrInvalidEncoding, step, c.span)
	}

	return T(uint64(c.minValue) + step), nil
}

// WriteSlice writes a count bounded by maxCount followed by every value.
func (c Uint[T]) WriteSlice(w *bitstream.Writer, values []T, maxCount int) error {
	return WriteSlice[T](c, w, values, maxCount)
}

// ReadSlice reads values written by WriteSlice with the same maxCount.
func (c Uint[T]) ReadSlice(r *bitstream.Reader, maxCount int) ([]T, error) {
	return ReadSlice[T](c, r, maxCount)
}

func (c Uint[T]) String() string {
	return fmt.Sprintf("uint[%d,%d]", c.minValue, c.maxValue)
}
