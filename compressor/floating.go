package compressor

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/arloliu/bitpack/bitstream"
	"github.com/arloliu/bitpack/errs"
)

// Floating quantizes floating point values in [Min, Max] into 2^bits - 1
// equal steps.
//
// Values outside the range are clamped and NaN is stored as Min. A decoded value
// differs from the written one by at most Precision()/2; Min and Max themselves
// round-trip exactly.
type Floating[T constraints.Float] struct {
	minValue T
	maxValue T
	span     float64 // max - min
	bits     int
	maxStep  uint64 // 2^bits - 1
}

var (
	_ Codec[float32] = Floating[float32]{}
	_ Codec[float64] = Floating[float64]{}
)

// NewFloat creates a float32 compressor using bits in (0, 32].
func NewFloat(minValue, maxValue float32, bits int) (Floating[float32], error) {
	return newFloating(minValue, maxValue, bits, 32)
}

// NewDouble creates a float64 compressor using bits in (0, 64].
func NewDouble(minValue, maxValue float64, bits int) (Floating[float64], error) {
	return newFloating(minValue, maxValue, bits, 64)
}

// MustFloat is like NewFloat but panics on invalid parameters.
func MustFloat(minValue, maxValue float32, bits int) Floating[float32] {
	c, err := NewFloat(minValue, maxValue, bits)
	if err != nil {
		panic(err)
	}

	return c
}

// MustDouble is like NewDouble but panics on invalid parameters.
func MustDouble(minValue, maxValue float64, bits int) Floating[float64] {
	c, err := NewDouble(minValue, maxValue, bits)
	if err != nil {
		panic(err)
	}

	return c
}

func newFloating[T constraints.Float](minValue, maxValue T, bits, typeWidth int) (Floating[T], error) {
	lo, hi := float64(minValue), float64(maxValue)
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Floating[T]{}, fmt.Errorf("%w: bounds must be finite, got [%v, %v]", errs.ErrInvalidBounds, minValue, maxValue)
	}
	if lo >= hi {
		return Floating[T]{}, fmt.Errorf("%w: min %v must be below max %v", errs.ErrInvalidBounds, minValue, maxValue)
	}

	span := hi - lo
	if math.IsInf(span, 0) {
		return Floating[T]{}, fmt.Errorf("%w: range [%v, %v] overflows", errs.ErrInvalidBounds, minValue, maxValue)
	}
	if bits <= 0 || bits > typeWidth {
		return Floating[T]{}, fmt.Errorf("%w: %d not in (0, %d]", errs.ErrInvalidBitCount, bits, typeWidth)
	}

	maxStep := uint64(math.MaxUint64)
	if bits < 64 {
		maxStep = (1 << bits) - 1
	}

	return Floating[T]{
		minValue: minValue,
		maxValue: maxValue,
		span:     span,
		bits:     bits,
		maxStep:  maxStep,
	}, nil
}

// Min returns the lower bound.
func (c Floating[T]) Min() T { return c.minValue }

// Max returns the upper bound.
func (c Floating[T]) Max() T { return c.maxValue }

// Bits returns the configured number of bits.
func (c Floating[T]) Bits() int { return c.bits }

// RequiredBits returns the number of bits used per value, which equals Bits.
func (c Floating[T]) RequiredBits() int { return c.bits }

// Precision returns the quantization step, (max - min) / (2^bits - 1).
func (c Floating[T]) Precision() float64 {
	return c.span / float64(c.maxStep)
}

// Write clamps v to [Min, Max] and appends its nearest step. It never fails.
func (c Floating[T]) Write(w *bitstream.Writer, v T) error {
	w.AppendBits(c.step(float64(v)), c.bits)
	return nil
}

func (c Floating[T]) step(x float64) uint64 {
	lo := float64(c.minValue)
	if math.IsNaN(x) || x <= lo {
		return 0
	}
	if x >= float64(c.maxValue) {
		return c.maxStep
	}

	// float64(maxStep) rounds up for bits above 53, so the product can reach
	// 2^bits; keep it within the last step.
	s := math.Round((x - lo) / c.span * float64(c.maxStep))
	if s >= float64(c.maxStep) {
		return c.maxStep
	}

	return uint64(s)
}

// Read decodes a value written by Write.
func (c Floating[T]) Read(r *bitstream.Reader) (T, error) {
	step, err := r.ReadBits(c.bits)
	if err != nil {
		return 0, err
	}

	return c.value(step), nil
}

func (c Floating[T]) value(step uint64) T {
	switch step {
	case 0:
		return c.minValue
	case c.maxStep:
		return c.maxValue
	}

	v := float64(c.minValue) + float64(step)/float64(c.maxStep)*c.span
	v = math.Min(math.Max(v, float64(c.minValue)), float64(c.maxValue))

	return T(v)
}

// WriteSlice writes a count bounded by maxCount followed by every value.
func (c Floating[T]) WriteSlice(w *bitstream.Writer, values []T, maxCount int) error {
	return WriteSlice[T](c, w, values, maxCount)
}

// ReadSlice reads values written by WriteSlice with the same maxCount.
func (c Floating[T]) ReadSlice(r *bitstream.Reader, maxCount int) ([]T, error) {
	return ReadSlice[T](c, r, maxCount)
}

func (c Floating[T]) String() string {
	return fmt.Sprintf("float[%v,%v;%d]", c.minValue, c.maxValue, c.bits)
}
