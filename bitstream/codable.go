package bitstream

import (
	"fmt"
	"math"

	"github.com/arloliu/bitpack/errs"
)

// Encodable is implemented by types that write themselves to a bit stream.
type Encodable interface {
	EncodeBits(w *Writer) error
}

// Decodable is implemented by types that read themselves from a bit stream.
// DecodeBits must consume exactly the bits EncodeBits produced.
type Decodable interface {
	DecodeBits(r *Reader) error
}

// Codable is a type that can be both written and read.
type Codable interface {
	Encodable
	Decodable
}

// AppendArray writes a count bounded by maxCount followed by every element.
func AppendArray[T any, PT interface {
	*T
	Encodable
}](w *Writer, elems []T, maxCount int) error {
	if err := w.AppendCount(len(elems), maxCount); err != nil {
		return err
	}

	return appendElems[T, PT](w, elems)
}

// ReadArray reads an array written by AppendArray with the same maxCount.
func ReadArray[T any, PT interface {
	*T
	Decodable
}](r *Reader, maxCount int) ([]T, error) {
	n, err := r.ReadCount(maxCount)
	if err != nil {
		return nil, err
	}

	return readElems[T, PT](r, n)
}

// AppendUnboundedArray writes a 32-bit count followed by every element.
func AppendUnboundedArray[T any, PT interface {
	*T
	Encodable
}](w *Writer, elems []T) error {
	if uint64(len(elems)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d elements", errs.ErrArrayTooLong, len(elems))
	}
	w.AppendBits(uint64(len(elems)), 32)

	return appendElems[T, PT](w, elems)
}

// ReadUnboundedArray reads an array written by AppendUnboundedArray.
//
// Every element takes at least one bit, so a count larger than the remaining
// bits is rejected before anything is allocated.
func ReadUnboundedArray[T any, PT interface {
	*T
	Decodable
}](r *Reader) ([]T, error) {
	n, err := r.ReadUnboundedCount()
	if err != nil {
		return nil, err
	}

	return readElems[T, PT](r, n)
}

// ReadUnboundedCount reads a 32-bit element count and rejects counts larger
// than the number of remaining bits.
func (r *Reader) ReadUnboundedCount() (int, error) {
	n, err := r.ReadBits(32)
	if err != nil {
		return 0, err
	}
	if remaining := r.Remaining(); n > uint64(remaining) {
		return 0, fmt.Errorf("%w: count %d exceeds %d remaining bits", errs.ErrEndOfStream, n, remaining)
	}

	return int(n), nil
}

// AppendSlice writes a count bounded by maxCount followed by every element
// using fn. It serves element types without their own encoding, such as
// compressed scalars.
func AppendSlice[T any](w *Writer, elems []T, maxCount int, fn func(*Writer, T) error) error {
	if err := w.AppendCount(len(elems), maxCount); err != nil {
		return err
	}

	for i, e := range elems {
		if err := fn(w, e); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}

	return nil
}

// ReadSlice reads a slice written by AppendSlice with the same maxCount.
func ReadSlice[T any](r *Reader, maxCount int, fn func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadCount(maxCount)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, min(n, r.Remaining()))
	for i := range n {
		v, err := fn(r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}

	return out, nil
}

func appendElems[T any, PT interface {
	*T
	Encodable
}](w *Writer, elems []T) error {
	for i := range elems {
		if err := PT(&elems[i]).EncodeBits(w); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}

	return nil
}

func readElems[T any, PT interface {
	*T
	Decodable
}](r *Reader, n int) ([]T, error) {
	// Cap the up-front allocation by the input size; zero-width elements still
	// decode correctly through append.
	out := make([]T, 0, min(n, r.Remaining()))
	for i := range n {
		var v T
		if err := PT(&v).DecodeBits(r); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}

	return out, nil
}
