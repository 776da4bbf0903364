package bitstream

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/internal/pool"
)

// DefaultMaxBytes is the ceiling applied to byte blobs and strings when the
// schema does not declare a tighter bound. It caps the memory a single corrupt
// or hostile length prefix can make a reader allocate.
const DefaultMaxBytes = 1 << 29

// MaxDepth bounds how deeply self-referencing records may nest in one stream.
const MaxDepth = 1000

// Writer appends values to a growable buffer at bit granularity.
//
// Bits are written most significant first: AppendBits(v, n) emits bit n-1 of v
// before bit 0, and the first bit written lands in the most significant bit of
// the first byte. The write cursor only moves forward.
//
// A Writer is not safe for concurrent use. Each message should own its writer.
type Writer struct {
	bitBuf   uint64 // pending bits, right-aligned
	bitCount int    // number of valid bits in bitBuf, always < 64 between calls
	buf      *pool.ByteBuffer
	depth    int    // nested self-referencing records being encoded
}

// NewWriter creates an empty writer backed by a pooled buffer.
//
// Call Release when the writer is no longer needed to hand the buffer back to
// the pool. Release is optional; an unreleased buffer is garbage collected.
func NewWriter() *Writer {
	return &Writer{buf: pool.GetStreamBuffer()}
}

// AppendBits writes the lowest numberOfBits bits of value.
//
// Panics if numberOfBits is outside [0, 64] or the writer was released.
func (w *Writer) AppendBits(value uint64, numberOfBits int) {
	if numberOfBits < 0 || numberOfBits > 64 {
		panic(fmt.Sprintf("bitstream: invalid bit count %d", numberOfBits))
	}
	if w.buf == nil {
		panic("bitstream: writer already released")
	}
	if numberOfBits == 0 {
		return
	}

	if numberOfBits < 64 {
		value &= (1 << numberOfBits) - 1
	}

	available := 64 - w.bitCount
	if numberOfBits < available {
		w.bitBuf = (w.bitBuf << numberOfBits) | value
		w.bitCount += numberOfBits

		return
	}

	// Fill the accumulator, flush it, and keep the low bits that did not fit.
	rest := numberOfBits - available
	if available == 64 {
		w.bitBuf = value
	} else {
		w.bitBuf = (w.bitBuf << available) | (value >> rest)
	}
	w.buf.B = binary.BigEndian.AppendUint64(w.buf.B, w.bitBuf)

	if rest == 0 {
		w.bitBuf = 0
	} else {
		w.bitBuf = value & ((1 << rest) - 1)
	}
	w.bitCount = rest
}

// AppendBool writes a single bit.
func (w *Writer) AppendBool(v bool) {
	if v {
		w.AppendBits(1, 1)
	} else {
		w.AppendBits(0, 1)
	}
}

// AppendUint8 writes v using 8 bits.
func (w *Writer) AppendUint8(v uint8) { w.AppendBits(uint64(v), 8) }

// AppendUint16 writes v using 16 bits.
func (w *Writer) AppendUint16(v uint16) { w.AppendBits(uint64(v), 16) }

// AppendUint32 writes v using 32 bits.
func (w *Writer) AppendUint32(v uint32) { w.AppendBits(uint64(v), 32) }

// AppendUint64 writes v using 64 bits.
func (w *Writer) AppendUint64(v uint64) { w.AppendBits(v, 64) }

// AppendUint writes v using 64 bits regardless of the platform word size.
func (w *Writer) AppendUint(v uint) { w.AppendBits(uint64(v), 64) }

// AppendInt8 writes the two's complement pattern of v using 8 bits.
func (w *Writer) AppendInt8(v int8) { w.AppendBits(uint64(uint8(v)), 8) }

// AppendInt16 writes the two's complement pattern of v using 16 bits.
func (w *Writer) AppendInt16(v int16) { w.AppendBits(uint64(uint16(v)), 16) }

// AppendInt32 writes the two's complement pattern of v using 32 bits.
func (w *Writer) AppendInt32(v int32) { w.AppendBits(uint64(uint32(v)), 32) }

// AppendInt64 writes the two's complement pattern of v using 64 bits.
func (w *Writer) AppendInt64(v int64) { w.AppendBits(uint64(v), 64) }

// AppendInt writes v using 64 bits regardless of the platform word size.
func (w *Writer) AppendInt(v int) { w.AppendBits(uint64(int64(v)), 64) }

// AppendFloat32 writes the IEEE-754 binary32 pattern of v.
func (w *Writer) AppendFloat32(v float32) { w.AppendBits(uint64(math.Float32bits(v)), 32) }

// AppendFloat64 writes the IEEE-754 binary64 pattern of v.
func (w *Writer) AppendFloat64(v float64) { w.AppendBits(math.Float64bits(v), 64) }

// AppendString writes a 32-bit byte length followed by the UTF-8 bytes of s.
func (w *Writer) AppendString(s string) error {
	if len(s) > DefaultMaxBytes {
		return fmt.Errorf("%w: string length %d exceeds maximum %d", errs.ErrArrayTooLong, len(s), DefaultMaxBytes)
	}

	w.AppendBits(uint64(len(s)), 32)
	w.appendRawBytes([]byte(s))

	return nil
}

// AppendCount writes an element count in CountBits(maxCount) bits.
//
// Returns ErrArrayTooLong if n is greater than maxCount, and ErrInvalidMaxCount
// if maxCount is not positive. Nothing is written on error.
func (w *Writer) AppendCount(n, maxCount int) error {
	if maxCount <= 0 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidMaxCount, maxCount)
	}
	if n < 0 || n > maxCount {
		return fmt.Errorf("%w: count %d exceeds max %d", errs.ErrArrayTooLong, n, maxCount)
	}

	w.AppendBits(uint64(n), CountBits(maxCount))

	return nil
}

// AppendBytes writes a count-prefixed byte blob of at most maxCount bytes.
// Pass DefaultMaxBytes for an unbounded blob.
func (w *Writer) AppendBytes(blob []byte, maxCount int) error {
	if err := w.AppendCount(len(blob), maxCount); err != nil {
		return err
	}
	w.appendRawBytes(blob)

	return nil
}

// AppendCodingKey writes the coding key of a tagged union case as 32 raw bits.
func (w *Writer) AppendCodingKey(key uint32) {
	w.AppendBits(uint64(key), 32)
}

// Append writes v using its own encoding.
func (w *Writer) Append(v Encodable) error {
	return v.EncodeBits(w)
}

// appendRawBytes writes data without a prefix. When the cursor sits on a byte
// boundary the bytes are copied directly into the buffer.
func (w *Writer) appendRawBytes(data []byte) {
	if len(data) == 0 {
		return
	}

	if w.bitCount%8 == 0 {
		w.flushWholeBytes()
		w.buf.MustWrite(data)

		return
	}

	for len(data) >= 8 {
		w.AppendBits(binary.BigEndian.Uint64(data), 64)
		data = data[8:]
	}
	for _, b := range data {
		w.AppendBits(uint64(b), 8)
	}
}

// flushWholeBytes moves pending bits into the buffer. bitCount must be a
// multiple of eight.
func (w *Writer) flushWholeBytes() {
	for w.bitCount > 0 {
		w.bitCount -= 8
		_ = w.buf.WriteByte(byte(w.bitBuf >> w.bitCount))
	}
	w.bitBuf = 0
}

// BitLen returns the number of bits written so far.
//
// Panics if the writer was released.
func (w *Writer) BitLen() int {
	if w.buf == nil {
		panic("bitstream: writer already released")
	}

	return w.buf.Len()*8 + w.bitCount
}

// ByteLen returns the size PackBytes would return.
func (w *Writer) ByteLen() int {
	return (w.BitLen() + 7) / 8
}

// PackBytes returns a copy of the bytes written so far, with the final partial
// byte padded with zero bits.
//
// PackBytes does not change the writer; it can be called repeatedly and more
// values can be appended afterwards.
func (w *Writer) PackBytes() []byte {
	if w.buf == nil {
		panic("bitstream: writer already released")
	}

	pending := (w.bitCount + 7) / 8
	out := make([]byte, w.buf.Len(), w.buf.Len()+pending)
	copy(out, w.buf.Bytes())

	if w.bitCount > 0 {
		aligned := w.bitBuf << (64 - w.bitCount)
		for i := range pending {
			out = append(out, byte(aligned>>(56-8*i)))
		}
	}

	return out
}

// Reset discards everything written so far and keeps the buffer for reuse.
func (w *Writer) Reset() {
	w.bitBuf = 0
	w.bitCount = 0
	w.depth = 0
	if w.buf == nil {
		w.buf = pool.GetStreamBuffer()
		return
	}
	w.buf.Reset()
}

// Release returns the underlying buffer to the pool.
//
// The writer must not be used after Release, except for Reset, which acquires a
// new buffer.
func (w *Writer) Release() {
	if w.buf == nil {
		return
	}

	pool.PutStreamBuffer(w.buf)
	w.buf = nil
	w.bitBuf = 0
	w.bitCount = 0
	w.depth = 0
}

// Descend records entry into a nested self-referencing value. It fails once
// the nesting exceeds MaxDepth, which catches values that contain themselves.
// Every successful Descend must be paired with Ascend.
func (w *Writer) Descend() error {
	if w.depth >= MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", errs.ErrInvalidValue, MaxDepth)
	}
	w.depth++

	return nil
}

// Ascend undoes one Descend.
func (w *Writer) Ascend() {
	w.depth--
}

// CountBits returns the number of bits used for a count bounded by maxCount,
// which is the number of bits needed to represent every value in [0, maxCount].
func CountBits(maxCount int) int {
	if maxCount <= 0 {
		return 0
	}

	return bits.Len64(uint64(maxCount))
}
