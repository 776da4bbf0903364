package bitstream

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/arloliu/bitpack/errs"
)

// Reader consumes bits from an immutable byte slice in the order Writer
// produced them.
//
// Every read either returns the requested value and advances the cursor, or
// fails with an error wrapping errs.ErrEndOfStream and leaves the cursor where
// it was. Padding bits are never turned into data.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	data     []byte
	bytePos  int    // next byte to load into bitBuf
	bitBuf   uint64 // buffered bits, left-aligned
	bitCount int    // number of valid bits in bitBuf
	depth    int    // nested self-referencing records being decoded
}

// NewReader creates a reader positioned at the first bit of data.
// The reader does not copy data; callers must not modify it while reading.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// BitPosition returns the number of bits consumed so far.
func (r *Reader) BitPosition() int {
	return r.bytePos*8 - r.bitCount
}

// Descend records entry into a nested self-referencing value. It fails once
// the nesting exceeds MaxDepth, so a hostile stream cannot exhaust the stack.
// Every successful Descend must be paired with Ascend.
func (r *Reader) Descend() error {
	if r.depth >= MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d at bit %d", errs.ErrInvalidEncoding, MaxDepth, r.BitPosition())
	}
	r.depth++

	return nil
}

// Ascend undoes one Descend.
func (r *Reader) Ascend() {
	r.depth--
}

// Remaining returns the number of unread bits, padding included.
func (r *Reader) Remaining() int {
	return (len(r.data)-r.bytePos)*8 + r.bitCount
}

// ReadBits reads numberOfBits bits and returns them right-aligned.
//
// Panics if numberOfBits is outside [0, 64].
func (r *Reader) ReadBits(numberOfBits int) (uint64, error) {
	if numberOfBits < 0 || numberOfBits > 64 {
		panic(fmt.Sprintf("bitstream: invalid bit count %d", numberOfBits))
	}
	if numberOfBits == 0 {
		return 0, nil
	}

	if numberOfBits <= r.bitCount {
		result := r.bitBuf >> (64 - numberOfBits)
		r.bitBuf <<= numberOfBits
		r.bitCount -= numberOfBits

		return result, nil
	}

	if remaining := r.Remaining(); numberOfBits > remaining {
		return 0, fmt.Errorf("%w: need %d bits at bit %d, %d remaining",
			errs.ErrEndOfStream, numberOfBits, r.BitPosition(), remaining)
	}

	var result uint64
	firstRead := true

	for numberOfBits > 0 {
		if r.bitCount == 0 {
			r.fillBuffer()
		}

		bitsToRead := min(numberOfBits, r.bitCount)
		chunk := r.bitBuf >> (64 - bitsToRead)

		if firstRead {
			result = chunk
			firstRead = false
		} else {
			result = (result << bitsToRead) | chunk
		}

		r.bitBuf <<= bitsToRead
		r.bitCount -= bitsToRead
		numberOfBits -= bitsToRead
	}

	return result, nil
}

// fillBuffer loads up to 8 bytes into the empty bit buffer, left-aligned.
// The caller guarantees that at least one byte is left.
func (r *Reader) fillBuffer() {
	available := len(r.data) - r.bytePos
	if available >= 8 {
		r.bitBuf = binary.BigEndian.Uint64(r.data[r.bytePos:])
		r.bytePos += 8
		r.bitCount = 64

		return
	}

	r.bitBuf = 0
	for i := 0; i < available; i++ {
		r.bitBuf = (r.bitBuf << 8) | uint64(r.data[r.bytePos])
		r.bytePos++
	}
	r.bitBuf <<= (8 - available) * 8
	r.bitCount = available * 8
}

// ReadBool reads a single bit.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// ReadUint8 reads 8 bits.
func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadBits(8)
	return uint8(v), err
}

// ReadUint16 reads 16 bits.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadBits(16)
	return uint16(v), err
}

// ReadUint32 reads 32 bits.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadBits(32)
	return uint32(v), err
}

// ReadUint64 reads 64 bits.
func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadBits(64)
}

// ReadUint reads 64 bits into a uint.
func (r *Reader) ReadUint() (uint, error) {
	v, err := r.ReadBits(64)
	return uint(v), err
}

// ReadInt8 reads an 8-bit two's complement integer.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadBits(8)
	return int8(uint8(v)), err
}

// ReadInt16 reads a 16-bit two's complement integer.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadBits(16)
	return int16(uint16(v)), err
}

// ReadInt32 reads a 32-bit two's complement integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadBits(32)
	return int32(uint32(v)), err
}

// ReadInt64 reads a 64-bit two's complement integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadBits(64)
	return int64(v), err
}

// ReadInt reads a 64-bit two's complement integer into an int.
func (r *Reader) ReadInt() (int, error) {
	v, err := r.ReadBits(64)
	return int(int64(v)), err
}

// ReadFloat32 reads an IEEE-754 binary32 pattern.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadBits(32)
	return math.Float32frombits(uint32(v)), err
}

// ReadFloat64 reads an IEEE-754 binary64 pattern.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadBits(64)
	return math.Float64frombits(v), err
}

// ReadString reads a string written by Writer.AppendString.
//
// The length is checked against the remaining input and DefaultMaxBytes before
// anything is allocated. Invalid UTF-8 fails with errs.ErrInvalidEncoding.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadBits(32)
	if err != nil {
		return "", err
	}
	if n > DefaultMaxBytes {
		return "", fmt.Errorf("%w: string length %d exceeds maximum %d", errs.ErrArrayTooLong, n, DefaultMaxBytes)
	}

	b, err := r.readRawBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", errs.ErrInvalidEncoding)
	}

	return string(b), nil
}

// ReadCount reads an element count written by Writer.AppendCount.
//
// Returns errs.ErrArrayTooLong if the decoded count is above maxCount.
func (r *Reader) ReadCount(maxCount int) (int, error) {
	if maxCount <= 0 {
		return 0, fmt.Errorf("%w: %d", errs.ErrInvalidMaxCount, maxCount)
	}

	n, err := r.ReadBits(CountBits(maxCount))
	if err != nil {
		return 0, err
	}
	if n > uint64(maxCount) {
		return 0, fmt.Errorf("%w: count %d exceeds max %d", errs.ErrArrayTooLong, n, maxCount)
	}

	return int(n), nil
}

// ReadBytes reads a blob written by Writer.AppendBytes with the same maxCount.
// The returned slice is owned by the caller.
func (r *Reader) ReadBytes(maxCount int) ([]byte, error) {
	n, err := r.ReadCount(maxCount)
	if err != nil {
		return nil, err
	}

	return r.readRawBytes(n)
}

// ReadCodingKey reads a 32-bit union coding key and checks it against the
// number of declared cases.
func (r *Reader) ReadCodingKey(numCases int) (uint32, error) {
	pos := r.BitPosition()

	key, err := r.ReadBits(32)
	if err != nil {
		return 0, err
	}
	if key >= uint64(numCases) {
		return 0, fmt.Errorf("%w: coding key %d at bit %d, %d cases declared", errs.ErrUnknownCase, key, pos, numCases)
	}

	return uint32(key), nil
}

// Read decodes v using its own decoding.
func (r *Reader) Read(v Decodable) error {
	return v.DecodeBits(r)
}

// Done reports whether the stream was consumed completely.
//
// A packed message may end with up to 7 zero padding bits. More unread bits,
// or non-zero padding, fail with errs.ErrTrailingData.
func (r *Reader) Done() error {
	remaining := r.Remaining()
	if remaining >= 8 {
		return fmt.Errorf("%w: %d unread bits at bit %d", errs.ErrTrailingData, remaining, r.BitPosition())
	}

	padding, err := r.ReadBits(remaining)
	if err != nil {
		return err
	}
	if padding != 0 {
		return fmt.Errorf("%w: non-zero padding bits", errs.ErrTrailingData)
	}

	return nil
}

// readRawBytes reads n bytes with no prefix into a new slice.
func (r *Reader) readRawBytes(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if remaining := r.Remaining(); n > remaining/8 {
		return nil, fmt.Errorf("%w: need %d bytes at bit %d, %d bits remaining",
			errs.ErrEndOfStream, n, r.BitPosition(), remaining)
	}

	out := make([]byte, n)

	// On a byte boundary the buffered bits are exactly the tail of the bytes
	// already loaded, so the data can be copied in one go.
	if r.bitCount%8 == 0 {
		start := r.bytePos - r.bitCount/8
		copy(out, r.data[start:start+n])
		r.bytePos = start + n
		r.bitBuf = 0
		r.bitCount = 0

		return out, nil
	}

	i := 0
	for ; i+8 <= n; i += 8 {
		v, _ := r.ReadBits(64)
		binary.BigEndian.PutUint64(out[i:], v)
	}
	for ; i < n; i++ {
		v, _ := r.ReadBits(8)
		out[i] = byte(v)
	}

	return out, nil
}
