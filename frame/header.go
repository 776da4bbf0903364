package frame

import (
	"fmt"

	"github.com/arloliu/bitpack/compress"
	"github.com/arloliu/bitpack/endian"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
)

const (
	// HeaderSize is the fixed size of a frame header in bytes.
	HeaderSize = 24

	// MagicByte0 and MagicByte1 open every frame ("BP"). They are single
	// bytes so they read the same in either byte order.
	MagicByte0 = 0x42
	MagicByte1 = 0x50
)

// Header flag bits.
const (
	flagBigEndian   uint8 = 1 << 0
	flagFingerprint uint8 = 1 << 1
	flagsKnown            = flagBigEndian | flagFingerprint
)

// Header is the fixed-size prefix of a frame.
//
// Layout (byte offsets):
//
//	0-1    magic "BP"
//	2      flags: bit 0 big-endian header, bit 1 fingerprint present
//	3      payload compression (format.CompressionType)
//	4-11   schema fingerprint
//	12-15  raw length: size of the packed message
//	16-19  payload length: size of the stored, possibly compressed, payload
//	20-23  checksum: low 32 bits of the xxHash64 of the stored payload
type Header struct {
	// BigEndian reports the byte order of the integer header fields.
	BigEndian bool
	// HasFingerprint reports whether Fingerprint identifies the schema.
	HasFingerprint bool
	// Compression is the payload compression.
	Compression format.CompressionType
	// Fingerprint is the schema fingerprint, or zero.
	Fingerprint uint64
	// RawLen is the size of the packed message.
	RawLen uint32
	// PayloadLen is the size of the stored payload following the header.
	PayloadLen uint32
	// Checksum is the low 32 bits of the xxHash64 of the stored payload.
	Checksum uint32
}

// Engine returns the byte order of the integer header fields.
func (h Header) Engine() endian.EndianEngine {
	return endian.GetEngine(h.BigEndian)
}

// Stats describes the payload compression of the frame.
func (h Header) Stats() compress.Stats {
	return compress.Stats{
		Algorithm:      h.Compression,
		OriginalSize:   int64(h.RawLen),
		CompressedSize: int64(h.PayloadLen),
	}
}

// AppendTo appends the serialized header to buf.
func (h Header) AppendTo(buf []byte) []byte {
	var flags uint8
	if h.BigEndian {
		flags |= flagBigEndian
	}
	if h.HasFingerprint {
		flags |= flagFingerprint
	}

	engine := h.Engine()

	buf = append(buf, MagicByte0, MagicByte1, flags, uint8(h.Compression))
	buf = engine.AppendUint64(buf, h.Fingerprint)
	buf = engine.AppendUint32(buf, h.RawLen)
	buf = engine.AppendUint32(buf, h.PayloadLen)
	buf = engine.AppendUint32(buf, h.Checksum)

	return buf
}

// Bytes serializes the header into a new HeaderSize byte slice.
func (h Header) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// ParseHeader parses the header at the start of data.
//
// Returns:
//   - Header: Parsed header
//   - error: ErrInvalidFrame when data is shorter than HeaderSize or uses
//     unknown flags or compression, ErrInvalidMagicNumber when the magic
//     number does not match
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, header needs %d", errs.ErrInvalidFrame, len(data), HeaderSize)
	}
	if data[0] != MagicByte0 || data[1] != MagicByte1 {
		return Header{}, fmt.Errorf("%w: 0x%02X%02X", errs.ErrInvalidMagicNumber, data[0], data[1])
	}

	flags := data[2]
	if flags&^flagsKnown != 0 {
		return Header{}, fmt.Errorf("%w: unknown flags 0x%02X", errs.ErrInvalidFrame, flags)
	}

	h := Header{
		BigEndian:      flags&flagBigEndian != 0,
		HasFingerprint: flags&flagFingerprint != 0,
		Compression:    format.CompressionType(data[3]),
	}
	if _, err := compress.GetCodec(h.Compression); err != nil {
		return Header{}, fmt.Errorf("%w: %w", errs.ErrInvalidFrame, err)
	}

	engine := h.Engine()
	h.Fingerprint = engine.Uint64(data[4:12])
	h.RawLen = engine.Uint32(data[12:16])
	h.PayloadLen = engine.Uint32(data[16:20])
	h.Checksum = engine.Uint32(data[20:24])

	if !h.HasFingerprint && h.Fingerprint != 0 {
		return Header{}, fmt.Errorf("%w: fingerprint without flag", errs.ErrInvalidFrame)
	}

	return h, nil
}
