// Package frame wraps packed messages in a self-describing envelope for
// storage and transport.
//
// A packed message carries no length, version or integrity information; the
// reader must already know the schema. A frame adds a 24-byte header with the
// payload length, an optional payload compression, the schema fingerprint and
// a checksum:
//
//	packed, _ := position.Marshal(values)
//	framed, err := frame.Encode(packed,
//	    frame.WithCompression(format.CompressionZstd),
//	    frame.WithFingerprint(position.Fingerprint()),
//	)
//
//	packed, header, err := frame.Decode(framed,
//	    frame.WithExpectedFingerprint(position.Fingerprint()),
//	)
//
// Frames are optional; the packed message inside is identical to the one
// produced without them.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/bitpack/compress"
	"github.com/arloliu/bitpack/endian"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
	"github.com/arloliu/bitpack/internal/hash"
	"github.com/arloliu/bitpack/internal/options"
	"github.com/arloliu/bitpack/internal/pool"
)

// Encode wraps the packed message in a frame.
//
// When the configured compression does not shrink the message, the payload is
// stored uncompressed and the header records format.CompressionNone.
//
// Returns:
//   - []byte: The frame, owned by the caller
//   - error: Option errors, or errs.ErrFrameTooLarge for messages over 4GiB
func Encode(packed []byte, opts ...EncoderOption) ([]byte, error) {
	cfg := newEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if uint64(len(packed)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrFrameTooLarge, len(packed))
	}

	ct := cfg.compression
	payload := packed
	if ct != format.CompressionNone {
		codec, err := compress.GetCodec(ct)
		if err != nil {
			return nil, err
		}

		compressed, err := codec.Compress(packed)
		switch {
		case errors.Is(err, compress.ErrIncompressible):
			ct = format.CompressionNone
		case err != nil:
			return nil, fmt.Errorf("%s compression: %w", ct, err)
		case len(compressed) >= len(packed):
			ct = format.CompressionNone
		default:
			payload = compressed
		}
	}

	h := Header{
		BigEndian:      endian.IsBigEndian(cfg.engine),
		HasFingerprint: cfg.hasFingerprint,
		Compression:    ct,
		Fingerprint:    cfg.fingerprint,
		RawLen:         uint32(len(packed)),  //nolint:gosec
		PayloadLen:     uint32(len(payload)), //nolint:gosec
		Checksum:       hash.Checksum32(payload),
	}

	buf := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(buf)

	buf.Grow(HeaderSize + len(payload))
	buf.B = h.AppendTo(buf.B)
	buf.MustWrite(payload)

	return bytes.Clone(buf.Bytes()), nil
}

// Decode validates a frame and returns the packed message inside it.
//
// For uncompressed frames the returned message shares memory with data.
//
// Returns:
//   - []byte: The packed message
//   - Header: The parsed frame header
//   - error: ErrInvalidFrame, ErrInvalidMagicNumber, ErrFrameTooLarge,
//     ErrChecksumMismatch or ErrSchemaMismatch from package errs
func Decode(data []byte, opts ...DecoderOption) ([]byte, Header, error) {
	cfg := newDecoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, Header{}, err
	}

	h, err := ParseHeader(data)
	if err != nil {
		return nil, Header{}, err
	}

	if int64(h.RawLen) > int64(cfg.maxRawSize) {
		return nil, h, fmt.Errorf("%w: message of %d bytes, limit %d", errs.ErrFrameTooLarge, h.RawLen, cfg.maxRawSize)
	}
	if got := len(data) - HeaderSize; uint64(got) != uint64(h.PayloadLen) {
		return nil, h, fmt.Errorf("%w: header declares %d payload bytes, frame holds %d", errs.ErrInvalidFrame, h.PayloadLen, got)
	}
	if h.Compression == format.CompressionNone && h.PayloadLen != h.RawLen {
		return nil, h, fmt.Errorf("%w: uncompressed payload of %d bytes declares %d", errs.ErrInvalidFrame, h.PayloadLen, h.RawLen)
	}

	if cfg.hasExpected && (!h.HasFingerprint || h.Fingerprint != cfg.expected) {
		return nil, h, fmt.Errorf("%w: frame 0x%016X, expected 0x%016X", errs.ErrSchemaMismatch, h.Fingerprint, cfg.expected)
	}

	payload := data[HeaderSize:]
	if sum := hash.Checksum32(payload); sum != h.Checksum {
		return nil, h, fmt.Errorf("%w: stored 0x%08X, computed 0x%08X", errs.ErrChecksumMismatch, h.Checksum, sum)
	}

	if h.Compression == format.CompressionNone {
		return payload, h, nil
	}

	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return nil, h, err
	}

	// RawLen is within maxRawSize here, so it bounds the output buffer.
	packed, err := codec.DecompressSized(payload, int(h.RawLen))
	if err != nil {
		return nil, h, fmt.Errorf("%w: %w", errs.ErrInvalidFrame, err)
	}

	return packed, h, nil
}
