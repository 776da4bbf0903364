package compress

import (
	"errors"
	"fmt"

	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
)

// Compressor compresses a packed message payload.
//
// Memory management:
//   - Returned slice is owned by the caller, except for the no-op codec which
//     returns its input
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
//
// Implementations must be safe for concurrent use.
type Decompressor interface {
	// Decompress returns an error if data is corrupted or was produced by a
	// different algorithm.
	Decompress(data []byte) ([]byte, error)
}

// ErrSizeMismatch is returned by DecompressSized when a payload declares or
// produces a size other than the expected one.
var ErrSizeMismatch = errors.New("decompressed size mismatch")

// SizedDecompressor decompresses payloads whose original size is known.
//
// DecompressSized allocates at most size bytes for the output, whatever size
// the payload itself declares, and fails with ErrSizeMismatch unless the
// output is exactly size bytes long. It is the decoding path for untrusted
// input.
type SizedDecompressor interface {
	DecompressSized(data []byte, size int) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
	SizedDecompressor
}

// Stats describes the effect of compressing one payload.
type Stats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm format.CompressionType

	// OriginalSize is the size of the packed message before compression
	OriginalSize int64

	// CompressedSize is the size of the stored payload
	CompressedSize int64
}

// CompressionRatio returns the compression ratio (compressed size / original size).
//
// Values greater than 1.0 are common for small bit-packed messages, which
// rarely leave redundancy for a general-purpose compressor to remove.
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s Stats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage. Negative values mean
// the compressed payload is larger than the original.
func (s Stats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// CreateCodec creates a new Codec for the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, LZ4 or Snappy)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: errs.ErrUnsupportedCompression for unknown types
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case format.CompressionSnappy:
		return NewSnappyCompressor(), nil
	default:
		return nil, fmt.Errorf("%w: invalid %s compression: %s", errs.ErrUnsupportedCompression, target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:   NewNoOpCompressor(),
	format.CompressionZstd:   NewZstdCompressor(),
	format.CompressionS2:     NewS2Compressor(),
	format.CompressionLZ4:    NewLZ4Compressor(),
	format.CompressionSnappy: NewSnappyCompressor(),
}

// GetCodec retrieves a shared built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// checkSized validates the arguments of DecompressSized. It reports done when
// no decoding is needed: an empty payload only decodes to an empty message.
func checkSized(data []byte, size int) (bool, error) {
	switch {
	case size < 0:
		return true, fmt.Errorf("%w: negative size %d", ErrSizeMismatch, size)
	case len(data) == 0 && size != 0:
		return true, fmt.Errorf("%w: empty payload, want %d bytes", ErrSizeMismatch, size)
	default:
		return len(data) == 0, nil
	}
}

func sizeMismatch(codec string, got, want int) error {
	return fmt.Errorf("%w: %s payload holds %d bytes, want %d", ErrSizeMismatch, codec, got, want)
}
