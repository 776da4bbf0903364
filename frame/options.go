package frame

import (
	"fmt"
	"math"

	"github.com/arloliu/bitpack/compress"
	"github.com/arloliu/bitpack/endian"
	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
	"github.com/arloliu/bitpack/internal/options"
)

// DefaultMaxRawSize is the default limit on the packed message size a decoder
// accepts. It matches bitstream.DefaultMaxBytes.
const DefaultMaxRawSize = 1 << 29

// EncoderConfig holds the settings applied by EncoderOption values.
type EncoderConfig struct {
	compression    format.CompressionType
	engine         endian.EndianEngine
	fingerprint    uint64
	hasFingerprint bool
}

func newEncoderConfig() *EncoderConfig {
	return &EncoderConfig{
		compression: format.CompressionNone,
		engine:      endian.GetLittleEndianEngine(),
	}
}

// EncoderOption configures Encode.
type EncoderOption = options.Option[*EncoderConfig]

// WithCompression sets the payload compression. The default is
// format.CompressionNone.
func WithCompression(ct format.CompressionType) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return err
		}
		c.compression = ct

		return nil
	})
}

// WithLittleEndian writes the header integers little-endian. It is the default.
func WithLittleEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.engine = endian.GetLittleEndianEngine()
	})
}

// WithBigEndian writes the header integers big-endian.
func WithBigEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.engine = endian.GetBigEndianEngine()
	})
}

// WithFingerprint records the schema fingerprint, usually
// schema.Record.Fingerprint, in the header.
func WithFingerprint(fp uint64) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.fingerprint = fp
		c.hasFingerprint = true
	})
}

// DecoderConfig holds the settings applied by DecoderOption values.
type DecoderConfig struct {
	expected    uint64
	hasExpected bool
	maxRawSize  int
}

func newDecoderConfig() *DecoderConfig {
	return &DecoderConfig{maxRawSize: DefaultMaxRawSize}
}

// DecoderOption configures Decode.
type DecoderOption = options.Option[*DecoderConfig]

// WithExpectedFingerprint rejects frames that do not carry fingerprint fp with
// errs.ErrSchemaMismatch.
func WithExpectedFingerprint(fp uint64) DecoderOption {
	return options.NoError(func(c *DecoderConfig) {
		c.expected = fp
		c.hasExpected = true
	})
}

// WithMaxRawSize limits the packed message size. Payloads are decompressed
// into a buffer of the size the header declares, so this also bounds the
// memory a corrupt or hostile frame can make the decoder allocate.
func WithMaxRawSize(n int) DecoderOption {
	return options.New(func(c *DecoderConfig) error {
		if n <= 0 || uint64(n) > math.MaxUint32 {
			return fmt.Errorf("%w: max raw size %d not in [1, %d]", errs.ErrInvalidMaxCount, n, uint64(math.MaxUint32))
		}
		c.maxRawSize = n

		return nil
	})
}
