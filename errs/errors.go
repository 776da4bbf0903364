// Package errs defines the sentinel errors returned by bitpack packages.
//
// Errors are wrapped with additional context using fmt.Errorf and the %w verb,
// so callers should always test them with errors.Is:
//
//	if errors.Is(err, errs.ErrEndOfStream) {
//	    // truncated message
//	}
package errs

import "errors"

// Stream decoding errors.
var (
	// ErrEndOfStream is returned when a read requests more bits than remain in the stream.
	ErrEndOfStream = errors.New("end of stream")
	// ErrArrayTooLong is returned when a decoded or supplied element count exceeds the agreed maximum.
	ErrArrayTooLong = errors.New("array too long")
	// ErrUnknownCase is returned when a tagged union coding key is outside the declared case range.
	ErrUnknownCase = errors.New("unknown union case")
	// ErrInvalidEncoding is returned when decoded bits do not form a valid value,
	// such as invalid UTF-8 text or an integer step beyond the compressor range.
	ErrInvalidEncoding = errors.New("invalid encoding")
	// ErrTrailingData is returned when a stream has unread bits left after the last field,
	// or when the final padding bits are not zero.
	ErrTrailingData = errors.New("trailing data after last field")
)

// Value errors raised while encoding.
var (
	// ErrValueOutOfRange is returned when a value lies outside a compressor's declared bounds.
	ErrValueOutOfRange = errors.New("value out of range")
	// ErrInvalidValue is returned when a value does not match the Go type expected by a field.
	ErrInvalidValue = errors.New("invalid value for field")
)

// Construction errors raised when building compressors and schemas.
var (
	// ErrInvalidBounds is returned when a compressor's minimum is not strictly below its maximum,
	// or when a bound is not finite.
	ErrInvalidBounds = errors.New("invalid compressor bounds")
	// ErrInvalidBitCount is returned when a bit count is outside the valid range for its type.
	ErrInvalidBitCount = errors.New("invalid bit count")
	// ErrInvalidMaxCount is returned when a maximum element count is not positive.
	ErrInvalidMaxCount = errors.New("invalid max count")
	// ErrInvalidSchema is returned when a record or union schema is malformed.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrUnsupportedType is returned when a Go type cannot be bound to a schema.
	ErrUnsupportedType = errors.New("unsupported type")
)

// Frame errors.
var (
	// ErrInvalidFrame is returned when a frame header or payload is malformed.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrInvalidMagicNumber is returned when a frame does not start with the expected magic number.
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	// ErrChecksumMismatch is returned when the stored payload checksum does not match.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrSchemaMismatch is returned when a frame's schema fingerprint differs from the expected one.
	ErrSchemaMismatch = errors.New("schema fingerprint mismatch")
	// ErrFrameTooLarge is returned when a frame declares a payload larger than the configured limit.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrUnsupportedCompression is returned for an unknown payload compression type.
	ErrUnsupportedCompression = errors.New("unsupported compression")
)
