// Package compress provides the payload codecs used by frame.
//
// A packed message is already dense: range compression removes the unused
// high bits of every field. General-purpose compression only pays off for
// messages with repeated content such as strings, byte blobs or long arrays,
// which is why frames default to format.CompressionNone.
//
// # Supported Algorithms
//
//	format.CompressionNone    NoOpCompressor    payload stored as-is
//	format.CompressionZstd    ZstdCompressor    best ratio
//	format.CompressionS2      S2Compressor      fast, good ratio
//	format.CompressionLZ4     LZ4Compressor     fastest decompression
//	format.CompressionSnappy  SnappyCompressor  snappy block format
//
// Zstd uses klauspost/compress by default. Build with cgo and the gozstd tag
// to use libzstd through valyala/gozstd instead:
//
//	go build -tags gozstd ./...
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	compressed, err := codec.Compress(packed)
//	original, err := codec.Decompress(compressed)
//
// Untrusted payloads should go through DecompressSized with the size recorded
// next to them, as frame.Decode does. It never allocates more than that size.
//
// GetCodec returns shared instances; CreateCodec returns a new one. All codecs
// are safe for concurrent use.
package compress
