package parquet

import (
	"fmt"

	"github.com/segmentio/parquet-engine/compress"
	"github.com/segmentio/parquet-engine/compress/brotli"
	"github.com/segmentio/parquet-engine/compress/gzip"
	"github.com/segmentio/parquet-engine/compress/lz4"
	"github.com/segmentio/parquet-engine/compress/snappy"
	"github.com/segmentio/parquet-engine/compress/uncompressed"
	"github.com/segmentio/parquet-engine/compress/zstd"
	"github.com/segmentio/parquet-engine/format"
)

var (
	// Uncompressed is a parquet compression codec representing uncompressed
	// pages.
	Uncompressed compress.Codec = new(uncompressed.Codec)

	// Snappy is the SNAPPY parquet compression codec.
	Snappy compress.Codec = new(snappy.Codec)

	// Gzip is the GZIP parquet compression codec.
	Gzip compress.Codec = &gzip.Codec{Level: gzip.DefaultCompression}

	// Brotli is the BROTLI parquet compression codec.
	Brotli compress.Codec = &brotli.Codec{Quality: brotli.DefaultQuality, LGWin: brotli.DefaultLGWin}

	// Zstd is the ZSTD parquet compression codec.
	Zstd compress.Codec = &zstd.Codec{Level: zstd.DefaultLevel}

	// Lz4Raw is the LZ4_RAW parquet compression codec.
	Lz4Raw compress.Codec = new(lz4.Codec)

	// Table of compression codecs indexed by their code in the parquet format.
	compressionCodecs = [...]compress.Codec{
		format.Uncompressed: Uncompressed,
		format.Snappy:       Snappy,
		format.Gzip:         Gzip,
		format.Brotli:       Brotli,
		format.Zstd:         Zstd,
		format.Lz4Raw:       Lz4Raw,
	}
)

// LookupCompressionCodec returns the compression codec associated with the
// given code.
//
// The function returns an error wrapping ErrUnsupportedEncoding for LZO, the
// hadoop framing of LZ4, and unknown codes.
func LookupCompressionCodec(codec format.CompressionCodec) (compress.Codec, error) {
	if codec >= 0 && int(codec) < len(compressionCodecs) {
		if c := compressionCodecs[codec]; c != nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: compression codec %s", ErrUnsupportedEncoding, codec)
}

// maxPageSizeHint bounds the capacity preallocated for decompressed pages,
// since the declared size comes from untrusted headers.
const maxPageSizeHint = 64 * 1024 * 1024

// decompressPage decompresses src, verifying that the output has the size
// declared in the page header.
func decompressPage(codec compress.Codec, src []byte, uncompressedSize int) ([]byte, error) {
	if uncompressedSize < 0 {
		return nil, fmt.Errorf("%w: negative uncompressed page size %d", ErrCorruptedPage, uncompressedSize)
	}
	dst, err := codec.Decode(make([]byte, 0, min(uncompressedSize, maxPageSizeHint)), src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompression, codec, err)
	}
	if len(dst) != uncompressedSize {
		return nil, fmt.Errorf("%w: %s: decompressed page has %d bytes but its header declares %d", ErrCompression, codec, len(dst), uncompressedSize)
	}
	return dst, nil
}
