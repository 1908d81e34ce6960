// Package lz4 implements the LZ4_RAW parquet compression codec.
package lz4

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
	"github.com/segmentio/parquet-engine/format"
)

// The LZ4 block format cannot expand data by more than this ratio, it bounds
// the size of the output buffer when the uncompressed size is unknown.
const maxCompressionRatio = 255

type Codec struct {
}

func (c *Codec) String() string {
	return "LZ4_RAW"
}

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Lz4Raw
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		// An empty block is a single token announcing zero literals.
		return append(dst[:0], 0), nil
	}
	dst = reserveAtLeast(dst, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	return dst[:n], err
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	if len(src) <= 1 {
		return dst[:0], nil
	}
	// 3x seems like a common compression ratio, so we optimistically size the
	// output buffer to that size unless the caller provided a larger one.
	dst = reserveAtLeast(dst, max(cap(dst), 3*len(src)))
	limit := maxCompressionRatio*len(src) + 64
	for {
		n, err := lz4.UncompressBlock(src, dst)
		if err == nil {
			return dst[:n], nil
		}
		// The lz4 package does not expose its error values, the only failure
		// of valid input is an output buffer too short.
		if len(dst) >= limit {
			return dst[:0], fmt.Errorf("lz4: %w", err)
		}
		dst = make([]byte, min(2*len(dst), limit))
	}
}

func reserveAtLeast(b []byte, size int) []byte {
	if cap(b) < size {
		return make([]byte, size)
	}
	return b[:cap(b)]
}
