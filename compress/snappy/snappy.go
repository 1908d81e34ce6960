// Package snappy implements the SNAPPY parquet compression codec.
package snappy

import (
	"github.com/klauspost/compress/snappy"
	"github.com/segmentio/parquet-engine/format"
)

// Codec uses the snappy block format, which is what parquet expects, not the
// framed stream format.
type Codec struct {
}

func (c *Codec) String() string {
	return "SNAPPY"
}

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Snappy
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return snappy.Encode(dst[:cap(dst)], src), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return snappy.Decode(dst[:cap(dst)], src)
}
