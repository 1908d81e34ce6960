// Package gzip implements the GZIP parquet compression codec.
package gzip

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/segmentio/parquet-engine/compress"
	"github.com/segmentio/parquet-engine/format"
)

const (
	NoCompression      = gzip.NoCompression
	BestSpeed          = gzip.BestSpeed
	BestCompression    = gzip.BestCompression
	DefaultCompression = gzip.DefaultCompression
	HuffmanOnly        = gzip.HuffmanOnly
)

type Codec struct {
	Level int

	r compress.Decompressor
	w compress.Compressor
}

func (c *Codec) String() string {
	return "GZIP"
}

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Gzip
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return c.w.Encode(dst, src, func(w io.Writer) (compress.Writer, error) {
		z, err := gzip.NewWriterLevel(w, c.level())
		if err != nil {
			return nil, err
		}
		return writer{z}, nil
	})
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return c.r.Decode(dst, src, func(r io.Reader) (compress.Reader, error) {
		z, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return reader{z}, nil
	})
}

func (c *Codec) level() int {
	if c.Level != 0 {
		return c.Level
	}
	return DefaultCompression
}

type reader struct{ *gzip.Reader }

func (r reader) Reset(rr io.Reader) error {
	if rr == nil {
		// Pass it an empty reader, which is a zero-size value implementing the
		// flate.Reader interface to avoid the construction of a bufio.Reader in
		// the call to Reset. Reading the header fails with io.EOF, which only
		// means that the reader released its reference to the previous input.
		r.Reader.Reset(devNull{})
		return nil
	}
	return r.Reader.Reset(rr)
}

type writer struct{ *gzip.Writer }

func (w writer) Reset(ww io.Writer) error {
	if ww == nil {
		ww = devNull{}
	}
	w.Writer.Reset(ww)
	return nil
}

type devNull struct{}

func (devNull) ReadByte() (byte, error)   { return 0, io.EOF }
func (devNull) Read([]byte) (int, error)  { return 0, io.EOF }
func (devNull) Write([]byte) (int, error) { return 0, nil }
