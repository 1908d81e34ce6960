// Package compress defines the block compression API shared by the page codec
// and the codecs of its sub-packages.
//
// Pages are compressed as a whole, so codecs only expose one-shot Encode and
// Decode methods. Codecs backed by streaming libraries use Compressor and
// Decompressor to recycle their stream state between pages.
package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/segmentio/parquet-engine/format"
)

// Codec is implemented by page compression codecs. Implementations are safe
// for concurrent use.
type Codec interface {
	String() string

	// CompressionCodec is the code written to column chunk metadata.
	CompressionCodec() format.CompressionCodec

	// Encode compresses src into dst, reusing its capacity, and returns the
	// compressed bytes.
	Encode(dst, src []byte) ([]byte, error)

	// Decode decompresses src into dst, reusing its capacity. Block codecs
	// treat cap(dst) as a hint of the decompressed size.
	Decode(dst, src []byte) ([]byte, error)
}

// Reader is a decompression stream which can be rebound to a new input.
// Reset(nil) must release the previous input.
type Reader interface {
	io.ReadCloser
	Reset(io.Reader) error
}

// Writer is a compression stream which can be rebound to a new output.
type Writer interface {
	io.WriteCloser
	Reset(io.Writer) error
}

// Compressor runs block compressions through pooled Writers.
type Compressor struct {
	pool sync.Pool
}

func (c *Compressor) Encode(dst, src []byte, newWriter func(io.Writer) (Writer, error)) ([]byte, error) {
	out := bytes.NewBuffer(dst[:0])

	w, err := c.acquire(out, newWriter)
	if err != nil {
		return dst[:0], err
	}
	defer c.release(w)

	if _, err := w.Write(src); err != nil {
		return out.Bytes(), err
	}
	// Close flushes the stream trailer into out.
	if err := w.Close(); err != nil {
		return out.Bytes(), err
	}
	return out.Bytes(), nil
}

func (c *Compressor) acquire(out io.Writer, newWriter func(io.Writer) (Writer, error)) (Writer, error) {
	if w, ok := c.pool.Get().(Writer); ok {
		return w, w.Reset(out)
	}
	return newWriter(out)
}

func (c *Compressor) release(w Writer) {
	if w.Reset(io.Discard) == nil {
		c.pool.Put(w)
	}
}

// Decompressor runs block decompressions through pooled Readers.
type Decompressor struct {
	pool sync.Pool
}

func (d *Decompressor) Decode(dst, src []byte, newReader func(io.Reader) (Reader, error)) ([]byte, error) {
	r, err := d.acquire(bytes.NewReader(src), newReader)
	if err != nil {
		return dst[:0], err
	}
	defer d.release(r)

	out := bytes.NewBuffer(dst[:0])
	_, err = out.ReadFrom(r)
	return out.Bytes(), err
}

func (d *Decompressor) acquire(in io.Reader, newReader func(io.Reader) (Reader, error)) (Reader, error) {
	if r, ok := d.pool.Get().(Reader); ok {
		return r, r.Reset(in)
	}
	return newReader(in)
}

func (d *Decompressor) release(r Reader) {
	if r.Reset(nil) == nil {
		d.pool.Put(r)
	}
}
