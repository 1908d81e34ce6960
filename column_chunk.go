package parquet

import (
	"io"

	"github.com/segmentio/parquet-engine/format"
)

// ColumnChunk describes the pages of one leaf column within one row group.
//
// Column chunks are returned by ColumnWriter.Close when writing, and by the
// ColumnChunks iterator of row group readers when reading a file.
type ColumnChunk struct {
	column  *Column
	meta    format.ColumnChunk
	stats   Statistics
	numRows int64
	// chunk buffers start at offset 0, so a zero DictionaryPageOffset does
	// not mean the dictionary is absent until the chunk is placed in a file
	hasDictionary bool
	// set on chunks of opened files
	reader io.ReaderAt
	config *ReaderConfig
}

// Column returns the descriptor of the chunk column.
func (c *ColumnChunk) Column() *Column { return c.column }

// Codec returns the compression codec of the chunk pages.
func (c *ColumnChunk) Codec() format.CompressionCodec { return c.meta.MetaData.Codec }

// Encodings returns the set of encodings used by the chunk pages, levels
// included.
func (c *ColumnChunk) Encodings() []format.Encoding { return c.meta.MetaData.Encoding }

// EncodingStats returns the number of pages of each type and encoding.
func (c *ColumnChunk) EncodingStats() []format.PageEncodingStats { return c.meta.MetaData.EncodingStats }

// NumValues returns the number of values in the chunk, nulls included.
func (c *ColumnChunk) NumValues() int64 { return c.meta.MetaData.NumValues }

// NumRows returns the number of rows in the chunk.
func (c *ColumnChunk) NumRows() int64 { return c.numRows }

// Statistics returns the statistics of the chunk.
func (c *ColumnChunk) Statistics() Statistics { return c.stats }

// TotalCompressedSize returns the size of the chunk in the file, page headers
// included.
func (c *ColumnChunk) TotalCompressedSize() int64 { return c.meta.MetaData.TotalCompressedSize }

// TotalUncompressedSize returns the size of the chunk pages once
// decompressed, page headers included.
func (c *ColumnChunk) TotalUncompressedSize() int64 {
	return c.meta.MetaData.TotalUncompressedSize
}

// DataPageOffset returns the file offset of the first data page.
func (c *ColumnChunk) DataPageOffset() int64 { return c.meta.MetaData.DataPageOffset }

// DictionaryPageOffset returns the file offset of the dictionary page, and
// false if the chunk has none.
func (c *ColumnChunk) DictionaryPageOffset() (int64, bool) {
	return c.meta.MetaData.DictionaryPageOffset, c.hasDictionary
}

// offset returns the file offset of the first page of the chunk.
func (c *ColumnChunk) offset() int64 {
	if offset, ok := c.DictionaryPageOffset(); ok {
		return offset
	}
	return c.DataPageOffset()
}

// shift moves the chunk by delta bytes in the file.
func (c *ColumnChunk) shift(delta int64) {
	c.meta.FileOffset += delta
	c.meta.MetaData.DataPageOffset += delta
	if c.hasDictionary {
		c.meta.MetaData.DictionaryPageOffset += delta
	}
}

// readData loads the pages of the chunk in memory.
func (c *ColumnChunk) readData() ([]byte, error) {
	data := make([]byte, c.TotalCompressedSize())
	n, err := c.reader.ReadAt(data, c.offset())
	if n == len(data) {
		err = nil
	}
	return data, err
}
