package parquet

import (
	"context"
	"fmt"
	"io"

	"github.com/segmentio/parquet-engine/format"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/sync/errgroup"
)

var columnBufferPool bytebufferpool.Pool

// RowGroupWriter writes one row group of a file. Each column is encoded into
// its own buffer so columns may be written concurrently; the chunks are
// copied to the file in schema order when the row group is closed.
type RowGroupWriter struct {
	writer  *Writer
	schema  *Schema
	columns []*ColumnWriter
	buffers []*bytebufferpool.ByteBuffer
	closed  bool
}

func newRowGroupWriter(writer *Writer) (*RowGroupWriter, error) {
	rg := &RowGroupWriter{
		writer:  writer,
		schema:  writer.schema,
		columns: make([]*ColumnWriter, writer.schema.NumColumns()),
		buffers: make([]*bytebufferpool.ByteBuffer, writer.schema.NumColumns()),
	}
	for i, column := range writer.schema.Columns() {
		rg.buffers[i] = columnBufferPool.Get()
		c, err := newColumnWriter(column, rg.buffers[i], 0, writer.config)
		if err != nil {
			rg.release()
			return nil, err
		}
		rg.columns[i] = c
	}
	return rg, nil
}

// Schema returns the schema of the row group.
func (rg *RowGroupWriter) Schema() *Schema { return rg.schema }

// Column returns the writer of the column at index i.
func (rg *RowGroupWriter) Column(i int) *ColumnWriter { return rg.columns[i] }

// NumRows returns the number of rows written to the first column.
func (rg *RowGroupWriter) NumRows() int64 {
	if len(rg.columns) == 0 {
		return 0
	}
	return rg.columns[0].NumRows()
}

func (rg *RowGroupWriter) size() int64 {
	size := int64(0)
	for _, c := range rg.columns {
		size += c.size()
	}
	return size
}

// WriteRow writes a row produced by Schema.Deconstruct, dispatching its values
// to the column writers by column index.
func (rg *RowGroupWriter) WriteRow(row Row) error {
	if rg.closed {
		return fmt.Errorf("writing row: %w", ErrClosed)
	}
	var err error
	row.Range(func(columnIndex int, values []Value) bool {
		if columnIndex < 0 || columnIndex >= len(rg.columns) {
			err = fmt.Errorf("%w: row value of column %d in schema with %d columns", ErrTypeMismatch, columnIndex, len(rg.columns))
			return false
		}
		_, err = rg.columns[columnIndex].WriteValues(values)
		return err == nil
	})
	return err
}

// WriteRows writes rows to the row group, returning how many were written.
func (rg *RowGroupWriter) WriteRows(rows []Row) (int, error) {
	for i, row := range rows {
		if err := rg.WriteRow(row); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

// WriteColumns calls fn concurrently for each column writer of the row group,
// returning the first error. The context passed to fn is canceled when one of
// the calls fails.
func (rg *RowGroupWriter) WriteColumns(ctx context.Context, fn func(context.Context, *ColumnWriter) error) error {
	if rg.closed {
		return fmt.Errorf("writing columns: %w", ErrClosed)
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range rg.columns {
		c := c
		g.Go(func() error { return fn(ctx, c) })
	}
	return g.Wait()
}

// Close flushes the columns and appends the row group to the file.
//
// All columns must hold the same number of rows, otherwise the method returns
// an error wrapping ErrIncompleteRowGroup and the file writer is aborted.
func (rg *RowGroupWriter) Close() error {
	if rg.closed {
		return fmt.Errorf("closing row group: %w", ErrClosed)
	}
	rg.closed = true
	defer rg.release()
	return rg.writer.writeRowGroup(rg)
}

// flush closes the column writers and copies their chunks to w at the given
// file offset.
func (rg *RowGroupWriter) flush(w io.Writer, offset int64, ordinal int) (*RowGroup, error) {
	chunks := make([]*ColumnChunk, len(rg.columns))
	for i, c := range rg.columns {
		chunk, err := c.Close()
		if err != nil {
			return nil, err
		}
		chunks[i] = chunk
	}

	numRows := int64(0)
	if len(chunks) > 0 {
		numRows = chunks[0].NumRows()
	}
	for _, chunk := range chunks[1:] {
		if chunk.NumRows() != numRows {
			return nil, fmt.Errorf("%w: column %s has %d rows but column %s has %d",
				ErrIncompleteRowGroup, chunk.Column(), chunk.NumRows(), chunks[0].Column(), numRows)
		}
	}

	group := &RowGroup{
		columns: chunks,
		meta: format.RowGroup{
			Columns:    make([]format.ColumnChunk, len(chunks)),
			NumRows:    numRows,
			FileOffset: offset,
			Ordinal:    int16(ordinal),
		},
	}
	position := offset
	for i, chunk := range chunks {
		chunk.shift(position)
		n, err := w.Write(rg.buffers[i].B)
		position += int64(n)
		if err != nil {
			return nil, fmt.Errorf("writing column chunk %s: %w", chunk.Column(), err)
		}
		group.meta.Columns[i] = chunk.meta
		group.meta.TotalByteSize += chunk.TotalUncompressedSize()
		group.meta.TotalCompressedSize += chunk.TotalCompressedSize()
	}
	return group, nil
}

func (rg *RowGroupWriter) release() {
	for i, b := range rg.buffers {
		if b != nil {
			columnBufferPool.Put(b)
			rg.buffers[i] = nil
		}
	}
}

// RowGroupReader reads the rows of one row group of a file.
type RowGroupReader struct {
	file     *File
	rowGroup *RowGroup
	readers  []*ColumnReader
}

// RowGroup returns the metadata of the row group.
func (r *RowGroupReader) RowGroup() *RowGroup { return r.rowGroup }

// NumRows returns the number of rows in the row group.
func (r *RowGroupReader) NumRows() int64 { return r.rowGroup.NumRows() }

// ColumnChunks returns an iterator over the column chunks of the row group,
// in schema order.
func (r *RowGroupReader) ColumnChunks() *ColumnChunks {
	return &ColumnChunks{chunks: r.rowGroup.Columns(), index: -1}
}

// Column returns a reader of the column at index i. The reader is shared with
// ReadRow and ReadRows.
func (r *RowGroupReader) Column(i int) *ColumnReader {
	if r.readers[i] == nil {
		r.readers[i] = NewColumnReader(r.rowGroup.columns[i])
	}
	return r.readers[i]
}

// ReadRow appends the values of the next row of every column to row. It
// returns io.EOF after the last row.
//
// If some columns run out of rows before others, the method returns an error
// wrapping ErrIncompleteRowGroup.
func (r *RowGroupReader) ReadRow(row Row) (Row, error) {
	eof := 0
	for i := range r.rowGroup.columns {
		var err error
		row, err = r.Column(i).ReadRow(row)
		switch {
		case err == io.EOF:
			eof++
		case err != nil:
			return row, err
		}
	}
	switch eof {
	case 0:
		return row, nil
	case len(r.rowGroup.columns):
		return row, io.EOF
	default:
		return row, fmt.Errorf("%w: %d of %d columns ran out of rows", ErrIncompleteRowGroup, eof, len(r.rowGroup.columns))
	}
}

// ReadRows reads rows into the given slice, reusing their backing arrays. It
// returns the number of rows read, and io.EOF after the last row.
func (r *RowGroupReader) ReadRows(rows []Row) (int, error) {
	for i := range rows {
		row, err := r.ReadRow(rows[i][:0])
		if err != nil {
			return i, err
		}
		rows[i] = row
	}
	return len(rows), nil
}

// ColumnChunks iterates over the column chunks of a row group.
type ColumnChunks struct {
	chunks []*ColumnChunk
	index  int
}

// Next moves to the next column chunk, returning false when there are none
// left.
func (it *ColumnChunks) Next() bool {
	if it.index < len(it.chunks) {
		it.index++
	}
	return it.index < len(it.chunks)
}

// Chunk returns the current column chunk.
func (it *ColumnChunks) Chunk() *ColumnChunk { return it.chunks[it.index] }

// Len returns the number of column chunks.
func (it *ColumnChunks) Len() int { return len(it.chunks) }
