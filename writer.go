package parquet

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/segmentio/parquet-engine/format"
)

// A Writer uses a parquet schema and a sequence of records to produce a
// parquet file to an io.Writer.
//
// This example showcases a typical use of parquet writers:
//
//	writer, err := parquet.NewWriter(output, schema)
//	if err != nil {
//		...
//	}
//
//	for _, record := range records {
//		if err := writer.Write(record); err != nil {
//			...
//		}
//	}
//
//	if err := writer.Close(); err != nil {
//		...
//	}
//
// Rows are buffered in a row group until its estimated size reaches the
// RowGroupTargetSize option, the row group is then written to the output.
// Programs that need control over row group boundaries or that write
// columns concurrently use NewRowGroup instead.
//
// The footer is only written by a successful call to Close. Once a write
// failed the writer is aborted: every following call returns the error and
// the output never receives a footer.
type Writer struct {
	sink      io.Writer
	schema    *Schema
	config    *WriterConfig
	offset    int64
	rowGroups []*RowGroup
	current   *RowGroupWriter
	row       Row
	err       error
	closed    bool
}

// NewWriter constructs a writer of files with the given schema to w.
func NewWriter(w io.Writer, schema *Schema, options ...WriterOption) (*Writer, error) {
	config := DefaultWriterConfig()
	config.Apply(options...)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Writer{
		sink:   w,
		schema: schema,
		config: config,
	}, nil
}

// Schema returns the schema of the file being written.
func (w *Writer) Schema() *Schema { return w.schema }

// Write writes a record to the current row group, see Schema.Deconstruct for
// the representation of records.
func (w *Writer) Write(record map[string]interface{}) error {
	if err := w.check(); err != nil {
		return err
	}
	row, err := w.schema.Deconstruct(w.row[:0], record)
	if err != nil {
		return err
	}
	w.row = row
	return w.WriteRow(row)
}

// WriteRow writes a row produced by Schema.Deconstruct to the current row
// group, flushing it to the output when it reaches the target size.
func (w *Writer) WriteRow(row Row) error {
	if err := w.check(); err != nil {
		return err
	}
	if w.current == nil {
		if _, err := w.NewRowGroup(); err != nil {
			return err
		}
	}
	if err := w.current.WriteRow(row); err != nil {
		return w.abort(err)
	}
	if w.current.size() >= w.config.RowGroupTargetSize {
		return w.Flush()
	}
	return nil
}

// NewRowGroup flushes the current row group and opens a new one.
//
// The row group is appended to the file when its Close method is called.
func (w *Writer) NewRowGroup() (*RowGroupWriter, error) {
	if err := w.Flush(); err != nil {
		return nil, err
	}
	rg, err := newRowGroupWriter(w)
	if err != nil {
		return nil, w.abort(err)
	}
	w.current = rg
	return rg, nil
}

// Flush writes the current row group to the output. Row groups without rows
// are discarded.
func (w *Writer) Flush() error {
	if err := w.check(); err != nil {
		return err
	}
	if w.current == nil {
		return nil
	}
	if w.current.NumRows() == 0 {
		w.current.closed = true
		w.current.release()
		w.current = nil
		return nil
	}
	return w.current.Close()
}

func (w *Writer) writeRowGroup(rg *RowGroupWriter) error {
	if err := w.check(); err != nil {
		return err
	}
	if rg != w.current {
		return fmt.Errorf("row group was replaced by a newer one: %w", ErrClosed)
	}
	w.current = nil
	if err := w.writeMagic(); err != nil {
		return w.abort(err)
	}
	group, err := rg.flush(w.sink, w.offset, len(w.rowGroups))
	if err != nil {
		return w.abort(err)
	}
	w.offset += group.TotalCompressedSize()
	w.rowGroups = append(w.rowGroups, group)
	w.config.Metrics.rowGroupWritten(group.NumRows())
	level.Debug(w.config.Logger).Log(
		"msg", "row group written",
		"ordinal", group.Ordinal(),
		"rows", group.NumRows(),
		"size", humanize.IBytes(uint64(group.TotalCompressedSize())),
	)
	return nil
}

func (w *Writer) writeMagic() error {
	if w.offset > 0 {
		return nil
	}
	n, err := io.WriteString(w.sink, magic)
	w.offset += int64(n)
	return err
}

// Close flushes the current row group and writes the footer of the file. It
// does not close the underlying output.
func (w *Writer) Close() error {
	if w.closed && w.err == nil {
		return nil
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := w.writeMagic(); err != nil {
		return w.abort(err)
	}
	w.closed = true

	numRows := int64(0)
	rowGroups := make([]format.RowGroup, len(w.rowGroups))
	for i, g := range w.rowGroups {
		numRows += g.NumRows()
		rowGroups[i] = g.meta
	}
	keyValueMetadata := make([]format.KeyValue, 0, len(w.config.KeyValueMetadata))
	for k, v := range w.config.KeyValueMetadata {
		keyValueMetadata = append(keyValueMetadata, format.KeyValue{Key: k, Value: v})
	}
	format.SortKeyValueMetadata(keyValueMetadata)
	columnOrders := make([]format.ColumnOrder, w.schema.NumColumns())
	for i := range columnOrders {
		columnOrders[i].TypeOrder = new(format.TypeDefinedOrder)
	}

	n, err := EncodeFooter(w.sink, &format.FileMetaData{
		Version:          1,
		Schema:           w.schema.schemaElements(),
		NumRows:          numRows,
		RowGroups:        rowGroups,
		KeyValueMetadata: keyValueMetadata,
		CreatedBy:        w.config.CreatedBy,
		ColumnOrders:     columnOrders,
	})
	w.offset += n
	if err != nil {
		w.err = fmt.Errorf("writing footer: %w", err)
		return w.err
	}
	level.Debug(w.config.Logger).Log("msg", "parquet file written", "row_groups", len(w.rowGroups), "rows", numRows, "size", humanize.IBytes(uint64(w.offset)))
	return nil
}

func (w *Writer) check() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return fmt.Errorf("parquet writer: %w", ErrClosed)
	}
	return nil
}

// abort makes err sticky, the file will not receive a footer.
func (w *Writer) abort(err error) error {
	w.err = err
	if w.current != nil {
		w.current.closed = true
		w.current.release()
		w.current = nil
	}
	level.Warn(w.config.Logger).Log("msg", "parquet writer aborted", "err", err)
	return err
}
