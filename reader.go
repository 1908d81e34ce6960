package parquet

import (
	"io"
)

// Reader reads the records of a file, row group after row group.
type Reader struct {
	file     *File
	schema   *Schema
	rowGroup int
	rows     *RowGroupReader
	row      Row
}

// NewReader creates a reader of the records of f.
func NewReader(f *File) *Reader {
	return &Reader{file: f, schema: f.Schema()}
}

// Schema returns the schema of the records.
func (r *Reader) Schema() *Schema { return r.schema }

// Read returns the next record of the file, see Schema.Reconstruct for the
// representation of records. It returns io.EOF after the last record.
func (r *Reader) Read() (map[string]interface{}, error) {
	row, err := r.ReadRow(r.row[:0])
	if err != nil {
		return nil, err
	}
	r.row = row
	return r.schema.Reconstruct(row)
}

// ReadRow appends the values of the next row of the file to row. It returns
// io.EOF after the last row.
func (r *Reader) ReadRow(row Row) (Row, error) {
	for {
		if r.rows == nil {
			if r.rowGroup == r.file.NumRowGroups() {
				return row, io.EOF
			}
			rows, err := r.file.RowGroup(r.rowGroup)
			if err != nil {
				return row, err
			}
			r.rows = rows
			r.rowGroup++
		}
		next, err := r.rows.ReadRow(row)
		if err != io.EOF {
			return next, err
		}
		r.rows = nil
	}
}
