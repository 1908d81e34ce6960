package parquet

import (
	"fmt"
	"io"

	"github.com/go-kit/log/level"
	"github.com/segmentio/parquet-engine/format"
)

// File represents an opened parquet file.
//
// Opening a file only reads and validates its footer; pages are read when
// the values of column chunks are consumed.
type File struct {
	reader   io.ReaderAt
	size     int64
	config   *ReaderConfig
	metadata *FileMetadata
}

// OpenFile opens the parquet file held in the first size bytes of r.
//
// The function returns an error wrapping ErrCorruptedFooter if the magic
// markers, the footer or the layout it describes are invalid.
func OpenFile(r io.ReaderAt, size int64, options ...ReaderOption) (*File, error) {
	config := DefaultReaderConfig()
	config.Apply(options...)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	metadata, err := DecodeFooter(r, size)
	if err != nil {
		level.Debug(config.Logger).Log("msg", "failed to open parquet file", "size", size, "err", err)
		return nil, err
	}
	f := &File{
		reader:   r,
		size:     size,
		config:   config,
		metadata: metadata,
	}
	for _, g := range metadata.rowGroups {
		for _, c := range g.columns {
			c.reader, c.config = r, config
		}
	}
	return f, nil
}

// Size returns the size of f in bytes.
func (f *File) Size() int64 { return f.size }

// Metadata returns the metadata decoded from the footer of f.
func (f *File) Metadata() *FileMetadata { return f.metadata }

// Schema returns the schema of f.
func (f *File) Schema() *Schema { return f.metadata.schema }

// NumRowGroups returns the number of row groups in f.
func (f *File) NumRowGroups() int { return len(f.metadata.rowGroups) }

// RowGroup returns a reader of the row group at index i.
func (f *File) RowGroup(i int) (*RowGroupReader, error) {
	if i < 0 || i >= len(f.metadata.rowGroups) {
		return nil, fmt.Errorf("row group index %d out of range [0:%d]", i, len(f.metadata.rowGroups))
	}
	f.config.Metrics.rowGroupRead()
	g := f.metadata.rowGroups[i]
	return &RowGroupReader{file: f, rowGroup: g, readers: make([]*ColumnReader, len(g.columns))}, nil
}

// FileMetadata is the validated content of a file footer. It is immutable.
type FileMetadata struct {
	schema    *Schema
	meta      format.FileMetaData
	rowGroups []*RowGroup
}

// Schema returns the schema of the file.
func (m *FileMetadata) Schema() *Schema { return m.schema }

// Version returns the format version of the file.
func (m *FileMetadata) Version() int32 { return m.meta.Version }

// CreatedBy returns the name of the application which wrote the file.
func (m *FileMetadata) CreatedBy() string { return m.meta.CreatedBy }

// NumRows returns the total number of rows in the file.
func (m *FileMetadata) NumRows() int64 { return m.meta.NumRows }

// RowGroups returns the row groups of the file, in file order.
func (m *FileMetadata) RowGroups() []*RowGroup { return m.rowGroups }

// KeyValueMetadata returns the key/value properties of the file, sorted by
// key.
func (m *FileMetadata) KeyValueMetadata() []format.KeyValue { return m.meta.KeyValueMetadata }

// Lookup returns the value associated with key in the key/value properties of
// the file.
func (m *FileMetadata) Lookup(key string) (string, bool) {
	for _, kv := range m.meta.KeyValueMetadata {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// RowGroup is the metadata of a row group.
type RowGroup struct {
	meta    format.RowGroup
	columns []*ColumnChunk
}

// NumRows returns the number of rows in the row group.
func (g *RowGroup) NumRows() int64 { return g.meta.NumRows }

// Columns returns the column chunks of the row group, in schema order.
func (g *RowGroup) Columns() []*ColumnChunk { return g.columns }

// TotalByteSize returns the uncompressed size of the row group.
func (g *RowGroup) TotalByteSize() int64 { return g.meta.TotalByteSize }

// TotalCompressedSize returns the size of the row group in the file.
func (g *RowGroup) TotalCompressedSize() int64 { return g.meta.TotalCompressedSize }

// Ordinal returns the position of the row group in the file.
func (g *RowGroup) Ordinal() int { return int(g.meta.Ordinal) }
