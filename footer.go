package parquet

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"github.com/segmentio/encoding/thrift"
	"github.com/segmentio/parquet-engine/format"
)

// footerTrailerSize is the size of the metadata length and trailing magic.
const footerTrailerSize = 8

// EncodeFooter writes the footer of a file to w: the thrift compact encoding
// of the metadata, its 4 bytes little-endian length, and the magic marker.
// It returns the number of bytes written.
func EncodeFooter(w io.Writer, metadata *format.FileMetaData) (int64, error) {
	footer, err := thrift.Marshal(new(thrift.CompactProtocol), metadata)
	if err != nil {
		return 0, fmt.Errorf("encoding file metadata: %w", err)
	}
	length := len(footer)
	footer = binary.LittleEndian.AppendUint32(footer, uint32(length))
	footer = append(footer, magic...)
	n, err := w.Write(footer)
	return int64(n), err
}

// DecodeFooter reads and validates the footer of the file of the given size.
//
// The method requires the magic marker at both ends of the file, a metadata
// length fitting in the file, metadata that parses, and a row group layout
// consistent with the schema. Any violation is reported with an error
// wrapping ErrCorruptedFooter, and no metadata is returned.
func DecodeFooter(r io.ReaderAt, size int64) (*FileMetadata, error) {
	metadata, err := decodeFooter(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedFooter, err)
	}
	return metadata, nil
}

func decodeFooter(r io.ReaderAt, size int64) (*FileMetadata, error) {
	if size < int64(len(magic))+footerTrailerSize {
		return nil, fmt.Errorf("file of size %d is too short to be a parquet file", size)
	}

	var head [len(magic)]byte
	if _, err := r.ReadAt(head[:], 0); err != nil {
		return nil, fmt.Errorf("reading magic header: %w", err)
	}
	if string(head[:]) != magic {
		return nil, fmt.Errorf("invalid magic header: %q", head[:])
	}

	length, err := readTrailer(io.NewSectionReader(r, size-footerTrailerSize, footerTrailerSize))
	if err != nil {
		return nil, err
	}
	dataEnd := size - footerTrailerSize - int64(length)
	if dataEnd < int64(len(magic)) {
		return nil, fmt.Errorf("metadata length %d overflows file of size %d", length, size)
	}

	data := make([]byte, length)
	if _, err := r.ReadAt(data, dataEnd); err != nil {
		return nil, fmt.Errorf("reading file metadata: %w", err)
	}
	var meta format.FileMetaData
	if err := thrift.Unmarshal(new(thrift.CompactProtocol), data, &meta); err != nil {
		return nil, fmt.Errorf("decoding file metadata: %w", err)
	}
	return newFileMetadata(&meta, dataEnd)
}

// readTrailer reads the metadata length and the trailing magic marker.
func readTrailer(r io.ReadSeeker) (uint32, error) {
	stream := kaitai.NewStream(r)
	length, err := stream.ReadU4le()
	if err != nil {
		return 0, fmt.Errorf("reading metadata length: %w", err)
	}
	tail, err := stream.ReadBytes(len(magic))
	if err != nil {
		return 0, fmt.Errorf("reading magic footer: %w", err)
	}
	if string(tail) != magic {
		return 0, fmt.Errorf("invalid magic footer: %q", tail)
	}
	return length, nil
}

// newFileMetadata validates the decoded footer against the file layout, pages
// being stored between the magic header and dataEnd.
func newFileMetadata(meta *format.FileMetaData, dataEnd int64) (*FileMetadata, error) {
	schema, err := schemaFromElements(meta.Schema)
	if err != nil {
		return nil, err
	}
	m := &FileMetadata{
		schema:    schema,
		meta:      *meta,
		rowGroups: make([]*RowGroup, len(meta.RowGroups)),
	}

	numRows := int64(0)
	for i := range meta.RowGroups {
		g := &meta.RowGroups[i]
		if g.NumRows < 0 {
			return nil, fmt.Errorf("row group %d has %d rows", i, g.NumRows)
		}
		if len(g.Columns) != schema.NumColumns() {
			return nil, fmt.Errorf("row group %d has %d column chunks but the schema has %d columns", i, len(g.Columns), schema.NumColumns())
		}
		group := &RowGroup{meta: *g, columns: make([]*ColumnChunk, len(g.Columns))}
		for j := range g.Columns {
			chunk, err := newColumnChunk(schema.Column(j), &g.Columns[j], g.NumRows, dataEnd)
			if err != nil {
				return nil, fmt.Errorf("row group %d: %w", i, err)
			}
			group.columns[j] = chunk
		}
		numRows += g.NumRows
		m.rowGroups[i] = group
	}
	if numRows != meta.NumRows {
		return nil, fmt.Errorf("row groups hold %d rows but the file declares %d", numRows, meta.NumRows)
	}
	return m, nil
}

func newColumnChunk(column *Column, c *format.ColumnChunk, numRows, dataEnd int64) (*ColumnChunk, error) {
	md := &c.MetaData
	if !equalPaths(md.PathInSchema, column.Path()) {
		return nil, fmt.Errorf("column chunk path %q does not match schema column %q", md.PathInSchema, column.Path())
	}
	if Kind(md.Type) != column.Type().Kind() {
		return nil, fmt.Errorf("column chunk %s has type %s but the schema declares %s", column, md.Type, column.Type().Kind())
	}
	if md.NumValues < numRows || md.TotalCompressedSize < 0 {
		return nil, fmt.Errorf("column chunk %s declares %d values and %d bytes for %d rows", column, md.NumValues, md.TotalCompressedSize, numRows)
	}
	// offset 0 holds the magic, no page can start there
	chunk := &ColumnChunk{column: column, meta: *c, numRows: numRows, hasDictionary: md.DictionaryPageOffset != 0}
	start := chunk.offset()
	if start < int64(len(magic)) || start > dataEnd || md.TotalCompressedSize > dataEnd-start {
		return nil, fmt.Errorf("column chunk %s at offset %d of size %d is outside of the data region [%d:%d]", column, start, md.TotalCompressedSize, len(magic), dataEnd)
	}
	if md.DictionaryPageOffset != 0 && md.DataPageOffset < md.DictionaryPageOffset {
		return nil, fmt.Errorf("column chunk %s has its data pages before its dictionary page", column)
	}
	stats, err := statisticsFromFormat(column.Type(), &md.Statistics)
	if err != nil {
		return nil, fmt.Errorf("column chunk %s: statistics: %w", column, err)
	}
	chunk.stats = stats
	return chunk, nil
}
