package parquet

import (
	"fmt"
	"io"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/segmentio/parquet-engine/compress"
	"github.com/segmentio/parquet-engine/format"
)

type columnWriterState int8

const (
	columnWriterUnopened columnWriterState = iota
	columnWriterWriting
	columnWriterClosed
)

// ColumnWriter encodes the values of one leaf column into the pages of a
// column chunk.
//
// Values are buffered until a row boundary is reached with enough rows or
// bytes to fill a page. While dictionary encoding is active, data pages are
// held in memory so the dictionary page can be written before them; they are
// emitted when the dictionary falls back to plain encoding, or when the
// writer is closed.
//
// Errors are sticky: once a call failed, every following call returns the
// same error and no column chunk is produced.
type ColumnWriter struct {
	column *Column
	config *WriterConfig
	sink   io.Writer
	offset int64
	state  columnWriterState
	err    error

	codec    compress.Codec
	values   *valueCodec
	encoding Encoding
	dict     *dictionary
	pending  []*page

	repetitionLevels []uint8
	definitionLevels []uint8
	pageValues       []Value
	pageIndexes      []int32
	pageNumValues    int
	pageRows         int
	pageSize         int64
	pageStats        *statisticsBuilder
	payload          []byte
	scratch          []byte

	stats                *statisticsBuilder
	numValues            int64
	numRows              int64
	written              int64
	totalUncompressed    int64
	dataPageOffset       int64
	dictionaryPageOffset int64
	hasDictionary        bool
	encodings            []format.Encoding
	encodingStats        []format.PageEncodingStats
}

// NewColumnWriter creates a writer of the pages of column to sink. offset is
// the position in the file of the first byte written to sink, it is used to
// compute the page offsets recorded in the column chunk.
//
// Columns are dictionary encoded unless they hold booleans, or their node was
// configured with a non-dictionary encoding by Encoded. Pages are compressed
// with the codec configured on the column node, or the Compression option.
func NewColumnWriter(column *Column, sink io.Writer, offset int64, options ...WriterOption) (*ColumnWriter, error) {
	config := DefaultWriterConfig()
	config.Apply(options...)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newColumnWriter(column, sink, offset, config)
}

func newColumnWriter(column *Column, sink io.Writer, offset int64, config *WriterConfig) (*ColumnWriter, error) {
	kind := column.Type().Kind()
	values, err := valueCodecOf(kind)
	if err != nil {
		return nil, err
	}
	w := &ColumnWriter{
		column:         column,
		config:         config,
		sink:           sink,
		offset:         offset,
		codec:          config.Compression,
		values:         values,
		encoding:       Plain,
		stats:          newStatisticsBuilder(column.Type(), true),
		dataPageOffset: -1,
	}
	if codec := column.Compression(); codec != nil {
		w.codec = codec
	}

	useDictionary := kind != Boolean
	if enc := column.Encoding(); enc != nil {
		useDictionary = isDictionaryEncoding(enc.Encoding())
		if !useDictionary {
			w.encoding = enc
		}
	}
	if useDictionary {
		w.dict = newDictionary(kind, column.Type().Length())
	}
	w.stats.maxDistinct = config.DictionaryFallbackThreshold
	if config.DataPageStatistics {
		w.pageStats = newStatisticsBuilder(column.Type(), false)
	}
	if column.MaxRepetitionLevel() > 0 || column.MaxDefinitionLevel() > 0 {
		w.addEncoding(format.RLE)
	}
	return w, nil
}

// Column returns the descriptor of the column written by w.
func (w *ColumnWriter) Column() *Column { return w.column }

// NumRows returns the number of rows written so far.
func (w *ColumnWriter) NumRows() int64 { return w.numRows }

// NumValues returns the number of values written so far, nulls included.
func (w *ColumnWriter) NumValues() int64 { return w.numValues }

// size estimates the size of the column chunk if it was closed now.
func (w *ColumnWriter) size() int64 {
	size := w.written + w.pageSize
	for _, p := range w.pending {
		size += int64(len(p.data))
	}
	if w.dict != nil {
		size += w.dict.size
	}
	return size
}

// WriteValues writes values to the column. Values carry their repetition and
// definition levels; a value with a repetition level of zero starts a new row.
//
// The method returns an error wrapping ErrLevelOverflow if a level exceeds
// the column maximum, or ErrTypeMismatch if a value does not match the
// column type or its definition level. Values are validated before any of
// them is written.
func (w *ColumnWriter) WriteValues(values []Value) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.state == columnWriterClosed {
		return 0, fmt.Errorf("writing values to column %s: %w", w.column, ErrClosed)
	}
	if err := w.validate(values); err != nil {
		w.err = err
		return 0, err
	}
	w.state = columnWriterWriting

	for i, v := range values {
		if v.repetitionLevel == 0 {
			if w.pageNumValues > 0 {
				if err := w.rowBoundary(); err != nil {
					w.err = err
					return i, err
				}
			}
			w.pageRows++
			w.numRows++
		}
		w.writeValue(v)
	}
	return len(values), nil
}

func (w *ColumnWriter) validate(values []Value) error {
	maxRep := w.column.MaxRepetitionLevel()
	maxDef := w.column.MaxDefinitionLevel()
	typ := w.column.Type()
	started := w.numValues > 0

	for _, v := range values {
		if c := v.Column(); c >= 0 && c != w.column.Index() {
			return fmt.Errorf("%w: value of column %d written to column %d (%s)", ErrTypeMismatch, c, w.column.Index(), w.column)
		}
		if v.RepetitionLevel() > maxRep {
			return fmt.Errorf("%w: repetition level %d above maximum %d of column %s", ErrLevelOverflow, v.RepetitionLevel(), maxRep, w.column)
		}
		if v.DefinitionLevel() > maxDef {
			return fmt.Errorf("%w: definition level %d above maximum %d of column %s", ErrLevelOverflow, v.DefinitionLevel(), maxDef, w.column)
		}
		if !started && v.RepetitionLevel() != 0 {
			return fmt.Errorf("%w: first value of column %s has repetition level %d", ErrLevelOverflow, w.column, v.RepetitionLevel())
		}
		started = true

		if v.IsNull() {
			if v.DefinitionLevel() == maxDef {
				return fmt.Errorf("%w: null value at the maximum definition level of column %s", ErrTypeMismatch, w.column)
			}
			continue
		}
		if v.DefinitionLevel() != maxDef {
			return fmt.Errorf("%w: non-null value at definition level %d of column %s", ErrTypeMismatch, v.DefinitionLevel(), w.column)
		}
		if v.Kind() != typ.Kind() {
			return fmt.Errorf("%w: %s value written to %s column %s", ErrTypeMismatch, v.Kind(), typ.Kind(), w.column)
		}
		if typ.Kind() == FixedLenByteArray && len(v.ByteArray()) != typ.Length() {
			return fmt.Errorf("%w: value of length %d written to column %s of fixed length %d", ErrTypeMismatch, len(v.ByteArray()), w.column, typ.Length())
		}
	}
	return nil
}

func (w *ColumnWriter) writeValue(v Value) {
	if w.column.MaxRepetitionLevel() > 0 {
		w.repetitionLevels = append(w.repetitionLevels, v.repetitionLevel)
	}
	if w.column.MaxDefinitionLevel() > 0 {
		w.definitionLevels = append(w.definitionLevels, v.definitionLevel)
	}
	w.pageNumValues++
	w.numValues++
	w.stats.observe(v)
	if w.pageStats != nil {
		w.pageStats.observe(v)
	}
	if v.IsNull() {
		return
	}
	w.pageSize += v.size()
	if w.dict != nil {
		w.pageIndexes = append(w.pageIndexes, w.dict.insert(v))
	} else {
		w.pageValues = append(w.pageValues, v.Clone())
	}
}

// rowBoundary is called before a new row starts in a page holding values.
func (w *ColumnWriter) rowBoundary() error {
	if w.dict != nil && (w.dict.Len() > w.config.DictionaryFallbackThreshold || w.dict.size > int64(w.config.DictionaryPageSizeLimit)) {
		if err := w.flushPage(); err != nil {
			return err
		}
		return w.fallback()
	}
	if w.pageSize >= int64(w.config.PageBufferSize) || w.pageRows >= w.config.PageRowLimit {
		return w.flushPage()
	}
	return nil
}

// fallback writes the dictionary and the pages referencing it, then switches
// the rest of the chunk to the plain encoding.
func (w *ColumnWriter) fallback() error {
	level.Debug(w.config.Logger).Log(
		"msg", "falling back from dictionary encoding",
		"column", w.column,
		"distinct_values", w.dict.Len(),
		"dictionary_size", humanize.IBytes(uint64(w.dict.size)),
	)
	if err := w.flushDictionary(); err != nil {
		return err
	}
	w.dict = nil
	w.encoding = Plain
	w.stats.dropDistinctCount()
	w.config.Metrics.dictionaryFallback()
	return nil
}

func (w *ColumnWriter) flushDictionary() error {
	p, err := newDictionaryPage(w.codec, w.dict, w.config.PageChecksums)
	if err != nil {
		return err
	}
	if err := w.writePage(p); err != nil {
		return err
	}
	for i, p := range w.pending {
		if err := w.writePage(p); err != nil {
			return err
		}
		w.pending[i] = nil
	}
	w.pending = w.pending[:0]
	return nil
}

// flushPage encodes the buffered values into a data page.
func (w *ColumnWriter) flushPage() error {
	if w.pageNumValues == 0 {
		return nil
	}
	var err error
	payload := w.payload[:0]
	if maxRep := w.column.MaxRepetitionLevel(); maxRep > 0 {
		if payload, err = appendLevels(payload, w.repetitionLevels, maxRep); err != nil {
			return fmt.Errorf("encoding repetition levels of column %s: %w", w.column, err)
		}
	}
	if maxDef := w.column.MaxDefinitionLevel(); maxDef > 0 {
		if payload, err = appendLevels(payload, w.definitionLevels, maxDef); err != nil {
			return fmt.Errorf("encoding definition levels of column %s: %w", w.column, err)
		}
	}

	var enc format.Encoding
	if w.dict != nil {
		enc = format.RLEDictionary
		w.scratch, err = RLEDictionary.EncodeInt32(w.scratch[:0], w.pageIndexes)
	} else {
		enc = w.encoding.Encoding()
		w.scratch, err = w.values.encode(w.encoding, w.scratch[:0], w.pageValues, w.column.Type().Length())
	}
	if err != nil {
		return fmt.Errorf("encoding values of column %s: %w", w.column, err)
	}
	payload = append(payload, w.scratch...)
	w.payload = payload

	var stats *Statistics
	if w.pageStats != nil {
		s := w.pageStats.statistics()
		stats = &s
		w.pageStats.reset()
	}
	p, err := newDataPage(w.codec, enc, w.pageNumValues, payload, stats, w.config.PageChecksums)
	if err != nil {
		return err
	}

	w.repetitionLevels = w.repetitionLevels[:0]
	w.definitionLevels = w.definitionLevels[:0]
	clear(w.pageValues)
	w.pageValues = w.pageValues[:0]
	w.pageIndexes = w.pageIndexes[:0]
	w.pageNumValues = 0
	w.pageRows = 0
	w.pageSize = 0

	if w.dict != nil {
		w.pending = append(w.pending, p)
		return nil
	}
	return w.writePage(p)
}

func (w *ColumnWriter) writePage(p *page) error {
	offset := w.offset + w.written
	size, headerSize, err := p.writeTo(w.sink)
	w.written += size
	if err != nil {
		return fmt.Errorf("writing page of column %s: %w", w.column, err)
	}
	switch p.header.Type {
	case format.DictionaryPage:
		w.dictionaryPageOffset = offset
		w.hasDictionary = true
		w.addEncoding(format.Plain)
	default:
		if w.dataPageOffset < 0 {
			w.dataPageOffset = offset
		}
		w.addEncoding(p.encoding())
	}
	w.totalUncompressed += headerSize + int64(p.header.UncompressedPageSize)
	w.addEncodingStats(p.header.Type, p.encoding())
	w.config.Metrics.pageWritten(p.header.Type, size)
	return nil
}

func (w *ColumnWriter) addEncoding(enc format.Encoding) {
	if i, found := slices.BinarySearch(w.encodings, enc); !found {
		w.encodings = slices.Insert(w.encodings, i, enc)
	}
}

func (w *ColumnWriter) addEncodingStats(pageType format.PageType, enc format.Encoding) {
	for i := range w.encodingStats {
		if s := &w.encodingStats[i]; s.PageType == pageType && s.Encoding == enc {
			s.Count++
			return
		}
	}
	w.encodingStats = append(w.encodingStats, format.PageEncodingStats{
		PageType: pageType,
		Encoding: enc,
		Count:    1,
	})
}

// Close flushes the buffered values and returns the column chunk describing
// the pages written to the sink.
func (w *ColumnWriter) Close() (*ColumnChunk, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.state == columnWriterClosed {
		return nil, fmt.Errorf("closing writer of column %s: %w", w.column, ErrClosed)
	}
	if err := w.flushPage(); err != nil {
		w.err = err
		return nil, err
	}
	if w.dict != nil && (w.dict.Len() > 0 || len(w.pending) > 0) {
		if err := w.flushDictionary(); err != nil {
			w.err = err
			return nil, err
		}
	}
	w.state = columnWriterClosed

	dataPageOffset := w.dataPageOffset
	if dataPageOffset < 0 {
		dataPageOffset = w.offset + w.written
	}
	fileOffset := dataPageOffset
	if w.hasDictionary {
		fileOffset = w.dictionaryPageOffset
	}
	stats := w.stats.statistics()
	return &ColumnChunk{
		column:        w.column,
		stats:         stats,
		numRows:       w.numRows,
		hasDictionary: w.hasDictionary,
		meta: format.ColumnChunk{
			FileOffset: fileOffset,
			MetaData: format.ColumnMetaData{
				Type:                  format.Type(w.column.Type().Kind()),
				Encoding:              slices.Clone(w.encodings),
				PathInSchema:          w.column.Path(),
				Codec:                 w.codec.CompressionCodec(),
				NumValues:             w.numValues,
				TotalUncompressedSize: w.totalUncompressed,
				TotalCompressedSize:   w.written,
				DataPageOffset:        dataPageOffset,
				DictionaryPageOffset:  w.dictionaryPageOffset,
				Statistics:            stats.toFormat(),
				EncodingStats:         slices.Clone(w.encodingStats),
			},
		},
	}, nil
}
