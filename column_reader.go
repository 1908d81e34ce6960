package parquet

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/log/level"
	"github.com/segmentio/parquet-engine/encoding"
	"github.com/segmentio/parquet-engine/format"
)

type columnReaderState int8

const (
	columnReaderUnopened columnReaderState = iota
	columnReaderReading
	columnReaderExhausted
)

// ColumnReader decodes the values of a column chunk.
//
// The chunk is loaded when the first value is read; the dictionary page is
// decoded first, data pages one at a time as values are consumed. Values are
// returned with their repetition and definition levels and the column index.
//
// Decoding failures are scoped to the column: the reader returns the same
// error on every following call, other columns of the row group are not
// affected.
type ColumnReader struct {
	chunk  *ColumnChunk
	column *Column
	config *ReaderConfig
	state  columnReaderState
	err    error

	pages     *pageReader
	dict      *dictionary
	values    *valueCodec
	pageIndex int

	page       *dataPage
	pageValues []Value
	levelIndex int
	valueIndex int

	numValues int64
	numRows   int64
}

// NewColumnReader creates a reader of the values of a column chunk obtained
// from an opened file.
func NewColumnReader(chunk *ColumnChunk) *ColumnReader {
	config := chunk.config
	if config == nil {
		config = DefaultReaderConfig()
	}
	return &ColumnReader{
		chunk:  chunk,
		column: chunk.column,
		config: config,
	}
}

// Column returns the descriptor of the column read by r.
func (r *ColumnReader) Column() *Column { return r.column }

// PageIndex returns the number of data pages decoded so far.
func (r *ColumnReader) PageIndex() int { return r.pageIndex }

// ReadValues reads values into the given slice, returning the number of
// values read. It returns io.EOF once every value of the chunk was read.
func (r *ColumnReader) ReadValues(values []Value) (int, error) {
	for i := range values {
		v, err := r.next()
		if err != nil {
			return i, err
		}
		values[i] = v
	}
	return len(values), nil
}

// ReadRow appends the values of the next row of the column to row. It returns
// io.EOF when there are no more rows.
func (r *ColumnReader) ReadRow(row Row) (Row, error) {
	v, err := r.next()
	if err != nil {
		return row, err
	}
	row = append(row, v)
	for {
		v, err := r.peek()
		if err == io.EOF || (err == nil && v.repetitionLevel == 0) {
			return row, nil
		}
		if err != nil {
			return row, err
		}
		row = append(row, v)
		r.advance(v)
	}
}

func (r *ColumnReader) next() (Value, error) {
	v, err := r.peek()
	if err == nil {
		r.advance(v)
	}
	return v, err
}

func (r *ColumnReader) peek() (Value, error) {
	if r.err != nil {
		return Value{}, r.err
	}
	for r.page == nil || r.levelIndex == r.page.numValues {
		if r.state == columnReaderExhausted {
			return Value{}, io.EOF
		}
		if err := r.readPage(); err != nil {
			if err == io.EOF {
				if err = r.finish(); err == nil {
					r.state = columnReaderExhausted
					return Value{}, io.EOF
				}
			}
			return Value{}, r.fail(err)
		}
	}

	rep, def := 0, 0
	if r.page.repetitionLevels != nil {
		rep = int(r.page.repetitionLevels[r.levelIndex])
	}
	if r.page.definitionLevels != nil {
		def = int(r.page.definitionLevels[r.levelIndex])
	}
	if r.numValues == 0 && rep != 0 {
		return Value{}, r.fail(fmt.Errorf("%w: first value of column %s has repetition level %d", ErrCorruptedPage, r.column, rep))
	}
	var v Value
	if def == r.column.MaxDefinitionLevel() {
		v = r.pageValues[r.valueIndex]
	}
	return v.Level(rep, def, r.column.Index()), nil
}

func (r *ColumnReader) advance(v Value) {
	if !v.IsNull() {
		r.valueIndex++
	}
	if v.repetitionLevel == 0 {
		r.numRows++
	}
	r.levelIndex++
	r.numValues++
}

func (r *ColumnReader) fail(err error) error {
	err = fmt.Errorf("reading column %s: %w", r.column, err)
	r.err = err
	r.config.Metrics.columnReadError()
	level.Warn(r.config.Logger).Log("msg", "column chunk decoding failed", "column", r.column, "page", r.pageIndex, "err", err)
	return err
}

func (r *ColumnReader) open() error {
	if r.chunk.reader == nil {
		return fmt.Errorf("column chunk of %s is not backed by a file", r.column)
	}
	codec, err := LookupCompressionCodec(r.chunk.Codec())
	if err != nil {
		return err
	}
	if r.values, err = valueCodecOf(r.column.Type().Kind()); err != nil {
		return err
	}
	data, err := r.chunk.readData()
	if err != nil {
		return fmt.Errorf("reading column chunk: %w", err)
	}
	r.pages = newPageReader(r.column, codec, data, r.config)
	r.state = columnReaderReading
	return nil
}

// readPage moves to the next data page of the chunk, loading the dictionary
// page if it comes first.
func (r *ColumnReader) readPage() error {
	if r.state == columnReaderUnopened {
		if err := r.open(); err != nil {
			return err
		}
	}
	for {
		header, data, err := r.pages.readPage()
		if err != nil {
			return err
		}
		switch header.Type {
		case format.DictionaryPage:
			if r.dict != nil || r.pageIndex > 0 {
				return fmt.Errorf("%w: unexpected dictionary page at offset %d", ErrCorruptedPage, r.pages.offset())
			}
			if r.dict, err = r.pages.decodeDictionaryPage(header, data); err != nil {
				return err
			}
		case format.DataPage, format.DataPageV2:
			page, err := r.pages.decodeDataPage(header, data)
			if err != nil {
				return err
			}
			if err := r.decodeValues(page); err != nil {
				return err
			}
			r.page = page
			r.pageIndex++
			r.levelIndex = 0
			r.valueIndex = 0
			return nil
		}
	}
}

func (r *ColumnReader) decodeValues(page *dataPage) error {
	numValues := page.numValues
	if page.definitionLevels != nil {
		numValues = 0
		maxDef := uint8(r.column.MaxDefinitionLevel())
		for _, def := range page.definitionLevels {
			if def == maxDef {
				numValues++
			}
		}
	}

	values := r.pageValues[:0]
	if isDictionaryEncoding(page.encoding) {
		if r.dict == nil {
			return fmt.Errorf("%w: dictionary encoded page without dictionary", ErrCorruptedPage)
		}
		indexes, err := RLEDictionary.DecodeInt32(nil, page.values)
		if err != nil {
			return fmt.Errorf("%w: decoding dictionary indexes: %w", ErrCorruptedPage, err)
		}
		if len(indexes) < numValues {
			return fmt.Errorf("%w: page holds %d dictionary indexes but %d non-null values", ErrCorruptedPage, len(indexes), numValues)
		}
		if values, err = r.dict.lookup(values, indexes[:numValues]); err != nil {
			return err
		}
	} else {
		enc, err := LookupEncoding(page.encoding)
		if err != nil {
			return err
		}
		values, err = r.values.decode(enc, values, page.values, r.column.Type().Length())
		if err != nil {
			if errors.Is(err, encoding.ErrNotSupported) {
				return fmt.Errorf("%w: %s values of column %s: %w", ErrUnsupportedEncoding, enc, r.column, err)
			}
			return fmt.Errorf("%w: decoding %s values: %w", ErrCorruptedPage, enc, err)
		}
		if len(values) < numValues {
			return fmt.Errorf("%w: page holds %d values but %d non-null values", ErrCorruptedPage, len(values), numValues)
		}
		values = values[:numValues]
	}
	r.pageValues = values
	return nil
}

// finish validates the counts of the chunk once its pages are exhausted.
func (r *ColumnReader) finish() error {
	if r.numValues != r.chunk.NumValues() {
		return fmt.Errorf("%w: column chunk holds %d values but its metadata declares %d", ErrCorruptedPage, r.numValues, r.chunk.NumValues())
	}
	if r.numRows != r.chunk.NumRows() {
		return fmt.Errorf("%w: column chunk holds %d rows but its row group has %d", ErrIncompleteRowGroup, r.numRows, r.chunk.NumRows())
	}
	return nil
}
