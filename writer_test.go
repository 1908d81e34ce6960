package parquet_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/segmentio/parquet-engine"
	"github.com/segmentio/parquet-engine/compress"
	"github.com/segmentio/parquet-engine/deprecated"
	"github.com/segmentio/parquet-engine/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeBuffer(t testing.TB, schema *parquet.Schema, records []map[string]interface{}, options ...parquet.WriterOption) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w, err := parquet.NewWriter(buf, schema, options...)
	require.NoError(t, err)
	for _, record := range records {
		require.NoError(t, w.Write(record))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func openBuffer(t testing.TB, data []byte, options ...parquet.ReaderOption) *parquet.File {
	t.Helper()
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)), options...)
	require.NoError(t, err)
	return f
}

func writeFile(t testing.TB, schema *parquet.Schema, records []map[string]interface{}, options ...parquet.WriterOption) *parquet.File {
	t.Helper()
	return openBuffer(t, writeBuffer(t, schema, records, options...))
}

func readAll(t testing.TB, f *parquet.File) []map[string]interface{} {
	t.Helper()
	r := parquet.NewReader(f)
	records := []map[string]interface{}{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records
		}
		require.NoError(t, err)
		records = append(records, record)
	}
}

func allTypesSchema(t testing.TB) *parquet.Schema {
	return mustSchema(t, parquet.Group{
		parquet.NewField("boolean", parquet.Required(parquet.Leaf(parquet.BooleanType))),
		parquet.NewField("int32", parquet.Required(parquet.Leaf(parquet.Int32Type))),
		parquet.NewField("int64", parquet.Required(parquet.Leaf(parquet.Int64Type))),
		parquet.NewField("int96", parquet.Required(parquet.Leaf(parquet.Int96Type))),
		parquet.NewField("float", parquet.Required(parquet.Leaf(parquet.FloatType))),
		parquet.NewField("double", parquet.Required(parquet.Leaf(parquet.DoubleType))),
		parquet.NewField("bytes", parquet.Required(parquet.Leaf(parquet.ByteArrayType))),
		parquet.NewField("fixed", parquet.Required(parquet.Leaf(parquet.FixedLenByteArrayType(3)))),
		parquet.NewField("optional", parquet.Optional(parquet.String())),
		parquet.NewField("list", parquet.Optional(parquet.List(parquet.Optional(parquet.Leaf(parquet.Int64Type))))),
	})
}

func allTypesRecords(n int) []map[string]interface{} {
	records := make([]map[string]interface{}, n)
	for i := range records {
		var optional interface{}
		if i%3 != 0 {
			optional = fmt.Sprintf("value-%d", i%7)
		}
		var list interface{}
		switch i % 4 {
		case 0:
			list = nil
		case 1:
			list = []interface{}{}
		case 2:
			list = []interface{}{int64(i), nil}
		default:
			list = []interface{}{int64(i), int64(-i), int64(2 * i)}
		}
		records[i] = map[string]interface{}{
			"boolean":  i%2 == 0,
			"int32":    int32(i - n/2),
			"int64":    int64(i) << 33,
			"int96":    deprecated.Int64ToInt96(int64(i) * -1000),
			"float":    float32(i) / 4,
			"double":   float64(i) * 1.5,
			"bytes":    []byte(fmt.Sprintf("bytes-%d", i%11)),
			"fixed":    []byte{byte(i), byte(i >> 8), 0xFF},
			"optional": optional,
			"list":     list,
		}
	}
	return records
}

func TestWriterRoundTrip(t *testing.T) {
	schema := allTypesSchema(t)
	records := allTypesRecords(1000)

	f := writeFile(t, schema, records)
	assert.Equal(t, int64(1000), f.Metadata().NumRows())
	assert.Equal(t, records, readAll(t, f))
}

func TestWriterNestedOptionalList(t *testing.T) {
	tests := []struct {
		scenario string
		typ      parquet.Type
		values   [3]interface{}
	}{
		{"boolean", parquet.BooleanType, [3]interface{}{true, false, true}},
		{"int32", parquet.Int32Type, [3]interface{}{int32(-1), int32(0), int32(1 << 20)}},
		{"int64", parquet.Int64Type, [3]interface{}{int64(-1) << 40, int64(0), int64(7)}},
		{"int96", parquet.Int96Type, [3]interface{}{deprecated.Int64ToInt96(-3), deprecated.Int64ToInt96(0), deprecated.Int64ToInt96(1 << 50)}},
		{"float", parquet.FloatType, [3]interface{}{float32(-0.5), float32(0), float32(3.25)}},
		{"double", parquet.DoubleType, [3]interface{}{-1e100, 0.0, 2.5}},
		{"byte array", parquet.ByteArrayType, [3]interface{}{[]byte("a"), []byte("b"), []byte("hello")}},
		{"fixed len byte array", parquet.FixedLenByteArrayType(3), [3]interface{}{[]byte("abc"), []byte{0, 0, 0}, []byte("xyz")}},
	}

	options := map[string][]parquet.WriterOption{
		"default": nil,
		"small pages": {parquet.PageRowLimit(4), parquet.Compression(parquet.Gzip)},
	}

	for _, test := range tests {
		schema := mustSchema(t, parquet.Group{
			parquet.NewField("outer", parquet.Optional(parquet.Group{
				parquet.NewField("inner", parquet.Optional(parquet.List(parquet.Optional(parquet.Leaf(test.typ))))),
			})),
		})
		column := schema.Column(0)
		assert.Equal(t, []string{"outer", "inner", "list", "element"}, column.Path())
		assert.Equal(t, 1, column.MaxRepetitionLevel())
		assert.Equal(t, 4, column.MaxDefinitionLevel())

		v0, v1, v2 := test.values[0], test.values[1], test.values[2]
		inner := func(list interface{}) map[string]interface{} {
			return map[string]interface{}{"outer": map[string]interface{}{"inner": list}}
		}
		var records []map[string]interface{}
		for i := 0; i < 3; i++ {
			records = append(records,
				map[string]interface{}{"outer": nil},
				inner(nil),
				inner([]interface{}{}),
				inner([]interface{}{v0, nil}),
				inner([]interface{}{nil}),
				inner([]interface{}{v1, v2, nil, v0}),
			)
		}

		for name, opts := range options {
			t.Run(test.scenario+"/"+name, func(t *testing.T) {
				f := writeFile(t, schema, records, opts...)
				chunk := f.Metadata().RowGroups()[0].Columns()[0]
				assert.Equal(t, int64(len(records)), chunk.NumRows())
				assert.Equal(t, int64(3*(1+1+1+2+1+4)), chunk.NumValues())
				assert.Equal(t, int64(3*(1+1+1+1+1+1)), chunk.Statistics().NullCount())
				assert.Equal(t, records, readAll(t, f))
			})
		}
	}
}

func TestWriterCompressionCodecs(t *testing.T) {
	codecs := []compress.Codec{
		parquet.Uncompressed,
		parquet.Snappy,
		parquet.Gzip,
		parquet.Brotli,
		parquet.Zstd,
		parquet.Lz4Raw,
	}

	schema := allTypesSchema(t)
	records := allTypesRecords(300)

	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			f := writeFile(t, schema, records, parquet.Compression(codec), parquet.PageRowLimit(50))
			for _, g := range f.Metadata().RowGroups() {
				for _, c := range g.Columns() {
					assert.Equal(t, codec.CompressionCodec(), c.Codec())
				}
			}
			assert.Equal(t, records, readAll(t, f))
		})
	}
}

func TestWriterColumnCompression(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Compressed(parquet.Required(parquet.String()), parquet.Zstd)),
		parquet.NewField("b", parquet.Required(parquet.String())),
	})
	records := []map[string]interface{}{{"a": "x", "b": "y"}, {"a": "z", "b": "w"}}

	f := writeFile(t, schema, records, parquet.Compression(parquet.Snappy))
	columns := f.Metadata().RowGroups()[0].Columns()
	assert.Equal(t, format.Zstd, columns[0].Codec())
	assert.Equal(t, format.Snappy, columns[1].Codec())
	assert.Equal(t, records, readAll(t, f))
}

func TestWriterEncodings(t *testing.T) {
	tests := []struct {
		scenario string
		node     parquet.Node
		encoding format.Encoding
		values   []interface{}
	}{
		{
			scenario: "plain int64",
			node:     parquet.Encoded(parquet.Leaf(parquet.Int64Type), parquet.Plain),
			encoding: format.Plain,
			values:   []interface{}{int64(1), int64(-2), int64(1 << 40)},
		},
		{
			scenario: "delta binary packed int32",
			node:     parquet.Encoded(parquet.Leaf(parquet.Int32Type), parquet.DeltaBinaryPacked),
			encoding: format.DeltaBinaryPacked,
			values:   []interface{}{int32(10), int32(11), int32(9), int32(-100), int32(1 << 30)},
		},
		{
			scenario: "delta binary packed int64",
			node:     parquet.Encoded(parquet.Leaf(parquet.Int64Type), parquet.DeltaBinaryPacked),
			encoding: format.DeltaBinaryPacked,
			values:   []interface{}{int64(1) << 62, int64(-1) << 62, int64(0), int64(7)},
		},
		{
			scenario: "delta length byte array",
			node:     parquet.Encoded(parquet.String(), parquet.DeltaLengthByteArray),
			encoding: format.DeltaLengthByteArray,
			values:   []interface{}{"a", "", "abc", "hello world"},
		},
		{
			scenario: "delta byte array",
			node:     parquet.Encoded(parquet.String(), parquet.DeltaByteArray),
			encoding: format.DeltaByteArray,
			values:   []interface{}{"prefix-1", "prefix-2", "prefix-22", "other"},
		},
		{
			scenario: "rle boolean",
			node:     parquet.Encoded(parquet.Leaf(parquet.BooleanType), parquet.RLE),
			encoding: format.RLE,
			values:   []interface{}{true, true, true, false, true, false, false},
		},
		{
			scenario: "plain boolean",
			node:     parquet.Leaf(parquet.BooleanType),
			encoding: format.Plain,
			values:   []interface{}{false, true},
		},
		{
			scenario: "dictionary double",
			node:     parquet.Leaf(parquet.DoubleType),
			encoding: format.RLEDictionary,
			values:   []interface{}{1.0, 2.0, 1.0, 1.0},
		},
		{
			scenario: "forced dictionary",
			node:     parquet.Encoded(parquet.Leaf(parquet.FixedLenByteArrayType(2)), parquet.RLEDictionary),
			encoding: format.RLEDictionary,
			values:   []interface{}{[]byte("ab"), []byte("cd"), []byte("ab")},
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			schema := mustSchema(t, parquet.Group{parquet.NewField("v", parquet.Required(test.node))})
			records := make([]map[string]interface{}, len(test.values))
			for i, v := range test.values {
				records[i] = map[string]interface{}{"v": v}
			}

			f := writeFile(t, schema, records)
			chunk := f.Metadata().RowGroups()[0].Columns()[0]
			assert.Contains(t, chunk.Encodings(), test.encoding)
			if test.encoding == format.RLEDictionary {
				_, ok := chunk.DictionaryPageOffset()
				assert.True(t, ok)
			}
			assert.Equal(t, records, readAll(t, f))
		})
	}
}

func TestEncodedNotApplicable(t *testing.T) {
	assert.Panics(t, func() { parquet.Encoded(parquet.Leaf(parquet.DoubleType), parquet.DeltaBinaryPacked) })
	assert.Panics(t, func() { parquet.Encoded(parquet.Leaf(parquet.BooleanType), parquet.RLEDictionary) })
	assert.Panics(t, func() { parquet.Encoded(parquet.Group{parquet.NewField("a", parquet.String())}, parquet.Plain) })
}

func TestDictionaryFallback(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("s", parquet.Required(parquet.String())),
	})
	records := make([]map[string]interface{}, 10000)
	for i := range records {
		records[i] = map[string]interface{}{"s": fmt.Sprintf("distinct-string-%05d", i)}
	}

	f := writeFile(t, schema, records, parquet.DictionaryFallbackThreshold(1000))
	chunk := f.Metadata().RowGroups()[0].Columns()[0]
	assert.Equal(t, []format.Encoding{format.Plain, format.RLEDictionary}, chunk.Encodings())

	offset, ok := chunk.DictionaryPageOffset()
	require.True(t, ok)
	assert.Less(t, offset, chunk.DataPageOffset())

	stats := chunk.Statistics()
	min, ok := stats.Min()
	require.True(t, ok)
	max, _ := stats.Max()
	assert.Equal(t, "distinct-string-00000", string(min.ByteArray()))
	assert.Equal(t, "distinct-string-09999", string(max.ByteArray()))
	_, ok = stats.DistinctCount()
	assert.False(t, ok, "distinct values are not counted past the fallback")

	assert.Equal(t, records, readAll(t, f))
}

func TestDictionaryPageOffset(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("v", parquet.Required(parquet.Leaf(parquet.Int32Type))),
	})
	records := []map[string]interface{}{{"v": int32(1)}, {"v": int32(2)}, {"v": int32(1)}}

	f := writeFile(t, schema, records)
	chunk := f.Metadata().RowGroups()[0].Columns()[0]
	offset, ok := chunk.DictionaryPageOffset()
	require.True(t, ok)
	assert.Equal(t, int64(4), offset, "the dictionary page follows the magic")
	assert.Greater(t, chunk.DataPageOffset(), offset)
	assert.Equal(t, records, readAll(t, f))

	buf := new(bytes.Buffer)
	w, err := parquet.NewColumnWriter(schema.Column(0), buf, 0)
	require.NoError(t, err)
	_, err = w.WriteValues([]parquet.Value{parquet.Int32Value(7).Level(0, 0, 0)})
	require.NoError(t, err)
	detached, err := w.Close()
	require.NoError(t, err)
	offset, ok = detached.DictionaryPageOffset()
	assert.True(t, ok, "a dictionary at the start of the sink is still a dictionary")
	assert.Equal(t, int64(0), offset)
}

func TestDictionaryFallbackPageSizeLimit(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("s", parquet.Required(parquet.Leaf(parquet.ByteArrayType))),
	})
	records := make([]map[string]interface{}, 200)
	for i := range records {
		records[i] = map[string]interface{}{"s": bytes.Repeat([]byte{byte(i)}, 100)}
	}

	f := writeFile(t, schema, records, parquet.DictionaryPageSizeLimit(1000))
	chunk := f.Metadata().RowGroups()[0].Columns()[0]
	assert.Contains(t, chunk.Encodings(), format.Plain)
	assert.Contains(t, chunk.Encodings(), format.RLEDictionary)
	_, ok := chunk.Statistics().DistinctCount()
	assert.False(t, ok, "the fallback stops distinct counting even below the threshold")
	assert.Equal(t, records, readAll(t, f))
}

func TestIncompleteRowGroup(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Required(parquet.Leaf(parquet.Int64Type))),
		parquet.NewField("b", parquet.Required(parquet.Leaf(parquet.Int64Type))),
	})

	buf := new(bytes.Buffer)
	w, err := parquet.NewWriter(buf, schema)
	require.NoError(t, err)
	rg, err := w.NewRowGroup()
	require.NoError(t, err)

	write := func(column, n int) {
		values := make([]parquet.Value, n)
		for i := range values {
			values[i] = parquet.Int64Value(int64(i)).Level(0, 0, column)
		}
		_, err := rg.Column(column).WriteValues(values)
		require.NoError(t, err)
	}
	write(0, 100)
	write(1, 99)

	err = rg.Close()
	assert.True(t, errors.Is(err, parquet.ErrIncompleteRowGroup), err)
	assert.True(t, errors.Is(w.Close(), parquet.ErrIncompleteRowGroup))

	data := buf.Bytes()
	assert.False(t, bytes.HasSuffix(data, []byte("PAR1")) && len(data) > 4, "no footer is written")
	_, err = parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	assert.True(t, errors.Is(err, parquet.ErrCorruptedFooter), err)
}

func TestWriterAbort(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Required(parquet.Leaf(parquet.Int64Type))),
	})
	buf := new(bytes.Buffer)
	w, err := parquet.NewWriter(buf, schema)
	require.NoError(t, err)

	require.NoError(t, w.Write(map[string]interface{}{"a": int64(1)}))

	err = w.WriteRow(parquet.Row{parquet.ByteArrayValue([]byte("x")).Level(0, 0, 0)})
	assert.True(t, errors.Is(err, parquet.ErrTypeMismatch), err)

	assert.Equal(t, err, w.Write(map[string]interface{}{"a": int64(2)}))
	assert.Equal(t, err, w.Close())
	assert.Zero(t, buf.Len())
}

func TestWriterInvalidRecord(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Required(parquet.Leaf(parquet.Int64Type))),
	})
	buf := new(bytes.Buffer)
	w, err := parquet.NewWriter(buf, schema)
	require.NoError(t, err)

	err = w.Write(map[string]interface{}{})
	assert.True(t, errors.Is(err, parquet.ErrTypeMismatch), err)

	require.NoError(t, w.Write(map[string]interface{}{"a": int64(1)}))
	require.NoError(t, w.Close())

	f := openBuffer(t, buf.Bytes())
	assert.Equal(t, []map[string]interface{}{{"a": int64(1)}}, readAll(t, f))
}

func TestWriterClosed(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Required(parquet.Leaf(parquet.Int64Type))),
	})
	w, err := parquet.NewWriter(new(bytes.Buffer), schema)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	err = w.Write(map[string]interface{}{"a": int64(1)})
	assert.True(t, errors.Is(err, parquet.ErrClosed), err)
}

func TestWriterEmptyFile(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Optional(parquet.String())),
	})
	f := writeFile(t, schema, nil)
	assert.Equal(t, 0, f.NumRowGroups())
	assert.Equal(t, int64(0), f.Metadata().NumRows())
	assert.Empty(t, readAll(t, f))
}

func TestWriterRowGroupTargetSize(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("v", parquet.Encoded(parquet.Required(parquet.Leaf(parquet.Int64Type)), parquet.Plain)),
	})
	records := make([]map[string]interface{}, 1000)
	for i := range records {
		records[i] = map[string]interface{}{"v": int64(i)}
	}

	f := writeFile(t, schema, records, parquet.RowGroupTargetSize(1024), parquet.PageRowLimit(16))
	assert.Greater(t, f.NumRowGroups(), 1)

	total := int64(0)
	for i, g := range f.Metadata().RowGroups() {
		assert.Equal(t, i, g.Ordinal())
		total += g.NumRows()
	}
	assert.Equal(t, int64(1000), total)
	assert.Equal(t, records, readAll(t, f))
}

func TestWriteColumns(t *testing.T) {
	defer goleak.VerifyNone(t)

	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Required(parquet.Leaf(parquet.Int64Type))),
		parquet.NewField("b", parquet.Optional(parquet.String())),
		parquet.NewField("c", parquet.Repeated(parquet.Leaf(parquet.Int32Type))),
	})

	const numRows = 500
	buf := new(bytes.Buffer)
	w, err := parquet.NewWriter(buf, schema)
	require.NoError(t, err)
	rg, err := w.NewRowGroup()
	require.NoError(t, err)

	err = rg.WriteColumns(context.Background(), func(ctx context.Context, c *parquet.ColumnWriter) error {
		index := c.Column().Index()
		values := make([]parquet.Value, 0, numRows)
		for i := 0; i < numRows; i++ {
			switch index {
			case 0:
				values = append(values, parquet.Int64Value(int64(i)).Level(0, 0, index))
			case 1:
				if i%2 == 0 {
					values = append(values, parquet.NullValue().Level(0, 0, index))
				} else {
					values = append(values, parquet.ByteArrayValue([]byte("odd")).Level(0, 1, index))
				}
			case 2:
				values = append(values,
					parquet.Int32Value(int32(i)).Level(0, 1, index),
					parquet.Int32Value(int32(-i)).Level(1, 1, index),
				)
			}
		}
		_, err := c.WriteValues(values)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, rg.Close())
	require.NoError(t, w.Close())

	records := readAll(t, openBuffer(t, buf.Bytes()))
	require.Len(t, records, numRows)
	for i, record := range records {
		var b interface{}
		if i%2 != 0 {
			b = "odd"
		}
		assert.Equal(t, map[string]interface{}{
			"a": int64(i),
			"b": b,
			"c": []interface{}{int32(i), int32(-i)},
		}, record)
	}
}

func TestWriteColumnsError(t *testing.T) {
	defer goleak.VerifyNone(t)

	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Required(parquet.Leaf(parquet.Int64Type))),
		parquet.NewField("b", parquet.Required(parquet.Leaf(parquet.Int64Type))),
	})
	w, err := parquet.NewWriter(new(bytes.Buffer), schema)
	require.NoError(t, err)
	rg, err := w.NewRowGroup()
	require.NoError(t, err)

	failure := errors.New("failure")
	err = rg.WriteColumns(context.Background(), func(ctx context.Context, c *parquet.ColumnWriter) error {
		if c.Column().Index() == 1 {
			return failure
		}
		<-ctx.Done()
		return ctx.Err()
	})
	assert.True(t, errors.Is(err, failure), err)
}

func TestFileMetadata(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("id", parquet.Required(parquet.Leaf(parquet.Int64Type))),
		parquet.NewField("name", parquet.Optional(parquet.String())),
		parquet.NewField("score", parquet.Required(parquet.Leaf(parquet.DoubleType))),
	})

	buf := new(bytes.Buffer)
	w, err := parquet.NewWriter(buf, schema,
		parquet.CreatedBy("metadata test"),
		parquet.KeyValueMetadata("b", "2"),
		parquet.KeyValueMetadata("a", "1"),
	)
	require.NoError(t, err)

	records := make([]map[string]interface{}, 5)
	for i := range records {
		records[i] = map[string]interface{}{"id": int64(i), "name": nil, "score": float64(i) / 2}
		if i%2 == 0 {
			records[i]["name"] = fmt.Sprint("name-", i)
		}
		require.NoError(t, w.Write(records[i]))
		if i == 2 {
			require.NoError(t, w.Flush())
		}
	}
	require.NoError(t, w.Close())

	data := buf.Bytes()
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))

	f := openBuffer(t, data)
	m := f.Metadata()
	assert.Equal(t, int32(1), m.Version())
	assert.Equal(t, "metadata test", m.CreatedBy())
	assert.Equal(t, int64(5), m.NumRows())
	assert.Equal(t, []format.KeyValue{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}, m.KeyValueMetadata())
	value, ok := m.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, "2", value)
	_, ok = m.Lookup("c")
	assert.False(t, ok)

	require.Equal(t, 2, f.NumRowGroups())
	rowGroups := m.RowGroups()
	assert.Equal(t, int64(3), rowGroups[0].NumRows())
	assert.Equal(t, int64(2), rowGroups[1].NumRows())

	end := int64(4)
	for _, g := range rowGroups {
		require.Len(t, g.Columns(), 3)
		size := int64(0)
		for i, c := range g.Columns() {
			assert.Equal(t, schema.Column(i).Path(), c.Column().Path())
			start := c.DataPageOffset()
			if offset, ok := c.DictionaryPageOffset(); ok {
				start = offset
			}
			assert.Equal(t, end, start, "column chunks are contiguous")
			end = start + c.TotalCompressedSize()
			size += c.TotalCompressedSize()
			assert.Equal(t, g.NumRows(), c.NumRows())
			assert.Equal(t, g.NumRows(), c.NumValues())
		}
		assert.Equal(t, size, g.TotalCompressedSize())
	}

	nameStats := rowGroups[0].Columns()[1].Statistics()
	assert.Equal(t, int64(1), nameStats.NullCount())

	assert.Equal(t, records, readAll(t, f))

	_, err = f.RowGroup(2)
	assert.Error(t, err)
}

func TestRowGroupReader(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Required(parquet.Leaf(parquet.Int32Type))),
		parquet.NewField("b", parquet.Repeated(parquet.Leaf(parquet.Int32Type))),
	})
	records := []map[string]interface{}{
		{"a": int32(1), "b": []interface{}{int32(10), int32(11)}},
		{"a": int32(2), "b": []interface{}{}},
		{"a": int32(3), "b": []interface{}{int32(30)}},
	}
	f := writeFile(t, schema, records)

	rg, err := f.RowGroup(0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rg.NumRows())

	chunks := rg.ColumnChunks()
	assert.Equal(t, 2, chunks.Len())
	paths := [][]string{}
	for chunks.Next() {
		paths = append(paths, chunks.Chunk().Column().Path())
	}
	assert.Equal(t, [][]string{{"a"}, {"b"}}, paths)
	assert.False(t, chunks.Next())

	rows := make([]parquet.Row, 2)
	n, err := rg.ReadRows(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint8{0, 1}, rows[0].RepetitionLevels(nil, 1))

	row, err := rg.ReadRow(nil)
	require.NoError(t, err)
	assert.Len(t, row, 2)

	_, err = rg.ReadRow(nil)
	assert.Equal(t, io.EOF, err)
}

func TestDecodeFooterErrors(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Required(parquet.Leaf(parquet.Int64Type))),
		parquet.NewField("b", parquet.Optional(parquet.String())),
		parquet.NewField("c", parquet.Required(parquet.Leaf(parquet.BooleanType))),
	})
	records := []map[string]interface{}{{"a": int64(1), "b": "x", "c": true}}
	valid := writeBuffer(t, schema, records)

	corrupt := func(f func([]byte) []byte) []byte {
		return f(bytes.Clone(valid))
	}

	tests := []struct {
		scenario string
		data     []byte
	}{
		{scenario: "empty", data: []byte{}},
		{scenario: "magic only", data: []byte("PAR1")},
		{scenario: "truncated trailing magic", data: valid[:len(valid)-1]},
		{scenario: "invalid trailing magic", data: corrupt(func(b []byte) []byte { b[len(b)-1] = 'X'; return b })},
		{scenario: "invalid leading magic", data: corrupt(func(b []byte) []byte { b[0] = 'X'; return b })},
		{scenario: "metadata length overflow", data: corrupt(func(b []byte) []byte {
			b[len(b)-8], b[len(b)-7], b[len(b)-6], b[len(b)-5] = 0xFF, 0xFF, 0xFF, 0x7F
			return b
		})},
		{scenario: "garbage metadata", data: corrupt(func(b []byte) []byte {
			n := len(b) - 8
			for i := n - 16; i < n; i++ {
				b[i] = 0xFF
			}
			return b
		})},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			_, err := parquet.OpenFile(bytes.NewReader(test.data), int64(len(test.data)))
			assert.True(t, errors.Is(err, parquet.ErrCorruptedFooter), err)
		})
	}
}

func TestDecodeFooterInconsistentLayout(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("a", parquet.Required(parquet.Leaf(parquet.Int64Type))),
	})
	c := schema.Column(0)

	footer := func(meta *format.FileMetaData) []byte {
		buf := bytes.NewBufferString("PAR1")
		buf.Write(make([]byte, 100))
		_, err := parquet.EncodeFooter(buf, meta)
		require.NoError(t, err)
		return buf.Bytes()
	}
	schemaElements := func() []format.SchemaElement {
		typ := format.Int64
		rep := format.Required
		return []format.SchemaElement{
			{Name: "test", NumChildren: 1},
			{Name: "a", Type: &typ, RepetitionType: &rep},
		}
	}
	chunk := func(offset, size int64) format.ColumnChunk {
		return format.ColumnChunk{MetaData: format.ColumnMetaData{
			Type:                format.Int64,
			PathInSchema:        c.Path(),
			NumValues:           10,
			TotalCompressedSize: size,
			DataPageOffset:      offset,
		}}
	}

	tests := []struct {
		scenario string
		meta     format.FileMetaData
	}{
		{
			scenario: "row count mismatch",
			meta: format.FileMetaData{
				Schema:    schemaElements(),
				NumRows:   11,
				RowGroups: []format.RowGroup{{NumRows: 10, Columns: []format.ColumnChunk{chunk(4, 50)}}},
			},
		},
		{
			scenario: "missing column chunk",
			meta: format.FileMetaData{
				Schema:    schemaElements(),
				NumRows:   10,
				RowGroups: []format.RowGroup{{NumRows: 10}},
			},
		},
		{
			scenario: "chunk outside of data region",
			meta: format.FileMetaData{
				Schema:    schemaElements(),
				NumRows:   10,
				RowGroups: []format.RowGroup{{NumRows: 10, Columns: []format.ColumnChunk{chunk(80, 50)}}},
			},
		},
		{
			scenario: "negative row count",
			meta: format.FileMetaData{
				Schema:    schemaElements(),
				NumRows:   -1,
				RowGroups: []format.RowGroup{{NumRows: -1, Columns: []format.ColumnChunk{chunk(4, 50)}}},
			},
		},
		{
			scenario: "empty schema",
			meta:     format.FileMetaData{},
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			data := footer(&test.meta)
			_, err := parquet.DecodeFooter(bytes.NewReader(data), int64(len(data)))
			assert.True(t, errors.Is(err, parquet.ErrCorruptedFooter), err)
		})
	}

	t.Run("valid layout", func(t *testing.T) {
		data := footer(&format.FileMetaData{
			Schema:    schemaElements(),
			NumRows:   10,
			RowGroups: []format.RowGroup{{NumRows: 10, Columns: []format.ColumnChunk{chunk(4, 50)}}},
		})
		m, err := parquet.DecodeFooter(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		assert.Equal(t, int64(10), m.NumRows())
	})
}
