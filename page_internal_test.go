package parquet

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/segmentio/parquet-engine/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		scenario string
		maxLevel int
		levels   []uint8
	}{
		{scenario: "empty", maxLevel: 1, levels: []uint8{}},
		{scenario: "single", maxLevel: 1, levels: []uint8{1}},
		{scenario: "runs", maxLevel: 3, levels: []uint8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3, 3, 3, 3, 3, 3, 3, 3, 3}},
		{scenario: "mixed", maxLevel: 2, levels: []uint8{0, 1, 2, 2, 1, 0, 2, 1, 0, 1, 2}},
		{scenario: "wide", maxLevel: 200, levels: []uint8{200, 0, 100, 7, 199}},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			b, err := appendLevels([]byte("prefix"), test.levels, test.maxLevel)
			require.NoError(t, err)
			require.Equal(t, "prefix", string(b[:6]))

			trailer := []byte("values")
			levels, rest, err := decodeLengthPrefixedLevels(append(b[6:], trailer...), test.maxLevel, len(test.levels))
			require.NoError(t, err)
			assert.Equal(t, test.levels, levels)
			assert.Equal(t, trailer, rest)
		})
	}
}

func TestLevelsErrors(t *testing.T) {
	b, err := appendLevels(nil, []uint8{0, 3, 1}, 3)
	require.NoError(t, err)

	_, err = decodeLevels(b[4:], 2, 3)
	assert.True(t, errors.Is(err, ErrLevelOverflow), err)

	_, err = decodeLevels(b[4:], 3, 100)
	assert.True(t, errors.Is(err, ErrCorruptedPage), err)

	_, _, err = decodeLengthPrefixedLevels(b[:3], 3, 3)
	assert.True(t, errors.Is(err, ErrCorruptedPage), err)

	_, _, err = decodeLengthPrefixedLevels(b[:len(b)-1], 3, 3)
	assert.True(t, errors.Is(err, ErrCorruptedPage), err)
}

func TestDecompressPage(t *testing.T) {
	data, err := Snappy.Encode(nil, []byte("hello world"))
	require.NoError(t, err)

	page, err := decompressPage(Snappy, data, 11)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(page))

	_, err = decompressPage(Snappy, data, 12)
	assert.True(t, errors.Is(err, ErrCompression), err)

	_, err = decompressPage(Snappy, []byte{0xff, 0xff, 0xff, 0xff, 0xff}, 11)
	assert.True(t, errors.Is(err, ErrCompression), err)

	_, err = decompressPage(Uncompressed, data, -1)
	assert.True(t, errors.Is(err, ErrCorruptedPage), err)
}

func testListColumn(t *testing.T) *Column {
	schema, err := NewSchema("test", Group{
		NewField("v", Optional(List(Optional(Leaf(Int32Type))))),
	})
	require.NoError(t, err)
	return schema.Column(0)
}

func TestPageReader(t *testing.T) {
	column := testListColumn(t)
	rep := []uint8{0, 1, 1, 0, 0}
	def := []uint8{3, 2, 3, 1, 0}
	values := []Value{Int32Value(1), Int32Value(2)}

	payload, err := appendLevels(nil, rep, column.MaxRepetitionLevel())
	require.NoError(t, err)
	payload, err = appendLevels(payload, def, column.MaxDefinitionLevel())
	require.NoError(t, err)
	codec, err := valueCodecOf(Int32)
	require.NoError(t, err)
	encoded, err := codec.encode(Plain, nil, values, 0)
	require.NoError(t, err)
	levelsSize := len(payload)
	payload = append(payload, encoded...)

	chunk := new(bytes.Buffer)
	for i := 0; i < 2; i++ {
		p, err := newDataPage(Snappy, format.Plain, len(rep), payload, nil, true)
		require.NoError(t, err)
		size, headerSize, err := p.writeTo(chunk)
		require.NoError(t, err)
		assert.Equal(t, headerSize+int64(len(p.data)), size)
	}

	r := newPageReader(column, Snappy, chunk.Bytes(), &ReaderConfig{VerifyChecksums: true})
	for i := 0; i < 2; i++ {
		header, data, err := r.readPage()
		require.NoError(t, err)
		assert.Equal(t, format.DataPage, header.Type)
		assert.NotZero(t, header.CRC)

		page, err := r.decodeDataPage(header, data)
		require.NoError(t, err)
		assert.Equal(t, len(rep), page.numValues)
		assert.Equal(t, rep, page.repetitionLevels)
		assert.Equal(t, def, page.definitionLevels)
		assert.Equal(t, encoded, page.values, "values follow %d bytes of level sections", levelsSize)

		decoded, err := codec.decode(Plain, nil, page.values, 0)
		require.NoError(t, err)
		assert.Equal(t, values, decoded)
	}
	_, _, err = r.readPage()
	assert.Equal(t, io.EOF, err)
}

func TestPageReaderOverrun(t *testing.T) {
	p, err := newPage(format.DataPage, Uncompressed, []byte("0123456789"), false)
	require.NoError(t, err)
	chunk := new(bytes.Buffer)
	_, _, err = p.writeTo(chunk)
	require.NoError(t, err)

	r := newPageReader(testListColumn(t), Uncompressed, chunk.Bytes()[:chunk.Len()-1], DefaultReaderConfig())
	_, _, err = r.readPage()
	assert.True(t, errors.Is(err, ErrCorruptedPage), err)
}

func TestDecodeDataPageV2(t *testing.T) {
	column := testListColumn(t)
	rep := []uint8{0, 0, 1}
	def := []uint8{3, 0, 3}

	repRuns, err := RLE.EncodeLevels(nil, rep, levelBitWidth(column.MaxRepetitionLevel()))
	require.NoError(t, err)
	defRuns, err := RLE.EncodeLevels(nil, def, levelBitWidth(column.MaxDefinitionLevel()))
	require.NoError(t, err)
	codec, err := valueCodecOf(Int32)
	require.NoError(t, err)
	values, err := codec.encode(Plain, nil, []Value{Int32Value(7), Int32Value(8)}, 0)
	require.NoError(t, err)

	data := append(append(append([]byte{}, repRuns...), defRuns...), values...)
	header := &format.PageHeader{
		Type:                 format.DataPageV2,
		UncompressedPageSize: int32(len(data)),
		CompressedPageSize:   int32(len(data)),
		DataPageHeaderV2: &format.DataPageHeaderV2{
			NumValues:                  3,
			NumNulls:                   1,
			NumRows:                    2,
			Encoding:                   format.Plain,
			RepetitionLevelsByteLength: int32(len(repRuns)),
			DefinitionLevelsByteLength: int32(len(defRuns)),
			IsCompressed:               ptr(false),
		},
	}

	r := newPageReader(column, Snappy, nil, DefaultReaderConfig())
	page, err := r.decodeDataPage(header, data)
	require.NoError(t, err)
	assert.Equal(t, rep, page.repetitionLevels)
	assert.Equal(t, def, page.definitionLevels)
	assert.Equal(t, values, page.values)

	header.DataPageHeaderV2.DefinitionLevelsByteLength = int32(len(data))
	_, err = r.decodeDataPage(header, data)
	assert.True(t, errors.Is(err, ErrCorruptedPage), err)

	_, err = r.decodeDataPage(&format.PageHeader{Type: format.DataPage}, data)
	assert.True(t, errors.Is(err, ErrCorruptedPage), err)
}
