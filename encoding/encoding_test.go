package encoding_test

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/segmentio/parquet-engine/deprecated"
	"github.com/segmentio/parquet-engine/encoding"
	"github.com/segmentio/parquet-engine/encoding/delta"
	"github.com/segmentio/parquet-engine/encoding/plain"
	"github.com/segmentio/parquet-engine/encoding/rle"
	"github.com/segmentio/parquet-engine/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	plainEncoding       = new(plain.Encoding)
	rleEncoding         = new(rle.Encoding)
	dictionaryEncoding  = new(rle.DictionaryEncoding)
	deltaBinaryPacked   = new(delta.BinaryPackedEncoding)
	deltaLengthByteArr  = new(delta.LengthByteArrayEncoding)
	deltaByteArray      = new(delta.ByteArrayEncoding)
	allEncodings        = []encoding.Encoding{plainEncoding, rleEncoding, dictionaryEncoding, deltaBinaryPacked, deltaLengthByteArr, deltaByteArray}
	allTypes            = []format.Type{format.Boolean, format.Int32, format.Int64, format.Int96, format.Float, format.Double, format.ByteArray, format.FixedLenByteArray}
	unsupportedTypeCode = format.Type(42)
)

func TestSupports(t *testing.T) {
	supported := map[string][]format.Type{
		"PLAIN":                   allTypes,
		"RLE":                     {format.Boolean},
		"RLE_DICTIONARY":          {format.Int32},
		"DELTA_BINARY_PACKED":     {format.Int32, format.Int64},
		"DELTA_LENGTH_BYTE_ARRAY": {format.ByteArray},
		"DELTA_BYTE_ARRAY":        {format.ByteArray, format.FixedLenByteArray},
	}

	for _, e := range allEncodings {
		t.Run(e.String(), func(t *testing.T) {
			want, ok := supported[e.String()]
			require.True(t, ok, "missing expectations for %s", e)

			for _, typ := range allTypes {
				assert.Equal(t, contains(want, typ), encoding.Supports(e, typ), "%s", typ)
			}
			assert.False(t, encoding.Supports(e, unsupportedTypeCode))
		})
	}
}

func TestNotSupported(t *testing.T) {
	_, err := deltaBinaryPacked.EncodeDouble(nil, []float64{1})
	assert.True(t, errors.Is(err, encoding.ErrNotSupported), err)
	assert.Contains(t, err.Error(), "DOUBLE")

	_, _, err = rleEncoding.DecodeByteArray(nil, nil, []byte{0})
	assert.True(t, errors.Is(err, encoding.ErrNotSupported), err)

	_, err = plainEncoding.EncodeLevels(nil, []uint8{1}, 1)
	assert.True(t, errors.Is(err, encoding.ErrNotSupported), err)
}

func TestByteArrayCount(t *testing.T) {
	assert.Equal(t, 0, encoding.ByteArrayCount(nil))
	assert.Equal(t, 0, encoding.ByteArrayCount([]uint32{0}))
	assert.Equal(t, 3, encoding.ByteArrayCount([]uint32{0, 1, 1, 4}))
}

func TestBooleanRoundTrip(t *testing.T) {
	inputs := [][]bool{
		{},
		{true},
		{false, true, true, false, true, false, false, false, true},
		repeat(true, 33),
		alternate(15),
	}

	for _, e := range []encoding.Encoding{plainEncoding, rleEncoding} {
		for i, input := range inputs {
			t.Run(fmt.Sprintf("%s/%d", e, i), func(t *testing.T) {
				buf, err := e.EncodeBoolean(nil, input)
				require.NoError(t, err)
				values, err := e.DecodeBoolean(nil, buf)
				require.NoError(t, err)

				// bit packed output may carry up to 7 padding values
				require.GreaterOrEqual(t, len(values), len(input))
				require.LessOrEqual(t, len(values)-len(input), 7)
				assertSameValues(t, input, values[:len(input)])
			})
		}
	}
}

func TestInt32RoundTrip(t *testing.T) {
	inputs := [][]int32{
		{},
		{0},
		{-1, 0, 1, 0, 2, 3, math.MaxInt32, math.MaxInt32, 0},
		{math.MinInt32, math.MaxInt32, math.MinInt32},
		{24, 36, 47, 32, 29, 4, 9, 20, 2, 18},
		squares(1000),
	}
	for _, e := range []encoding.Encoding{plainEncoding, deltaBinaryPacked} {
		for i, input := range inputs {
			t.Run(fmt.Sprintf("%s/%d", e, i), func(t *testing.T) {
				buf, err := e.EncodeInt32(nil, input)
				require.NoError(t, err)
				values, err := e.DecodeInt32(nil, buf)
				require.NoError(t, err)
				assertSameValues(t, input, values)
			})
		}
	}
}

func TestDictionaryIndexRoundTrip(t *testing.T) {
	inputs := [][]int32{
		{0},
		{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7},
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		{math.MaxInt32, 0, 1},
	}
	for i, input := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			buf, err := dictionaryEncoding.EncodeInt32(nil, input)
			require.NoError(t, err)
			values, err := dictionaryEncoding.DecodeInt32(nil, buf)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(values), len(input))
			assert.Equal(t, input, values[:len(input)])
		})
	}

	_, err := dictionaryEncoding.EncodeInt32(nil, []int32{1, -1})
	assert.True(t, errors.Is(err, encoding.ErrInvalidArgument), err)
}

func TestInt64RoundTrip(t *testing.T) {
	inputs := [][]int64{
		{},
		{1},
		{-1, 0, 1, math.MaxInt64, math.MaxInt64, 0},
		{math.MinInt64, math.MaxInt64, math.MinInt64, math.MaxInt64},
		shifted(1000),
	}
	for _, e := range []encoding.Encoding{plainEncoding, deltaBinaryPacked} {
		for i, input := range inputs {
			t.Run(fmt.Sprintf("%s/%d", e, i), func(t *testing.T) {
				buf, err := e.EncodeInt64(nil, input)
				require.NoError(t, err)
				values, err := e.DecodeInt64(nil, buf)
				require.NoError(t, err)
				assertSameValues(t, input, values)
			})
		}
	}
}

func TestPlainFixedWidthRoundTrip(t *testing.T) {
	int96 := []deprecated.Int96{{0: 1}, {0: 1, 1: 2, 2: 3}, deprecated.Int64ToInt96(-1)}
	buf, err := plainEncoding.EncodeInt96(nil, int96)
	require.NoError(t, err)
	assert.Len(t, buf, 12*len(int96))
	gotInt96, err := plainEncoding.DecodeInt96(nil, buf)
	require.NoError(t, err)
	assert.Equal(t, int96, gotInt96)

	floats := []float32{0, -1, 1.5, math.MaxFloat32, float32(math.Inf(-1))}
	buf, err = plainEncoding.EncodeFloat(nil, floats)
	require.NoError(t, err)
	gotFloats, err := plainEncoding.DecodeFloat(nil, buf)
	require.NoError(t, err)
	assert.Equal(t, floats, gotFloats)

	doubles := []float64{0, -1, math.SmallestNonzeroFloat64, math.MaxFloat64}
	buf, err = plainEncoding.EncodeDouble(nil, doubles)
	require.NoError(t, err)
	gotDoubles, err := plainEncoding.DecodeDouble(nil, buf)
	require.NoError(t, err)
	assert.Equal(t, doubles, gotDoubles)

	_, err = plainEncoding.DecodeDouble(nil, buf[:len(buf)-1])
	assert.True(t, errors.Is(err, encoding.ErrInvalidArgument), err)
}

func TestByteArrayRoundTrip(t *testing.T) {
	inputs := [][][]byte{
		{},
		{[]byte("")},
		{[]byte("A"), []byte("B"), []byte("C")},
		{[]byte("hello world!"), bytes.Repeat([]byte("1234567890"), 100)},
		{[]byte("prefix-1"), []byte("prefix-2"), []byte("prefix-22"), []byte("pre"), []byte("other")},
	}
	for _, e := range []encoding.Encoding{plainEncoding, deltaLengthByteArr, deltaByteArray} {
		for i, input := range inputs {
			t.Run(fmt.Sprintf("%s/%d", e, i), func(t *testing.T) {
				data, offsets := []byte{}, []uint32{0}
				for _, value := range input {
					data = append(data, value...)
					offsets = append(offsets, uint32(len(data)))
				}

				buf, err := e.EncodeByteArray(nil, data, offsets)
				require.NoError(t, err)
				values, valueOffsets, err := e.DecodeByteArray(nil, nil, buf)
				require.NoError(t, err)

				require.Equal(t, len(input), encoding.ByteArrayCount(valueOffsets))
				for j, want := range input {
					assert.Equal(t, string(want), string(values[valueOffsets[j]:valueOffsets[j+1]]), "value %d", j)
				}
			})
		}
	}
}

func TestFixedLenByteArrayRoundTrip(t *testing.T) {
	for _, e := range []encoding.Encoding{plainEncoding, deltaByteArray} {
		for _, size := range []int{1, 2, 4, 8} {
			t.Run(fmt.Sprintf("%s/%d", e, size), func(t *testing.T) {
				data := []byte("ABCDEFGH")
				buf, err := e.EncodeFixedLenByteArray(nil, data, size)
				require.NoError(t, err)
				values, err := e.DecodeFixedLenByteArray(nil, buf, size)
				require.NoError(t, err)
				assert.Equal(t, data, values)
			})
		}
	}

	_, err := plainEncoding.EncodeFixedLenByteArray(nil, []byte("ABC"), 2)
	assert.True(t, errors.Is(err, encoding.ErrInvalidArgument), err)
}

func assertSameValues[T any](t *testing.T, want, got []T) {
	t.Helper()
	if len(want) == 0 {
		assert.Empty(t, got)
		return
	}
	assert.Equal(t, want, got)
}

func contains(types []format.Type, t format.Type) bool {
	for _, typ := range types {
		if typ == t {
			return true
		}
	}
	return false
}

func repeat(v bool, n int) []bool {
	values := make([]bool, n)
	for i := range values {
		values[i] = v
	}
	return values
}

func alternate(n int) []bool {
	values := make([]bool, n)
	for i := range values {
		values[i] = i%2 == 1
	}
	return values
}

func squares(n int) []int32 {
	values := make([]int32, n)
	for i := range values {
		values[i] = int32(i*i) - int32(n)
	}
	return values
}

func shifted(n int) []int64 {
	values := make([]int64, n)
	for i := range values {
		values[i] = int64(i) << 33
	}
	return values
}
