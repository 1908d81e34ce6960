package parquet_test

import (
	"math"
	"testing"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/segmentio/parquet-engine"
	"github.com/segmentio/parquet-engine/deprecated"
	"github.com/stretchr/testify/assert"
)

func TestSizeOfValue(t *testing.T) {
	t.Logf("sizeof(parquet.Value) = %d", unsafe.Sizeof(parquet.Value{}))
}

func BenchmarkValueAppend(b *testing.B) {
	const N = 1024
	row := make(parquet.Row, 0, N)
	val := parquet.ValueOf(42)

	for i := 0; i < b.N; i++ {
		row = row[:0]
		for j := 0; j < N; j++ {
			row = append(row, val)
		}
	}

	b.SetBytes(N * int64(unsafe.Sizeof(parquet.Value{})))
}

func TestZeroValue(t *testing.T) {
	var v parquet.Value
	assert.True(t, v.IsNull())
	assert.Equal(t, 0, v.RepetitionLevel())
	assert.Equal(t, 0, v.DefinitionLevel())
	assert.Equal(t, -1, v.Column())
	assert.True(t, parquet.Equal(v, parquet.NullValue()))
}

func TestValueOf(t *testing.T) {
	id := uuid.MustParse("5c1b7a6e-8f7d-4b2b-9d1e-7f3f2a0c4d11")
	now := time.Date(2022, 1, 2, 3, 4, 5, 6, time.UTC)

	tests := []struct {
		value interface{}
		want  parquet.Value
	}{
		{value: nil, want: parquet.NullValue()},
		{value: true, want: parquet.BooleanValue(true)},
		{value: int8(-1), want: parquet.Int32Value(-1)},
		{value: uint16(65535), want: parquet.Int32Value(65535)},
		{value: uint32(math.MaxUint32), want: parquet.Int32Value(-1)},
		{value: 42, want: parquet.Int64Value(42)},
		{value: uint64(math.MaxUint64), want: parquet.Int64Value(-1)},
		{value: float32(1.5), want: parquet.FloatValue(1.5)},
		{value: 2.5, want: parquet.DoubleValue(2.5)},
		{value: "hello", want: parquet.ByteArrayValue([]byte("hello"))},
		{value: []byte("world"), want: parquet.ByteArrayValue([]byte("world"))},
		{value: [4]byte{1, 2, 3, 4}, want: parquet.FixedLenByteArrayValue([]byte{1, 2, 3, 4})},
		{value: id, want: parquet.FixedLenByteArrayValue(id[:])},
		{value: deprecated.Int96{1, 2, 3}, want: parquet.Int96Value(deprecated.Int96{1, 2, 3})},
		{value: now, want: parquet.Int64Value(now.UnixNano())},
		{value: time.Second, want: parquet.Int64Value(1e9)},
	}

	for _, test := range tests {
		t.Run(test.want.GoString(), func(t *testing.T) {
			got := parquet.ValueOf(test.value)
			assert.Equal(t, test.want.Kind(), got.Kind())
			assert.True(t, parquet.Equal(test.want, got), "%#v != %#v", test.want, got)
		})
	}

	assert.Panics(t, func() { parquet.ValueOf(struct{}{}) })
	assert.Panics(t, func() { parquet.ValueOf([]int{1}) })
}

func TestValueLevel(t *testing.T) {
	v := parquet.Int32Value(1).Level(2, 3, 4)
	assert.Equal(t, 2, v.RepetitionLevel())
	assert.Equal(t, 3, v.DefinitionLevel())
	assert.Equal(t, 4, v.Column())
	assert.Equal(t, int32(1), v.Int32())

	assert.Equal(t, -1, v.Level(0, 0, -1).Column())
	assert.Panics(t, func() { v.Level(-1, 0, 0) })
	assert.Panics(t, func() { v.Level(0, 256, 0) })
	assert.Panics(t, func() { v.Level(0, 0, -2) })
}

func TestValueClone(t *testing.T) {
	tests := []struct {
		scenario string
		values   []interface{}
	}{
		{
			scenario: "BOOLEAN",
			values:   []interface{}{false, true},
		},

		{
			scenario: "INT32",
			values:   []interface{}{int32(0), int32(1), int32(math.MinInt32), int32(math.MaxInt32)},
		},

		{
			scenario: "INT64",
			values:   []interface{}{int64(0), int64(1), int64(math.MinInt64), int64(math.MaxInt64)},
		},

		{
			scenario: "FLOAT",
			values:   []interface{}{float32(0), float32(1), float32(-1)},
		},

		{
			scenario: "DOUBLE",
			values:   []interface{}{float64(0), float64(1), float64(-1)},
		},

		{
			scenario: "BYTE_ARRAY",
			values:   []interface{}{"", "A", "ABC", "Hello World!"},
		},

		{
			scenario: "FIXED_LEN_BYTE_ARRAY",
			values:   []interface{}{[1]byte{42}, [16]byte{0: 1, 15: 2}},
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			for _, value := range test.values {
				v := parquet.ValueOf(value).Level(1, 2, 3)
				c := v.Clone()

				assert.True(t, parquet.Equal(v, c), "%#v != %#v", v, c)
				assert.Equal(t, v.RepetitionLevel(), c.RepetitionLevel())
				assert.Equal(t, v.DefinitionLevel(), c.DefinitionLevel())
				assert.Equal(t, v.Column(), c.Column())

				if b := v.ByteArray(); len(b) > 0 {
					b[0]++
					assert.False(t, parquet.Equal(v, c), "clones do not share memory")
				}
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, parquet.Equal(parquet.Int32Value(1).Level(0, 1, 0), parquet.Int32Value(1).Level(1, 0, 2)))
	assert.False(t, parquet.Equal(parquet.Int32Value(1), parquet.Int64Value(1)))
	assert.False(t, parquet.Equal(parquet.Int32Value(1), parquet.NullValue()))
	assert.False(t, parquet.Equal(parquet.ByteArrayValue([]byte("a")), parquet.FixedLenByteArrayValue([]byte("a"))))
	assert.True(t, parquet.Equal(parquet.ByteArrayValue(nil), parquet.ByteArrayValue([]byte{})))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "<null>", parquet.NullValue().String())
	assert.Equal(t, "true", parquet.BooleanValue(true).String())
	assert.Equal(t, "-3", parquet.Int64Value(-3).String())
	assert.Equal(t, "abc", parquet.ByteArrayValue([]byte("abc")).String())
	assert.Equal(t,
		`parquet.Value{kind:INT32 value:"7" rep:1 def:2 column:0}`,
		parquet.Int32Value(7).Level(1, 2, 0).GoString(),
	)
}
