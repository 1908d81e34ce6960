package parquet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionary(t *testing.T) {
	tests := []struct {
		kind   Kind
		length int
		values []Value
	}{
		{kind: Int32, values: []Value{Int32Value(3), Int32Value(-1), Int32Value(3), Int32Value(0)}},
		{kind: Int64, values: []Value{Int64Value(1 << 40), Int64Value(1 << 40), Int64Value(2)}},
		{kind: Float, values: []Value{FloatValue(0.5), FloatValue(-0.5), FloatValue(0.5)}},
		{kind: Double, values: []Value{DoubleValue(1), DoubleValue(2), DoubleValue(1), DoubleValue(2)}},
		{kind: ByteArray, values: []Value{ByteArrayValue([]byte("a")), ByteArrayValue(nil), ByteArrayValue([]byte("a")), ByteArrayValue([]byte("bc"))}},
		{kind: FixedLenByteArray, length: 2, values: []Value{FixedLenByteArrayValue([]byte("ab")), FixedLenByteArrayValue([]byte("ba")), FixedLenByteArrayValue([]byte("ab"))}},
	}

	for _, test := range tests {
		t.Run(fmt.Sprint(test.kind), func(t *testing.T) {
			d := newDictionary(test.kind, test.length)
			indexes := make([]int32, len(test.values))
			for i, v := range test.values {
				indexes[i] = d.insert(v)
			}

			distinct := 0
			for i, v := range test.values {
				first := i
				for j := range test.values[:i] {
					if Equal(test.values[j], v) {
						first = j
						break
					}
				}
				if first == i {
					assert.Equal(t, int32(distinct), indexes[i], "new values are appended")
					distinct++
				} else {
					assert.Equal(t, indexes[first], indexes[i], "known values keep their index")
				}
			}
			assert.Equal(t, distinct, d.Len())

			values, err := d.lookup(nil, indexes)
			require.NoError(t, err)
			require.Len(t, values, len(test.values))
			for i := range values {
				assert.True(t, Equal(test.values[i], values[i]), "%#v != %#v", test.values[i], values[i])
			}

			page, err := d.encode(nil)
			require.NoError(t, err)
			assert.Equal(t, d.size, int64(len(page)))

			decoded, err := decodeDictionary(test.kind, test.length, Plain, page, d.Len())
			require.NoError(t, err)
			assert.Equal(t, d.Len(), decoded.Len())
			assert.Equal(t, d.size, decoded.size)
			for i := range d.values {
				assert.True(t, Equal(d.values[i], decoded.values[i]))
			}

			_, err = decodeDictionary(test.kind, test.length, Plain, page, d.Len()+1)
			assert.True(t, errors.Is(err, ErrCorruptedPage), err)

			d.reset()
			assert.Equal(t, 0, d.Len())
			assert.Equal(t, int32(0), d.insert(test.values[len(test.values)-1]))
		})
	}
}

func TestDictionaryInsertCopiesBytes(t *testing.T) {
	d := newDictionary(ByteArray, 0)
	b := []byte("hello")
	d.insert(ByteArrayValue(b))
	copy(b, "world")

	values, err := d.lookup(nil, []int32{0})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(values[0].ByteArray()))
	assert.Equal(t, int32(1), d.insert(ByteArrayValue(b)))
}

func TestDictionaryLookupOutOfRange(t *testing.T) {
	d := newDictionary(Int32, 0)
	d.insert(Int32Value(1))

	for _, index := range []int32{-1, 1, 100} {
		_, err := d.lookup(nil, []int32{0, index})
		assert.True(t, errors.Is(err, ErrCorruptedPage), err)
	}
}

func TestDecodeBooleanDictionary(t *testing.T) {
	_, err := decodeDictionary(Boolean, 0, Plain, []byte{1}, 1)
	assert.True(t, errors.Is(err, ErrCorruptedPage), err)
}
