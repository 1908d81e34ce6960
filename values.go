package parquet

import (
	"fmt"

	"github.com/segmentio/parquet-engine/deprecated"
)

// valueCodec converts between the non-null values of one physical kind and
// the typed slices that encodings operate on. The codec of a column is
// selected once from this table when its writer or reader is created.
type valueCodec struct {
	encode func(enc Encoding, dst []byte, values []Value, size int) ([]byte, error)
	decode func(enc Encoding, dst []Value, src []byte, size int) ([]Value, error)
}

var valueCodecs = [...]valueCodec{
	Boolean:           {encodeBooleanValues, decodeBooleanValues},
	Int32:             {encodeInt32Values, decodeInt32Values},
	Int64:             {encodeInt64Values, decodeInt64Values},
	Int96:             {encodeInt96Values, decodeInt96Values},
	Float:             {encodeFloatValues, decodeFloatValues},
	Double:            {encodeDoubleValues, decodeDoubleValues},
	ByteArray:         {encodeByteArrayValues, decodeByteArrayValues},
	FixedLenByteArray: {encodeFixedLenByteArrayValues, decodeFixedLenByteArrayValues},
}

func valueCodecOf(kind Kind) (*valueCodec, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: physical type %d", ErrTypeMismatch, kind)
	}
	return &valueCodecs[kind], nil
}

func encodeBooleanValues(enc Encoding, dst []byte, values []Value, _ int) ([]byte, error) {
	src := make([]bool, len(values))
	for i, v := range values {
		src[i] = v.Boolean()
	}
	return enc.EncodeBoolean(dst, src)
}

func decodeBooleanValues(enc Encoding, dst []Value, src []byte, _ int) ([]Value, error) {
	values, err := enc.DecodeBoolean(nil, src)
	for _, v := range values {
		dst = append(dst, BooleanValue(v))
	}
	return dst, err
}

func encodeInt32Values(enc Encoding, dst []byte, values []Value, _ int) ([]byte, error) {
	src := make([]int32, len(values))
	for i, v := range values {
		src[i] = v.Int32()
	}
	return enc.EncodeInt32(dst, src)
}

func decodeInt32Values(enc Encoding, dst []Value, src []byte, _ int) ([]Value, error) {
	values, err := enc.DecodeInt32(nil, src)
	for _, v := range values {
		dst = append(dst, Int32Value(v))
	}
	return dst, err
}

func encodeInt64Values(enc Encoding, dst []byte, values []Value, _ int) ([]byte, error) {
	src := make([]int64, len(values))
	for i, v := range values {
		src[i] = v.Int64()
	}
	return enc.EncodeInt64(dst, src)
}

func decodeInt64Values(enc Encoding, dst []Value, src []byte, _ int) ([]Value, error) {
	values, err := enc.DecodeInt64(nil, src)
	for _, v := range values {
		dst = append(dst, Int64Value(v))
	}
	return dst, err
}

func encodeInt96Values(enc Encoding, dst []byte, values []Value, _ int) ([]byte, error) {
	src := make([]deprecated.Int96, len(values))
	for i, v := range values {
		src[i] = v.Int96()
	}
	return enc.EncodeInt96(dst, src)
}

func decodeInt96Values(enc Encoding, dst []Value, src []byte, _ int) ([]Value, error) {
	values, err := enc.DecodeInt96(nil, src)
	for _, v := range values {
		dst = append(dst, Int96Value(v))
	}
	return dst, err
}

func encodeFloatValues(enc Encoding, dst []byte, values []Value, _ int) ([]byte, error) {
	src := make([]float32, len(values))
	for i, v := range values {
		src[i] = v.Float()
	}
	return enc.EncodeFloat(dst, src)
}

func decodeFloatValues(enc Encoding, dst []Value, src []byte, _ int) ([]Value, error) {
	values, err := enc.DecodeFloat(nil, src)
	for _, v := range values {
		dst = append(dst, FloatValue(v))
	}
	return dst, err
}

func encodeDoubleValues(enc Encoding, dst []byte, values []Value, _ int) ([]byte, error) {
	src := make([]float64, len(values))
	for i, v := range values {
		src[i] = v.Double()
	}
	return enc.EncodeDouble(dst, src)
}

func decodeDoubleValues(enc Encoding, dst []Value, src []byte, _ int) ([]Value, error) {
	values, err := enc.DecodeDouble(nil, src)
	for _, v := range values {
		dst = append(dst, DoubleValue(v))
	}
	return dst, err
}

func encodeByteArrayValues(enc Encoding, dst []byte, values []Value, _ int) ([]byte, error) {
	size := 0
	for _, v := range values {
		size += len(v.ByteArray())
	}
	data := make([]byte, 0, size)
	offsets := make([]uint32, 1, len(values)+1)
	for _, v := range values {
		data = append(data, v.ByteArray()...)
		offsets = append(offsets, uint32(len(data)))
	}
	return enc.EncodeByteArray(dst, data, offsets)
}

func decodeByteArrayValues(enc Encoding, dst []Value, src []byte, _ int) ([]Value, error) {
	data, offsets, err := enc.DecodeByteArray(nil, nil, src)
	for i := 0; i+1 < len(offsets); i++ {
		dst = append(dst, ByteArrayValue(data[offsets[i]:offsets[i+1]:offsets[i+1]]))
	}
	return dst, err
}

func encodeFixedLenByteArrayValues(enc Encoding, dst []byte, values []Value, size int) ([]byte, error) {
	data := make([]byte, 0, size*len(values))
	for _, v := range values {
		b := v.ByteArray()
		if len(b) != size {
			return dst[:0], fmt.Errorf("%w: value of length %d in column of fixed length %d", ErrTypeMismatch, len(b), size)
		}
		data = append(data, b...)
	}
	return enc.EncodeFixedLenByteArray(dst, data, size)
}

func decodeFixedLenByteArrayValues(enc Encoding, dst []Value, src []byte, size int) ([]Value, error) {
	data, err := enc.DecodeFixedLenByteArray(nil, src, size)
	if err != nil || size <= 0 {
		return dst, err
	}
	for i := 0; i+size <= len(data); i += size {
		dst = append(dst, FixedLenByteArrayValue(data[i:i+size:i+size]))
	}
	return dst, nil
}
