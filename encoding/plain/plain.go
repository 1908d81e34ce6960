// Package plain implements the PLAIN parquet encoding.
//
// https://github.com/apache/parquet-format/blob/master/Encodings.md#plain-plain--0
package plain

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/segmentio/parquet-engine/deprecated"
	"github.com/segmentio/parquet-engine/encoding"
	"github.com/segmentio/parquet-engine/format"
)

const (
	ByteArrayLengthSize = 4
	MaxByteArrayLength  = math.MaxInt32
)

type Encoding struct {
	encoding.NotSupported
}

func (e *Encoding) String() string {
	return "PLAIN"
}

func (e *Encoding) Encoding() format.Encoding {
	return format.Plain
}

func (e *Encoding) EncodeBoolean(dst []byte, src []bool) ([]byte, error) {
	dst = resize(dst, (len(src)+7)/8)
	clear(dst)
	for i, v := range src {
		if v {
			dst[i/8] |= 1 << uint(i%8)
		}
	}
	return dst, nil
}

func (e *Encoding) EncodeInt32(dst []byte, src []int32) ([]byte, error) {
	dst = dst[:0]
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
	}
	return dst, nil
}

func (e *Encoding) EncodeInt64(dst []byte, src []int64) ([]byte, error) {
	dst = dst[:0]
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint64(dst, uint64(v))
	}
	return dst, nil
}

func (e *Encoding) EncodeInt96(dst []byte, src []deprecated.Int96) ([]byte, error) {
	dst = dst[:0]
	for _, v := range src {
		dst = deprecated.AppendInt96(dst, v)
	}
	return dst, nil
}

func (e *Encoding) EncodeFloat(dst []byte, src []float32) ([]byte, error) {
	dst = dst[:0]
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst, nil
}

func (e *Encoding) EncodeDouble(dst []byte, src []float64) ([]byte, error) {
	dst = dst[:0]
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	return dst, nil
}

func (e *Encoding) EncodeByteArray(dst []byte, src []byte, offsets []uint32) ([]byte, error) {
	dst = dst[:0]
	for i := 0; i < encoding.ByteArrayCount(offsets); i++ {
		value := src[offsets[i]:offsets[i+1]]
		dst = AppendByteArray(dst, value)
	}
	return dst, nil
}

func (e *Encoding) EncodeFixedLenByteArray(dst []byte, src []byte, size int) ([]byte, error) {
	if size < 0 || size > encoding.MaxFixedLenByteArraySize {
		return dst[:0], encoding.Error(e, encoding.ErrInvalidArgument)
	}
	if size == 0 || (len(src)%size) != 0 {
		return dst[:0], encoding.ErrEncodeInvalidInputSize(e, "FIXED_LEN_BYTE_ARRAY", len(src))
	}
	return append(dst[:0], src...), nil
}

func (e *Encoding) DecodeBoolean(dst []bool, src []byte) ([]bool, error) {
	dst = dst[:0]
	for i := 0; i < 8*len(src); i++ {
		dst = append(dst, ((src[i/8]>>uint(i%8))&1) != 0)
	}
	return dst, nil
}

func (e *Encoding) DecodeInt32(dst []int32, src []byte) ([]int32, error) {
	if (len(src) % 4) != 0 {
		return dst[:0], encoding.ErrDecodeInvalidInputSize(e, "INT32", len(src))
	}
	dst = dst[:0]
	for i := 0; i < len(src); i += 4 {
		dst = append(dst, int32(binary.LittleEndian.Uint32(src[i:])))
	}
	return dst, nil
}

func (e *Encoding) DecodeInt64(dst []int64, src []byte) ([]int64, error) {
	if (len(src) % 8) != 0 {
		return dst[:0], encoding.ErrDecodeInvalidInputSize(e, "INT64", len(src))
	}
	dst = dst[:0]
	for i := 0; i < len(src); i += 8 {
		dst = append(dst, int64(binary.LittleEndian.Uint64(src[i:])))
	}
	return dst, nil
}

func (e *Encoding) DecodeInt96(dst []deprecated.Int96, src []byte) ([]deprecated.Int96, error) {
	if (len(src) % 12) != 0 {
		return dst[:0], encoding.ErrDecodeInvalidInputSize(e, "INT96", len(src))
	}
	dst = dst[:0]
	for i := 0; i < len(src); i += 12 {
		dst = append(dst, deprecated.BytesToInt96(src[i:]))
	}
	return dst, nil
}

func (e *Encoding) DecodeFloat(dst []float32, src []byte) ([]float32, error) {
	if (len(src) % 4) != 0 {
		return dst[:0], encoding.ErrDecodeInvalidInputSize(e, "FLOAT", len(src))
	}
	dst = dst[:0]
	for i := 0; i < len(src); i += 4 {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(src[i:])))
	}
	return dst, nil
}

func (e *Encoding) DecodeDouble(dst []float64, src []byte) ([]float64, error) {
	if (len(src) % 8) != 0 {
		return dst[:0], encoding.ErrDecodeInvalidInputSize(e, "DOUBLE", len(src))
	}
	dst = dst[:0]
	for i := 0; i < len(src); i += 8 {
		dst = append(dst, math.Float64frombits(binary.LittleEndian.Uint64(src[i:])))
	}
	return dst, nil
}

func (e *Encoding) DecodeByteArray(dst []byte, offsets []uint32, src []byte) ([]byte, []uint32, error) {
	dst, offsets = dst[:0], append(offsets[:0], 0)

	for i := 0; i < len(src); {
		if (len(src) - i) < ByteArrayLengthSize {
			return dst, offsets, encoding.Error(e, fmt.Errorf("input ends in the middle of a length prefix: %w", encoding.ErrInvalidArgument))
		}
		n := int(binary.LittleEndian.Uint32(src[i:]))
		i += ByteArrayLengthSize

		if n > (len(src) - i) {
			return dst, offsets, encoding.Error(e, fmt.Errorf("value of length %d overflows the input of size %d: %w", n, len(src)-i, encoding.ErrInvalidArgument))
		}
		dst = append(dst, src[i:i+n]...)
		offsets = append(offsets, uint32(len(dst)))
		i += n
	}

	return dst, offsets, nil
}

func (e *Encoding) DecodeFixedLenByteArray(dst []byte, src []byte, size int) ([]byte, error) {
	if size <= 0 || size > encoding.MaxFixedLenByteArraySize {
		return dst[:0], encoding.Error(e, encoding.ErrInvalidArgument)
	}
	if (len(src) % size) != 0 {
		return dst[:0], encoding.ErrDecodeInvalidInputSize(e, "FIXED_LEN_BYTE_ARRAY", len(src))
	}
	return append(dst[:0], src...), nil
}

// AppendByteArray appends value to b, prefixed with its 4 bytes length.
func AppendByteArray(b, value []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(value)))
	return append(b, value...)
}

func resize(buf []byte, size int) []byte {
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	return buf[:size]
}

var (
	_ encoding.Encoding = (*Encoding)(nil)
)
