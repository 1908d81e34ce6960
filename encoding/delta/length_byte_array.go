package delta

import (
	"fmt"

	"github.com/segmentio/parquet-engine/encoding"
	"github.com/segmentio/parquet-engine/format"
)

type LengthByteArrayEncoding struct {
	encoding.NotSupported
}

func (e *LengthByteArrayEncoding) String() string {
	return "DELTA_LENGTH_BYTE_ARRAY"
}

func (e *LengthByteArrayEncoding) Encoding() format.Encoding {
	return format.DeltaLengthByteArray
}

func (e *LengthByteArrayEncoding) EncodeByteArray(dst []byte, src []byte, offsets []uint32) ([]byte, error) {
	return encodeLengthByteArray(dst[:0], src, offsets), nil
}

func (e *LengthByteArrayEncoding) DecodeByteArray(dst []byte, offsets []uint32, src []byte) ([]byte, []uint32, error) {
	dst, offsets, _, err := decodeLengthByteArray(dst[:0], offsets[:0], src)
	if err != nil {
		err = encoding.Error(e, err)
	}
	return dst, offsets, err
}

func encodeLengthByteArray(dst []byte, src []byte, offsets []uint32) []byte {
	n := encoding.ByteArrayCount(offsets)
	lengths := make([]int32, n)
	for i := range lengths {
		lengths[i] = int32(offsets[i+1] - offsets[i])
	}
	dst = encodeBinaryPacked(dst, lengths, 32)
	if n > 0 {
		dst = append(dst, src[offsets[0]:offsets[n]]...)
	}
	return dst
}

// decodeLengthByteArray appends the values decoded from src to dst and
// offsets, and returns the bytes of src following the values.
func decodeLengthByteArray(dst []byte, offsets []uint32, src []byte) ([]byte, []uint32, []byte, error) {
	lengths, src, err := decodeBinaryPacked[int32](nil, src, 32)
	if err != nil {
		return dst, offsets, src, fmt.Errorf("decoding lengths: %w", err)
	}

	if len(offsets) == 0 {
		offsets = append(offsets, uint32(len(dst)))
	}

	for i, n := range lengths {
		if n < 0 {
			return dst, offsets, src, fmt.Errorf("negative length at index %d: %d: %w", i, n, encoding.ErrInvalidArgument)
		}
		if int(n) > len(src) {
			return dst, offsets, src, fmt.Errorf("value of length %d at index %d overflows the input of size %d: %w", n, i, len(src), encoding.ErrInvalidArgument)
		}
		dst = append(dst, src[:n]...)
		offsets = append(offsets, uint32(len(dst)))
		src = src[n:]
	}

	return dst, offsets, src, nil
}

var (
	_ encoding.Encoding = (*LengthByteArrayEncoding)(nil)
)
