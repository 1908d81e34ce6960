package delta

import (
	"github.com/segmentio/parquet-engine/encoding"
	"github.com/segmentio/parquet-engine/format"
)

// ByteArrayEncoding is the incremental (front compression) encoding of byte
// arrays: the length of the prefix shared with the previous value is encoded
// with DELTA_BINARY_PACKED, followed by the suffixes encoded with
// DELTA_LENGTH_BYTE_ARRAY.
type ByteArrayEncoding struct {
	encoding.NotSupported
}

func (e *ByteArrayEncoding) String() string {
	return "DELTA_BYTE_ARRAY"
}

func (e *ByteArrayEncoding) Encoding() format.Encoding {
	return format.DeltaByteArray
}

func (e *ByteArrayEncoding) EncodeByteArray(dst []byte, src []byte, offsets []uint32) ([]byte, error) {
	n := encoding.ByteArrayCount(offsets)
	prefixes := make([]int32, n)
	suffixes := make([]byte, 0, len(src))
	suffixOffsets := make([]uint32, 1, n+1)

	var prev []byte
	for i := 0; i < n; i++ {
		value := src[offsets[i]:offsets[i+1]]
		p := commonPrefixLength(prev, value)
		prefixes[i] = int32(p)
		suffixes = append(suffixes, value[p:]...)
		suffixOffsets = append(suffixOffsets, uint32(len(suffixes)))
		prev = value
	}

	dst = encodeBinaryPacked(dst[:0], prefixes, 32)
	return encodeLengthByteArray(dst, suffixes, suffixOffsets), nil
}

func (e *ByteArrayEncoding) EncodeFixedLenByteArray(dst []byte, src []byte, size int) ([]byte, error) {
	if size <= 0 || size > encoding.MaxFixedLenByteArraySize {
		return dst[:0], encoding.Error(e, encoding.ErrInvalidArgument)
	}
	if (len(src) % size) != 0 {
		return dst[:0], encoding.ErrEncodeInvalidInputSize(e, "FIXED_LEN_BYTE_ARRAY", len(src))
	}
	offsets := make([]uint32, 0, len(src)/size+1)
	for i := 0; i <= len(src); i += size {
		offsets = append(offsets, uint32(i))
	}
	return e.EncodeByteArray(dst, src, offsets)
}

func (e *ByteArrayEncoding) DecodeByteArray(dst []byte, offsets []uint32, src []byte) ([]byte, []uint32, error) {
	dst, offsets = dst[:0], append(offsets[:0], 0)

	prefixes, src, err := decodeBinaryPacked[int32](nil, src, 32)
	if err != nil {
		return dst, offsets, encoding.Errorf(e, "decoding prefix lengths: %w", err)
	}
	suffixes, suffixOffsets, _, err := decodeLengthByteArray(nil, nil, src)
	if err != nil {
		return dst, offsets, encoding.Errorf(e, "decoding suffixes: %w", err)
	}
	if len(prefixes) != encoding.ByteArrayCount(suffixOffsets) {
		return dst, offsets, encoding.Errorf(e, "number of prefixes and suffixes mismatch: %d != %d: %w",
			len(prefixes), encoding.ByteArrayCount(suffixOffsets), encoding.ErrInvalidArgument)
	}

	prevStart, prevEnd := 0, 0
	for i, p := range prefixes {
		if p < 0 || int(p) > (prevEnd-prevStart) {
			return dst, offsets, encoding.Errorf(e, "invalid prefix length at index %d: %d: %w", i, p, encoding.ErrInvalidArgument)
		}
		start := len(dst)
		dst = append(dst, dst[prevStart:prevStart+int(p)]...)
		dst = append(dst, suffixes[suffixOffsets[i]:suffixOffsets[i+1]]...)
		offsets = append(offsets, uint32(len(dst)))
		prevStart, prevEnd = start, len(dst)
	}

	return dst, offsets, nil
}

func (e *ByteArrayEncoding) DecodeFixedLenByteArray(dst []byte, src []byte, size int) ([]byte, error) {
	if size <= 0 || size > encoding.MaxFixedLenByteArraySize {
		return dst[:0], encoding.Error(e, encoding.ErrInvalidArgument)
	}
	dst, offsets, err := e.DecodeByteArray(dst, nil, src)
	if err != nil {
		return dst, err
	}
	for i := 0; i < encoding.ByteArrayCount(offsets); i++ {
		if n := int(offsets[i+1] - offsets[i]); n != size {
			return dst, encoding.Errorf(e, "value at index %d has length %d instead of %d: %w", i, n, size, encoding.ErrInvalidArgument)
		}
	}
	return dst, nil
}

func commonPrefixLength(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

var (
	_ encoding.Encoding = (*ByteArrayEncoding)(nil)
)

