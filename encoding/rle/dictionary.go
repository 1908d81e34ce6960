package rle

import (
	"math/bits"

	"github.com/segmentio/parquet-engine/encoding"
	"github.com/segmentio/parquet-engine/format"
)

// DictionaryEncoding is the encoding of dictionary indexes in data pages: a
// single byte holding the bit width followed by the hybrid encoded indexes.
type DictionaryEncoding struct {
	encoding.NotSupported
}

func (e *DictionaryEncoding) String() string {
	return "RLE_DICTIONARY"
}

func (e *DictionaryEncoding) Encoding() format.Encoding {
	return format.RLEDictionary
}

func (e *DictionaryEncoding) EncodeInt32(dst []byte, src []int32) ([]byte, error) {
	bitWidth := maxLenInt32(src)
	if bitWidth < 0 {
		return dst[:0], encoding.Errorf(e, "negative dictionary index: %w", encoding.ErrInvalidArgument)
	}
	dst = append(dst[:0], byte(bitWidth))
	return encodeHybrid(dst, src, uint(bitWidth)), nil
}

func (e *DictionaryEncoding) DecodeInt32(dst []int32, src []byte) ([]int32, error) {
	if len(src) == 0 {
		return dst[:0], nil
	}
	bitWidth := uint(src[0])
	if bitWidth > 32 {
		return dst[:0], encoding.Errorf(e, "invalid bit width: %d: %w", bitWidth, encoding.ErrInvalidArgument)
	}
	dst, err := decodeHybrid(dst[:0], src[1:], bitWidth)
	if err != nil {
		err = encoding.Error(e, err)
	}
	return dst, err
}

func maxLenInt32(values []int32) int {
	width := 0
	for _, v := range values {
		if v < 0 {
			return -1
		}
		width = max(width, bits.Len32(uint32(v)))
	}
	return width
}

var (
	_ encoding.Encoding = (*DictionaryEncoding)(nil)
)
