// Package rle implements the hybrid RLE/Bit-Packed encoding employed in
// repetition and definition levels, dictionary encoded data pages, and
// boolean values in the PLAIN encoding.
//
// https://github.com/apache/parquet-format/blob/master/Encodings.md#run-length-encoding--bit-packing-hybrid-rle--3
package rle

import (
	"encoding/binary"
	"fmt"

	"github.com/segmentio/parquet-engine/encoding"
	"github.com/segmentio/parquet-engine/format"
	"github.com/segmentio/parquet-engine/internal/bitpack"
)

const (
	// This limit is intended to prevent unbounded memory allocations when
	// decoding runs.
	maxSupportedValueCount = encoding.MaxValues

	// Runs shorter than this are bit-packed rather than run-length encoded.
	minRunLength = 8
)

type Encoding struct {
	encoding.NotSupported
}

func (e *Encoding) String() string {
	return "RLE"
}

func (e *Encoding) Encoding() format.Encoding {
	return format.RLE
}

func (e *Encoding) EncodeLevels(dst []byte, src []uint8, bitWidth int) ([]byte, error) {
	if bitWidth < 0 || bitWidth > 8 {
		return dst[:0], encoding.Errorf(e, "invalid bit width for levels: %d: %w", bitWidth, encoding.ErrInvalidArgument)
	}
	return encodeHybrid(dst[:0], src, uint(bitWidth)), nil
}

// EncodeBoolean writes booleans with a bit width of 1, prefixed by the 4 bytes
// little-endian length of the encoded runs.
func (e *Encoding) EncodeBoolean(dst []byte, src []bool) ([]byte, error) {
	values := make([]uint8, len(src))
	for i, v := range src {
		if v {
			values[i] = 1
		}
	}
	dst = append(dst[:0], 0, 0, 0, 0)
	dst = encodeHybrid(dst, values, 1)
	binary.LittleEndian.PutUint32(dst, uint32(len(dst)-4))
	return dst, nil
}

func (e *Encoding) DecodeLevels(dst []uint8, src []byte, bitWidth int) ([]uint8, error) {
	if bitWidth < 0 || bitWidth > 8 {
		return dst[:0], encoding.Errorf(e, "invalid bit width for levels: %d: %w", bitWidth, encoding.ErrInvalidArgument)
	}
	dst, err := decodeHybrid(dst[:0], src, uint(bitWidth))
	if err != nil {
		err = encoding.Error(e, err)
	}
	return dst, err
}

func (e *Encoding) DecodeBoolean(dst []bool, src []byte) ([]bool, error) {
	if len(src) < 4 {
		return dst[:0], encoding.ErrDecodeInvalidInputSize(e, "BOOLEAN", len(src))
	}
	n := int(binary.LittleEndian.Uint32(src))
	if n > len(src)-4 {
		return dst[:0], encoding.Errorf(e, "boolean runs of length %d overflow input of size %d: %w", n, len(src)-4, encoding.ErrInvalidArgument)
	}
	values, err := decodeHybrid[uint8](nil, src[4:4+n], 1)
	if err != nil {
		return dst[:0], encoding.Error(e, err)
	}
	dst = dst[:0]
	for _, v := range values {
		dst = append(dst, v != 0)
	}
	return dst, nil
}

type integer interface {
	~uint8 | ~int32
}

// encodeHybrid appends the hybrid encoding of src to dst. Values are assumed
// to fit on bitWidth bits.
//
// Runs of at least 8 repeated values are run-length encoded, other values are
// accumulated in groups of 8 and emitted as bit-packed runs. Only the last
// group may be padded with zeros.
func encodeHybrid[T integer](dst []byte, src []T, bitWidth uint) []byte {
	if bitWidth == 0 {
		if len(src) > 0 {
			dst = appendRunLength(dst, 0, len(src), 0)
		}
		return dst
	}

	var literals []T
	flush := func() {
		if len(literals) > 0 {
			dst = appendBitPacked(dst, literals, bitWidth)
			literals = literals[:0]
		}
	}

	for i := 0; i < len(src); {
		j := i + 1
		for j < len(src) && src[j] == src[i] {
			j++
		}

		if (j - i) >= minRunLength {
			flush()
			dst = appendRunLength(dst, uint64(src[i]), j-i, bitWidth)
			i = j
			continue
		}

		n := min(len(src)-i, 8)
		literals = append(literals, src[i:i+n]...)
		i += n
	}

	flush()
	return dst
}

func appendRunLength(dst []byte, value uint64, count int, bitWidth uint) []byte {
	dst = binary.AppendUvarint(dst, uint64(count)<<1)
	for i := 0; i < bitpack.ByteCount(bitWidth); i++ {
		dst = append(dst, byte(value>>(8*uint(i))))
	}
	return dst
}

func appendBitPacked[T integer](dst []byte, values []T, bitWidth uint) []byte {
	groups := (len(values) + 7) / 8
	dst = binary.AppendUvarint(dst, uint64(groups)<<1|1)

	padded := make([]int32, 8*groups)
	for i, v := range values {
		padded[i] = int32(v)
	}

	offset := len(dst)
	dst = append(dst, make([]byte, bitpack.ByteCount(uint(len(padded))*bitWidth))...)
	bitpack.PackInt32(dst[offset:], padded, bitWidth)
	return dst
}

// decodeHybrid appends the values decoded from src to dst.
func decodeHybrid[T integer](dst []T, src []byte, bitWidth uint) ([]T, error) {
	for i := 0; i < len(src); {
		header, n := binary.Uvarint(src[i:])
		if n <= 0 {
			return dst, fmt.Errorf("decoding run header at offset %d: %w", i, encoding.ErrInvalidArgument)
		}
		i += n

		count := header >> 1
		if count > uint64(maxSupportedValueCount-len(dst)) {
			return dst, fmt.Errorf("run of %d values exceeds the maximum value count: %w", count, encoding.ErrInvalidArgument)
		}

		if (header & 1) == 0 {
			size := bitpack.ByteCount(bitWidth)
			if size > len(src)-i {
				return dst, fmt.Errorf("run-length value at offset %d is truncated: %w", i, encoding.ErrInvalidArgument)
			}
			value := uint64(0)
			for k := 0; k < size; k++ {
				value |= uint64(src[i+k]) << (8 * uint(k))
			}
			if bitWidth < 64 && value >= (1<<bitWidth) {
				return dst, fmt.Errorf("run-length value %d does not fit on %d bits: %w", value, bitWidth, encoding.ErrInvalidArgument)
			}
			i += size
			for k := uint64(0); k < count; k++ {
				dst = append(dst, T(value))
			}
			continue
		}

		count *= 8
		if count > uint64(maxSupportedValueCount-len(dst)) {
			return dst, fmt.Errorf("bit-packed run of %d values exceeds the maximum value count: %w", count, encoding.ErrInvalidArgument)
		}
		size := bitpack.ByteCount(uint(count) * bitWidth)
		if size > len(src)-i {
			// Writers are allowed to omit the padding bytes of the last
			// group, in which case only the values present are decoded.
			size = len(src) - i
			if bitWidth > 0 {
				count = uint64(size*8) / uint64(bitWidth)
			}
		}
		values := make([]int32, count)
		bitpack.UnpackInt32(values, src[i:i+size], bitWidth)
		for _, v := range values {
			dst = append(dst, T(v))
		}
		i += size
	}
	return dst, nil
}

var (
	_ encoding.Encoding = (*Encoding)(nil)
)
