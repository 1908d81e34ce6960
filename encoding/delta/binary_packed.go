package delta

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/segmentio/parquet-engine/encoding"
	"github.com/segmentio/parquet-engine/format"
	"github.com/segmentio/parquet-engine/internal/bitpack"
)

const (
	blockSize     = 128
	numMiniBlocks = 4
	miniBlockSize = blockSize / numMiniBlocks
	// Upper bound on the block size accepted when decoding, which guards
	// against allocating huge blocks from corrupted headers.
	maxSupportedBlockSize = 65536
)

type BinaryPackedEncoding struct {
	encoding.NotSupported
}

func (e *BinaryPackedEncoding) String() string {
	return "DELTA_BINARY_PACKED"
}

func (e *BinaryPackedEncoding) Encoding() format.Encoding {
	return format.DeltaBinaryPacked
}

func (e *BinaryPackedEncoding) EncodeInt32(dst []byte, src []int32) ([]byte, error) {
	return encodeBinaryPacked(dst[:0], src, 32), nil
}

func (e *BinaryPackedEncoding) EncodeInt64(dst []byte, src []int64) ([]byte, error) {
	return encodeBinaryPacked(dst[:0], src, 64), nil
}

func (e *BinaryPackedEncoding) DecodeInt32(dst []int32, src []byte) ([]int32, error) {
	dst, _, err := decodeBinaryPacked(dst[:0], src, 32)
	if err != nil {
		err = encoding.Error(e, err)
	}
	return dst, err
}

func (e *BinaryPackedEncoding) DecodeInt64(dst []int64, src []byte) ([]int64, error) {
	dst, _, err := decodeBinaryPacked(dst[:0], src, 64)
	if err != nil {
		err = encoding.Error(e, err)
	}
	return dst, err
}

type integer interface {
	~int32 | ~int64
}

// unsigned returns the bitSize low bits of v as an unsigned integer.
func unsigned[T integer](v T, bitSize uint) uint64 {
	if bitSize == 32 {
		return uint64(uint32(v))
	}
	return uint64(v)
}

// encodeBinaryPacked appends the DELTA_BINARY_PACKED representation of src to
// dst. Deltas are computed with the wrapping arithmetic of T so that 32 bits
// columns never need more than 32 bits per packed value.
func encodeBinaryPacked[T integer](dst []byte, src []T, bitSize uint) []byte {
	var firstValue T
	if len(src) > 0 {
		firstValue = src[0]
	}

	dst = binary.AppendUvarint(dst, blockSize)
	dst = binary.AppendUvarint(dst, numMiniBlocks)
	dst = binary.AppendUvarint(dst, uint64(len(src)))
	dst = binary.AppendVarint(dst, int64(firstValue))

	if len(src) < 2 {
		return dst
	}

	deltas := make([]T, blockSize)
	packed := make([]int64, miniBlockSize)

	for i := 1; i < len(src); i += blockSize {
		n := min(blockSize, len(src)-i)
		block := deltas[:n]
		for j := range block {
			block[j] = src[i+j] - src[i+j-1]
		}

		minDelta := block[0]
		for _, d := range block[1:] {
			minDelta = min(minDelta, d)
		}
		dst = binary.AppendVarint(dst, int64(minDelta))

		var bitWidths [numMiniBlocks]uint
		for m := range bitWidths {
			lo := m * miniBlockSize
			if lo >= n {
				break
			}
			hi := min(lo+miniBlockSize, n)
			maxValue := uint64(0)
			for _, d := range block[lo:hi] {
				maxValue = max(maxValue, unsigned(d-minDelta, bitSize))
			}
			bitWidths[m] = uint(bits.Len64(maxValue))
		}
		for _, w := range bitWidths {
			dst = append(dst, byte(w))
		}

		for m, w := range bitWidths {
			lo := m * miniBlockSize
			if lo >= n {
				break
			}
			hi := min(lo+miniBlockSize, n)
			clear(packed)
			for j, d := range block[lo:hi] {
				packed[j] = int64(unsigned(d-minDelta, bitSize))
			}
			offset := len(dst)
			dst = append(dst, make([]byte, bitpack.ByteCount(miniBlockSize*w))...)
			bitpack.PackInt64(dst[offset:], packed, w)
		}
	}

	return dst
}

// decodeBinaryPacked appends the values decoded from src to dst and returns
// the remaining bytes of src that follow the encoded values.
func decodeBinaryPacked[T integer](dst []T, src []byte, bitSize uint) ([]T, []byte, error) {
	blockSize, src, err := readUvarint(src, "block size")
	if err != nil {
		return dst, src, err
	}
	numMiniBlocks, src, err := readUvarint(src, "number of mini blocks")
	if err != nil {
		return dst, src, err
	}
	totalValues, src, err := readUvarint(src, "total value count")
	if err != nil {
		return dst, src, err
	}
	firstValue, src, err := readVarint(src, "first value")
	if err != nil {
		return dst, src, err
	}

	if blockSize == 0 || blockSize > maxSupportedBlockSize || (blockSize%128) != 0 {
		return dst, src, fmt.Errorf("invalid block size: %d: %w", blockSize, encoding.ErrInvalidArgument)
	}
	if numMiniBlocks == 0 || (blockSize%numMiniBlocks) != 0 || ((blockSize/numMiniBlocks)%32) != 0 {
		return dst, src, fmt.Errorf("invalid number of mini blocks: %d: %w", numMiniBlocks, encoding.ErrInvalidArgument)
	}
	if totalValues > uint64(encoding.MaxValues-len(dst)) {
		return dst, src, fmt.Errorf("too many values: %d: %w", totalValues, encoding.ErrInvalidArgument)
	}
	if totalValues == 0 {
		return dst, src, nil
	}

	miniBlockValues := int(blockSize / numMiniBlocks)
	unpacked := make([]int64, miniBlockValues)
	lastValue := T(firstValue)
	dst = append(dst, lastValue)
	remain := int(totalValues) - 1

	for remain > 0 {
		minDelta, rest, err := readVarint(src, "min delta")
		if err != nil {
			return dst, src, err
		}
		src = rest

		if uint64(len(src)) < numMiniBlocks {
			return dst, src, fmt.Errorf("missing mini block bit widths: %w", encoding.ErrInvalidArgument)
		}
		bitWidths := src[:numMiniBlocks]
		src = src[numMiniBlocks:]

		for _, w := range bitWidths {
			if remain == 0 {
				break
			}
			if uint(w) > bitSize {
				return dst, src, fmt.Errorf("invalid mini block bit width: %d: %w", w, encoding.ErrInvalidArgument)
			}
			n := min(miniBlockValues, remain)
			need := bitpack.ByteCount(uint(n) * uint(w))
			if need > len(src) {
				return dst, src, fmt.Errorf("mini block of %d bytes is truncated to %d: %w", need, len(src), encoding.ErrInvalidArgument)
			}
			bitpack.UnpackInt64(unpacked[:n], src, uint(w))
			for _, u := range unpacked[:n] {
				lastValue += T(minDelta) + T(u)
				dst = append(dst, lastValue)
			}
			src = src[min(len(src), bitpack.ByteCount(uint(miniBlockValues)*uint(w))):]
			remain -= n
		}
	}

	return dst, src, nil
}

func readUvarint(src []byte, what string) (uint64, []byte, error) {
	u, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, src, fmt.Errorf("decoding %s: %w", what, encoding.ErrInvalidArgument)
	}
	return u, src[n:], nil
}

func readVarint(src []byte, what string) (int64, []byte, error) {
	v, n := binary.Varint(src)
	if n <= 0 {
		return 0, src, fmt.Errorf("decoding %s: %w", what, encoding.ErrInvalidArgument)
	}
	return v, src[n:], nil
}

var (
	_ encoding.Encoding = (*BinaryPackedEncoding)(nil)
)
