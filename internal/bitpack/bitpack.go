// Package bitpack implements bit packing and unpacking routines for integers
// of various bit widths.
//
// Values are packed least significant bit first, which is the layout used by
// the bit-packed runs of the parquet RLE/bit-packing hybrid encoding and by
// the miniblocks of the DELTA_BINARY_PACKED encoding.
package bitpack

// ByteCount returns the number of bytes needed to hold the given bit count.
func ByteCount(bitCount uint) int {
	return int((bitCount + 7) / 8)
}

// PackInt32 packs values from src to dst, each value being packed into the
// given bit width regardless of how many bits are needed to represent it.
//
// The function panics if dst is too short to hold the bit packed values.
func PackInt32(dst []byte, src []int32, bitWidth uint) {
	packBits(dst, len(src), bitWidth, func(i int) uint64 { return uint64(uint32(src[i])) })
}

// PackInt64 packs values from src to dst, each value being packed into the
// given bit width regardless of how many bits are needed to represent it.
//
// The function panics if dst is too short to hold the bit packed values.
func PackInt64(dst []byte, src []int64, bitWidth uint) {
	packBits(dst, len(src), bitWidth, func(i int) uint64 { return uint64(src[i]) })
}

// UnpackInt32 unpacks 32 bit integers from src to dst.
//
// The function panics if src is too short to contain len(dst) values of the
// given bit width.
func UnpackInt32(dst []int32, src []byte, bitWidth uint) {
	unpackBits(src, len(dst), bitWidth, func(i int, v uint64) { dst[i] = int32(v) })
}

// UnpackInt64 unpacks 64 bit integers from src to dst.
//
// The function panics if src is too short to contain len(dst) values of the
// given bit width.
func UnpackInt64(dst []int64, src []byte, bitWidth uint) {
	unpackBits(src, len(dst), bitWidth, func(i int, v uint64) { dst[i] = int64(v) })
}

func packBits(dst []byte, count int, bitWidth uint, value func(int) uint64) {
	size := ByteCount(uint(count) * bitWidth)
	clear(dst[:size])

	bitOffset := uint(0)
	for k := 0; k < count; k++ {
		u := value(k)
		if bitWidth < 64 {
			u &= (1 << bitWidth) - 1
		}
		for n := uint(0); n < bitWidth; {
			i, shift := bitOffset/8, bitOffset%8
			w := min(8-shift, bitWidth-n)
			dst[i] |= byte(u << shift)
			u >>= w
			n += w
			bitOffset += w
		}
	}
}

func unpackBits(src []byte, count int, bitWidth uint, store func(int, uint64)) {
	bitOffset := uint(0)
	for k := 0; k < count; k++ {
		u := uint64(0)
		for n := uint(0); n < bitWidth; {
			i, shift := bitOffset/8, bitOffset%8
			w := min(8-shift, bitWidth-n)
			b := uint64(src[i]>>shift) & ((1 << w) - 1)
			u |= b << n
			n += w
			bitOffset += w
		}
		store(k, u)
	}
}
