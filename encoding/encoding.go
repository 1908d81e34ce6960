// Package encoding provides the generic APIs implemented by parquet encodings
// in its sub-packages.
package encoding

import (
	"math"

	"github.com/segmentio/parquet-engine/deprecated"
	"github.com/segmentio/parquet-engine/format"
)

const (
	// MaxFixedLenByteArraySize is the maximum size of FIXED_LEN_BYTE_ARRAY
	// values that the encodings accept.
	MaxFixedLenByteArraySize = math.MaxInt16

	// MaxValues is the upper bound on the number of values that a single
	// decode call may produce. It protects decoders from corrupted run lengths
	// which would otherwise trigger unbounded allocations.
	MaxValues = math.MaxInt32
)

// The Encoding interface is implemented by types representing parquet column
// encodings.
//
// Encoding instances must be safe to use concurrently from multiple goroutines.
//
// The encode methods write the encoded form of src to dst, reusing its backing
// array when it is large enough, and return the resulting slice. The decode
// methods work the same way in the other direction. Only non-null values are
// ever passed to encodings.
//
// Byte arrays are represented by the concatenation of their values and a
// slice of offsets of length n+1, value i being data[offsets[i]:offsets[i+1]].
//
// Encodings which pack values on groups of bits (booleans, levels) may decode
// trailing padding values, callers are expected to truncate the output to the
// number of values they know the page holds.
type Encoding interface {
	// Returns a human-readable name for the encoding.
	String() string

	// Returns the parquet code representing the encoding.
	Encoding() format.Encoding

	EncodeLevels(dst []byte, src []uint8, bitWidth int) ([]byte, error)
	EncodeBoolean(dst []byte, src []bool) ([]byte, error)
	EncodeInt32(dst []byte, src []int32) ([]byte, error)
	EncodeInt64(dst []byte, src []int64) ([]byte, error)
	EncodeInt96(dst []byte, src []deprecated.Int96) ([]byte, error)
	EncodeFloat(dst []byte, src []float32) ([]byte, error)
	EncodeDouble(dst []byte, src []float64) ([]byte, error)
	EncodeByteArray(dst []byte, src []byte, offsets []uint32) ([]byte, error)
	EncodeFixedLenByteArray(dst []byte, src []byte, size int) ([]byte, error)

	DecodeLevels(dst []uint8, src []byte, bitWidth int) ([]uint8, error)
	DecodeBoolean(dst []bool, src []byte) ([]bool, error)
	DecodeInt32(dst []int32, src []byte) ([]int32, error)
	DecodeInt64(dst []int64, src []byte) ([]int64, error)
	DecodeInt96(dst []deprecated.Int96, src []byte) ([]deprecated.Int96, error)
	DecodeFloat(dst []float32, src []byte) ([]float32, error)
	DecodeDouble(dst []float64, src []byte) ([]float64, error)
	DecodeByteArray(dst []byte, offsets []uint32, src []byte) ([]byte, []uint32, error)
	DecodeFixedLenByteArray(dst []byte, src []byte, size int) ([]byte, error)
}

// ByteArrayCount returns the number of values represented by the given slice
// of byte array offsets.
func ByteArrayCount(offsets []uint32) int {
	if len(offsets) == 0 {
		return 0
	}
	return len(offsets) - 1
}
