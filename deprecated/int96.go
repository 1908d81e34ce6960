package deprecated

import (
	"encoding/binary"
	"math/big"
)

// Int96 is a value of the legacy INT96 physical type, mostly found in files
// holding impala timestamps.
//
// Words are little-endian, the most significant one last. The value is signed
// two's complement.
type Int96 [3]uint32

// Int64ToInt96 sign extends value to 96 bits.
func Int64ToInt96(value int64) Int96 {
	var high uint32
	if value < 0 {
		high = ^uint32(0)
	}
	return Int96{uint32(value), uint32(value >> 32), high}
}

// Negative reports whether the sign bit of i is set.
func (i Int96) Negative() bool { return int32(i[2]) < 0 }

// Compare returns -1, 0 or +1 depending on whether i is lower, equal or
// greater than j in signed order.
func (i Int96) Compare(j Int96) int {
	if a, b := int32(i[2]), int32(j[2]); a != b {
		if a < b {
			return -1
		}
		return +1
	}
	for k := 1; k >= 0; k-- {
		if i[k] != j[k] {
			if i[k] < j[k] {
				return -1
			}
			return +1
		}
	}
	return 0
}

func (i Int96) Less(j Int96) bool { return i.Compare(j) < 0 }

// Int converts i to a big.Int.
func (i Int96) Int() *big.Int {
	z := big.NewInt(int64(int32(i[2])))
	z.Lsh(z, 32).Or(z, big.NewInt(int64(i[1])))
	z.Lsh(z, 32).Or(z, big.NewInt(int64(i[0])))
	return z
}

func (i Int96) String() string { return i.Int().String() }

// AppendInt96 appends the 12 bytes PLAIN representation of v to b.
func AppendInt96(b []byte, v Int96) []byte {
	for _, w := range v {
		b = binary.LittleEndian.AppendUint32(b, w)
	}
	return b
}

// BytesToInt96 decodes the first 12 bytes of b, it panics if b is shorter.
func BytesToInt96(b []byte) Int96 {
	_ = b[11]
	return Int96{
		binary.LittleEndian.Uint32(b[0:]),
		binary.LittleEndian.Uint32(b[4:]),
		binary.LittleEndian.Uint32(b[8:]),
	}
}
