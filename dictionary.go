package parquet

import (
	"fmt"
)

// dictionary holds the distinct values of a dictionary encoded column chunk.
// Values are identified by their insertion index, which is what data pages
// reference. Dictionaries do not apply to booleans.
type dictionary struct {
	kind   Kind
	length int
	values []Value
	fixed  map[uint64]int32
	bytes  map[string]int32
	// Size of the PLAIN encoding of the values.
	size int64
}

func newDictionary(kind Kind, length int) *dictionary {
	d := &dictionary{kind: kind, length: length}
	switch kind {
	case Int96, ByteArray, FixedLenByteArray:
		d.bytes = make(map[string]int32)
	default:
		d.fixed = make(map[uint64]int32)
	}
	return d
}

func (d *dictionary) Len() int { return len(d.values) }

// insert returns the index of v in the dictionary, adding it if needed.
func (d *dictionary) insert(v Value) int32 {
	if d.bytes != nil {
		if i, ok := d.bytes[string(v.ptr)]; ok {
			return i
		}
		i := int32(len(d.values))
		v = v.Clone()
		d.bytes[string(v.ptr)] = i
		d.values = append(d.values, makeValueBytes(d.kind, v.ptr))
		d.size += v.size()
		return i
	}
	if i, ok := d.fixed[v.u64]; ok {
		return i
	}
	i := int32(len(d.values))
	d.fixed[v.u64] = i
	d.values = append(d.values, makeValueU64(d.kind, v.u64))
	d.size += v.size()
	return i
}

// lookup appends the values referenced by indexes to dst.
func (d *dictionary) lookup(dst []Value, indexes []int32) ([]Value, error) {
	for _, i := range indexes {
		if i < 0 || int(i) >= len(d.values) {
			return dst, fmt.Errorf("%w: dictionary index %d out of range [0:%d]", ErrCorruptedPage, i, len(d.values))
		}
		dst = append(dst, d.values[i])
	}
	return dst, nil
}

// encode appends the PLAIN encoding of the dictionary values to dst.
func (d *dictionary) encode(dst []byte) ([]byte, error) {
	codec, err := valueCodecOf(d.kind)
	if err != nil {
		return dst, err
	}
	return codec.encode(Plain, dst, d.values, d.length)
}

func (d *dictionary) reset() {
	d.values = d.values[:0]
	d.size = 0
	clear(d.fixed)
	clear(d.bytes)
}

// decodeDictionary loads the content of a dictionary page holding numValues
// PLAIN encoded values.
func decodeDictionary(kind Kind, length int, enc Encoding, src []byte, numValues int) (*dictionary, error) {
	if kind == Boolean {
		return nil, fmt.Errorf("%w: dictionary page in a BOOLEAN column", ErrCorruptedPage)
	}
	codec, err := valueCodecOf(kind)
	if err != nil {
		return nil, err
	}
	values, err := codec.decode(enc, make([]Value, 0, numValues), src, length)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding dictionary page: %w", ErrCorruptedPage, err)
	}
	if len(values) != numValues {
		return nil, fmt.Errorf("%w: dictionary page holds %d values but its header declares %d", ErrCorruptedPage, len(values), numValues)
	}
	d := &dictionary{kind: kind, length: length, values: values}
	for _, v := range values {
		d.size += v.size()
	}
	return d, nil
}
