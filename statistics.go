package parquet

import (
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/segmentio/parquet-engine/format"
)

// Statistics summarizes the values of a column chunk or a page.
//
// Min and max are only present when at least one non-null, non-NaN value was
// observed; they are ordered by the column type.
type Statistics struct {
	min              Value
	max              Value
	hasMinMax        bool
	nullCount        int64
	distinctCount    int64
	hasDistinctCount bool
}

// Min returns the minimum value and true, or false if the statistics carry
// no bounds.
func (s Statistics) Min() (Value, bool) { return s.min, s.hasMinMax }

// Max returns the maximum value and true, or false if the statistics carry no
// bounds.
func (s Statistics) Max() (Value, bool) { return s.max, s.hasMinMax }

// NullCount returns the number of null values.
func (s Statistics) NullCount() int64 { return s.nullCount }

// DistinctCount returns the number of distinct non-null values and true, or
// false if it is unknown.
//
// Byte array and INT96 values are told apart by a 64 bits hash of their
// content, so their count is an estimate which may fall short on hash
// collisions. Writers stop counting when a column chunk holds more distinct
// values than the DictionaryFallbackThreshold option, or when its dictionary
// falls back.
func (s Statistics) DistinctCount() (int64, bool) { return s.distinctCount, s.hasDistinctCount }

func (s Statistics) toFormat() format.Statistics {
	stats := format.Statistics{
		NullCount: s.nullCount,
	}
	if s.hasDistinctCount {
		stats.DistinctCount = s.distinctCount
	}
	if s.hasMinMax {
		stats.MinValue = s.min.AppendBytes(nil)
		stats.MaxValue = s.max.AppendBytes(nil)
	}
	return stats
}

// statisticsFromFormat converts footer statistics of a column of type typ.
// The deprecated min and max fields are only used for types whose legacy
// ordering is signed, byte arrays were compared with a signed byte order by
// old writers.
func statisticsFromFormat(typ Type, stats *format.Statistics) (Statistics, error) {
	s := Statistics{
		nullCount:        stats.NullCount,
		distinctCount:    stats.DistinctCount,
		hasDistinctCount: stats.DistinctCount > 0,
	}
	minValue, maxValue := stats.MinValue, stats.MaxValue
	if minValue == nil && maxValue == nil {
		switch typ.Kind() {
		case ByteArray, FixedLenByteArray:
		default:
			minValue, maxValue = stats.Min, stats.Max
		}
	}
	if minValue == nil || maxValue == nil {
		return s, nil
	}
	var err error
	if s.min, err = valueFromBytes(typ.Kind(), minValue); err != nil {
		return s, err
	}
	if s.max, err = valueFromBytes(typ.Kind(), maxValue); err != nil {
		return s, err
	}
	s.hasMinMax = true
	return s, nil
}

// statisticsBuilder accumulates statistics over the values written to a
// column. Updates are monotonic: bounds only widen and counts only grow.
type statisticsBuilder struct {
	typ      Type
	stats    Statistics
	distinct map[uint64]struct{}
	// zero means no limit
	maxDistinct int
}

func newStatisticsBuilder(typ Type, countDistinct bool) *statisticsBuilder {
	b := &statisticsBuilder{typ: typ}
	if countDistinct {
		b.distinct = make(map[uint64]struct{})
	}
	return b
}

func (b *statisticsBuilder) observe(v Value) {
	if v.IsNull() {
		b.stats.nullCount++
		return
	}
	if b.distinct != nil {
		b.distinct[distinctKey(v)] = struct{}{}
		if b.maxDistinct > 0 && len(b.distinct) > b.maxDistinct {
			b.dropDistinctCount()
		}
	}
	if isNaN(v) {
		return
	}
	switch {
	case !b.stats.hasMinMax:
		b.stats.min, b.stats.max, b.stats.hasMinMax = v.Clone(), v.Clone(), true
	case b.typ.Compare(v, b.stats.min) < 0:
		b.stats.min = v.Clone()
	case b.typ.Compare(v, b.stats.max) > 0:
		b.stats.max = v.Clone()
	}
}

func (b *statisticsBuilder) statistics() Statistics {
	s := b.stats
	s.min = s.min.Level(0, 0, -1)
	s.max = s.max.Level(0, 0, -1)
	if b.distinct != nil {
		s.distinctCount, s.hasDistinctCount = int64(len(b.distinct)), true
	}
	return s
}

// dropDistinctCount stops distinct counting for good, the statistics no
// longer carry a distinct count.
func (b *statisticsBuilder) dropDistinctCount() {
	b.distinct = nil
}

func (b *statisticsBuilder) reset() {
	b.stats = Statistics{}
	clear(b.distinct)
}

// distinctKey returns the identity of a value for distinct counting: its bits
// for fixed size kinds, a hash of its content otherwise.
func distinctKey(v Value) uint64 {
	switch v.Kind() {
	case Int96, ByteArray, FixedLenByteArray:
		return xxhash.Sum64(v.ptr)
	default:
		return v.u64
	}
}

func isNaN(v Value) bool {
	switch v.Kind() {
	case Float:
		return math.IsNaN(float64(v.Float()))
	case Double:
		return math.IsNaN(v.Double())
	default:
		return false
	}
}
