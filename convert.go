package parquet

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/parquet-engine/deprecated"
	"github.com/segmentio/parquet-engine/format"
)

const secondsPerDay = 24 * 60 * 60

// toValue converts the Go value v to a parquet value of type typ, honoring the
// logical annotation of the type.
func toValue(typ Type, v interface{}) (Value, error) {
	if value, ok := v.(Value); ok {
		if value.Kind() != typ.Kind() {
			return Value{}, mismatch(typ, v)
		}
		return value, nil
	}

	logical := typ.LogicalType()
	if logical == nil {
		logical = new(format.LogicalType)
	}

	switch typ.Kind() {
	case Boolean:
		if b, ok := v.(bool); ok {
			return BooleanValue(b), nil
		}

	case Int32:
		switch x := v.(type) {
		case time.Time:
			if logical.Date != nil {
				return Int32Value(int32(floorDiv(x.Unix(), secondsPerDay))), nil
			}
		case time.Duration:
			if logical.Time != nil {
				return Int32Value(int32(x / time.Millisecond)), nil
			}
		default:
			i, ok := toInt64(v, 32, logical.Integer != nil && !logical.Integer.IsSigned)
			if ok {
				return Int32Value(int32(i)), nil
			}
		}

	case Int64:
		switch x := v.(type) {
		case time.Time:
			if logical.Timestamp != nil {
				return Int64Value(timestampOf(x, timeUnitOf(&logical.Timestamp.Unit))), nil
			}
			return Int64Value(x.UnixNano()), nil
		case time.Duration:
			if logical.Time != nil {
				return Int64Value(int64(x / timeUnitOf(&logical.Time.Unit).Duration())), nil
			}
			return Int64Value(int64(x)), nil
		default:
			i, ok := toInt64(v, 64, logical.Integer != nil && !logical.Integer.IsSigned)
			if ok {
				return Int64Value(i), nil
			}
		}

	case Int96:
		if x, ok := v.(deprecated.Int96); ok {
			return Int96Value(x), nil
		}

	case Float:
		switch x := v.(type) {
		case float32:
			return FloatValue(x), nil
		case float64:
			return FloatValue(float32(x)), nil
		}

	case Double:
		switch x := v.(type) {
		case float64:
			return DoubleValue(x), nil
		case float32:
			return DoubleValue(float64(x)), nil
		}

	case ByteArray:
		switch x := v.(type) {
		case string:
			return ByteArrayValue([]byte(x)), nil
		case []byte:
			return ByteArrayValue(x), nil
		}

	case FixedLenByteArray:
		var b []byte
		switch x := v.(type) {
		case uuid.UUID:
			b = x[:]
		case []byte:
			b = x
		default:
			rv := reflect.ValueOf(v)
			if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
				b = make([]byte, rv.Len())
				reflect.Copy(reflect.ValueOf(b), rv)
			}
		}
		if b != nil && len(b) == typ.Length() {
			return FixedLenByteArrayValue(b), nil
		}
	}

	return Value{}, mismatch(typ, v)
}

func mismatch(typ Type, v interface{}) error {
	return fmt.Errorf("%w: cannot write value of type %T to column of type %s", ErrTypeMismatch, v, typ)
}

// toInt64 converts Go integers to int64, verifying that they fit in the given
// number of bits. Unsigned columns accept the full range of unsigned values
// which are stored with the same bit pattern.
func toInt64(v interface{}, bitSize int, isUnsigned bool) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if bitSize == 32 && (i < math.MinInt32 || i > math.MaxInt32) {
			return 0, false
		}
		return i, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		limit := uint64(math.MaxInt64)
		switch {
		case bitSize == 32 && isUnsigned:
			limit = math.MaxUint32
		case bitSize == 32:
			limit = math.MaxInt32
		case isUnsigned:
			limit = math.MaxUint64
		}
		if u > limit {
			return 0, false
		}
		if bitSize == 32 {
			return int64(int32(uint32(u))), true
		}
		return int64(u), true
	default:
		return 0, false
	}
}

func timestampOf(t time.Time, unit TimeUnit) int64 {
	switch unit {
	case Millisecond:
		return t.UnixMilli()
	case Microsecond:
		return t.UnixMicro()
	default:
		return t.UnixNano()
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// fromValue converts a parquet value of type typ to its Go representation:
// bool, int32, int64, uint32 and uint64 for unsigned integers, float32,
// float64, deprecated.Int96, string for STRING, ENUM, and JSON, []byte,
// time.Time for DATE and TIMESTAMP, time.Duration for TIME, and uuid.UUID.
// Null values are converted to nil.
func fromValue(typ Type, v Value) interface{} {
	if v.IsNull() {
		return nil
	}

	logical := typ.LogicalType()
	if logical == nil {
		logical = new(format.LogicalType)
	}

	switch v.Kind() {
	case Boolean:
		return v.Boolean()

	case Int32:
		x := v.Int32()
		switch {
		case logical.Date != nil:
			return time.Unix(int64(x)*secondsPerDay, 0).UTC()
		case logical.Time != nil:
			return time.Duration(x) * time.Millisecond
		case logical.Integer != nil && !logical.Integer.IsSigned:
			return uint32(x)
		default:
			return x
		}

	case Int64:
		x := v.Int64()
		switch {
		case logical.Timestamp != nil:
			switch timeUnitOf(&logical.Timestamp.Unit) {
			case Millisecond:
				return time.UnixMilli(x).UTC()
			case Microsecond:
				return time.UnixMicro(x).UTC()
			default:
				return time.Unix(0, x).UTC()
			}
		case logical.Time != nil:
			return time.Duration(x) * timeUnitOf(&logical.Time.Unit).Duration()
		case logical.Integer != nil && !logical.Integer.IsSigned:
			return uint64(x)
		default:
			return x
		}

	case Int96:
		return v.Int96()

	case Float:
		return v.Float()

	case Double:
		return v.Double()

	case ByteArray:
		if logical.UTF8 != nil || logical.Enum != nil || logical.Json != nil {
			return string(v.ByteArray())
		}
		return v.ByteArray()

	default:
		if logical.UUID != nil {
			var id uuid.UUID
			copy(id[:], v.ByteArray())
			return id
		}
		return v.ByteArray()
	}
}
