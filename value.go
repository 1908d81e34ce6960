package parquet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/parquet-engine/deprecated"
)

// The Value type is similar to the reflect.Value abstraction of Go values, but
// for parquet values. Value instances wrap underlying Go values mapped to one
// of the parquet physical types, and carry the repetition and definition
// levels and the column index of the leaf occurrence they represent.
//
// The zero value of Value is a null value at levels zero.
type Value struct {
	// data
	ptr []byte
	u64 uint64
	// type
	kind int8 // XOR(Kind) so the zero-value is <nil>
	// levels
	definitionLevel uint8
	repetitionLevel uint8
	columnIndex     int16 // XOR so the zero-value is -1
}

// ValueOf constructs a parquet value from a Go value v.
//
// Signed and unsigned integers of 32 bits or less map to INT32, 64 bits
// integers to INT64, strings and byte slices to BYTE_ARRAY, byte arrays and
// UUIDs to FIXED_LEN_BYTE_ARRAY. time.Time values are converted to INT64
// nanoseconds since the Unix epoch.
//
// The function panics if the Go value cannot be represented in parquet.
func ValueOf(v interface{}) Value {
	switch value := v.(type) {
	case nil:
		return Value{}
	case Value:
		return value
	case uuid.UUID:
		return makeValueBytes(FixedLenByteArray, value[:])
	case deprecated.Int96:
		return Int96Value(value)
	case time.Time:
		return Int64Value(value.UnixNano())
	case time.Duration:
		return Int64Value(int64(value))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return BooleanValue(rv.Bool())
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return Int32Value(int32(rv.Int()))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Int32Value(int32(rv.Uint()))
	case reflect.Int, reflect.Int64:
		return Int64Value(rv.Int())
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return Int64Value(int64(rv.Uint()))
	case reflect.Float32:
		return FloatValue(float32(rv.Float()))
	case reflect.Float64:
		return DoubleValue(rv.Float())
	case reflect.String:
		return makeValueBytes(ByteArray, []byte(rv.String()))
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return makeValueBytes(ByteArray, rv.Bytes())
		}
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return makeValueBytes(FixedLenByteArray, b)
		}
	}

	panic("cannot create parquet value from go value of type " + rv.Type().String())
}

// NullValue constructs a null value, which is the zero-value of the Value type.
func NullValue() Value { return Value{} }

// BooleanValue constructs a BOOLEAN parquet value from the bool passed as
// argument.
func BooleanValue(value bool) Value {
	v := makeValueKind(Boolean)
	if value {
		v.u64 = 1
	}
	return v
}

// Int32Value constructs a INT32 parquet value from the int32 passed as
// argument.
func Int32Value(value int32) Value { return makeValueU64(Int32, uint64(uint32(value))) }

// Int64Value constructs a INT64 parquet value from the int64 passed as
// argument.
func Int64Value(value int64) Value { return makeValueU64(Int64, uint64(value)) }

// Int96Value constructs a INT96 parquet value from the deprecated.Int96 passed
// as argument.
func Int96Value(value deprecated.Int96) Value {
	return makeValueBytes(Int96, deprecated.AppendInt96(make([]byte, 0, 12), value))
}

// FloatValue constructs a FLOAT parquet value from the float32 passed as
// argument.
func FloatValue(value float32) Value { return makeValueU64(Float, uint64(math.Float32bits(value))) }

// DoubleValue constructs a DOUBLE parquet value from the float64 passed as
// argument.
func DoubleValue(value float64) Value { return makeValueU64(Double, math.Float64bits(value)) }

// ByteArrayValue constructs a BYTE_ARRAY parquet value from the byte slice
// passed as argument. The value retains the slice.
func ByteArrayValue(value []byte) Value { return makeValueBytes(ByteArray, value) }

// FixedLenByteArrayValue constructs a FIXED_LEN_BYTE_ARRAY parquet value from
// the byte slice passed as argument. The value retains the slice.
func FixedLenByteArrayValue(value []byte) Value { return makeValueBytes(FixedLenByteArray, value) }

func makeValueKind(kind Kind) Value {
	return Value{kind: ^int8(kind)}
}

func makeValueU64(kind Kind, value uint64) Value {
	v := makeValueKind(kind)
	v.u64 = value
	return v
}

func makeValueBytes(kind Kind, value []byte) Value {
	v := makeValueKind(kind)
	v.ptr = value
	return v
}

// Kind returns the kind of v, which represents its parquet physical type.
// Null values have the kind -1.
func (v Value) Kind() Kind { return ^Kind(v.kind) }

// IsNull returns true if v is the null value.
func (v Value) IsNull() bool { return v.kind == 0 }

// Boolean returns v as a bool, assuming the underlying type is BOOLEAN.
func (v Value) Boolean() bool { return v.u64 != 0 }

// Int32 returns v as a int32, assuming the underlying type is INT32.
func (v Value) Int32() int32 { return int32(v.u64) }

// Int64 returns v as a int64, assuming the underlying type is INT64.
func (v Value) Int64() int64 { return int64(v.u64) }

// Int96 returns v as a deprecated.Int96, assuming the underlying type is INT96.
func (v Value) Int96() deprecated.Int96 {
	if len(v.ptr) < 12 {
		return deprecated.Int96{}
	}
	return deprecated.BytesToInt96(v.ptr)
}

// Float returns v as a float32, assuming the underlying type is FLOAT.
func (v Value) Float() float32 { return math.Float32frombits(uint32(v.u64)) }

// Double returns v as a float64, assuming the underlying type is DOUBLE.
func (v Value) Double() float64 { return math.Float64frombits(v.u64) }

// ByteArray returns v as a []byte, assuming the underlying type is either
// BYTE_ARRAY, FIXED_LEN_BYTE_ARRAY or INT96.
//
// The application must treat the returned byte slice as a read-only value,
// mutating the content will result in undefined behaviors.
func (v Value) ByteArray() []byte { return v.ptr }

// RepetitionLevel returns the repetition level of v.
func (v Value) RepetitionLevel() int { return int(v.repetitionLevel) }

// DefinitionLevel returns the definition level of v.
func (v Value) DefinitionLevel() int { return int(v.definitionLevel) }

// Column returns the column index of v, or -1 if it was not assigned one.
func (v Value) Column() int { return int(^v.columnIndex) }

// Level returns a copy of v with the repetition level, definition level, and
// column index set to the values passed as arguments.
//
// The method panics if either argument is negative or above the maximum level
// of any column (255).
func (v Value) Level(repetitionLevel, definitionLevel, columnIndex int) Value {
	v.repetitionLevel = makeLevel(repetitionLevel)
	v.definitionLevel = makeLevel(definitionLevel)
	v.columnIndex = ^makeColumnIndex(columnIndex)
	return v
}

func makeLevel(level int) uint8 {
	if level < 0 || level > math.MaxUint8 {
		panic(fmt.Sprintf("invalid level %d", level))
	}
	return uint8(level)
}

func makeColumnIndex(index int) int16 {
	if index < -1 || index > math.MaxInt16 {
		panic(fmt.Sprintf("invalid column index %d", index))
	}
	return int16(index)
}

// Clone returns a copy of v which does not share any memory with it.
func (v Value) Clone() Value {
	if v.ptr != nil {
		v.ptr = bytes.Clone(v.ptr)
	}
	return v
}

// AppendBytes appends the PLAIN representation of v to b, without the length
// prefix of byte arrays. This is the representation used in statistics.
func (v Value) AppendBytes(b []byte) []byte {
	switch v.Kind() {
	case Boolean:
		return append(b, byte(v.u64))
	case Int32, Float:
		return binary.LittleEndian.AppendUint32(b, uint32(v.u64))
	case Int64, Double:
		return binary.LittleEndian.AppendUint64(b, v.u64)
	case Int96, ByteArray, FixedLenByteArray:
		return append(b, v.ptr...)
	default:
		return b
	}
}

// valueFromBytes is the inverse of AppendBytes.
func valueFromBytes(kind Kind, b []byte) (Value, error) {
	size := 0
	switch kind {
	case Boolean:
		size = 1
	case Int32, Float:
		size = 4
	case Int64, Double:
		size = 8
	case Int96:
		size = 12
	default:
		return makeValueBytes(kind, bytes.Clone(b)), nil
	}
	if len(b) != size {
		return Value{}, fmt.Errorf("invalid %s value of size %d", kind, len(b))
	}
	switch size {
	case 1:
		return BooleanValue(b[0] != 0), nil
	case 4:
		return makeValueU64(kind, uint64(binary.LittleEndian.Uint32(b))), nil
	case 8:
		return makeValueU64(kind, binary.LittleEndian.Uint64(b)), nil
	default:
		return makeValueBytes(kind, bytes.Clone(b)), nil
	}
}

// String returns a human-readable representation of the value content.
func (v Value) String() string {
	switch v.Kind() {
	case Boolean:
		return fmt.Sprint(v.Boolean())
	case Int32:
		return fmt.Sprint(v.Int32())
	case Int64:
		return fmt.Sprint(v.Int64())
	case Int96:
		return v.Int96().String()
	case Float:
		return fmt.Sprint(v.Float())
	case Double:
		return fmt.Sprint(v.Double())
	case ByteArray, FixedLenByteArray:
		return string(v.ptr)
	default:
		return "<null>"
	}
}

// GoString returns a representation of v which includes its levels.
func (v Value) GoString() string {
	return fmt.Sprintf("parquet.Value{kind:%s value:%q rep:%d def:%d column:%d}",
		v.Kind(), v.String(), v.repetitionLevel, v.definitionLevel, v.Column())
}

// Equal returns true if v1 and v2 hold the same kind and content. Levels and
// column indexes are not compared.
func Equal(v1, v2 Value) bool {
	if v1.kind != v2.kind {
		return false
	}
	switch v1.Kind() {
	case Boolean, Int32, Int64, Float, Double:
		return v1.u64 == v2.u64
	case Int96, ByteArray, FixedLenByteArray:
		return bytes.Equal(v1.ptr, v2.ptr)
	default:
		return true
	}
}

func (k Kind) valueSize() int {
	switch k {
	case Boolean:
		return 1
	case Int32, Float:
		return 4
	case Int64, Double:
		return 8
	case Int96:
		return 12
	default:
		return 0
	}
}

// size returns the number of bytes that the PLAIN encoding of v uses, it is
// used to estimate buffered page sizes.
func (v Value) size() int64 {
	switch v.Kind() {
	case ByteArray:
		return 4 + int64(len(v.ptr))
	case FixedLenByteArray:
		return int64(len(v.ptr))
	default:
		return int64(v.Kind().valueSize())
	}
}
