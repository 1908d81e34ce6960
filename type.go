package parquet

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"time"

	"github.com/segmentio/parquet-engine/deprecated"
	"github.com/segmentio/parquet-engine/format"
)

// Kind is an enumeration type representing the physical types supported by the
// parquet type system.
type Kind int8

const (
	Boolean           Kind = Kind(format.Boolean)
	Int32             Kind = Kind(format.Int32)
	Int64             Kind = Kind(format.Int64)
	Int96             Kind = Kind(format.Int96)
	Float             Kind = Kind(format.Float)
	Double            Kind = Kind(format.Double)
	ByteArray         Kind = Kind(format.ByteArray)
	FixedLenByteArray Kind = Kind(format.FixedLenByteArray)
)

// String returns a human-readable representation of the physical type.
func (k Kind) String() string { return format.Type(k).String() }

func (k Kind) valid() bool { return k >= Boolean && k <= FixedLenByteArray }

// The Type interface represents the types of leaf columns: a physical kind, the
// length of fixed size byte arrays, and an optional logical annotation which
// affects how values are interpreted but never how they are laid out.
type Type interface {
	// Returns a human-readable representation of the type.
	String() string

	// Returns the physical kind of values of this type.
	Kind() Kind

	// For FIXED_LEN_BYTE_ARRAY, the size of values in bytes. Zero for all the
	// other kinds.
	Length() int

	// Returns the logical annotation of the type, or nil if there are none.
	LogicalType() *format.LogicalType

	// Returns the legacy annotation matching the logical type, or nil.
	ConvertedType() *deprecated.ConvertedType

	// Compares two values of this type, returning a negative number, zero, or
	// a positive number when a is less than, equal to, or greater than b.
	// Null values sort before non-null values.
	Compare(a, b Value) int
}

var (
	BooleanType Type = primitiveType{kind: Boolean}
	Int32Type   Type = primitiveType{kind: Int32}
	Int64Type   Type = primitiveType{kind: Int64}
	Int96Type   Type = primitiveType{kind: Int96}
	FloatType   Type = primitiveType{kind: Float}
	DoubleType  Type = primitiveType{kind: Double}
	// ByteArrayType is the type of variable length binary values.
	ByteArrayType Type = primitiveType{kind: ByteArray}
)

// FixedLenByteArrayType constructs a type for fixed-length values of the
// given size (in bytes).
func FixedLenByteArrayType(length int) Type {
	return primitiveType{kind: FixedLenByteArray, length: length}
}

type primitiveType struct {
	kind   Kind
	length int
}

func (t primitiveType) String() string {
	if t.kind == FixedLenByteArray {
		return fmt.Sprintf("FIXED_LEN_BYTE_ARRAY(%d)", t.length)
	}
	return t.kind.String()
}

func (t primitiveType) Kind() Kind                               { return t.kind }
func (t primitiveType) Length() int                              { return t.length }
func (t primitiveType) LogicalType() *format.LogicalType         { return nil }
func (t primitiveType) ConvertedType() *deprecated.ConvertedType { return nil }
func (t primitiveType) Compare(a, b Value) int                   { return compareValues(t.kind, signed, a, b) }

type sortOrder int8

const (
	signed sortOrder = iota
	unsigned
)

// annotatedType is a primitive type carrying a logical annotation.
type annotatedType struct {
	primitiveType
	logical   *format.LogicalType
	converted *deprecated.ConvertedType
	order     sortOrder
}

// Annotate returns a type with the physical layout of base and the given
// logical annotation. The compatibility of the annotation with the physical
// type is verified when the type is used in a schema.
func Annotate(base Type, logical *format.LogicalType) Type {
	t := &annotatedType{
		primitiveType: primitiveType{kind: base.Kind(), length: base.Length()},
		logical:       logical,
		converted:     convertedTypeOf(logical),
	}
	switch {
	case logical == nil:
		return t.primitiveType
	case logical.Integer != nil && !logical.Integer.IsSigned:
		t.order = unsigned
	case logical.UTF8 != nil, logical.Enum != nil, logical.Json != nil, logical.Bson != nil, logical.UUID != nil:
		t.order = unsigned
	}
	return t
}

func (t *annotatedType) String() string {
	return fmt.Sprintf("%s (%s)", t.primitiveType, t.logical)
}

func (t *annotatedType) LogicalType() *format.LogicalType         { return t.logical }
func (t *annotatedType) ConvertedType() *deprecated.ConvertedType { return t.converted }

func (t *annotatedType) Compare(a, b Value) int {
	if t.logical.Decimal != nil && (t.kind == ByteArray || t.kind == FixedLenByteArray) {
		return compareNulls(a, b, func() int { return compareDecimalBytes(a.ByteArray(), b.ByteArray()) })
	}
	return compareValues(t.kind, t.order, a, b)
}

// TimeUnit represents the resolution of TIME and TIMESTAMP columns.
type TimeUnit int8

const (
	Millisecond TimeUnit = iota
	Microsecond
	Nanosecond
)

// Duration returns the duration of one tick of the unit.
func (u TimeUnit) Duration() time.Duration {
	switch u {
	case Millisecond:
		return time.Millisecond
	case Microsecond:
		return time.Microsecond
	default:
		return time.Nanosecond
	}
}

func (u TimeUnit) format() format.TimeUnit {
	switch u {
	case Millisecond:
		return format.TimeUnit{Millis: new(format.MilliSeconds)}
	case Microsecond:
		return format.TimeUnit{Micros: new(format.MicroSeconds)}
	default:
		return format.TimeUnit{Nanos: new(format.NanoSeconds)}
	}
}

func timeUnitOf(u *format.TimeUnit) TimeUnit {
	switch {
	case u.Millis != nil:
		return Millisecond
	case u.Micros != nil:
		return Microsecond
	default:
		return Nanosecond
	}
}

func convertedTypeOf(t *format.LogicalType) *deprecated.ConvertedType {
	var c deprecated.ConvertedType
	switch {
	case t == nil:
		return nil
	case t.UTF8 != nil:
		c = deprecated.UTF8
	case t.Map != nil:
		c = deprecated.Map
	case t.List != nil:
		c = deprecated.List
	case t.Enum != nil:
		c = deprecated.Enum
	case t.Decimal != nil:
		c = deprecated.Decimal
	case t.Date != nil:
		c = deprecated.Date
	case t.Time != nil:
		switch timeUnitOf(&t.Time.Unit) {
		case Millisecond:
			c = deprecated.TimeMillis
		case Microsecond:
			c = deprecated.TimeMicros
		default:
			return nil
		}
	case t.Timestamp != nil:
		switch timeUnitOf(&t.Timestamp.Unit) {
		case Millisecond:
			c = deprecated.TimestampMillis
		case Microsecond:
			c = deprecated.TimestampMicros
		default:
			return nil
		}
	case t.Integer != nil:
		c = integerConvertedType(t.Integer.BitWidth, t.Integer.IsSigned)
		if c < 0 {
			return nil
		}
	case t.Json != nil:
		c = deprecated.Json
	case t.Bson != nil:
		c = deprecated.Bson
	default:
		return nil
	}
	return &c
}

func integerConvertedType(bitWidth int8, isSigned bool) deprecated.ConvertedType {
	switch {
	case bitWidth == 8 && isSigned:
		return deprecated.Int8
	case bitWidth == 16 && isSigned:
		return deprecated.Int16
	case bitWidth == 32 && isSigned:
		return deprecated.Int32
	case bitWidth == 64 && isSigned:
		return deprecated.Int64
	case bitWidth == 8:
		return deprecated.Uint8
	case bitWidth == 16:
		return deprecated.Uint16
	case bitWidth == 32:
		return deprecated.Uint32
	case bitWidth == 64:
		return deprecated.Uint64
	default:
		return -1
	}
}

// logicalTypeOf maps the legacy annotations of files written by older
// implementations to logical types. Returns nil for INTERVAL and
// MAP_KEY_VALUE, which have no logical equivalent.
func logicalTypeOf(c deprecated.ConvertedType, scale, precision int32) *format.LogicalType {
	switch c {
	case deprecated.UTF8:
		return &format.LogicalType{UTF8: new(format.StringType)}
	case deprecated.Map:
		return &format.LogicalType{Map: new(format.MapType)}
	case deprecated.List:
		return &format.LogicalType{List: new(format.ListType)}
	case deprecated.Enum:
		return &format.LogicalType{Enum: new(format.EnumType)}
	case deprecated.Decimal:
		return &format.LogicalType{Decimal: &format.DecimalType{Scale: scale, Precision: precision}}
	case deprecated.Date:
		return &format.LogicalType{Date: new(format.DateType)}
	case deprecated.TimeMillis:
		return &format.LogicalType{Time: &format.TimeType{IsAdjustedToUTC: true, Unit: Millisecond.format()}}
	case deprecated.TimeMicros:
		return &format.LogicalType{Time: &format.TimeType{IsAdjustedToUTC: true, Unit: Microsecond.format()}}
	case deprecated.TimestampMillis:
		return &format.LogicalType{Timestamp: &format.TimestampType{IsAdjustedToUTC: true, Unit: Millisecond.format()}}
	case deprecated.TimestampMicros:
		return &format.LogicalType{Timestamp: &format.TimestampType{IsAdjustedToUTC: true, Unit: Microsecond.format()}}
	case deprecated.Int8:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 8, IsSigned: true}}
	case deprecated.Int16:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 16, IsSigned: true}}
	case deprecated.Int32:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 32, IsSigned: true}}
	case deprecated.Int64:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 64, IsSigned: true}}
	case deprecated.Uint8:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 8}}
	case deprecated.Uint16:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 16}}
	case deprecated.Uint32:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 32}}
	case deprecated.Uint64:
		return &format.LogicalType{Integer: &format.IntType{BitWidth: 64}}
	case deprecated.Json:
		return &format.LogicalType{Json: new(format.JsonType)}
	case deprecated.Bson:
		return &format.LogicalType{Bson: new(format.BsonType)}
	default:
		return nil
	}
}

// checkType verifies that the logical annotation of t applies to its physical
// type.
func checkType(t Type) error {
	kind, length := t.Kind(), t.Length()
	if !kind.valid() {
		return fmt.Errorf("%w: unknown physical type %d", ErrSchema, kind)
	}
	if kind == FixedLenByteArray && (length <= 0 || length > math.MaxInt16) {
		return fmt.Errorf("%w: invalid fixed length byte array size %d", ErrSchema, length)
	}

	logical := t.LogicalType()
	if logical == nil {
		return nil
	}

	invalid := func() error {
		return fmt.Errorf("%w: logical type %s cannot annotate %s", ErrSchema, logical, t.Kind())
	}

	switch {
	case logical.UTF8 != nil, logical.Enum != nil, logical.Json != nil, logical.Bson != nil:
		if kind != ByteArray {
			return invalid()
		}
	case logical.UUID != nil:
		if kind != FixedLenByteArray || length != 16 {
			return invalid()
		}
	case logical.Date != nil:
		if kind != Int32 {
			return invalid()
		}
	case logical.Time != nil:
		want := Int64
		if timeUnitOf(&logical.Time.Unit) == Millisecond {
			want = Int32
		}
		if kind != want {
			return invalid()
		}
	case logical.Timestamp != nil:
		if kind != Int64 {
			return invalid()
		}
	case logical.Integer != nil:
		switch logical.Integer.BitWidth {
		case 8, 16, 32:
			if kind != Int32 {
				return invalid()
			}
		case 64:
			if kind != Int64 {
				return invalid()
			}
		default:
			return fmt.Errorf("%w: invalid integer bit width %d", ErrSchema, logical.Integer.BitWidth)
		}
	case logical.Decimal != nil:
		return checkDecimal(kind, length, logical.Decimal)
	case logical.Unknown != nil:
	default:
		// LIST and MAP annotate groups only.
		return invalid()
	}
	return nil
}

func checkDecimal(kind Kind, length int, d *format.DecimalType) error {
	var maxPrecision int32
	switch kind {
	case Int32:
		maxPrecision = 9
	case Int64:
		maxPrecision = 18
	case FixedLenByteArray:
		maxPrecision = int32(math.Floor(float64(8*length-1) * math.Log10(2)))
	case ByteArray:
		maxPrecision = math.MaxInt32
	default:
		return fmt.Errorf("%w: logical type %s cannot annotate %s", ErrSchema, &format.LogicalType{Decimal: d}, kind)
	}
	if d.Precision < 1 || d.Precision > maxPrecision {
		return fmt.Errorf("%w: decimal precision %d out of range for %s", ErrSchema, d.Precision, kind)
	}
	if d.Scale < 0 || d.Scale > d.Precision {
		return fmt.Errorf("%w: decimal scale %d out of range for precision %d", ErrSchema, d.Scale, d.Precision)
	}
	return nil
}

func compareNulls(a, b Value, compare func() int) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return +1
	default:
		return compare()
	}
}

func compareValues(kind Kind, order sortOrder, a, b Value) int {
	return compareNulls(a, b, func() int {
		switch kind {
		case Boolean:
			return compareBool(a.Boolean(), b.Boolean())
		case Int32:
			if order == unsigned {
				return cmp.Compare(uint32(a.Int32()), uint32(b.Int32()))
			}
			return cmp.Compare(a.Int32(), b.Int32())
		case Int64:
			if order == unsigned {
				return cmp.Compare(uint64(a.Int64()), uint64(b.Int64()))
			}
			return cmp.Compare(a.Int64(), b.Int64())
		case Int96:
			return a.Int96().Compare(b.Int96())
		case Float:
			return cmp.Compare(a.Float(), b.Float())
		case Double:
			return cmp.Compare(a.Double(), b.Double())
		default:
			return bytes.Compare(a.ByteArray(), b.ByteArray())
		}
	})
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return +1
	}
}

// compareDecimalBytes compares big-endian two's complement integers of
// possibly different lengths.
func compareDecimalBytes(a, b []byte) int {
	negativeA := len(a) > 0 && a[0]&0x80 != 0
	negativeB := len(b) > 0 && b[0]&0x80 != 0
	switch {
	case negativeA && !negativeB:
		return -1
	case !negativeA && negativeB:
		return +1
	}
	pad := byte(0)
	if negativeA {
		pad = 0xFF
	}
	for len(a) < len(b) {
		if b[0] != pad {
			return cmp.Compare(pad, b[0])
		}
		b = b[1:]
	}
	for len(b) < len(a) {
		if a[0] != pad {
			return cmp.Compare(a[0], pad)
		}
		a = a[1:]
	}
	return bytes.Compare(a, b)
}
