package parquet

import (
	"github.com/segmentio/parquet-engine/compress"
	"github.com/segmentio/parquet-engine/format"
)

// Node values represent nodes of a parquet schema.
//
// Nodes carry the type of values, as well as properties like whether the values
// are optional or repeat. Nodes with one or more fields represent parquet
// groups and may only carry the LIST or MAP logical annotations.
//
// Nodes are immutable values and therefore safe to use concurrently from
// multiple goroutines.
type Node interface {
	// Returns a human-readable representation of the parquet node.
	String() string

	// For leaf nodes, returns the type of values of the parquet column.
	//
	// The method returns nil on groups.
	Type() Type

	// Returns whether the parquet column is optional.
	Optional() bool

	// Returns whether the parquet column is repeated.
	Repeated() bool

	// Returns whether the parquet column is required.
	Required() bool

	// Returns true if the node is a leaf.
	Leaf() bool

	// Returns the ordered list of fields of a group.
	//
	// The method returns nil on leaf nodes. Applications should treat the
	// returned slice as immutable.
	Fields() []Field

	// Returns the logical annotation of the node, or nil.
	LogicalType() *format.LogicalType

	// Returns the encoding configured on a leaf node, or nil when the writer
	// should select the default encoding.
	Encoding() Encoding

	// Returns the compression codec configured on a leaf node, or nil when
	// the writer should use its default codec.
	Compression() compress.Codec
}

// Field instances represent fields of a parquet group: a node and its name.
type Field interface {
	Node

	// Returns the name of the field in its parent group.
	Name() string
}

// NewField constructs a field of the given name for node.
func NewField(name string, node Node) Field { return &field{Node: node, name: name} }

type field struct {
	Node
	name string
}

func (f *field) Name() string { return f.name }

// WrappedNode is an extension of the Node interface implemented by types which
// wrap another underlying node.
type WrappedNode interface {
	Node
	// Unwrap returns the underlying base node.
	//
	// Note that Unwrap is not intended to recursively unwrap multiple layers of
	// wrappers, it returns the immediate next layer.
	Unwrap() Node
}

type wrappedNode struct{ Node }

func (w wrappedNode) Unwrap() Node { return w.Node }

func wrap(node Node) wrappedNode { return wrappedNode{node} }

// Encoded wraps the node passed as argument to use the given encoding for its
// values.
//
// The function panics if it is called on a non-leaf node, or if the encoding is
// not able to encode the node type.
func Encoded(node Node, enc Encoding) Node {
	if !node.Leaf() {
		panic("cannot add encodings to a non-leaf node")
	}
	if kind := node.Type().Kind(); !canEncode(enc, kind) {
		panic("cannot apply " + enc.String() + " to node of type " + kind.String())
	}
	return &encodedNode{wrappedNode: wrap(node), encoding: enc}
}

type encodedNode struct {
	wrappedNode
	encoding Encoding
}

func (n *encodedNode) Encoding() Encoding { return n.encoding }

// Compressed wraps the node passed as argument to use the given compression
// codec.
//
// The function panics if it is called on a non-leaf node.
func Compressed(node Node, codec compress.Codec) Node {
	if !node.Leaf() {
		panic("cannot add compression codecs to a non-leaf node")
	}
	return &compressedNode{wrappedNode: wrap(node), codec: codec}
}

type compressedNode struct {
	wrappedNode
	codec compress.Codec
}

func (n *compressedNode) Compression() compress.Codec { return n.codec }

// Optional wraps the given node to make it optional.
func Optional(node Node) Node { return &optionalNode{wrap(node)} }

type optionalNode struct{ wrappedNode }

func (opt *optionalNode) Optional() bool { return true }
func (opt *optionalNode) Repeated() bool { return false }
func (opt *optionalNode) Required() bool { return false }
func (opt *optionalNode) String() string { return sprint("", opt) }

// Repeated wraps the given node to make it repeated.
func Repeated(node Node) Node { return &repeatedNode{wrap(node)} }

type repeatedNode struct{ wrappedNode }

func (rep *repeatedNode) Optional() bool { return false }
func (rep *repeatedNode) Repeated() bool { return true }
func (rep *repeatedNode) Required() bool { return false }
func (rep *repeatedNode) String() string { return sprint("", rep) }

// Required wraps the given node to make it required.
func Required(node Node) Node { return &requiredNode{wrap(node)} }

type requiredNode struct{ wrappedNode }

func (req *requiredNode) Optional() bool { return false }
func (req *requiredNode) Repeated() bool { return false }
func (req *requiredNode) Required() bool { return true }
func (req *requiredNode) String() string { return sprint("", req) }

// Leaf returns a leaf node of the given type.
func Leaf(typ Type) Node { return &leafNode{typ: typ} }

type leafNode struct{ typ Type }

func (n *leafNode) String() string { return sprint("", n) }

func (n *leafNode) Type() Type { return n.typ }

func (n *leafNode) Optional() bool { return false }

func (n *leafNode) Repeated() bool { return false }

func (n *leafNode) Required() bool { return true }

func (n *leafNode) Leaf() bool { return true }

func (n *leafNode) Fields() []Field { return nil }

func (n *leafNode) LogicalType() *format.LogicalType {
	if n.typ == nil {
		return nil
	}
	return n.typ.LogicalType()
}

func (n *leafNode) Encoding() Encoding { return nil }

func (n *leafNode) Compression() compress.Codec { return nil }

// Group is a node representing a parquet group. Fields are kept in the order
// they are declared in.
type Group []Field

func (g Group) String() string { return sprint("", g) }

func (g Group) Type() Type { return nil }

func (g Group) Optional() bool { return false }

func (g Group) Repeated() bool { return false }

func (g Group) Required() bool { return true }

func (g Group) Leaf() bool { return false }

func (g Group) Fields() []Field { return g }

func (g Group) LogicalType() *format.LogicalType { return nil }

func (g Group) Encoding() Encoding { return nil }

func (g Group) Compression() compress.Codec { return nil }

// annotatedGroup is a group carrying the LIST or MAP annotation.
type annotatedGroup struct {
	Group
	logical *format.LogicalType
}

func (g *annotatedGroup) String() string { return sprint("", g) }

func (g *annotatedGroup) LogicalType() *format.LogicalType { return g.logical }

// String constructs a leaf node of UTF8 logical type.
func String() Node {
	return Leaf(Annotate(ByteArrayType, &format.LogicalType{UTF8: new(format.StringType)}))
}

// Enum constructs a leaf node with a logical type representing enumerations.
func Enum() Node {
	return Leaf(Annotate(ByteArrayType, &format.LogicalType{Enum: new(format.EnumType)}))
}

// JSON constructs a leaf node of JSON logical type.
func JSON() Node {
	return Leaf(Annotate(ByteArrayType, &format.LogicalType{Json: new(format.JsonType)}))
}

// BSON constructs a leaf node of BSON logical type.
func BSON() Node {
	return Leaf(Annotate(ByteArrayType, &format.LogicalType{Bson: new(format.BsonType)}))
}

// UUID constructs a leaf node of UUID logical type.
func UUID() Node {
	return Leaf(Annotate(FixedLenByteArrayType(16), &format.LogicalType{UUID: new(format.UUIDType)}))
}

// Date constructs a leaf node of DATE logical type, stored as the number of
// days since the Unix epoch.
func Date() Node {
	return Leaf(Annotate(Int32Type, &format.LogicalType{Date: new(format.DateType)}))
}

// Int constructs a leaf node of signed integer logical type of the given bit
// width. The bit width must be one of 8, 16, 32, 64.
func Int(bitWidth int) Node { return integerNode(bitWidth, true) }

// Uint constructs a leaf node of unsigned integer logical type of the given
// bit width. The bit width must be one of 8, 16, 32, 64.
func Uint(bitWidth int) Node { return integerNode(bitWidth, false) }

func integerNode(bitWidth int, isSigned bool) Node {
	base := Int32Type
	if bitWidth > 32 {
		base = Int64Type
	}
	return Leaf(Annotate(base, &format.LogicalType{
		Integer: &format.IntType{BitWidth: int8(bitWidth), IsSigned: isSigned},
	}))
}

// Time constructs a leaf node of TIME logical type. Millisecond times are
// stored in INT32 columns, other units in INT64.
func Time(unit TimeUnit) Node {
	base := Int64Type
	if unit == Millisecond {
		base = Int32Type
	}
	return Leaf(Annotate(base, &format.LogicalType{
		Time: &format.TimeType{IsAdjustedToUTC: true, Unit: unit.format()},
	}))
}

// Timestamp constructs a leaf node of TIMESTAMP logical type, stored as the
// number of units since the Unix epoch.
func Timestamp(unit TimeUnit) Node {
	return Leaf(Annotate(Int64Type, &format.LogicalType{
		Timestamp: &format.TimestampType{IsAdjustedToUTC: true, Unit: unit.format()},
	}))
}

// Decimal constructs a leaf node of decimal logical type with the given scale
// and precision, stored in values of type typ (INT32, INT64, BYTE_ARRAY, or
// FIXED_LEN_BYTE_ARRAY).
func Decimal(scale, precision int, typ Type) Node {
	return Leaf(Annotate(typ, &format.LogicalType{
		Decimal: &format.DecimalType{Scale: int32(scale), Precision: int32(precision)},
	}))
}

// List constructs a node of LIST logical type using the three-level
// representation:
//
//	<list-repetition> group <name> (LIST) {
//	  repeated group list {
//	    <element-repetition> <element-type> element;
//	  }
//	}
func List(of Node) Node {
	return &annotatedGroup{
		Group: Group{
			NewField("list", Repeated(Group{NewField("element", of)})),
		},
		logical: &format.LogicalType{List: new(format.ListType)},
	}
}

// Map constructs a node of MAP logical type:
//
//	<map-repetition> group <name> (MAP) {
//	  repeated group key_value {
//	    required <key-type> key;
//	    <value-repetition> <value-type> value;
//	  }
//	}
func Map(key, value Node) Node {
	return &annotatedGroup{
		Group: Group{
			NewField("key_value", Repeated(Group{
				NewField("key", Required(key)),
				NewField("value", value),
			})),
		},
		logical: &format.LogicalType{Map: new(format.MapType)},
	}
}

// unwrap returns the innermost node of a chain of wrappers.
func unwrap(node Node) Node {
	for {
		switch n := node.(type) {
		case *field:
			node = n.Node
		case WrappedNode:
			node = n.Unwrap()
		default:
			return node
		}
	}
}

func fieldRepetitionTypeOf(node Node) format.FieldRepetitionType {
	switch {
	case node.Optional():
		return format.Optional
	case node.Repeated():
		return format.Repeated
	default:
		return format.Required
	}
}
