// Package pqarrow converts between parquet row groups and Apache Arrow
// records.
//
// Arrow fields map to parquet nodes as follows: nullable fields become
// optional nodes, lists become three-level LIST groups whose element is
// optional when the arrow element is nullable, and structs become groups.
// Leaf columns are numbered in depth-first order of the arrow schema, which is
// the order of the columns of the parquet schema.
package pqarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	parquet "github.com/segmentio/parquet-engine"
)

// SchemaFromArrow converts an arrow schema to a parquet schema.
func SchemaFromArrow(schema *arrow.Schema) (*parquet.Schema, error) {
	root := make(parquet.Group, 0, schema.NumFields())
	for _, f := range schema.Fields() {
		node, err := fieldNode(f)
		if err != nil {
			return nil, err
		}
		root = append(root, parquet.NewField(f.Name, node))
	}
	return parquet.NewSchema("schema", root)
}

func fieldNode(f arrow.Field) (parquet.Node, error) {
	node, err := typeNode(f.Type)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	if f.Nullable {
		return parquet.Optional(node), nil
	}
	return parquet.Required(node), nil
}

func typeNode(t arrow.DataType) (parquet.Node, error) {
	switch t.ID() {
	case arrow.BOOL:
		return parquet.Leaf(parquet.BooleanType), nil
	case arrow.INT8:
		return parquet.Int(8), nil
	case arrow.INT16:
		return parquet.Int(16), nil
	case arrow.INT32:
		return parquet.Int(32), nil
	case arrow.INT64:
		return parquet.Int(64), nil
	case arrow.UINT8:
		return parquet.Uint(8), nil
	case arrow.UINT16:
		return parquet.Uint(16), nil
	case arrow.UINT32:
		return parquet.Uint(32), nil
	case arrow.UINT64:
		return parquet.Uint(64), nil
	case arrow.FLOAT32:
		return parquet.Leaf(parquet.FloatType), nil
	case arrow.FLOAT64:
		return parquet.Leaf(parquet.DoubleType), nil
	case arrow.STRING:
		return parquet.String(), nil
	case arrow.BINARY:
		return parquet.Leaf(parquet.ByteArrayType), nil
	case arrow.FIXED_SIZE_BINARY:
		return parquet.Leaf(parquet.FixedLenByteArrayType(t.(*arrow.FixedSizeBinaryType).ByteWidth)), nil
	case arrow.DATE32:
		return parquet.Date(), nil
	case arrow.TIMESTAMP:
		return parquet.Timestamp(timeUnitOf(t.(*arrow.TimestampType).Unit)), nil
	case arrow.LIST:
		elem, err := fieldNode(t.(*arrow.ListType).ElemField())
		if err != nil {
			return nil, err
		}
		return parquet.List(elem), nil
	case arrow.STRUCT:
		fields := t.(*arrow.StructType).Fields()
		group := make(parquet.Group, 0, len(fields))
		for _, f := range fields {
			node, err := fieldNode(f)
			if err != nil {
				return nil, err
			}
			group = append(group, parquet.NewField(f.Name, node))
		}
		return group, nil
	default:
		return nil, fmt.Errorf("%w: arrow type %s has no parquet representation", parquet.ErrSchema, t)
	}
}

// timeUnitOf returns the parquet unit of arrow timestamps. Parquet has no
// second resolution, those timestamps are stored in milliseconds.
func timeUnitOf(unit arrow.TimeUnit) parquet.TimeUnit {
	switch unit {
	case arrow.Microsecond:
		return parquet.Microsecond
	case arrow.Nanosecond:
		return parquet.Nanosecond
	default:
		return parquet.Millisecond
	}
}

func timestampScale(unit arrow.TimeUnit) int64 {
	if unit == arrow.Second {
		return 1000
	}
	return 1
}

// numLeaves returns the number of parquet columns holding the values of t.
func numLeaves(t arrow.DataType) int {
	switch t := t.(type) {
	case *arrow.ListType:
		return numLeaves(t.Elem())
	case *arrow.StructType:
		n := 0
		for _, f := range t.Fields() {
			n += numLeaves(f.Type)
		}
		return n
	default:
		return 1
	}
}

// columnOffsets returns the index of the first column of each field.
func columnOffsets(fields []arrow.Field) []int {
	offsets := make([]int, len(fields))
	n := 0
	for i, f := range fields {
		offsets[i] = n
		n += numLeaves(f.Type)
	}
	return offsets
}

func checkSchema(schema *arrow.Schema, columns int) error {
	n := 0
	for _, f := range schema.Fields() {
		n += numLeaves(f.Type)
	}
	if n != columns {
		return fmt.Errorf("%w: arrow schema has %d leaves but the row group has %d columns", parquet.ErrTypeMismatch, n, columns)
	}
	return nil
}
