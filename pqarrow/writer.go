package pqarrow

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	parquet "github.com/segmentio/parquet-engine"
	"golang.org/x/sync/errgroup"
)

// WriteRecord writes the rows of rec to rg. The record must have the given
// schema, and the schema must be the one SchemaFromArrow produced for the
// parquet schema of rg.
//
// Top-level fields are shredded concurrently, each into the column writers
// of its own leaves.
func WriteRecord(ctx context.Context, rg *parquet.RowGroupWriter, schema *arrow.Schema, rec arrow.Record) error {
	if !rec.Schema().Equal(schema) {
		return fmt.Errorf("%w: record schema %s does not match %s", parquet.ErrTypeMismatch, rec.Schema(), schema)
	}
	if err := checkSchema(schema, rg.Schema().NumColumns()); err != nil {
		return err
	}

	fields := schema.Fields()
	offsets := columnOffsets(fields)
	numRows := int(rec.NumRows())

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range fields {
		i, f := i, f
		g.Go(func() error {
			s := &shredder{
				base:    offsets[i],
				columns: make([][]parquet.Value, numLeaves(f.Type)),
			}
			column := rec.Column(i)
			for row := 0; row < numRows; row++ {
				if row%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if err := s.writeField(f, column, row, 0, 0, 0, offsets[i]); err != nil {
					return fmt.Errorf("field %q: %w", f.Name, err)
				}
			}
			for j, values := range s.columns {
				if _, err := rg.Column(s.base + j).WriteValues(values); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// shredder accumulates the values of the leaves of one top-level field.
type shredder struct {
	base    int
	columns [][]parquet.Value
}

func (s *shredder) append(column int, v parquet.Value) {
	s.columns[column-s.base] = append(s.columns[column-s.base], v)
}

// nulls records one undefined value in every leaf of t.
func (s *shredder) nulls(t arrow.DataType, rep, def, column int) {
	for i, n := 0, numLeaves(t); i < n; i++ {
		s.append(column+i, parquet.NullValue().Level(rep, def, column+i))
	}
}

// writeField shreds the element i of arr, the array of field f. rep is the
// repetition level of the first value, def the definition level of the parent
// and depth the number of repeated ancestors.
func (s *shredder) writeField(f arrow.Field, arr arrow.Array, i, rep, def, depth, column int) error {
	if f.Nullable {
		if arr.IsNull(i) {
			s.nulls(f.Type, rep, def, column)
			return nil
		}
		def++
	}
	return s.writeValue(f.Type, arr, i, rep, def, depth, column)
}

func (s *shredder) writeValue(t arrow.DataType, arr arrow.Array, i, rep, def, depth, column int) error {
	switch t := t.(type) {
	case *arrow.ListType:
		list := arr.(*array.List)
		start, end := list.ValueOffsets(i)
		if start == end {
			s.nulls(t.Elem(), rep, def, column)
			return nil
		}
		values := list.ListValues()
		for j := start; j < end; j++ {
			r := rep
			if j > start {
				r = depth + 1
			}
			if err := s.writeField(t.ElemField(), values, int(j), r, def+1, depth+1, column); err != nil {
				return err
			}
		}
		return nil

	case *arrow.StructType:
		st := arr.(*array.Struct)
		for k, f := range t.Fields() {
			if err := s.writeField(f, st.Field(k), i, rep, def, depth, column); err != nil {
				return err
			}
			column += numLeaves(f.Type)
		}
		return nil
	}

	v, err := leafValue(arr, i)
	if err != nil {
		return err
	}
	s.append(column, v.Level(rep, def, column))
	return nil
}

func leafValue(arr arrow.Array, i int) (parquet.Value, error) {
	switch a := arr.(type) {
	case *array.Boolean:
		return parquet.BooleanValue(a.Value(i)), nil
	case *array.Int8:
		return parquet.Int32Value(int32(a.Value(i))), nil
	case *array.Int16:
		return parquet.Int32Value(int32(a.Value(i))), nil
	case *array.Int32:
		return parquet.Int32Value(a.Value(i)), nil
	case *array.Int64:
		return parquet.Int64Value(a.Value(i)), nil
	case *array.Uint8:
		return parquet.Int32Value(int32(a.Value(i))), nil
	case *array.Uint16:
		return parquet.Int32Value(int32(a.Value(i))), nil
	case *array.Uint32:
		return parquet.Int32Value(int32(a.Value(i))), nil
	case *array.Uint64:
		return parquet.Int64Value(int64(a.Value(i))), nil
	case *array.Float32:
		return parquet.FloatValue(a.Value(i)), nil
	case *array.Float64:
		return parquet.DoubleValue(a.Value(i)), nil
	case *array.String:
		return parquet.ByteArrayValue([]byte(a.Value(i))), nil
	case *array.Binary:
		return parquet.ByteArrayValue(a.Value(i)), nil
	case *array.FixedSizeBinary:
		return parquet.FixedLenByteArrayValue(a.Value(i)), nil
	case *array.Date32:
		return parquet.Int32Value(int32(a.Value(i))), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return parquet.Int64Value(int64(a.Value(i)) * timestampScale(unit)), nil
	default:
		return parquet.Value{}, fmt.Errorf("%w: unsupported arrow array of type %s", parquet.ErrTypeMismatch, arr.DataType())
	}
}
