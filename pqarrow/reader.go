package pqarrow

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	parquet "github.com/segmentio/parquet-engine"
	"golang.org/x/sync/errgroup"
)

// ReadRowGroup reads the rows of rg into an arrow record of the given schema,
// allocating its buffers from mem. The caller must release the record.
//
// Columns are read concurrently by readers of their own, the position of the
// readers of rg is left unchanged. The values are then assembled in row
// order: null values, empty lists and list boundaries of the record are those
// encoded by the levels of the columns.
func ReadRowGroup(ctx context.Context, rg *parquet.RowGroupReader, schema *arrow.Schema, mem memory.Allocator) (arrow.Record, error) {
	chunks := rg.RowGroup().Columns()
	numColumns := len(chunks)
	if err := checkSchema(schema, numColumns); err != nil {
		return nil, err
	}

	columns := make([][]parquet.Value, numColumns)
	g, ctx := errgroup.WithContext(ctx)
	for i := range columns {
		i := i
		g.Go(func() error {
			values, err := readColumn(ctx, parquet.NewColumnReader(chunks[i]), chunks[i].NumValues())
			columns[i] = values
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	a := &assembler{columns: columns, offsets: make([]int, numColumns)}
	fields := schema.Fields()
	offsets := columnOffsets(fields)
	for row := int64(0); row < rg.NumRows(); row++ {
		for i, f := range fields {
			if err := a.readField(f, b.Field(i), 0, 0, offsets[i]); err != nil {
				return nil, fmt.Errorf("row %d: field %q: %w", row, f.Name, err)
			}
		}
	}
	for i, values := range columns {
		if a.offsets[i] != len(values) {
			return nil, fmt.Errorf("%w: column %d has %d values left after the last row", parquet.ErrCorruptedPage, i, len(values)-a.offsets[i])
		}
	}
	return b.NewRecord(), nil
}

func readColumn(ctx context.Context, r *parquet.ColumnReader, numValues int64) ([]parquet.Value, error) {
	values := make([]parquet.Value, 0, numValues)
	buffer := make([]parquet.Value, 1024)
	for {
		if err := ctx.Err(); err != nil {
			return values, err
		}
		n, err := r.ReadValues(buffer)
		values = append(values, buffer[:n]...)
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return values, err
		}
	}
}

type assembler struct {
	columns [][]parquet.Value
	offsets []int
}

func (a *assembler) peek(column int) (parquet.Value, bool) {
	if a.offsets[column] < len(a.columns[column]) {
		return a.columns[column][a.offsets[column]], true
	}
	return parquet.Value{}, false
}

func (a *assembler) next(column int) (parquet.Value, error) {
	v, ok := a.peek(column)
	if !ok {
		return v, fmt.Errorf("%w: missing values in column %d", parquet.ErrIncompleteRowGroup, column)
	}
	a.offsets[column]++
	return v, nil
}

// skip consumes the undefined value of every leaf of t.
func (a *assembler) skip(t arrow.DataType, column int) error {
	for i, n := 0, numLeaves(t); i < n; i++ {
		if _, err := a.next(column + i); err != nil {
			return err
		}
	}
	return nil
}

// defined reports whether the node at definition level def is present, based
// on the next value of its first leaf.
func (a *assembler) defined(def, column int) (bool, error) {
	v, ok := a.peek(column)
	if !ok {
		return false, fmt.Errorf("%w: missing values in column %d", parquet.ErrIncompleteRowGroup, column)
	}
	return v.DefinitionLevel() >= def, nil
}

func (a *assembler) readField(f arrow.Field, b array.Builder, def, depth, column int) error {
	if f.Nullable {
		ok, err := a.defined(def+1, column)
		if err != nil {
			return err
		}
		if !ok {
			b.AppendNull()
			return a.skip(f.Type, column)
		}
		def++
	}
	return a.readValue(f.Type, b, def, depth, column)
}

func (a *assembler) readValue(t arrow.DataType, b array.Builder, def, depth, column int) error {
	switch t := t.(type) {
	case *arrow.ListType:
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		ok, err := a.defined(def+1, column)
		if err != nil {
			return err
		}
		if !ok {
			return a.skip(t.Elem(), column)
		}
		for {
			if err := a.readField(t.ElemField(), lb.ValueBuilder(), def+1, depth+1, column); err != nil {
				return err
			}
			v, ok := a.peek(column)
			if !ok || v.RepetitionLevel() != depth+1 {
				return nil
			}
		}

	case *arrow.StructType:
		sb := b.(*array.StructBuilder)
		sb.Append(true)
		for k, f := range t.Fields() {
			if err := a.readField(f, sb.FieldBuilder(k), def, depth, column); err != nil {
				return err
			}
			column += numLeaves(f.Type)
		}
		return nil
	}

	v, err := a.next(column)
	if err != nil {
		return err
	}
	if v.IsNull() {
		return fmt.Errorf("%w: null value at definition level %d of column %d", parquet.ErrCorruptedPage, v.DefinitionLevel(), column)
	}
	return appendLeaf(b, t, v)
}

func appendLeaf(b array.Builder, t arrow.DataType, v parquet.Value) error {
	if want := leafKind(t); v.Kind() != want {
		return fmt.Errorf("%w: %s value for arrow type %s", parquet.ErrTypeMismatch, v.Kind(), t)
	}
	switch b := b.(type) {
	case *array.BooleanBuilder:
		b.Append(v.Boolean())
	case *array.Int8Builder:
		b.Append(int8(v.Int32()))
	case *array.Int16Builder:
		b.Append(int16(v.Int32()))
	case *array.Int32Builder:
		b.Append(v.Int32())
	case *array.Int64Builder:
		b.Append(v.Int64())
	case *array.Uint8Builder:
		b.Append(uint8(v.Int32()))
	case *array.Uint16Builder:
		b.Append(uint16(v.Int32()))
	case *array.Uint32Builder:
		b.Append(uint32(v.Int32()))
	case *array.Uint64Builder:
		b.Append(uint64(v.Int64()))
	case *array.Float32Builder:
		b.Append(v.Float())
	case *array.Float64Builder:
		b.Append(v.Double())
	case *array.StringBuilder:
		b.Append(string(v.ByteArray()))
	case *array.BinaryBuilder:
		b.Append(v.ByteArray())
	case *array.FixedSizeBinaryBuilder:
		b.Append(v.ByteArray())
	case *array.Date32Builder:
		b.Append(arrow.Date32(v.Int32()))
	case *array.TimestampBuilder:
		unit := t.(*arrow.TimestampType).Unit
		b.Append(arrow.Timestamp(v.Int64() / timestampScale(unit)))
	default:
		return fmt.Errorf("%w: unsupported arrow builder for type %s", parquet.ErrTypeMismatch, t)
	}
	return nil
}

func leafKind(t arrow.DataType) parquet.Kind {
	switch t.ID() {
	case arrow.BOOL:
		return parquet.Boolean
	case arrow.INT64, arrow.UINT64, arrow.TIMESTAMP:
		return parquet.Int64
	case arrow.FLOAT32:
		return parquet.Float
	case arrow.FLOAT64:
		return parquet.Double
	case arrow.STRING, arrow.BINARY:
		return parquet.ByteArray
	case arrow.FIXED_SIZE_BINARY:
		return parquet.FixedLenByteArray
	default:
		return parquet.Int32
	}
}
