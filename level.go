package parquet

import (
	"fmt"
	"reflect"
)

// Deconstruct shreds a nested record into a flat row of values carrying their
// repetition and definition levels, which it appends to row.
//
// Records are represented with maps for groups, slices for repeated fields,
// and nil (or missing keys) for absent optional values. LIST and MAP groups
// are represented by the slice of their elements, or of their key_value
// groups respectively. Leaf values are Go values convertible to the column
// type, see Value for the mapping rules; logical types also accept time.Time
// (DATE, TIMESTAMP), time.Duration (TIME), and uuid.UUID (UUID).
//
// The values of the returned row are ordered by column index.
func (s *Schema) Deconstruct(row Row, record map[string]interface{}) (Row, error) {
	shredder := shredder{columns: make([][]Value, len(s.columns))}
	var root interface{}
	if record != nil {
		root = record
	} else {
		root = map[string]interface{}{}
	}
	if err := s.tree.shredValue(&shredder, root, 0, 0); err != nil {
		return row, err
	}
	for _, values := range shredder.columns {
		row = append(row, values...)
	}
	return row, nil
}

// Reconstruct is the inverse of Deconstruct: it assembles the nested record
// represented by the row values with a single positional descent driven by
// their levels. Empty repeated fields are returned as empty slices, and absent
// optional values as nil.
func (s *Schema) Reconstruct(row Row) (map[string]interface{}, error) {
	asm := assembler{
		columns: make([][]Value, len(s.columns)),
		offsets: make([]int, len(s.columns)),
	}

	for _, v := range row {
		columnIndex := v.Column()
		if columnIndex < 0 || columnIndex >= len(s.columns) {
			return nil, fmt.Errorf("%w: value has invalid column index %d", ErrTypeMismatch, columnIndex)
		}
		if err := checkLevels(s.columns[columnIndex], v); err != nil {
			return nil, err
		}
		asm.columns[columnIndex] = append(asm.columns[columnIndex], v)
	}

	for i, values := range asm.columns {
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: row has no values for column %s", ErrTypeMismatch, s.columns[i])
		}
		if values[0].RepetitionLevel() != 0 {
			return nil, fmt.Errorf("%w: first value of column %s has repetition level %d", ErrTypeMismatch, s.columns[i], values[0].RepetitionLevel())
		}
	}

	record, err := s.tree.assembleValue(&asm)
	if err != nil {
		return nil, err
	}

	for i, values := range asm.columns {
		if asm.offsets[i] != len(values) {
			return nil, fmt.Errorf("%w: %d values of column %s do not belong to the row structure", ErrTypeMismatch, len(values)-asm.offsets[i], s.columns[i])
		}
	}

	return record.(map[string]interface{}), nil
}

// checkLevels verifies that the levels of v are within the bounds of column c.
func checkLevels(c *Column, v Value) error {
	if rep := v.RepetitionLevel(); rep > c.maxRepetitionLevel {
		return fmt.Errorf("%w: repetition level %d of column %s exceeds the maximum of %d", ErrLevelOverflow, rep, c, c.maxRepetitionLevel)
	}
	if def := v.DefinitionLevel(); def > c.maxDefinitionLevel {
		return fmt.Errorf("%w: definition level %d of column %s exceeds the maximum of %d", ErrLevelOverflow, def, c, c.maxDefinitionLevel)
	}
	return nil
}

type shredder struct {
	columns [][]Value
}

func (s *shredder) nulls(n *schemaNode, rep, def int) {
	for c := n.first; c < n.last; c++ {
		s.columns[c] = append(s.columns[c], Value{}.Level(rep, def, c))
	}
}

func (n *schemaNode) shred(s *shredder, v interface{}, rep, def int) error {
	switch {
	case n.repeated:
		elems, err := n.elements(v)
		if err != nil {
			return err
		}
		if len(elems) == 0 {
			s.nulls(n, rep, def)
			return nil
		}
		for i, elem := range elems {
			if i > 0 {
				rep = n.repLevel
			}
			if err := n.shredValue(s, elem, rep, n.defLevel); err != nil {
				return err
			}
		}
		return nil

	case v == nil:
		if !n.optional {
			return fmt.Errorf("%w: %s: missing required value", ErrTypeMismatch, n.pathString())
		}
		s.nulls(n, rep, def)
		return nil

	default:
		return n.shredValue(s, v, rep, n.defLevel)
	}
}

func (n *schemaNode) shredValue(s *shredder, v interface{}, rep, def int) error {
	// the element of a LIST decides whether nil is allowed
	if n.unwrap {
		return n.fields[0].shred(s, v, rep, def)
	}
	if v == nil {
		return fmt.Errorf("%w: %s: missing required value", ErrTypeMismatch, n.pathString())
	}

	if n.leaf() {
		value, err := toValue(n.node.Type(), v)
		if err != nil {
			return fmt.Errorf("%s: %w", n.pathString(), err)
		}
		s.columns[n.column] = append(s.columns[n.column], value.Level(rep, def, n.column))
		return nil
	}

	if n.collapse {
		return n.fields[0].shred(s, v, rep, def)
	}

	m, ok := v.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%w: %s: cannot shred group from value of type %T", ErrTypeMismatch, displayPath(n.path, n.name), v)
	}

	found := 0
	for _, f := range n.fields {
		fv, exists := m[f.name]
		if exists {
			found++
		}
		if err := f.shred(s, fv, rep, def); err != nil {
			return err
		}
	}

	if found != len(m) {
		for key := range m {
			if n.field(key) == nil {
				return fmt.Errorf("%w: %s: unknown field %q", ErrTypeMismatch, displayPath(n.path, n.name), key)
			}
		}
	}
	return nil
}

func (n *schemaNode) field(name string) *schemaNode {
	for _, f := range n.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

// elements returns the elements of a repeated value, which may be nil, a
// []interface{}, or any other slice type except byte slices.
func (n *schemaNode) elements(v interface{}) ([]interface{}, error) {
	switch elems := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return elems, nil
	case []byte:
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			values := make([]interface{}, rv.Len())
			for i := range values {
				values[i] = rv.Index(i).Interface()
			}
			return values, nil
		}
	}
	return nil, fmt.Errorf("%w: %s: repeated field requires a slice, got %T", ErrTypeMismatch, n.pathString(), v)
}

// assembler holds the per-column cursors of the values of a row.
type assembler struct {
	columns [][]Value
	offsets []int
}

func (a *assembler) peek(columnIndex int) (Value, bool) {
	i := a.offsets[columnIndex]
	if i >= len(a.columns[columnIndex]) {
		return Value{}, false
	}
	return a.columns[columnIndex][i], true
}

// skip consumes the single value that each leaf under n holds when n is
// absent or empty.
func (a *assembler) skip(n *schemaNode) error {
	for c := n.first; c < n.last; c++ {
		if a.offsets[c] >= len(a.columns[c]) {
			return fmt.Errorf("%w: column %d has fewer values than its row structure requires", ErrTypeMismatch, c)
		}
		a.offsets[c]++
	}
	return nil
}

func (n *schemaNode) assemble(a *assembler) (interface{}, error) {
	v, ok := a.peek(n.first)
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing values", ErrTypeMismatch, n.pathString())
	}

	switch {
	case n.repeated:
		elems := []interface{}{}
		if v.DefinitionLevel() < n.defLevel {
			return elems, a.skip(n)
		}
		for {
			elem, err := n.assembleValue(a)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			if v, ok = a.peek(n.first); !ok || v.RepetitionLevel() != n.repLevel {
				return elems, nil
			}
		}

	case n.optional && v.DefinitionLevel() < n.defLevel:
		return nil, a.skip(n)

	default:
		return n.assembleValue(a)
	}
}

func (n *schemaNode) assembleValue(a *assembler) (interface{}, error) {
	if n.leaf() {
		v, ok := a.peek(n.column)
		if !ok {
			return nil, fmt.Errorf("%w: %s: missing values", ErrTypeMismatch, n.pathString())
		}
		a.offsets[n.column]++
		return fromValue(n.node.Type(), v), nil
	}

	if n.collapse || n.unwrap {
		return n.fields[0].assemble(a)
	}

	m := make(map[string]interface{}, len(n.fields))
	for _, f := range n.fields {
		v, err := f.assemble(a)
		if err != nil {
			return nil, err
		}
		m[f.name] = v
	}
	return m, nil
}
