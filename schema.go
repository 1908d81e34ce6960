package parquet

import (
	"fmt"
	"math"
	"strings"

	"github.com/segmentio/parquet-engine/compress"
)

// maxSchemaDepth bounds the nesting of schemas, which also guarantees that
// repetition and definition levels fit in a byte, and that cyclic node graphs
// are rejected.
const maxSchemaDepth = 127

// Schema represents a parquet schema created from a tree of nodes.
//
// Schemas and the columns they expose are immutable once created, and safe to
// use concurrently from multiple goroutines.
type Schema struct {
	name    string
	root    Node
	tree    *schemaNode
	columns []*Column
}

// Column is the descriptor of a leaf column of a schema: its path from the
// root, its type, and the maximum repetition and definition levels derived
// from its ancestors.
type Column struct {
	path               []string
	index              int
	node               Node
	typ                Type
	maxRepetitionLevel int
	maxDefinitionLevel int
}

// Path returns the path of the column from the root of the schema.
func (c *Column) Path() []string { return c.path[:len(c.path):len(c.path)] }

// Name returns the name of the column, which is the last element of its path.
func (c *Column) Name() string { return c.path[len(c.path)-1] }

// Index returns the position of the column in the depth-first ordering of the
// schema leaves.
func (c *Column) Index() int { return c.index }

// Type returns the type of values in the column.
func (c *Column) Type() Type { return c.typ }

// Node returns the schema node of the column.
func (c *Column) Node() Node { return c.node }

// Encoding returns the encoding configured on the column node, or nil.
func (c *Column) Encoding() Encoding { return c.node.Encoding() }

// Compression returns the compression codec configured on the column node, or
// nil.
func (c *Column) Compression() compress.Codec { return c.node.Compression() }

// MaxRepetitionLevel returns the number of repeated nodes on the path of the
// column, leaf included.
func (c *Column) MaxRepetitionLevel() int { return c.maxRepetitionLevel }

// MaxDefinitionLevel returns the number of optional and repeated nodes on the
// path of the column, leaf included.
func (c *Column) MaxDefinitionLevel() int { return c.maxDefinitionLevel }

// String returns the dot separated path of the column.
func (c *Column) String() string { return strings.Join(c.path, ".") }

// schemaNode is the compiled form of schema nodes used to compute levels and to
// shred and assemble records.
type schemaNode struct {
	name     string
	path     []string
	node     Node
	optional bool
	repeated bool
	defLevel int
	repLevel int
	fields   []*schemaNode
	column   int // leaf column index, -1 on groups
	first    int // range of leaf columns under the node
	last     int
	// LIST and MAP groups are represented by the values of their repeated
	// field, the repeated group of a LIST by the value of its element.
	collapse bool
	unwrap   bool
}

func (n *schemaNode) leaf() bool { return n.column >= 0 }

func (n *schemaNode) pathString() string { return strings.Join(n.path, ".") }

// NewSchema constructs a schema named name from the given root node.
//
// The function returns an error wrapping ErrSchema if the node tree is
// invalid: groups without fields, empty or duplicate field names, leaves
// without a physical type, logical annotations that do not apply to the
// physical type they annotate, or trees nested too deeply.
func NewSchema(name string, root Node) (*Schema, error) {
	if root == nil || root.Leaf() {
		return nil, fmt.Errorf("%w: the root of a schema must be a group", ErrSchema)
	}
	if root.Repeated() {
		return nil, fmt.Errorf("%w: the root of a schema cannot be repeated", ErrSchema)
	}
	s := &Schema{name: name, root: root}
	tree, err := s.compile(name, nil, root, 0, 0, 0, false)
	if err != nil {
		return nil, err
	}
	s.tree = tree
	return s, nil
}

func (s *Schema) compile(name string, path []string, node Node, depth, defLevel, repLevel int, inList bool) (*schemaNode, error) {
	if depth > maxSchemaDepth {
		return nil, fmt.Errorf("%w: %s: nesting exceeds the maximum depth of %d", ErrSchema, strings.Join(path, "."), maxSchemaDepth)
	}

	n := &schemaNode{
		name:   name,
		path:   path,
		node:   node,
		column: -1,
		first:  len(s.columns),
	}

	if depth > 0 {
		switch {
		case node.Repeated():
			n.repeated = true
			defLevel++
			repLevel++
		case node.Optional():
			n.optional = true
			defLevel++
		}
	}
	n.defLevel, n.repLevel = defLevel, repLevel

	if node.Leaf() {
		typ := node.Type()
		if typ == nil {
			return nil, fmt.Errorf("%w: %s: leaf has no physical type", ErrSchema, n.pathString())
		}
		if err := checkType(typ); err != nil {
			return nil, fmt.Errorf("%s: %w", n.pathString(), err)
		}
		if len(s.columns) == math.MaxInt16 {
			return nil, fmt.Errorf("%w: too many columns", ErrSchema)
		}
		n.column = len(s.columns)
		s.columns = append(s.columns, &Column{
			path:               path,
			index:              n.column,
			node:               node,
			typ:                typ,
			maxRepetitionLevel: repLevel,
			maxDefinitionLevel: defLevel,
		})
		n.last = len(s.columns)
		return n, nil
	}

	fields := node.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s: group has no fields", ErrSchema, displayPath(path, name))
	}

	logical := node.LogicalType()
	if logical != nil && logical.List == nil && logical.Map == nil {
		return nil, fmt.Errorf("%w: %s: logical type %s cannot annotate a group", ErrSchema, displayPath(path, name), logical)
	}
	n.collapse = logical != nil && len(fields) == 1 && fields[0].Repeated()
	n.unwrap = inList && n.repeated && len(fields) == 1

	names := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		fieldName := f.Name()
		if fieldName == "" {
			return nil, fmt.Errorf("%w: %s: field with empty name", ErrSchema, displayPath(path, name))
		}
		if _, exists := names[fieldName]; exists {
			return nil, fmt.Errorf("%w: %s: duplicate field name %q", ErrSchema, displayPath(path, name), fieldName)
		}
		names[fieldName] = struct{}{}

		fieldPath := make([]string, len(path)+1)
		copy(fieldPath, path)
		fieldPath[len(path)] = fieldName

		child, err := s.compile(fieldName, fieldPath, f, depth+1, defLevel, repLevel, n.collapse && logical.List != nil)
		if err != nil {
			return nil, err
		}
		n.fields = append(n.fields, child)
	}

	n.last = len(s.columns)
	return n, nil
}

func displayPath(path []string, name string) string {
	if len(path) == 0 {
		return name
	}
	return strings.Join(path, ".")
}

// Name returns the name of the schema.
func (s *Schema) Name() string { return s.name }

// Root returns the root node of the schema.
func (s *Schema) Root() Node { return s.root }

// Columns returns the leaf columns of the schema, in depth-first order.
func (s *Schema) Columns() []*Column { return s.columns[:len(s.columns):len(s.columns)] }

// NumColumns returns the number of leaf columns in the schema.
func (s *Schema) NumColumns() int { return len(s.columns) }

// Column returns the leaf column at index i.
func (s *Schema) Column(i int) *Column { return s.columns[i] }

// Lookup returns the leaf column at the given path.
func (s *Schema) Lookup(path ...string) (*Column, bool) {
	for _, c := range s.columns {
		if equalPaths(c.path, path) {
			return c, true
		}
	}
	return nil, false
}

// String returns the textual representation of the schema.
func (s *Schema) String() string {
	b := new(strings.Builder)
	_ = PrintSchema(b, s)
	return b.String()
}

func equalPaths(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
