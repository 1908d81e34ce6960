package parquet

import (
	"fmt"

	"github.com/segmentio/parquet-engine/format"
)

// schemaElements returns the flattened depth-first representation of the
// schema stored in file footers. The first element is the root.
func (s *Schema) schemaElements() []format.SchemaElement {
	fields := s.root.Fields()
	elements := []format.SchemaElement{{
		Name:        s.name,
		NumChildren: int32(len(fields)),
	}}
	for _, f := range fields {
		elements = appendSchemaElements(elements, f.Name(), f)
	}
	return elements
}

func appendSchemaElements(elements []format.SchemaElement, name string, node Node) []format.SchemaElement {
	repetitionType := fieldRepetitionTypeOf(node)
	elem := format.SchemaElement{
		Name:           name,
		RepetitionType: &repetitionType,
		LogicalType:    node.LogicalType(),
	}

	if node.Leaf() {
		typ := node.Type()
		kind := format.Type(typ.Kind())
		elem.Type = &kind
		if typ.Kind() == FixedLenByteArray {
			length := int32(typ.Length())
			elem.TypeLength = &length
		}
		elem.ConvertedType = typ.ConvertedType()
		if logical := typ.LogicalType(); logical != nil && logical.Decimal != nil {
			scale, precision := logical.Decimal.Scale, logical.Decimal.Precision
			elem.Scale, elem.Precision = &scale, &precision
		}
		return append(elements, elem)
	}

	fields := node.Fields()
	elem.NumChildren = int32(len(fields))
	elem.ConvertedType = convertedTypeOf(elem.LogicalType)
	elements = append(elements, elem)
	for _, f := range fields {
		elements = appendSchemaElements(elements, f.Name(), f)
	}
	return elements
}

// schemaFromElements rebuilds a schema from its footer representation. Legacy
// converted types are mapped to logical types when the logical type is absent.
func schemaFromElements(elements []format.SchemaElement) (*Schema, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrSchema)
	}
	root := &elements[0]
	if root.NumChildren <= 0 {
		return nil, fmt.Errorf("%w: root %q has no children", ErrSchema, root.Name)
	}
	p := &schemaParser{elements: elements, index: 1}
	group, err := p.parseFields(root, 0)
	if err != nil {
		return nil, err
	}
	if p.index != len(elements) {
		return nil, fmt.Errorf("%w: %d schema elements not referenced by the tree", ErrSchema, len(elements)-p.index)
	}
	return NewSchema(root.Name, group)
}

type schemaParser struct {
	elements []format.SchemaElement
	index    int
}

func (p *schemaParser) parseFields(parent *format.SchemaElement, depth int) (Group, error) {
	if depth > maxSchemaDepth {
		return nil, fmt.Errorf("%w: nesting exceeds the maximum depth of %d", ErrSchema, maxSchemaDepth)
	}
	group := make(Group, 0, min(int(parent.NumChildren), len(p.elements)))
	for i := int32(0); i < parent.NumChildren; i++ {
		node, name, err := p.parseNode(depth + 1)
		if err != nil {
			return nil, err
		}
		group = append(group, NewField(name, node))
	}
	return group, nil
}

func (p *schemaParser) parseNode(depth int) (Node, string, error) {
	if p.index >= len(p.elements) {
		return nil, "", fmt.Errorf("%w: schema elements end before the declared number of children", ErrSchema)
	}
	elem := &p.elements[p.index]
	p.index++

	logical := elem.LogicalType
	if logical == nil && elem.ConvertedType != nil {
		var scale, precision int32
		if elem.Scale != nil {
			scale = *elem.Scale
		}
		if elem.Precision != nil {
			precision = *elem.Precision
		}
		logical = logicalTypeOf(*elem.ConvertedType, scale, precision)
	}

	var node Node
	switch {
	case elem.NumChildren > 0:
		group, err := p.parseFields(elem, depth)
		if err != nil {
			return nil, "", err
		}
		if logical != nil && (logical.List != nil || logical.Map != nil) {
			node = &annotatedGroup{Group: group, logical: logical}
		} else {
			node = group
		}
	case elem.Type != nil:
		typ, err := physicalType(elem)
		if err != nil {
			return nil, "", err
		}
		if logical != nil {
			typ = Annotate(typ, logical)
		}
		node = Leaf(typ)
	default:
		return nil, "", fmt.Errorf("%w: %s: element is neither a group nor a leaf", ErrSchema, elem.Name)
	}

	switch {
	case elem.RepetitionType == nil:
		node = Required(node)
	case *elem.RepetitionType == format.Optional:
		node = Optional(node)
	case *elem.RepetitionType == format.Repeated:
		node = Repeated(node)
	default:
		node = Required(node)
	}
	return node, elem.Name, nil
}

func physicalType(elem *format.SchemaElement) (Type, error) {
	switch Kind(*elem.Type) {
	case Boolean:
		return BooleanType, nil
	case Int32:
		return Int32Type, nil
	case Int64:
		return Int64Type, nil
	case Int96:
		return Int96Type, nil
	case Float:
		return FloatType, nil
	case Double:
		return DoubleType, nil
	case ByteArray:
		return ByteArrayType, nil
	case FixedLenByteArray:
		if elem.TypeLength == nil {
			return nil, fmt.Errorf("%w: %s: FIXED_LEN_BYTE_ARRAY without length", ErrSchema, elem.Name)
		}
		return FixedLenByteArrayType(int(*elem.TypeLength)), nil
	default:
		return nil, fmt.Errorf("%w: %s: unknown physical type %d", ErrSchema, elem.Name, *elem.Type)
	}
}
