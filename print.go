package parquet

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// PrintSchema writes the textual representation of schema to w:
//
//	message name {
//		required int32 id;
//		optional binary name (STRING);
//	}
func PrintSchema(w io.Writer, schema *Schema) error {
	return Print(w, schema.Name(), schema.Root())
}

func Print(w io.Writer, name string, node Node) error {
	return PrintIndent(w, name, node, "\t", "\n")
}

func PrintIndent(w io.Writer, name string, node Node, pattern, newline string) error {
	pw := &printWriter{writer: w}
	pw.WriteString("message ")

	if name == "" {
		pw.WriteString("{")
	} else {
		pw.WriteString(name)
		pw.WriteString(" {")
	}

	if fields := node.Fields(); len(fields) > 0 {
		pi := &printIndent{
			pattern: pattern,
			newline: newline,
			repeat:  1,
		}

		pi.writeNewLine(pw)

		for _, field := range fields {
			printWithIndent(pw, field.Name(), field, pi)
			pi.writeNewLine(pw)
		}
	}

	pw.WriteString("}")
	return pw.err
}

func sprint(name string, node Node) string {
	s := new(strings.Builder)
	printWithIndent(s, name, node, &printIndent{})
	return s.String()
}

func printWithIndent(w io.StringWriter, name string, node Node, indent *printIndent) {
	indent.writeTo(w)

	switch {
	case node.Optional():
		w.WriteString("optional ")
	case node.Repeated():
		w.WriteString("repeated ")
	default:
		w.WriteString("required ")
	}

	if node.Leaf() {
		typ := node.Type()
		if typ == nil {
			w.WriteString("<?> ")
		} else {
			switch typ.Kind() {
			case Boolean:
				w.WriteString("boolean ")
			case Int32:
				w.WriteString("int32 ")
			case Int64:
				w.WriteString("int64 ")
			case Int96:
				w.WriteString("int96 ")
			case Float:
				w.WriteString("float ")
			case Double:
				w.WriteString("double ")
			case ByteArray:
				w.WriteString("binary ")
			case FixedLenByteArray:
				w.WriteString(fmt.Sprintf("fixed_len_byte_array(%d) ", typ.Length()))
			default:
				w.WriteString("<?> ")
			}
		}

		w.WriteString(name)
		writeAnnotation(w, node)
		w.WriteString(";")
	} else {
		w.WriteString("group")

		if name != "" {
			w.WriteString(" ")
			w.WriteString(name)
		}

		writeAnnotation(w, node)

		w.WriteString(" {")
		indent.writeNewLine(w)
		indent.push()

		for _, field := range node.Fields() {
			printWithIndent(w, field.Name(), field, indent)
			indent.writeNewLine(w)
		}

		indent.pop()
		indent.writeTo(w)
		w.WriteString("}")
	}
}

func writeAnnotation(w io.StringWriter, node Node) {
	if logical := node.LogicalType(); logical != nil {
		if annotation := logical.String(); annotation != "" {
			w.WriteString(" (")
			w.WriteString(annotation)
			w.WriteString(")")
		}
	}
}

type printIndent struct {
	pattern string
	newline string
	repeat  int
}

func (i *printIndent) push() {
	i.repeat++
}

func (i *printIndent) pop() {
	i.repeat--
}

func (i *printIndent) writeTo(w io.StringWriter) {
	if i.pattern != "" {
		for n := i.repeat; n > 0; n-- {
			w.WriteString(i.pattern)
		}
	}
}

func (i *printIndent) writeNewLine(w io.StringWriter) {
	if i.newline != "" {
		w.WriteString(i.newline)
	}
}

type printWriter struct {
	writer io.Writer
	err    error
}

func (w *printWriter) Write(b []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.writer.Write(b)
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *printWriter) WriteString(s string) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := io.WriteString(w.writer, s)
	if err != nil {
		w.err = err
	}
	return n, err
}

// PrintMetadata writes a table describing the row groups and column chunks of
// the file metadata to w.
func PrintMetadata(w io.Writer, metadata *FileMetadata) error {
	pw := &printWriter{writer: w}
	fmt.Fprintf(pw, "created by: %s\n", metadata.CreatedBy())
	fmt.Fprintf(pw, "rows: %s\n", humanize.Comma(metadata.NumRows()))
	fmt.Fprintf(pw, "row groups: %d\n", len(metadata.RowGroups()))
	for _, kv := range metadata.KeyValueMetadata() {
		fmt.Fprintf(pw, "%s: %s\n", kv.Key, kv.Value)
	}
	if pw.err != nil {
		return pw.err
	}

	table := tablewriter.NewWriter(pw)
	table.SetHeader([]string{"row group", "column", "type", "codec", "encodings", "values", "nulls", "compressed", "uncompressed"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for i, rowGroup := range metadata.RowGroups() {
		for _, chunk := range rowGroup.Columns() {
			encodings := make([]string, len(chunk.Encodings()))
			for j, enc := range chunk.Encodings() {
				encodings[j] = enc.String()
			}
			table.Append([]string{
				fmt.Sprint(i),
				chunk.Column().String(),
				chunk.Column().Type().String(),
				chunk.Codec().String(),
				strings.Join(encodings, ","),
				humanize.Comma(chunk.NumValues()),
				humanize.Comma(chunk.Statistics().NullCount()),
				humanize.IBytes(uint64(chunk.TotalCompressedSize())),
				humanize.IBytes(uint64(chunk.TotalUncompressedSize())),
			})
		}
	}

	table.Render()
	return pw.err
}

var (
	_ io.StringWriter = (*printWriter)(nil)
)
