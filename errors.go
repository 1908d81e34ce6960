package parquet

import "errors"

var (
	// ErrSchema is returned when a schema definition is invalid or
	// contradictory: unresolvable physical types, logical annotations that do
	// not apply to their physical type, duplicate or empty field names.
	ErrSchema = errors.New("invalid schema")

	// ErrCorruptedFooter is returned when opening a file whose magic markers,
	// footer length or metadata cannot be parsed or are inconsistent.
	//
	// No partially decoded metadata is ever returned with this error.
	ErrCorruptedFooter = errors.New("corrupted footer")

	// ErrUnsupportedEncoding is returned when a page or column chunk refers to
	// an encoding or a compression codec that this package does not implement.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrCompression is returned when a codec fails, or when the size of a
	// decompressed page differs from the size declared in its header.
	ErrCompression = errors.New("compression error")

	// ErrLevelOverflow is returned when a repetition or definition level
	// exceeds the maximum level of its column.
	ErrLevelOverflow = errors.New("level overflow")

	// ErrTypeMismatch is returned when a value written to a column does not
	// match the physical type of the column, or when a required value is
	// missing from a record.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrIncompleteRowGroup is returned when the columns of a row group do not
	// all hold the same number of rows.
	ErrIncompleteRowGroup = errors.New("incomplete row group")

	// ErrCorruptedPage is returned when the framing or the content of a page
	// is invalid: value counts, sizes, checksums or dictionary indexes.
	ErrCorruptedPage = errors.New("corrupted page")

	// ErrClosed is returned when using a writer or reader which reached its
	// terminal state.
	ErrClosed = errors.New("closed")
)
