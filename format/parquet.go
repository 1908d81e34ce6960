package format

import (
	"fmt"

	"github.com/segmentio/parquet-engine/deprecated"
)

// Types supported by Parquet. These types are intended to be used in combination
// with the encodings to control the on disk storage format. For example INT16
// is not included as a type since a good encoding of INT32 would handle this.
type Type int32

const (
	Boolean           Type = 0
	Int32             Type = 1
	Int64             Type = 2
	Int96             Type = 3 // deprecated, only used by legacy implementations.
	Float             Type = 4
	Double            Type = 5
	ByteArray         Type = 6
	FixedLenByteArray Type = 7
)

func (t Type) String() string {
	switch t {
	case Boolean:
		return "BOOLEAN"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Int96:
		return "INT96"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case ByteArray:
		return "BYTE_ARRAY"
	case FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "Type(?)"
	}
}

// Representation of Schemas.
type FieldRepetitionType int32

const (
	// The field is required (can not be null) and each record has exactly 1 value.
	Required FieldRepetitionType = 0
	// The field is optional (can be null) and each record has 0 or 1 values.
	Optional FieldRepetitionType = 1
	// The field is repeated and can contain 0 or more values.
	Repeated FieldRepetitionType = 2
)

func (t FieldRepetitionType) String() string {
	switch t {
	case Required:
		return "REQUIRED"
	case Optional:
		return "OPTIONAL"
	case Repeated:
		return "REPEATED"
	default:
		return "FieldRepetitionType(?)"
	}
}

// Statistics per row group and per page.
// All fields are optional.
type Statistics struct {
	// Deprecated min and max values, only written for signed orders.
	Max []byte `thrift:"1"`
	Min []byte `thrift:"2"`
	// Count of null value in the column.
	NullCount int64 `thrift:"3"`
	// Count of distinct values occurring.
	DistinctCount int64 `thrift:"4"`
	// Min and max values for the column, determined by its ColumnOrder.
	//
	// Values are encoded using PLAIN encoding, except that variable-length byte
	// arrays do not include a length prefix.
	MaxValue []byte `thrift:"5"`
	MinValue []byte `thrift:"6"`
}

// Empty structs to use as logical type annotations.
type StringType struct{} // allowed for BINARY, must be encoded with UTF-8
type UUIDType struct{}   // allowed for FIXED[16], must encode raw UUID bytes
type MapType struct{}    // see LogicalTypes.md
type ListType struct{}   // see LogicalTypes.md
type EnumType struct{}   // allowed for BINARY, must be encoded with UTF-8
type DateType struct{}   // allowed for INT32

func (*StringType) String() string { return "STRING" }
func (*UUIDType) String() string   { return "UUID" }
func (*MapType) String() string    { return "MAP" }
func (*ListType) String() string   { return "LIST" }
func (*EnumType) String() string   { return "ENUM" }
func (*DateType) String() string   { return "DATE" }

// Logical type to annotate a column that is always null.
type NullType struct{}

func (*NullType) String() string { return "NULL" }

// Decimal logical type annotation.
//
// Allowed for physical types: INT32, INT64, FIXED, and BINARY
type DecimalType struct {
	Scale     int32 `thrift:"1,required"`
	Precision int32 `thrift:"2,required"`
}

func (t *DecimalType) String() string {
	return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
}

// Time units for logical types.
type MilliSeconds struct{}
type MicroSeconds struct{}
type NanoSeconds struct{}

func (*MilliSeconds) String() string { return "MILLIS" }
func (*MicroSeconds) String() string { return "MICROS" }
func (*NanoSeconds) String() string  { return "NANOS" }

type TimeUnit struct { // union
	Millis *MilliSeconds `thrift:"1"`
	Micros *MicroSeconds `thrift:"2"`
	Nanos  *NanoSeconds  `thrift:"3"`
}

func (u *TimeUnit) String() string {
	switch {
	case u.Millis != nil:
		return u.Millis.String()
	case u.Micros != nil:
		return u.Micros.String()
	case u.Nanos != nil:
		return u.Nanos.String()
	default:
		return ""
	}
}

// Timestamp logical type annotation
//
// Allowed for physical types: INT64
type TimestampType struct {
	IsAdjustedToUTC bool     `thrift:"1,required"`
	Unit            TimeUnit `thrift:"2,required"`
}

func (t *TimestampType) String() string {
	return fmt.Sprintf("TIMESTAMP(isAdjustedToUTC=%t,unit=%s)", t.IsAdjustedToUTC, &t.Unit)
}

// Time logical type annotation
//
// Allowed for physical types: INT32 (millis), INT64 (micros, nanos)
type TimeType struct {
	IsAdjustedToUTC bool     `thrift:"1,required"`
	Unit            TimeUnit `thrift:"2,required"`
}

func (t *TimeType) String() string {
	return fmt.Sprintf("TIME(isAdjustedToUTC=%t,unit=%s)", t.IsAdjustedToUTC, &t.Unit)
}

// Integer logical type annotation
//
// bitWidth must be 8, 16, 32, or 64.
//
// Allowed for physical types: INT32, INT64
type IntType struct {
	BitWidth int8 `thrift:"1,required"`
	IsSigned bool `thrift:"2,required"`
}

func (t *IntType) String() string {
	return fmt.Sprintf("INT(%d,%t)", t.BitWidth, t.IsSigned)
}

// Embedded JSON logical type annotation
//
// Allowed for physical types: BINARY
type JsonType struct{}

func (t *JsonType) String() string { return "JSON" }

// Embedded BSON logical type annotation
//
// Allowed for physical types: BINARY
type BsonType struct{}

func (t *BsonType) String() string { return "BSON" }

// LogicalType annotations to replace ConvertedType.
//
// To maintain compatibility, implementations using LogicalType for a
// SchemaElement must also set the corresponding ConvertedType (if any).
type LogicalType struct { // union
	UTF8      *StringType    `thrift:"1"`
	Map       *MapType       `thrift:"2"`
	List      *ListType      `thrift:"3"`
	Enum      *EnumType      `thrift:"4"`
	Decimal   *DecimalType   `thrift:"5"`
	Date      *DateType      `thrift:"6"`
	Time      *TimeType      `thrift:"7"`
	Timestamp *TimestampType `thrift:"8"`
	// 9: reserved for Interval
	Integer *IntType  `thrift:"10"`
	Unknown *NullType `thrift:"11"`
	Json    *JsonType `thrift:"12"`
	Bson    *BsonType `thrift:"13"`
	UUID    *UUIDType `thrift:"14"`
}

func (t *LogicalType) String() string {
	switch {
	case t.UTF8 != nil:
		return t.UTF8.String()
	case t.Map != nil:
		return t.Map.String()
	case t.List != nil:
		return t.List.String()
	case t.Enum != nil:
		return t.Enum.String()
	case t.Decimal != nil:
		return t.Decimal.String()
	case t.Date != nil:
		return t.Date.String()
	case t.Time != nil:
		return t.Time.String()
	case t.Timestamp != nil:
		return t.Timestamp.String()
	case t.Integer != nil:
		return t.Integer.String()
	case t.Unknown != nil:
		return t.Unknown.String()
	case t.Json != nil:
		return t.Json.String()
	case t.Bson != nil:
		return t.Bson.String()
	case t.UUID != nil:
		return t.UUID.String()
	default:
		return ""
	}
}

// Represents a element inside a schema definition.
//
//   - if it is a group (inner node) then type is undefined and num_children is
//     defined
//
//   - if it is a primitive type (leaf) then type is defined and num_children is
//     undefined
//
// The nodes are listed in depth first traversal order.
type SchemaElement struct {
	Type           *Type                     `thrift:"1,optional"`
	TypeLength     *int32                    `thrift:"2,optional"`
	RepetitionType *FieldRepetitionType      `thrift:"3,optional"`
	Name           string                    `thrift:"4,required"`
	NumChildren    int32                     `thrift:"5,optional"`
	ConvertedType  *deprecated.ConvertedType `thrift:"6,optional"`
	Scale          *int32                    `thrift:"7,optional"`
	Precision      *int32                    `thrift:"8,optional"`
	FieldID        int32                     `thrift:"9,optional"`
	LogicalType    *LogicalType              `thrift:"10,optional"`
}

// Encodings supported by Parquet. Not all encodings are valid for all types.
// These enums are also used to specify the encoding of definition and
// repetition levels.
type Encoding int32

const (
	Plain Encoding = 0
	// GroupVarInt Encoding = 1 (never used)
	PlainDictionary      Encoding = 2
	RLE                  Encoding = 3
	BitPacked            Encoding = 4
	DeltaBinaryPacked    Encoding = 5
	DeltaLengthByteArray Encoding = 6
	DeltaByteArray       Encoding = 7
	RLEDictionary        Encoding = 8
	ByteStreamSplit      Encoding = 9
)

func (e Encoding) String() string {
	switch e {
	case Plain:
		return "PLAIN"
	case PlainDictionary:
		return "PLAIN_DICTIONARY"
	case RLE:
		return "RLE"
	case BitPacked:
		return "BIT_PACKED"
	case DeltaBinaryPacked:
		return "DELTA_BINARY_PACKED"
	case DeltaLengthByteArray:
		return "DELTA_LENGTH_BYTE_ARRAY"
	case DeltaByteArray:
		return "DELTA_BYTE_ARRAY"
	case RLEDictionary:
		return "RLE_DICTIONARY"
	case ByteStreamSplit:
		return "BYTE_STREAM_SPLIT"
	default:
		return "Encoding(?)"
	}
}

// Supported compression algorithms.
type CompressionCodec int32

const (
	Uncompressed CompressionCodec = 0
	Snappy       CompressionCodec = 1
	Gzip         CompressionCodec = 2
	LZO          CompressionCodec = 3
	Brotli       CompressionCodec = 4
	Lz4          CompressionCodec = 5 // hadoop framing, deprecated
	Zstd         CompressionCodec = 6
	Lz4Raw       CompressionCodec = 7
)

func (c CompressionCodec) String() string {
	switch c {
	case Uncompressed:
		return "UNCOMPRESSED"
	case Snappy:
		return "SNAPPY"
	case Gzip:
		return "GZIP"
	case LZO:
		return "LZO"
	case Brotli:
		return "BROTLI"
	case Lz4:
		return "LZ4"
	case Zstd:
		return "ZSTD"
	case Lz4Raw:
		return "LZ4_RAW"
	default:
		return "CompressionCodec(?)"
	}
}

type PageType int32

const (
	DataPage       PageType = 0
	IndexPage      PageType = 1
	DictionaryPage PageType = 2
	DataPageV2     PageType = 3
)

func (p PageType) String() string {
	switch p {
	case DataPage:
		return "DATA_PAGE"
	case IndexPage:
		return "INDEX_PAGE"
	case DictionaryPage:
		return "DICTIONARY_PAGE"
	case DataPageV2:
		return "DATA_PAGE_V2"
	default:
		return "PageType(?)"
	}
}

// Data page header.
type DataPageHeader struct {
	// Number of values, including NULLs, in this data page.
	NumValues               int32      `thrift:"1,required"`
	Encoding                Encoding   `thrift:"2,required"`
	DefinitionLevelEncoding Encoding   `thrift:"3,required"`
	RepetitionLevelEncoding Encoding   `thrift:"4,required"`
	Statistics              Statistics `thrift:"5,optional"`
}

// The dictionary page must be placed at the first position of the column chunk
// if it is partly or completely dictionary encoded. At most one dictionary page
// can be placed in a column chunk.
type DictionaryPageHeader struct {
	NumValues int32    `thrift:"1,required"`
	Encoding  Encoding `thrift:"2,required"`
	IsSorted  bool     `thrift:"3,optional"`
}

// Page header of the second version of data pages. Repetition and definition
// levels are stored uncompressed and without length prefix, only the values
// section is compressed.
type DataPageHeaderV2 struct {
	NumValues                  int32      `thrift:"1,required"`
	NumNulls                   int32      `thrift:"2,required"`
	NumRows                    int32      `thrift:"3,required"`
	Encoding                   Encoding   `thrift:"4,required"`
	DefinitionLevelsByteLength int32      `thrift:"5,required"`
	RepetitionLevelsByteLength int32      `thrift:"6,required"`
	IsCompressed               *bool      `thrift:"7,optional"`
	Statistics                 Statistics `thrift:"8,optional"`
}

type PageHeader struct {
	// The type of the page indicates which of the *Header fields below is set.
	Type PageType `thrift:"1,required"`

	// Uncompressed page size in bytes (not including this header).
	UncompressedPageSize int32 `thrift:"2,required"`

	// Compressed (and potentially encrypted) page size in bytes, not including
	// this header.
	CompressedPageSize int32 `thrift:"3,required"`

	// The 32bit CRC checksum for the page, computed on the compressed payload.
	CRC int32 `thrift:"4,optional"`

	DataPageHeader       *DataPageHeader       `thrift:"5,optional"`
	DictionaryPageHeader *DictionaryPageHeader `thrift:"7,optional"`
	DataPageHeaderV2     *DataPageHeaderV2     `thrift:"8,optional"`
}

// Wrapper struct to store key values.
type KeyValue struct {
	Key   string `thrift:"1,required"`
	Value string `thrift:"2,required"`
}

// Statistics of a given page type and encoding.
type PageEncodingStats struct {
	PageType PageType `thrift:"1,required"`
	Encoding Encoding `thrift:"2,required"`
	Count    int32    `thrift:"3,required"`
}

// Description for column metadata.
type ColumnMetaData struct {
	Type                  Type                `thrift:"1,required"`
	Encoding              []Encoding          `thrift:"2,required"`
	PathInSchema          []string            `thrift:"3,required"`
	Codec                 CompressionCodec    `thrift:"4,required"`
	NumValues             int64               `thrift:"5,required"`
	TotalUncompressedSize int64               `thrift:"6,required"`
	TotalCompressedSize   int64               `thrift:"7,required"`
	KeyValueMetadata      []KeyValue          `thrift:"8,optional"`
	DataPageOffset        int64               `thrift:"9,required"`
	IndexPageOffset       int64               `thrift:"10,optional"`
	DictionaryPageOffset  int64               `thrift:"11,optional"`
	Statistics            Statistics          `thrift:"12,optional"`
	EncodingStats         []PageEncodingStats `thrift:"13,optional"`
}

type ColumnChunk struct {
	// File where column data is stored. If not set, assumed to be same file as
	// metadata.
	FilePath   string         `thrift:"1,optional"`
	FileOffset int64          `thrift:"2,required"`
	MetaData   ColumnMetaData `thrift:"3,optional"`
}

type RowGroup struct {
	// Metadata for each column chunk in this row group. This list must have the
	// same order as the SchemaElement list in FileMetaData.
	Columns             []ColumnChunk `thrift:"1,required"`
	TotalByteSize       int64         `thrift:"2,required"`
	NumRows             int64         `thrift:"3,required"`
	FileOffset          int64         `thrift:"5,optional"`
	TotalCompressedSize int64         `thrift:"6,optional"`
	Ordinal             int16         `thrift:"7,optional"`
}

// Empty struct to signal the order defined by the physical or logical type.
type TypeDefinedOrder struct{}

type ColumnOrder struct { // union
	TypeOrder *TypeDefinedOrder `thrift:"1"`
}

// Description for file metadata.
type FileMetaData struct {
	// Version of this file.
	Version int32 `thrift:"1,required"`

	// Parquet schema for this file. This schema contains metadata for all the
	// columns. The schema is represented as a tree with a single root. The nodes
	// of the tree are flattened to a list by doing a depth-first traversal.
	Schema []SchemaElement `thrift:"2,required"`

	// Number of rows in this file.
	NumRows int64 `thrift:"3,required"`

	// Row groups in this file.
	RowGroups []RowGroup `thrift:"4,required"`

	// Optional key/value metadata.
	KeyValueMetadata []KeyValue `thrift:"5,optional"`

	// String for application that wrote this file.
	CreatedBy string `thrift:"6,optional"`

	// Sort order used for the min_value and max_value fields in the Statistics
	// objects and the min_values and max_values fields in the ColumnIndex
	// objects of each column in this file.
	ColumnOrders []ColumnOrder `thrift:"7,optional"`
}
