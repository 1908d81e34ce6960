package deprecated

// ConvertedType is the legacy annotation of schema elements. It is superseded
// by logical types but still written so that older readers can interpret the
// columns.
type ConvertedType int32

const (
	UTF8            ConvertedType = 0
	Map             ConvertedType = 1
	MapKeyValue     ConvertedType = 2
	List            ConvertedType = 3
	Enum            ConvertedType = 4
	Decimal         ConvertedType = 5
	Date            ConvertedType = 6
	TimeMillis      ConvertedType = 7
	TimeMicros      ConvertedType = 8
	TimestampMillis ConvertedType = 9
	TimestampMicros ConvertedType = 10
	Uint8           ConvertedType = 11
	Uint16          ConvertedType = 12
	Uint32          ConvertedType = 13
	Uint64          ConvertedType = 14
	Int8            ConvertedType = 15
	Int16           ConvertedType = 16
	Int32           ConvertedType = 17
	Int64           ConvertedType = 18
	Json            ConvertedType = 19
	Bson            ConvertedType = 20
	Interval        ConvertedType = 21
)

var convertedTypes = [...]string{
	UTF8:            "UTF8",
	Map:             "MAP",
	MapKeyValue:     "MAP_KEY_VALUE",
	List:            "LIST",
	Enum:            "ENUM",
	Decimal:         "DECIMAL",
	Date:            "DATE",
	TimeMillis:      "TIME_MILLIS",
	TimeMicros:      "TIME_MICROS",
	TimestampMillis: "TIMESTAMP_MILLIS",
	TimestampMicros: "TIMESTAMP_MICROS",
	Uint8:           "UINT_8",
	Uint16:          "UINT_16",
	Uint32:          "UINT_32",
	Uint64:          "UINT_64",
	Int8:            "INT_8",
	Int16:           "INT_16",
	Int32:           "INT_32",
	Int64:           "INT_64",
	Json:            "JSON",
	Bson:            "BSON",
	Interval:        "INTERVAL",
}

func (t ConvertedType) String() string {
	if t >= 0 && int(t) < len(convertedTypes) {
		return convertedTypes[t]
	}
	return "ConvertedType(?)"
}
