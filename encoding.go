package parquet

import (
	"fmt"

	"github.com/segmentio/parquet-engine/encoding"
	"github.com/segmentio/parquet-engine/encoding/delta"
	"github.com/segmentio/parquet-engine/encoding/plain"
	"github.com/segmentio/parquet-engine/encoding/rle"
	"github.com/segmentio/parquet-engine/format"
)

// Encoding is the interface implemented by parquet column encodings, see the
// encoding package.
type Encoding = encoding.Encoding

var (
	// Plain is the default parquet encoding.
	Plain Encoding = new(plain.Encoding)

	// RLE is the hybrid bit-packing/run-length parquet encoding, it applies to
	// levels and booleans.
	RLE Encoding = new(rle.Encoding)

	// RLEDictionary is the encoding used by data pages referencing the values
	// of a dictionary page.
	RLEDictionary Encoding = new(rle.DictionaryEncoding)

	// DeltaBinaryPacked is the delta binary packed parquet encoding.
	DeltaBinaryPacked Encoding = new(delta.BinaryPackedEncoding)

	// DeltaLengthByteArray is the delta length byte array parquet encoding.
	DeltaLengthByteArray Encoding = new(delta.LengthByteArrayEncoding)

	// DeltaByteArray is the delta byte array parquet encoding.
	DeltaByteArray Encoding = new(delta.ByteArrayEncoding)

	// Table indexing the encodings supported by this package. PLAIN_DICTIONARY
	// data pages use the same layout as RLE_DICTIONARY.
	encodings = [...]Encoding{
		format.Plain:                Plain,
		format.PlainDictionary:      RLEDictionary,
		format.RLE:                  RLE,
		format.DeltaBinaryPacked:    DeltaBinaryPacked,
		format.DeltaLengthByteArray: DeltaLengthByteArray,
		format.DeltaByteArray:       DeltaByteArray,
		format.RLEDictionary:        RLEDictionary,
	}
)

// LookupEncoding returns the parquet encoding associated with the given code.
//
// The function returns an error wrapping ErrUnsupportedEncoding if the code
// does not represent an encoding implemented by this package.
func LookupEncoding(enc format.Encoding) (Encoding, error) {
	if enc >= 0 && int(enc) < len(encodings) {
		if e := encodings[enc]; e != nil {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
}

func isDictionaryEncoding(enc format.Encoding) bool {
	return enc == format.PlainDictionary || enc == format.RLEDictionary
}

// canEncode reports whether enc supports values of the given kind.
func canEncode(enc Encoding, kind Kind) bool {
	if isDictionaryEncoding(enc.Encoding()) {
		return kind.valid() && kind != Boolean
	}
	return kind.valid() && encoding.Supports(enc, format.Type(kind))
}
