package encoding

import (
	"errors"
	"fmt"

	"github.com/segmentio/parquet-engine/deprecated"
	"github.com/segmentio/parquet-engine/format"
)

var (
	// ErrNotSupported is returned by encodings asked to handle a physical
	// type they have no representation for. It is always wrapped, use
	// errors.Is to test for it.
	ErrNotSupported = errors.New("encoding not supported")

	// ErrInvalidArgument is returned when the input of an encode or decode
	// call is malformed, for example a byte array whose length is not a
	// multiple of the fixed value size.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error prefixes err with the name of the encoding it originated from.
func Error(e Encoding, err error) error {
	return fmt.Errorf("%s: %w", e, err)
}

// Errorf is like Error with a formatted message.
func Errorf(e Encoding, msg string, args ...interface{}) error {
	return Error(e, fmt.Errorf(msg, args...))
}

func ErrEncodeInvalidInputSize(e Encoding, typ string, size int) error {
	return Errorf(e, "cannot encode %s from input of size %d: %w", typ, size, ErrInvalidArgument)
}

func ErrDecodeInvalidInputSize(e Encoding, typ string, size int) error {
	return Errorf(e, "cannot decode %s from input of size %d: %w", typ, size, ErrInvalidArgument)
}

// Supports reports whether e can represent values of the physical type t.
//
// The probe encodes an empty input, which every implementation accepts for
// the types it handles.
func Supports(e Encoding, t format.Type) bool {
	var err error
	switch t {
	case format.Boolean:
		_, err = e.EncodeBoolean(nil, nil)
	case format.Int32:
		_, err = e.EncodeInt32(nil, nil)
	case format.Int64:
		_, err = e.EncodeInt64(nil, nil)
	case format.Int96:
		_, err = e.EncodeInt96(nil, nil)
	case format.Float:
		_, err = e.EncodeFloat(nil, nil)
	case format.Double:
		_, err = e.EncodeDouble(nil, nil)
	case format.ByteArray:
		_, err = e.EncodeByteArray(nil, nil, nil)
	case format.FixedLenByteArray:
		_, err = e.EncodeFixedLenByteArray(nil, nil, 1)
	default:
		return false
	}
	return !errors.Is(err, ErrNotSupported)
}

// NotSupported implements Encoding by rejecting every type. Concrete
// encodings embed it and override the methods of the types they handle.
type NotSupported struct{}

func (NotSupported) String() string            { return "NOT_SUPPORTED" }
func (NotSupported) Encoding() format.Encoding { return -1 }

func (NotSupported) EncodeLevels([]byte, []uint8, int) ([]byte, error) {
	return nil, unsupported("levels")
}

func (NotSupported) EncodeBoolean([]byte, []bool) ([]byte, error) {
	return nil, unsupported(format.Boolean)
}

func (NotSupported) EncodeInt32([]byte, []int32) ([]byte, error) {
	return nil, unsupported(format.Int32)
}

func (NotSupported) EncodeInt64([]byte, []int64) ([]byte, error) {
	return nil, unsupported(format.Int64)
}

func (NotSupported) EncodeInt96([]byte, []deprecated.Int96) ([]byte, error) {
	return nil, unsupported(format.Int96)
}

func (NotSupported) EncodeFloat([]byte, []float32) ([]byte, error) {
	return nil, unsupported(format.Float)
}

func (NotSupported) EncodeDouble([]byte, []float64) ([]byte, error) {
	return nil, unsupported(format.Double)
}

func (NotSupported) EncodeByteArray([]byte, []byte, []uint32) ([]byte, error) {
	return nil, unsupported(format.ByteArray)
}

func (NotSupported) EncodeFixedLenByteArray([]byte, []byte, int) ([]byte, error) {
	return nil, unsupported(format.FixedLenByteArray)
}

func (NotSupported) DecodeLevels([]uint8, []byte, int) ([]uint8, error) {
	return nil, unsupported("levels")
}

func (NotSupported) DecodeBoolean([]bool, []byte) ([]bool, error) {
	return nil, unsupported(format.Boolean)
}

func (NotSupported) DecodeInt32([]int32, []byte) ([]int32, error) {
	return nil, unsupported(format.Int32)
}

func (NotSupported) DecodeInt64([]int64, []byte) ([]int64, error) {
	return nil, unsupported(format.Int64)
}

func (NotSupported) DecodeInt96([]deprecated.Int96, []byte) ([]deprecated.Int96, error) {
	return nil, unsupported(format.Int96)
}

func (NotSupported) DecodeFloat([]float32, []byte) ([]float32, error) {
	return nil, unsupported(format.Float)
}

func (NotSupported) DecodeDouble([]float64, []byte) ([]float64, error) {
	return nil, unsupported(format.Double)
}

func (NotSupported) DecodeByteArray([]byte, []uint32, []byte) ([]byte, []uint32, error) {
	return nil, nil, unsupported(format.ByteArray)
}

func (NotSupported) DecodeFixedLenByteArray([]byte, []byte, int) ([]byte, error) {
	return nil, unsupported(format.FixedLenByteArray)
}

func unsupported(typ interface{}) error {
	return fmt.Errorf("%w for %v values", ErrNotSupported, typ)
}

var _ Encoding = NotSupported{}
