package parquet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math/bits"

	"github.com/segmentio/encoding/thrift"
	"github.com/segmentio/parquet-engine/compress"
	"github.com/segmentio/parquet-engine/format"
)

const magic = "PAR1"

func levelBitWidth(maxLevel int) int { return bits.Len(uint(maxLevel)) }

// appendLevels appends the data page v1 representation of levels to dst: the
// 4 bytes little-endian length of the hybrid RLE/bit-packed runs, followed by
// the runs.
func appendLevels(dst []byte, levels []uint8, maxLevel int) ([]byte, error) {
	runs, err := RLE.EncodeLevels(nil, levels, levelBitWidth(maxLevel))
	if err != nil {
		return dst, err
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(runs)))
	return append(dst, runs...), nil
}

// decodeLengthPrefixedLevels decodes the levels at the head of a data page v1
// payload and returns the remaining bytes.
func decodeLengthPrefixedLevels(src []byte, maxLevel, numValues int) ([]uint8, []byte, error) {
	if len(src) < 4 {
		return nil, src, fmt.Errorf("%w: missing length of levels section", ErrCorruptedPage)
	}
	n := binary.LittleEndian.Uint32(src)
	if uint64(n) > uint64(len(src)-4) {
		return nil, src, fmt.Errorf("%w: levels section of length %d overflows page of size %d", ErrCorruptedPage, n, len(src)-4)
	}
	levels, err := decodeLevels(src[4:4+n], maxLevel, numValues)
	return levels, src[4+n:], err
}

// decodeLevels decodes numValues levels of hybrid RLE/bit-packed runs. Runs
// may hold padding beyond numValues, which is discarded.
func decodeLevels(src []byte, maxLevel, numValues int) ([]uint8, error) {
	levels, err := RLE.DecodeLevels(make([]uint8, 0, numValues), src, levelBitWidth(maxLevel))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedPage, err)
	}
	if len(levels) < numValues {
		return nil, fmt.Errorf("%w: page holds %d levels but declares %d values", ErrCorruptedPage, len(levels), numValues)
	}
	levels = levels[:numValues]
	for _, level := range levels {
		if int(level) > maxLevel {
			return nil, fmt.Errorf("%w: level %d above maximum %d", ErrLevelOverflow, level, maxLevel)
		}
	}
	return levels, nil
}

// page is a page header paired with its payload, in the form that is written
// to column chunks.
type page struct {
	header format.PageHeader
	data   []byte
}

func newPage(pageType format.PageType, codec compress.Codec, payload []byte, checksum bool) (*page, error) {
	data, err := codec.Encode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompression, codec, err)
	}
	p := &page{
		header: format.PageHeader{
			Type:                 pageType,
			UncompressedPageSize: int32(len(payload)),
			CompressedPageSize:   int32(len(data)),
		},
		data: data,
	}
	if checksum {
		p.header.CRC = int32(crc32.ChecksumIEEE(data))
	}
	return p, nil
}

func newDictionaryPage(codec compress.Codec, dict *dictionary, checksum bool) (*page, error) {
	payload, err := dict.encode(nil)
	if err != nil {
		return nil, err
	}
	p, err := newPage(format.DictionaryPage, codec, payload, checksum)
	if err != nil {
		return nil, err
	}
	p.header.DictionaryPageHeader = &format.DictionaryPageHeader{
		NumValues: int32(dict.Len()),
		Encoding:  format.Plain,
	}
	return p, nil
}

func newDataPage(codec compress.Codec, enc format.Encoding, numValues int, payload []byte, stats *Statistics, checksum bool) (*page, error) {
	p, err := newPage(format.DataPage, codec, payload, checksum)
	if err != nil {
		return nil, err
	}
	p.header.DataPageHeader = &format.DataPageHeader{
		NumValues:               int32(numValues),
		Encoding:                enc,
		DefinitionLevelEncoding: format.RLE,
		RepetitionLevelEncoding: format.RLE,
	}
	if stats != nil {
		p.header.DataPageHeader.Statistics = stats.toFormat()
	}
	return p, nil
}

func (p *page) encoding() format.Encoding {
	switch {
	case p.header.DataPageHeader != nil:
		return p.header.DataPageHeader.Encoding
	case p.header.DataPageHeaderV2 != nil:
		return p.header.DataPageHeaderV2.Encoding
	case p.header.DictionaryPageHeader != nil:
		return p.header.DictionaryPageHeader.Encoding
	default:
		return format.Plain
	}
}

// writeTo writes the header and payload of p with a single call to w.Write, so
// a sink interrupted between pages only ever holds complete pages. It returns
// the total number of bytes and the size of the header.
func (p *page) writeTo(w io.Writer) (size, headerSize int64, err error) {
	header, err := thrift.Marshal(new(thrift.CompactProtocol), &p.header)
	if err != nil {
		return 0, 0, fmt.Errorf("encoding page header: %w", err)
	}
	buf := make([]byte, 0, len(header)+len(p.data))
	buf = append(buf, header...)
	buf = append(buf, p.data...)
	n, err := w.Write(buf)
	return int64(n), int64(len(header)), err
}

// dataPage is the decoded form of a data page: its levels, and the encoded
// values, uncompressed.
type dataPage struct {
	numValues        int
	encoding         format.Encoding
	repetitionLevels []uint8
	definitionLevels []uint8
	values           []byte
}

// pageReader iterates over the pages of a column chunk loaded in memory.
type pageReader struct {
	column          *Column
	codec           compress.Codec
	chunk           []byte
	reader          bytes.Reader
	protocol        thrift.CompactProtocol
	decoder         *thrift.Decoder
	verifyChecksums bool
	metrics         *Metrics
}

func newPageReader(column *Column, codec compress.Codec, chunk []byte, config *ReaderConfig) *pageReader {
	r := &pageReader{
		column:          column,
		codec:           codec,
		chunk:           chunk,
		verifyChecksums: config.VerifyChecksums,
		metrics:         config.Metrics,
	}
	r.reader.Reset(chunk)
	r.decoder = thrift.NewDecoder(r.protocol.NewReader(&r.reader))
	return r
}

// offset returns the position of the next page relative to the chunk start.
func (r *pageReader) offset() int { return len(r.chunk) - r.reader.Len() }

// readPage returns the next page header and its payload as stored in the
// chunk, or io.EOF when all pages were read.
func (r *pageReader) readPage() (*format.PageHeader, []byte, error) {
	if r.reader.Len() == 0 {
		return nil, nil, io.EOF
	}
	header := new(format.PageHeader)
	if err := r.decoder.Decode(header); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding page header at offset %d: %w", ErrCorruptedPage, r.offset(), err)
	}
	size := int(header.CompressedPageSize)
	if size < 0 || size > r.reader.Len() {
		return nil, nil, fmt.Errorf("%w: page of size %d overruns the %d bytes left in the column chunk", ErrCorruptedPage, size, r.reader.Len())
	}
	offset := r.offset()
	data := r.chunk[offset : offset+size : offset+size]
	if _, err := r.reader.Seek(int64(size), io.SeekCurrent); err != nil {
		return nil, nil, err
	}
	if r.verifyChecksums && header.CRC != 0 {
		if sum := int32(crc32.ChecksumIEEE(data)); sum != header.CRC {
			return nil, nil, fmt.Errorf("%w: checksum mismatch: %08x != %08x", ErrCorruptedPage, uint32(sum), uint32(header.CRC))
		}
	}
	r.metrics.pageRead(header.Type, int64(size))
	return header, data, nil
}

// decodeDictionaryPage decompresses a dictionary page and loads its values.
func (r *pageReader) decodeDictionaryPage(header *format.PageHeader, data []byte) (*dictionary, error) {
	h := header.DictionaryPageHeader
	if h == nil {
		return nil, fmt.Errorf("%w: dictionary page without dictionary header", ErrCorruptedPage)
	}
	if h.NumValues < 0 {
		return nil, fmt.Errorf("%w: dictionary page with %d values", ErrCorruptedPage, h.NumValues)
	}
	enc, err := LookupEncoding(h.Encoding)
	if err != nil {
		return nil, err
	}
	payload, err := decompressPage(r.codec, data, int(header.UncompressedPageSize))
	if err != nil {
		return nil, err
	}
	typ := r.column.Type()
	return decodeDictionary(typ.Kind(), typ.Length(), enc, payload, int(h.NumValues))
}

// decodeDataPage decompresses a data page of either version and splits its
// levels from its values.
func (r *pageReader) decodeDataPage(header *format.PageHeader, data []byte) (*dataPage, error) {
	switch {
	case header.DataPageHeader != nil:
		return r.decodeDataPageV1(header, data)
	case header.DataPageHeaderV2 != nil:
		return r.decodeDataPageV2(header, data)
	default:
		return nil, fmt.Errorf("%w: %s without data page header", ErrCorruptedPage, header.Type)
	}
}

func (r *pageReader) decodeDataPageV1(header *format.PageHeader, data []byte) (*dataPage, error) {
	h := header.DataPageHeader
	if h.NumValues <= 0 {
		return nil, fmt.Errorf("%w: data page with %d values", ErrCorruptedPage, h.NumValues)
	}
	page := &dataPage{numValues: int(h.NumValues), encoding: h.Encoding}
	maxRep := r.column.MaxRepetitionLevel()
	maxDef := r.column.MaxDefinitionLevel()
	if (maxRep > 0 && h.RepetitionLevelEncoding != format.RLE) || (maxDef > 0 && h.DefinitionLevelEncoding != format.RLE) {
		return nil, fmt.Errorf("%w: levels encoded with %s/%s", ErrUnsupportedEncoding, h.RepetitionLevelEncoding, h.DefinitionLevelEncoding)
	}

	payload, err := decompressPage(r.codec, data, int(header.UncompressedPageSize))
	if err != nil {
		return nil, err
	}
	if maxRep > 0 {
		if page.repetitionLevels, payload, err = decodeLengthPrefixedLevels(payload, maxRep, page.numValues); err != nil {
			return nil, err
		}
	}
	if maxDef > 0 {
		if page.definitionLevels, payload, err = decodeLengthPrefixedLevels(payload, maxDef, page.numValues); err != nil {
			return nil, err
		}
	}
	page.values = payload
	return page, nil
}

func (r *pageReader) decodeDataPageV2(header *format.PageHeader, data []byte) (*dataPage, error) {
	h := header.DataPageHeaderV2
	if h.NumValues <= 0 {
		return nil, fmt.Errorf("%w: data page with %d values", ErrCorruptedPage, h.NumValues)
	}
	repLen, defLen := int(h.RepetitionLevelsByteLength), int(h.DefinitionLevelsByteLength)
	if repLen < 0 || defLen < 0 || repLen+defLen > len(data) || repLen+defLen > int(header.UncompressedPageSize) {
		return nil, fmt.Errorf("%w: levels of length %d+%d overflow page of size %d", ErrCorruptedPage, repLen, defLen, len(data))
	}
	page := &dataPage{numValues: int(h.NumValues), encoding: h.Encoding}
	var err error
	if maxRep := r.column.MaxRepetitionLevel(); maxRep > 0 {
		if page.repetitionLevels, err = decodeLevels(data[:repLen], maxRep, page.numValues); err != nil {
			return nil, err
		}
	}
	if maxDef := r.column.MaxDefinitionLevel(); maxDef > 0 {
		if page.definitionLevels, err = decodeLevels(data[repLen:repLen+defLen], maxDef, page.numValues); err != nil {
			return nil, err
		}
	}
	page.values = data[repLen+defLen:]
	if h.IsCompressed == nil || *h.IsCompressed {
		uncompressedSize := int(header.UncompressedPageSize) - (repLen + defLen)
		if page.values, err = decompressPage(r.codec, page.values, uncompressedSize); err != nil {
			return nil, err
		}
	}
	return page, nil
}
