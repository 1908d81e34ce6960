package parquet

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/hashicorp/go-multierror"
	"github.com/segmentio/parquet-engine/compress"
)

const (
	DefaultCreatedBy                   = "github.com/segmentio/parquet-engine"
	DefaultPageBufferSize              = 1024 * 1024
	DefaultPageRowLimit                = 20000
	DefaultRowGroupTargetSize          = 128 * 1024 * 1024
	DefaultDictionaryFallbackThreshold = 64 * 1024
	DefaultDictionaryPageSizeLimit     = 1024 * 1024
)

// The ReaderConfig type carries configuration options for parquet readers.
//
// ReaderConfig implements the ReaderOption interface so it can be used directly
// as argument to the OpenFile function when needed, for example:
//
//	f, err := parquet.OpenFile(r, size, &parquet.ReaderConfig{
//		VerifyChecksums: true,
//	})
type ReaderConfig struct {
	VerifyChecksums bool
	Logger          log.Logger
	Metrics         *Metrics
}

// DefaultReaderConfig returns a new ReaderConfig value initialized with the
// default reader configuration.
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		Logger: log.NewNopLogger(),
	}
}

// Apply applies the given list of options to c.
func (c *ReaderConfig) Apply(options ...ReaderOption) {
	for _, opt := range options {
		opt.ConfigureReader(c)
	}
}

// ConfigureReader applies configuration options from c to config.
func (c *ReaderConfig) ConfigureReader(config *ReaderConfig) {
	*config = ReaderConfig{
		VerifyChecksums: c.VerifyChecksums || config.VerifyChecksums,
		Logger:          coalesceLogger(c.Logger, config.Logger),
		Metrics:         coalesceMetrics(c.Metrics, config.Metrics),
	}
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *ReaderConfig) Validate() error {
	const baseName = "parquet.(*ReaderConfig)."
	return errorInvalidConfiguration(
		validateNotNil(baseName+"Logger", c.Logger),
	)
}

// The WriterConfig type carries configuration options for parquet writers.
//
// WriterConfig implements the WriterOption interface so it can be used directly
// as argument to the NewWriter function when needed, for example:
//
//	writer := parquet.NewWriter(output, schema, &parquet.WriterConfig{
//		CreatedBy: "my test program",
//	})
type WriterConfig struct {
	CreatedBy                   string
	PageBufferSize              int
	PageRowLimit                int
	RowGroupTargetSize          int64
	Compression                 compress.Codec
	DictionaryFallbackThreshold int
	DictionaryPageSizeLimit     int
	DataPageStatistics          bool
	PageChecksums               bool
	KeyValueMetadata            map[string]string
	Logger                      log.Logger
	Metrics                     *Metrics
}

// DefaultWriterConfig returns a new WriterConfig value initialized with the
// default writer configuration.
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		CreatedBy:                   DefaultCreatedBy,
		PageBufferSize:              DefaultPageBufferSize,
		PageRowLimit:                DefaultPageRowLimit,
		RowGroupTargetSize:          DefaultRowGroupTargetSize,
		Compression:                 Uncompressed,
		DictionaryFallbackThreshold: DefaultDictionaryFallbackThreshold,
		DictionaryPageSizeLimit:     DefaultDictionaryPageSizeLimit,
		Logger:                      log.NewNopLogger(),
	}
}

// Apply applies the given list of options to c.
func (c *WriterConfig) Apply(options ...WriterOption) {
	for _, opt := range options {
		opt.ConfigureWriter(c)
	}
}

// ConfigureWriter applies configuration options from c to config.
func (c *WriterConfig) ConfigureWriter(config *WriterConfig) {
	keyValueMetadata := config.KeyValueMetadata
	if len(c.KeyValueMetadata) > 0 {
		keyValueMetadata = make(map[string]string, len(config.KeyValueMetadata)+len(c.KeyValueMetadata))
		for k, v := range config.KeyValueMetadata {
			keyValueMetadata[k] = v
		}
		for k, v := range c.KeyValueMetadata {
			keyValueMetadata[k] = v
		}
	}

	*config = WriterConfig{
		CreatedBy:                   coalesceString(c.CreatedBy, config.CreatedBy),
		PageBufferSize:              coalesceInt(c.PageBufferSize, config.PageBufferSize),
		PageRowLimit:                coalesceInt(c.PageRowLimit, config.PageRowLimit),
		RowGroupTargetSize:          coalesceInt64(c.RowGroupTargetSize, config.RowGroupTargetSize),
		Compression:                 coalesceCodec(c.Compression, config.Compression),
		DictionaryFallbackThreshold: coalesceInt(c.DictionaryFallbackThreshold, config.DictionaryFallbackThreshold),
		DictionaryPageSizeLimit:     coalesceInt(c.DictionaryPageSizeLimit, config.DictionaryPageSizeLimit),
		DataPageStatistics:          c.DataPageStatistics || config.DataPageStatistics,
		PageChecksums:               c.PageChecksums || config.PageChecksums,
		KeyValueMetadata:            keyValueMetadata,
		Logger:                      coalesceLogger(c.Logger, config.Logger),
		Metrics:                     coalesceMetrics(c.Metrics, config.Metrics),
	}
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *WriterConfig) Validate() error {
	const baseName = "parquet.(*WriterConfig)."
	return errorInvalidConfiguration(
		validatePositiveInt(baseName+"PageBufferSize", c.PageBufferSize),
		validatePositiveInt(baseName+"PageRowLimit", c.PageRowLimit),
		validatePositiveInt64(baseName+"RowGroupTargetSize", c.RowGroupTargetSize),
		validatePositiveInt(baseName+"DictionaryFallbackThreshold", c.DictionaryFallbackThreshold),
		validatePositiveInt(baseName+"DictionaryPageSizeLimit", c.DictionaryPageSizeLimit),
		validateNotNil(baseName+"Compression", c.Compression),
		validateNotNil(baseName+"Logger", c.Logger),
	)
}

// ReaderOption is an interface implemented by types that carry configuration
// options for parquet readers.
type ReaderOption interface {
	ConfigureReader(*ReaderConfig)
}

// WriterOption is an interface implemented by types that carry configuration
// options for parquet writers.
type WriterOption interface {
	ConfigureWriter(*WriterConfig)
}

// PageBufferSize configures the size of column page buffers on parquet writers.
//
// Note that the page buffer size refers to the in-memory buffers where pages
// are generated, not the size of pages after encoding and compression.
//
// Defaults to 1 MiB.
func PageBufferSize(size int) WriterOption {
	return writerOption(func(config *WriterConfig) { config.PageBufferSize = size })
}

// PageRowLimit configures the maximum number of rows in data pages.
//
// Defaults to 20000.
func PageRowLimit(rows int) WriterOption {
	return writerOption(func(config *WriterConfig) { config.PageRowLimit = rows })
}

// CreatedBy creates a configuration option which sets the name of the
// application that created a parquet file.
func CreatedBy(createdBy string) WriterOption {
	return writerOption(func(config *WriterConfig) { config.CreatedBy = createdBy })
}

// RowGroupTargetSize creates a configuration option to define the target size of
// row groups when creating parquet files. Writers flush row groups once their
// buffered size reaches the target.
//
// Defaults to 128 MiB.
func RowGroupTargetSize(size int64) WriterOption {
	return writerOption(func(config *WriterConfig) { config.RowGroupTargetSize = size })
}

// Compression creates a configuration option which sets the default
// compression codec of column chunks. Columns may override it with the
// Compressed node wrapper.
//
// Defaults to Uncompressed.
func Compression(codec compress.Codec) WriterOption {
	return writerOption(func(config *WriterConfig) { config.Compression = codec })
}

// DictionaryFallbackThreshold creates a configuration option which sets the
// number of distinct values above which dictionary encoded column chunks
// fall back to their plain encoding for the rest of the chunk. Column chunks
// holding more distinct values than the threshold carry no distinct count in
// their statistics.
//
// Defaults to 65536.
func DictionaryFallbackThreshold(distinctValues int) WriterOption {
	return writerOption(func(config *WriterConfig) { config.DictionaryFallbackThreshold = distinctValues })
}

// DictionaryPageSizeLimit creates a configuration option which sets the size
// above which dictionary pages trigger the fallback to plain encoding.
//
// Defaults to 1 MiB.
func DictionaryPageSizeLimit(size int) WriterOption {
	return writerOption(func(config *WriterConfig) { config.DictionaryPageSizeLimit = size })
}

// DataPageStatistics creates a configuration option which enables writing
// statistics in the headers of data pages.
//
// Defaults to false.
func DataPageStatistics(enabled bool) WriterOption {
	return writerOption(func(config *WriterConfig) { config.DataPageStatistics = enabled })
}

// PageChecksums creates a configuration option which enables computing CRC32
// checksums of pages.
//
// Defaults to false.
func PageChecksums(enabled bool) WriterOption {
	return writerOption(func(config *WriterConfig) { config.PageChecksums = enabled })
}

// KeyValueMetadata creates a configuration option which adds key/value metadata
// to the footer of parquet files.
func KeyValueMetadata(key, value string) WriterOption {
	return writerOption(func(config *WriterConfig) {
		if config.KeyValueMetadata == nil {
			config.KeyValueMetadata = map[string]string{key: value}
		} else {
			config.KeyValueMetadata[key] = value
		}
	})
}

// VerifyChecksums creates a configuration option which enables verifying the
// CRC32 checksums of pages that carry one.
//
// Defaults to false.
func VerifyChecksums(enabled bool) ReaderOption {
	return readerOption(func(config *ReaderConfig) { config.VerifyChecksums = enabled })
}

// WithLogger creates a configuration option which sets the logger of readers
// and writers.
func WithLogger(logger log.Logger) interface {
	ReaderOption
	WriterOption
} {
	return loggerOption{logger}
}

// WithMetrics creates a configuration option which sets the metrics that
// readers and writers report to.
func WithMetrics(metrics *Metrics) interface {
	ReaderOption
	WriterOption
} {
	return metricsOption{metrics}
}

type loggerOption struct{ logger log.Logger }

func (opt loggerOption) ConfigureReader(config *ReaderConfig) { config.Logger = opt.logger }
func (opt loggerOption) ConfigureWriter(config *WriterConfig) { config.Logger = opt.logger }

type metricsOption struct{ metrics *Metrics }

func (opt metricsOption) ConfigureReader(config *ReaderConfig) { config.Metrics = opt.metrics }
func (opt metricsOption) ConfigureWriter(config *WriterConfig) { config.Metrics = opt.metrics }

type readerOption func(*ReaderConfig)

func (opt readerOption) ConfigureReader(config *ReaderConfig) { opt(config) }

type writerOption func(*WriterConfig)

func (opt writerOption) ConfigureWriter(config *WriterConfig) { opt(config) }

func coalesceInt(i1, i2 int) int {
	if i1 != 0 {
		return i1
	}
	return i2
}

func coalesceInt64(i1, i2 int64) int64 {
	if i1 != 0 {
		return i1
	}
	return i2
}

func coalesceString(s1, s2 string) string {
	if s1 != "" {
		return s1
	}
	return s2
}

func coalesceCodec(c1, c2 compress.Codec) compress.Codec {
	if c1 != nil {
		return c1
	}
	return c2
}

func coalesceLogger(l1, l2 log.Logger) log.Logger {
	if l1 != nil {
		return l1
	}
	return l2
}

func coalesceMetrics(m1, m2 *Metrics) *Metrics {
	if m1 != nil {
		return m1
	}
	return m2
}

func validatePositiveInt(optionName string, optionValue int) error {
	if optionValue > 0 {
		return nil
	}
	return errorInvalidOptionValue(optionName, optionValue)
}

func validatePositiveInt64(optionName string, optionValue int64) error {
	if optionValue > 0 {
		return nil
	}
	return errorInvalidOptionValue(optionName, optionValue)
}

func validateNotNil(optionName string, optionValue interface{}) error {
	if optionValue != nil {
		return nil
	}
	return errorInvalidOptionValue(optionName, optionValue)
}

func errorInvalidOptionValue(optionName string, optionValue interface{}) error {
	return fmt.Errorf("invalid option value: %s: %v", optionName, optionValue)
}

func errorInvalidConfiguration(reasons ...error) error {
	var err *multierror.Error
	for _, reason := range reasons {
		if reason != nil {
			err = multierror.Append(err, reason)
		}
	}
	return err.ErrorOrNil()
}
