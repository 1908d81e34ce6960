// Package zstd implements the ZSTD parquet compression codec.
package zstd

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/parquet-engine/format"
)

type Level = zstd.EncoderLevel

const (
	// SpeedFastest will choose the fastest reasonable compression.
	// This is roughly equivalent to the fastest Zstandard mode.
	SpeedFastest = zstd.SpeedFastest

	// SpeedDefault is the default "pretty fast" compression option.
	// This is roughly equivalent to the default Zstandard mode (level 3).
	SpeedDefault = zstd.SpeedDefault

	// SpeedBetterCompression will yield better compression than the default.
	// Currently it is about zstd level 7-8 with ~ 2x-3x the default CPU usage.
	SpeedBetterCompression = zstd.SpeedBetterCompression

	// SpeedBestCompression will choose the best available compression option.
	// This will offer the best compression no matter the CPU cost.
	SpeedBestCompression = zstd.SpeedBestCompression
)

const (
	DefaultLevel = SpeedDefault
)

// Codec compresses whole pages with EncodeAll and DecodeAll, which are safe to
// call concurrently on a shared encoder and decoder. Both are created on first
// use.
type Codec struct {
	Level Level

	encoderOnce sync.Once
	encoder     *zstd.Encoder
	encoderErr  error

	decoderOnce sync.Once
	decoder     *zstd.Decoder
	decoderErr  error
}

func (c *Codec) String() string {
	return "ZSTD"
}

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Zstd
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	c.encoderOnce.Do(func() {
		c.encoder, c.encoderErr = zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(c.level()),
			zstd.WithZeroFrames(true),
			zstd.WithEncoderCRC(false),
		)
	})
	if c.encoderErr != nil {
		return dst[:0], c.encoderErr
	}
	return c.encoder.EncodeAll(src, dst[:0]), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	c.decoderOnce.Do(func() {
		c.decoder, c.decoderErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
		)
	})
	if c.decoderErr != nil {
		return dst[:0], c.decoderErr
	}
	return c.decoder.DecodeAll(src, dst[:0])
}

func (c *Codec) level() Level {
	if c.Level != 0 {
		return c.Level
	}
	return DefaultLevel
}
