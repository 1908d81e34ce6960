package compress_test

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	abrotli "github.com/andybalholm/brotli"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/segmentio/parquet-engine/compress"
	"github.com/segmentio/parquet-engine/compress/brotli"
	"github.com/segmentio/parquet-engine/compress/gzip"
	"github.com/segmentio/parquet-engine/compress/lz4"
	"github.com/segmentio/parquet-engine/compress/snappy"
	"github.com/segmentio/parquet-engine/compress/uncompressed"
	"github.com/segmentio/parquet-engine/compress/zstd"
	"github.com/segmentio/parquet-engine/format"
)

var tests = [...]struct {
	scenario string
	codec    compress.Codec
	code     format.CompressionCodec
}{
	{
		scenario: "uncompressed",
		codec:    new(uncompressed.Codec),
		code:     format.Uncompressed,
	},

	{
		scenario: "snappy",
		codec:    new(snappy.Codec),
		code:     format.Snappy,
	},

	{
		scenario: "gzip",
		codec:    new(gzip.Codec),
		code:     format.Gzip,
	},

	{
		scenario: "brotli",
		codec:    new(brotli.Codec),
		code:     format.Brotli,
	},

	{
		scenario: "zstd",
		codec:    new(zstd.Codec),
		code:     format.Zstd,
	},

	{
		scenario: "lz4",
		codec:    new(lz4.Codec),
		code:     format.Lz4Raw,
	},
}

func TestCompressionCodec(t *testing.T) {
	repeated := bytes.Repeat([]byte("1234567890qwertyuiopasdfghjklzxcvbnm"), 1000)
	random := make([]byte, 64*1024)
	rand.New(rand.NewSource(0)).Read(random)

	inputs := []struct {
		scenario string
		data     []byte
	}{
		{scenario: "repeated", data: repeated},
		{scenario: "incompressible", data: random},
		{scenario: "single byte", data: []byte{42}},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			if code := test.codec.CompressionCodec(); code != test.code {
				t.Errorf("wrong compression codec: want=%s got=%s", test.code, code)
			}

			for _, input := range inputs {
				t.Run(input.scenario, func(t *testing.T) {
					buffer := make([]byte, 0, len(input.data))
					output := make([]byte, 0, len(input.data))

					const N = 10
					// Run the test multiple times to exercise codecs that maintain
					// state across compression/decompression.
					for i := 0; i < N; i++ {
						var err error

						buffer, err = test.codec.Encode(buffer[:0], input.data)
						if err != nil {
							t.Fatal(err)
						}

						output, err = test.codec.Decode(output[:0], buffer)
						if err != nil {
							t.Fatal(err)
						}

						if !bytes.Equal(input.data, output) {
							t.Errorf("content mismatch after compressing and decompressing (attempt %d/%d)", i+1, N)
						}
					}
				})
			}
		})
	}
}

func TestCompressionCodecEmptyInput(t *testing.T) {
	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			buffer, err := test.codec.Encode(nil, nil)
			if err != nil {
				t.Fatal(err)
			}
			output, err := test.codec.Decode(nil, buffer)
			if err != nil {
				t.Fatal(err)
			}
			if len(output) != 0 {
				t.Errorf("decoding empty input produced %d bytes", len(output))
			}
		})
	}
}

func TestCompressionCodecConcurrency(t *testing.T) {
	data := bytes.Repeat([]byte("parquet"), 4096)

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			errs := make(chan error, 8)
			for i := 0; i < cap(errs); i++ {
				go func() {
					b, err := test.codec.Encode(nil, data)
					if err == nil {
						b, err = test.codec.Decode(nil, b)
					}
					if err == nil && !bytes.Equal(b, data) {
						err = errMismatch
					}
					errs <- err
				}()
			}
			for i := 0; i < cap(errs); i++ {
				if err := <-errs; err != nil {
					t.Error(err)
				}
			}
		})
	}
}

var errMismatch = errors.New("content mismatch")

func TestStreamingCodecTrailer(t *testing.T) {
	data := bytes.Repeat([]byte("trailer"), 73)

	z, err := new(gzip.Codec).Encode(nil, data)
	if err != nil {
		t.Fatal(err)
	}
	r, err := kgzip.NewReader(bytes.NewReader(z))
	if err != nil {
		t.Fatal(err)
	}
	// the gzip reader checks the CRC and size trailer at EOF
	if out, err := io.ReadAll(r); err != nil || !bytes.Equal(out, data) {
		t.Errorf("gzip stream is incomplete: %v", err)
	}

	b, err := new(brotli.Codec).Encode(nil, data)
	if err != nil {
		t.Fatal(err)
	}
	if out, err := io.ReadAll(abrotli.NewReader(bytes.NewReader(b))); err != nil || !bytes.Equal(out, data) {
		t.Errorf("brotli stream is incomplete: %v", err)
	}
}
