// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package internal // import "github.com/otel-log-samples/logpipeline/config/configgrpc/internal"

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/grpc/encoding"
)

const ZstdName = "zstd"

// zstdWindowSize caps the memory a receiver needs to decode our messages.
const zstdWindowSize = 512 * 1024

func init() {
	encoding.RegisterCompressor(NewZstdCodec())
}

type zstdCodec struct {
	encoders sync.Pool
	decoders sync.Pool
}

// NewZstdCodec returns the gRPC compressor registered under ZstdName.
func NewZstdCodec() encoding.Compressor {
	return &zstdCodec{}
}

func (*zstdCodec) Name() string {
	return ZstdName
}

func (c *zstdCodec) Compress(w io.Writer) (io.WriteCloser, error) {
	enc, ok := c.encoders.Get().(*zstd.Encoder)
	if ok {
		enc.Reset(w)
	} else {
		var err error
		enc, err = zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithWindowSize(zstdWindowSize))
		if err != nil {
			return nil, err
		}
	}
	return &pooledWriter{WriteCloser: enc, release: func() { c.encoders.Put(enc) }}, nil
}

func (c *zstdCodec) Decompress(r io.Reader) (io.Reader, error) {
	dec, ok := c.decoders.Get().(*zstd.Decoder)
	if ok {
		if err := dec.Reset(r); err != nil {
			c.decoders.Put(dec)
			return nil, err
		}
	} else {
		var err error
		dec, err = zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
	}
	return &pooledReader{r: dec, release: func() { c.decoders.Put(dec) }}, nil
}
