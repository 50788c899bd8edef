// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package internal // import "github.com/otel-log-samples/logpipeline/config/configgrpc/internal"

import (
	"io"
	"sync"

	"github.com/golang/snappy"
	"google.golang.org/grpc/encoding"
)

const SnappyName = "snappy"

func init() {
	encoding.RegisterCompressor(NewSnappyCodec())
}

type snappyCodec struct {
	writers sync.Pool
	readers sync.Pool
}

// NewSnappyCodec returns the gRPC compressor registered under SnappyName.
func NewSnappyCodec() encoding.Compressor {
	return &snappyCodec{}
}

func (*snappyCodec) Name() string {
	return SnappyName
}

func (c *snappyCodec) Compress(w io.Writer) (io.WriteCloser, error) {
	sw, ok := c.writers.Get().(*snappy.Writer)
	if ok {
		sw.Reset(w)
	} else {
		sw = snappy.NewBufferedWriter(w)
	}
	return &pooledWriter{WriteCloser: sw, release: func() { c.writers.Put(sw) }}, nil
}

func (c *snappyCodec) Decompress(r io.Reader) (io.Reader, error) {
	sr, ok := c.readers.Get().(*snappy.Reader)
	if ok {
		sr.Reset(r)
	} else {
		sr = snappy.NewReader(r)
	}
	return &pooledReader{r: sr, release: func() { c.readers.Put(sr) }}, nil
}
