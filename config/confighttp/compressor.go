// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package confighttp // import "github.com/otel-log-samples/logpipeline/config/confighttp"

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/otel-log-samples/logpipeline/config/configcompression"
)

type writeCloserReset interface {
	io.WriteCloser
	Reset(w io.Writer)
}

var (
	_          writeCloserReset = (*gzip.Writer)(nil)
	gZipPool                    = &compressor{pool: sync.Pool{New: func() any { return gzip.NewWriter(nil) }}}
	_          writeCloserReset = (*snappy.Writer)(nil)
	snappyPool                  = &compressor{pool: sync.Pool{New: func() any { return snappy.NewBufferedWriter(nil) }}}
	_          writeCloserReset = (*zstd.Encoder)(nil)
	// Concurrency 1 disables async decoding via goroutines. This is useful to reduce memory usage and isn't a bottleneck for compression using sync.Pool.
	zStdPool                  = &compressor{pool: sync.Pool{New: func() any { zw, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1)); return zw }}}
	_        writeCloserReset = (*zlib.Writer)(nil)
	zLibPool                  = &compressor{pool: sync.Pool{New: func() any { return zlib.NewWriter(nil) }}}
	_        writeCloserReset = (*lz4.Writer)(nil)
	lz4Pool                   = &compressor{pool: sync.Pool{New: func() any {
		lz := lz4.NewWriter(nil)
		// Setting concurrency to 1 to disable async encoding by goroutines.
		_ = lz.Apply(lz4.ConcurrencyOption(1))
		return lz
	}}}
)

type compressor struct {
	pool sync.Pool
}

func newCompressor(compressionType configcompression.Type) (*compressor, error) {
	switch compressionType {
	case configcompression.TypeGzip:
		return gZipPool, nil
	case configcompression.TypeSnappy:
		return snappyPool, nil
	case configcompression.TypeZstd:
		return zStdPool, nil
	case configcompression.TypeZlib, configcompression.TypeDeflate:
		return zLibPool, nil
	case configcompression.TypeLz4:
		return lz4Pool, nil
	}
	return nil, fmt.Errorf("unsupported compression type %q", compressionType)
}

func (p *compressor) compress(buf *bytes.Buffer, body io.ReadCloser) error {
	writer := p.pool.Get().(writeCloserReset)
	defer p.pool.Put(writer)
	writer.Reset(buf)

	if body != nil {
		_, copyErr := io.Copy(writer, body)
		closeErr := body.Close()

		if copyErr != nil {
			return copyErr
		}

		if closeErr != nil {
			return closeErr
		}
	}

	return writer.Close()
}

type compressRoundTripper struct {
	rt              http.RoundTripper
	compressionType configcompression.Type
	compressor      *compressor
}

func newCompressRoundTripper(rt http.RoundTripper, compressionType configcompression.Type) (*compressRoundTripper, error) {
	encoder, err := newCompressor(compressionType)
	if err != nil {
		return nil, err
	}
	return &compressRoundTripper{
		rt:              rt,
		compressionType: compressionType,
		compressor:      encoder,
	}, nil
}

func (r *compressRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(headerContentEncoding) != "" {
		// If the header already specifies a content encoding then skip compression
		// since we don't want to compress it again. This is a safeguard that normally
		// should not happen since CompressRoundTripper is not intended to be used
		// with http clients which already do their own compression.
		return r.rt.RoundTrip(req)
	}

	// Compress the body.
	buf := bytes.NewBuffer([]byte{})
	if err := r.compressor.compress(buf, req.Body); err != nil {
		return nil, err
	}

	// Create a new request since the docs say that we cannot modify the "req"
	// (see https://golang.org/pkg/net/http/#RoundTripper).
	cReq, err := http.NewRequestWithContext(req.Context(), req.Method, req.URL.String(), buf)
	if err != nil {
		return nil, err
	}

	// Clone the headers and add the encoding header.
	cReq.Header = req.Header.Clone()
	cReq.Header.Add(headerContentEncoding, string(r.compressionType))
	cReq.Host = req.Host

	return r.rt.RoundTrip(cReq)
}

// NewDecompressor wraps body with the decoder for the given Content-Encoding.
// An empty encoding returns body unchanged.
func NewDecompressor(contentEncoding string, body io.Reader) (io.Reader, error) {
	switch configcompression.Type(contentEncoding) {
	case "", "none":
		return body, nil
	case configcompression.TypeGzip:
		return gzip.NewReader(body)
	case configcompression.TypeZlib, configcompression.TypeDeflate:
		return zlib.NewReader(body)
	case configcompression.TypeSnappy:
		return snappy.NewReader(body), nil
	case configcompression.TypeZstd:
		return zstd.NewReader(body, zstd.WithDecoderConcurrency(1))
	case configcompression.TypeLz4:
		return lz4.NewReader(body), nil
	}
	return nil, fmt.Errorf("unsupported Content-Encoding %q", contentEncoding)
}
