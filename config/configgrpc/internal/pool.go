// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package internal // import "github.com/otel-log-samples/logpipeline/config/configgrpc/internal"

import (
	"errors"
	"io"
	"sync"
)

// pooledWriter hands its encoder back to the pool once the message is closed.
type pooledWriter struct {
	io.WriteCloser
	release func()
}

func (w *pooledWriter) Close() error {
	defer w.release()
	return w.WriteCloser.Close()
}

// pooledReader hands its decoder back to the pool at the end of the message.
// Reads past that point keep returning io.EOF.
type pooledReader struct {
	r       io.Reader
	release func()
	once    sync.Once
}

func (pr *pooledReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if errors.Is(err, io.EOF) {
		pr.once.Do(func() {
			pr.r = eofReader{}
			pr.release()
		})
	}
	return n, err
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
