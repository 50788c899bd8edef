// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package processortest // import "github.com/otel-log-samples/logpipeline/processor/processortest"

import (
	"context"
	"sync"

	"github.com/otel-log-samples/logpipeline/processor"
	"github.com/otel-log-samples/logpipeline/record"
)

// Sink is a processor.Logs that stores every record synchronously along with
// the context it was emitted with.
type Sink struct {
	// Err, if set, is returned by every method.
	Err error

	mu        sync.Mutex
	records   []record.Record
	contexts  []context.Context
	flushes   int
	shutdowns int
}

var _ processor.Logs = (*Sink)(nil)

// OnEmit stores rec.
func (s *Sink) OnEmit(ctx context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	s.contexts = append(s.contexts, ctx)
	return s.Err
}

// ForceFlush counts the flushes.
func (s *Sink) ForceFlush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return s.Err
}

// Shutdown counts the shutdowns.
func (s *Sink) Shutdown(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdowns++
	return s.Err
}

// Records returns the stored records in emission order.
func (s *Sink) Records() []record.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]record.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Contexts returns the context passed with each stored record.
func (s *Sink) Contexts() []context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]context.Context, len(s.contexts))
	copy(out, s.contexts)
	return out
}

// Flushes returns the number of ForceFlush calls.
func (s *Sink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// Shutdowns returns the number of Shutdown calls.
func (s *Sink) Shutdowns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdowns
}

// Reset deletes the stored records.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.contexts = nil
}
