// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package exportertest provides exporters for testing components that sit in
// front of an exporter.
package exportertest // import "github.com/otel-log-samples/logpipeline/exporter/exportertest"

import (
	"context"
	"sync"

	"github.com/otel-log-samples/logpipeline/exporter"
	"github.com/otel-log-samples/logpipeline/record"
)

// LogsSink is an exporter.Logs that stores every batch it receives.
//
// If ExportFunc is set it is called before the batch is stored and its
// error is returned; batches for which it fails are not stored.
type LogsSink struct {
	ExportFunc func(ctx context.Context, records []record.Record) error

	mu        sync.Mutex
	batches   [][]record.Record
	calls     int
	started   bool
	shutdowns int
}

var _ exporter.Logs = (*LogsSink)(nil)

// Start marks the sink as started.
func (s *LogsSink) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

// Shutdown counts the calls to Shutdown.
func (s *LogsSink) Shutdown(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdowns++
	return nil
}

// Export stores records.
func (s *LogsSink) Export(ctx context.Context, records []record.Record) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.ExportFunc != nil {
		if err := s.ExportFunc(ctx, records); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, records)
	return nil
}

// AllBatches returns the stored batches in arrival order.
func (s *LogsSink) AllBatches() [][]record.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]record.Record, len(s.batches))
	copy(out, s.batches)
	return out
}

// AllRecords returns the stored records of every batch.
func (s *LogsSink) AllRecords() []record.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []record.Record
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

// BatchSizes returns the size of each stored batch.
func (s *LogsSink) BatchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.batches))
	for i, b := range s.batches {
		out[i] = len(b)
	}
	return out
}

// RecordCount returns the number of stored records.
func (s *LogsSink) RecordCount() int {
	return len(s.AllRecords())
}

// ExportCalls returns the number of Export calls, failed ones included.
func (s *LogsSink) ExportCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Started reports whether Start was called.
func (s *LogsSink) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Shutdowns returns the number of Shutdown calls.
func (s *LogsSink) Shutdowns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdowns
}

// Reset deletes any stored data.
func (s *LogsSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = nil
	s.calls = 0
}
