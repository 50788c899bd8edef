// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package processor defines the stage between a logger and an exporter.
package processor // import "github.com/otel-log-samples/logpipeline/processor"

import (
	"context"

	"github.com/otel-log-samples/logpipeline/record"
)

// Logs receives every record emitted through a provider.
//
// OnEmit is called synchronously on the goroutine that logged, so it must
// not block on I/O. ForceFlush and Shutdown may block until ctx is done.
type Logs interface {
	// OnEmit hands rec to the processor. A returned error reports that rec
	// was dropped; the caller has nothing to do about it.
	OnEmit(ctx context.Context, rec record.Record) error
	// ForceFlush exports every record accepted before the call.
	ForceFlush(ctx context.Context) error
	// Shutdown flushes what is left and releases the exporter. Calls after
	// the first are no-ops.
	Shutdown(ctx context.Context) error
}
