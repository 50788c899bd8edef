// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package processortest provides processors for testing the components that
// feed a processor.
package processortest // import "github.com/otel-log-samples/logpipeline/processor/processortest"

import (
	"context"

	"github.com/otel-log-samples/logpipeline/processor"
	"github.com/otel-log-samples/logpipeline/record"
)

type nopProcessor struct{}

func (nopProcessor) OnEmit(context.Context, record.Record) error { return nil }

func (nopProcessor) ForceFlush(context.Context) error { return nil }

func (nopProcessor) Shutdown(context.Context) error { return nil }

// NewNop returns a processor.Logs that discards every record.
func NewNop() processor.Logs {
	return nopProcessor{}
}
