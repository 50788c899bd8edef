// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package exportertest // import "github.com/otel-log-samples/logpipeline/exporter/exportertest"

import (
	"context"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/exporter"
	"github.com/otel-log-samples/logpipeline/record"
)

type nopExporter struct {
	component.StartFunc
	component.ShutdownFunc
}

func (nopExporter) Export(context.Context, []record.Record) error { return nil }

// NewNop returns an exporter.Logs that discards every batch.
func NewNop() exporter.Logs {
	return nopExporter{}
}
