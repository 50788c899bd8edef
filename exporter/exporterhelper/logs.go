// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package exporterhelper turns a plain push function into an exporter.Logs
// with per-attempt timeouts, retries with exponential backoff and self
// telemetry.
package exporterhelper // import "github.com/otel-log-samples/logpipeline/exporter/exporterhelper"

import (
	"context"
	"errors"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/exporter"
	"github.com/otel-log-samples/logpipeline/record"
)

var errNilPushLogsData = errors.New("nil PushLogs")

// PushLogsFunc is a helper function that is similar to exporter.Logs.Export
// but can be retried by the helper.
type PushLogsFunc func(ctx context.Context, records []record.Record) error

type logsExporter struct {
	*baseExporter
}

// NewLogs creates an exporter.Logs that records observability metrics and
// wraps every request with the configured timeout and retry policy.
func NewLogs(set component.TelemetrySettings, pusher PushLogsFunc, options ...Option) (exporter.Logs, error) {
	if pusher == nil {
		return nil, errNilPushLogsData
	}
	be, err := newBaseExporter(set, senderFunc(pusher), options...)
	if err != nil {
		return nil, err
	}
	return &logsExporter{baseExporter: be}, nil
}

func (lexp *logsExporter) Export(ctx context.Context, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}
	return lexp.sender.send(ctx, records)
}
