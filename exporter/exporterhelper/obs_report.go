// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package exporterhelper // import "github.com/otel-log-samples/logpipeline/exporter/exporterhelper"

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/record"
)

const (
	scopeName = "github.com/otel-log-samples/logpipeline/exporter/exporterhelper"

	spanName = "exporter/logs"

	// ItemsSent used to track number of items sent by exporters.
	ItemsSent = "items.sent"
	// ItemsFailed used to track number of items that failed to be sent by exporters.
	ItemsFailed = "items.failed"

	// MetricSentLogRecords counts the log records successfully exported.
	MetricSentLogRecords = "exporter_sent_log_records"
	// MetricSendFailedLogRecords counts the log records that failed to be exported.
	MetricSendFailedLogRecords = "exporter_send_failed_log_records"
)

// obsReport is a helper to add observability to an exporter.
type obsReport struct {
	tracer          trace.Tracer
	itemsSentInst   metric.Int64Counter
	itemsFailedInst metric.Int64Counter
}

func newObsReport(set component.TelemetrySettings) (*obsReport, error) {
	meter := set.MeterProvider.Meter(scopeName)
	sent, err := meter.Int64Counter(MetricSentLogRecords,
		metric.WithDescription("Number of log records successfully sent to destination."),
		metric.WithUnit("{records}"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter(MetricSendFailedLogRecords,
		metric.WithDescription("Number of log records in failed attempts to send to destination."),
		metric.WithUnit("{records}"))
	if err != nil {
		return nil, err
	}
	return &obsReport{
		tracer:          set.TracerProvider.Tracer(scopeName),
		itemsSentInst:   sent,
		itemsFailedInst: failed,
	}, nil
}

// startOp creates the span used to trace the operation. Returning
// the updated context and the created span.
func (or *obsReport) startOp(ctx context.Context) context.Context {
	ctx, _ = or.tracer.Start(ctx, spanName)
	return ctx
}

// endOp completes the export operation that was started with startOp.
func (or *obsReport) endOp(ctx context.Context, numLogRecords int, err error) {
	numSent, numFailedToSend := toNumItems(numLogRecords, err)
	or.itemsSentInst.Add(ctx, numSent)
	or.itemsFailedInst.Add(ctx, numFailedToSend)

	span := trace.SpanFromContext(ctx)
	defer span.End()
	// End the span according to errors.
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Int64(ItemsSent, numSent),
			attribute.Int64(ItemsFailed, numFailedToSend),
		)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}
}

func toNumItems(numExportedItems int, err error) (int64, int64) {
	if err != nil {
		return 0, int64(numExportedItems)
	}
	return int64(numExportedItems), 0
}

type obsReportSender struct {
	obsrep *obsReport
	next   requestSender
}

func (ors *obsReportSender) send(ctx context.Context, records []record.Record) error {
	c := ors.obsrep.startOp(ctx)
	err := ors.next.send(c, records)
	ors.obsrep.endOp(c, len(records), err)
	return err
}
