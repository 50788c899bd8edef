// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package batchprocessor // import "github.com/otel-log-samples/logpipeline/processor/batchprocessor"

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"

	"github.com/otel-log-samples/logpipeline/component"
)

const (
	scopeName = "github.com/otel-log-samples/logpipeline/processor/batchprocessor"

	// MetricQueueSize is the number of records waiting in the queue.
	MetricQueueSize = "processor_batch_queue_size"
	// MetricDroppedRecords counts records lost to overflow, shutdown or a failed export.
	MetricDroppedRecords = "processor_batch_dropped_log_records"
	// MetricExportedRecords counts records handed to the exporter successfully.
	MetricExportedRecords = "processor_batch_exported_log_records"
	// MetricFailedBatches counts batches dropped after the exporter gave up.
	MetricFailedBatches = "processor_batch_failed_batches"
	// MetricTimeoutTriggerSend counts exports started by the schedule delay.
	MetricTimeoutTriggerSend = "processor_batch_timeout_trigger_send"
	// MetricBatchSizeTriggerSend counts exports started by a full batch.
	MetricBatchSizeTriggerSend = "processor_batch_batch_size_trigger_send"
	// MetricBatchSendSize is the distribution of exported batch sizes.
	MetricBatchSendSize = "processor_batch_batch_send_size"
)

type trigger int

const (
	triggerTimeout trigger = iota
	triggerBatchSize
	triggerFlush
	triggerShutdown
)

func (t trigger) String() string {
	switch t {
	case triggerTimeout:
		return "timeout"
	case triggerBatchSize:
		return "batch_size"
	case triggerFlush:
		return "flush"
	case triggerShutdown:
		return "shutdown"
	}
	return "unknown"
}

type batchProcessorTelemetry struct {
	exportCtx context.Context

	queueSize          metric.Int64ObservableGauge
	droppedRecords     metric.Int64Counter
	exportedRecords    metric.Int64Counter
	failedBatches      metric.Int64Counter
	timeoutTriggerSend metric.Int64Counter
	sizeTriggerSend    metric.Int64Counter
	batchSendSize      metric.Int64Histogram
}

func newBatchProcessorTelemetry(set component.TelemetrySettings, currentQueueSize func() int) (*batchProcessorTelemetry, error) {
	bpt := &batchProcessorTelemetry{exportCtx: context.Background()}
	meter := set.MeterProvider.Meter(scopeName)

	var errs, err error
	bpt.queueSize, err = meter.Int64ObservableGauge(MetricQueueSize,
		metric.WithDescription("Number of log records waiting to be exported."),
		metric.WithUnit("{records}"),
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			obs.Observe(int64(currentQueueSize()))
			return nil
		}))
	errs = multierr.Append(errs, err)
	bpt.droppedRecords, err = meter.Int64Counter(MetricDroppedRecords,
		metric.WithDescription("Number of log records dropped by the batch processor."),
		metric.WithUnit("{records}"))
	errs = multierr.Append(errs, err)
	bpt.exportedRecords, err = meter.Int64Counter(MetricExportedRecords,
		metric.WithDescription("Number of log records exported by the batch processor."),
		metric.WithUnit("{records}"))
	errs = multierr.Append(errs, err)
	bpt.failedBatches, err = meter.Int64Counter(MetricFailedBatches,
		metric.WithDescription("Number of batches dropped after a failed export."),
		metric.WithUnit("{batches}"))
	errs = multierr.Append(errs, err)
	bpt.timeoutTriggerSend, err = meter.Int64Counter(MetricTimeoutTriggerSend,
		metric.WithDescription("Number of times the batch was sent due to a timeout trigger."),
		metric.WithUnit("1"))
	errs = multierr.Append(errs, err)
	bpt.sizeTriggerSend, err = meter.Int64Counter(MetricBatchSizeTriggerSend,
		metric.WithDescription("Number of times the batch was sent due to a size trigger."),
		metric.WithUnit("1"))
	errs = multierr.Append(errs, err)
	bpt.batchSendSize, err = meter.Int64Histogram(MetricBatchSendSize,
		metric.WithDescription("Number of log records in each exported batch."),
		metric.WithUnit("{records}"),
		metric.WithExplicitBucketBoundaries(10, 25, 50, 75, 100, 250, 500, 750, 1000, 2000, 3000, 4000, 5000))
	errs = multierr.Append(errs, err)

	if errs != nil {
		return nil, errs
	}
	return bpt, nil
}

func (bpt *batchProcessorTelemetry) recordDropped(n int) {
	bpt.droppedRecords.Add(bpt.exportCtx, int64(n))
}

func (bpt *batchProcessorTelemetry) recordExport(t trigger, sent int, err error) {
	switch t {
	case triggerBatchSize:
		bpt.sizeTriggerSend.Add(bpt.exportCtx, 1)
	case triggerTimeout:
		bpt.timeoutTriggerSend.Add(bpt.exportCtx, 1)
	}
	bpt.batchSendSize.Record(bpt.exportCtx, int64(sent))
	if err != nil {
		bpt.failedBatches.Add(bpt.exportCtx, 1)
		bpt.droppedRecords.Add(bpt.exportCtx, int64(sent))
		return
	}
	bpt.exportedRecords.Add(bpt.exportCtx, int64(sent))
}
