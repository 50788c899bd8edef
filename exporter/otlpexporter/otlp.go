// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package otlpexporter // import "github.com/otel-log-samples/logpipeline/exporter/otlpexporter"

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/collector/pdata/plog/plogotlp"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/exporter"
	"github.com/otel-log-samples/logpipeline/exporter/exporterhelper"
	"github.com/otel-log-samples/logpipeline/exporter/exportererror"
	"github.com/otel-log-samples/logpipeline/exporter/internal/otlplogs"
	"github.com/otel-log-samples/logpipeline/record"
)

var errNotStarted = errors.New("OTLP exporter has not been started")

type baseExporter struct {
	// Input configuration.
	config   *Config
	settings component.TelemetrySettings

	// gRPC connections, created by start.
	clients     *logsClients
	metadata    metadata.MD
	callOptions []grpc.CallOption
}

// NewLogs creates an exporter.Logs sending records over one persistent gRPC
// connection. The connection is created by Start and closed by Shutdown.
func NewLogs(set component.TelemetrySettings, cfg *Config) (exporter.Logs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	oce := &baseExporter{config: cfg, settings: component.Sanitize(set)}
	return exporterhelper.NewLogs(oce.settings, oce.pushLogs,
		exporterhelper.WithStart(oce.start),
		exporterhelper.WithShutdown(oce.shutdown),
		exporterhelper.WithTimeout(cfg.TimeoutConfig),
		exporterhelper.WithRetry(cfg.RetryConfig),
	)
}

// start creates the gRPC connections. Connecting happens in the background,
// so an unreachable endpoint is reported by the first export, not here.
func (e *baseExporter) start(ctx context.Context) (err error) {
	dial := func(ctx context.Context) (*grpc.ClientConn, error) {
		return e.config.ClientConfig.ToClientConn(ctx, e.settings)
	}
	if e.clients, err = dialLogsClients(ctx, e.config.NumConnections, dial); err != nil {
		return err
	}
	e.metadata = metadata.New(e.config.ClientConfig.Headers)
	e.callOptions = []grpc.CallOption{
		grpc.WaitForReady(e.config.ClientConfig.WaitForReady),
	}
	return nil
}

func (e *baseExporter) shutdown(context.Context) error {
	if e.clients != nil {
		return e.clients.close()
	}
	return nil
}

func (e *baseExporter) pushLogs(ctx context.Context, records []record.Record) error {
	if e.clients == nil {
		return exportererror.NewPermanent(errNotStarted)
	}
	req := plogotlp.NewExportRequestFromLogs(otlplogs.FromRecords(records))
	resp, respErr := e.clients.pick().Export(e.enhanceContext(ctx), req, e.callOptions...)
	if err := processError(respErr); err != nil {
		return fmt.Errorf("failed to push log data via OTLP exporter: %w", err)
	}
	partialSuccess := resp.PartialSuccess()
	if partialSuccess.ErrorMessage() != "" || partialSuccess.RejectedLogRecords() != 0 {
		e.settings.Logger.Warn("Partial success response",
			zap.String("message", partialSuccess.ErrorMessage()),
			zap.Int64("dropped_log_records", partialSuccess.RejectedLogRecords()),
		)
	}
	return nil
}

func (e *baseExporter) enhanceContext(ctx context.Context) context.Context {
	if e.metadata.Len() > 0 {
		return metadata.NewOutgoingContext(ctx, e.metadata)
	}
	return ctx
}

// processError classifies the result of an export call: nil on success, a
// throttled error when the server sent RetryInfo, a plain error for retryable
// codes and a permanent error otherwise.
func processError(err error) error {
	if err == nil {
		// Request is successful, we are done.
		return nil
	}

	st := status.Convert(err)
	if st.Code() == codes.OK {
		// Not really an error, still success.
		return nil
	}

	retryInfo := getRetryInfo(st)

	if !shouldRetry(st.Code(), retryInfo) {
		return exportererror.NewPermanent(err)
	}

	if throttle := getThrottleDuration(retryInfo); throttle != 0 {
		return exportererror.NewThrottleRetry(err, throttle)
	}

	return err
}

func shouldRetry(code codes.Code, retryInfo *errdetails.RetryInfo) bool {
	switch code {
	case codes.Canceled,
		codes.DeadlineExceeded,
		codes.Aborted,
		codes.OutOfRange,
		codes.Unavailable,
		codes.DataLoss:
		// These are retryable errors.
		return true
	case codes.ResourceExhausted:
		// Retry only if RetryInfo was supplied by the server.
		// This indicates that the server can still recover from resource exhaustion.
		return retryInfo != nil
	}
	// Don't retry on any other code.
	return false
}

func getRetryInfo(st *status.Status) *errdetails.RetryInfo {
	for _, detail := range st.Details() {
		if t, ok := detail.(*errdetails.RetryInfo); ok {
			return t
		}
	}
	return nil
}

func getThrottleDuration(t *errdetails.RetryInfo) time.Duration {
	if t == nil || t.RetryDelay == nil {
		return 0
	}
	if t.RetryDelay.Seconds > 0 || t.RetryDelay.Nanos > 0 {
		return time.Duration(t.RetryDelay.Seconds)*time.Second + time.Duration(t.RetryDelay.Nanos)*time.Nanosecond
	}
	return 0
}
