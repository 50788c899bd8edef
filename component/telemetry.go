// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package component // import "github.com/otel-log-samples/logpipeline/component"

import (
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TelemetrySettings provides components with APIs to report their own telemetry.
// None of it flows through the log pipeline itself: the pipeline must never
// feed its diagnostics back into its own queue.
type TelemetrySettings struct {
	// Logger used for internal diagnostics.
	Logger *zap.Logger

	// TracerProvider that the component may use to trace its own work.
	TracerProvider trace.TracerProvider

	// MeterProvider used to create the component's self metrics.
	MeterProvider metric.MeterProvider
}

// Sanitize returns a copy of ts where every nil field has been replaced by a
// no-op implementation, so components never need nil checks.
func Sanitize(ts TelemetrySettings) TelemetrySettings {
	if ts.Logger == nil {
		ts.Logger = zap.NewNop()
	}
	if ts.TracerProvider == nil {
		ts.TracerProvider = nooptrace.NewTracerProvider()
	}
	if ts.MeterProvider == nil {
		ts.MeterProvider = noopmetric.NewMeterProvider()
	}
	return ts
}
