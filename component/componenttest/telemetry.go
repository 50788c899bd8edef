// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package componenttest // import "github.com/otel-log-samples/logpipeline/component/componenttest"

import (
	"context"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/otel-log-samples/logpipeline/component"
)

// Telemetry records everything a component reports about itself.
type Telemetry struct {
	Reader       *sdkmetric.ManualReader
	SpanRecorder *tracetest.SpanRecorder
	Logs         *observer.ObservedLogs

	logger         *zap.Logger
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

// NewTelemetry returns a Telemetry recording logs at or above lvl.
func NewTelemetry(lvl zapcore.Level) *Telemetry {
	core, logs := observer.New(lvl)
	reader := sdkmetric.NewManualReader()
	recorder := tracetest.NewSpanRecorder()
	return &Telemetry{
		Reader:         reader,
		SpanRecorder:   recorder,
		Logs:           logs,
		logger:         zap.New(core),
		meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		tracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)),
	}
}

// NewTelemetrySettings returns the settings to hand to the component under test.
func (tt *Telemetry) NewTelemetrySettings() component.TelemetrySettings {
	return component.TelemetrySettings{
		Logger:         tt.logger,
		TracerProvider: tt.tracerProvider,
		MeterProvider:  tt.meterProvider,
	}
}

// GetMetric collects and returns the metric with the given name.
func (tt *Telemetry) GetMetric(name string) (metricdata.Metrics, error) {
	var rm metricdata.ResourceMetrics
	if err := tt.Reader.Collect(context.Background(), &rm); err != nil {
		return metricdata.Metrics{}, err
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, nil
			}
		}
	}
	return metricdata.Metrics{}, fmt.Errorf("metric '%s' not found", name)
}

// Shutdown releases the providers.
func (tt *Telemetry) Shutdown(ctx context.Context) error {
	return multierr.Combine(
		tt.meterProvider.Shutdown(ctx),
		tt.tracerProvider.Shutdown(ctx),
	)
}
