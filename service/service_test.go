// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/otel-log-samples/logpipeline/exporter/debugexporter"
	"github.com/otel-log-samples/logpipeline/exporter/exportertest"
	"github.com/otel-log-samples/logpipeline/record"
	"github.com/otel-log-samples/logpipeline/translator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testConfig returns a configuration that needs no collector.
func testConfig() Config {
	cfg := NewDefaultConfig()
	cfg.Resource.Detectors = []string{}
	cfg.Traces.Enabled = false
	cfg.Logs.Batch.ScheduleDelay = time.Hour
	return cfg
}

func newService(t *testing.T, set Settings, cfg Config) *Service {
	srv, err := New(context.Background(), set, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, srv.Shutdown(context.Background()))
	})
	return srv
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Logs.Batch.MaxExportBatchSize = cfg.Logs.Batch.MaxQueueSize + 1
	_, err := New(context.Background(), Settings{}, cfg)
	require.ErrorContains(t, err, "logs::batch")
}

func TestServiceExportsThroughProvider(t *testing.T) {
	sink := &exportertest.LogsSink{}
	cfg := testConfig()
	cfg.Resource.ServiceName = "checkout"
	cfg.Resource.Attributes = map[string]string{"deployment.environment": "test"}
	srv := newService(t, Settings{Exporter: sink, Version: "1.2.3"}, cfg)
	assert.True(t, sink.Started())

	logger := srv.LoggerProvider().Logger("checkout/api")
	require.True(t, logger.Enabled(context.Background(), record.SeverityInfo))
	for i := 0; i < 3; i++ {
		logger.Emit(context.Background(), srv.Translator().Translate(context.Background(), translator.Event{
			Severity: record.SeverityInfo,
			Level:    "INFO",
			Message:  "order placed",
		}))
	}
	require.NoError(t, srv.ForceFlush(context.Background()))

	records := sink.AllRecords()
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Same(t, srv.Resource(), rec.Resource())
		assert.Equal(t, "order placed", rec.Body())
	}
	assert.Equal(t, "checkout", srv.Resource().ServiceName())
	v, ok := srv.Resource().Get("service.version")
	require.True(t, ok)
	assert.Equal(t, "1.2.3", v.AsString())
	v, ok = srv.Resource().Get("deployment.environment")
	require.True(t, ok)
	assert.Equal(t, "test", v.AsString())
	assert.EqualValues(t, 3, srv.Stats().ExportedRecords)
}

func TestServiceShutdownFlushesAndIsIdempotent(t *testing.T) {
	sink := &exportertest.LogsSink{}
	srv, err := New(context.Background(), Settings{Exporter: sink}, testConfig())
	require.NoError(t, err)

	srv.LoggerProvider().Logger("test").Emit(context.Background(), record.Builder{Body: "last words"})
	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))

	assert.Equal(t, 1, sink.RecordCount())
	assert.Equal(t, 1, sink.Shutdowns())
	assert.False(t, srv.LoggerProvider().Logger("test").Enabled(context.Background(), record.SeverityFatal))
}

func TestServiceExporterNone(t *testing.T) {
	cfg := testConfig()
	cfg.Logs.Exporter = ExporterNone
	srv := newService(t, Settings{}, cfg)
	assert.False(t, srv.LoggerProvider().Logger("test").Enabled(context.Background(), record.SeverityError))
	assert.Equal(t, int64(0), srv.Stats().ExportedRecords)
}

func TestServiceMinSeverity(t *testing.T) {
	cfg := testConfig()
	cfg.Logs.MinSeverity = record.SeverityWarn
	srv := newService(t, Settings{Exporter: &exportertest.LogsSink{}}, cfg)
	logger := srv.LoggerProvider().Logger("test")
	assert.False(t, logger.Enabled(context.Background(), record.SeverityInfo))
	assert.True(t, logger.Enabled(context.Background(), record.SeverityWarn))
}

func TestServiceTraceContext(t *testing.T) {
	cfg := testConfig()
	cfg.Logs.TraceAttributes = true
	sink := &exportertest.LogsSink{}
	srv := newService(t, Settings{Exporter: sink}, cfg)

	ctx, span := srv.TracerProvider().Tracer("test").Start(context.Background(), "register-user")
	srv.LoggerProvider().Logger("test").Emit(ctx, srv.Translator().Translate(ctx, translator.Event{Message: "inside"}))
	span.End()
	require.NoError(t, srv.ForceFlush(context.Background()))

	records := sink.AllRecords()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, span.SpanContext().TraceID(), rec.TraceID())
	assert.Equal(t, span.SpanContext().SpanID(), rec.SpanID())
	attrs := attribute.NewSet(rec.Attributes()...)
	v, ok := attrs.Value(traceIDAttributeKey)
	require.True(t, ok)
	assert.Equal(t, span.SpanContext().TraceID().String(), v.AsString())
}

func TestServiceDebugExporter(t *testing.T) {
	out := filepath.Join(t.TempDir(), "logs.txt")
	cfg := testConfig()
	cfg.Logs.Exporter = ExporterDebug
	cfg.Logs.Debug.Verbosity = debugexporter.VerbosityNormal
	cfg.Logs.Debug.OutputPaths = []string{out}
	srv := newService(t, Settings{}, cfg)

	srv.LoggerProvider().Logger("test").Emit(context.Background(), record.Builder{Body: "to the console", Severity: record.SeverityInfo})
	require.NoError(t, srv.ForceFlush(context.Background()))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to the console")
}

func TestServiceStartError(t *testing.T) {
	startErr := errors.New("connection refused")
	sink := &failingStart{err: startErr}
	_, err := New(context.Background(), Settings{Exporter: sink}, testConfig())
	require.ErrorIs(t, err, startErr)
}

type failingStart struct {
	exportertest.LogsSink
	err error
}

func (f *failingStart) Start(context.Context) error {
	return f.err
}

func TestServiceLogsLifecycle(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	srv, err := New(context.Background(), Settings{Logger: zap.New(core), Exporter: &exportertest.LogsSink{}}, testConfig())
	require.NoError(t, err)
	require.NoError(t, srv.Shutdown(context.Background()))

	assert.Equal(t, 1, logs.FilterMessage("Log pipeline started").Len())
	assert.Equal(t, 1, logs.FilterMessage("Log pipeline stopped").Len())
}

func TestServicePrometheusMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.Metrics.Exporter = MetricsPrometheus
	cfg.Telemetry.Metrics.PrometheusAddress = "127.0.0.1:0"
	srv := newService(t, Settings{Exporter: &exportertest.LogsSink{}}, cfg)
	require.NotNil(t, srv.meterProvider.sdk)
	assert.Len(t, srv.meterProvider.servers, 1)
}

func TestBuildResourceDefaults(t *testing.T) {
	res, err := buildResource(context.Background(), ResourceConfig{Detectors: []string{}}, "")
	require.NoError(t, err)
	assert.Equal(t, defaultServiceName, res.ServiceName())
	_, ok := res.Get("service.version")
	assert.False(t, ok)
}

func TestBuildResourcePrecedence(t *testing.T) {
	res, err := buildResource(context.Background(), ResourceConfig{
		Attributes: map[string]string{"service.name": "from-attributes", "service.version": "0.9"},
		Detectors:  []string{DetectorSDK},
	}, "1.0")
	require.NoError(t, err)
	assert.Equal(t, "from-attributes", res.ServiceName())
	v, _ := res.Get("service.version")
	assert.Equal(t, "0.9", v.AsString())
	_, ok := res.Get("telemetry.sdk.language")
	assert.True(t, ok)

	res, err = buildResource(context.Background(), ResourceConfig{
		ServiceName:      "explicit",
		ServiceNamespace: "shop",
		Attributes:       map[string]string{"service.name": "from-attributes"},
		Detectors:        []string{},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "explicit", res.ServiceName())
	v, _ = res.Get("service.namespace")
	assert.Equal(t, "shop", v.AsString())
	_, ok = res.Get("telemetry.sdk.language")
	assert.False(t, ok)
}
