// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package otlpexporter

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/pdata/plog"
	"go.opentelemetry.io/collector/pdata/plog/plogotlp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/component/componenttest"
	"github.com/otel-log-samples/logpipeline/config/configcompression"
	"github.com/otel-log-samples/logpipeline/config/configretry"
	"github.com/otel-log-samples/logpipeline/exporter/exportererror"
	"github.com/otel-log-samples/logpipeline/record"
	"github.com/otel-log-samples/logpipeline/resource"
)

type mockLogsReceiver struct {
	plogotlp.UnimplementedGRPCServer
	srv          *grpc.Server
	requestCount atomic.Int32
	totalItems   atomic.Int32

	mu          sync.Mutex
	metadata    metadata.MD
	lastRequest plog.Logs
	// responses are consumed in order; the last one is repeated.
	responses []mockResponse
}

type mockResponse struct {
	resp plogotlp.ExportResponse
	err  error
}

func (r *mockLogsReceiver) Export(ctx context.Context, req plogotlp.ExportRequest) (plogotlp.ExportResponse, error) {
	r.requestCount.Add(1)
	r.totalItems.Add(int32(req.Logs().LogRecordCount()))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata, _ = metadata.FromIncomingContext(ctx)
	ld := plog.NewLogs()
	req.Logs().CopyTo(ld)
	r.lastRequest = ld

	if len(r.responses) == 0 {
		return plogotlp.NewExportResponse(), nil
	}
	next := r.responses[0]
	if len(r.responses) > 1 {
		r.responses = r.responses[1:]
	}
	if next.err != nil {
		return plogotlp.NewExportResponse(), next.err
	}
	return next.resp, nil
}

func (r *mockLogsReceiver) setResponses(rs ...mockResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = rs
}

func (r *mockLogsReceiver) getMetadata() metadata.MD {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metadata
}

func (r *mockLogsReceiver) getLastRequest() plog.Logs {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRequest
}

func otlpLogsReceiverOnGRPCServer(t *testing.T) (*mockLogsReceiver, string) {
	ln, err := net.Listen("tcp", "localhost:")
	require.NoError(t, err, "Failed to find an available address to run the gRPC server: %v", err)

	rcv := &mockLogsReceiver{srv: grpc.NewServer()}
	plogotlp.RegisterGRPCServer(rcv.srv, rcv)
	go func() {
		_ = rcv.srv.Serve(ln)
	}()
	t.Cleanup(rcv.srv.Stop)
	return rcv, ln.Addr().String()
}

func testConfig(endpoint string) *Config {
	cfg := NewDefaultConfig()
	cfg.ClientConfig.Endpoint = endpoint
	cfg.ClientConfig.TLS.Insecure = true
	cfg.RetryConfig.InitialInterval = time.Millisecond
	cfg.RetryConfig.MaxInterval = 10 * time.Millisecond
	return cfg
}

func testRecords(n int) []record.Record {
	res := resource.NewWithAttributes("", attribute.String("service.name", "otlp-test"))
	out := make([]record.Record, n)
	for i := range out {
		out[i] = record.New(res, record.Scope{Name: "test"}, record.Builder{
			Body:       "hello",
			Severity:   record.SeverityInfo,
			Attributes: []attribute.KeyValue{attribute.Int("i", i)},
		})
	}
	return out
}

func startExporter(t *testing.T, set component.TelemetrySettings, cfg *Config) func(context.Context, []record.Record) error {
	exp, err := NewLogs(set, cfg)
	require.NoError(t, err)
	require.NotNil(t, exp)
	require.NoError(t, exp.Start(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, exp.Shutdown(context.Background()))
	})
	return exp.Export
}

func TestSendLogs(t *testing.T) {
	rcv, addr := otlpLogsReceiverOnGRPCServer(t)

	cfg := testConfig(addr)
	cfg.ClientConfig.Headers = map[string]string{"header": "header-value"}
	export := startExporter(t, componenttest.NewNopTelemetrySettings(), cfg)

	// Ensure that initially there is no data in the receiver.
	assert.EqualValues(t, 0, rcv.requestCount.Load())

	// Nothing is sent for an empty batch.
	require.NoError(t, export(context.Background(), nil))
	assert.EqualValues(t, 0, rcv.requestCount.Load())

	require.NoError(t, export(context.Background(), testRecords(2)))
	assert.EqualValues(t, 1, rcv.requestCount.Load())
	assert.EqualValues(t, 2, rcv.totalItems.Load())

	md := rcv.getMetadata()
	assert.Equal(t, []string{"header-value"}, md.Get("header"))

	ld := rcv.getLastRequest()
	require.Equal(t, 1, ld.ResourceLogs().Len())
	v, ok := ld.ResourceLogs().At(0).Resource().Attributes().Get("service.name")
	require.True(t, ok)
	assert.Equal(t, "otlp-test", v.Str())
	lrs := ld.ResourceLogs().At(0).ScopeLogs().At(0).LogRecords()
	require.Equal(t, 2, lrs.Len())
	assert.Equal(t, "hello", lrs.At(1).Body().Str())
	assert.Equal(t, plog.SeverityNumberInfo, lrs.At(1).SeverityNumber())
}

func TestSendLogsCompression(t *testing.T) {
	for _, ct := range []configcompression.Type{configcompression.TypeZstd, configcompression.TypeSnappy, ""} {
		t.Run(string(ct), func(t *testing.T) {
			rcv, addr := otlpLogsReceiverOnGRPCServer(t)
			cfg := testConfig(addr)
			cfg.ClientConfig.Compression = ct
			export := startExporter(t, componenttest.NewNopTelemetrySettings(), cfg)

			require.NoError(t, export(context.Background(), testRecords(3)))
			assert.EqualValues(t, 3, rcv.totalItems.Load())
		})
	}
}

func TestSendLogsPartialSuccess(t *testing.T) {
	rcv, addr := otlpLogsReceiverOnGRPCServer(t)
	resp := plogotlp.NewExportResponse()
	resp.PartialSuccess().SetRejectedLogRecords(1)
	resp.PartialSuccess().SetErrorMessage("record too large")
	rcv.setResponses(mockResponse{resp: resp})

	core, logs := observer.New(zapcore.DebugLevel)
	set := componenttest.NewNopTelemetrySettings()
	set.Logger = zap.New(core)
	export := startExporter(t, set, testConfig(addr))

	require.NoError(t, export(context.Background(), testRecords(2)))
	assert.EqualValues(t, 1, rcv.requestCount.Load())

	warns := logs.FilterMessage("Partial success response").All()
	require.Len(t, warns, 1)
	assert.Equal(t, zapcore.WarnLevel, warns[0].Level)
	assert.Equal(t, "record too large", warns[0].ContextMap()["message"])
	assert.EqualValues(t, 1, warns[0].ContextMap()["dropped_log_records"])
}

func TestSendLogsPermanentError(t *testing.T) {
	rcv, addr := otlpLogsReceiverOnGRPCServer(t)
	rcv.setResponses(mockResponse{err: status.Error(codes.InvalidArgument, "bad request")})
	export := startExporter(t, componenttest.NewNopTelemetrySettings(), testConfig(addr))

	err := export(context.Background(), testRecords(1))
	require.Error(t, err)
	assert.True(t, exportererror.IsPermanent(err))
	assert.EqualValues(t, 1, rcv.requestCount.Load())
}

func TestSendLogsRetryThenSuccess(t *testing.T) {
	rcv, addr := otlpLogsReceiverOnGRPCServer(t)
	rcv.setResponses(
		mockResponse{err: status.Error(codes.Unavailable, "try again")},
		mockResponse{resp: plogotlp.NewExportResponse()},
	)
	export := startExporter(t, componenttest.NewNopTelemetrySettings(), testConfig(addr))

	require.NoError(t, export(context.Background(), testRecords(1)))
	assert.EqualValues(t, 2, rcv.requestCount.Load())
}

func TestSendLogsResourceExhausted(t *testing.T) {
	t.Run("with retry info", func(t *testing.T) {
		rcv, addr := otlpLogsReceiverOnGRPCServer(t)
		st, err := status.New(codes.ResourceExhausted, "slow down").WithDetails(&errdetails.RetryInfo{
			RetryDelay: durationpb.New(time.Millisecond),
		})
		require.NoError(t, err)
		rcv.setResponses(mockResponse{err: st.Err()}, mockResponse{resp: plogotlp.NewExportResponse()})
		export := startExporter(t, componenttest.NewNopTelemetrySettings(), testConfig(addr))

		require.NoError(t, export(context.Background(), testRecords(1)))
		assert.EqualValues(t, 2, rcv.requestCount.Load())
	})

	t.Run("without retry info", func(t *testing.T) {
		rcv, addr := otlpLogsReceiverOnGRPCServer(t)
		rcv.setResponses(mockResponse{err: status.Error(codes.ResourceExhausted, "quota")})
		export := startExporter(t, componenttest.NewNopTelemetrySettings(), testConfig(addr))

		err := export(context.Background(), testRecords(1))
		require.Error(t, err)
		assert.True(t, exportererror.IsPermanent(err))
		assert.EqualValues(t, 1, rcv.requestCount.Load())
	})
}

func TestSendLogsServerDown(t *testing.T) {
	// Find the addr, but don't start the server.
	ln, err := net.Listen("tcp", "localhost:")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := testConfig(addr)
	cfg.RetryConfig = configretry.BackOffConfig{Enabled: false}
	export := startExporter(t, componenttest.NewNopTelemetrySettings(), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = export(ctx, testRecords(1))
	require.Error(t, err)
	assert.False(t, exportererror.IsPermanent(err))
}

func TestExportBeforeStart(t *testing.T) {
	exp, err := NewLogs(componenttest.NewNopTelemetrySettings(), testConfig("localhost:4317"))
	require.NoError(t, err)
	err = exp.Export(context.Background(), testRecords(1))
	require.ErrorIs(t, err, errNotStarted)
	assert.True(t, exportererror.IsPermanent(err))
	require.NoError(t, exp.Shutdown(context.Background()))
}

func TestNewLogsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.ClientConfig.Endpoint = ""
	_, err := NewLogs(componenttest.NewNopTelemetrySettings(), cfg)
	require.Error(t, err)
}

func TestProcessError(t *testing.T) {
	throttled, err := status.New(codes.ResourceExhausted, "throttled").WithDetails(&errdetails.RetryInfo{
		RetryDelay: durationpb.New(2 * time.Second),
	})
	require.NoError(t, err)

	tests := []struct {
		name          string
		err           error
		wantNil       bool
		wantPermanent bool
		wantThrottle  time.Duration
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "ok status", err: status.Error(codes.OK, ""), wantNil: true},
		{name: "unavailable", err: status.Error(codes.Unavailable, "")},
		{name: "deadline exceeded", err: status.Error(codes.DeadlineExceeded, "")},
		{name: "canceled", err: status.Error(codes.Canceled, "")},
		{name: "aborted", err: status.Error(codes.Aborted, "")},
		{name: "out of range", err: status.Error(codes.OutOfRange, "")},
		{name: "data loss", err: status.Error(codes.DataLoss, "")},
		{name: "throttled", err: throttled.Err(), wantThrottle: 2 * time.Second},
		{name: "resource exhausted", err: status.Error(codes.ResourceExhausted, ""), wantPermanent: true},
		{name: "invalid argument", err: status.Error(codes.InvalidArgument, ""), wantPermanent: true},
		{name: "unauthenticated", err: status.Error(codes.Unauthenticated, ""), wantPermanent: true},
		{name: "permission denied", err: status.Error(codes.PermissionDenied, ""), wantPermanent: true},
		{name: "unimplemented", err: status.Error(codes.Unimplemented, ""), wantPermanent: true},
		{name: "non grpc error", err: errors.New("boom"), wantPermanent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := processError(tt.err)
			if tt.wantNil {
				assert.NoError(t, got)
				return
			}
			require.Error(t, got)
			assert.Equal(t, tt.wantPermanent, exportererror.IsPermanent(got))
			delay, ok := exportererror.ThrottleDelay(got)
			assert.Equal(t, tt.wantThrottle != 0, ok)
			assert.Equal(t, tt.wantThrottle, delay)
		})
	}
}
