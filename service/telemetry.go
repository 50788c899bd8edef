// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package service // import "github.com/otel-log-samples/logpipeline/service"

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/otel-log-samples/logpipeline/processor/batchprocessor"
	"github.com/otel-log-samples/logpipeline/resource"
)

const (
	zapKeyTelemetryAddress  = "address"
	zapKeyTelemetryExporter = "exporter"

	prometheusNamespace = "logpipeline"
)

// NewLogger builds the diagnostic logger described by cfg. The logger writes
// to stderr so it never mixes with the debug exporter output.
func NewLogger(cfg TelemetryConfig, opts ...zap.Option) (*zap.Logger, error) {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(cfg.LogLevel),
		Encoding:         cfg.Encoding,
		EncoderConfig:    ec,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if zapCfg.Encoding == "console" {
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapCfg.Build(opts...)
}

type meterProvider struct {
	metric.MeterProvider
	sdk     *sdkmetric.MeterProvider
	servers []*http.Server
}

func newMeterProvider(ctx context.Context, cfg MetricsConfig, res *resource.Descriptor, logger *zap.Logger) (*meterProvider, error) {
	if cfg.Exporter == MetricsNone {
		logger.Debug("Skipping telemetry setup.", zap.String(zapKeyTelemetryExporter, string(cfg.Exporter)))
		return &meterProvider{MeterProvider: noopmetric.NewMeterProvider()}, nil
	}

	mp := &meterProvider{}
	var reader sdkmetric.Reader
	switch cfg.Exporter {
	case MetricsOTLP:
		opts := []otlpmetricgrpc.Option{endpointOption(cfg.Endpoint, otlpmetricgrpc.WithEndpoint, otlpmetricgrpc.WithEndpointURL)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval))
	case MetricsPrometheus:
		registry := prometheus.NewRegistry()
		exp, err := otelprom.New(
			otelprom.WithRegisterer(registry),
			otelprom.WithNamespace(prometheusNamespace),
			otelprom.WithoutScopeInfo(),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating otel prometheus exporter: %w", err)
		}
		reader = exp
		mp.servers = append(mp.servers, newPrometheusServer(registry, cfg.PrometheusAddress, logger))
		logger.Info("Serving metrics", zap.String(zapKeyTelemetryAddress, cfg.PrometheusAddress))
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", cfg.Exporter)
	}

	mp.sdk = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res.SDK()),
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(batchViews()...),
	)
	mp.MeterProvider = mp.sdk
	return mp, nil
}

func newPrometheusServer(registry *prometheus.Registry, address string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:    address,
		Handler: mux,
	}
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.String(zapKeyTelemetryAddress, address), zap.Error(serveErr))
		}
	}()
	return server
}

func batchViews() []sdkmetric.View {
	return []sdkmetric.View{
		sdkmetric.NewView(
			sdkmetric.Instrument{Name: batchprocessor.MetricBatchSendSize},
			sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
				Boundaries: []float64{1, 5, 10, 25, 50, 75, 100, 250, 512, 1000, 2048},
			}},
		),
	}
}

// Shutdown stops the metrics servers and flushes the readers.
func (mp *meterProvider) Shutdown(ctx context.Context) error {
	var errs error
	for _, server := range mp.servers {
		errs = multierr.Append(errs, server.Close())
	}
	if mp.sdk != nil {
		errs = multierr.Append(errs, mp.sdk.Shutdown(ctx))
	}
	return errs
}

func newTracerProvider(ctx context.Context, cfg TracesConfig, res *resource.Descriptor) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res.SDK())}
	if cfg.Enabled {
		clientOpts := []otlptracegrpc.Option{endpointOption(cfg.Endpoint, otlptracegrpc.WithEndpoint, otlptracegrpc.WithEndpointURL)}
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			clientOpts = append(clientOpts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		exp, err := otlptracegrpc.New(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

// endpointOption accepts both host:port and URL endpoints.
func endpointOption[O any](endpoint string, hostPort, url func(string) O) O {
	if strings.Contains(endpoint, "://") {
		return url(endpoint)
	}
	return hostPort(endpoint)
}
