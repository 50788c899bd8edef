// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package service assembles a complete log pipeline from a Config: resource,
// exporter, batch processor, logger provider, and the tracer and meter
// providers the application and the pipeline report to.
package service // import "github.com/otel-log-samples/logpipeline/service"

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/exporter"
	"github.com/otel-log-samples/logpipeline/exporter/debugexporter"
	"github.com/otel-log-samples/logpipeline/exporter/otlpexporter"
	"github.com/otel-log-samples/logpipeline/exporter/otlphttpexporter"
	"github.com/otel-log-samples/logpipeline/processor/batchprocessor"
	"github.com/otel-log-samples/logpipeline/provider"
	"github.com/otel-log-samples/logpipeline/resource"
	"github.com/otel-log-samples/logpipeline/tracebridge"
	"github.com/otel-log-samples/logpipeline/translator"
)

const (
	defaultShutdownTimeout = 30 * time.Second

	traceIDAttributeKey = "trace_id"
	spanIDAttributeKey  = "span_id"
)

// Settings holds what the service needs besides its Config.
type Settings struct {
	// Logger receives the pipeline's own diagnostics. It must not write back
	// into the pipeline.
	Logger *zap.Logger
	// Version is used as service.version when the configuration leaves it empty.
	Version string
	// Exporter, when set, replaces the exporter selected by the configuration.
	// The service starts it and shuts it down.
	Exporter exporter.Logs
}

// Service owns every component of a running pipeline.
type Service struct {
	logger         *zap.Logger
	resource       *resource.Descriptor
	processor      *batchprocessor.Processor
	loggerProvider *provider.Provider
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *meterProvider
	translator     *translator.Translator

	shutdownOnce sync.Once
	shutdownErr  error
}

// New validates cfg and builds the pipeline. The exporter is started before
// New returns. On error everything built so far is shut down.
func New(ctx context.Context, set Settings, cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if set.Logger == nil {
		set.Logger = zap.NewNop()
	}
	srv := &Service{logger: set.Logger}
	if err := srv.build(ctx, set, cfg); err != nil {
		_ = srv.Shutdown(context.Background())
		return nil, err
	}
	srv.logger.Info("Log pipeline started",
		zap.String("exporter", string(cfg.Logs.Exporter)),
		zap.String("service.name", srv.resource.ServiceName()),
		zap.Bool("traces", cfg.Traces.Enabled),
		zap.String("metrics", string(cfg.Telemetry.Metrics.Exporter)),
	)
	return srv, nil
}

func (srv *Service) build(ctx context.Context, set Settings, cfg Config) error {
	var err error
	srv.resource, err = buildResource(ctx, cfg.Resource, set.Version)
	if err != nil {
		if !errors.Is(err, resource.ErrPartialResource) {
			return err
		}
		srv.logger.Warn("Some resource attributes could not be detected", zap.Error(err))
	}

	if srv.meterProvider, err = newMeterProvider(ctx, cfg.Telemetry.Metrics, srv.resource, srv.logger); err != nil {
		return err
	}
	if srv.tracerProvider, err = newTracerProvider(ctx, cfg.Traces, srv.resource); err != nil {
		return err
	}

	var bridgeOpts []tracebridge.Option
	if cfg.Logs.TraceAttributes {
		bridgeOpts = append(bridgeOpts, tracebridge.WithAttributeKeys(traceIDAttributeKey, spanIDAttributeKey))
	}
	srv.translator = translator.New(
		translator.WithCaller(cfg.Logs.Caller),
		translator.WithBridge(tracebridge.New(bridgeOpts...)),
	)

	providerOpts := []provider.Option{provider.WithMinSeverity(cfg.Logs.MinSeverity)}
	if cfg.Logs.Exporter != ExporterNone || set.Exporter != nil {
		tel := component.TelemetrySettings{
			Logger:        srv.logger,
			MeterProvider: srv.meterProvider,
		}
		exp := set.Exporter
		if exp == nil {
			if exp, err = newExporter(tel, cfg.Logs); err != nil {
				return err
			}
		}
		if err = exp.Start(ctx); err != nil {
			return fmt.Errorf("failed to start log exporter: %w", err)
		}
		if srv.processor, err = batchprocessor.New(tel, exp, cfg.Logs.Batch); err != nil {
			return multierr.Append(err, exp.Shutdown(ctx))
		}
		providerOpts = append(providerOpts, provider.WithProcessor(srv.processor))
	}
	srv.loggerProvider = provider.New(srv.resource, providerOpts...)
	return nil
}

func newExporter(set component.TelemetrySettings, cfg LogsConfig) (exporter.Logs, error) {
	switch cfg.Exporter {
	case ExporterOTLP:
		return otlpexporter.NewLogs(set, &cfg.OTLP)
	case ExporterOTLPHTTP:
		return otlphttpexporter.NewLogs(set, &cfg.OTLPHTTP)
	case ExporterDebug:
		return debugexporter.NewLogs(set, &cfg.Debug)
	}
	return nil, fmt.Errorf("unknown log exporter %q", cfg.Exporter)
}

func buildResource(ctx context.Context, cfg ResourceConfig, version string) (*resource.Descriptor, error) {
	// The resource environment variables are already part of cfg.
	opts := []resource.Option{resource.WithoutEnv()}
	if cfg.Detectors != nil {
		detectors := make([]resource.Detector, 0, len(cfg.Detectors))
		for _, name := range cfg.Detectors {
			switch name {
			case DetectorHost:
				detectors = append(detectors, resource.Host())
			case DetectorProcess:
				detectors = append(detectors, resource.Process())
			case DetectorInstanceID:
				detectors = append(detectors, resource.InstanceID())
			case DetectorSDK:
				detectors = append(detectors, resource.TelemetrySDK())
			}
		}
		opts = append(opts, resource.WithDetectors(detectors...))
	}

	kvs := make([]attribute.KeyValue, 0, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		kvs = append(kvs, attribute.String(k, v))
	}
	opts = append(opts, resource.WithAttributes(kvs...))

	serviceName := cfg.ServiceName
	if _, ok := cfg.Attributes["service.name"]; !ok && serviceName == "" {
		serviceName = defaultServiceName
	}
	if serviceName != "" {
		opts = append(opts, resource.WithServiceName(serviceName))
	}
	if v := cfg.ServiceVersion; v != "" {
		opts = append(opts, resource.WithServiceVersion(v))
	} else if _, ok := cfg.Attributes["service.version"]; !ok && version != "" {
		opts = append(opts, resource.WithServiceVersion(version))
	}
	if cfg.ServiceNamespace != "" {
		opts = append(opts, resource.WithServiceNamespace(cfg.ServiceNamespace))
	}
	return resource.New(ctx, opts...)
}

// Resource returns the descriptor shared by every record of the pipeline.
func (srv *Service) Resource() *resource.Descriptor {
	return srv.resource
}

// LoggerProvider returns the provider the logging bridges emit through.
func (srv *Service) LoggerProvider() *provider.Provider {
	return srv.loggerProvider
}

// Translator returns the translator configured for the bridges.
func (srv *Service) Translator() *translator.Translator {
	return srv.translator
}

// TracerProvider returns the tracer provider of the application.
func (srv *Service) TracerProvider() trace.TracerProvider {
	return srv.tracerProvider
}

// MeterProvider returns the provider the pipeline reports its metrics to.
func (srv *Service) MeterProvider() metric.MeterProvider {
	return srv.meterProvider
}

// Stats returns the batch processor counters; zero when export is disabled.
func (srv *Service) Stats() batchprocessor.Stats {
	if srv.processor == nil {
		return batchprocessor.Stats{}
	}
	return srv.processor.Stats()
}

// ForceFlush exports pending log records and spans.
func (srv *Service) ForceFlush(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		return srv.loggerProvider.ForceFlush(ctx)
	})
	g.Go(func() error {
		return srv.tracerProvider.ForceFlush(ctx)
	})
	return g.Wait()
}

// Shutdown flushes and stops every component concurrently. Without a
// deadline on ctx, defaultShutdownTimeout applies. Calls after the first
// return the first result.
func (srv *Service) Shutdown(ctx context.Context) error {
	srv.shutdownOnce.Do(func() {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultShutdownTimeout)
			defer cancel()
		}
		var g errgroup.Group
		if srv.loggerProvider != nil {
			g.Go(func() error {
				if err := srv.loggerProvider.Shutdown(ctx); err != nil {
					return fmt.Errorf("failed to shutdown logger provider: %w", err)
				}
				return nil
			})
		}
		if srv.tracerProvider != nil {
			g.Go(func() error {
				if err := srv.tracerProvider.Shutdown(ctx); err != nil {
					return fmt.Errorf("failed to shutdown tracer provider: %w", err)
				}
				return nil
			})
		}
		if srv.meterProvider != nil {
			g.Go(func() error {
				if err := srv.meterProvider.Shutdown(ctx); err != nil {
					return fmt.Errorf("failed to shutdown meter provider: %w", err)
				}
				return nil
			})
		}
		srv.shutdownErr = g.Wait()
		srv.logger.Info("Log pipeline stopped", zap.Error(srv.shutdownErr))
	})
	return srv.shutdownErr
}
