// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package service // import "github.com/otel-log-samples/logpipeline/service"

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/otel-log-samples/logpipeline/exporter/debugexporter"
	"github.com/otel-log-samples/logpipeline/exporter/otlpexporter"
	"github.com/otel-log-samples/logpipeline/exporter/otlphttpexporter"
	"github.com/otel-log-samples/logpipeline/processor/batchprocessor"
	"github.com/otel-log-samples/logpipeline/record"
)

// ExporterType selects the log exporter.
type ExporterType string

const (
	ExporterOTLP     ExporterType = "otlp"
	ExporterOTLPHTTP ExporterType = "otlphttp"
	ExporterDebug    ExporterType = "debug"
	// ExporterNone disables log export; loggers report themselves disabled.
	ExporterNone ExporterType = "none"
)

// UnmarshalText accepts the exporter names case-insensitively.
func (t *ExporterType) UnmarshalText(text []byte) error {
	switch v := ExporterType(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case ExporterOTLP, ExporterOTLPHTTP, ExporterDebug, ExporterNone:
		*t = v
		return nil
	}
	return fmt.Errorf("unknown log exporter %q", string(text))
}

// MetricsExporterType selects where the pipeline's own metrics go.
type MetricsExporterType string

const (
	MetricsNone       MetricsExporterType = "none"
	MetricsOTLP       MetricsExporterType = "otlp"
	MetricsPrometheus MetricsExporterType = "prometheus"
)

// UnmarshalText accepts the metrics exporter names case-insensitively.
func (t *MetricsExporterType) UnmarshalText(text []byte) error {
	switch v := MetricsExporterType(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case MetricsNone, MetricsOTLP, MetricsPrometheus:
		*t = v
		return nil
	}
	return fmt.Errorf("unknown metrics exporter %q", string(text))
}

// Detector names accepted in resource::detectors.
const (
	DetectorHost       = "host"
	DetectorProcess    = "process"
	DetectorInstanceID = "instance_id"
	DetectorSDK        = "sdk"
)

// Config is the whole pipeline configuration.
type Config struct {
	Resource  ResourceConfig  `mapstructure:"resource"`
	Logs      LogsConfig      `mapstructure:"logs"`
	Traces    TracesConfig    `mapstructure:"traces"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ResourceConfig describes the entity producing the logs.
type ResourceConfig struct {
	// ServiceName overrides service.name from Attributes. When neither sets
	// it, defaultServiceName is used.
	ServiceName      string            `mapstructure:"service_name"`
	ServiceVersion   string            `mapstructure:"service_version"`
	ServiceNamespace string            `mapstructure:"service_namespace"`
	Attributes       map[string]string `mapstructure:"attributes"`
	// Detectors lists the detectors to run. Nil runs all of them, an empty
	// list none.
	Detectors []string `mapstructure:"detectors"`
}

// LogsConfig configures the log pipeline.
type LogsConfig struct {
	Exporter ExporterType            `mapstructure:"exporter"`
	OTLP     otlpexporter.Config     `mapstructure:"otlp"`
	OTLPHTTP otlphttpexporter.Config `mapstructure:"otlphttp"`
	Debug    debugexporter.Config    `mapstructure:"debug"`
	Batch    batchprocessor.Config   `mapstructure:"batch"`

	// MinSeverity disables loggers below it. Undefined keeps everything.
	MinSeverity record.Severity `mapstructure:"min_severity"`
	// TraceAttributes also writes trace_id and span_id as record attributes.
	TraceAttributes bool `mapstructure:"trace_attributes"`
	// Caller adds code.* attributes for the log call site.
	Caller bool `mapstructure:"caller"`
}

// TracesConfig configures the tracer provider used by the application.
// Spans are always created; they are only exported when Enabled.
type TracesConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// TelemetryConfig configures the pipeline's own diagnostics.
type TelemetryConfig struct {
	LogLevel zapcore.Level `mapstructure:"log_level"`
	// Encoding of the diagnostic logger, "console" or "json".
	Encoding string        `mapstructure:"encoding"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig configures the pipeline's own metrics.
type MetricsConfig struct {
	Exporter MetricsExporterType `mapstructure:"exporter"`
	// Endpoint and Insecure apply to the otlp exporter.
	Endpoint string        `mapstructure:"endpoint"`
	Insecure bool          `mapstructure:"insecure"`
	Interval time.Duration `mapstructure:"interval"`
	// PrometheusAddress is the listen address of the /metrics endpoint.
	PrometheusAddress string `mapstructure:"prometheus_address"`
}

const (
	defaultServiceName       = "logpipeline-sample"
	defaultTracesEndpoint    = "localhost:4317"
	defaultMetricsInterval   = 60 * time.Second
	defaultPrometheusAddress = "localhost:8888"
)

// NewDefaultConfig returns the configuration used when nothing is set: logs
// and traces go to an OTLP/gRPC collector on localhost, self metrics are off.
func NewDefaultConfig() Config {
	return Config{
		Logs: LogsConfig{
			Exporter: ExporterOTLP,
			OTLP:     *otlpexporter.NewDefaultConfig(),
			OTLPHTTP: *otlphttpexporter.NewDefaultConfig(),
			Debug:    *debugexporter.NewDefaultConfig(),
			Batch:    batchprocessor.NewDefaultConfig(),
			Caller:   true,
		},
		Traces: TracesConfig{
			Enabled:  true,
			Endpoint: defaultTracesEndpoint,
			Insecure: true,
		},
		Telemetry: TelemetryConfig{
			LogLevel: zapcore.InfoLevel,
			Encoding: "console",
			Metrics: MetricsConfig{
				Exporter:          MetricsNone,
				Endpoint:          defaultTracesEndpoint,
				Insecure:          true,
				Interval:          defaultMetricsInterval,
				PrometheusAddress: defaultPrometheusAddress,
			},
		},
	}
}

// Validate checks the sections that are in use.
func (cfg *Config) Validate() error {
	var errs error
	switch cfg.Logs.Exporter {
	case ExporterOTLP:
		errs = multierr.Append(errs, prefix("logs::otlp", cfg.Logs.OTLP.Validate()))
	case ExporterOTLPHTTP:
		errs = multierr.Append(errs, prefix("logs::otlphttp", cfg.Logs.OTLPHTTP.Validate()))
	case ExporterDebug:
		errs = multierr.Append(errs, prefix("logs::debug", cfg.Logs.Debug.Validate()))
	case ExporterNone:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown log exporter %q", cfg.Logs.Exporter))
	}
	if cfg.Logs.Exporter != ExporterNone {
		errs = multierr.Append(errs, prefix("logs::batch", cfg.Logs.Batch.Validate()))
	}
	if !cfg.Logs.MinSeverity.Valid() {
		errs = multierr.Append(errs, fmt.Errorf("invalid 'min_severity' %d", cfg.Logs.MinSeverity))
	}
	for _, d := range cfg.Resource.Detectors {
		switch d {
		case DetectorHost, DetectorProcess, DetectorInstanceID, DetectorSDK:
		default:
			errs = multierr.Append(errs, fmt.Errorf("unknown resource detector %q", d))
		}
	}
	if cfg.Traces.Enabled && cfg.Traces.Endpoint == "" {
		errs = multierr.Append(errs, errors.New("'traces::endpoint' must be set when traces are enabled"))
	}
	switch cfg.Telemetry.Encoding {
	case "console", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown 'telemetry::encoding' %q", cfg.Telemetry.Encoding))
	}
	return multierr.Append(errs, cfg.Telemetry.Metrics.Validate())
}

// Validate checks the metrics exporter settings.
func (cfg *MetricsConfig) Validate() error {
	switch cfg.Exporter {
	case MetricsNone:
	case MetricsOTLP:
		if cfg.Endpoint == "" {
			return errors.New("'telemetry::metrics::endpoint' must be set for the otlp exporter")
		}
		if cfg.Interval <= 0 {
			return errors.New("'telemetry::metrics::interval' must be positive")
		}
	case MetricsPrometheus:
		if _, _, err := net.SplitHostPort(cfg.PrometheusAddress); err != nil {
			return fmt.Errorf("invalid 'telemetry::metrics::prometheus_address': %w", err)
		}
	default:
		return fmt.Errorf("unknown metrics exporter %q", cfg.Exporter)
	}
	return nil
}

func prefix(section string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", section, err)
}
