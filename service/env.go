// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package service // import "github.com/otel-log-samples/logpipeline/service"

import (
	"fmt"
	"sort"
	"strings"

	"github.com/otel-log-samples/logpipeline/confmap"
	"github.com/otel-log-samples/logpipeline/processor/batchprocessor"
	"github.com/otel-log-samples/logpipeline/resource"
)

// Environment variables understood on top of resource.EnvServiceName,
// resource.EnvResourceAttributes and batchprocessor.EnvVars.
const (
	EnvOTLPEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPLogsEndpoint    = "OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"
	EnvOTLPTracesEndpoint  = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	EnvOTLPMetricsEndpoint = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
	EnvOTLPProtocol        = "OTEL_EXPORTER_OTLP_PROTOCOL"
	EnvOTLPLogsProtocol    = "OTEL_EXPORTER_OTLP_LOGS_PROTOCOL"
	EnvOTLPHeaders         = "OTEL_EXPORTER_OTLP_HEADERS"
	EnvOTLPLogsHeaders     = "OTEL_EXPORTER_OTLP_LOGS_HEADERS"
	EnvOTLPInsecure        = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvOTLPLogsInsecure    = "OTEL_EXPORTER_OTLP_LOGS_INSECURE"
	EnvOTLPCompression     = "OTEL_EXPORTER_OTLP_COMPRESSION"
	EnvOTLPLogsCompression = "OTEL_EXPORTER_OTLP_LOGS_COMPRESSION"
	EnvOTLPTimeout         = "OTEL_EXPORTER_OTLP_TIMEOUT"
	EnvOTLPLogsTimeout     = "OTEL_EXPORTER_OTLP_LOGS_TIMEOUT"
	EnvLogsExporter        = "OTEL_LOGS_EXPORTER"
	EnvTracesExporter      = "OTEL_TRACES_EXPORTER"
	EnvMetricsExporter     = "OTEL_METRICS_EXPORTER"
	EnvLogLevel            = "LOG_LEVEL"
)

func key(parts ...string) string {
	return strings.Join(parts, confmap.KeyDelimiter)
}

// EnvBindings returns the environment variables mapped onto Config keys.
// Signal specific variables come after the generic ones so they win.
func EnvBindings() []confmap.EnvBinding {
	var b []confmap.EnvBinding
	bind := func(env string, convert func(string) (any, error), keys ...string) {
		for _, k := range keys {
			b = append(b, confmap.EnvBinding{Env: env, Key: k, Convert: convert})
		}
	}

	bind(resource.EnvServiceName, nil, key("resource", "service_name"))
	bind(resource.EnvResourceAttributes, confmap.KeyValueList, key("resource", "attributes"))

	bind(EnvOTLPEndpoint, nil,
		key("logs", "otlp", "endpoint"),
		key("logs", "otlphttp", "endpoint"),
		key("traces", "endpoint"),
		key("telemetry", "metrics", "endpoint"))
	bind(EnvOTLPLogsEndpoint, nil,
		key("logs", "otlp", "endpoint"),
		key("logs", "otlphttp", "logs_endpoint"))
	bind(EnvOTLPTracesEndpoint, nil, key("traces", "endpoint"))
	bind(EnvOTLPMetricsEndpoint, nil, key("telemetry", "metrics", "endpoint"))

	bind(EnvOTLPProtocol, protocolExporter, key("logs", "exporter"))
	bind(EnvOTLPLogsProtocol, protocolExporter, key("logs", "exporter"))
	bind(EnvLogsExporter, logsExporter, key("logs", "exporter"))
	bind(EnvTracesExporter, tracesEnabled, key("traces", "enabled"))
	bind(EnvMetricsExporter, confmap.Lower, key("telemetry", "metrics", "exporter"))

	bind(EnvOTLPHeaders, confmap.KeyValueList,
		key("logs", "otlp", "headers"),
		key("logs", "otlphttp", "headers"),
		key("traces", "headers"))
	bind(EnvOTLPLogsHeaders, confmap.KeyValueList,
		key("logs", "otlp", "headers"),
		key("logs", "otlphttp", "headers"))

	bind(EnvOTLPInsecure, confmap.Bool,
		key("logs", "otlp", "tls", "insecure"),
		key("traces", "insecure"),
		key("telemetry", "metrics", "insecure"))
	bind(EnvOTLPLogsInsecure, confmap.Bool, key("logs", "otlp", "tls", "insecure"))

	bind(EnvOTLPCompression, confmap.Lower,
		key("logs", "otlp", "compression"),
		key("logs", "otlphttp", "compression"))
	bind(EnvOTLPLogsCompression, confmap.Lower,
		key("logs", "otlp", "compression"),
		key("logs", "otlphttp", "compression"))

	bind(EnvOTLPTimeout, confmap.Millis,
		key("logs", "otlp", "timeout"),
		key("logs", "otlphttp", "timeout"))
	bind(EnvOTLPLogsTimeout, confmap.Millis,
		key("logs", "otlp", "timeout"),
		key("logs", "otlphttp", "timeout"))

	names := make([]string, 0, len(batchprocessor.EnvVars))
	for name := range batchprocessor.EnvVars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := batchprocessor.EnvVars[name]
		var convert func(string) (any, error)
		if v.Millis {
			convert = confmap.Millis
		}
		bind(name, convert, key("logs", "batch", v.Key))
	}

	bind(EnvLogLevel, confmap.Lower, key("telemetry", "log_level"))
	return b
}

func protocolExporter(raw string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "grpc":
		return string(ExporterOTLP), nil
	case "http/protobuf":
		return string(ExporterOTLPHTTP), nil
	}
	return nil, fmt.Errorf("unsupported protocol %q", raw)
}

// logsExporter maps OTEL_LOGS_EXPORTER. "otlp" leaves the exporter chosen
// by the protocol.
func logsExporter(raw string) (any, error) {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "", "otlp":
		return nil, nil
	case "console", "debug":
		return string(ExporterDebug), nil
	case "none":
		return string(ExporterNone), nil
	default:
		return nil, fmt.Errorf("unsupported logs exporter %q", raw)
	}
}

func tracesEnabled(raw string) (any, error) {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "":
		return nil, nil
	case "otlp":
		return true, nil
	case "none":
		return false, nil
	default:
		return nil, fmt.Errorf("unsupported traces exporter %q", raw)
	}
}
