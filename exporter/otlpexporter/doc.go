// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package otlpexporter exports log records by using the OTLP format to a gRPC
// endpoint, usually an OpenTelemetry Collector listening on port 4317.
package otlpexporter // import "github.com/otel-log-samples/logpipeline/exporter/otlpexporter"
