// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package debugexporter writes log records to the console so the pipeline
// can run without a collector.
package debugexporter // import "github.com/otel-log-samples/logpipeline/exporter/debugexporter"
