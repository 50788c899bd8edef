// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package otlphttpexporter exports log records as binary protobuf over
// HTTP, to <endpoint>/v1/logs by default.
package otlphttpexporter // import "github.com/otel-log-samples/logpipeline/exporter/otlphttpexporter"
