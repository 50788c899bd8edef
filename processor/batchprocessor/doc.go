// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package batchprocessor queues emitted log records and hands them to an
// exporter in batches from a single background goroutine.
package batchprocessor // import "github.com/otel-log-samples/logpipeline/processor/batchprocessor"
