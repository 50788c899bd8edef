// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package exporter defines the contract between the batch processor and the
// components that ship log records out of the process.
package exporter // import "github.com/otel-log-samples/logpipeline/exporter"

import (
	"context"
	"errors"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/record"
)

// Logs exports batches of log records.
//
// Export is only ever called from one goroutine at a time and must honor the
// deadline of ctx. It must not retain records after it returns. A returned
// error classified by exportererror.IsPermanent is not retried.
type Logs interface {
	component.Component
	Export(ctx context.Context, records []record.Record) error
}

// Result is the outcome of one export call.
type Result int

const (
	ResultSuccess Result = iota
	ResultTimeout
	ResultFailure
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultTimeout:
		return "timeout"
	case ResultFailure:
		return "failure"
	}
	return "unknown"
}

// ResultOf classifies the error returned by Export.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ResultTimeout
	default:
		return ResultFailure
	}
}
