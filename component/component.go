// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package component defines the lifecycle contract shared by the log pipeline
// building blocks: processors, exporters and the service that wires them.
package component // import "github.com/otel-log-samples/logpipeline/component"

import (
	"context"
)

// Component is either a processor or an exporter of the log pipeline.
//
// Start is called once before any data flows through the component. Shutdown
// is called once when the pipeline stops; it must release every resource the
// component acquired, even if Start was never called or returned an error.
type Component interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// StartFunc specifies the function invoked when the component is being started.
type StartFunc func(context.Context) error

// Start starts the component.
func (f StartFunc) Start(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

// ShutdownFunc specifies the function invoked when the component is being shutdown.
type ShutdownFunc func(context.Context) error

// Shutdown shuts down the component.
func (f ShutdownFunc) Shutdown(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}
