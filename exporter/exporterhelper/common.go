// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package exporterhelper // import "github.com/otel-log-samples/logpipeline/exporter/exporterhelper"

import (
	"context"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/config/configretry"
	"github.com/otel-log-samples/logpipeline/record"
)

// requestSender is an abstraction of a sender for a batch of records.
type requestSender interface {
	send(ctx context.Context, records []record.Record) error
}

type senderFunc func(ctx context.Context, records []record.Record) error

func (f senderFunc) send(ctx context.Context, records []record.Record) error {
	return f(ctx, records)
}

// Option apply changes to baseExporter.
type Option func(*baseExporter)

// WithStart overrides the default Start function for an exporter.
// The default start function does nothing and always returns nil.
func WithStart(start component.StartFunc) Option {
	return func(o *baseExporter) {
		o.StartFunc = start
	}
}

// WithShutdown overrides the default Shutdown function for an exporter.
// The default shutdown function does nothing and always returns nil.
func WithShutdown(shutdown component.ShutdownFunc) Option {
	return func(o *baseExporter) {
		o.ShutdownFunc = shutdown
	}
}

// WithTimeout overrides the default TimeoutConfig for an exporter.
// The default TimeoutConfig is 5 seconds.
func WithTimeout(timeoutConfig TimeoutConfig) Option {
	return func(o *baseExporter) {
		o.timeoutCfg = timeoutConfig
	}
}

// WithRetry overrides the default configretry.BackOffConfig for an exporter.
// The default configretry.BackOffConfig is to disable retries.
func WithRetry(config configretry.BackOffConfig) Option {
	return func(o *baseExporter) {
		o.retryCfg = config
	}
}

// baseExporter contains common fields between different exporter types.
type baseExporter struct {
	component.StartFunc
	component.ShutdownFunc

	set        component.TelemetrySettings
	obsrep     *obsReport
	timeoutCfg TimeoutConfig
	retryCfg   configretry.BackOffConfig

	retrySender *retrySender
	// sender is the head of the chain: obsReport -> retry -> timeout -> push.
	sender requestSender
}

func newBaseExporter(set component.TelemetrySettings, push requestSender, options ...Option) (*baseExporter, error) {
	be := &baseExporter{
		set:        component.Sanitize(set),
		timeoutCfg: NewDefaultTimeoutConfig(),
	}
	for _, op := range options {
		op(be)
	}
	if err := be.timeoutCfg.Validate(); err != nil {
		return nil, err
	}
	if err := be.retryCfg.Validate(); err != nil {
		return nil, err
	}

	obsrep, err := newObsReport(be.set)
	if err != nil {
		return nil, err
	}
	be.obsrep = obsrep

	be.retrySender = newRetrySender(be.retryCfg, be.set.Logger, &timeoutSender{cfg: be.timeoutCfg, next: push})
	be.sender = &obsReportSender{obsrep: obsrep, next: be.retrySender}
	return be, nil
}

// Shutdown interrupts pending retries, then calls the configured shutdown function.
func (be *baseExporter) Shutdown(ctx context.Context) error {
	be.retrySender.shutdown()
	return be.ShutdownFunc.Shutdown(ctx)
}
