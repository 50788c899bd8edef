// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package batchprocessor // import "github.com/otel-log-samples/logpipeline/processor/batchprocessor"

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	defaultScheduleDelay      = 1 * time.Second
	defaultExportTimeout      = 30 * time.Second
	defaultMaxQueueSize       = 2048
	defaultMaxExportBatchSize = 512
)

// OverflowPolicy decides which record is lost when the queue is full.
type OverflowPolicy string

const (
	// DropNewest rejects the incoming record.
	DropNewest OverflowPolicy = "drop_newest"
	// DropOldest evicts the record at the head of the queue to make room.
	DropOldest OverflowPolicy = "drop_oldest"
)

// UnmarshalText accepts the policy names case-insensitively.
func (p *OverflowPolicy) UnmarshalText(text []byte) error {
	switch v := OverflowPolicy(strings.ToLower(string(text))); v {
	case DropNewest, DropOldest:
		*p = v
		return nil
	}
	return fmt.Errorf("unknown overflow policy %q", string(text))
}

// Config defines configuration for the batch processor.
type Config struct {
	// ScheduleDelay is the interval between two flushes of whatever is queued.
	ScheduleDelay time.Duration `mapstructure:"schedule_delay"`

	// ExportTimeout bounds one export call, retries included.
	ExportTimeout time.Duration `mapstructure:"export_timeout"`

	// MaxQueueSize is the number of records held before the overflow policy
	// applies.
	MaxQueueSize int `mapstructure:"max_queue_size"`

	// MaxExportBatchSize is the maximum number of records in one export
	// call. Queueing that many records wakes the worker early.
	MaxExportBatchSize int `mapstructure:"max_export_batch_size"`

	// OverflowPolicy applies when a record arrives at a full queue.
	OverflowPolicy OverflowPolicy `mapstructure:"overflow_policy"`
}

// NewDefaultConfig returns the defaults of the OpenTelemetry batch log
// record processor.
func NewDefaultConfig() Config {
	return Config{
		ScheduleDelay:      defaultScheduleDelay,
		ExportTimeout:      defaultExportTimeout,
		MaxQueueSize:       defaultMaxQueueSize,
		MaxExportBatchSize: defaultMaxExportBatchSize,
		OverflowPolicy:     DropNewest,
	}
}

// Validate checks if the processor configuration is valid.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.ScheduleDelay <= 0 {
		errs = multierr.Append(errs, errors.New("'schedule_delay' must be positive"))
	}
	if cfg.ExportTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("'export_timeout' must be positive"))
	}
	if cfg.MaxQueueSize <= 0 {
		errs = multierr.Append(errs, errors.New("'max_queue_size' must be positive"))
	}
	if cfg.MaxExportBatchSize <= 0 {
		errs = multierr.Append(errs, errors.New("'max_export_batch_size' must be positive"))
	}
	if cfg.MaxExportBatchSize > cfg.MaxQueueSize {
		errs = multierr.Append(errs, errors.New("'max_export_batch_size' must be less than or equal to 'max_queue_size'"))
	}
	switch cfg.OverflowPolicy {
	case DropNewest, DropOldest:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown 'overflow_policy' %q", cfg.OverflowPolicy))
	}
	return errs
}

// Environment variables of the OpenTelemetry SDK configuration that map
// onto Config. Delays are expressed in milliseconds.
const (
	EnvScheduleDelay      = "OTEL_BLRP_SCHEDULE_DELAY"
	EnvExportTimeout      = "OTEL_BLRP_EXPORT_TIMEOUT"
	EnvMaxQueueSize       = "OTEL_BLRP_MAX_QUEUE_SIZE"
	EnvMaxExportBatchSize = "OTEL_BLRP_MAX_EXPORT_BATCH_SIZE"
)

// EnvVar describes how one environment variable maps onto a Config field.
type EnvVar struct {
	// Key is the mapstructure key of the field.
	Key string
	// Millis marks a duration given as a number of milliseconds.
	Millis bool
}

// EnvVars lists the environment variables understood by the processor.
var EnvVars = map[string]EnvVar{
	EnvScheduleDelay:      {Key: "schedule_delay", Millis: true},
	EnvExportTimeout:      {Key: "export_timeout", Millis: true},
	EnvMaxQueueSize:       {Key: "max_queue_size"},
	EnvMaxExportBatchSize: {Key: "max_export_batch_size"},
}
