// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package debugexporter // import "github.com/otel-log-samples/logpipeline/exporter/debugexporter"

import (
	"errors"
	"fmt"
	"strings"
)

// Verbosity selects how much of each batch is written.
type Verbosity string

const (
	// VerbosityBasic writes one summary line per batch.
	VerbosityBasic Verbosity = "basic"
	// VerbosityNormal adds one line per record.
	VerbosityNormal Verbosity = "normal"
	// VerbosityDetailed adds the whole batch as OTLP JSON.
	VerbosityDetailed Verbosity = "detailed"
)

// UnmarshalText accepts the verbosity names case-insensitively.
func (v *Verbosity) UnmarshalText(text []byte) error {
	switch lv := Verbosity(strings.ToLower(string(text))); lv {
	case VerbosityBasic, VerbosityNormal, VerbosityDetailed:
		*v = lv
		return nil
	}
	return fmt.Errorf("unknown verbosity %q", string(text))
}

const (
	defaultSamplingInitial    = 2
	defaultSamplingThereafter = 1
)

// Config defines configuration for debug exporter.
type Config struct {
	// Verbosity defines the debug exporter verbosity.
	Verbosity Verbosity `mapstructure:"verbosity"`

	// SamplingInitial defines how many samples are initially logged during each second.
	SamplingInitial int `mapstructure:"sampling_initial"`

	// SamplingThereafter defines the sampling rate after the initial samples are logged.
	SamplingThereafter int `mapstructure:"sampling_thereafter"`

	// UseInternalLogger defines whether the exporter sends the output to the process logger.
	UseInternalLogger bool `mapstructure:"use_internal_logger"`

	// OutputPaths is a list of file paths to write logging output to.
	// This option can only be used when use_internal_logger is false.
	// Special strings "stdout" and "stderr" are interpreted as os.Stdout and os.Stderr respectively.
	// If not set, defaults to ["stdout"].
	OutputPaths []string `mapstructure:"output_paths"`
}

// NewDefaultConfig returns a config writing one line per record to stdout.
func NewDefaultConfig() *Config {
	return &Config{
		Verbosity:          VerbosityNormal,
		SamplingInitial:    defaultSamplingInitial,
		SamplingThereafter: defaultSamplingThereafter,
	}
}

// Validate checks if the exporter configuration is valid
func (cfg *Config) Validate() error {
	switch cfg.Verbosity {
	case VerbosityBasic, VerbosityNormal, VerbosityDetailed:
	default:
		return fmt.Errorf("verbosity level %q is not supported", cfg.Verbosity)
	}

	// output_paths is only used when use_internal_logger is false
	if cfg.UseInternalLogger && cfg.OutputPaths != nil {
		return errors.New("output_paths is not supported when use_internal_logger is true")
	}

	// nil output_paths defaults to ["stdout"]; an explicit empty list is an error.
	if !cfg.UseInternalLogger && cfg.OutputPaths != nil && len(cfg.OutputPaths) == 0 {
		return errors.New("output_paths must not be empty when use_internal_logger is false")
	}

	return nil
}
