// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package otlpexporter // import "github.com/otel-log-samples/logpipeline/exporter/otlpexporter"

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/otel-log-samples/logpipeline/config/configgrpc"
	"github.com/otel-log-samples/logpipeline/config/configretry"
	"github.com/otel-log-samples/logpipeline/exporter/exporterhelper"
)

// Config defines configuration for the OTLP/gRPC log exporter.
type Config struct {
	TimeoutConfig exporterhelper.TimeoutConfig `mapstructure:",squash"`
	RetryConfig   configretry.BackOffConfig    `mapstructure:"retry_on_failure"`

	ClientConfig configgrpc.ClientConfig `mapstructure:",squash"`

	// NumConnections is the number of gRPC connections exports are spread
	// over. Zero means one.
	NumConnections int `mapstructure:"num_connections"`
}

// NewDefaultConfig returns the configuration used when nothing is set:
// localhost:4317, gzip, 5s per attempt, retries enabled.
func NewDefaultConfig() *Config {
	return &Config{
		TimeoutConfig: exporterhelper.NewDefaultTimeoutConfig(),
		RetryConfig:   configretry.NewDefaultBackOffConfig(),
		ClientConfig:  configgrpc.NewDefaultClientConfig(),
	}
}

// Validate checks if the exporter configuration is valid.
func (cfg *Config) Validate() error {
	return multierr.Combine(
		cfg.TimeoutConfig.Validate(),
		cfg.RetryConfig.Validate(),
		cfg.ClientConfig.Validate(),
		validateNumConnections(cfg.NumConnections),
	)
}

func validateNumConnections(n int) error {
	if n < 0 {
		return errors.New("'num_connections' must be non-negative")
	}
	return nil
}
