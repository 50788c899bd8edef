// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package otlphttpexporter // import "github.com/otel-log-samples/logpipeline/exporter/otlphttpexporter"

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/multierr"

	"github.com/otel-log-samples/logpipeline/config/confighttp"
	"github.com/otel-log-samples/logpipeline/config/configretry"
)

// DefaultEndpoint is the base URL of a collector listening on the standard
// OTLP/HTTP port.
const DefaultEndpoint = "http://localhost:4318"

// Config defines configuration for OTLP/HTTP exporter.
type Config struct {
	ClientConfig confighttp.ClientConfig  `mapstructure:",squash"` // squash ensures fields are correctly decoded in embedded struct.
	RetryConfig  configretry.BackOffConfig `mapstructure:"retry_on_failure"`

	// The URL to send logs to. If omitted the Endpoint + "/v1/logs" will be used.
	LogsEndpoint string `mapstructure:"logs_endpoint"`
}

// NewDefaultConfig returns the default OTLP/HTTP exporter configuration.
func NewDefaultConfig() *Config {
	clientCfg := confighttp.NewDefaultClientConfig()
	clientCfg.Endpoint = DefaultEndpoint
	return &Config{
		ClientConfig: clientCfg,
		RetryConfig:  configretry.NewDefaultBackOffConfig(),
	}
}

// Validate checks if the exporter configuration is valid
func (cfg *Config) Validate() error {
	if cfg.ClientConfig.Endpoint == "" && cfg.LogsEndpoint == "" {
		return errors.New("at least one endpoint must be specified")
	}
	var errs error
	if cfg.LogsEndpoint != "" {
		if _, err := url.ParseRequestURI(cfg.LogsEndpoint); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid logs_endpoint %q: %w", cfg.LogsEndpoint, err))
		}
	}
	return multierr.Combine(errs, cfg.ClientConfig.Validate(), cfg.RetryConfig.Validate())
}

// logsURL returns logs_endpoint when set, otherwise the endpoint with the
// OTLP logs path appended.
func (cfg *Config) logsURL() (string, error) {
	if cfg.LogsEndpoint != "" {
		return cfg.LogsEndpoint, nil
	}
	u, err := url.Parse(cfg.ClientConfig.Endpoint)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/logs"
	return u.String(), nil
}
