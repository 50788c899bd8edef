// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package debugexporter // import "github.com/otel-log-samples/logpipeline/exporter/debugexporter"

import (
	"context"
	"errors"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/exporter"
	"github.com/otel-log-samples/logpipeline/exporter/exporterhelper"
)

// NewLogs creates the debug log exporter. Writing to the console never fails
// transiently, so retries are left disabled.
func NewLogs(set component.TelemetrySettings, cfg *Config) (exporter.Logs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	set = component.Sanitize(set)
	exporterLogger, err := createLogger(cfg, set.Logger)
	if err != nil {
		return nil, err
	}
	debug := newDebugExporter(exporterLogger, cfg.Verbosity)
	return exporterhelper.NewLogs(set, debug.pushLogs,
		exporterhelper.WithTimeout(exporterhelper.TimeoutConfig{Timeout: 0}),
		exporterhelper.WithShutdown(loggerSync(exporterLogger)),
	)
}

func createLogger(cfg *Config, logger *zap.Logger) (*zap.Logger, error) {
	if cfg.UseInternalLogger {
		core := zapcore.NewSamplerWithOptions(
			logger.Core(),
			1*time.Second,
			cfg.SamplingInitial,
			cfg.SamplingThereafter,
		)
		return zap.New(core), nil
	}
	return createCustomLogger(cfg)
}

func createCustomLogger(exporterConfig *Config) (*zap.Logger, error) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	// Do not prefix the output with log level (`info`)
	encoderConfig.LevelKey = ""
	// Do not prefix the output with current timestamp.
	encoderConfig.TimeKey = ""
	outputPaths := exporterConfig.OutputPaths
	if outputPaths == nil {
		outputPaths = []string{"stdout"}
	}
	zapConfig := zap.Config{
		Level:         zap.NewAtomicLevelAt(zap.InfoLevel),
		DisableCaller: true,
		Sampling: &zap.SamplingConfig{
			Initial:    exporterConfig.SamplingInitial,
			Thereafter: exporterConfig.SamplingThereafter,
		},
		Encoding:      "console",
		EncoderConfig: encoderConfig,
		OutputPaths:   outputPaths,
	}
	return zapConfig.Build()
}

// loggerSync flushes the exporter logger on shutdown. Syncing stdout or
// stderr fails with EINVAL or ENOTSUP on some platforms; those are ignored.
func loggerSync(logger *zap.Logger) func(context.Context) error {
	return func(context.Context) error {
		err := logger.Sync()
		if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.ENOTTY) {
			return nil
		}
		return err
	}
}
