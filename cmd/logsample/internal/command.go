// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package internal // import "github.com/otel-log-samples/logpipeline/cmd/logsample/internal"

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/otel-log-samples/logpipeline/confmap"
	"github.com/otel-log-samples/logpipeline/service"
)

const (
	configFlag       = "config"
	setFlag          = "set"
	endpointFlag     = "endpoint"
	exporterFlag     = "exporter"
	logLevelFlag     = "log-level"
	serviceNameFlag  = "service-name"
	scenariosFlag    = "scenarios"
	workDelayFlag    = "work-delay"
	shutdownTimeout  = 10 * time.Second
	defaultWorkDelay = 100 * time.Millisecond
)

// flagKeys maps the configuration flags onto configuration keys. A changed
// flag wins over the file, the environment and --set.
var flagKeys = map[string][]string{
	endpointFlag:    {"logs::otlp::endpoint", "logs::otlphttp::endpoint", "traces::endpoint"},
	exporterFlag:    {"logs::exporter"},
	logLevelFlag:    {"telemetry::log_level"},
	serviceNameFlag: {"resource::service_name"},
}

type options struct {
	scenarios []string
	workDelay time.Duration
}

// Command returns the logsample root command.
func Command() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		SilenceUsage:  true, // Don't print usage on Run error.
		SilenceErrors: true, // Don't print errors; main does it.
		Use:           "logsample",
		Long: `logsample emits sample application logs through zap and slog, correlates
them with spans, and exports them with the OpenTelemetry log pipeline.

Configuration is read from, in increasing precedence: built-in defaults,
the --config file, OTEL_* environment variables, --set values and the
dedicated flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.String(configFlag, "", "YAML configuration file")
	flags.StringArray(setFlag, nil, "set a configuration value, e.g. --set logs::batch::max_queue_size=4096")
	flags.String(endpointFlag, "", "collector endpoint for logs and traces")
	flags.String(exporterFlag, "", "log exporter: otlp, otlphttp, debug or none")
	flags.String(logLevelFlag, "", "level of the pipeline's own diagnostics")
	flags.String(serviceNameFlag, "", "service.name of the emitted records")
	flags.StringSliceVar(&opts.scenarios, scenariosFlag, scenarioNames(), "scenarios to run")
	flags.DurationVar(&opts.workDelay, workDelayFlag, defaultWorkDelay, "simulated duration of each traced step")

	cmd.AddCommand(versionCommand())
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	selected, err := selectScenarios(opts.scenarios)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := service.NewLogger(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	srv, err := service.New(ctx, service.Settings{Logger: logger, Version: version}, cfg)
	if err != nil {
		return err
	}

	app := newSampleApp(cmd.OutOrStdout(), srv, opts.workDelay)
	runErr := app.run(ctx, selected)
	_ = app.logger.Sync()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	err = multierr.Combine(runErr, srv.ForceFlush(shutdownCtx), srv.Shutdown(shutdownCtx))

	stats := srv.Stats()
	logger.Info("Sample finished",
		zap.Int64("exported_log_records", stats.ExportedRecords),
		zap.Int64("dropped_log_records", stats.DroppedRecords),
	)
	return err
}

func loadConfig(flags *pflag.FlagSet) (service.Config, error) {
	cfg := service.NewDefaultConfig()
	file, err := flags.GetString(configFlag)
	if err != nil {
		return cfg, err
	}
	set, err := flags.GetStringArray(setFlag)
	if err != nil {
		return cfg, err
	}
	conf, err := confmap.Load(confmap.Options{
		File:     file,
		Env:      service.EnvBindings(),
		Set:      set,
		Flags:    flags,
		FlagKeys: flagKeys,
	})
	if err != nil {
		return cfg, err
	}
	if err = conf.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to get config: %w", err)
	}
	return cfg, nil
}
