// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package debugexporter // import "github.com/otel-log-samples/logpipeline/exporter/debugexporter"

import (
	"context"

	"go.opentelemetry.io/collector/pdata/plog"
	"go.uber.org/zap"

	"github.com/otel-log-samples/logpipeline/exporter/debugexporter/internal/normal"
	"github.com/otel-log-samples/logpipeline/exporter/internal/otlplogs"
	"github.com/otel-log-samples/logpipeline/record"
)

// recordWriter logs one batch of records.
type recordWriter func(logger *zap.Logger, records []record.Record) error

type debugExporter struct {
	logger *zap.Logger
	write  recordWriter
}

func newDebugExporter(logger *zap.Logger, verbosity Verbosity) *debugExporter {
	de := &debugExporter{logger: logger}
	switch verbosity {
	case VerbosityNormal:
		de.write = writeNormal
	case VerbosityDetailed:
		de.write = writeDetailed(&plog.JSONMarshaler{})
	}
	return de
}

func (de *debugExporter) pushLogs(_ context.Context, records []record.Record) error {
	de.logger.Info("Logs",
		zap.Int("resources", normal.Resources(records)),
		zap.Int("log records", len(records)))
	if de.write == nil || len(records) == 0 {
		return nil
	}
	return de.write(de.logger, records)
}

// writeNormal prints one line per record, straight from the records.
func writeNormal(logger *zap.Logger, records []record.Record) error {
	logger.Info(string(normal.Records(records)))
	return nil
}

// writeDetailed prints the OTLP JSON form of the batch, as it would be sent
// to a collector.
func writeDetailed(marshaler plog.Marshaler) recordWriter {
	return func(logger *zap.Logger, records []record.Record) error {
		buf, err := marshaler.MarshalLogs(otlplogs.FromRecords(records))
		if err != nil {
			return err
		}
		logger.Info(string(buf))
		return nil
	}
}
