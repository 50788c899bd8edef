// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package batchprocessor

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/otel-log-samples/logpipeline/component/componenttest"
	"github.com/otel-log-samples/logpipeline/config/configretry"
	"github.com/otel-log-samples/logpipeline/exporter/exporterhelper"
	"github.com/otel-log-samples/logpipeline/exporter/exportererror"
	"github.com/otel-log-samples/logpipeline/exporter/exportertest"
	"github.com/otel-log-samples/logpipeline/record"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newRecord(body string) record.Record {
	return record.New(nil, record.Scope{Name: "test"}, record.Builder{Body: body, Severity: record.SeverityInfo})
}

// manualConfig never fires the schedule timer during a test.
func manualConfig() Config {
	cfg := NewDefaultConfig()
	cfg.ScheduleDelay = time.Hour
	return cfg
}

func newProcessor(t *testing.T, exp *exportertest.LogsSink, cfg Config) *Processor {
	bp, err := New(componenttest.NewNopTelemetrySettings(), exp, cfg)
	require.NoError(t, err)
	return bp
}

func bodies(records []record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Body()
	}
	return out
}

// blockFirstExport makes the first export wait for release so the test can
// fill the queue while the worker is busy.
func blockFirstExport(sink *exportertest.LogsSink) (entered <-chan struct{}, release chan<- struct{}) {
	enteredC := make(chan struct{})
	releaseC := make(chan struct{})
	var once sync.Once
	sink.ExportFunc = func(context.Context, []record.Record) error {
		first := false
		once.Do(func() { first = true })
		if first {
			close(enteredC)
			<-releaseC
		}
		return nil
	}
	return enteredC, releaseC
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxExportBatchSize = cfg.MaxQueueSize + 1
	_, err := New(componenttest.NewNopTelemetrySettings(), new(exportertest.LogsSink), cfg)
	require.Error(t, err)

	_, err = New(componenttest.NewNopTelemetrySettings(), nil, NewDefaultConfig())
	require.Error(t, err)
}

func TestBatchSplitsAtMaxExportBatchSize(t *testing.T) {
	sink := new(exportertest.LogsSink)
	bp := newProcessor(t, sink, manualConfig())

	for i := 0; i < 600; i++ {
		require.NoError(t, bp.OnEmit(context.Background(), newRecord(strconv.Itoa(i))))
	}
	require.NoError(t, bp.ForceFlush(context.Background()))
	require.NoError(t, bp.Shutdown(context.Background()))

	assert.Equal(t, []int{512, 88}, sink.BatchSizes())
	got := bodies(sink.AllRecords())
	require.Len(t, got, 600)
	for i, b := range got {
		require.Equal(t, strconv.Itoa(i), b)
	}
	assert.EqualValues(t, 600, bp.Stats().ExportedRecords)
}

func TestBatchSizeNeverExceedsMax(t *testing.T) {
	sink := new(exportertest.LogsSink)
	cfg := NewDefaultConfig()
	cfg.ScheduleDelay = 5 * time.Millisecond
	cfg.MaxExportBatchSize = 7
	cfg.MaxQueueSize = 10000
	bp := newProcessor(t, sink, cfg)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				assert.NoError(t, bp.OnEmit(context.Background(), newRecord("x")))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, bp.Shutdown(context.Background()))

	assert.Equal(t, 1000, sink.RecordCount())
	for _, n := range sink.BatchSizes() {
		assert.LessOrEqual(t, n, 7)
		assert.Positive(t, n)
	}
}

func TestScheduleDelayExports(t *testing.T) {
	sink := new(exportertest.LogsSink)
	cfg := NewDefaultConfig()
	cfg.ScheduleDelay = 10 * time.Millisecond
	bp := newProcessor(t, sink, cfg)
	defer func() { require.NoError(t, bp.Shutdown(context.Background())) }()

	require.NoError(t, bp.OnEmit(context.Background(), newRecord("tick")))
	assert.Eventually(t, func() bool { return sink.RecordCount() == 1 }, 5*time.Second, 5*time.Millisecond)
}

func TestForceFlushEmptyQueue(t *testing.T) {
	sink := new(exportertest.LogsSink)
	bp := newProcessor(t, sink, manualConfig())

	for i := 0; i < 3; i++ {
		require.NoError(t, bp.ForceFlush(context.Background()))
	}
	require.NoError(t, bp.Shutdown(context.Background()))
	assert.Equal(t, 0, sink.ExportCalls())
}

func TestForceFlushAfterShutdown(t *testing.T) {
	bp := newProcessor(t, new(exportertest.LogsSink), manualConfig())
	require.NoError(t, bp.Shutdown(context.Background()))
	assert.NoError(t, bp.ForceFlush(context.Background()))
}

func TestForceFlushTimeoutKeepsQueuedRecords(t *testing.T) {
	var calls atomic.Int32
	sink := &exportertest.LogsSink{ExportFunc: func(ctx context.Context, _ []record.Record) error {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}}
	cfg := manualConfig()
	cfg.MaxExportBatchSize = 2
	bp := newProcessor(t, sink, cfg)

	// Queue records without waking the worker.
	bp.mu.Lock()
	for i := 0; i < 6; i++ {
		bp.queue.push(newRecord(strconv.Itoa(i)))
	}
	bp.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, bp.ForceFlush(ctx), context.DeadlineExceeded)

	assert.Eventually(t, func() bool { return bp.Stats().FailedBatches == 1 }, 5*time.Second, 10*time.Millisecond)
	stats := bp.Stats()
	assert.Equal(t, 4, stats.QueueSize)
	assert.EqualValues(t, 2, stats.DroppedRecords)

	require.NoError(t, bp.Shutdown(context.Background()))
	assert.Equal(t, []string{"2", "3", "4", "5"}, bodies(sink.AllRecords()))
	assert.EqualValues(t, 4, bp.Stats().ExportedRecords)
}

func TestOverflowPolicies(t *testing.T) {
	tests := []struct {
		policy  OverflowPolicy
		wantErr error
		want    []string
	}{
		{policy: DropNewest, wantErr: ErrQueueFull, want: []string{"0", "1", "2", "3"}},
		{policy: DropOldest, want: []string{"0", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			sink := new(exportertest.LogsSink)
			entered, release := blockFirstExport(sink)
			cfg := manualConfig()
			cfg.MaxQueueSize = 3
			cfg.MaxExportBatchSize = 1
			cfg.OverflowPolicy = tt.policy
			bp := newProcessor(t, sink, cfg)

			require.NoError(t, bp.OnEmit(context.Background(), newRecord("0")))
			<-entered
			for i := 1; i <= 3; i++ {
				require.NoError(t, bp.OnEmit(context.Background(), newRecord(strconv.Itoa(i))))
			}
			assert.Equal(t, 3, bp.Stats().QueueSize)

			err := bp.OnEmit(context.Background(), newRecord("4"))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.EqualValues(t, 1, bp.Stats().DroppedRecords)
			assert.Equal(t, 3, bp.Stats().QueueSize)

			close(release)
			require.NoError(t, bp.Shutdown(context.Background()))
			assert.Equal(t, tt.want, bodies(sink.AllRecords()))
		})
	}
}

func TestOnEmitAfterShutdown(t *testing.T) {
	sink := new(exportertest.LogsSink)
	bp := newProcessor(t, sink, manualConfig())
	require.NoError(t, bp.Shutdown(context.Background()))

	require.ErrorIs(t, bp.OnEmit(context.Background(), newRecord("late")), ErrShutdown)
	assert.EqualValues(t, 1, bp.Stats().DroppedRecords)
	assert.Equal(t, 0, sink.ExportCalls())
}

func TestShutdownDrainsAndIsIdempotent(t *testing.T) {
	sink := new(exportertest.LogsSink)
	bp := newProcessor(t, sink, manualConfig())
	for i := 0; i < 10; i++ {
		require.NoError(t, bp.OnEmit(context.Background(), newRecord("r")))
	}
	require.NoError(t, bp.Shutdown(context.Background()))
	require.NoError(t, bp.Shutdown(context.Background()))

	assert.Equal(t, 10, sink.RecordCount())
	assert.Equal(t, 1, sink.Shutdowns())
}

func TestShutdownTimeoutWithBlockedExporter(t *testing.T) {
	tel := componenttest.NewTelemetry(zapcore.InfoLevel)
	defer func() { require.NoError(t, tel.Shutdown(context.Background())) }()

	sink := &exportertest.LogsSink{ExportFunc: func(ctx context.Context, _ []record.Record) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	cfg := manualConfig()
	cfg.MaxExportBatchSize = 2
	bp, err := New(tel.NewTelemetrySettings(), sink, cfg)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		require.NoError(t, bp.OnEmit(context.Background(), newRecord("stuck")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = bp.Shutdown(ctx)
	require.ErrorIs(t, err, ErrShutdownTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.EqualValues(t, 6, bp.Stats().DroppedRecords)
	assert.EqualValues(t, 0, bp.Stats().ExportedRecords)
	assert.Equal(t, 1, sink.Shutdowns())
}

func TestShutdownBoundedWhenExporterIgnoresContext(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	sink := &exportertest.LogsSink{ExportFunc: func(context.Context, []record.Record) error {
		once.Do(func() { close(entered) })
		<-release
		return nil
	}}
	bp := newProcessor(t, sink, manualConfig())
	require.NoError(t, bp.OnEmit(context.Background(), newRecord("stuck")))

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelFlush()
	require.ErrorIs(t, bp.ForceFlush(flushCtx), context.DeadlineExceeded)
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := bp.Shutdown(ctx)
	close(release)
	require.ErrorIs(t, err, ErrShutdownTimeout)
	assert.Less(t, time.Since(start), workerExitGrace+2*time.Second)

	// The exporter is shut down once the stuck export returns.
	assert.Eventually(t, func() bool { return sink.Shutdowns() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, bp.Stats().ExportedRecords)
}

func TestTransientFailureExhaustsRetries(t *testing.T) {
	tel := componenttest.NewTelemetry(zapcore.InfoLevel)
	defer func() { require.NoError(t, tel.Shutdown(context.Background())) }()

	var attempts atomic.Int32
	retry := configretry.NewDefaultBackOffConfig()
	retry.InitialInterval = time.Millisecond
	retry.MaxInterval = time.Millisecond
	retry.MaxAttempts = 3
	exp, err := exporterhelper.NewLogs(componenttest.NewNopTelemetrySettings(),
		func(context.Context, []record.Record) error {
			attempts.Add(1)
			return errors.New("collector unavailable")
		},
		exporterhelper.WithRetry(retry))
	require.NoError(t, err)
	require.NoError(t, exp.Start(context.Background()))

	bp, err := New(tel.NewTelemetrySettings(), exp, manualConfig())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, bp.OnEmit(context.Background(), newRecord("r")))
	}
	err = bp.ForceFlush(context.Background())
	require.ErrorIs(t, err, exporterhelper.ErrRetriesExhausted)
	require.NoError(t, bp.Shutdown(context.Background()))

	assert.EqualValues(t, 3, attempts.Load())
	errs := tel.Logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errs, 1)
	assert.EqualValues(t, 5, errs[0].ContextMap()["dropped_records"])
	assert.Equal(t, "failure", errs[0].ContextMap()["result"])

	stats := bp.Stats()
	assert.EqualValues(t, 1, stats.FailedBatches)
	assert.EqualValues(t, 5, stats.DroppedRecords)
	require.NoError(t, tel.CheckIntSum(MetricFailedBatches, 1))
	require.NoError(t, tel.CheckIntSum(MetricDroppedRecords, 5))
}

func TestPermanentFailureSingleAttempt(t *testing.T) {
	tel := componenttest.NewTelemetry(zapcore.InfoLevel)
	defer func() { require.NoError(t, tel.Shutdown(context.Background())) }()

	sink := &exportertest.LogsSink{ExportFunc: func(context.Context, []record.Record) error {
		return exportererror.NewPermanent(errors.New("invalid argument"))
	}}
	bp, err := New(tel.NewTelemetrySettings(), sink, manualConfig())
	require.NoError(t, err)
	require.NoError(t, bp.OnEmit(context.Background(), newRecord("bad")))

	err = bp.ForceFlush(context.Background())
	require.Error(t, err)
	assert.True(t, exportererror.IsPermanent(err))
	require.NoError(t, bp.Shutdown(context.Background()))

	assert.Equal(t, 1, sink.ExportCalls())
	assert.EqualValues(t, 1, bp.Stats().FailedBatches)
	assert.Equal(t, 1, tel.Logs.FilterMessage("Dropping batch of log records after failed export").Len())
}

func TestTelemetryMetrics(t *testing.T) {
	tel := componenttest.NewTelemetry(zapcore.InfoLevel)
	defer func() { require.NoError(t, tel.Shutdown(context.Background())) }()

	sink := new(exportertest.LogsSink)
	cfg := manualConfig()
	cfg.MaxQueueSize = 10
	bp, err := New(tel.NewTelemetrySettings(), sink, cfg)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, bp.OnEmit(context.Background(), newRecord("m")))
	}
	require.NoError(t, tel.CheckIntGauge(MetricQueueSize, 4))

	require.NoError(t, bp.ForceFlush(context.Background()))
	require.NoError(t, tel.CheckIntSum(MetricExportedRecords, 4))
	require.NoError(t, tel.CheckIntGauge(MetricQueueSize, 0))
	require.NoError(t, bp.Shutdown(context.Background()))

	assert.Equal(t, Stats{ExportedRecords: 4}, bp.Stats())
}
