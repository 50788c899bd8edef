// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package batchprocessor // import "github.com/otel-log-samples/logpipeline/processor/batchprocessor"

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/exporter"
	"github.com/otel-log-samples/logpipeline/processor"
	"github.com/otel-log-samples/logpipeline/record"
)

var (
	// ErrQueueFull is returned by OnEmit when the queue is full and the
	// overflow policy rejects the incoming record.
	ErrQueueFull = errors.New("batch processor queue is full")
	// ErrShutdown is returned by OnEmit after Shutdown was called.
	ErrShutdown = errors.New("batch processor is shut down")
	// ErrShutdownTimeout is returned by Shutdown when the final drain did
	// not finish before the context was done.
	ErrShutdownTimeout = errors.New("batch processor shutdown timed out before the queue was drained")
)

var _ processor.Logs = (*Processor)(nil)

// workerExitGrace bounds how long Shutdown waits for an export that ignores
// cancellation once its context is done.
var workerExitGrace = time.Second

// Stats is a snapshot of the processor counters.
type Stats struct {
	QueueSize       int
	DroppedRecords  int64
	ExportedRecords int64
	FailedBatches   int64
}

type flushRequest struct {
	ctx  context.Context
	done chan error
}

// Processor accumulates records and exports them when a batch is full, when
// the schedule delay elapses, on ForceFlush and on Shutdown.
type Processor struct {
	logger    *zap.Logger
	exporter  exporter.Logs
	cfg       Config
	telemetry *batchProcessorTelemetry

	mu      sync.Mutex
	queue   *queue
	stopped bool

	sizeTrigger chan struct{}
	flushC      chan flushRequest
	shutdownC   chan struct{}
	done        chan struct{}

	// exportCtx is canceled when Shutdown gives up waiting for the worker.
	exportCtx    context.Context
	cancelExport context.CancelFunc
	shutdownOnce sync.Once

	dropped       atomic.Int64
	exported      atomic.Int64
	failedBatches atomic.Int64
}

// New validates cfg and starts the processor worker. The exporter must
// already be started; Shutdown shuts it down.
func New(set component.TelemetrySettings, exp exporter.Logs, cfg Config) (*Processor, error) {
	if exp == nil {
		return nil, errors.New("nil exporter")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	set = component.Sanitize(set)

	bp := &Processor{
		logger:      set.Logger,
		exporter:    exp,
		cfg:         cfg,
		queue:       newQueue(cfg.MaxQueueSize),
		sizeTrigger: make(chan struct{}, 1),
		flushC:      make(chan flushRequest),
		shutdownC:   make(chan struct{}),
		done:        make(chan struct{}),
	}
	bp.exportCtx, bp.cancelExport = context.WithCancel(context.Background())

	bpt, err := newBatchProcessorTelemetry(set, bp.queueLen)
	if err != nil {
		return nil, err
	}
	bp.telemetry = bpt

	go bp.startProcessingCycle()
	return bp, nil
}

// OnEmit queues rec without blocking.
func (bp *Processor) OnEmit(_ context.Context, rec record.Record) error {
	bp.mu.Lock()
	if bp.stopped {
		bp.mu.Unlock()
		bp.recordDropped(1)
		return ErrShutdown
	}
	if bp.queue.full() {
		if bp.cfg.OverflowPolicy == DropNewest {
			bp.mu.Unlock()
			bp.recordDropped(1)
			return ErrQueueFull
		}
		bp.queue.dropHead()
		bp.recordDropped(1)
	}
	bp.queue.push(rec)
	n := bp.queue.len()
	bp.mu.Unlock()

	if n >= bp.cfg.MaxExportBatchSize {
		select {
		case bp.sizeTrigger <- struct{}{}:
		default:
		}
	}
	return nil
}

// ForceFlush exports every record queued before the call and returns the
// combined export errors. If ctx is done first, ForceFlush returns ctx.Err()
// and the records it did not reach stay queued for the next export cycle.
// It returns nil once the processor is shut down.
func (bp *Processor) ForceFlush(ctx context.Context) error {
	req := flushRequest{ctx: ctx, done: make(chan error, 1)}
	select {
	case bp.flushC <- req:
	case <-bp.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting records, drains the queue and shuts the exporter
// down. If ctx is done first, in-flight exports are canceled, the rest of
// the queue is dropped and ErrShutdownTimeout is returned.
//
// Shutdown does not wait for an exporter that ignores cancellation: after a
// short grace period it returns, and the exporter is shut down in the
// background once its export returns.
func (bp *Processor) Shutdown(ctx context.Context) error {
	var err error
	bp.shutdownOnce.Do(func() {
		bp.mu.Lock()
		bp.stopped = true
		bp.mu.Unlock()
		close(bp.shutdownC)

		select {
		case <-bp.done:
		case <-ctx.Done():
			bp.cancelExport()
			err = ErrShutdownTimeout
			if !bp.waitWorker(workerExitGrace) {
				bp.logger.Error("Log exporter did not return after cancellation, shutting it down in the background")
				go func() {
					<-bp.done
					_ = bp.exporter.Shutdown(context.Background())
				}()
				return
			}
		}
		bp.cancelExport()
		err = multierr.Append(err, bp.exporter.Shutdown(ctx))
	})
	return err
}

func (bp *Processor) waitWorker(grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-bp.done:
		return true
	case <-timer.C:
		return false
	}
}

// Stats returns the current counters.
func (bp *Processor) Stats() Stats {
	return Stats{
		QueueSize:       bp.queueLen(),
		DroppedRecords:  bp.dropped.Load(),
		ExportedRecords: bp.exported.Load(),
		FailedBatches:   bp.failedBatches.Load(),
	}
}

func (bp *Processor) queueLen() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.queue.len()
}

func (bp *Processor) recordDropped(n int) {
	bp.dropped.Add(int64(n))
	bp.telemetry.recordDropped(n)
}

func (bp *Processor) startProcessingCycle() {
	defer close(bp.done)
	timer := time.NewTimer(bp.cfg.ScheduleDelay)
	defer timer.Stop()
	for {
		select {
		case <-bp.shutdownC:
			bp.drainOnShutdown()
			return
		case req := <-bp.flushC:
			req.done <- bp.drain(req.ctx, bp.queueLen(), triggerFlush)
			timer.Reset(bp.cfg.ScheduleDelay)
		case <-bp.sizeTrigger:
			bp.exportFullBatches()
			timer.Reset(bp.cfg.ScheduleDelay)
		case <-timer.C:
			_ = bp.drain(bp.exportCtx, bp.queueLen(), triggerTimeout)
			timer.Reset(bp.cfg.ScheduleDelay)
		}
	}
}

// exportFullBatches exports batches of exactly MaxExportBatchSize while the
// queue holds that many records. The remainder waits for the timer.
func (bp *Processor) exportFullBatches() {
	for bp.exportCtx.Err() == nil {
		bp.mu.Lock()
		if bp.queue.len() < bp.cfg.MaxExportBatchSize {
			bp.mu.Unlock()
			return
		}
		batch := bp.queue.pop(bp.cfg.MaxExportBatchSize)
		bp.mu.Unlock()
		_ = bp.export(bp.exportCtx, batch, triggerBatchSize)
	}
}

// drain exports up to n records from the head of the queue in batches of at
// most MaxExportBatchSize. When ctx is done the records not reached stay
// queued, except on shutdown where they are dropped.
func (bp *Processor) drain(ctx context.Context, n int, t trigger) error {
	var errs error
	for n > 0 {
		if err := ctx.Err(); err != nil {
			if t == triggerShutdown {
				bp.dropQueued(n, t, err)
			}
			return multierr.Append(errs, err)
		}
		bp.mu.Lock()
		batch := bp.queue.pop(min(n, bp.cfg.MaxExportBatchSize))
		bp.mu.Unlock()
		if len(batch) == 0 {
			break
		}
		n -= len(batch)
		errs = multierr.Append(errs, bp.export(ctx, batch, t))
	}
	return errs
}

func (bp *Processor) dropQueued(n int, t trigger, cause error) {
	bp.mu.Lock()
	lost := bp.queue.pop(n)
	bp.mu.Unlock()
	if len(lost) == 0 {
		return
	}
	bp.recordDropped(len(lost))
	bp.logger.Error("Dropping queued log records",
		zap.Int("dropped_records", len(lost)),
		zap.Stringer("trigger", t),
		zap.Error(cause))
}

func (bp *Processor) drainOnShutdown() {
	// No record can be queued once stopped is set.
	_ = bp.drain(bp.exportCtx, bp.queueLen(), triggerShutdown)
}

func (bp *Processor) export(ctx context.Context, batch []record.Record, t trigger) error {
	ctx, cancel := context.WithTimeout(ctx, bp.cfg.ExportTimeout)
	defer cancel()
	stop := context.AfterFunc(bp.exportCtx, cancel)
	defer stop()

	err := bp.exporter.Export(ctx, batch)
	bp.telemetry.recordExport(t, len(batch), err)
	if err != nil {
		bp.failedBatches.Add(1)
		bp.dropped.Add(int64(len(batch)))
		bp.logger.Error("Dropping batch of log records after failed export",
			zap.Int("dropped_records", len(batch)),
			zap.Stringer("result", exporter.ResultOf(err)),
			zap.Stringer("trigger", t),
			zap.Error(err))
		return err
	}
	bp.exported.Add(int64(len(batch)))
	return nil
}
