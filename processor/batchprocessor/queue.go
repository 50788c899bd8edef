// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package batchprocessor // import "github.com/otel-log-samples/logpipeline/processor/batchprocessor"

import "github.com/otel-log-samples/logpipeline/record"

// queue is a fixed capacity FIFO ring of records. It is not safe for
// concurrent use.
type queue struct {
	buf  []record.Record
	head int
	size int
}

func newQueue(capacity int) *queue {
	return &queue{buf: make([]record.Record, capacity)}
}

func (q *queue) len() int { return q.size }

func (q *queue) full() bool { return q.size == len(q.buf) }

// push appends rec. The caller checks full first.
func (q *queue) push(rec record.Record) {
	q.buf[(q.head+q.size)%len(q.buf)] = rec
	q.size++
}

// dropHead discards the oldest record.
func (q *queue) dropHead() {
	if q.size == 0 {
		return
	}
	q.buf[q.head] = record.Record{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
}

// pop removes up to n records from the head and returns them in a newly
// allocated slice.
func (q *queue) pop(n int) []record.Record {
	n = min(n, q.size)
	if n == 0 {
		return nil
	}
	out := make([]record.Record, n)
	for i := range out {
		out[i] = q.buf[q.head]
		q.buf[q.head] = record.Record{}
		q.head = (q.head + 1) % len(q.buf)
	}
	q.size -= n
	return out
}
