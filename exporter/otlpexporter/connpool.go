// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package otlpexporter // import "github.com/otel-log-samples/logpipeline/exporter/otlpexporter"

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/collector/pdata/plog/plogotlp"
	"go.uber.org/multierr"
	"google.golang.org/grpc"
)

type dialFunc func(ctx context.Context) (*grpc.ClientConn, error)

// logsClients spreads exports round-robin over long-lived gRPC connections,
// each wrapped once in an OTLP logs client.
type logsClients struct {
	conns   []*grpc.ClientConn
	clients []plogotlp.GRPCClient
	next    atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// dialLogsClients opens n connections, at least one. If a dial fails, the
// connections already open are closed.
func dialLogsClients(ctx context.Context, n int, dial dialFunc) (*logsClients, error) {
	n = max(n, 1)
	lc := &logsClients{
		conns:   make([]*grpc.ClientConn, 0, n),
		clients: make([]plogotlp.GRPCClient, 0, n),
	}
	for len(lc.conns) < n {
		conn, err := dial(ctx)
		if err != nil {
			return nil, multierr.Append(err, lc.close())
		}
		lc.conns = append(lc.conns, conn)
		lc.clients = append(lc.clients, plogotlp.NewGRPCClient(conn))
	}
	return lc, nil
}

func (lc *logsClients) nextIndex() int {
	if len(lc.clients) == 1 {
		return 0
	}
	return int(lc.next.Add(1) % uint64(len(lc.clients)))
}

// pick returns the client for the next export.
func (lc *logsClients) pick() plogotlp.GRPCClient {
	return lc.clients[lc.nextIndex()]
}

// close closes the connections. Later calls return the first result.
func (lc *logsClients) close() error {
	lc.closeOnce.Do(func() {
		for _, conn := range lc.conns {
			lc.closeErr = multierr.Append(lc.closeErr, conn.Close())
		}
	})
	return lc.closeErr
}
