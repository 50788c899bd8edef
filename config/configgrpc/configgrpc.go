// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package configgrpc defines the configuration settings to create
// a gRPC client connection.
package configgrpc // import "github.com/otel-log-samples/logpipeline/config/configgrpc"

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding/gzip"
	"google.golang.org/grpc/keepalive"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/config/configcompression"
	"github.com/otel-log-samples/logpipeline/config/configgrpc/internal"
	"github.com/otel-log-samples/logpipeline/config/configtls"
)

// DefaultEndpoint is the OTLP/gRPC port of a local collector.
const DefaultEndpoint = "localhost:4317"

// KeepaliveClientConfig exposes the keepalive.ClientParameters to be used by the exporter.
// Refer to the original data-structure for the meaning of each parameter:
// https://godoc.org/google.golang.org/grpc/keepalive#ClientParameters
type KeepaliveClientConfig struct {
	Time                time.Duration `mapstructure:"time"`
	Timeout             time.Duration `mapstructure:"timeout"`
	PermitWithoutStream bool          `mapstructure:"permit_without_stream"`
}

// NewDefaultKeepaliveClientConfig returns a new instance of KeepaliveClientConfig with default values.
func NewDefaultKeepaliveClientConfig() *KeepaliveClientConfig {
	return &KeepaliveClientConfig{
		Time:    10 * time.Second,
		Timeout: 10 * time.Second,
	}
}

// ClientConfig defines common settings for a gRPC client configuration.
type ClientConfig struct {
	// The target to which the exporter is going to send logs,
	// using the gRPC protocol. The valid syntax is described at
	// https://github.com/grpc/grpc/blob/master/doc/naming.md.
	// An http:// or https:// prefix is accepted and stripped; http:// implies
	// a plain text connection.
	Endpoint string `mapstructure:"endpoint"`

	// The compression key for supported compression types within collector.
	Compression configcompression.Type `mapstructure:"compression"`

	// TLS struct exposes TLS client configuration.
	TLS configtls.ClientConfig `mapstructure:"tls"`

	// The keepalive parameters for gRPC client. See grpc.WithKeepaliveParams.
	// (https://godoc.org/google.golang.org/grpc#WithKeepaliveParams).
	Keepalive *KeepaliveClientConfig `mapstructure:"keepalive"`

	// ReadBufferSize for gRPC client. See grpc.WithReadBufferSize.
	// (https://godoc.org/google.golang.org/grpc#WithReadBufferSize).
	ReadBufferSize int `mapstructure:"read_buffer_size"`

	// WriteBufferSize for gRPC gRPC. See grpc.WithWriteBufferSize.
	// (https://godoc.org/google.golang.org/grpc#WithWriteBufferSize).
	WriteBufferSize int `mapstructure:"write_buffer_size"`

	// WaitForReady parameter configures client to wait for ready state before sending data.
	// (https://github.com/grpc/grpc/blob/master/doc/wait-for-ready.md)
	WaitForReady bool `mapstructure:"wait_for_ready"`

	// The headers associated with gRPC requests.
	Headers map[string]string `mapstructure:"headers"`

	// Sets the balancer in grpclb_policy to discover the servers. Default is pick_first.
	// https://github.com/grpc/grpc-go/blob/master/examples/features/load_balancing/README.md
	BalancerName string `mapstructure:"balancer_name"`

	// WithAuthority parameter configures client to rewrite ":authority" header
	// (godoc.org/google.golang.org/grpc#WithAuthority)
	Authority string `mapstructure:"authority"`
}

// NewDefaultClientConfig returns a new instance of ClientConfig with default values.
func NewDefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint:    DefaultEndpoint,
		Compression: configcompression.TypeGzip,
		Keepalive:   NewDefaultKeepaliveClientConfig(),
	}
}

// Validate checks the settings are usable to open a connection.
func (gcs *ClientConfig) Validate() error {
	if strings.TrimSpace(gcs.SanitizedEndpoint()) == "" {
		return errors.New(`requires a non-empty "endpoint"`)
	}
	if gcs.BalancerName != "" && gcs.BalancerName != "pick_first" && gcs.BalancerName != "round_robin" {
		return fmt.Errorf("invalid balancer_name: %s", gcs.BalancerName)
	}
	if err := validateCompression(gcs.Compression); err != nil {
		return err
	}
	if gcs.ReadBufferSize < 0 {
		return errors.New("'read_buffer_size' must be non-negative")
	}
	if gcs.WriteBufferSize < 0 {
		return errors.New("'write_buffer_size' must be non-negative")
	}
	return gcs.TLS.Validate()
}

func validateCompression(ct configcompression.Type) error {
	if !ct.IsCompressed() {
		return nil
	}
	switch ct {
	case configcompression.TypeGzip, configcompression.TypeZstd, configcompression.TypeSnappy:
		return nil
	}
	return fmt.Errorf("unsupported compression type %q for gRPC", ct)
}

// SanitizedEndpoint returns the endpoint without its http:// or https:// scheme.
func (gcs *ClientConfig) SanitizedEndpoint() string {
	switch {
	case gcs.isSchemeHTTP():
		return strings.TrimPrefix(gcs.Endpoint, "http://")
	case gcs.isSchemeHTTPS():
		return strings.TrimPrefix(gcs.Endpoint, "https://")
	default:
		return gcs.Endpoint
	}
}

func (gcs *ClientConfig) isSchemeHTTP() bool {
	return strings.HasPrefix(gcs.Endpoint, "http://")
}

func (gcs *ClientConfig) isSchemeHTTPS() bool {
	return strings.HasPrefix(gcs.Endpoint, "https://")
}

// ToClientConn creates a client connection to the given target. By default, it's
// a non-blocking dial (the function won't wait for connections to be
// established, and connecting happens in the background).
func (gcs *ClientConfig) ToClientConn(_ context.Context, settings component.TelemetrySettings, extraOpts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts, err := gcs.getGrpcDialOptions(component.Sanitize(settings))
	if err != nil {
		return nil, err
	}
	opts = append(opts, extraOpts...)
	return grpc.NewClient(gcs.SanitizedEndpoint(), opts...)
}

func (gcs *ClientConfig) getGrpcDialOptions(settings component.TelemetrySettings) ([]grpc.DialOption, error) {
	var opts []grpc.DialOption
	if gcs.Compression.IsCompressed() {
		if err := validateCompression(gcs.Compression); err != nil {
			return nil, err
		}
		cp := string(gcs.Compression)
		switch gcs.Compression {
		case configcompression.TypeGzip:
			cp = gzip.Name
		case configcompression.TypeZstd:
			cp = internal.ZstdName
		case configcompression.TypeSnappy:
			cp = internal.SnappyName
		}
		opts = append(opts, grpc.WithDefaultCallOptions(grpc.UseCompressor(cp)))
	}

	tlsCfg, err := gcs.TLS.LoadTLSConfig()
	if err != nil {
		return nil, err
	}
	cred := insecure.NewCredentials()
	if tlsCfg != nil && !gcs.isSchemeHTTP() {
		cred = credentials.NewTLS(tlsCfg)
	}
	opts = append(opts, grpc.WithTransportCredentials(cred))

	if gcs.ReadBufferSize > 0 {
		opts = append(opts, grpc.WithReadBufferSize(gcs.ReadBufferSize))
	}
	if gcs.WriteBufferSize > 0 {
		opts = append(opts, grpc.WithWriteBufferSize(gcs.WriteBufferSize))
	}

	if gcs.Keepalive != nil {
		keepAliveOption := grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                gcs.Keepalive.Time,
			Timeout:             gcs.Keepalive.Timeout,
			PermitWithoutStream: gcs.Keepalive.PermitWithoutStream,
		})
		opts = append(opts, keepAliveOption)
	}

	if gcs.Authority != "" {
		opts = append(opts, grpc.WithAuthority(gcs.Authority))
	}

	if gcs.BalancerName != "" {
		opts = append(opts, grpc.WithDefaultServiceConfig(fmt.Sprintf(`{"loadBalancingPolicy":%q}`, gcs.BalancerName)))
	}

	if gcs.WaitForReady {
		opts = append(opts, grpc.WithDefaultCallOptions(grpc.WaitForReady(true)))
	}

	opts = append(opts, grpc.WithStatsHandler(otelgrpc.NewClientHandler(
		otelgrpc.WithTracerProvider(settings.TracerProvider),
		otelgrpc.WithMeterProvider(settings.MeterProvider),
	)))

	return opts, nil
}
