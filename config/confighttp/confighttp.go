// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package confighttp defines the configuration settings to create an HTTP
// client for the OTLP/HTTP exporter.
package confighttp // import "github.com/otel-log-samples/logpipeline/config/confighttp"

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/config/configcompression"
	"github.com/otel-log-samples/logpipeline/config/configtls"
)

const headerContentEncoding = "Content-Encoding"

// ClientConfig defines settings for creating an HTTP client.
type ClientConfig struct {
	// The target URL to send data to (e.g.: http://some.url:9411/v1/traces).
	Endpoint string `mapstructure:"endpoint"`

	// ProxyURL setting for the collector
	ProxyURL string `mapstructure:"proxy_url"`

	// TLS struct exposes TLS client configuration.
	TLS configtls.ClientConfig `mapstructure:"tls"`

	// ReadBufferSize for HTTP client. See http.Transport.ReadBufferSize.
	ReadBufferSize int `mapstructure:"read_buffer_size"`

	// WriteBufferSize for HTTP client. See http.Transport.WriteBufferSize.
	WriteBufferSize int `mapstructure:"write_buffer_size"`

	// Timeout parameter configures `http.Client.Timeout`.
	Timeout time.Duration `mapstructure:"timeout"`

	// Additional headers attached to each HTTP request sent by the client.
	// Existing header values are overwritten if collision happens.
	Headers map[string]string `mapstructure:"headers"`

	// The compression key for supported compression types within collector.
	Compression configcompression.Type `mapstructure:"compression"`

	// MaxIdleConns is used to set a limit to the maximum idle HTTP connections the client can keep open.
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// IdleConnTimeout is the maximum amount of time a connection will remain open before closing itself.
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout"`

	// DisableKeepAlives, if true, disables HTTP keep-alives and will only use the connection to the server
	// for a single HTTP request.
	DisableKeepAlives bool `mapstructure:"disable_keep_alives"`

	// This is needed in case you run into
	// https://github.com/golang/go/issues/59690
	// https://github.com/golang/go/issues/36026
	// HTTP2ReadIdleTimeout if the connection has been idle for the configured value send a ping frame for health check
	// 0s means no health check will be performed.
	HTTP2ReadIdleTimeout time.Duration `mapstructure:"http2_read_idle_timeout"`
	// HTTP2PingTimeout if there's no response to the ping within the configured value, the connection will be closed.
	// If not set or set to 0, it defaults to 15s.
	HTTP2PingTimeout time.Duration `mapstructure:"http2_ping_timeout"`
}

// NewDefaultClientConfig returns ClientConfig type object with
// the default values of 'MaxIdleConns' and 'IdleConnTimeout'.
func NewDefaultClientConfig() ClientConfig {
	defaultTransport := http.DefaultTransport.(*http.Transport)
	return ClientConfig{
		Headers:         map[string]string{},
		Compression:     configcompression.TypeGzip,
		Timeout:         5 * time.Second,
		MaxIdleConns:    defaultTransport.MaxIdleConns,
		IdleConnTimeout: defaultTransport.IdleConnTimeout,
	}
}

func (hcs *ClientConfig) Validate() error {
	if hcs.Endpoint != "" {
		if _, err := url.Parse(hcs.Endpoint); err != nil {
			return fmt.Errorf("invalid endpoint %q: %w", hcs.Endpoint, err)
		}
	}
	if hcs.Timeout < 0 {
		return errors.New("'timeout' must be non-negative")
	}
	if hcs.Compression.IsCompressed() {
		if _, err := newCompressor(hcs.Compression); err != nil {
			return err
		}
	}
	return hcs.TLS.Validate()
}

// ToClient creates an HTTP client.
func (hcs *ClientConfig) ToClient(settings component.TelemetrySettings) (*http.Client, error) {
	settings = component.Sanitize(settings)
	tlsCfg, err := hcs.TLS.LoadTLSConfig()
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}
	if hcs.ReadBufferSize > 0 {
		transport.ReadBufferSize = hcs.ReadBufferSize
	}
	if hcs.WriteBufferSize > 0 {
		transport.WriteBufferSize = hcs.WriteBufferSize
	}
	if hcs.MaxIdleConns > 0 {
		transport.MaxIdleConns = hcs.MaxIdleConns
	}
	if hcs.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = hcs.IdleConnTimeout
	}

	// Setting the Proxy URL
	if hcs.ProxyURL != "" {
		proxyURL, parseErr := url.ParseRequestURI(hcs.ProxyURL)
		if parseErr != nil {
			return nil, parseErr
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	transport.DisableKeepAlives = hcs.DisableKeepAlives

	if hcs.HTTP2ReadIdleTimeout > 0 {
		transport2, transportErr := http2.ConfigureTransports(transport)
		if transportErr != nil {
			return nil, fmt.Errorf("failed to configure http2 transport: %w", transportErr)
		}
		transport2.ReadIdleTimeout = hcs.HTTP2ReadIdleTimeout
		transport2.PingTimeout = hcs.HTTP2PingTimeout
	}

	clientTransport := http.RoundTripper(transport)

	if len(hcs.Headers) > 0 {
		clientTransport = &headerRoundTripper{
			transport: clientTransport,
			headers:   hcs.Headers,
		}
	}

	// Compress the body using specified compression methods if non-empty string is provided.
	// Supporting gzip, zlib, deflate, snappy, zstd and lz4; none is treated as uncompressed.
	if hcs.Compression.IsCompressed() {
		clientTransport, err = newCompressRoundTripper(clientTransport, hcs.Compression)
		if err != nil {
			return nil, err
		}
	}

	clientTransport = otelhttp.NewTransport(
		clientTransport,
		otelhttp.WithTracerProvider(settings.TracerProvider),
		otelhttp.WithMeterProvider(settings.MeterProvider),
	)

	return &http.Client{
		Transport: clientTransport,
		Timeout:   hcs.Timeout,
	}, nil
}

// Custom RoundTripper that adds headers.
type headerRoundTripper struct {
	transport http.RoundTripper
	headers   map[string]string
}

// RoundTrip is a custom RoundTripper that adds headers to the request.
func (interceptor *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// Set Host header if provided
	hostHeader, found := interceptor.headers["Host"]
	if found && hostHeader != "" {
		// `Host` field should be set to override default `Host` header value which is Endpoint
		req.Host = hostHeader
	}
	for k, v := range interceptor.headers {
		req.Header.Set(k, v)
	}

	// Send the request to next transport.
	return interceptor.transport.RoundTrip(req)
}
