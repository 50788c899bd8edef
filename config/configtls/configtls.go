// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package configtls holds the TLS settings of the exporters' client connections.
package configtls // import "github.com/otel-log-samples/logpipeline/config/configtls"

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config exposes the common client and server TLS configurations.
type Config struct {
	// Path to the CA cert. For a client this verifies the server certificate.
	// If empty uses system root CA.
	// (optional)
	CAFile string `mapstructure:"ca_file"`
	// In memory PEM encoded cert. (optional)
	CAPem string `mapstructure:"ca_pem"`
	// Path to the TLS cert to use for TLS required connections. (optional)
	CertFile string `mapstructure:"cert_file"`
	// In memory PEM encoded TLS cert to use for TLS required connections. (optional)
	CertPem string `mapstructure:"cert_pem"`
	// Path to the TLS key to use for TLS required connections. (optional)
	KeyFile string `mapstructure:"key_file"`
	// In memory PEM encoded TLS key to use for TLS required connections. (optional)
	KeyPem string `mapstructure:"key_pem"`
	// MinVersion sets the minimum TLS version that is acceptable.
	// If not set, TLS 1.2 will be used. (optional)
	MinVersion string `mapstructure:"min_version"`
}

// ClientConfig contains TLS configurations that are specific to client
// connections in addition to the common configurations.
type ClientConfig struct {
	Config `mapstructure:",squash"`

	// In gRPC and HTTP when set to true, this is used to disable the client transport security.
	// (optional, default false)
	Insecure bool `mapstructure:"insecure"`
	// InsecureSkipVerify will enable TLS but not verify the certificate.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
	// ServerName requested by client for virtual hosting.
	// This sets the ServerName in the TLSConfig. Please refer to
	// https://godoc.org/crypto/tls#Config for more information. (optional)
	ServerName string `mapstructure:"server_name_override"`
}

var tlsVersions = map[string]uint16{
	"1.0": tls.VersionTLS10,
	"1.1": tls.VersionTLS11,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

func (c Config) Validate() error {
	if c.CAFile != "" && c.CAPem != "" {
		return errors.New("provide either a CA file or the PEM-encoded string, but not both")
	}
	if c.CertFile != "" && c.CertPem != "" {
		return errors.New("for auth via TLS, provide certificate file or PEM, not both")
	}
	if c.KeyFile != "" && c.KeyPem != "" {
		return errors.New("for auth via TLS, provide key file or PEM, not both")
	}
	if c.hasCert() != c.hasKey() {
		return errors.New("for auth via TLS, provide both certificate and key, or neither")
	}
	if _, err := c.minVersion(); err != nil {
		return err
	}
	return nil
}

func (c Config) hasCert() bool { return c.CertFile != "" || c.CertPem != "" }

func (c Config) hasKey() bool { return c.KeyFile != "" || c.KeyPem != "" }

func (c Config) minVersion() (uint16, error) {
	if c.MinVersion == "" {
		return tls.VersionTLS12, nil
	}
	v, ok := tlsVersions[c.MinVersion]
	if !ok {
		return 0, fmt.Errorf("invalid TLS min_version %q: expecting one of 1.0, 1.1, 1.2, 1.3", c.MinVersion)
	}
	return v, nil
}

// loadTLSConfig loads TLS certificates and returns a tls.Config.
func (c Config) loadTLSConfig() (*tls.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	// There is no need to load the System Certs for RootCAs because
	// if the value is nil, it will default to checking against th System Certs.
	var certPool *x509.CertPool
	switch {
	case c.CAFile != "":
		caPEM, err := os.ReadFile(filepath.Clean(c.CAFile))
		if err != nil {
			return nil, fmt.Errorf("failed to load CA %s: %w", c.CAFile, err)
		}
		if certPool, err = newCertPool(caPEM); err != nil {
			return nil, fmt.Errorf("failed to load CA CertPool File: %w", err)
		}
	case c.CAPem != "":
		var err error
		if certPool, err = newCertPool([]byte(c.CAPem)); err != nil {
			return nil, fmt.Errorf("failed to load CA CertPool PEM: %w", err)
		}
	}

	minVersion, _ := c.minVersion()
	tlsCfg := &tls.Config{
		RootCAs:    certPool,
		MinVersion: minVersion,
	}
	if c.hasCert() {
		cert, err := c.loadCertificate()
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS cert and key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

func (c Config) loadCertificate() (tls.Certificate, error) {
	certPem, keyPem := []byte(c.CertPem), []byte(c.KeyPem)
	var err error
	if c.CertFile != "" {
		if certPem, err = os.ReadFile(filepath.Clean(c.CertFile)); err != nil {
			return tls.Certificate{}, err
		}
	}
	if c.KeyFile != "" {
		if keyPem, err = os.ReadFile(filepath.Clean(c.KeyFile)); err != nil {
			return tls.Certificate{}, err
		}
	}
	return tls.X509KeyPair(certPem, keyPem)
}

func newCertPool(caPEM []byte) (*x509.CertPool, error) {
	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM(caPEM) {
		return nil, errors.New("failed to parse cert")
	}
	return certPool, nil
}

// LoadTLSConfig loads the TLS configuration. It returns nil when Insecure is
// set: the connection is then made in plain text.
func (c ClientConfig) LoadTLSConfig() (*tls.Config, error) {
	if c.Insecure {
		return nil, nil
	}
	tlsCfg, err := c.loadTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS config: %w", err)
	}
	tlsCfg.ServerName = c.ServerName
	tlsCfg.InsecureSkipVerify = c.InsecureSkipVerify //nolint:gosec
	return tlsCfg, nil
}
