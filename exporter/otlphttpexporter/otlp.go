// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package otlphttpexporter // import "github.com/otel-log-samples/logpipeline/exporter/otlphttpexporter"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"go.opentelemetry.io/collector/pdata/plog/plogotlp"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/otel-log-samples/logpipeline/component"
	"github.com/otel-log-samples/logpipeline/exporter"
	"github.com/otel-log-samples/logpipeline/exporter/exporterhelper"
	"github.com/otel-log-samples/logpipeline/exporter/exportererror"
	"github.com/otel-log-samples/logpipeline/exporter/internal/otlplogs"
	"github.com/otel-log-samples/logpipeline/record"
)

const (
	headerRetryAfter         = "Retry-After"
	maxHTTPResponseReadBytes = 64 * 1024

	protobufContentType = "application/x-protobuf"
)

var errNotStarted = errors.New("OTLP/HTTP exporter has not been started")

type baseExporter struct {
	// Input configuration.
	config    *Config
	client    *http.Client
	logsURL   string
	logger    *zap.Logger
	settings  component.TelemetrySettings
	userAgent string
}

// NewLogs creates an exporter.Logs posting records to the configured OTLP/HTTP
// logs URL. Retries follow cfg.RetryConfig; each attempt is bounded by the
// HTTP client timeout.
func NewLogs(set component.TelemetrySettings, cfg *Config) (exporter.Logs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logsURL, err := cfg.logsURL()
	if err != nil {
		return nil, err
	}
	set = component.Sanitize(set)
	oce := &baseExporter{
		config:    cfg,
		logsURL:   logsURL,
		logger:    set.Logger,
		settings:  set,
		userAgent: fmt.Sprintf("logpipeline (%s/%s)", runtime.GOOS, runtime.GOARCH),
	}
	return exporterhelper.NewLogs(set, oce.pushLogs,
		exporterhelper.WithStart(oce.start),
		exporterhelper.WithShutdown(oce.shutdown),
		// explicitly disable since we rely on http.Client timeout logic.
		exporterhelper.WithTimeout(exporterhelper.TimeoutConfig{Timeout: 0}),
		exporterhelper.WithRetry(cfg.RetryConfig),
	)
}

// start actually creates the HTTP client.
func (e *baseExporter) start(context.Context) error {
	client, err := e.config.ClientConfig.ToClient(e.settings)
	if err != nil {
		return err
	}
	e.client = client
	return nil
}

func (e *baseExporter) shutdown(context.Context) error {
	if e.client != nil {
		e.client.CloseIdleConnections()
	}
	return nil
}

func (e *baseExporter) pushLogs(ctx context.Context, records []record.Record) error {
	if e.client == nil {
		return exportererror.NewPermanent(errNotStarted)
	}
	tr := plogotlp.NewExportRequestFromLogs(otlplogs.FromRecords(records))
	request, err := tr.MarshalProto()
	if err != nil {
		return exportererror.NewPermanent(err)
	}
	return e.export(ctx, e.logsURL, request)
}

func (e *baseExporter) export(ctx context.Context, url string, request []byte) error {
	e.logger.Debug("Preparing to make HTTP request", zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(request))
	if err != nil {
		return exportererror.NewPermanent(err)
	}
	req.Header.Set("Content-Type", protobufContentType)
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make an HTTP request: %w", err)
	}

	defer func() {
		// Discard any remaining response body when we are done reading.
		_, _ = io.CopyN(io.Discard, resp.Body, maxHTTPResponseReadBytes)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return e.handlePartialSuccessResponse(resp)
	}

	respStatus := readResponseStatus(resp)

	// Format the error message. Use the status if it is present in the response.
	formattedErr := fmt.Errorf(
		"error exporting items, request to %s responded with HTTP Status Code %d",
		url, resp.StatusCode)
	if respStatus != nil {
		formattedErr = fmt.Errorf("%w, Message=%s, Details=%v", formattedErr, respStatus.Message, respStatus.Details)
	}

	if !isRetryableStatusCode(resp.StatusCode) {
		return exportererror.NewPermanent(formattedErr)
	}

	// Check if the server is overwhelmed.
	// See https://github.com/open-telemetry/opentelemetry-proto/blob/main/docs/specification.md#otlphttp-throttling
	isThrottleError := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable
	if val := resp.Header.Get(headerRetryAfter); isThrottleError && val != "" {
		if delay, ok := parseRetryAfter(val, time.Now()); ok {
			return exportererror.NewThrottleRetry(formattedErr, delay)
		}
	}
	return formattedErr
}

// Determine if the status code is retryable according to OTLP.
// For more, see https://github.com/open-telemetry/opentelemetry-proto/blob/main/docs/specification.md#failures-1
func isRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests:
		return true
	case http.StatusBadGateway:
		return true
	case http.StatusServiceUnavailable:
		return true
	case http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// parseRetryAfter accepts both forms of the Retry-After header: a number of
// seconds or an HTTP date.
func parseRetryAfter(val string, now time.Time) (time.Duration, bool) {
	if seconds, err := strconv.Atoi(val); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if t, err := http.ParseTime(val); err == nil {
		if d := t.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength == 0 {
		return nil, nil
	}

	maxRead := resp.ContentLength

	// if maxRead == -1, the ContentLength header has not been sent, so read up to
	// the maximum permitted body size. If it is larger than the permitted body
	// size, still try to read from the body in case the value is an error. If the
	// body is larger than the maximum size, proto unmarshaling will likely fail.
	if maxRead == -1 || maxRead > maxHTTPResponseReadBytes {
		maxRead = maxHTTPResponseReadBytes
	}
	protoBytes := make([]byte, maxRead)
	n, err := io.ReadFull(resp.Body, protoBytes)

	// No bytes read and an EOF error indicates there is no body to read.
	if n == 0 && (err == nil || errors.Is(err, io.EOF)) {
		return nil, nil
	}

	// io.ReadFull will return io.ErrorUnexpectedEOF if the Content-Length header
	// wasn't set, since we will try to read past the length of the body. If this
	// is the case, the body will still have the full message in it, so we want to
	// ignore the error and parse the message.
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}

	return protoBytes[:n], nil
}

// Read the response and decode the status.Status from the body.
// Returns nil if the response is empty or cannot be decoded.
func readResponseStatus(resp *http.Response) *status.Status {
	var respStatus *status.Status
	if resp.StatusCode >= 400 && resp.StatusCode <= 599 {
		// Request failed. Read the body. OTLP/HTTP says:
		// "Response body for all HTTP 4xx and HTTP 5xx responses MUST be a
		// Protobuf-encoded Status message that describes the problem."
		respBytes, err := readResponseBody(resp)
		if err != nil {
			return nil
		}

		// Decode it as Status struct. See https://github.com/open-telemetry/opentelemetry-specification/blob/main/specification/protocol/otlp.md#failures
		respStatus = &status.Status{}
		err = proto.Unmarshal(respBytes, respStatus)
		if err != nil {
			return nil
		}
	}

	return respStatus
}

func (e *baseExporter) handlePartialSuccessResponse(resp *http.Response) error {
	bodyBytes, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if len(bodyBytes) == 0 || resp.Header.Get("Content-Type") != protobufContentType {
		return nil
	}

	exportResponse := plogotlp.NewExportResponse()
	if err = exportResponse.UnmarshalProto(bodyBytes); err != nil {
		return err
	}
	partialSuccess := exportResponse.PartialSuccess()
	if partialSuccess.ErrorMessage() != "" || partialSuccess.RejectedLogRecords() != 0 {
		e.logger.Warn("Partial success response",
			zap.String("message", partialSuccess.ErrorMessage()),
			zap.Int64("dropped_log_records", partialSuccess.RejectedLogRecords()),
		)
	}
	return nil
}
