// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package internal // import "github.com/otel-log-samples/logpipeline/cmd/logsample/internal"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/otel-log-samples/logpipeline/bridge/otelslog"
	"github.com/otel-log-samples/logpipeline/bridge/otelzap"
	"github.com/otel-log-samples/logpipeline/service"
	"github.com/otel-log-samples/logpipeline/translator"
)

const scopeName = "github.com/otel-log-samples/logpipeline/cmd/logsample"

var errPaymentDeclined = errors.New("payment declined: insufficient funds")

type scenario struct {
	name string
	run  func(*sampleApp, context.Context) error
}

var scenarios = []scenario{
	{name: "basic", run: (*sampleApp).basicLogging},
	{name: "parameterized", run: (*sampleApp).parameterizedLogging},
	{name: "structured", run: (*sampleApp).structuredLogging},
	{name: "trace", run: (*sampleApp).traceContextLogging},
	{name: "errors", run: (*sampleApp).errorLogging},
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.name)
	}
	return names
}

func selectScenarios(names []string) ([]scenario, error) {
	selected := make([]scenario, 0, len(names))
	for _, name := range names {
		found := false
		for _, s := range scenarios {
			if s.name == name {
				selected = append(selected, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown scenario %q, available: %v", name, scenarioNames())
		}
	}
	return selected, nil
}

// sampleApp writes every log both to out and to the pipeline.
type sampleApp struct {
	logger    *zap.Logger
	slog      *slog.Logger
	tracer    trace.Tracer
	workDelay time.Duration
}

func newSampleApp(out io.Writer, srv *service.Service, workDelay time.Duration) *sampleApp {
	ws := zapcore.Lock(zapcore.AddSync(out))
	console := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), ws, zapcore.DebugLevel)
	pipeline := otelzap.NewCore(srv.LoggerProvider(),
		otelzap.WithScope(scopeName, version),
		otelzap.WithTranslator(srv.Translator()),
	)

	handler := otelslog.Fanout(
		slog.NewTextHandler(ws, &slog.HandlerOptions{Level: slog.LevelDebug}),
		otelslog.NewHandler(srv.LoggerProvider(),
			otelslog.WithScope(scopeName, version),
			otelslog.WithTranslator(srv.Translator()),
		),
	)

	return &sampleApp{
		logger:    zap.New(zapcore.NewTee(console, pipeline), zap.AddCaller()).Named("logsample"),
		slog:      slog.New(handler),
		tracer:    srv.TracerProvider().Tracer(scopeName, trace.WithInstrumentationVersion(version)),
		workDelay: workDelay,
	}
}

func (a *sampleApp) run(ctx context.Context, selected []scenario) error {
	a.logger.Info("Log sample started", zap.Strings("scenarios", namesOf(selected)))
	for _, s := range selected {
		if err := s.run(a, ctx); err != nil {
			return fmt.Errorf("scenario %q: %w", s.name, err)
		}
	}
	a.logger.Info("Log sample completed")
	return nil
}

func namesOf(selected []scenario) []string {
	names := make([]string, 0, len(selected))
	for _, s := range selected {
		names = append(names, s.name)
	}
	return names
}

// work stands in for the time a real operation takes.
func (a *sampleApp) work(ctx context.Context) error {
	if a.workDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.workDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *sampleApp) basicLogging(ctx context.Context) error {
	a.logger.Info("--- basic logging ---")
	a.logger.Debug("DEBUG level: diagnostic details")
	a.logger.Info("INFO level: general information")
	a.logger.Warn("WARN level: something needs attention")
	a.logger.Error("ERROR level: an operation failed")

	a.slog.DebugContext(ctx, "slog DEBUG level")
	a.slog.InfoContext(ctx, "slog INFO level")
	a.slog.WarnContext(ctx, "slog WARN level")
	a.slog.ErrorContext(ctx, "slog ERROR level")
	return nil
}

func (a *sampleApp) parameterizedLogging(ctx context.Context) error {
	a.logger.Info("--- parameterized logging ---")
	sugar := a.logger.Sugar()
	sugar.Infof("User logged in: name=%s, id=%d", "alice", 12345)
	sugar.Infow("Cart updated", "cart_id", "cart_42", "items", 3, "total", 59.90)
	a.slog.InfoContext(ctx, fmt.Sprintf("Inventory reserved: sku=%s, quantity=%d", "prod_001", 2))
	return nil
}

func (a *sampleApp) structuredLogging(ctx context.Context) error {
	a.logger.Info("--- structured logging ---")
	ctx = translator.ContextWithAttributes(ctx,
		attribute.String("user_id", "user_12345"),
		attribute.String("session_id", "sess_abc123"),
		attribute.String("request_id", uuid.NewString()),
	)

	a.logger.Info("User login",
		otelzap.Context(ctx),
		zap.String("user_name", "alice"),
		zap.String("operation", "login"),
	)
	a.logger.Info("Order accepted",
		otelzap.Context(ctx),
		zap.Any("order", map[string]any{
			"order_id": "ord_555666",
			"customer": map[string]any{
				"id":   "cust_777",
				"tier": "gold",
			},
			"items": []any{
				map[string]any{"product_id": "prod_001", "quantity": 2, "price": 2500},
				map[string]any{"product_id": "prod_002", "quantity": 1, "price": 10000},
			},
			"shipping_address": map[string]any{
				"city":    "Tokyo",
				"country": "JP",
			},
			"total_amount": 15000,
		}),
	)
	a.slog.InfoContext(ctx, "Payment transaction completed",
		"transaction_id", "tx_987654321",
		"amount", 15000,
		"currency", "JPY",
		"payment_method", "credit_card",
		slog.Group("merchant", "id", "merchant_001", "category", "retail"),
		"processing_time", 245*time.Millisecond,
		"success", true,
	)
	return nil
}

func (a *sampleApp) traceContextLogging(ctx context.Context) error {
	a.logger.Info("--- trace context logging ---")
	ctx, span := a.tracer.Start(ctx, "user_registration_process",
		trace.WithAttributes(
			attribute.String("user.id", "user_999"),
			attribute.String("operation.type", "user_registration"),
		),
	)
	defer span.End()

	a.logger.Info("User registration started", otelzap.Context(ctx))
	for _, step := range []func(context.Context) error{a.validateUserInput, a.verifyEmail, a.saveUser, a.sendWelcomeEmail} {
		if err := step(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			a.logger.Error("User registration failed", otelzap.Context(ctx), zap.Error(err))
			return err
		}
	}
	span.SetAttributes(attribute.String("registration.status", "completed"))
	a.logger.Info("User registration completed", otelzap.Context(ctx), zap.String("user_id", "user_999"))
	return nil
}

func (a *sampleApp) validateUserInput(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "validate_user_input")
	defer span.End()
	a.logger.Debug("Validating user input",
		otelzap.Context(ctx),
		zap.String("email", "user@example.com"),
		zap.String("validation_rule", "RFC5322"),
	)
	if err := a.work(ctx); err != nil {
		return err
	}
	span.SetAttributes(attribute.Bool("validation.passed", true))
	a.logger.Info("User input is valid", otelzap.Context(ctx))
	return nil
}

func (a *sampleApp) verifyEmail(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "email_verification", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	a.logger.Info("Email verification request sent", otelzap.Context(ctx), zap.String("verification_service", "email-verifier"))
	start := time.Now()
	if err := a.work(ctx); err != nil {
		return err
	}
	span.SetAttributes(semconv.HTTPResponseStatusCode(200))
	a.logger.Info("Email verification completed",
		otelzap.Context(ctx),
		zap.Int("response_code", 200),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

func (a *sampleApp) saveUser(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "save_to_database",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBOperationName("INSERT"),
			semconv.DBCollectionName("users"),
		),
	)
	defer span.End()
	a.logger.Debug("Saving user to the database", otelzap.Context(ctx), zap.String("table", "users"))
	if err := a.work(ctx); err != nil {
		return err
	}
	a.logger.Info("User saved", otelzap.Context(ctx), zap.Int("rows_affected", 1))
	return nil
}

func (a *sampleApp) sendWelcomeEmail(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "send_welcome_email", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	if err := a.work(ctx); err != nil {
		return err
	}
	a.slog.InfoContext(ctx, "Welcome email queued", "template", "welcome_v2", "recipient", "user@example.com")
	return nil
}

func (a *sampleApp) errorLogging(ctx context.Context) error {
	a.logger.Info("--- error logging ---")
	vctx, span := a.tracer.Start(ctx, "order_validation")
	if _, err := parseQuantity("twelve"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid order")
		a.logger.Error("Order validation failed",
			otelzap.Context(vctx),
			zap.String("order_id", "ord_555666"),
			zap.Error(err),
		)
	}
	span.End()

	return a.processPayment(ctx)
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return n, nil
}

func (a *sampleApp) processPayment(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "payment_processing",
		trace.WithAttributes(
			attribute.String("payment.id", "pay_123456"),
			attribute.Int("payment.amount", 50000),
		),
	)
	defer span.End()

	a.slog.InfoContext(ctx, "Payment processing started", "payment_id", "pay_123456", "amount", 50000)
	err := a.callPaymentGateway(ctx)
	switch {
	case errors.Is(err, errPaymentDeclined):
		span.SetStatus(codes.Error, err.Error())
		a.slog.ErrorContext(ctx, "Payment processing failed",
			"payment_id", "pay_123456",
			"amount", 50000,
			"error", err,
		)
		return nil
	case err != nil:
		return err
	}
	a.slog.InfoContext(ctx, "Payment processed", "payment_id", "pay_123456")
	return nil
}

func (a *sampleApp) callPaymentGateway(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "call_payment_gateway", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	a.slog.DebugContext(ctx, "Calling payment gateway", "gateway", "stripe")
	if err := a.work(ctx); err != nil {
		return err
	}
	span.RecordError(errPaymentDeclined)
	span.SetStatus(codes.Error, errPaymentDeclined.Error())
	a.slog.WarnContext(ctx, "Payment gateway declined the request", "reason", "insufficient_funds")
	return errPaymentDeclined
}
