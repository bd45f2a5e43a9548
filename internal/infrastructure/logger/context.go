package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey     contextKey = "logger"
	requestIDKey  contextKey = "request_id"
	residentIDKey contextKey = "resident_id"
)

// WithContext returns a new context carrying logger
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request id and a logger tagged with it.
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithResidentID stores the authenticated resident and a logger tagged with it.
func WithResidentID(ctx context.Context, logger *zap.Logger, residentID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, residentIDKey, residentID)
	enriched := logger.With(zap.String("resident_id", residentID))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID returns the request id stored in ctx
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetResidentID returns the resident id stored in ctx
func GetResidentID(ctx context.Context) string {
	id, _ := ctx.Value(residentIDKey).(string)
	return id
}

// L returns the context logger with trace_id and span_id attached when ctx
// carries a valid span.
//
//	logger.L(ctx).Info("transaction approved", zap.String("transaction_id", id))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
