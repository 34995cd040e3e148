package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Context keys follow OpenTelemetry attribute naming with an 'advisor.' prefix.
	RequestIDKey       ContextKey = "advisor.request.id"
	SourceFileKey      ContextKey = "advisor.source.file"
	ProcessingStageKey ContextKey = "advisor.processing.stage"
)

// ContextLogger adds request-scoped values from the context to every record.
type ContextLogger struct {
	logger *slog.Logger
}

// NewContextLogger wraps base.
func NewContextLogger(base *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: base}
}

// WithContext returns a logger with context values extracted and added as fields
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	var fields []any
	for _, key := range []ContextKey{RequestIDKey, SourceFileKey, ProcessingStageKey} {
		if v := ctx.Value(key); v != nil {
			fields = append(fields, string(key), v)
		}
	}
	if len(fields) == 0 {
		return cl.logger
	}
	return cl.logger.With(fields...)
}

// WithRequestID adds the inbound request ID to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithSourceFile adds the corpus file being ingested to context.
func WithSourceFile(ctx context.Context, sourceFile string) context.Context {
	return context.WithValue(ctx, SourceFileKey, sourceFile)
}

// WithProcessingStage adds processing stage to context for observability
func WithProcessingStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ProcessingStageKey, stage)
}
