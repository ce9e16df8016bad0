package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// EnsureTraceID ensures the context has a trace ID, generating one if needed
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}

// LoggerWithContext returns the global logger tagged with the trace ID and run ID
// carried by ctx.
func LoggerWithContext(ctx context.Context) *slog.Logger {
	return loggerFor(GetLogger(), ctx)
}

// ContextLogger is LoggerWithContext for an explicit base logger
func ContextLogger(base *slog.Logger, ctx context.Context) *slog.Logger {
	if base == nil {
		base = GetLogger()
	}
	return loggerFor(base, ctx)
}

func loggerFor(logger *slog.Logger, ctx context.Context) *slog.Logger {
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	if runID := GetRunID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With("component", component)
}
