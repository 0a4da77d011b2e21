package logger

import (
	"context"

	apperrors "github.com/renderdragon/backend/internal/errors"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// WithRequestID stores the request ID used in log lines and error bodies
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return apperrors.WithRequestID(ctx, requestID)
}

// WithTraceID stores a caller-supplied trace ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace ID stored in ctx, if any
func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}
