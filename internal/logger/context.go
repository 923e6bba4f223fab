package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger attaches l to ctx.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return For(ctx, zap.NewNop())
}

// For returns the request-scoped logger when ctx carries one, base otherwise.
func For(ctx context.Context, base *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return base
}

// WithFields returns a context whose logger carries the extra fields.
func WithFields(ctx context.Context, base *zap.Logger, fields ...zap.Field) context.Context {
	return ContextWithLogger(ctx, For(ctx, base).With(fields...))
}
