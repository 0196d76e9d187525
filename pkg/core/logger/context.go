package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

// With attaches log to ctx.
func With(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// Get returns the logger attached to ctx, or the global logger.
func Get(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(contextKey{}).(*zap.Logger); ok && log != nil {
			return log
		}
	}
	return zap.L()
}
