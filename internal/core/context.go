package core

import (
	"context"
	"log/slog"
)

type contextKey string

const ctxKeyCaller contextKey = "caller"

// Caller identifies who triggered a product change. It is added to the
// audit log lines of mutations.
type Caller struct {
	IP        string
	UserAgent string
}

// ContextWithCaller attaches the caller to ctx.
func ContextWithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKeyCaller, c)
}

// CallerFromContext returns the caller stored in ctx, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKeyCaller).(Caller)
	return c, ok
}

// auditLogger returns logger with the caller from ctx attached.
func auditLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	c, ok := CallerFromContext(ctx)
	if !ok {
		return logger
	}
	return logger.With("ip", c.IP, "user_agent", c.UserAgent)
}
