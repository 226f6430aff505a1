package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// contextKey is a private type for context keys to prevent collisions
type contextKey int

const loggerKey contextKey = iota

// WithLogger returns a copy of the context with the logger included
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromCtx retrieves the logger from a Go context, falling back to the global one
func FromCtx(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}

// FromContext retrieves the logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok {
		return l
	}
	return FromCtx(c.Request().Context())
}

// SetEcho stores the logger on the Echo context and on the request context,
// so service code called from the handler logs with the same fields.
func SetEcho(c echo.Context, logger *zap.Logger) {
	c.Set("logger", logger)
	c.SetRequest(c.Request().WithContext(WithLogger(c.Request().Context(), logger)))
}
