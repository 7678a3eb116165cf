package log

import (
	"context"
	"log/slog"
	"os"
)

var (
	defaultLogLevel slog.LevelVar
	defaultLogger   = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     &defaultLogLevel,
	}))
)

func init() {
	defaultLogLevel.Set(slog.LevelInfo)
}

type contextKey struct{}

var loggerKey = contextKey{}

// Ctx returns the logger from the context. If no logger is found, it returns the default logger.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a new context with the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// SetDefaultLogLevel sets the level of the package default logger.
func SetDefaultLogLevel(level slog.Level) {
	defaultLogLevel.Set(level)
}

// Once wraps a logger so that repeating conditions are only logged the first
// time they occur. The control loop uses this for sensor-unavailable warnings
// which would otherwise fire every monitoring tick.
type Once struct {
	warned map[string]bool
}

// NewOnce returns a Once with no conditions logged yet.
func NewOnce() *Once {
	return &Once{warned: make(map[string]bool)}
}

// WarnOnce logs msg at warn level the first time key is seen. Subsequent
// calls with the same key are dropped until Clear is called for it.
func (o *Once) WarnOnce(ctx context.Context, key, msg string, args ...any) {
	if o.warned[key] {
		return
	}
	o.warned[key] = true
	Ctx(ctx).WarnContext(ctx, msg, args...)
}

// Clear resets the warned flag for key, typically when the condition
// recovers, so a later recurrence is logged again.
func (o *Once) Clear(key string) {
	delete(o.warned, key)
}

// Warned reports whether key has already been logged.
func (o *Once) Warned(key string) bool {
	return o.warned[key]
}
