package log

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLogger(t *testing.T) {
	ctx := context.Background()

	// Test Ctx without a logger in the context
	l1 := Ctx(ctx)
	require.NotNil(t, l1, "Ctx returned nil instead of default logger")
	assert.Equal(t, defaultLogger, l1, "Ctx should return defaultLogger")

	customLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	require.NotEqual(t, defaultLogger, customLogger)

	ctxWithLogger := With(ctx, customLogger)
	l2 := Ctx(ctxWithLogger)
	require.NotNil(t, l2)
	assert.Equal(t, customLogger, l2, "Ctx should return customLogger")
}

func TestOnce(t *testing.T) {
	ctx := context.Background()
	o := NewOnce()

	assert.False(t, o.Warned("soc"))
	o.WarnOnce(ctx, "soc", "soc unavailable")
	assert.True(t, o.Warned("soc"))

	// second call is a no-op but the flag stays set
	o.WarnOnce(ctx, "soc", "soc unavailable")
	assert.True(t, o.Warned("soc"))

	o.Clear("soc")
	assert.False(t, o.Warned("soc"), "Clear should reset the flag")
}
