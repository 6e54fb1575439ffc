package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDefault swaps the default logger for the duration of a test.
func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestContextChaining(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-1")
	ctx = WithStage(ctx, "compose")
	ctx = WithStrategy(ctx, "comprehensive")

	lc := GetContext(ctx)
	assert.Equal(t, "build-1", lc.BuildID)
	assert.Equal(t, "compose", lc.Stage)
	assert.Equal(t, "comprehensive", lc.Strategy)
}

func TestOverwriteContextValue(t *testing.T) {
	ctx := WithStrategy(context.Background(), "comprehensive")
	ctx = WithStrategy(ctx, "degraded")
	assert.Equal(t, "degraded", GetContext(ctx).Strategy)
}

func TestEmptyContext(t *testing.T) {
	assert.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestNewBuildIDIsUUID(t *testing.T) {
	id := NewBuildID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewBuildID())
}

func TestInfoContext(t *testing.T) {
	buf := captureDefault(t)

	ctx := WithBuildID(context.Background(), "build-1")
	ctx = WithStage(ctx, "fallback")
	InfoContext(ctx, "test message", slog.String("extra", "value"))

	out := buf.String()
	for _, want := range []string{`"build.id":"build-1"`, `"stage":"fallback"`, `"extra":"value"`, "test message"} {
		assert.True(t, strings.Contains(out, want), "expected %s in %s", want, out)
	}
}

func TestLevels(t *testing.T) {
	buf := captureDefault(t)
	ctx := WithStrategy(context.Background(), "degraded")

	DebugContext(ctx, "d")
	WarnContext(ctx, "w")
	ErrorContext(ctx, "e")

	out := buf.String()
	assert.Contains(t, out, `"level":"DEBUG"`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Equal(t, 3, strings.Count(out, `"strategy":"degraded"`))
}
