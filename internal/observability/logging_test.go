package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestContextValues(t *testing.T) {
	ctx := WithStage(WithRunID(context.Background(), "run-1"), "write")

	lc := GetContext(ctx)
	assert.Equal(t, "run-1", lc.RunID)
	assert.Equal(t, "write", lc.Stage)
	assert.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestLoggingIncludesContext(t *testing.T) {
	buf := captureLogs(t)
	ctx := WithStage(WithRunID(context.Background(), "run-42"), "generate")

	InfoContext(ctx, "generated", slog.String("chunk", "index"))
	DebugContext(ctx, "debug line")
	WarnContext(context.Background(), "no context")
	ErrorContext(ctx, "failed")

	out := buf.String()
	assert.Contains(t, out, "run_id=run-42")
	assert.Contains(t, out, "stage=generate")
	assert.Contains(t, out, "chunk=index")
	assert.Contains(t, out, "msg=\"debug line\"")
	assert.Contains(t, out, "level=WARN msg=\"no context\"")
	assert.Contains(t, out, "level=ERROR")
}
