package errors

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation error", ValidationError("bad chunk name").Build(), 2},
		{"not found error", NotFoundError("missing manifest").Build(), 3},
		{"config error", ConfigError("bad mode").Build(), 7},
		{"filesystem error", FileSystemError("write failed").Build(), 11},
		{"build error", BuildError("esbuild failed").Build(), 11},
		{"internal error", InternalError("oops").Build(), 10},
		{"unclassified error", errors.New("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	assert.Empty(t, adapter.FormatError(nil))
	assert.Equal(t, "Error: unknown", adapter.FormatError(errors.New("unknown")))
	assert.Equal(t, "Error: bad injection mode", adapter.FormatError(ConfigError("bad injection mode").Build()))
	assert.Equal(t, "Internal error occurred (use -v for details)", adapter.FormatError(InternalError("boom").Build()))
	assert.Equal(t,
		"Error: write init script: disk full",
		adapter.FormatError(WrapError(errors.New("disk full"), CategoryFileSystem, "write init script").Build()))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Equal(t, "[internal:fatal] boom", verbose.FormatError(InternalError("boom").Build()))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("bad mode").WithContext("value", "deferred").Build())

	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: bad mode\n", out.String())
	assert.Contains(t, logs.String(), "category=config")
	assert.Contains(t, logs.String(), "value=deferred")

	code = -1
	adapter.out = io.Discard
	adapter.HandleError(nil)
	assert.Equal(t, -1, code)
}
