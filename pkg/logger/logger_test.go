package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		expect slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expect, parseLevel(tt.input))
		})
	}
}

func TestWriterFor(t *testing.T) {
	assert.Equal(t, os.Stdout, writerFor(""))
	assert.Equal(t, os.Stderr, writerFor("stderr"))

	w := writerFor("/tmp/schedule/app.log")
	lj, ok := w.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, "/tmp/schedule/app.log", lj.Filename)
}

func TestFromContextAddsKnownKeys(t *testing.T) {
	prev := defaultLogger
	t.Cleanup(func() { defaultLogger = prev })

	var buf bytes.Buffer
	SetDefault(New("debug", "json", &buf))

	ctx := WithContext(context.Background(), RequestIDKey, "req-1")
	ctx = WithContext(ctx, OperatorKey, "admin")
	Error(ctx, "write failed", errors.New("disk full"), "attempt", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "write failed", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "admin", entry["operator"])
	assert.Equal(t, "disk full", entry["error"])
	assert.EqualValues(t, 3, entry["attempt"])
}
