package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutWritesJSONCopy(t *testing.T) {
	t.Parallel()
	var out, file bytes.Buffer
	log := New(&out, &file, Options{Level: "debug", Format: "text"})

	log.Debug("conversation created", slog.String("cid", "abcd1234"))

	assert.Contains(t, out.String(), "cid=abcd1234")
	var record map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &record))
	assert.Equal(t, "conversation created", record["msg"])
	assert.Equal(t, "abcd1234", record["cid"])
}

func TestLevelFiltersBothOutputs(t *testing.T) {
	t.Parallel()
	var out, file bytes.Buffer
	log := New(&out, &file, Options{Level: "warn", Format: "json"})

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"msg":"shown"`)
	assert.Equal(t, 1, strings.Count(file.String(), "\n"))
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "searcharr.log")
	closeFn, err := Init(Options{Level: "info", File: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	Info("hello", "key", "value")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"key":"value"`)
}

func TestContextLogger(t *testing.T) {
	t.Parallel()
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)).With("request_id", "12345")

	ctx := WithContext(context.Background(), custom)
	assert.Same(t, custom, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), tt.input)
	}
}
