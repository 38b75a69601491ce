package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingHandler accepts every record and refuses to store it.
type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

// decodeLines parses one JSON record per line.
func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		out = append(out, rec)
	}
	return out
}

func TestMultiHandler_RunScope(t *testing.T) {
	var console, file bytes.Buffer
	multi := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&console, nil),
		slog.NewJSONHandler(&file, nil),
	}}

	logger := slog.New(multi).With("run_id", "run-7", "action", "bench")
	logger.WithGroup("phase").Info("phase finished", "name", "build", "seconds", 12)

	for _, out := range []*bytes.Buffer{&console, &file} {
		recs := decodeLines(t, out.Bytes())
		require.Len(t, recs, 1)
		assert.Equal(t, "run-7", recs[0]["run_id"])
		assert.Equal(t, "bench", recs[0]["action"])
		assert.Equal(t, map[string]any{"name": "build", "seconds": float64(12)}, recs[0]["phase"])
	}
}

func TestMultiHandler_Enabled(t *testing.T) {
	quiet := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
	verbose := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})

	assert.True(t, (&multiHandler{handlers: []slog.Handler{quiet, verbose}}).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, (&multiHandler{handlers: []slog.Handler{quiet}}).Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_HandleError(t *testing.T) {
	var console bytes.Buffer
	multi := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&console, nil),
		failingHandler{slog.NewJSONHandler(io.Discard, nil)},
	}}

	rec := slog.NewRecord(time.Now(), slog.LevelWarn, "server slow to start", 0)
	err := multi.Handle(context.Background(), rec)
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, console.String(), "server slow to start")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "info", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "trace", want: slog.LevelDebug},
		{in: "warn", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("Level filter", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(slog.LevelWarn, "", &buf)

		logger.Info("quiet message")
		logger.Warn("loud message")

		assert.NotContains(t, buf.String(), "quiet message")
		assert.Contains(t, buf.String(), "loud message")
	})

	t.Run("File logging", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "skyreport.log")
		var buf bytes.Buffer

		logger := NewLogger(slog.LevelInfo, path, &buf)
		logger.Info("file message", "run_id", "r1")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "file message")
		assert.Contains(t, buf.String(), "file message")

		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &record))
		assert.Equal(t, "r1", record["run_id"])
	})

	t.Run("No handlers", func(t *testing.T) {
		logger := NewLogger(slog.LevelInfo, "", nil)
		assert.NotNil(t, logger)
		logger.Info("this goes to dev/null")
	})
}

func TestNewLogger_FileError(t *testing.T) {
	originalLogger := slog.Default()
	defer slog.SetDefault(originalLogger)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	invalidPath := filepath.Join(t.TempDir(), "nonexistent/test.log")
	logger := NewLogger(slog.LevelInfo, invalidPath, io.Discard)
	assert.NotNil(t, logger)

	output := buf.String()
	assert.True(t, strings.Contains(output, "Failed to open log file"), "Expected log file error message, got: "+output)
}
