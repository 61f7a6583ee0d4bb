package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/migadu/abook2procmail/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useWriter points the global logger at w the way Initialize does for a file.
func useWriter(t *testing.T, w io.Writer, format, level string) {
	t.Helper()
	globalLogger = slog.New(newWriterHandler(w, format, &slog.HandlerOptions{Level: parseLogLevel(level)}))
	slog.SetDefault(globalLogger)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelWarn,
		"bogus":   slog.LevelWarn,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), "level %q", in)
	}
}

func TestPlainHandler(t *testing.T) {
	var buf bytes.Buffer
	useWriter(t, &buf, "plain", "warn")

	Info("hidden")
	Error("Address book not found", "path", "/tmp/missing")

	assert.Equal(t, "Address book not found path=/tmp/missing\n", buf.String())
}

func TestPlainHandler_WithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newPlainHandler(&buf, slog.LevelDebug))

	l.With("path", "rc").WithGroup("rules").Debug("Wrote rule file", "count", 3)

	assert.Equal(t, "Wrote rule file path=rc rules.count=3\n", buf.String())
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	useWriter(t, &buf, "json", "debug")

	Debug("Extracted addresses", "count", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Extracted addresses", entry["msg"])
	assert.Equal(t, "DEBUG", entry["level"])
	assert.EqualValues(t, 2, entry["count"])
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	useWriter(t, &buf, "console", "info")

	Get().With("path", "/tmp/rc").Info("Wrote rule file")

	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), `msg="Wrote rule file"`)
	assert.Contains(t, buf.String(), "path=/tmp/rc")
}

func TestInitialize_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abook2procmail.log")

	f, err := Initialize(config.LoggingConfig{Output: path, Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, f)

	Info("Wrote rule file", "conditions", 4)
	Debug("not written")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Wrote rule file conditions=4\n", string(data))
}

func TestInitialize_UnopenableFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "log")

	f, err := Initialize(config.LoggingConfig{Output: path})
	assert.Nil(t, f)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "falling back to stderr"))
	assert.NotNil(t, Get())
}
