// Package logger provides structured logging for abook2procmail.
//
// It wraps Go's log/slog. The output, format and level come from
// config.LoggingConfig:
//   - output: "stderr" (default), "stdout", "syslog" or a file path
//   - format: "plain" (default), "console" or "json"
//   - level: "debug", "info", "warn" (default) or "error"
//
// The plain format prints only the message followed by its key/value pairs,
// which is what a user running the tool from a shell wants to read:
//
//	logger.Error("Address book not found", "path", path)
//	// Address book not found path=/home/user/.abook/addressbook
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"log/syslog"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/migadu/abook2procmail/config"
)

var (
	// Global logger instance
	globalLogger *slog.Logger
)

// plainHandler writes "message key=value ..." lines to w.
type plainHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func newPlainHandler(w io.Writer, level slog.Level) *plainHandler {
	return &plainHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
	}
}

func (h *plainHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	msg := formatRecord(r, h.attrs, h.groups)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, msg+"\n")
	return err
}

func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], qualify(attrs, h.groups))
	return &plainHandler{
		mu:     h.mu,
		w:      h.w,
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *plainHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name
	return &plainHandler{
		mu:     h.mu,
		w:      h.w,
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// syslogHandler wraps syslog.Writer to implement slog.Handler
type syslogHandler struct {
	writer *syslog.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func newSyslogHandler(w *syslog.Writer, level slog.Level) *syslogHandler {
	return &syslogHandler{
		writer: w,
		level:  level,
	}
}

func (h *syslogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *syslogHandler) Handle(_ context.Context, r slog.Record) error {
	msg := formatRecord(r, h.attrs, h.groups)

	switch r.Level {
	case slog.LevelDebug:
		return h.writer.Debug(msg)
	case slog.LevelInfo:
		return h.writer.Info(msg)
	case slog.LevelWarn:
		return h.writer.Warning(msg)
	case slog.LevelError:
		return h.writer.Err(msg)
	default:
		return h.writer.Info(msg)
	}
}

func (h *syslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], qualify(attrs, h.groups))
	return &syslogHandler{
		writer: h.writer,
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *syslogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name
	return &syslogHandler{
		writer: h.writer,
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// qualify prefixes attribute keys with the open groups, "a.b.key".
func qualify(attrs []slog.Attr, groups []string) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := strings.Join(groups, ".") + "."
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

func formatRecord(r slog.Record, attrs []slog.Attr, groups []string) string {
	var b strings.Builder
	b.WriteString(r.Message)

	for _, a := range attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
	}
	var recAttrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		recAttrs = append(recAttrs, a)
		return true
	})
	for _, a := range qualify(recAttrs, groups) {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
	}
	return b.String()
}

func newWriterHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	switch format {
	case "json":
		return slog.NewJSONHandler(w, opts)
	case "console":
		return slog.NewTextHandler(w, opts)
	default:
		return newPlainHandler(w, opts.Level.Level())
	}
}

// Initialize sets up the global logger based on configuration. When output
// names a file, the opened file is returned and must be closed by the caller.
func Initialize(cfg config.LoggingConfig) (*os.File, error) {
	var logFile *os.File

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}

	format := cfg.Format
	if format == "" {
		format = "plain"
	}

	level := cfg.Level
	if level == "" {
		level = "warn"
	}
	slogLevel := parseLogLevel(level)

	handlerOpts := &slog.HandlerOptions{
		Level:     slogLevel,
		AddSource: false, // Disabled because wrapper functions report incorrect source locations
	}

	var handler slog.Handler
	var initErr error

	switch output {
	case "stdout":
		handler = newWriterHandler(os.Stdout, format, handlerOpts)

	case "stderr":
		handler = newWriterHandler(os.Stderr, format, handlerOpts)

	case "syslog":
		if runtime.GOOS == "windows" {
			initErr = fmt.Errorf("syslog is not supported on windows, falling back to stderr")
			handler = newWriterHandler(os.Stderr, format, handlerOpts)
			break
		}
		syslogWriter, err := syslog.New(syslog.LOG_INFO|syslog.LOG_MAIL, "abook2procmail")
		if err != nil {
			initErr = fmt.Errorf("failed to connect to syslog, falling back to stderr: %w", err)
			handler = newWriterHandler(os.Stderr, format, handlerOpts)
			break
		}
		handler = newSyslogHandler(syslogWriter, slogLevel)

	default:
		// Assume it's a file path
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			initErr = fmt.Errorf("failed to open log file '%s', falling back to stderr: %w", output, err)
			handler = newWriterHandler(os.Stderr, format, handlerOpts)
			break
		}
		logFile = f
		handler = newWriterHandler(logFile, format, handlerOpts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return logFile, initErr
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Get returns the global logger instance
func Get() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// Info logs an info message with optional key-value pairs
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Debug logs a debug message with optional key-value pairs
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Error logs an error message with optional key-value pairs
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

// Warnf logs a warning message with formatting (compatibility)
func Warnf(format string, args ...any) {
	Get().Warn(fmt.Sprintf(format, args...))
}
