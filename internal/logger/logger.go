package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
}

// Init installs a JSON logger writing to stderr at the given level
// ("debug", "info", "warn", "error"). Unknown levels mean info.
func Init(level string) {
	InitWriter(os.Stderr, level)
}

func InitWriter(w io.Writer, level string) {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
	current.Store(l)
	slog.SetDefault(l)
}

// Discard silences all output. Tests use it.
func Discard() {
	current.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func Debug(msg string, fields map[string]any) {
	log(slog.LevelDebug, msg, fields)
}

func Info(msg string, fields map[string]any) {
	log(slog.LevelInfo, msg, fields)
}

func Warn(msg string, fields map[string]any) {
	log(slog.LevelWarn, msg, fields)
}

func Error(msg string, fields map[string]any) {
	log(slog.LevelError, msg, fields)
}

func Fatal(msg string, fields map[string]any) {
	log(slog.LevelError, msg, fields)
	os.Exit(1)
}

func log(level slog.Level, msg string, fields map[string]any) {
	l := current.Load()
	if !l.Enabled(context.Background(), level) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.LogAttrs(context.Background(), level, msg, attrs...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
