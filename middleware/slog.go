package middleware

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// logWriter is where loggers created from configuration write.
var logWriter io.Writer = os.Stderr

// slogLogger adapts a *slog.Logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

// SlogLogger wraps l as a Logger.
func SlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

// NewSlogLogger creates a Logger writing to w. level is one of "debug",
// "info", "warn" or "error" (default "info"); format is "json" or "text".
func NewSlogLogger(w io.Writer, level, format string) Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return SlogLogger(slog.New(handler))
}

func (s *slogLogger) log(level slog.Level, msg string, fields []Field) {
	if !s.l.Enabled(context.Background(), level) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	s.l.LogAttrs(context.Background(), level, msg, attrs...)
}

func (s *slogLogger) Info(msg string, fields ...Field)  { s.log(slog.LevelInfo, msg, fields) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.log(slog.LevelError, msg, fields) }
func (s *slogLogger) Debug(msg string, fields ...Field) { s.log(slog.LevelDebug, msg, fields) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.log(slog.LevelWarn, msg, fields) }
