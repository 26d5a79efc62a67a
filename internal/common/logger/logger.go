package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger writes one JSON object per event, keyed by a machine-readable action.
type Logger struct {
	service string
	h       *slog.Logger
}

func New(service string) *Logger { return NewWithWriter(service, os.Stdout, "info") }

// NewWithWriter is New with an explicit sink and level ("debug", "info", "warn", "error").
func NewWithWriter(service string, w io.Writer, level string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})
	return &Logger{
		service: service,
		h:       slog.New(h).With("service", service, "hostname", hostname()),
	}
}

// Nop discards everything. Handy in tests.
func Nop() *Logger { return NewWithWriter("nop", io.Discard, "error") }

// With returns a child logger for a sub-component.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{service: l.service, h: l.h.With("component", component)}
}

func (l *Logger) log(level slog.Level, action string, fields map[string]any, err error) {
	if l == nil || !l.h.Enabled(context.Background(), level) {
		return
	}
	attrs := make([]any, 0, 2*len(fields)+4)
	attrs = append(attrs, "action", action)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	if err != nil {
		attrs = append(attrs, slog.Group("error", "msg", err.Error(), "type", fmt.Sprintf("%T", err)))
	}
	l.h.Log(context.Background(), level, action, attrs...)
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.log(slog.LevelInfo, action, fields, nil)
}
func (l *Logger) Debug(action string, fields map[string]any) {
	l.log(slog.LevelDebug, action, fields, nil)
}
func (l *Logger) Warn(action string, err error, fields map[string]any) {
	l.log(slog.LevelWarn, action, fields, err)
}
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(slog.LevelError, action, fields, err)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func hostname() string { h, _ := os.Hostname(); return h }
