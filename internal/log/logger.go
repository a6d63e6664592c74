package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	once   sync.Once
	logger atomic.Pointer[slog.Logger]
)

// ParseLevel maps a level name to a slog level.
// logic: default to WARN. If level is invalid, fallback to WARN.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "TRACE":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Setup initializes the global logger on stderr. Format "json" selects the
// JSON handler, anything else the text handler.
func Setup(level, format string) {
	once.Do(func() {
		l := newLogger(os.Stderr, level, format)
		if logger.CompareAndSwap(nil, l) {
			slog.SetDefault(l)
		}
	})
}

// SetupWriter replaces the global logger with one writing to w. Unlike Setup
// it may be called repeatedly.
func SetupWriter(w io.Writer, level, format string) *slog.Logger {
	l := newLogger(w, level, format)
	logger.Store(l)
	return l
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Get returns the configured logger, or a default one if Setup hasn't been called.
func Get() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	Setup("WARN", "text")
	return logger.Load()
}

// WithComponent returns a logger with the component field set.
func WithComponent(name string) *slog.Logger {
	return Get().With(slog.String("component", name))
}

// WithWorkspace returns a logger with the workspace_id field set.
func WithWorkspace(id string) *slog.Logger {
	return Get().With(slog.String("workspace_id", id))
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Warn logs at WARN level.
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}
