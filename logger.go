package fvcache

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with fvcache-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithField adds a field name to the logger.
func (l *Logger) WithField(field string) *Logger {
	return &Logger{
		Logger: l.Logger.With("field", field),
	}
}

// WithGeneration adds an index generation to the logger.
func (l *Logger) WithGeneration(gen uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("generation", gen),
	}
}

// LogOpen logs the creation of a cache.
func (l *Logger) LogOpen(ctx context.Context, generation uint64, segments int) {
	l.InfoContext(ctx, "cache opened",
		"generation", generation,
		"segments", segments,
	)
}

// LogReopen logs a generation change.
func (l *Logger) LogReopen(ctx context.Context, from, to uint64, carried int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reopen failed",
			"from", from,
			"to", to,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "reopen completed",
			"from", from,
			"to", to,
			"carried", carried,
			"duration", duration,
		)
	}
}

// LogClose logs the shutdown of a cache.
func (l *Logger) LogClose(ctx context.Context, fields int, bytes int64) {
	l.InfoContext(ctx, "cache closed",
		"fields", fields,
		"bytes", bytes,
	)
}
