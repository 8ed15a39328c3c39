package dht

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with token-space field names.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithToken adds a token field.
func (l *Logger) WithToken(t Token) *Logger {
	return &Logger{Logger: l.Logger.With("token", t.String())}
}

// WithTable adds keyspace and table fields.
func (l *Logger) WithTable(ref TableRef) *Logger {
	return &Logger{Logger: l.Logger.With("keyspace", ref.Keyspace, "table", ref.Table)}
}

// WithCount adds a count field.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{Logger: l.Logger.With("count", count)}
}

// LogProjection logs a key-to-token projection.
func (l *Logger) LogProjection(ctx context.Context, keyLen int, t Token, err error) {
	if err != nil {
		l.WarnContext(ctx, "projection failed",
			"key_bytes", keyLen,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "projection completed",
		"key_bytes", keyLen,
		"token", t.String(),
	)
}

// LogOwnership logs an ownership estimate.
func (l *Logger) LogOwnership(ctx context.Context, tokens, tables int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "describe ownership failed",
			"tokens", tokens,
			"tables", tables,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "describe ownership completed",
		"tokens", tokens,
		"tables", tables,
	)
}
