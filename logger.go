package blastdb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with blastdb-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithOID adds an oid field to the logger.
func (l *Logger) WithOID(oid OID) *Logger {
	return &Logger{
		Logger: l.Logger.With("oid", oid),
	}
}

// WithDatabase adds a database field to the logger.
func (l *Logger) WithDatabase(names []string) *Logger {
	return &Logger{
		Logger: l.Logger.With("database", names),
	}
}

// LogOpen logs a database open.
func (l *Logger) LogOpen(ctx context.Context, names []string, volumes int, oids uint64, warnings int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"database", names,
			"error", err,
		)
		return
	}
	if warnings > 0 {
		l.WarnContext(ctx, "database opened with warnings",
			"database", names,
			"volumes", volumes,
			"oids", oids,
			"warnings", warnings,
		)
		return
	}
	l.InfoContext(ctx, "database opened",
		"database", names,
		"volumes", volumes,
		"oids", oids,
	)
}

// LogLookup logs a key lookup.
func (l *Logger) LogLookup(ctx context.Context, key any, hits int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "lookup failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "lookup completed",
			"key", key,
			"hits", hits,
		)
	}
}

// LogFetch logs a failed sequence or header fetch.
func (l *Logger) LogFetch(ctx context.Context, what string, oid OID, err error) {
	if err != nil {
		l.ErrorContext(ctx, what+" fetch failed",
			"oid", oid,
			"error", err,
		)
	}
}

// LogClose logs a database close.
func (l *Logger) LogClose(ctx context.Context, volumes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"volumes", volumes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "database closed",
			"volumes", volumes,
		)
	}
}
