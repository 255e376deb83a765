package sparserow

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with sparserow-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithPartition adds a partition field to the logger.
func (l *Logger) WithPartition(p PartitionID) *Logger {
	return &Logger{
		Logger: l.Logger.With("partition", int(p)),
	}
}

// WithRows adds a rows field to the logger.
func (l *Logger) WithRows(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rows", n),
	}
}

// LogBuild logs the allocation and construction of a matrix.
func (l *Logger) LogBuild(ctx context.Context, rows, partitions int, bytes int64, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "matrix build failed",
			"rows", rows,
			"partitions", partitions,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "matrix built",
			"rows", rows,
			"partitions", partitions,
			"bytes", bytes,
			"took", took,
		)
	}
}

// LogAppend logs an append to a single row.
func (l *Logger) LogAppend(ctx context.Context, row, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "append failed",
			"row", row,
			"entries", entries,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "append completed",
			"row", row,
			"entries", entries,
		)
	}
}

// LogBulkAppend logs a fan-out append over many rows.
func (l *Logger) LogBulkAppend(ctx context.Context, rows, failed int, took time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "bulk append completed with failures",
			"rows", rows,
			"failed", failed,
		)
	} else {
		l.InfoContext(ctx, "bulk append completed",
			"rows", rows,
			"took", took,
		)
	}
}

// LogDot logs a row merge.
func (l *Logger) LogDot(ctx context.Context, a, b int, result Scalar, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dot failed",
			"row_a", a,
			"row_b", b,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "dot completed",
			"row_a", a,
			"row_b", b,
			"result", result,
		)
	}
}

// LogClose logs the release of a matrix or runtime.
func (l *Logger) LogClose(ctx context.Context, what string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"what", what,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "closed",
			"what", what,
		)
	}
}

// LogSnapshot logs a snapshot write or load.
func (l *Logger) LogSnapshot(ctx context.Context, op string, rows int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"op", op,
			"rows", rows,
			"bytes", bytes,
		)
	}
}
