package collection

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with the field names used by collections.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is nil,
// a text handler writing to stderr at the info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// LogAdd logs the result of adding a batch of structures.
func (l *Logger) LogAdd(
	ctx context.Context, count, total int, elapsed time.Duration, err error,
) {
	if err != nil {
		l.ErrorContext(ctx, "adding structures failed",
			"count", count,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "structures added",
		"count", count,
		"total", total,
		"elapsed", elapsed,
	)
}

// LogCompute logs the result of running a calculator over a collection.
func (l *Logger) LogCompute(
	ctx context.Context, name string, count int, elapsed time.Duration,
	err error,
) {
	if err != nil {
		l.ErrorContext(ctx, "compute failed",
			"calculator", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "compute completed",
		"calculator", name,
		"count", count,
		"elapsed", elapsed,
	)
}
