// Package logger wires up log/slog for the engine: JSON output tagged with
// the service name, plus per-run trace IDs carried through context.Context
// so a streamed evaluation can be followed across log lines.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// Init builds the service logger: JSON to stdout at the given level, every
// line carrying the service name. It also becomes the slog default so stray
// slog.Info calls stay structured.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler).With(slog.String("service", service))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a LOG_LEVEL string to a slog.Level. Unknown values
// default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// WithTraceID stores a trace ID in the context for downstream log lines.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the trace ID from ctx, or "" when none was set.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateTraceID derives a "{ticker}-{unixNano}" run identifier. Runs for
// the same ticker in the same nanosecond would collide, which is acceptable
// for log correlation.
func GenerateTraceID(ticker string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", ticker, ts.UnixNano())
}

// LogWithTrace converts the context's trace ID into slog attributes, empty
// when no trace is active, so call sites can splat it unconditionally.
func LogWithTrace(ctx context.Context) []any {
	tid := TraceID(ctx)
	if tid == "" {
		return nil
	}
	return []any{slog.String("trace_id", tid)}
}
