package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type Logger struct {
	*slog.Logger
}

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// ContextKey for correlation IDs
type contextKey string

const correlationIDKey contextKey = "correlation_id"

func NewLogger(level LogLevel) *Logger {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)

	return &Logger{Logger: logger}
}

// WithCorrelationID adds a correlation ID to the context
func WithCorrelationID(ctx context.Context) context.Context {
	if GetCorrelationID(ctx) == "" {
		correlationID := uuid.New().String()
		return context.WithValue(ctx, correlationIDKey, correlationID)
	}
	return ctx
}

// GetCorrelationID retrieves the correlation ID from context
func GetCorrelationID(ctx context.Context) string {
	if correlationID, ok := ctx.Value(correlationIDKey).(string); ok {
		return correlationID
	}
	return ""
}

// Debug logs debug level messages with correlation ID
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if correlationID := GetCorrelationID(ctx); correlationID != "" {
		args = append(args, "correlation_id", correlationID)
	}
	l.Logger.Debug(msg, args...)
}

// Info logs info level messages with correlation ID
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if correlationID := GetCorrelationID(ctx); correlationID != "" {
		args = append(args, "correlation_id", correlationID)
	}
	l.Logger.Info(msg, args...)
}

// Warn logs warn level messages with correlation ID
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if correlationID := GetCorrelationID(ctx); correlationID != "" {
		args = append(args, "correlation_id", correlationID)
	}
	l.Logger.Warn(msg, args...)
}

// Error logs error level messages with correlation ID
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if correlationID := GetCorrelationID(ctx); correlationID != "" {
		args = append(args, "correlation_id", correlationID)
	}
	l.Logger.Error(msg, args...)
}

// LogRecordOperation logs record lifecycle operations without content or
// credentials. The identifier itself is a capability token, so only a prefix
// is logged.
func (l *Logger) LogRecordOperation(ctx context.Context, operation, id string, success bool) {
	l.Logger.Info("record operation",
		"operation", operation,
		"id_prefix", idPrefix(id),
		"success", success,
		"correlation_id", GetCorrelationID(ctx),
	)
}

// LogAccessDenied logs a refused peek or reveal with the internal cause.
// The cause never reaches the caller; it exists for operators only.
func (l *Logger) LogAccessDenied(ctx context.Context, operation, id, cause string) {
	l.Logger.Debug("access denied",
		"operation", operation,
		"id_prefix", idPrefix(id),
		"cause", cause,
		"correlation_id", GetCorrelationID(ctx),
	)
}

// LogSweep logs the outcome of one sweeper pass.
func (l *Logger) LogSweep(ctx context.Context, scanned, purged, blobFailures int) {
	l.Logger.Info("sweep complete",
		"scanned", scanned,
		"purged", purged,
		"blob_failures", blobFailures,
	)
}

// idPrefix truncates a record identifier for safe logging.
func idPrefix(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[:4] + "***"
}
