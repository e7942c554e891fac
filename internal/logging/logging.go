// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey ContextKey = "request_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	InitLogger(LevelInfo, FormatJSON)
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel maps a level name such as "debug" or "WARN" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat maps "json" or "text" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	}
	return FormatJSON, fmt.Errorf("unknown log format %q", s)
}

// InitLogger initializes the global logger with the specified level and
// format, writing to stderr so that command output on stdout stays clean.
func InitLogger(level Level, format Format) {
	InitLoggerWithWriter(os.Stderr, level, format)
}

// InitLoggerWithWriter is InitLogger with an explicit destination.
func InitLoggerWithWriter(w io.Writer, level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if requestID := GetRequestID(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	return logger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// HTTPRequestContext logs an HTTP request with context and common fields.
func HTTPRequestContext(ctx context.Context, method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	allArgs := []any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("http_request", allArgs...)
}

// ReferenceResolved logs a successful parse at debug level.
func ReferenceResolved(ctx context.Context, input, canonical string, start, end int) {
	LoggerFromContext(ctx).Debug("reference_resolved",
		"input", input,
		"reference", canonical,
		"start", start,
		"end", end,
	)
}

// ReferenceRejected logs input that did not resolve to a reference.
func ReferenceRejected(ctx context.Context, input string, err error) {
	LoggerFromContext(ctx).Info("reference_rejected",
		"input", input,
		"error", err.Error(),
	)
}

// StoreEvent logs a change to the collection store.
func StoreEvent(ctx context.Context, operation, collectionID string, args ...any) {
	allArgs := []any{
		"operation", operation,
		"collection_id", collectionID,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("store_event", allArgs...)
}

// WebSocketEvent logs WebSocket events.
func WebSocketEvent(event string, clientCount int, args ...any) {
	allArgs := []any{
		"event", event,
		"client_count", clientCount,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("websocket_event", allArgs...)
}

// ServerStartup logs server startup information.
func ServerStartup(serverType, protocol string, port int, args ...any) {
	allArgs := []any{
		"server_type", serverType,
		"protocol", protocol,
		"port", port,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("server_startup", allArgs...)
}
