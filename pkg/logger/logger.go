package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	// Get log level from environment
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	// Create handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Create handler based on environment
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		// Use text handler for development (more readable)
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		// Use JSON handler for production (structured)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	// Create logger
	logger := slog.New(handler)

	return &Logger{
		Logger: logger,
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithSlotID adds slot ID to logger context
func (l *Logger) WithSlotID(slotID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("slot_id", slotID)),
	}
}

// WithFields adds multiple fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Placement logging methods

// LogPlacementActivated logs when a placement becomes a slot's occupant
func (l *Logger) LogPlacementActivated(ctx context.Context, slotID, placementID, bidder string, expiresAt time.Time) {
	l.Logger.InfoContext(ctx,
		"Placement Activated",
		slog.String("slot_id", slotID),
		slog.String("placement_id", placementID),
		slog.String("bidder", bidder),
		slog.Time("expires_at", expiresAt),
	)
}

// LogPlacementQueued logs when a placement joins a slot's queue
func (l *Logger) LogPlacementQueued(ctx context.Context, slotID, placementID, bidder string, position int) {
	l.Logger.InfoContext(ctx,
		"Placement Queued",
		slog.String("slot_id", slotID),
		slog.String("placement_id", placementID),
		slog.String("bidder", bidder),
		slog.Int("position", position),
	)
}

// LogPlacementExpired logs when an occupant is evicted
func (l *Logger) LogPlacementExpired(ctx context.Context, slotID, placementID string) {
	l.Logger.InfoContext(ctx,
		"Placement Expired",
		slog.String("slot_id", slotID),
		slog.String("placement_id", placementID),
	)
}

// LogPlacementCancelled logs a withdrawn queued placement
func (l *Logger) LogPlacementCancelled(ctx context.Context, slotID, placementID, bidder string) {
	l.Logger.InfoContext(ctx,
		"Placement Cancelled",
		slog.String("slot_id", slotID),
		slog.String("placement_id", placementID),
		slog.String("bidder", bidder),
	)
}

// LogPaymentSettled logs a settled checkout payment
func (l *Logger) LogPaymentSettled(ctx context.Context, slotID, payer, transaction, network string) {
	l.Logger.InfoContext(ctx,
		"Payment Settled",
		slog.String("slot_id", slotID),
		slog.String("payer", payer),
		slog.String("transaction", transaction),
		slog.String("network", network),
	)
}

// LogSlowStoreCall logs slot store calls that come close to the store timeout
func (l *Logger) LogSlowStoreCall(ctx context.Context, op, slotID string, duration time.Duration) {
	l.Logger.WarnContext(ctx,
		"Slow Slot Store Call",
		slog.String("op", op),
		slog.String("slot_id", slotID),
		slog.Duration("duration", duration),
	)
}

// Security logging methods

// LogAuthSuccess logs successful authentication
func (l *Logger) LogAuthSuccess(ctx context.Context, subject, role string) {
	l.Logger.DebugContext(ctx,
		"Authentication Success",
		slog.String("subject", subject),
		slog.String("role", role),
	)
}

// LogAuthFailure logs failed authentication
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.DebugContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
