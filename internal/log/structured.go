package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// StructuredLogger writes the fixed-shape records shared by the HTTP layer:
// request start and end, saved expenses and failures.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger.WithComponent(ComponentHTTP)}
}

// LogHTTPStart logs at debug so production logs keep one line per request.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, requestID, clientIP string) {
	f := Fields{}.
		Request(r, true).
		Add(FieldRequestID, requestID).
		Add(FieldClientIP, clientIP)
	sl.logger.DebugContext(ctx, "HTTP request started", f.Args()...)
}

// LogHTTPEnd logs at info, warn for 4xx and error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, requestID string, status int, took time.Duration, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	f := Fields{}.
		Request(r, false).
		Response(status, took).
		Add(FieldRequestID, requestID).
		Add(FieldClientIP, clientIP)
	sl.logger.Log(ctx, level, "HTTP request completed", f.Args()...)
}

func (sl *StructuredLogger) LogExpenseCreated(ctx context.Context, id int64, item, amount, entryType string) {
	f := Fields{}.
		Expense(id, item, amount, entryType).
		Add(FieldOperation, OpCreate)
	sl.logger.WithComponent(ComponentExpense).InfoContext(ctx, "Expense created successfully", f.Args()...)
}

// LogError logs err under component with the operation that failed.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, extra Fields) {
	f := append(Fields{}, extra...).
		Err(err).
		Add(FieldOperation, operation)
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, f.Args()...)
}
