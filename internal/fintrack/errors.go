package fintrack

import (
	"errors"
	"fmt"
	"log/slog"
)

// RequestError reports a failed backend call: a transport failure, a non-2xx
// status or a body that could not be decoded.
//
// Error returns Message, which is safe to show to the user.
type RequestError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Body       string
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Detail is a log-friendly description including the cause.
func (e *RequestError) Detail() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

// LogValue makes log records carry Detail instead of the user-facing message.
func (e *RequestError) LogValue() slog.Value {
	return slog.StringValue(e.Detail())
}

// Message extracts a user-facing message from err, falling back when err
// is not a RequestError.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}
