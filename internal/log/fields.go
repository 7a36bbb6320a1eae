package log

import (
	"log/slog"
	"net/http"
	"time"
)

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldViewID      = "view_id"
	FieldFormID      = "form_id"
	FieldGeneration  = "generation"
	FieldPage        = "page"
	FieldExpenseID   = "expense_id"
	FieldExpenseItem = "expense_item"
	FieldAmount      = "amount"
	FieldEntryType   = "entry_type"
	FieldSource      = "source"
	FieldTemplate    = "template"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAPI       = "api"
	ComponentExpense   = "expense"
	ComponentListing   = "listing"
	ComponentSuggest   = "suggest"
	ComponentViews     = "views"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTemplate  = "template"
)

const (
	OpCreate   = "create"
	OpSearch   = "search"
	OpLookup   = "lookup"
	OpValidate = "validate"
	OpRender   = "render"
	OpPublish  = "publish"
)

// Fields is an ordered list of attributes, built up with the chained
// helpers and passed to a log call with Args.
type Fields []slog.Attr

func (f Fields) Add(key string, value any) Fields {
	return append(f, slog.Any(key, value))
}

// Err records err as a string; nil adds nothing.
func (f Fields) Err(err error) Fields {
	if err == nil {
		return f
	}
	return append(f, slog.String(FieldError, err.Error()))
}

func (f Fields) Expense(id int64, item, amount, entryType string) Fields {
	return append(f,
		slog.Int64(FieldExpenseID, id),
		slog.String(FieldExpenseItem, item),
		slog.String(FieldAmount, amount),
		slog.String(FieldEntryType, entryType))
}

// Request records the method, path and query of r, plus its user agent when
// withAgent is set.
func (f Fields) Request(r *http.Request, withAgent bool) Fields {
	f = append(f,
		slog.String(FieldMethod, r.Method),
		slog.String(FieldPath, r.URL.Path))
	if r.URL.RawQuery != "" {
		f = append(f, slog.String(FieldQuery, r.URL.RawQuery))
	}
	if ua := r.UserAgent(); withAgent && ua != "" {
		f = append(f, slog.String(FieldUserAgent, ua))
	}
	return f
}

func (f Fields) Response(status int, took time.Duration) Fields {
	return append(f,
		slog.Int(FieldStatusCode, status),
		slog.Int64(FieldDuration, took.Milliseconds()),
		slog.Bool(FieldSuccess, status < 400))
}

// Args converts f for the variadic slog methods.
func (f Fields) Args() []any {
	args := make([]any, len(f))
	for i, a := range f {
		args[i] = a
	}
	return args
}
