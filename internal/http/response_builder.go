// Package http serves the fintrack web client: full pages, htmx partials and
// the health endpoints.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// EventExpenseCreated is raised through HX-Trigger after a successful save.
// The analytics, recent and list regions listen for it on body.
const EventExpenseCreated = "expense:created"

// HTMXResponseBuilder collects the status, HX-Trigger events and body of a
// partial before anything is written.
type HTMXResponseBuilder struct {
	status int
	events map[string]any
	header http.Header
	body   []byte
}

// NewHTMXResponse starts a 200 response.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{status: http.StatusOK, header: make(http.Header)}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger queues a client event; data becomes the event detail.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	if b.events == nil {
		b.events = make(map[string]any)
	}
	b.events[name] = data
	return b
}

// TriggerExpenseCreated tells the dashboard widgets and list views to refresh.
func (b *HTMXResponseBuilder) TriggerExpenseCreated(id int64) *HTMXResponseBuilder {
	return b.Trigger(EventExpenseCreated, map[string]int64{"id": id})
}

// Reswap overrides the hx-swap of the requesting element.
func (b *HTMXResponseBuilder) Reswap(strategy string) *HTMXResponseBuilder {
	b.header.Set("HX-Reswap", strategy)
	return b
}

// HTML sets an already rendered body.
func (b *HTMXResponseBuilder) HTML(content []byte) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = content
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.header {
		w.Header()[name] = values
	}
	if len(b.events) > 0 {
		if raw, err := json.Marshal(b.events); err == nil {
			w.Header().Set("HX-Trigger", string(raw))
		}
	}

	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message, escaped, in an alert region.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	body := `<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`
	return NewHTMXResponse().Status(status).HTML([]byte(body))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError answers a rate limited write. The rejected form keeps
// its content because the alert is swapped in above it.
func TooManyRequestsError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message).Reswap("beforebegin")
}

// NoContent tells htmx to leave the target alone.
func NoContent() *HTMXResponseBuilder {
	return NewHTMXResponse().Status(http.StatusNoContent)
}
