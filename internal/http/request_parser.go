// This file parses htmx request bodies into form values, list filters and
// view references.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/listing"
	"fintrack/internal/submit"
	"fintrack/internal/suggest"
)

// Request parameter names shared with the templates.
const (
	paramView  = "view"
	paramForm  = "form"
	paramField = "field"
	paramQuery = "q"
	paramFrom  = "from"
	paramTo    = "to"
)

// maxBodyBytes bounds what a form post may send.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a JSON or form-encoded body once. htmx posts forms
// url-encoded; the json-enc extension posts JSON.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body of r.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether the body carried key at all, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// IsJSON reports whether the body was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpenseForm reads the expense form fields. Values are kept raw so the
// form can be shown back exactly as typed.
func ParseExpenseForm(p *RequestBodyParser) submit.Form {
	return submit.Form{
		TxnDate:       p.Get("txnDate"),
		Amount:        p.Get("amount"),
		Item:          p.Get("item"),
		CategoryName:  p.Get("categoryName"),
		MerchantName:  p.Get("merchantName"),
		PaymentMethod: p.Get("paymentMethod"),
		PaidBy:        p.Get("paidBy"),
		EntryType:     p.Get("entryType"),
		Bank:          p.Get("bank"),
		Notes:         p.Get("notes"),
	}
}

// ParseFilters reads the list date range.
func ParseFilters(p *RequestBodyParser) listing.Filters {
	return listing.Filters{From: p.Get(paramFrom), To: p.Get(paramTo)}
}

// ParseFilterAction maps a filter post to a list action. A single date input
// posts only its own bound, which keeps the other one as it is.
func ParseFilterAction(p *RequestBodyParser) listing.Action {
	hasFrom, hasTo := p.Has(paramFrom), p.Has(paramTo)
	switch {
	case hasFrom && !hasTo:
		return listing.SetFrom(p.Get(paramFrom))
	case hasTo && !hasFrom:
		return listing.SetTo(p.Get(paramTo))
	default:
		return listing.SetFilters(ParseFilters(p))
	}
}

// inputName is the form input a suggestion field is attached to.
func inputName(f suggest.Field) string {
	switch f {
	case suggest.FieldCategory:
		return "categoryName"
	case suggest.FieldMerchant:
		return "merchantName"
	default:
		return "item"
	}
}

// suggestQuery returns the typed text for a suggestion request. htmx sends
// the triggering input under its own name, so q is optional.
func suggestQuery(query url.Values, f suggest.Field) string {
	if q := query.Get(paramQuery); q != "" {
		return sanitizeInput(q)
	}
	return sanitizeInput(query.Get(inputName(f)))
}
