package http

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	displayDateLayout = "02 Jan 2006"
	missingValue      = "-"
)

// formatINR formats an amount as rupees with thousands separators, e.g. "₹1,234.50".
func formatINR(d decimal.Decimal) string {
	d = d.Round(2)
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = humanize.Comma(n)
	}
	s := "₹" + whole + "." + frac
	if d.IsNegative() {
		return "-" + s
	}
	return s
}

// formatDate renders an ISO date as "02 Jan 2006". Anything unparsable is
// shown as it came.
func formatDate(raw string) string {
	t, err := core.ParseDate(raw)
	if err != nil {
		return raw
	}
	return t.Format(displayDateLayout)
}

// dash stands in for a missing value.
func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingValue
	}
	return s
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// templateFuncs are available to every page and partial.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"inr":  formatINR,
		"date": formatDate,
		"dash": dash,
		"paymentLabel": func(p core.PaymentMethod) string {
			return p.Label()
		},
		"entryLabel": func(e core.EntryType) string {
			return e.Label()
		},
		"count": func(n int64) string {
			return humanize.Comma(n)
		},
	}
}
