package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// plainAmount is up to twelve digits with an optional fraction of at most two
// places. Exponents, signs and group separators are not amounts a person types.
var plainAmount = regexp.MustCompile(`^(?:[0-9]{1,12}(?:\.[0-9]{1,2})?|\.[0-9]{1,2})$`)

// ParseAmount converts user input into a strictly positive decimal amount.
//
// Only plain decimal text is accepted: "1,234", "1e2" and "-3" all return
// ErrInvalidAmount, as do blank and zero inputs.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !plainAmount.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// MonthlyAnalytics is the current-month aggregate computed by the backend.
type MonthlyAnalytics struct {
	TotalExpenditure decimal.Decimal `json:"totalExpenditure"`
	TotalEarnings    decimal.Decimal `json:"totalEarnings"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
}
