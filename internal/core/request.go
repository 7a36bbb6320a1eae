package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CreateExpenseRequest is the payload of POST /expenses.
//
// Optional fields are pointers: nil means absent and is omitted from the
// JSON body. Use Optional to build them from raw form text.
type CreateExpenseRequest struct {
	TxnDate       string
	Amount        decimal.Decimal
	Item          string
	CategoryName  *string
	MerchantName  *string
	PaymentMethod PaymentMethod
	PaidBy        string
	EntryType     EntryType
	Bank          *string
	Notes         *string
}

type createExpenseWire struct {
	TxnDate       string        `json:"txnDate"`
	Amount        json.Number   `json:"amount"`
	Item          string        `json:"item"`
	CategoryName  *string       `json:"categoryName,omitempty"`
	MerchantName  *string       `json:"merchantName,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaidBy        string        `json:"paidBy"`
	EntryType     EntryType     `json:"entryType"`
	Bank          *string       `json:"bank,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
}

// MarshalJSON writes the amount as a JSON number and drops absent optionals.
func (r CreateExpenseRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(createExpenseWire{
		TxnDate:       r.TxnDate,
		Amount:        json.Number(r.Amount.String()),
		Item:          r.Item,
		CategoryName:  r.CategoryName,
		MerchantName:  r.MerchantName,
		PaymentMethod: r.PaymentMethod,
		PaidBy:        r.PaidBy,
		EntryType:     r.EntryType,
		Bank:          r.Bank,
		Notes:         r.Notes,
	})
}

// Optional returns a pointer to the trimmed text, or nil when it is blank.
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// SearchParams filters GET /expenses/search. Zero values mean "not sent".
type SearchParams struct {
	From string
	To   string
	Page *int
	Size *int
}

// IntPtr is a small helper for SearchParams literals.
func IntPtr(v int) *int {
	return &v
}
