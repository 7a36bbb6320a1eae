// Package submit turns a raw expense form into a create request and sends it,
// at most one submission at a time per form.
package submit

import (
	"strings"

	"fintrack/internal/core"
)

// User-facing validation messages.
const (
	MsgMissingFields = "Please fill date, amount, and item."
	MsgInvalidDate   = "Date must be a valid YYYY-MM-DD date."
	MsgInvalidAmount = "Amount must be a positive number."
	MsgInvalidMethod = "Please choose a valid payment method."
	MsgInvalidType   = "Please choose a valid entry type."
	MsgMissingPayer  = "Please choose who paid."
)

// ValidationError is a form problem caught before any request is made.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Form holds raw field values as typed by the user.
type Form struct {
	TxnDate       string
	Amount        string
	Item          string
	CategoryName  string
	MerchantName  string
	PaymentMethod string
	PaidBy        string
	EntryType     string
	Bank          string
	Notes         string
}

// Defaults seeds a fresh form.
type Defaults struct {
	PaidBy string
}

// NewForm returns an empty form with the usual selections made.
func NewForm(d Defaults) Form {
	return Form{
		PaymentMethod: string(core.Cash),
		PaidBy:        d.PaidBy,
		EntryType:     string(core.Debit),
		Bank:          string(core.Monzo),
	}
}

// AfterSuccess clears the fields that change from one entry to the next and
// keeps the rest for fast consecutive entry.
func (f Form) AfterSuccess() Form {
	f.Amount = ""
	f.Item = ""
	f.Notes = ""
	return f
}

// Validate checks f and builds the request. Blank optional fields are left
// absent so they are omitted from the payload.
func Validate(f Form) (core.CreateExpenseRequest, error) {
	var req core.CreateExpenseRequest

	date := strings.TrimSpace(f.TxnDate)
	rawAmount := strings.TrimSpace(f.Amount)
	item := strings.TrimSpace(f.Item)
	if date == "" || rawAmount == "" || item == "" {
		field := "txnDate"
		switch {
		case date == "":
		case rawAmount == "":
			field = "amount"
		default:
			field = "item"
		}
		return req, &ValidationError{Field: field, Message: MsgMissingFields}
	}

	if _, err := core.ParseDate(date); err != nil {
		return req, &ValidationError{Field: "txnDate", Message: MsgInvalidDate, Err: err}
	}

	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return req, &ValidationError{Field: "amount", Message: MsgInvalidAmount, Err: err}
	}

	method := core.PaymentMethod(strings.TrimSpace(f.PaymentMethod))
	if !method.Valid() {
		return req, &ValidationError{Field: "paymentMethod", Message: MsgInvalidMethod, Err: core.ErrInvalidPaymentMethod}
	}
	entryType := core.EntryType(strings.TrimSpace(f.EntryType))
	if !entryType.Valid() {
		return req, &ValidationError{Field: "entryType", Message: MsgInvalidType, Err: core.ErrInvalidEntryType}
	}
	paidBy := strings.TrimSpace(f.PaidBy)
	if paidBy == "" {
		return req, &ValidationError{Field: "paidBy", Message: MsgMissingPayer}
	}

	return core.CreateExpenseRequest{
		TxnDate:       date,
		Amount:        amount,
		Item:          item,
		CategoryName:  core.Optional(f.CategoryName),
		MerchantName:  core.Optional(f.MerchantName),
		PaymentMethod: method,
		PaidBy:        paidBy,
		EntryType:     entryType,
		Bank:          core.Optional(f.Bank),
		Notes:         core.Optional(f.Notes),
	}, nil
}
