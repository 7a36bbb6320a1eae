package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO 8601 calendar date format used on the wire.
const DateLayout = "2006-01-02"

const (
	Cash         PaymentMethod = "CASH"
	Card         PaymentMethod = "CARD"
	BankTransfer PaymentMethod = "BANK_TRANSFER"
	PayPal       PaymentMethod = "PAYPAL"
)

const (
	Debit  EntryType = "DEBIT"  // expense
	Credit EntryType = "CREDIT" // income
)

const (
	Monzo      Bank = "Monzo"
	HSBC       Bank = "HSBC"
	ICICIForex Bank = "ICICI Forex"
	Lloyds     Bank = "Lloyds"
)

type (
	PaymentMethod string

	EntryType string

	// Bank is free text on the backend; the constants are the set offered by the form.
	Bank string

	Category struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		CreatedAt string `json:"createdAt"`
	}

	Merchant struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		CreatedAt string `json:"createdAt"`
	}

	Expense struct {
		ID            int64           `json:"id"`
		TxnDate       string          `json:"txnDate"`
		Amount        decimal.Decimal `json:"amount"`
		Item          string          `json:"item"`
		Category      *Category       `json:"category,omitempty"`
		Merchant      *Merchant       `json:"merchant,omitempty"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		PaidBy        string          `json:"paidBy"`
		EntryType     EntryType       `json:"entryType"`
		Bank          *string         `json:"bank,omitempty"`
		Notes         *string         `json:"notes,omitempty"`
		CreatedAt     string          `json:"createdAt"`
	}
)

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyItem            = errors.New("empty item")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidEntryType     = errors.New("invalid entry type")
)

// PaymentMethods lists the methods in the order the form offers them.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{Cash, Card, BankTransfer, PayPal}
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case Cash, Card, BankTransfer, PayPal:
		return true
	default:
		return false
	}
}

// Label returns the human readable name of the method.
func (p PaymentMethod) Label() string {
	switch p {
	case Cash:
		return "Cash"
	case Card:
		return "Card"
	case BankTransfer:
		return "Bank Transfer"
	case PayPal:
		return "PayPal"
	default:
		return string(p)
	}
}

// EntryTypes lists debit first, matching the form default.
func EntryTypes() []EntryType {
	return []EntryType{Debit, Credit}
}

func (e EntryType) Valid() bool {
	return e == Debit || e == Credit
}

func (e EntryType) Label() string {
	switch e {
	case Debit:
		return "Debit (expense)"
	case Credit:
		return "Credit (income)"
	default:
		return string(e)
	}
}

// Banks returns the banks offered by the form.
func Banks() []Bank {
	return []Bank{Monzo, HSBC, ICICIForex, Lloyds}
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// CategoryName returns the category name or "" when the expense has none.
func (e Expense) CategoryName() string {
	if e.Category == nil {
		return ""
	}
	return e.Category.Name
}

// MerchantName returns the merchant name or "" when the expense has none.
func (e Expense) MerchantName() string {
	if e.Merchant == nil {
		return ""
	}
	return e.Merchant.Name
}

// BankName returns the bank or "" when absent.
func (e Expense) BankName() string {
	if e.Bank == nil {
		return ""
	}
	return *e.Bank
}
