package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// ExpenseCreatedMessage is published once per saved expense.
type ExpenseCreatedMessage struct {
	ID            int64           `json:"id"`
	TxnDate       string          `json:"txnDate"`
	Amount        decimal.Decimal `json:"amount"`
	Item          string          `json:"item"`
	Category      string          `json:"category,omitempty"`
	Merchant      string          `json:"merchant,omitempty"`
	PaymentMethod string          `json:"paymentMethod"`
	PaidBy        string          `json:"paidBy"`
	EntryType     string          `json:"entryType"`
	Bank          string          `json:"bank,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ID:            e.ID,
		TxnDate:       e.TxnDate,
		Amount:        e.Amount,
		Item:          e.Item,
		Category:      e.CategoryName(),
		Merchant:      e.MerchantName(),
		PaymentMethod: string(e.PaymentMethod),
		PaidBy:        e.PaidBy,
		EntryType:     string(e.EntryType),
		Bank:          e.BankName(),
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
