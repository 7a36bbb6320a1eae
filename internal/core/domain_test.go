package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnums(t *testing.T) {
	for _, p := range PaymentMethods() {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, PaymentMethod("CHEQUE").Valid())
	assert.Equal(t, "Bank Transfer", BankTransfer.Label())

	assert.True(t, Debit.Valid())
	assert.True(t, Credit.Valid())
	assert.False(t, EntryType("debit").Valid())
	assert.Equal(t, []Bank{Monzo, HSBC, ICICIForex, Lloyds}, Banks())
}

func TestOptional(t *testing.T) {
	assert.Nil(t, Optional(""))
	assert.Nil(t, Optional("   "))
	require.NotNil(t, Optional(" Tesco "))
	assert.Equal(t, "Tesco", *Optional(" Tesco "))
}

func TestCreateExpenseRequestOmitsAbsentOptionals(t *testing.T) {
	req := CreateExpenseRequest{
		TxnDate:       "2025-11-02",
		Amount:        decimal.RequireFromString("4.50"),
		Item:          "milk",
		CategoryName:  Optional("  "),
		MerchantName:  Optional("Tesco"),
		PaymentMethod: Card,
		PaidBy:        "parth",
		EntryType:     Debit,
	}

	body, err := json.Marshal(req)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))

	assert.NotContains(t, got, "categoryName")
	assert.NotContains(t, got, "bank")
	assert.NotContains(t, got, "notes")
	assert.Equal(t, "Tesco", got["merchantName"])
	assert.Equal(t, 4.5, got["amount"], "amount must be a JSON number")
	assert.Equal(t, "CARD", got["paymentMethod"])
}

func TestExpenseDecodesBackendJSON(t *testing.T) {
	raw := `{"id":7,"txnDate":"2025-11-02","amount":12.5,"item":"Bus ticket",
		"category":{"id":1,"name":"Travel","createdAt":"2025-11-01T10:00:00"},
		"merchant":null,"paymentMethod":"CARD","paidBy":"jay","entryType":"DEBIT",
		"bank":"Monzo","notes":null,"createdAt":"2025-11-02T08:00:00"}`

	var e Expense
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, int64(7), e.ID)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "Travel", e.CategoryName())
	assert.Equal(t, "", e.MerchantName())
	assert.Equal(t, "Monzo", e.BankName())
	assert.Nil(t, e.Notes)
}

func TestPageValid(t *testing.T) {
	ok := Page[int]{Content: []int{1, 2}, TotalElements: 25, TotalPages: 3, Number: 0, Size: 10}
	assert.NoError(t, ok.Valid())

	empty := Page[int]{Size: 10}
	assert.NoError(t, empty.Valid())

	tooMany := Page[int]{Content: []int{1, 2, 3}, TotalPages: 1, Size: 2}
	assert.Error(t, tooMany.Valid())

	outOfRange := Page[int]{TotalPages: 3, Number: 3, Size: 10}
	assert.Error(t, outOfRange.Valid())
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2025-02-28")
	assert.NoError(t, err)
	_, err = ParseDate("2025-02-30")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDate("28/02/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
