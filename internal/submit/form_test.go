package submit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func validForm() Form {
	f := NewForm(Defaults{PaidBy: "parth"})
	f.TxnDate = "2025-11-02"
	f.Amount = "12.50"
	f.Item = "Milk"
	return f
}

func TestNewFormDefaults(t *testing.T) {
	f := NewForm(Defaults{PaidBy: "jay"})
	assert.Equal(t, "CASH", f.PaymentMethod)
	assert.Equal(t, "DEBIT", f.EntryType)
	assert.Equal(t, "Monzo", f.Bank)
	assert.Equal(t, "jay", f.PaidBy)
	assert.Empty(t, f.TxnDate)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Form)
		field  string
		msg    string
	}{
		{"missing date", func(f *Form) { f.TxnDate = "" }, "txnDate", MsgMissingFields},
		{"blank amount", func(f *Form) { f.Amount = "  " }, "amount", MsgMissingFields},
		{"missing item", func(f *Form) { f.Item = "\t" }, "item", MsgMissingFields},
		{"bad date", func(f *Form) { f.TxnDate = "02/11/2025" }, "txnDate", MsgInvalidDate},
		{"impossible date", func(f *Form) { f.TxnDate = "2025-02-30" }, "txnDate", MsgInvalidDate},
		{"zero amount", func(f *Form) { f.Amount = "0" }, "amount", MsgInvalidAmount},
		{"negative amount", func(f *Form) { f.Amount = "-3" }, "amount", MsgInvalidAmount},
		{"non-numeric amount", func(f *Form) { f.Amount = "abc" }, "amount", MsgInvalidAmount},
		{"grouped amount", func(f *Form) { f.Amount = "1,234" }, "amount", MsgInvalidAmount},
		{"exponent amount", func(f *Form) { f.Amount = "1e50000000" }, "amount", MsgInvalidAmount},
		{"too many decimals", func(f *Form) { f.Amount = "4.999" }, "amount", MsgInvalidAmount},
		{"unknown method", func(f *Form) { f.PaymentMethod = "CHEQUE" }, "paymentMethod", MsgInvalidMethod},
		{"unknown entry type", func(f *Form) { f.EntryType = "REFUND" }, "entryType", MsgInvalidType},
		{"no payer", func(f *Form) { f.PaidBy = "" }, "paidBy", MsgMissingPayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			_, err := Validate(f)
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestValidateAcceptsSmallestAmount(t *testing.T) {
	f := validForm()
	f.Amount = "0.01"

	req, err := Validate(f)
	require.NoError(t, err)
	assert.Equal(t, "0.01", req.Amount.String())
}

func TestValidateOmitsBlankOptionals(t *testing.T) {
	f := validForm()
	f.CategoryName = "  "
	f.MerchantName = ""
	f.Notes = " "
	f.Bank = ""

	req, err := Validate(f)
	require.NoError(t, err)

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	for _, key := range []string{"categoryName", "merchantName", "notes", "bank"} {
		assert.NotContains(t, body, key)
	}
	assert.Equal(t, "Milk", body["item"])
	assert.Equal(t, "parth", body["paidBy"])
}

func TestValidateTrimsValues(t *testing.T) {
	f := validForm()
	f.Item = "  Oat milk "
	f.CategoryName = " Groceries "

	req, err := Validate(f)
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", req.Item)
	require.NotNil(t, req.CategoryName)
	assert.Equal(t, "Groceries", *req.CategoryName)
	assert.Equal(t, core.Cash, req.PaymentMethod)
	assert.Equal(t, core.Debit, req.EntryType)
}

func TestAfterSuccessKeepsSlowFields(t *testing.T) {
	f := validForm()
	f.CategoryName = "Groceries"
	f.MerchantName = "Tesco"
	f.Notes = "weekly shop"

	got := f.AfterSuccess()
	assert.Empty(t, got.Amount)
	assert.Empty(t, got.Item)
	assert.Empty(t, got.Notes)
	assert.Equal(t, f.TxnDate, got.TxnDate)
	assert.Equal(t, "Groceries", got.CategoryName)
	assert.Equal(t, "Tesco", got.MerchantName)
	assert.Equal(t, f.PaymentMethod, got.PaymentMethod)
	assert.Equal(t, f.PaidBy, got.PaidBy)
	assert.Equal(t, f.EntryType, got.EntryType)
	assert.Equal(t, f.Bank, got.Bank)
}
