package fintrack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

// newTestClient points a Client at a fake backend mounted under /api/v1.
func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/api/v1/", 5*time.Second)
	require.NoError(t, err)
	return c, &hits
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://host/api", "http://", "::bad"} {
		_, err := NewClient(raw, time.Second)
		assert.Error(t, err, raw)
	}
}

func TestCreateExpense(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/expenses", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "2025-11-02", body["txnDate"])
		assert.Equal(t, 0.01, body["amount"])
		assert.NotContains(t, body, "categoryName")
		assert.NotContains(t, body, "notes")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"txnDate":"2025-11-02","amount":0.01,"item":"gum",
			"paymentMethod":"CASH","paidBy":"parth","entryType":"DEBIT","createdAt":"2025-11-02T09:00:00"}`))
	})

	got, err := c.CreateExpense(context.Background(), core.CreateExpenseRequest{
		TxnDate:       "2025-11-02",
		Amount:        decimal.RequireFromString("0.01"),
		Item:          "gum",
		CategoryName:  core.Optional(" "),
		PaymentMethod: core.Cash,
		PaidBy:        "parth",
		EntryType:     core.Debit,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "gum", got.Item)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestCreateExpenseSurfacesBackendBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Item must not be empty", http.StatusBadRequest)
	})

	_, err := c.CreateExpense(context.Background(), core.CreateExpenseRequest{})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "Item must not be empty", reqErr.Body)
	assert.Equal(t, "Failed to create expense: Item must not be empty", err.Error())
}

func TestCreateExpenseEmptyErrorBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.CreateExpense(context.Background(), core.CreateExpenseRequest{})
	assert.EqualError(t, err, "Failed to create expense")
}

func TestSearchExpensesQuery(t *testing.T) {
	tests := []struct {
		name   string
		params core.SearchParams
		want   string
	}{
		{"no params", core.SearchParams{}, ""},
		{"blank filters are omitted", core.SearchParams{From: " ", To: ""}, ""},
		{"page zero is sent", core.SearchParams{Page: core.IntPtr(0)}, "page=0"},
		{"all params", core.SearchParams{From: "2025-11-01", To: "2025-11-30", Page: core.IntPtr(2), Size: core.IntPtr(10)},
			"from=2025-11-01&page=2&size=10&to=2025-11-30"},
		{"from only", core.SearchParams{From: "2025-11-01", Size: core.IntPtr(20)}, "from=2025-11-01&size=20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/expenses/search", r.URL.Path)
				assert.Equal(t, tt.want, r.URL.RawQuery)
				_, _ = w.Write([]byte(`{"content":[],"totalElements":0,"totalPages":0,"number":0,"size":10,"first":true,"last":true}`))
			})
			page, err := c.SearchExpenses(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Empty(t, page.Content)
		})
	}
}

func TestSearchExpensesDecodesPage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"id":1,"item":"a","amount":"3.10"},{"id":2,"item":"b","amount":4}],
			"totalElements":25,"totalPages":3,"number":0,"size":10,"first":true,"last":false}`))
	})

	page, err := c.SearchExpenses(context.Background(), core.SearchParams{Page: core.IntPtr(0), Size: core.IntPtr(10)})
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	assert.Equal(t, int64(25), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.First)
	assert.False(t, page.Last)
	assert.Equal(t, "3.1", page.Content[0].Amount.String())
}

func TestPrefixLookups(t *testing.T) {
	var gotQuery []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = append(gotQuery, r.URL.Path+"?"+r.URL.RawQuery)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Grocery","createdAt":"2025-01-01T00:00:00"}]`))
	})

	cats, err := c.SearchCategories(context.Background(), "  gro ")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Grocery", cats[0].Name)

	_, err = c.SearchCategories(context.Background(), "   ")
	require.NoError(t, err)

	_, err = c.SearchMerchants(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/v1/categories?prefix=gro",
		"/api/v1/categories?",
		"/api/v1/merchants?",
	}, gotQuery)
}

func TestGenericFailureMessages(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	})
	ctx := context.Background()

	calls := []struct {
		want string
		call func() error
	}{
		{"Failed to load expenses", func() error { _, err := c.GetExpenses(ctx); return err }},
		{"Failed to search expenses", func() error { _, err := c.SearchExpenses(ctx, core.SearchParams{}); return err }},
		{"Failed to load categories", func() error { _, err := c.SearchCategories(ctx, ""); return err }},
		{"Failed to load merchants", func() error { _, err := c.SearchMerchants(ctx, ""); return err }},
		{"Failed to load monthly analytics", func() error { _, err := c.GetMonthlyAnalytics(ctx); return err }},
	}

	for _, tc := range calls {
		err := tc.call()
		require.Error(t, err)
		assert.Equal(t, tc.want, err.Error())

		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, http.StatusServiceUnavailable, reqErr.StatusCode)
	}
	assert.Equal(t, int32(len(calls)), atomic.LoadInt32(hits), "one request per call, no retries")
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(base, time.Second)
	require.NoError(t, err)

	_, err = c.GetMonthlyAnalytics(context.Background())
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 0, reqErr.StatusCode)
	assert.Equal(t, "Failed to load monthly analytics", reqErr.Error())
	assert.NotNil(t, errors.Unwrap(err))
}

func TestUndecodableBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalExpenditure":`))
	})
	_, err := c.GetMonthlyAnalytics(context.Background())
	assert.EqualError(t, err, "Failed to load monthly analytics")
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil, "x"))
	assert.Equal(t, "fallback", Message(errors.New("raw"), "fallback"))
	assert.Equal(t, "nice", Message(&RequestError{Message: "nice"}, "fallback"))
}

func TestRequestErrorLogsDetail(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := fmt.Errorf("load page: %w", &RequestError{Op: "search expenses", StatusCode: 502, Message: "Failed to search expenses"})
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	logger.Warn("Expense page failed to load", "error", reqErr)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "search expenses: status 502", rec["error"])
	assert.Equal(t, "Failed to search expenses", reqErr.Error())

	cause := &RequestError{Op: "get categories", Message: "Failed to load categories", Err: io.ErrUnexpectedEOF}
	assert.Equal(t, "get categories: unexpected EOF", cause.LogValue().String())
	assert.Equal(t, "get categories", (&RequestError{Op: "get categories"}).Detail())
}
