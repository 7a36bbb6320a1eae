package fintrack

import (
	"context"

	"fintrack/internal/core"
)

// Ports consumed by the views. Each view depends on the narrowest one it needs.
type (
	ExpenseCreator interface {
		CreateExpense(ctx context.Context, req core.CreateExpenseRequest) (core.Expense, error)
	}

	ExpenseLister interface {
		GetExpenses(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseSearcher interface {
		SearchExpenses(ctx context.Context, params core.SearchParams) (core.Page[core.Expense], error)
	}

	CategorySearcher interface {
		SearchCategories(ctx context.Context, prefix string) ([]core.Category, error)
	}

	MerchantSearcher interface {
		SearchMerchants(ctx context.Context, prefix string) ([]core.Merchant, error)
	}

	AnalyticsReader interface {
		GetMonthlyAnalytics(ctx context.Context) (core.MonthlyAnalytics, error)
	}

	// API is everything the backend offers.
	API interface {
		ExpenseCreator
		ExpenseLister
		ExpenseSearcher
		CategorySearcher
		MerchantSearcher
		AnalyticsReader
	}
)

var _ API = (*Client)(nil)
