package suggest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/fintrack"
	applog "fintrack/internal/log"
)

// Field names a suggestion source.
type Field string

const (
	FieldItem     Field = "item"
	FieldCategory Field = "category"
	FieldMerchant Field = "merchant"
)

// ParseField maps a request parameter to a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldItem, FieldCategory, FieldMerchant:
		return f, nil
	default:
		return "", fmt.Errorf("unknown suggestion field %q", s)
	}
}

// Sources holds the candidate indexes backing an expense form.
// A source that failed to load is empty.
type Sources struct {
	Items      *Index
	Categories *Index
	Merchants  *Index
}

// EmptySources is what a form shows before its lookups complete.
func EmptySources() Sources {
	return Sources{
		Items:      NewIndex(nil),
		Categories: NewIndex(nil),
		Merchants:  NewIndex(nil),
	}
}

// For returns the index behind field.
func (s Sources) For(field Field) *Index {
	switch field {
	case FieldItem:
		return s.Items
	case FieldCategory:
		return s.Categories
	case FieldMerchant:
		return s.Merchants
	default:
		return nil
	}
}

// Backend is what Loader needs from the API.
type Backend interface {
	fintrack.ExpenseLister
	fintrack.CategorySearcher
	fintrack.MerchantSearcher
}

// Loader fetches the three candidate sources concurrently.
type Loader struct {
	backend Backend
	logger  *applog.Logger
}

func NewLoader(backend Backend, logger *applog.Logger) *Loader {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Loader{
		backend: backend,
		logger:  logger.WithComponent(applog.ComponentSuggest),
	}
}

// Load waits for every lookup. A failed lookup is logged and its source is
// left empty; it never fails the others.
func (l *Loader) Load(ctx context.Context) Sources {
	var items, categories, merchants []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		expenses, err := l.backend.GetExpenses(gctx)
		if err != nil {
			l.logFailure(ctx, FieldItem, err)
			return nil
		}
		items = make([]string, 0, len(expenses))
		for _, e := range expenses {
			items = append(items, e.Item)
		}
		return nil
	})
	g.Go(func() error {
		cats, err := l.backend.SearchCategories(gctx, "")
		if err != nil {
			l.logFailure(ctx, FieldCategory, err)
			return nil
		}
		categories = names(cats, func(c core.Category) string { return c.Name })
		return nil
	})
	g.Go(func() error {
		ms, err := l.backend.SearchMerchants(gctx, "")
		if err != nil {
			l.logFailure(ctx, FieldMerchant, err)
			return nil
		}
		merchants = names(ms, func(m core.Merchant) string { return m.Name })
		return nil
	})
	_ = g.Wait()

	return Sources{
		Items:      NewIndex(items),
		Categories: NewIndex(categories),
		Merchants:  NewIndex(merchants),
	}
}

func (l *Loader) logFailure(ctx context.Context, field Field, err error) {
	l.logger.WarnContext(ctx, "Suggestion source failed to load",
		applog.FieldOperation, applog.OpLookup,
		applog.FieldSource, string(field),
		applog.FieldError, err)
}

func names[T any](in []T, name func(T) string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, name(v))
	}
	return out
}
