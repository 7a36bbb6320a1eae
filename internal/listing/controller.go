package listing

import (
	"context"
	"sync"

	"fintrack/internal/fintrack"
	applog "fintrack/internal/log"
)

// Controller owns one list view. Dispatch may be called from concurrent
// requests; the fetch runs outside the lock.
type Controller struct {
	mu       sync.Mutex
	state    State
	closed   bool
	searcher fintrack.ExpenseSearcher
	logger   *applog.Logger
}

func NewController(searcher fintrack.ExpenseSearcher, pageSize int, logger *applog.Logger) *Controller {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Controller{
		state:    NewState(pageSize),
		searcher: searcher,
		logger:   logger.WithComponent(applog.ComponentListing),
	}
}

// State returns a snapshot of the view.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch reduces a, runs the fetch it calls for and applies the result.
// It returns the latest state and whether that state reflects this call;
// false means a newer dispatch or Close superseded it.
func (c *Controller) Dispatch(ctx context.Context, a Action) (State, bool) {
	c.mu.Lock()
	if c.closed {
		st := c.state
		c.mu.Unlock()
		return st, false
	}
	next, fetch := Reduce(c.state, a)
	c.state = next
	c.mu.Unlock()

	if !fetch {
		return next, true
	}

	gen := next.Generation
	page, err := c.searcher.SearchExpenses(ctx, next.Query())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.state, false
	}
	applied, current := Apply(c.state, gen, page, err)
	if !current {
		c.logger.DebugContext(ctx, "Discarding stale expense page",
			applog.FieldGeneration, gen,
			applog.FieldPage, next.Page)
		return c.state, false
	}
	if applied.Status == StatusError {
		c.logger.WarnContext(ctx, "Expense page failed to load",
			applog.FieldOperation, applog.OpSearch,
			applog.FieldPage, next.Page,
			applog.FieldError, err)
	}
	c.state = applied
	return applied, true
}

// Close tears the view down. In-flight results are discarded and later
// dispatches are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.state.Generation++
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
