// Package listing holds the state machine behind a filterable, paginated
// expense list.
//
// Reduce and Apply are pure. Every accepted transition bumps Generation; a
// fetch result is applied only while its generation is still current, so a
// slow response for a superseded filter or page never overwrites a newer one.
package listing

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/fintrack"
)

// DefaultPageSize is the all-expenses page size.
const DefaultPageSize = 10

const loadFailed = "Failed to load expenses"

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Filters is an inclusive transaction date range. Blank bounds are open.
type Filters struct {
	From string
	To   string
}

func (f Filters) normalized() Filters {
	return Filters{From: strings.TrimSpace(f.From), To: strings.TrimSpace(f.To)}
}

// IsZero reports whether no bound is set.
func (f Filters) IsZero() bool {
	n := f.normalized()
	return n.From == "" && n.To == ""
}

type ActionKind int

const (
	ActionMount ActionKind = iota
	ActionReload
	ActionSetFilters
	ActionSetFrom
	ActionSetTo
	ActionClearFilters
	ActionNextPage
	ActionPrevPage
)

type Action struct {
	Kind    ActionKind
	Filters Filters
	Date    string
}

func Mount() Action        { return Action{Kind: ActionMount} }
func Reload() Action       { return Action{Kind: ActionReload} }
func ClearFilters() Action { return Action{Kind: ActionClearFilters} }
func NextPage() Action     { return Action{Kind: ActionNextPage} }
func PrevPage() Action     { return Action{Kind: ActionPrevPage} }

func SetFilters(f Filters) Action { return Action{Kind: ActionSetFilters, Filters: f} }
func SetFrom(date string) Action  { return Action{Kind: ActionSetFrom, Date: date} }
func SetTo(date string) Action    { return Action{Kind: ActionSetTo, Date: date} }

// State is one list view. Result is nil until a fetch succeeds and again
// after one fails.
type State struct {
	Filters      Filters
	Page         int
	PageSize     int
	Status       Status
	Result       *core.Page[core.Expense]
	ErrorMessage string
	Generation   uint64
}

// NewState returns an unmounted view.
func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{PageSize: pageSize, Status: StatusLoading}
}

// Reduce returns the state after a and whether a fetch is now due. Rejected
// actions return s unchanged and false.
func Reduce(s State, a Action) (State, bool) {
	switch a.Kind {
	case ActionMount, ActionReload:
		return begin(s), true

	case ActionSetFilters:
		return changeFilters(s, a.Filters)
	case ActionSetFrom:
		return changeFilters(s, Filters{From: a.Date, To: s.Filters.To})
	case ActionSetTo:
		return changeFilters(s, Filters{From: s.Filters.From, To: a.Date})
	case ActionClearFilters:
		return changeFilters(s, Filters{})

	case ActionNextPage:
		if !s.CanGoNext() {
			return s, false
		}
		s.Page++
		return begin(s), true
	case ActionPrevPage:
		if !s.CanGoPrev() {
			return s, false
		}
		s.Page--
		return begin(s), true
	}
	return s, false
}

func changeFilters(s State, f Filters) (State, bool) {
	f = f.normalized()
	if f == s.Filters {
		return s, false
	}
	s.Filters = f
	s.Page = 0
	return begin(s), true
}

func begin(s State) State {
	s.Status = StatusLoading
	s.ErrorMessage = ""
	s.Generation++
	return s
}

// Apply folds a fetch result issued at generation into s. It reports false,
// leaving s untouched, when the result is stale.
func Apply(s State, generation uint64, page core.Page[core.Expense], err error) (State, bool) {
	if generation != s.Generation {
		return s, false
	}
	if err == nil {
		err = page.Valid()
	}
	if err != nil {
		s.Status = StatusError
		s.ErrorMessage = fintrack.Message(err, loadFailed)
		s.Result = nil
		return s, true
	}
	s.Status = StatusReady
	s.ErrorMessage = ""
	s.Result = &page
	return s, true
}

// Query is the search the current state wants.
func (s State) Query() core.SearchParams {
	return core.SearchParams{
		From: s.Filters.From,
		To:   s.Filters.To,
		Page: core.IntPtr(s.Page),
		Size: core.IntPtr(s.PageSize),
	}
}

func (s State) totalPages() int {
	if s.Result == nil {
		return 0
	}
	return s.Result.TotalPages
}

// CanGoNext reports whether a later page exists.
func (s State) CanGoNext() bool {
	total := s.totalPages()
	return total > 0 && s.Page < total-1
}

// CanGoPrev reports whether an earlier page exists.
func (s State) CanGoPrev() bool {
	return s.Page > 0
}

// HasFilters reports whether any date bound is set.
func (s State) HasFilters() bool {
	return !s.Filters.IsZero()
}

// Rows is the current page content, empty unless ready.
func (s State) Rows() []core.Expense {
	if s.Status != StatusReady || s.Result == nil {
		return nil
	}
	return s.Result.Content
}

// Range describes the visible records, e.g. "Showing 1-10 of 25 records".
func (s State) Range() string {
	r := s.Result
	if r == nil || len(r.Content) == 0 {
		var total int64
		if r != nil {
			total = r.TotalElements
		}
		return fmt.Sprintf("Showing 0-0 of %d records", total)
	}
	first := r.Number*r.Size + 1
	last := first + len(r.Content) - 1
	return fmt.Sprintf("Showing %d-%d of %d records", first, last, r.TotalElements)
}

// PageLabel is "Page x of y", or "Page 0 of 0" with nothing loaded.
func (s State) PageLabel() string {
	total := s.totalPages()
	if total == 0 {
		return "Page 0 of 0"
	}
	return fmt.Sprintf("Page %d of %d", s.Page+1, total)
}
