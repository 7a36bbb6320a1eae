package http

import (
	"context"
	"net/http"
	"sync/atomic"

	"fintrack/internal/listing"
	applog "fintrack/internal/log"
)

type listView struct {
	ViewID string
	State  listing.State
}

func (s *Server) newListView() (string, *listing.Controller) {
	ctrl := listing.NewController(s.api, s.pageSize, s.logger)
	return s.registry.Lists.Add(ctrl), ctrl
}

// lookupList returns the view for id, registering a fresh one when id is
// unknown or has expired.
func (s *Server) lookupList(id string) (string, *listing.Controller) {
	if ctrl, ok := s.registry.Lists.Get(id); ok {
		return id, ctrl
	}
	return s.newListView()
}

// handleExpensesPage renders the all-expenses page. The list itself loads
// through /ui/expenses once the page is on screen.
func (s *Server) handleExpensesPage(w http.ResponseWriter, r *http.Request) {
	id, _ := s.newListView()

	data := struct {
		pageView
		ViewID string
	}{
		pageView: pageView{Title: "All expenses", Nav: "expenses"},
		ViewID:   id,
	}
	s.writeTemplate(w, r, "expenses.html", data)
}

// handleExpenseList mounts the view on its first request and reloads it
// afterwards, e.g. when a new expense was created.
func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	id, ctrl := s.lookupList(r.URL.Query().Get(paramView))
	action := listing.Reload()
	if ctrl.State().Generation == 0 {
		action = listing.Mount()
	}
	s.dispatchList(w, r, id, ctrl, action)
}

func (s *Server) handleListFilter(w http.ResponseWriter, r *http.Request) {
	s.handleListAction(w, r, ParseFilterAction)
}

func (s *Server) handleListClear(w http.ResponseWriter, r *http.Request) {
	s.handleListAction(w, r, func(*RequestBodyParser) listing.Action { return listing.ClearFilters() })
}

func (s *Server) handleListNext(w http.ResponseWriter, r *http.Request) {
	s.handleListAction(w, r, func(*RequestBodyParser) listing.Action { return listing.NextPage() })
}

func (s *Server) handleListPrev(w http.ResponseWriter, r *http.Request) {
	s.handleListAction(w, r, func(*RequestBodyParser) listing.Action { return listing.PrevPage() })
}

func (s *Server) handleListAction(w http.ResponseWriter, r *http.Request, action func(*RequestBodyParser) listing.Action) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	id, ctrl := s.lookupList(p.Get(paramView))
	s.dispatchList(w, r, id, ctrl, action(p))
}

// dispatchList runs a on the view and renders the result. A response that a
// newer request superseded is answered with 204 so htmx keeps the newer swap.
func (s *Server) dispatchList(w http.ResponseWriter, r *http.Request, id string, ctrl *listing.Controller, a listing.Action) {
	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	st, current := ctrl.Dispatch(ctx, a)
	if !current && ctrl.Closed() {
		// The view was evicted after lookup. Nothing newer will answer for
		// it, so the request gets a fresh view instead of a 204.
		s.logger.DebugContext(ctx, "List view closed mid-request, remounting",
			applog.FieldViewID, id)
		id, ctrl = s.newListView()
		st, current = ctrl.Dispatch(ctx, a)
	}
	if current && st.Generation == 0 {
		// A view that never loaded has nothing to show for a rejected action.
		st, current = ctrl.Dispatch(ctx, listing.Mount())
	}
	if !current {
		atomic.AddInt64(&s.appMetrics.staleResponses, 1)
		s.logger.DebugContext(ctx, "Superseded list response dropped",
			applog.FieldViewID, id,
			applog.FieldGeneration, st.Generation)
		NoContent().Write(w)
		return
	}
	s.writeTemplate(w, r, "expense_list", listView{ViewID: id, State: st})
}
