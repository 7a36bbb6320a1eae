package http

import (
	"context"
	"net/http"

	"fintrack/internal/fintrack"
	"fintrack/internal/listing"
)

const analyticsFailed = "Failed to load monthly analytics"

type pageView struct {
	Title string
	Nav   string
}

// handleDashboard renders the dashboard: summary cards and recent
// transactions load as partials, the expense form is mounted here.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, in := s.mountForm(r.Context())

	data := struct {
		pageView
		Form formView
	}{
		pageView: pageView{Title: "Dashboard", Nav: "dashboard"},
		Form:     s.newFormView(id, in.Form(), nil),
	}
	s.writeTemplate(w, r, "dashboard.html", data)
}

type analyticsView struct {
	Expenditure string
	Earnings    string
	Savings     string
	Negative    bool
	Error       string
}

// handleAnalytics renders the current month summary cards.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	var v analyticsView
	a, err := s.api.GetMonthlyAnalytics(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Monthly analytics failed", "error", err)
		v.Error = fintrack.Message(err, analyticsFailed)
	} else {
		v.Expenditure = formatINR(a.TotalExpenditure)
		v.Earnings = formatINR(a.TotalEarnings)
		v.Savings = formatINR(a.TotalBalance)
		v.Negative = a.TotalBalance.IsNegative()
	}
	s.writeTemplate(w, r, "analytics", v)
}

// handleRecent renders the latest transactions. Each render is a one-shot
// list view: mounted, fetched once and closed.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	ctrl := listing.NewController(s.api, s.recentLimit, s.logger)
	defer ctrl.Close()

	st, _ := ctrl.Dispatch(ctx, listing.Mount())
	s.writeTemplate(w, r, "recent", struct{ State listing.State }{st})
}
