package http

import (
	"context"
	"net/http"
	"slices"
	"sync/atomic"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/submit"
	"fintrack/internal/suggest"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

// formView is what the expense_form template renders.
type formView struct {
	FormID         string
	Form           submit.Form
	PaymentMethods []option
	EntryTypes     []option
	Banks          []option
	Payers         []option
	Status         string
	StatusKind     string
}

func (s *Server) newFormView(id string, f submit.Form, out *submit.Outcome) formView {
	v := formView{FormID: id, Form: f}

	for _, m := range core.PaymentMethods() {
		v.PaymentMethods = append(v.PaymentMethods, option{string(m), m.Label(), f.PaymentMethod == string(m)})
	}
	for _, e := range core.EntryTypes() {
		v.EntryTypes = append(v.EntryTypes, option{string(e), e.Label(), f.EntryType == string(e)})
	}

	banks := make([]string, 0, len(core.Banks())+1)
	for _, b := range core.Banks() {
		banks = append(banks, string(b))
	}
	v.Banks = choices(banks, f.Bank)
	v.Payers = choices(s.payers, f.PaidBy)

	if out != nil {
		v.Status = out.Message
		v.StatusKind = "error"
		if out.OK() {
			v.StatusKind = "success"
		}
	}
	return v
}

// choices builds select options, keeping a current value that is not one of
// the offered ones.
func choices(values []string, current string) []option {
	opts := make([]option, 0, len(values)+1)
	for _, val := range values {
		opts = append(opts, option{val, val, val == current})
	}
	if current != "" && !slices.Contains(values, current) {
		opts = append(opts, option{current, current, true})
	}
	return opts
}

// mountForm registers a fresh form instance and starts loading its
// suggestion sources. The page does not wait for them; a load that finishes
// after the instance is evicted is dropped.
func (s *Server) mountForm(ctx context.Context) (string, *submit.FormInstance) {
	opts := []submit.SubmitterOption{submit.WithLogger(s.logger)}
	if s.publisher != nil {
		opts = append(opts, submit.WithPublisher(s.publisher))
	}
	in := submit.NewFormInstance(
		submit.NewSubmitter(s.api, opts...),
		submit.Defaults{PaidBy: s.defaultPayer},
	)
	id := s.registry.Forms.Add(in)

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backendTimeout)
	go func() {
		defer cancel()
		if !in.Load(loadCtx, s.loader) {
			s.logger.DebugContext(loadCtx, "Discarding suggestion sources for closed form",
				applog.FieldFormID, id)
		}
	}()
	return id, in
}

// handleCreateExpense submits the posted form and re-renders it with the
// outcome. Success raises expense:created so the widgets and lists refresh.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Parse form error",
			applog.FieldError, err,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	formID := p.Get(paramForm)
	in, ok := s.registry.Forms.Get(formID)
	if !ok {
		formID, in = s.mountForm(r.Context())
	}

	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	out := in.Submit(ctx, ParseExpenseForm(p))

	resp := NewHTMXResponse()
	switch out.Kind {
	case submit.OutcomeSuccess:
		e := out.Expense
		atomic.AddInt64(&s.appMetrics.totalExpenses, 1)
		s.structured.LogExpenseCreated(ctx, e.ID, e.Item, e.Amount.String(), string(e.EntryType))
		resp.TriggerExpenseCreated(e.ID)
	case submit.OutcomeFailed:
		atomic.AddInt64(&s.appMetrics.failedSubmits, 1)
	}

	body, err := s.render(ctx, "expense_form", s.newFormView(formID, out.Form, &out))
	if err != nil {
		InternalServerError("Something went wrong while rendering this view.").Write(w)
		return
	}
	resp.HTML(body).Write(w)
}

// handleSuggest renders datalist options for one field of a form.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	field, err := suggest.ParseField(q.Get(paramField))
	if err != nil {
		BadRequestError("Unknown suggestion field").Write(w)
		return
	}

	var values []string
	if in, ok := s.registry.Forms.Get(q.Get(paramForm)); ok {
		values = in.Suggest(field, suggestQuery(q, field))
	}
	s.writeTemplate(w, r, "suggestions", values)
}
