package submit

import (
	"context"
	"errors"
	"sync/atomic"

	"fintrack/internal/core"
	"fintrack/internal/fintrack"
	applog "fintrack/internal/log"
)

const (
	MsgSuccess    = "Expense added successfully"
	MsgSaveFailed = "Failed to save expense"
	MsgBusy       = "Still saving the previous expense."
)

// ErrBusy rejects a submission while another is still pending.
var ErrBusy = errors.New("submission already in progress")

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeValidation
	OutcomeFailed
	OutcomeBusy
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidation:
		return "validation"
	case OutcomeFailed:
		return "failed"
	case OutcomeBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Submit call. Form is what the user should
// see next.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Form    Form
	Expense *core.Expense
	Err     error
}

// OK reports whether the expense was saved.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// EventPublisher is told about every saved expense.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
}

// Submitter sends forms to the backend, one at a time.
type Submitter struct {
	creator   fintrack.ExpenseCreator
	publisher EventPublisher
	logger    *applog.Logger
	inFlight  atomic.Bool
}

type SubmitterOption func(*Submitter)

// WithPublisher notifies p after each successful create.
func WithPublisher(p EventPublisher) SubmitterOption {
	return func(s *Submitter) {
		s.publisher = p
	}
}

func WithLogger(l *applog.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = l.WithComponent(applog.ComponentExpense)
	}
}

func NewSubmitter(creator fintrack.ExpenseCreator, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		creator: creator,
		logger:  applog.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pending reports whether a submission is in flight.
func (s *Submitter) pending() bool {
	return s.inFlight.Load()
}

// Submit validates f and creates the expense. A call made while another is
// pending returns OutcomeBusy at once; it is not queued. The event is
// published after the form is released, so a slow broker never blocks it.
func (s *Submitter) Submit(ctx context.Context, f Form) Outcome {
	if !s.inFlight.CompareAndSwap(false, true) {
		return Outcome{Kind: OutcomeBusy, Message: MsgBusy, Form: f, Err: ErrBusy}
	}
	saved, out := s.create(ctx, f)
	s.inFlight.Store(false)

	if out.OK() && s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, saved); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish expense created event",
				applog.FieldOperation, applog.OpPublish,
				applog.FieldExpenseID, saved.ID,
				applog.FieldError, err)
		}
	}
	return out
}

func (s *Submitter) create(ctx context.Context, f Form) (core.Expense, Outcome) {
	req, err := Validate(f)
	if err != nil {
		s.logger.DebugContext(ctx, "Expense form rejected",
			applog.FieldOperation, applog.OpValidate,
			applog.FieldError, err)
		return core.Expense{}, Outcome{Kind: OutcomeValidation, Message: err.Error(), Form: f, Err: err}
	}

	saved, err := s.creator.CreateExpense(ctx, req)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to create expense",
			applog.FieldOperation, applog.OpCreate,
			applog.FieldError, err)
		return core.Expense{}, Outcome{Kind: OutcomeFailed, Message: fintrack.Message(err, MsgSaveFailed), Form: f, Err: err}
	}
	return saved, Outcome{Kind: OutcomeSuccess, Message: MsgSuccess, Form: f.AfterSuccess(), Expense: &saved}
}
