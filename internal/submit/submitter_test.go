package submit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/fintrack"
	"fintrack/internal/suggest"
)

type fakeCreator struct {
	mu       sync.Mutex
	requests []core.CreateExpenseRequest
	err      error
	gate     chan struct{}
	entered  chan struct{}
}

func (f *fakeCreator) CreateExpense(_ context.Context, req core.CreateExpenseRequest) (core.Expense, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return core.Expense{}, f.err
	}
	return core.Expense{ID: 7, TxnDate: req.TxnDate, Amount: req.Amount, Item: req.Item, EntryType: req.EntryType}, nil
}

func (f *fakeCreator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakePublisher struct {
	published []core.Expense
	err       error
}

func (p *fakePublisher) PublishExpenseCreated(_ context.Context, e core.Expense) error {
	p.published = append(p.published, e)
	return p.err
}

func TestSubmitValidationNeverCallsAPI(t *testing.T) {
	creator := &fakeCreator{}
	s := NewSubmitter(creator)

	f := validForm()
	f.TxnDate = ""
	f.Amount = "5"
	f.Item = "milk"

	out := s.Submit(context.Background(), f)
	assert.Equal(t, OutcomeValidation, out.Kind)
	assert.Equal(t, "Please fill date, amount, and item.", out.Message)
	assert.Equal(t, f, out.Form)
	assert.Zero(t, creator.calls())

	for _, amount := range []string{"0", "-3"} {
		f := validForm()
		f.Amount = amount
		out := s.Submit(context.Background(), f)
		assert.Equal(t, OutcomeValidation, out.Kind, amount)
	}
	assert.Zero(t, creator.calls())
}

func TestSubmitSuccess(t *testing.T) {
	creator := &fakeCreator{}
	pub := &fakePublisher{}
	s := NewSubmitter(creator, WithPublisher(pub))

	f := validForm()
	f.Amount = "0.01"
	f.Notes = "note"
	f.CategoryName = "  "

	out := s.Submit(context.Background(), f)
	require.True(t, out.OK())
	assert.Equal(t, "Expense added successfully", out.Message)
	assert.Empty(t, out.Form.Amount)
	assert.Empty(t, out.Form.Item)
	assert.Empty(t, out.Form.Notes)
	assert.Equal(t, f.TxnDate, out.Form.TxnDate)
	assert.Equal(t, f.CategoryName, out.Form.CategoryName, "category is kept for the next entry")
	assert.Equal(t, f.MerchantName, out.Form.MerchantName)
	assert.Equal(t, f.PaidBy, out.Form.PaidBy)
	require.NotNil(t, out.Expense)
	assert.Equal(t, int64(7), out.Expense.ID)

	require.Equal(t, 1, creator.calls())
	assert.Nil(t, creator.requests[0].CategoryName)
	assert.Equal(t, "0.01", creator.requests[0].Amount.String())
	require.Len(t, pub.published, 1)
	assert.False(t, s.pending())
}

func TestSubmitPublishFailureDoesNotChangeOutcome(t *testing.T) {
	s := NewSubmitter(&fakeCreator{}, WithPublisher(&fakePublisher{err: errors.New("channel closed")}))
	out := s.Submit(context.Background(), validForm())
	assert.Equal(t, OutcomeSuccess, out.Kind)
}

func TestSubmitSurfacesAPIMessage(t *testing.T) {
	creator := &fakeCreator{err: &fintrack.RequestError{
		StatusCode: 400,
		Message:    "Failed to create expense: Amount must be positive",
	}}
	s := NewSubmitter(creator)

	f := validForm()
	out := s.Submit(context.Background(), f)
	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, "Failed to create expense: Amount must be positive", out.Message)
	assert.Equal(t, f, out.Form, "form is untouched on failure")

	creator.err = errors.New("opaque")
	out = s.Submit(context.Background(), f)
	assert.Equal(t, "Failed to save expense", out.Message)
}

func TestSubmitIsSingleFlight(t *testing.T) {
	creator := &fakeCreator{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := NewSubmitter(creator)

	done := make(chan Outcome, 1)
	go func() { done <- s.Submit(context.Background(), validForm()) }()

	select {
	case <-creator.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the API")
	}
	assert.True(t, s.pending())

	busy := s.Submit(context.Background(), validForm())
	assert.Equal(t, OutcomeBusy, busy.Kind)
	assert.ErrorIs(t, busy.Err, ErrBusy)

	close(creator.gate)
	assert.Equal(t, OutcomeSuccess, (<-done).Kind)
	assert.Equal(t, 1, creator.calls())

	again := s.Submit(context.Background(), validForm())
	assert.Equal(t, OutcomeSuccess, again.Kind)
}

// blockingPublisher holds every publish until gate is closed.
type blockingPublisher struct {
	entered chan struct{}
	gate    chan struct{}
}

func (p *blockingPublisher) PublishExpenseCreated(context.Context, core.Expense) error {
	p.entered <- struct{}{}
	<-p.gate
	return nil
}

func TestSlowPublishDoesNotHoldForm(t *testing.T) {
	pub := &blockingPublisher{entered: make(chan struct{}, 2), gate: make(chan struct{})}
	creator := &fakeCreator{}
	s := NewSubmitter(creator, WithPublisher(pub))

	done := make(chan Outcome, 1)
	go func() { done <- s.Submit(context.Background(), validForm()) }()

	select {
	case <-pub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never published")
	}
	assert.False(t, s.pending())

	second := make(chan Outcome, 1)
	go func() { second <- s.Submit(context.Background(), validForm()) }()
	select {
	case <-pub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("second submission was held by the first publish")
	}
	assert.Equal(t, 2, creator.calls())

	close(pub.gate)
	assert.Equal(t, OutcomeSuccess, (<-done).Kind)
	assert.Equal(t, OutcomeSuccess, (<-second).Kind)
}

type stubLoader struct {
	sources suggest.Sources
	gate    chan struct{}
}

func (l stubLoader) Load(context.Context) suggest.Sources {
	if l.gate != nil {
		<-l.gate
	}
	return l.sources
}

func TestFormInstance(t *testing.T) {
	in := NewFormInstance(NewSubmitter(&fakeCreator{}), Defaults{PaidBy: "parth"})
	assert.Empty(t, in.Suggest(suggest.FieldItem, ""))

	loaded := stubLoader{sources: suggest.Sources{
		Items:      suggest.NewIndex([]string{"Milk", "Bread"}),
		Categories: suggest.NewIndex([]string{"Groceries"}),
		Merchants:  suggest.NewIndex(nil),
	}}
	require.True(t, in.Load(context.Background(), loaded))
	assert.True(t, in.isLoaded())
	assert.Equal(t, []string{"Milk"}, in.Suggest(suggest.FieldItem, "mi"))
	assert.Equal(t, []string{"Groceries"}, in.Suggest(suggest.FieldCategory, ""))

	out := in.Submit(context.Background(), validForm())
	require.True(t, out.OK())
	assert.Empty(t, in.Form().Item)
	assert.Equal(t, MsgSuccess, out.Message)
}

func TestFormInstanceDropsLateLoad(t *testing.T) {
	in := NewFormInstance(NewSubmitter(&fakeCreator{}), Defaults{})
	slow := stubLoader{
		sources: suggest.Sources{Items: suggest.NewIndex([]string{"late"})},
		gate:    make(chan struct{}),
	}

	done := make(chan bool, 1)
	go func() { done <- in.Load(context.Background(), slow) }()

	in.Close()
	close(slow.gate)

	assert.False(t, <-done)
	assert.False(t, in.isLoaded())
	assert.Empty(t, in.Suggest(suggest.FieldItem, ""))
	assert.True(t, in.Closed())
	assert.False(t, in.Load(context.Background(), slow))
}
