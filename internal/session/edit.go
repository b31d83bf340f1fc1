// Package session holds the per-browser form state and record board.
//
// An EditSession owns the in-progress form values and the submit protocol.
// A Board pairs one EditSession with the last fetched record set and keeps it
// current by refreshing after every accepted save.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"savings/internal/core"
	"savings/internal/recordstore"
)

// SaveObserver is told about every upsert the store accepted.
type SaveObserver interface {
	RecordSaved(ctx context.Context, event core.RecordSaved)
}

// SaveObserverFunc adapts a function to SaveObserver.
type SaveObserverFunc func(ctx context.Context, event core.RecordSaved)

func (f SaveObserverFunc) RecordSaved(ctx context.Context, event core.RecordSaved) {
	f(ctx, event)
}

// Fields is a snapshot of the form.
type Fields struct {
	Name          string
	TotalIncomes  NumberField
	TotalExpenses NumberField
	ChangeCount   uint64
}

// EditSession is safe for concurrent use.
type EditSession struct {
	gateway recordstore.Upserter
	now     func() time.Time

	mu          sync.Mutex
	name        string
	incomes     NumberField
	expenses    NumberField
	changeCount uint64
	observers   []SaveObserver
}

// NewEditSession returns an empty session writing through gateway.
func NewEditSession(gateway recordstore.Upserter) *EditSession {
	s := &EditSession{gateway: gateway, now: time.Now}
	s.reset()
	return s
}

// Subscribe registers an observer for accepted saves. Observers run in
// registration order on the submitting goroutine.
func (s *EditSession) Subscribe(o SaveObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Fields returns the current form state.
func (s *EditSession) Fields() Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Fields{
		Name:          s.name,
		TotalIncomes:  s.incomes,
		TotalExpenses: s.expenses,
		ChangeCount:   s.changeCount,
	}
}

// ChangeCount is the number of accepted saves so far.
func (s *EditSession) ChangeCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeCount
}

func (s *EditSession) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *EditSession) SetTotalIncomes(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = ParseNumberField(text)
}

func (s *EditSession) SetTotalExpenses(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = ParseNumberField(text)
}

// LoadFromRecord replaces the three form fields with r's values.
func (s *EditSession) LoadFromRecord(r core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = r.Name
	s.incomes = NumberFieldOf(r.TotalIncomes)
	s.expenses = NumberFieldOf(r.TotalExpenses)
}

// Reset clears the name and zeroes both totals.
func (s *EditSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *EditSession) reset() {
	s.name = ""
	s.incomes = NumberFieldOf(decimal.Zero)
	s.expenses = NumberFieldOf(decimal.Zero)
}

// Validate returns the upsert request the form would send, or a
// *ValidationError describing every invalid field.
func (s *EditSession) Validate() (core.UpsertRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request()
}

func (s *EditSession) request() (core.UpsertRequest, error) {
	var problems []FieldError

	switch {
	case strings.TrimSpace(s.name) == "":
		problems = append(problems, FieldError{FieldName, "Name is required"})
	case len(s.name) > core.MaxNameLength:
		problems = append(problems, FieldError{FieldName, "Name is too long"})
	}
	if msg := amountProblem("Total incomes", s.incomes); msg != "" {
		problems = append(problems, FieldError{FieldTotalIncomes, msg})
	}
	if msg := amountProblem("Total expenses", s.expenses); msg != "" {
		problems = append(problems, FieldError{FieldTotalExpenses, msg})
	}
	if len(problems) > 0 {
		return core.UpsertRequest{}, &ValidationError{Problems: problems}
	}

	// The name goes out as typed; the store keys records by it.
	return core.UpsertRequest{
		Name:          s.name,
		TotalIncomes:  s.incomes.Value.Decimal,
		TotalExpenses: s.expenses.Value.Decimal,
	}, nil
}

// Submit validates the form and, when valid, upserts it. An invalid form
// returns a *ValidationError and never reaches the gateway. On Success the
// change count goes up by one and observers are notified; the form fields are
// left as they were. Rejected and TransportFailure change nothing.
func (s *EditSession) Submit(ctx context.Context) (recordstore.Outcome, error) {
	req, err := s.Validate()
	if err != nil {
		return recordstore.Outcome{}, err
	}

	outcome := s.gateway.Upsert(ctx, req)
	if !outcome.OK() {
		return outcome, nil
	}

	s.mu.Lock()
	s.changeCount++
	event := core.RecordSaved{
		Name:          req.Name,
		TotalIncomes:  req.TotalIncomes,
		TotalExpenses: req.TotalExpenses,
		ChangeCount:   s.changeCount,
		SavedAt:       s.now().UTC(),
	}
	observers := append([]SaveObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.RecordSaved(ctx, event)
	}
	return outcome, nil
}
