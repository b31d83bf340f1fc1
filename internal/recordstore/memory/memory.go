package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"savings/internal/core"
	"savings/internal/recordstore"
)

var hundred = decimal.NewFromInt(100)

// Store keeps records in process. Upserts are keyed by name: an unknown name
// creates a record with the next id, a known name updates it in place.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Record
	byName map[string]int
}

// Ensure interface conformance
var _ recordstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1, byName: map[string]int{}}
}

// NewFromFile seeds the store from a file of "name;incomes;expenses" lines.
// Blank lines and lines starting with # are skipped. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		req, err := parseSeedLine(line)
		if err != nil {
			return nil, fmt.Errorf("seed line %d: %w", lineNo, err)
		}
		s.upsert(req)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return s, nil
}

func parseSeedLine(line string) (core.UpsertRequest, error) {
	parts := strings.Split(line, ";")
	if len(parts) != 3 {
		return core.UpsertRequest{}, fmt.Errorf("expected name;incomes;expenses, got %q", line)
	}
	incomes, err := core.ParseAmount(parts[1])
	if err != nil {
		return core.UpsertRequest{}, fmt.Errorf("incomes: %w", err)
	}
	expenses, err := core.ParseAmount(parts[2])
	if err != nil {
		return core.UpsertRequest{}, fmt.Errorf("expenses: %w", err)
	}
	req := core.UpsertRequest{Name: strings.TrimSpace(parts[0]), TotalIncomes: incomes, TotalExpenses: expenses}
	return req, req.Validate()
}

// FetchAll returns a copy of the records in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Upsert creates or updates the record named req.Name.
func (s *Store) Upsert(ctx context.Context, req core.UpsertRequest) recordstore.Outcome {
	if err := ctx.Err(); err != nil {
		return recordstore.Failed(err)
	}
	if err := req.Validate(); err != nil {
		return recordstore.Declined(err.Error())
	}
	s.upsert(req)
	return recordstore.Accepted()
}

func (s *Store) upsert(req core.UpsertRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := core.Record{
		Name:          req.Name,
		TotalIncomes:  req.TotalIncomes,
		TotalExpenses: req.TotalExpenses,
		PctgOfSaving:  SavingPercentage(req.TotalIncomes, req.TotalExpenses),
	}
	if idx, ok := s.byName[req.Name]; ok {
		rec.ID = s.items[idx].ID
		s.items[idx] = rec
		return
	}
	rec.ID = s.nextID
	s.nextID++
	s.byName[req.Name] = len(s.items)
	s.items = append(s.items, rec)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// SavingPercentage is (incomes-expenses)/incomes*100 rounded to 2 places; 0 without incomes.
func SavingPercentage(incomes, expenses decimal.Decimal) decimal.Decimal {
	if !incomes.IsPositive() {
		return decimal.Zero
	}
	return incomes.Sub(expenses).Div(incomes).Mul(hundred).Round(2)
}
