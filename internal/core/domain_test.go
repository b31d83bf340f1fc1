package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestUpsertRequestValidate(t *testing.T) {
	good := UpsertRequest{Name: "Rent", TotalIncomes: decimal.Zero, TotalExpenses: decimal.NewFromInt(1200)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		req UpsertRequest
		err error
	}{
		{UpsertRequest{Name: "", TotalIncomes: decimal.Zero, TotalExpenses: decimal.Zero}, ErrEmptyName},
		{UpsertRequest{Name: "   ", TotalIncomes: decimal.Zero, TotalExpenses: decimal.Zero}, ErrEmptyName},
		{UpsertRequest{Name: strings.Repeat("x", MaxNameLength+1)}, ErrNameTooLong},
		{UpsertRequest{Name: "a", TotalIncomes: decimal.NewFromInt(-1)}, ErrNegativeAmount},
		{UpsertRequest{Name: "a", TotalExpenses: decimal.NewFromInt(-1)}, ErrNegativeAmount},
	}
	for i, tc := range bads {
		if err := tc.req.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestCloneDoesNotShareBackingArray(t *testing.T) {
	in := []Record{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	out := Clone(in)
	out[0].Name = "changed"
	if in[0].Name != "a" {
		t.Fatalf("clone shares memory with input")
	}
	if Clone(nil) != nil {
		t.Fatalf("clone of nil should stay nil")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Record{
		{Name: "a", TotalIncomes: decimal.NewFromInt(1000), TotalExpenses: decimal.NewFromInt(400)},
		{Name: "b", TotalIncomes: decimal.NewFromInt(500), TotalExpenses: decimal.NewFromInt(700)},
	})
	if s.Records != 2 {
		t.Fatalf("records = %d", s.Records)
	}
	if !s.TotalIncomes.Equal(decimal.NewFromInt(1500)) || !s.TotalExpenses.Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("unexpected totals %s / %s", s.TotalIncomes, s.TotalExpenses)
	}
	if !s.Balance().Equal(decimal.NewFromInt(400)) {
		t.Fatalf("balance = %s", s.Balance())
	}
	if empty := Summarize(nil); empty.Records != 0 || !empty.TotalIncomes.IsZero() {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}
