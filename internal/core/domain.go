package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Record is one income/expense entry as held by the record store.
	// ID and PctgOfSaving are assigned by the store and never computed here.
	Record struct {
		ID            int64           `json:"id"`
		Name          string          `json:"name"`
		TotalIncomes  decimal.Decimal `json:"total_incomes"`
		TotalExpenses decimal.Decimal `json:"total_expenses"`
		PctgOfSaving  decimal.Decimal `json:"pctg_of_saving"`
	}

	// UpsertRequest is a create-or-update write keyed by Name.
	UpsertRequest struct {
		Name          string
		TotalIncomes  decimal.Decimal
		TotalExpenses decimal.Decimal
	}

	// RecordSaved is emitted after the store accepted an upsert.
	RecordSaved struct {
		Name          string
		TotalIncomes  decimal.Decimal
		TotalExpenses decimal.Decimal
		ChangeCount   uint64
		SavedAt       time.Time
	}
)

const MaxNameLength = 200

var (
	ErrEmptyName      = errors.New("empty name")
	ErrNameTooLong    = errors.New("name too long (max 200 characters)")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("negative amount")
)

func (u UpsertRequest) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if len(u.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if u.TotalIncomes.IsNegative() || u.TotalExpenses.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// Clone returns a copy of records so callers can hand it out without sharing the backing array.
func Clone(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
