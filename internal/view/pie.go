package view

import (
	"github.com/shopspring/decimal"

	"savings/internal/core"
)

// PieSlice is one chart entry.
type PieSlice struct {
	ID    int64
	Label string
	Value decimal.Decimal
}

// PieSeries maps each record to a slice valued by its saving percentage,
// preserving order. No records gives an empty, non-nil series.
func PieSeries(records []core.Record) []PieSlice {
	series := make([]PieSlice, len(records))
	for i, rec := range records {
		series[i] = PieSlice{ID: rec.ID, Label: rec.Name, Value: rec.PctgOfSaving}
	}
	return series
}
