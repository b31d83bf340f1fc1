// Package view derives the grid rows and chart series shown for a record set.
// Everything here is a pure function of its input except the edit action a
// grid row carries, which writes into the form it was built for.
package view

import (
	"savings/internal/core"
)

// Loader receives a record when its grid row is selected for editing.
type Loader interface {
	LoadFromRecord(r core.Record)
}

// GridRow is one record in the grid plus its edit action.
type GridRow struct {
	Record core.Record
	target Loader
}

// Edit copies the row's record into the form it was built for.
func (r GridRow) Edit() {
	if r.target != nil {
		r.target.LoadFromRecord(r.Record)
	}
}

func (r GridRow) ID() int64            { return r.Record.ID }
func (r GridRow) Name() string         { return r.Record.Name }
func (r GridRow) TotalIncomes() string { return core.FormatAmount(r.Record.TotalIncomes) }
func (r GridRow) TotalExpenses() string { return core.FormatAmount(r.Record.TotalExpenses) }
func (r GridRow) PctgOfSaving() string { return core.FormatPercent(r.Record.PctgOfSaving) }

// GridRows returns one row per record, in input order, each editing into target.
func GridRows(records []core.Record, target Loader) []GridRow {
	rows := make([]GridRow, len(records))
	for i, rec := range records {
		rows[i] = GridRow{Record: rec, target: target}
	}
	return rows
}

// FindRow returns the row whose record has id.
func FindRow(rows []GridRow, id int64) (GridRow, bool) {
	for _, row := range rows {
		if row.Record.ID == id {
			return row, true
		}
	}
	return GridRow{}, false
}
