package view

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"savings/internal/core"
)

type csvRow struct {
	ID            int64  `csv:"id"`
	Name          string `csv:"name"`
	TotalIncomes  string `csv:"total_incomes"`
	TotalExpenses string `csv:"total_expenses"`
	PctgOfSaving  string `csv:"pctg_of_saving"`
}

// WriteCSV writes the grid columns of records as CSV with a header row.
// Amounts are written as plain decimals so the file re-imports cleanly.
func WriteCSV(w io.Writer, records []core.Record) error {
	rows := make([]*csvRow, len(records))
	for i, r := range records {
		rows[i] = &csvRow{
			ID:            r.ID,
			Name:          r.Name,
			TotalIncomes:  r.TotalIncomes.String(),
			TotalExpenses: r.TotalExpenses.String(),
			PctgOfSaving:  r.PctgOfSaving.String(),
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
