package core

import "github.com/shopspring/decimal"

// Summary totals a record set for the grid footer.
type Summary struct {
	Records       int
	TotalIncomes  decimal.Decimal
	TotalExpenses decimal.Decimal
}

func Summarize(records []Record) Summary {
	s := Summary{Records: len(records), TotalIncomes: decimal.Zero, TotalExpenses: decimal.Zero}
	for _, r := range records {
		s.TotalIncomes = s.TotalIncomes.Add(r.TotalIncomes)
		s.TotalExpenses = s.TotalExpenses.Add(r.TotalExpenses)
	}
	return s
}

// Balance is incomes minus expenses.
func (s Summary) Balance() decimal.Decimal {
	return s.TotalIncomes.Sub(s.TotalExpenses)
}
