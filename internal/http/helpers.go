package http

import (
	"strings"

	"savings/internal/core"
	"savings/internal/session"
	"savings/internal/view"
)

// sanitizeInput removes control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// pageNumbers lists 1..n for the pager.
func pageNumbers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// formView is the data rendered by the form template.
type formView struct {
	Name          string
	TotalIncomes  string
	TotalExpenses string
	ChangeCount   uint64
	Errors        map[string]string
}

func newFormView(f session.Fields, verr *session.ValidationError) formView {
	v := formView{
		Name:          f.Name,
		TotalIncomes:  f.TotalIncomes.Text,
		TotalExpenses: f.TotalExpenses.Text,
		ChangeCount:   f.ChangeCount,
		Errors:        map[string]string{},
	}
	if verr != nil {
		for _, p := range verr.Problems {
			v.Errors[p.Field] = p.Message
		}
	}
	return v
}

// gridView is the data rendered by the grid template.
type gridView struct {
	Page        view.Page
	PageNumbers []int
	PageSizes   []int
	Summary     summaryView
}

type summaryView struct {
	Count         int
	TotalIncomes  string
	TotalExpenses string
	Balance       string
}

func newSummaryView(records []core.Record) summaryView {
	s := core.Summarize(records)
	return summaryView{
		Count:         s.Records,
		TotalIncomes:  core.FormatAmount(s.TotalIncomes),
		TotalExpenses: core.FormatAmount(s.TotalExpenses),
		Balance:       core.FormatAmount(s.Balance()),
	}
}

// chartView is the data rendered by the chart template.
type chartView struct {
	Arcs     []view.Arc
	Geometry view.Geometry
	Width    float64
	Height   float64
}

func newChartView(series []view.PieSlice) chartView {
	g := view.DefaultGeometry
	return chartView{
		Arcs:     view.Donut(series, g),
		Geometry: g,
		Width:    g.CX * 2,
		Height:   g.CY * 2,
	}
}

// pageView is the data rendered by the full page.
type pageView struct {
	Form  formView
	Grid  gridView
	Chart chartView
}
