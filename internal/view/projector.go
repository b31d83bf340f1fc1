package view

import (
	"sync"

	"savings/internal/core"
)

// Projector caches the rows and series of one record set. Callers pass a
// generation that changes whenever the set is replaced; both derivations are
// recomputed only when it does.
type Projector struct {
	target Loader

	mu       sync.Mutex
	valid    bool
	gen      uint64
	rows     []GridRow
	series   []PieSlice
	computed int
}

// NewProjector returns a projector whose grid rows edit into target.
func NewProjector(target Loader) *Projector {
	return &Projector{target: target}
}

// Project returns the rows and series for records at generation gen.
func (p *Projector) Project(gen uint64, records []core.Record) ([]GridRow, []PieSlice) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.valid || p.gen != gen {
		p.rows = GridRows(records, p.target)
		p.series = PieSeries(records)
		p.gen = gen
		p.valid = true
		p.computed++
	}
	return p.rows, p.series
}

// Computations reports how many times the derivations ran.
func (p *Projector) Computations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.computed
}
