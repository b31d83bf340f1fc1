package http

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"savings/internal/core"
	"savings/internal/recordstore"
)

// Metrics counts submit outcomes. It is registered as a save observer so
// accepted saves are counted once per notification.
type Metrics struct {
	saved              atomic.Int64
	rejected           atomic.Int64
	transportFailures  atomic.Int64
	validationFailures atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordSaved counts an accepted save.
func (m *Metrics) RecordSaved(context.Context, core.RecordSaved) {
	m.saved.Add(1)
}

// ObserveOutcome counts an unsuccessful gateway outcome.
func (m *Metrics) ObserveOutcome(o recordstore.Outcome) {
	switch o.Kind {
	case recordstore.Rejected:
		m.rejected.Add(1)
	case recordstore.TransportFailure:
		m.transportFailures.Add(1)
	}
}

// ObserveInvalid counts a submit stopped by form validation.
func (m *Metrics) ObserveInvalid() {
	m.validationFailures.Add(1)
}

// metric is one line of the plain text exposition.
type metric struct {
	name  string
	value any
}

func (m *Metrics) snapshot() []metric {
	return []metric{
		{"savings_records_saved_total", m.saved.Load()},
		{"savings_records_rejected_total", m.rejected.Load()},
		{"savings_record_store_failures_total", m.transportFailures.Load()},
		{"savings_form_invalid_total", m.validationFailures.Load()},
	}
}

func writeMetrics(w io.Writer, metrics []metric) error {
	for _, mt := range metrics {
		if _, err := fmt.Fprintf(w, "%s %v\n", mt.name, mt.value); err != nil {
			return err
		}
	}
	return nil
}
