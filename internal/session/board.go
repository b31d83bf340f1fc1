package session

import (
	"context"
	"sync"

	"savings/internal/core"
	"savings/internal/log"
	"savings/internal/recordstore"
	"savings/internal/view"
)

// Board is one browser's view: its form, the last fetched record set and the
// projection of that set. It refreshes itself after every accepted save.
type Board struct {
	id      string
	form    *EditSession
	fetcher recordstore.Fetcher
	logger  *log.Logger
	slog    *log.StructuredLogger

	mu         sync.RWMutex
	records    []core.Record
	generation uint64
	projector  *view.Projector
}

// NewBoard creates a board for browser session id.
func NewBoard(id string, store recordstore.Store, logger *log.Logger) *Board {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSession).With(log.FieldSessionID, id)
	b := &Board{
		id:      id,
		form:    NewEditSession(store),
		fetcher: store,
		logger:  logger,
		slog:    log.NewStructuredLogger(logger),
	}
	b.projector = view.NewProjector(b.form)
	b.form.Subscribe(b)
	return b
}

func (b *Board) ID() string { return b.id }

// Form is the board's edit session.
func (b *Board) Form() *EditSession { return b.form }

// Mount loads the record set for a freshly rendered page.
func (b *Board) Mount(ctx context.Context) {
	b.Refresh(ctx)
}

// Refresh replaces the record set with a fresh fetch. A failed fetch is
// logged and the previous set stays in place; it reports whether the set was
// replaced.
func (b *Board) Refresh(ctx context.Context) bool {
	records, err := b.fetcher.FetchAll(ctx)
	if err != nil {
		b.slog.LogError(ctx, "Failed to fetch records, keeping previous set", err,
			log.ComponentSession, log.OpList, nil)
		return false
	}

	b.mu.Lock()
	b.records = records
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	b.logger.DebugContext(ctx, "Record set replaced",
		log.FieldRecordCount, len(records),
		log.FieldGeneration, gen)
	return true
}

// RecordSaved refreshes the board after its own form was saved.
func (b *Board) RecordSaved(ctx context.Context, event core.RecordSaved) {
	b.slog.LogRecordSaved(ctx, b.id, event.Name, event.ChangeCount)
	b.Refresh(ctx)
}

// Records returns a copy of the current set and its generation.
func (b *Board) Records() ([]core.Record, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return core.Clone(b.records), b.generation
}

// Projection returns the grid rows and chart series of the current set.
func (b *Board) Projection() ([]view.GridRow, []view.PieSlice) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.projector.Project(b.generation, b.records)
}

// Edit runs the edit action of the grid row for id. It reports false when
// the current set has no such record.
func (b *Board) Edit(id int64) bool {
	rows, _ := b.Projection()
	row, ok := view.FindRow(rows, id)
	if !ok {
		return false
	}
	row.Edit()
	b.logger.Debug("Form loaded from record",
		log.FieldOperation, log.OpLoad,
		log.FieldRecordID, id)
	return true
}

// Computations exposes how often the projection was derived.
func (b *Board) Computations() int {
	return b.projector.Computations()
}
