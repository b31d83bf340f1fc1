package recordstore

import (
	"context"

	"savings/internal/core"
)

// Ports for the record store adapters.
type (
	// Fetcher reads the full record set in store order.
	Fetcher interface {
		FetchAll(ctx context.Context) ([]core.Record, error)
	}

	// Upserter sends a create-or-update write keyed by name. Every failure is
	// reported through the returned Outcome; implementations never panic.
	Upserter interface {
		Upsert(ctx context.Context, req core.UpsertRequest) Outcome
	}

	// Store is the full gateway surface.
	Store interface {
		Fetcher
		Upserter
	}
)
