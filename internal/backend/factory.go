package backend

import (
	"context"
	"fmt"

	"savings/internal/log"
	"savings/internal/recordstore"
	"savings/internal/recordstore/memory"
	"savings/internal/recordstore/remote"
)

// CleanupFunc releases backend resources
type CleanupFunc func() error

// Result contains the record store and an optional cleanup function
type Result struct {
	Store   recordstore.Store
	Cleanup CleanupFunc

	// Pinger is set when the backend can report reachability
	Pinger interface{ Ping(ctx context.Context) error }
}

// New builds the record store selected by cfg.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case RemoteBackend:
		return newRemote(cfg, logger)
	case MemoryBackend:
		return newMemory(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func newRemote(cfg Config, logger *log.Logger) (*Result, error) {
	client, err := remote.New(cfg.RecordStoreURL,
		remote.WithTimeout(cfg.RecordStoreTimeout),
		remote.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store client: %w", err)
	}

	logger.Info("Initialized remote record store",
		log.FieldURL, cfg.RecordStoreURL,
		log.FieldTimeout, cfg.RecordStoreTimeout.String())

	return &Result{Store: client, Pinger: client}, nil
}

func newMemory(cfg Config, logger *log.Logger) (*Result, error) {
	store, err := memory.NewFromFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory store: %w", err)
	}

	logger.Info("Initialized memory record store",
		log.FieldSeedFile, cfg.SeedFile,
		log.FieldRecordCount, store.Len())

	return &Result{Store: store}, nil
}
