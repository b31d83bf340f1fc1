package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"savings/internal/cache"
	"savings/internal/log"
	"savings/internal/recordstore"
)

// StoreConfig bounds how many boards are kept and for how long.
type StoreConfig struct {
	TTL time.Duration
	Max int
}

// Store keeps one Board per browser session, evicting idle ones.
type Store struct {
	records   recordstore.Store
	logger    *log.Logger
	boards    *cache.LRUCache[*Board]
	observers []SaveObserver

	mu sync.Mutex
}

// NewStore creates a board store backed by records. Every board created
// afterwards notifies observers of its accepted saves, after its own refresh.
func NewStore(records recordstore.Store, cfg StoreConfig, logger *log.Logger, observers ...SaveObserver) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSession)
	s := &Store{
		records:   records,
		logger:    logger,
		observers: observers,
	}
	s.boards = cache.NewLRUCache[*Board](cfg.Max, cfg.TTL,
		cache.WithSlidingExpiry[*Board](),
		cache.WithEvictHook(func(id string, _ *Board) {
			logger.Debug("Board evicted", log.FieldSessionID, id)
		}),
	)
	return s
}

// Get returns the board for id, creating one under a new id when id is
// empty, malformed or unknown. created reports whether a new board was made.
func (s *Store) Get(id string) (board *Board, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := uuid.Parse(id); err == nil {
		if b, ok := s.boards.Get(id); ok {
			return b, false
		}
	}

	b := NewBoard(uuid.NewString(), s.records, s.logger)
	for _, o := range s.observers {
		b.Form().Subscribe(o)
	}
	s.boards.Set(b.ID(), b)
	s.logger.Debug("Board created", log.FieldSessionID, b.ID(), log.FieldSessions, s.boards.Size())
	return b, true
}

// Lookup returns an existing board without creating one.
func (s *Store) Lookup(id string) (*Board, bool) {
	return s.boards.Get(id)
}

// Len is the number of live boards.
func (s *Store) Len() int {
	return s.boards.Size()
}

// Cleaner exposes the board cache for periodic expiry.
func (s *Store) Cleaner() cache.Cleaner {
	return s.boards
}
