package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bito/concertworker/config"
	"bito/concertworker/internal/concert"
	"bito/concertworker/logger"
	apperrors "bito/concertworker/pkg/errors"

	"github.com/google/uuid"
)

// Store persists the concerts of the latest scrape
type Store interface {
	// ReplaceAll deletes every stored concert and inserts concerts in their place.
	// Records without an ID get a new one.
	ReplaceAll(ctx context.Context, concerts []concert.Concert) error

	// Cheap returns the concerts priced at most maxPrice, cheapest first
	Cheap(ctx context.Context, maxPrice int) ([]concert.Concert, error)

	// All returns every concert, earliest first
	All(ctx context.Context) ([]concert.Concert, error)

	// Close releases the underlying connection
	Close() error
}

// Open creates the store selected by cfg.StorageDriver
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory, "":
		return NewMemoryStore(), nil
	case config.StorageSQLite:
		return OpenSQLite(cfg.DatabaseDSN)
	case config.StoragePostgres:
		return OpenPostgres(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// validate rejects the batch when any record breaks the storage invariants
func validate(driver string, concerts []concert.Concert) error {
	for i, c := range concerts {
		if !c.Valid() {
			return apperrors.NewStorage(driver, fmt.Sprintf("invalid concert at %d: %q", i, c.Title), nil)
		}
	}
	return nil
}

// assignIDs gives every record without an ID a random one
func assignIDs(concerts []concert.Concert) {
	for i := range concerts {
		if concerts[i].ID == "" {
			concerts[i].ID = uuid.NewString()
		}
	}
}

// MemoryStore keeps concerts in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	concerts []concert.Concert
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ReplaceAll swaps the stored set for concerts
func (m *MemoryStore) ReplaceAll(ctx context.Context, concerts []concert.Concert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate("memory", concerts); err != nil {
		return err
	}
	assignIDs(concerts)

	stored := make([]concert.Concert, len(concerts))
	copy(stored, concerts)

	m.mu.Lock()
	m.concerts = stored
	m.mu.Unlock()

	logger.ForStore("memory").Debug().Int("count", len(stored)).Msg("Replaced concerts")
	return nil
}

// Cheap returns the concerts priced at most maxPrice ordered by price, then date
func (m *MemoryStore) Cheap(ctx context.Context, maxPrice int) ([]concert.Concert, error) {
	m.mu.RLock()
	out := make([]concert.Concert, 0, len(m.concerts))
	for _, c := range m.concerts {
		if c.Price <= maxPrice {
			out = append(out, c)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// All returns every concert ordered by date, then price
func (m *MemoryStore) All(ctx context.Context) ([]concert.Concert, error) {
	m.mu.RLock()
	out := make([]concert.Concert, len(m.concerts))
	copy(out, m.concerts)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Price < out[j].Price
	})
	return out, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }
