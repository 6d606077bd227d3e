// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used for development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores encoded records keyed by session id in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/robalobadob/wordle-kids/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex      // guards records
	records map[string][]byte // keyed by session id
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{records: make(map[string][]byte)}
}

// Save encodes and stores the state.
func (m *memory) Save(ctx context.Context, id string, st game.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := EncodeRecord(st, time.Now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = b
	return nil
}

// Load decodes the stored record for id.
func (m *memory) Load(ctx context.Context, id string) (game.State, error) {
	if err := ctx.Err(); err != nil {
		return game.State{}, err
	}
	m.mu.RLock()
	b, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return game.State{}, ErrNotFound
	}
	return DecodeRecord(b)
}

func (m *memory) Close() error { return nil }
