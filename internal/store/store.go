// internal/store/store.go
//
// Persistence layer for game sessions.
//
// Every backend stores one record per session id: the JSON encoding of a
// game.State produced by EncodeRecord. Decoding validates the state, so a
// damaged or hand-edited record surfaces as ErrCorruptedState regardless of
// the backend.
//
// Backends:
//   - memory: map guarded by an RWMutex; lost on restart.
//   - sqlite: database/sql with the cgo (sqlite3) or pure Go (sqlite) driver.
//   - bolt:   a single bbolt bucket keyed by session id.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalobadob/wordle-kids/internal/game"
)

var (
	// ErrNotFound means no record exists for the session.
	ErrNotFound = errors.New("not found")
	// ErrCorruptedState means a record exists but cannot be turned into a valid state.
	ErrCorruptedState = errors.New("corrupted state")
)

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save persists or replaces the state of a session.
	Save(ctx context.Context, id string, st game.State) error

	// Load returns the state of a session.
	// Returns ErrNotFound for unknown ids and ErrCorruptedState for bad records.
	Load(ctx context.Context, id string) (game.State, error)

	// Close releases the backend.
	Close() error
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Config selects and configures a backend.
type Config struct {
	Driver       string // memory | sqlite | bolt
	SQLiteDriver string // sqlite3 (cgo) | sqlite (pure Go)
	SQLitePath   string
	BoltPath     string
}

// Open constructs the configured backend.
func Open(c Config) (Store, error) {
	switch c.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return OpenSQLite(c.SQLiteDriver, c.SQLitePath)
	case DriverBolt:
		return OpenBolt(c.BoltPath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.Driver)
	}
}
