package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/robalobadob/wordle-kids/internal/game"
)

const sessionBucket = "sessions"

// Bolt provides a BoltDB-backed session store.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens a BoltDB-backed store at the provided path.
func OpenBolt(path string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("bolt path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Save persists the session record.
func (b *Bolt) Save(ctx context.Context, id string, st game.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := EncodeRecord(st, time.Now())
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Put([]byte(id), payload)
	})
}

// Load fetches and decodes the session record.
func (b *Bolt) Load(ctx context.Context, id string) (game.State, error) {
	if err := ctx.Err(); err != nil {
		return game.State{}, err
	}
	var payload []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(sessionBucket)).Get([]byte(id))
		if v != nil {
			// v is only valid inside the transaction.
			payload = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return game.State{}, fmt.Errorf("load session: %w", err)
	}
	if payload == nil {
		return game.State{}, ErrNotFound
	}
	return DecodeRecord(payload)
}

// Close closes the underlying BoltDB database.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

