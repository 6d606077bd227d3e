// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Upserting and reading one session record per row.
//
// Two drivers are supported: "sqlite3" (mattn/go-sqlite3, cgo) and
// "sqlite" (modernc.org/sqlite, pure Go, for CGO_ENABLED=0 builds).

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/robalobadob/wordle-kids/assets"
	"github.com/robalobadob/wordle-kids/internal/game"
)

const (
	SQLiteCgo    = "sqlite3"
	SQLitePureGo = "sqlite"
)

// SQLite is a database-backed Store.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) a SQLite database file and
// applies migrations.
func OpenSQLite(driver, path string) (*SQLite, error) {
	db, err := openDB(driver, path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// openDB opens the database with busy timeout and WAL journaling.
//
// - Ensures parent directory exists for relative paths (e.g. ./data/app.db).
// - Pragmas go in the DSN so every pooled connection gets them.
func openDB(driver, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	var dsn string
	switch driver {
	case "", SQLiteCgo:
		driver = SQLiteCgo
		dsn = path + "?_busy_timeout=5000&_journal_mode=WAL"
	case SQLitePureGo:
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return db, nil
}

// migrate applies *.sql files from migrations in lexical order.
//
// - Uses a _migrations table to track applied files.
// - Each file runs in its own transaction together with its bookkeeping row.
func migrate(db *sql.DB, migrations fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := fs.ReadFile(migrations, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Save upserts the session record.
func (s *SQLite) Save(ctx context.Context, id string, st game.State) error {
	now := time.Now().UTC()
	b, err := EncodeRecord(st, now)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO sessions (id, record, status, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            record = excluded.record,
            status = excluded.status,
            updated_at = excluded.updated_at`,
		id, string(b), string(st.Status()), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load reads and decodes the session record.
func (s *SQLite) Load(ctx context.Context, id string) (game.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM sessions WHERE id=?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return game.State{}, ErrNotFound
	}
	if err != nil {
		return game.State{}, fmt.Errorf("load session: %w", err)
	}
	return DecodeRecord([]byte(raw))
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }
