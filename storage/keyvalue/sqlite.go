package kvstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// Entry is one stored pair.
type Entry struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SQLiteStore persists the session in a single-file SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ session.Store = (*SQLiteStore)(nil)

// Open opens (or creates) the database at path. ":memory:" is accepted.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrap(err, "creating session directory")
		}
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening session database")
	}
	db.SetMaxOpenConns(1) // one writer; keeps ":memory:" on a single connection
	if err := CreateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// CreateSchema is safe to call multiple times.
func CreateSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "creating schema")
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "getting %q", key)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	now := time.Now().UTC()
	for k, v := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now,
		); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "setting %q", k)
		}
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM kv WHERE key IN (?)`, keys)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	return errors.Wrap(err, "deleting keys")
}

// Entries lists every stored pair by key.
func (s *SQLiteStore) Entries(ctx context.Context) ([]Entry, error) {
	entries := []Entry{}
	err := s.db.SelectContext(ctx, &entries, `SELECT key, value, updated_at FROM kv ORDER BY key`)
	return entries, errors.Wrap(err, "listing entries")
}
