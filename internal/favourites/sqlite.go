package favourites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evcraddock/havenrise/internal/db"
)

// SQLiteSchema creates the kv_store table. updated_at was added after the
// first release, so older files gain it on open.
var SQLiteSchema = db.Schema{
	Tables: []string{
		`CREATE TABLE IF NOT EXISTS kv_store (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	},
	Columns: []db.Column{
		{Table: "kv_store", Name: "updated_at", Definition: "DATETIME"},
	},
}

// SQLiteStorage keeps values in the kv_store table of SQLiteSchema.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLiteStorage opens the database at path and prepares kv_store.
// Close releases the database.
func OpenSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	database, err := db.Open(ctx, path, SQLiteSchema)
	if err != nil {
		return nil, fmt.Errorf("opening favourites database: %w", err)
	}
	return NewSQLiteStorage(database), nil
}

// NewSQLiteStorage creates a storage over an open database.
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
