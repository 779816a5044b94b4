package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"safeguard/internal/database"
)

// SQLKV stores values in the safeguard_kv table of a SQL database
// (SQLite file or MySQL, selected by the DSN).
type SQLKV struct {
	db *database.DB
}

// NewSQLKV wraps an initialized database connection.
func NewSQLKV(db *database.DB) *SQLKV {
	return &SQLKV{db: db}
}

// Get returns the value for key.
func (s *SQLKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT v FROM safeguard_kv WHERE k = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return v, true, nil
}

// Set upserts the value for key.
func (s *SQLKV) Set(ctx context.Context, key, value string) error {
	var query string
	if s.db.Driver == "mysql" {
		query = "INSERT INTO safeguard_kv (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)"
	} else {
		query = "INSERT INTO safeguard_kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v"
	}

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
