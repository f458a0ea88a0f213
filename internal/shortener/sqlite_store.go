// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package shortener

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ManuGH/ecosystem/internal/persistence/sqlite"
)

// SQLiteStore keeps mappings in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if issues, err := sqlite.QuickCheck(ctx, db); err != nil || issues != nil {
		_ = db.Close()
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: integrity check failed: %v", issues)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Shorten(ctx context.Context, id, url string) (string, error) {
	var out string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO urls (id, url) VALUES (?, ?)
		 ON CONFLICT(url) DO UPDATE SET url = excluded.url
		 RETURNING id`, id, url).Scan(&out)
	if err == nil {
		return out, nil
	}

	// The url upsert cannot fail on the url constraint, so a remaining
	// failure with the id present means the id is taken.
	existing, getErr := s.Get(ctx, id)
	if getErr == nil && existing != url {
		return "", ErrIDConflict
	}
	return "", fmt.Errorf("sqlite: insert: %w", err)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (string, error) {
	var url string
	err := s.db.QueryRowContext(ctx, `SELECT url FROM urls WHERE id = ?`, id).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: select: %w", err)
	}
	return url, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }
