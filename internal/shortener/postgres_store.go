// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package shortener

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManuGH/ecosystem/internal/persistence/postgres"
)

const pgUniqueViolation = "23505"

// PostgresStore keeps mappings in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := postgres.Open(ctx, dsn, postgres.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Shorten(ctx context.Context, id, url string) (string, error) {
	var out string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO urls (id, url) VALUES ($1, $2)
		 ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
		 RETURNING id`, id, url).Scan(&out)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return "", ErrIDConflict
		}
		return "", fmt.Errorf("postgres: insert: %w", err)
	}
	return strings.TrimRight(out, " "), nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (string, error) {
	var url string
	err := s.pool.QueryRow(ctx, `SELECT url FROM urls WHERE id = $1`, id).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("postgres: select: %w", err)
	}
	return url, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
