// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package shortener

import (
	"context"
	"fmt"
)

// Store persists id to URL mappings.
type Store interface {
	// Shorten inserts (id, url). If url is already stored, its existing id is
	// returned. If id belongs to a different url, ErrIDConflict is returned.
	Shorten(ctx context.Context, id, url string) (string, error)
	// Get returns the url stored for id, or ErrNotFound.
	Get(ctx context.Context, id string) (string, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend.
	Close() error
}

// StoreOptions selects and configures a Store backend.
type StoreOptions struct {
	Driver string // sqlite | postgres | badger
	DSN    string // postgres connection string
	Path   string // sqlite file or badger directory
}

// OpenStore opens the backend selected by opts.Driver and runs its migration.
func OpenStore(ctx context.Context, opts StoreOptions) (Store, error) {
	switch opts.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, opts.Path)
	case "postgres":
		return OpenPostgres(ctx, opts.DSN)
	case "badger":
		return OpenBadger(opts.Path)
	default:
		return nil, fmt.Errorf("unsupported store driver %q (supported: sqlite, postgres, badger)", opts.Driver)
	}
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS urls (
	id CHAR(6) PRIMARY KEY,
	url TEXT NOT NULL UNIQUE
)`
