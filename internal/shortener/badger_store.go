// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package shortener

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps mappings in an embedded Badger database:
//   - "id:<id>"   -> url
//   - "url:<url>" -> id
type BadgerStore struct {
	db *badger.DB
}

const badgerTxnRetries = 3

// OpenBadger opens the Badger directory at path. An empty path opens an
// in-memory database.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func idKey(id string) []byte   { return []byte("id:" + id) }
func urlKey(url string) []byte { return []byte("url:" + url) }

func (s *BadgerStore) Shorten(ctx context.Context, id, url string) (string, error) {
	for i := 0; i < badgerTxnRetries; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := s.shortenOnce(id, url)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return out, err
	}
	return "", fmt.Errorf("badger: insert: %w", badger.ErrConflict)
}

func (s *BadgerStore) shortenOnce(id, url string) (string, error) {
	var out string
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(urlKey(url))
		switch {
		case err == nil:
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = string(v)
			return nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if _, err := txn.Get(idKey(id)); err == nil {
			return ErrIDConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(idKey(id), []byte(url)); err != nil {
			return err
		}
		if err := txn.Set(urlKey(url), []byte(id)); err != nil {
			return err
		}
		out = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (s *BadgerStore) Get(_ context.Context, id string) (string, error) {
	var url string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		url = string(v)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("badger: get: %w", err)
	}
	return url, nil
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
