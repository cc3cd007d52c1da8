// Package store persists the folio tables in a Badger database through
// badgerhold.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/etnz/folio"
	"github.com/phuslu/log"
	"github.com/timshannon/badgerhold/v4"
)

// Store is a folio.Store backed by badgerhold.
type Store struct {
	db *badgerhold.Store
}

var _ folio.Store = (*Store)(nil)

// Open opens, creating it if needed, the database in directory path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	return open(options)
}

// OpenInMemory opens a database living in memory only.
func OpenInMemory() (*Store, error) {
	options := badgerhold.DefaultOptions
	options.Dir = ""
	options.ValueDir = ""
	options.InMemory = true
	return open(options)
}

func open(options badgerhold.Options) (*Store, error) {
	options.Logger = nil
	options.Encoder = json.Marshal
	options.Decoder = json.Unmarshal
	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	log.Debug().Str("dir", options.Dir).Bool("memory", options.InMemory).Msg("store opened")
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Update runs fn in a read-write badger transaction, committed only if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(folio.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Badger().Update(func(txn *badger.Txn) error {
		return fn(&tx{db: s.db, txn: txn, writable: true})
	})
}

// View runs fn in a read-only badger transaction.
func (s *Store) View(ctx context.Context, fn func(folio.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Badger().View(func(txn *badger.Txn) error {
		return fn(&tx{db: s.db, txn: txn})
	})
}
