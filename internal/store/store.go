// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

// Package store is the multi-collection document store behind the fleet back
// office. Documents are opaque JSON values grouped into named collections and
// persisted in BadgerDB.
//
// Keys are "<collection>\x00<uuidv7>", so a prefix scan returns a collection's
// documents in insertion order.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/fleetvault/internal/logging"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store is closed")

	// ErrInvalidCollection is returned for empty collection names or names
	// containing the key separator.
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrInvalidDocument is returned when a document is not valid JSON.
	ErrInvalidDocument = errors.New("document is not valid JSON")
)

const keySeparator = byte(0)

// Config configures the BadgerDB instance.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Compression enables Snappy block compression.
	Compression bool
}

// Store is a BadgerDB-backed document store. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the store described by cfg.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, fmt.Errorf("store path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	// Badger's own logger is noisy at info level.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Document store opened")

	return &Store{db: db}, nil
}

// Close closes the underlying database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func collectionPrefix(collection string) ([]byte, error) {
	if collection == "" || strings.IndexByte(collection, keySeparator) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	prefix := make([]byte, 0, len(collection)+1)
	prefix = append(prefix, collection...)
	return append(prefix, keySeparator), nil
}

func newKey(prefix []byte) ([]byte, string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, "", fmt.Errorf("generate document id: %w", err)
	}
	idStr := id.String()
	key := make([]byte, 0, len(prefix)+len(idStr))
	key = append(key, prefix...)
	return append(key, idStr...), idStr, nil
}

// Insert stores one document and returns its generated id.
func (s *Store) Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prefix, err := collectionPrefix(collection)
	if err != nil {
		return "", err
	}
	if !json.Valid(doc) {
		return "", ErrInvalidDocument
	}

	key, id, err := newKey(prefix)
	if err != nil {
		return "", err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytes.Clone(doc))
	}); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

// InsertMany appends docs to collection through a WriteBatch, which splits
// large inputs across transactions. Every document is validated before
// anything is written.
func (s *Store) InsertMany(ctx context.Context, collection string, docs []json.RawMessage) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	prefix, err := collectionPrefix(collection)
	if err != nil {
		return err
	}
	for i, doc := range docs {
		if !json.Valid(doc) {
			return fmt.Errorf("%w: %s[%d]", ErrInvalidDocument, collection, i)
		}
	}
	if len(docs) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, _, err := newKey(prefix)
		if err != nil {
			return err
		}
		if err := wb.Set(key, bytes.Clone(doc)); err != nil {
			return fmt.Errorf("insert into %s: %w", collection, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush inserts into %s: %w", collection, err)
	}
	return nil
}

// All returns every document of collection in insertion order, read from a
// single consistent snapshot.
func (s *Store) All(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	prefix, err := collectionPrefix(collection)
	if err != nil {
		return nil, err
	}

	docs := make([]json.RawMessage, 0)
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			docs = append(docs, val)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	return docs, nil
}

// Count returns the number of documents in collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	keys, err := s.keys(ctx, collection)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (s *Store) keys(ctx context.Context, collection string) ([][]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	prefix, err := collectionPrefix(collection)
	if err != nil {
		return nil, err
	}

	var keys [][]byte
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	return keys, nil
}

// DeleteAll removes every document of collection and returns how many were
// removed.
func (s *Store) DeleteAll(ctx context.Context, collection string) (int, error) {
	keys, err := s.keys(ctx, collection)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete from %s: %w", collection, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush deletes from %s: %w", collection, err)
	}
	return len(keys), nil
}

// ReplaceAll empties collection and then inserts docs. Documents are
// validated first, so malformed input leaves the collection untouched. The
// delete and insert are separate batches and are not atomic with each other.
func (s *Store) ReplaceAll(ctx context.Context, collection string, docs []json.RawMessage) error {
	for i, doc := range docs {
		if !json.Valid(doc) {
			return fmt.Errorf("%w: %s[%d]", ErrInvalidDocument, collection, i)
		}
	}
	deleted, err := s.DeleteAll(ctx, collection)
	if err != nil {
		return err
	}
	if err := s.InsertMany(ctx, collection, docs); err != nil {
		return err
	}
	logging.Debug().
		Str("collection", collection).
		Int("deleted", deleted).
		Int("inserted", len(docs)).
		Msg("Collection replaced")
	return nil
}
