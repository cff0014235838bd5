// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

/*
Package store persists devices, device settings and Emby connections in an
embedded BadgerDB.

Key layout:

	device:<id>                      models.Device (JSON)
	device-idx:<userId>\x00<deviceId> device id, enforces one record per pair
	settings:devices                 models.DeviceSettings
	settings:emby                    []models.EmbyConnection
	meta:legacy-import               RFC3339 time of the one-off JSON import

Every mutation holds a single writer lock and runs in one badger transaction,
so read-modify-write sequences never lose updates. Reads use badger snapshots
and do not take the lock.
*/
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/flixpilot/internal/logging"
)

const (
	prefixDevice      = "device:"
	prefixDeviceIndex = "device-idx:"
	keySettings       = "settings:devices"
	keyConnections    = "settings:emby"
	keyLegacyImport   = "meta:legacy-import"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")

	errCorrupt = errors.New("corrupt value")
)

// Options configures Open.
type Options struct {
	// Dir is the badger directory. Ignored when InMemory is set.
	Dir        string
	InMemory   bool
	SyncWrites bool
}

// Store is the badger-backed persistence layer.
type Store struct {
	db  *badger.DB
	now func() time.Time

	// mu serializes writers; closed is guarded by it as well.
	mu     sync.Mutex
	closed bool
}

// Open opens (or creates) the database.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.SyncWrites = opts.SyncWrites
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("component", "store").
		Str("path", opts.Dir).
		Bool("in_memory", opts.InMemory).
		Msg("Store opened")
	return &Store{db: db, now: time.Now}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// SetClock replaces the time source used for seeded defaults.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// RunGC reclaims value log space until badger reports nothing to rewrite.
func (s *Store) RunGC() error {
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// update runs fn in a read-write transaction under the writer lock.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Update(fn)
}

func (s *Store) view(fn func(txn *badger.Txn) error) error {
	return s.db.View(fn)
}

// getJSON decodes key into v. found is false when the key does not exist.
func getJSON(txn *badger.Txn, key string, v any) (found bool, err error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, v); err != nil {
			return fmt.Errorf("%w: %s: %v", errCorrupt, key, err)
		}
		return nil
	})
}

// isDecodeError reports whether err came from decoding a stored value.
func isDecodeError(err error) bool {
	return errors.Is(err, errCorrupt)
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}
