// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/waypoint/internal/logging"
)

// badgerGCInterval is how often value log garbage collection runs
const badgerGCInterval = 10 * time.Minute

// Badger is an on-disk cache using Badger's native per-key TTL.
type Badger struct {
	db *badger.DB

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewBadger opens (or creates) a Badger cache at path.
func NewBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	return openBadger(opts)
}

// NewBadgerInMemory opens a Badger cache with no files, for tests.
func NewBadgerInMemory() (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*Badger, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	b := &Badger{db: db, stop: make(chan struct{})}
	if !opts.InMemory {
		b.wg.Add(1)
		go b.gcLoop()
	}

	logging.Info().Str("path", opts.Dir).Bool("in_memory", opts.InMemory).Msg("Badger cache opened")
	return b, nil
}

// Get implements Store.
func (b *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger get: %w", err)
	}
	return val, true, nil
}

// Set implements Store. ttl <= 0 stores without expiry.
func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (b *Badger) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Backend implements Store.
func (b *Badger) Backend() string {
	return BackendBadger
}

// Close stops garbage collection and closes the database.
func (b *Badger) Close() error {
	b.stopOnce.Do(func() { close(b.stop) })
	b.wg.Wait()
	return b.db.Close()
}

func (b *Badger) gcLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(badgerGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Rewrite until nothing is left to reclaim
			for b.db.RunValueLogGC(0.5) == nil {
			}
		case <-b.stop:
			return
		}
	}
}
