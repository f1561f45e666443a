// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package cache provides byte-oriented TTL caches behind one interface.
//
// Backends:
//   - memory: in-process map with lazy and periodic expiry
//   - redis: shared cache through go-redis, for several server replicas
//   - badger: on-disk cache that survives restarts
//   - none: never stores anything
//
// Callers serialize their own values; the geolocation resolver stores JSON.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/waypoint/internal/config"
)

// Backend names accepted by cache.backend
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendNone   = "none"
)

// Store is a TTL key/value cache.
//
// Get reports a miss as (nil, false, nil); err is reserved for backend failures,
// which callers should treat as a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Backend names the implementation for metrics labels
	Backend() string
	Close() error
}

// New builds the backend selected by cfg.Backend.
func New(cfg *config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(cfg.TTL), nil
	case BackendRedis:
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case BackendBadger:
		return NewBadger(cfg.BadgerPath)
	case BackendNone:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Noop is the "none" backend: every Get misses and Set discards.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error { return nil }
func (Noop) Backend() string { return BackendNone }
func (Noop) Close() error { return nil }
