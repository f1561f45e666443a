// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package postgres implements database.Store on PostgreSQL through lib/pq.
//
// It is selected with database.driver=postgres and shares the column lists and
// row scanners of the DuckDB store, so rows look the same on either driver.
// Unlike DuckDB, click_events carries a real foreign key to shortlinks.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/tomtom215/waypoint/internal/database"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
)

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// Store is the Postgres implementation of database.Store.
type Store struct {
	db *sql.DB
}

var _ database.Store = (*Store)(nil)

// New connects to dsn, verifies the connection, and applies the schema.
func New(ctx context.Context, dsn string, maxOpenConns int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := NewWithDB(db)

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logging.Info().Msg("Postgres store opened")
	return s, nil
}

// NewWithDB wraps an existing handle without touching the schema.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, query := range schemaQueries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS shortlinks (
		id BIGSERIAL PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		target_url TEXT NOT NULL,
		campaign_name TEXT,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS click_events (
		id BIGSERIAL PRIMARY KEY,
		shortlink_id BIGINT NOT NULL REFERENCES shortlinks(id),
		clicked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		ip_address TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		country TEXT,
		city TEXT,
		isp TEXT,
		user_agent TEXT,
		browser TEXT,
		os TEXT,
		device_model TEXT,
		device_type TEXT,
		android_version TEXT,
		screen_resolution TEXT,
		language TEXT,
		timezone TEXT,
		connection_type TEXT,
		downlink DOUBLE PRECISION,
		rtt INTEGER,
		webgl_vendor TEXT,
		webgl_renderer TEXT,
		battery_level DOUBLE PRECISION,
		battery_charging BOOLEAN,
		is_incognito BOOLEAN,
		has_ad_blocker BOOLEAN,
		is_bot BOOLEAN,
		referrer TEXT,
		backend_ip TEXT,
		backend_country TEXT,
		backend_city TEXT,
		backend_region TEXT,
		backend_loc TEXT,
		backend_org TEXT,
		backend_timezone TEXT,
		CONSTRAINT click_events_coordinates_paired
			CHECK ((latitude IS NULL) = (longitude IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shortlinks_user_id ON shortlinks(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_click_events_shortlink_id ON click_events(shortlink_id)`,
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation prefers the SQLSTATE and falls back to message matching
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return database.IsUniqueViolation(err)
}

func observe(operation, table string, start time.Time, err error) {
	if errors.Is(err, database.ErrNotFound) {
		err = nil
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}
