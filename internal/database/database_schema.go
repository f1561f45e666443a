// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
database_schema.go - Database Schema Management

Tables:
  - shortlinks: slug to target URL mapping, one owner per row, unique slug
  - click_events: one row per completed tracking flow, append-only

Identifiers come from sequences so inserts can use RETURNING id. There is no
foreign key from click_events to shortlinks: DuckDB rejects updates to a
referenced row, which would block activation toggles. Shortlink existence is
checked by the ingestion path before insert.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates sequences and tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS shortlinks_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS click_events_id_seq START 1`,

		`CREATE TABLE IF NOT EXISTS shortlinks (
			id BIGINT PRIMARY KEY DEFAULT nextval('shortlinks_id_seq'),
			slug VARCHAR NOT NULL UNIQUE,
			user_id VARCHAR NOT NULL,
			target_url VARCHAR NOT NULL,
			campaign_name VARCHAR,
			description VARCHAR,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS click_events (
			id BIGINT PRIMARY KEY DEFAULT nextval('click_events_id_seq'),
			shortlink_id BIGINT NOT NULL,
			clicked_at TIMESTAMP NOT NULL DEFAULT current_timestamp,

			-- client network and location
			ip_address VARCHAR,
			latitude DOUBLE,
			longitude DOUBLE,
			country VARCHAR,
			city VARCHAR,
			isp VARCHAR,

			-- client device
			user_agent VARCHAR,
			browser VARCHAR,
			os VARCHAR,
			device_model VARCHAR,
			device_type VARCHAR,
			android_version VARCHAR,
			screen_resolution VARCHAR,
			language VARCHAR,
			timezone VARCHAR,

			-- best-effort probes
			connection_type VARCHAR,
			downlink DOUBLE,
			rtt INTEGER,
			webgl_vendor VARCHAR,
			webgl_renderer VARCHAR,
			battery_level DOUBLE,
			battery_charging BOOLEAN,
			is_incognito BOOLEAN,
			has_ad_blocker BOOLEAN,
			is_bot BOOLEAN,
			referrer VARCHAR,

			-- server-side lookup of the connection IP
			backend_ip VARCHAR,
			backend_country VARCHAR,
			backend_city VARCHAR,
			backend_region VARCHAR,
			backend_loc VARCHAR,
			backend_org VARCHAR,
			backend_timezone VARCHAR
		)`,
	}
}

// createIndexes creates secondary indexes
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_shortlinks_user_id ON shortlinks(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_click_events_shortlink_id ON click_events(shortlink_id)`,
	}
	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
