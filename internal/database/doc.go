// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package database persists shortlinks and click events.
//
// # Overview
//
// DB is the DuckDB implementation of Store and the default driver. The
// postgres subpackage implements the same Store against PostgreSQL and reuses
// the column lists and scan helpers defined here, so both drivers agree on the
// row layout.
//
// Files:
//   - database.go: lifecycle (open, initialize, close with checkpoint, ping)
//   - database_schema.go: sequences, tables, indexes
//   - database_connection.go: connection pool settings
//   - database_utils.go: context defaults, checkpoint, query metrics
//   - columns.go: click_events column list, argument flattening, row scanning
//   - shortlinks.go, click_events.go: CRUD and owner statistics
//
// # Ownership
//
// Owner-scoped reads take the caller's user ID. A shortlink that exists but
// belongs to someone else is reported as ErrNotFound, never as a distinct
// forbidden error.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	link, err := db.GetShortlinkBySlug(ctx, "aB3dE6gH")
//	if errors.Is(err, database.ErrNotFound) {
//	    // 404
//	}
//
// # Thread Safety
//
// All methods are safe for concurrent use; database/sql pools connections.
package database
