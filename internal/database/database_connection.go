// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package database

import (
	"runtime"
	"time"
)

// configureConnectionPool sets connection pool parameters.
// DATABASE max_open_conns overrides the NumCPU default.
func (db *DB) configureConnectionPool() {
	maxOpen := runtime.NumCPU()
	if db.cfg != nil && db.cfg.MaxOpenConns > 0 {
		maxOpen = db.cfg.MaxOpenConns
	}
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}
