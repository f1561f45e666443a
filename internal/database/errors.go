// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/tomtom215/waypoint/internal/logging"
)

// Store errors shared by every driver
var (
	// ErrNotFound is returned when a shortlink or click event does not exist,
	// or exists but is not owned by the caller.
	ErrNotFound = errors.New("record not found")

	// ErrSlugConflict is returned when a new shortlink's slug is already taken.
	ErrSlugConflict = errors.New("slug already exists")
)

// closeWithLog closes a resource and logs any error.
// Use this for cleanup where errors should be acknowledged but not fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// IsUniqueViolation reports whether err is a unique constraint failure.
// DuckDB reports "Duplicate key" and Postgres "duplicate key value violates unique constraint".
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
