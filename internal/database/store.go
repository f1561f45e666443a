// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package database

import (
	"context"

	"github.com/tomtom215/waypoint/internal/models"
)

// DefaultListLimit caps list queries whose caller passes no limit
const DefaultListLimit = 1000

// Store is the persistence contract shared by the DuckDB and Postgres drivers.
// Click events are append-only; shortlinks are only ever created or toggled.
type Store interface {
	CreateShortlink(ctx context.Context, link *models.Shortlink) error
	GetShortlinkBySlug(ctx context.Context, slug string) (*models.Shortlink, error)
	GetShortlinkByID(ctx context.Context, id int64) (*models.Shortlink, error)
	ListShortlinksByUser(ctx context.Context, userID string) ([]models.Shortlink, error)
	SetShortlinkActive(ctx context.Context, id int64, userID string, active bool) (*models.Shortlink, error)

	InsertClickEvent(ctx context.Context, event *models.ClickEvent) error
	ListClickEventsByShortlink(ctx context.Context, shortlinkID int64, userID string, limit int) ([]models.ClickEvent, error)
	ListClickEventsByUser(ctx context.Context, userID string, limit int) ([]models.ClickEvent, error)

	GetStats(ctx context.Context, userID string) (*models.Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*DB)(nil)
