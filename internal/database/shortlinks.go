// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/waypoint/internal/models"
)

// CreateShortlink inserts a new shortlink and fills in its ID and CreatedAt.
// Returns ErrSlugConflict when the slug is taken.
func (db *DB) CreateShortlink(ctx context.Context, link *models.Shortlink) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "shortlinks", start, err) }()

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO shortlinks (slug, user_id, target_url, campaign_name, description, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err = db.conn.QueryRowContext(ctx, query,
		link.Slug, link.UserID, link.TargetURL,
		Nullable(link.CampaignName), Nullable(link.Description),
		link.IsActive, link.CreatedAt,
	).Scan(&link.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrSlugConflict
		}
		return fmt.Errorf("failed to create shortlink: %w", err)
	}
	return nil
}

// GetShortlinkBySlug returns the shortlink with the given slug, active or not.
func (db *DB) GetShortlinkBySlug(ctx context.Context, slug string) (*models.Shortlink, error) {
	return db.getShortlink(ctx, "slug = ?", slug)
}

// GetShortlinkByID returns the shortlink with the given id, active or not.
func (db *DB) GetShortlinkByID(ctx context.Context, id int64) (*models.Shortlink, error) {
	return db.getShortlink(ctx, "id = ?", id)
}

func (db *DB) getShortlink(ctx context.Context, where string, arg any) (link *models.Shortlink, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			observe("select", "shortlinks", start, nil)
			return
		}
		observe("select", "shortlinks", start, err)
	}()

	row := db.conn.QueryRowContext(ctx, "SELECT "+ShortlinkColumns+" FROM shortlinks WHERE "+where, arg)
	link, err = ScanShortlink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shortlink: %w", err)
	}
	return link, nil
}

// ListShortlinksByUser returns the user's shortlinks, newest first.
func (db *DB) ListShortlinksByUser(ctx context.Context, userID string) (links []models.Shortlink, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "shortlinks", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+ShortlinkColumns+" FROM shortlinks WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortlinks: %w", err)
	}
	defer closeWithLog(rows, "rows")

	links = make([]models.Shortlink, 0)
	for rows.Next() {
		link, err := ScanShortlink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shortlink: %w", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shortlinks: %w", err)
	}
	return links, nil
}

// SetShortlinkActive toggles a shortlink owned by userID and returns the updated row.
// Returns ErrNotFound when the shortlink does not exist or belongs to someone else.
func (db *DB) SetShortlinkActive(ctx context.Context, id int64, userID string, active bool) (*models.Shortlink, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		"UPDATE shortlinks SET is_active = ? WHERE id = ? AND user_id = ?",
		active, id, userID)
	observe("update", "shortlinks", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to update shortlink: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return db.GetShortlinkByID(ctx, id)
}
