// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/waypoint/internal/database"
	"github.com/tomtom215/waypoint/internal/models"
)

// CreateShortlink inserts a shortlink and fills in its ID and CreatedAt.
func (s *Store) CreateShortlink(ctx context.Context, link *models.Shortlink) (err error) {
	start := time.Now()
	defer func() { observe("insert", "shortlinks", start, err) }()

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO shortlinks (slug, user_id, target_url, campaign_name, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		link.Slug, link.UserID, link.TargetURL,
		database.Nullable(link.CampaignName), database.Nullable(link.Description),
		link.IsActive, link.CreatedAt,
	).Scan(&link.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return database.ErrSlugConflict
		}
		return fmt.Errorf("failed to create shortlink: %w", err)
	}
	return nil
}

// GetShortlinkBySlug returns the shortlink with the given slug.
func (s *Store) GetShortlinkBySlug(ctx context.Context, slug string) (*models.Shortlink, error) {
	return s.getShortlink(ctx, "slug = $1", slug)
}

// GetShortlinkByID returns the shortlink with the given id.
func (s *Store) GetShortlinkByID(ctx context.Context, id int64) (*models.Shortlink, error) {
	return s.getShortlink(ctx, "id = $1", id)
}

func (s *Store) getShortlink(ctx context.Context, where string, arg any) (link *models.Shortlink, err error) {
	start := time.Now()
	defer func() { observe("select", "shortlinks", start, err) }()

	link, err = database.ScanShortlink(s.db.QueryRowContext(ctx,
		"SELECT "+database.ShortlinkColumns+" FROM shortlinks WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shortlink: %w", err)
	}
	return link, nil
}

// ListShortlinksByUser returns the user's shortlinks, newest first.
func (s *Store) ListShortlinksByUser(ctx context.Context, userID string) (links []models.Shortlink, err error) {
	start := time.Now()
	defer func() { observe("select", "shortlinks", start, err) }()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+database.ShortlinkColumns+" FROM shortlinks WHERE user_id = $1 ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortlinks: %w", err)
	}
	defer rows.Close()

	links = make([]models.Shortlink, 0)
	for rows.Next() {
		link, err := database.ScanShortlink(rows)
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

// SetShortlinkActive toggles a shortlink owned by userID.
func (s *Store) SetShortlinkActive(ctx context.Context, id int64, userID string, active bool) (link *models.Shortlink, err error) {
	start := time.Now()
	defer func() { observe("update", "shortlinks", start, err) }()

	link, err = database.ScanShortlink(s.db.QueryRowContext(ctx,
		"UPDATE shortlinks SET is_active = $1 WHERE id = $2 AND user_id = $3 RETURNING "+database.ShortlinkColumns,
		active, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update shortlink: %w", err)
	}
	return link, nil
}

// InsertClickEvent appends one click event; the server assigns ID and Timestamp.
func (s *Store) InsertClickEvent(ctx context.Context, event *models.ClickEvent) (err error) {
	start := time.Now()
	defer func() { observe("insert", "click_events", start, err) }()

	event.Timestamp = time.Now().UTC()

	query := "INSERT INTO click_events (" + database.ClickEventInsertColumns() + ") VALUES (" +
		placeholders(database.ClickEventColumnCount()) + ") RETURNING id"

	if err = s.db.QueryRowContext(ctx, query, database.ClickEventArgs(event)...).Scan(&event.ID); err != nil {
		return fmt.Errorf("failed to insert click event: %w", err)
	}
	return nil
}

// ListClickEventsByShortlink returns click events of an owned shortlink, newest first.
func (s *Store) ListClickEventsByShortlink(ctx context.Context, shortlinkID int64, userID string, limit int) ([]models.ClickEvent, error) {
	link, err := s.GetShortlinkByID(ctx, shortlinkID)
	if err != nil {
		return nil, err
	}
	if link.UserID != userID {
		return nil, database.ErrNotFound
	}

	return s.queryClickEvents(ctx,
		"SELECT "+database.ClickEventSelectColumns("")+
			" FROM click_events WHERE shortlink_id = $1 ORDER BY clicked_at DESC, id DESC LIMIT $2",
		shortlinkID, listLimit(limit))
}

// ListClickEventsByUser returns click events across the user's shortlinks, newest first.
func (s *Store) ListClickEventsByUser(ctx context.Context, userID string, limit int) ([]models.ClickEvent, error) {
	return s.queryClickEvents(ctx,
		"SELECT "+database.ClickEventSelectColumns("c")+
			" FROM click_events c JOIN shortlinks s ON s.id = c.shortlink_id"+
			" WHERE s.user_id = $1 ORDER BY c.clicked_at DESC, c.id DESC LIMIT $2",
		userID, listLimit(limit))
}

func (s *Store) queryClickEvents(ctx context.Context, query string, args ...any) (events []models.ClickEvent, err error) {
	start := time.Now()
	defer func() { observe("select", "click_events", start, err) }()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query click events: %w", err)
	}
	defer rows.Close()

	events = make([]models.ClickEvent, 0)
	for rows.Next() {
		e, err := database.ScanClickEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan click event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating click events: %w", err)
	}
	return events, nil
}

// GetStats counts the user's shortlinks, active shortlinks, and clicks in one round trip.
func (s *Store) GetStats(ctx context.Context, userID string) (stats *models.Stats, err error) {
	start := time.Now()
	defer func() { observe("select", "stats", start, err) }()

	stats = &models.Stats{}
	err = s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM shortlinks WHERE user_id = $1),
			(SELECT COUNT(*) FROM shortlinks WHERE user_id = $1 AND is_active),
			(SELECT COUNT(*) FROM click_events c JOIN shortlinks s ON s.id = c.shortlink_id WHERE s.user_id = $1)`,
		userID,
	).Scan(&stats.TotalLinks, &stats.ActiveLinks, &stats.TotalClicks)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}

// placeholders returns "$1, $2, ..., $n"
func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(parts, ", ")
}

func listLimit(limit int) int {
	if limit <= 0 || limit > database.DefaultListLimit {
		return database.DefaultListLimit
	}
	return limit
}
