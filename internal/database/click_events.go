// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/waypoint/internal/models"
)

// InsertClickEvent appends one click event and fills in its ID and Timestamp.
// The server always assigns the timestamp; any value on the event is replaced.
func (db *DB) InsertClickEvent(ctx context.Context, event *models.ClickEvent) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "click_events", start, err) }()

	event.Timestamp = time.Now().UTC()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", ClickEventColumnCount()), ", ")
	query := "INSERT INTO click_events (" + ClickEventInsertColumns() + ") VALUES (" + placeholders + ") RETURNING id"

	if err = db.conn.QueryRowContext(ctx, query, ClickEventArgs(event)...).Scan(&event.ID); err != nil {
		return fmt.Errorf("failed to insert click event: %w", err)
	}
	return nil
}

// ListClickEventsByShortlink returns click events of a shortlink owned by userID,
// newest first. Returns ErrNotFound when the shortlink is not the caller's.
func (db *DB) ListClickEventsByShortlink(ctx context.Context, shortlinkID int64, userID string, limit int) ([]models.ClickEvent, error) {
	link, err := db.GetShortlinkByID(ctx, shortlinkID)
	if err != nil {
		return nil, err
	}
	if link.UserID != userID {
		return nil, ErrNotFound
	}

	query := "SELECT " + ClickEventSelectColumns("") +
		" FROM click_events WHERE shortlink_id = ? ORDER BY clicked_at DESC, id DESC LIMIT ?"
	return db.queryClickEvents(ctx, query, shortlinkID, normalizeLimit(limit))
}

// ListClickEventsByUser returns click events across every shortlink userID owns, newest first.
func (db *DB) ListClickEventsByUser(ctx context.Context, userID string, limit int) ([]models.ClickEvent, error) {
	query := "SELECT " + ClickEventSelectColumns("c") +
		" FROM click_events c JOIN shortlinks s ON s.id = c.shortlink_id" +
		" WHERE s.user_id = ? ORDER BY c.clicked_at DESC, c.id DESC LIMIT ?"
	return db.queryClickEvents(ctx, query, userID, normalizeLimit(limit))
}

func (db *DB) queryClickEvents(ctx context.Context, query string, args ...any) (events []models.ClickEvent, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "click_events", start, err) }()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query click events: %w", err)
	}
	defer closeWithLog(rows, "rows")

	events = make([]models.ClickEvent, 0)
	for rows.Next() {
		e, err := ScanClickEvent(rows)
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

// GetStats counts the user's shortlinks, active shortlinks, and clicks.
func (db *DB) GetStats(ctx context.Context, userID string) (stats *models.Stats, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "stats", start, err) }()

	stats = &models.Stats{}
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(CASE WHEN is_active THEN 1 END)
		FROM shortlinks WHERE user_id = ?`, userID,
	).Scan(&stats.TotalLinks, &stats.ActiveLinks)
	if err != nil {
		return nil, fmt.Errorf("failed to count shortlinks: %w", err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM click_events c JOIN shortlinks s ON s.id = c.shortlink_id
		WHERE s.user_id = ?`, userID,
	).Scan(&stats.TotalClicks)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}
	return stats, nil
}

// normalizeLimit applies DefaultListLimit to non-positive or oversized limits
func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
