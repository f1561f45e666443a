// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/waypoint/internal/models"
)

// SchemaVersion is bumped on incompatible payload changes.
const SchemaVersion = 1

// DefaultSubject is the subject click notifications are published on.
const DefaultSubject = "click.recorded"

// ClickRecorded is the payload published after a click event is persisted.
// It carries identifiers and the coarse location only; consumers that need
// the full row read it from storage.
type ClickRecorded struct {
	SchemaVersion  int       `json:"schema_version"`
	EventID        string    `json:"event_id"`
	ClickID        int64     `json:"click_id"`
	ShortlinkID    int64     `json:"shortlink_id"`
	Slug           string    `json:"slug,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Country        string    `json:"country,omitempty"`
	BackendCountry string    `json:"backend_country,omitempty"`
	HasCoordinates bool      `json:"has_coordinates"`
	IsBot          bool      `json:"is_bot,omitempty"`
}

// NewClickRecorded builds the notification for a stored event.
func NewClickRecorded(e *models.ClickEvent, slug string) *ClickRecorded {
	return &ClickRecorded{
		SchemaVersion:  SchemaVersion,
		EventID:        uuid.NewString(),
		ClickID:        e.ID,
		ShortlinkID:    e.ShortlinkID,
		Slug:           slug,
		Timestamp:      e.Timestamp,
		Country:        deref(e.Country),
		BackendCountry: deref(e.BackendCountry),
		HasCoordinates: e.HasCoordinates(),
		IsBot:          e.IsBot != nil && *e.IsBot,
	}
}

// Validate checks the fields every consumer relies on.
func (c *ClickRecorded) Validate() error {
	if c.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if c.ShortlinkID <= 0 {
		return fmt.Errorf("shortlink_id must be positive")
	}
	if c.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// Marshal serializes the payload.
func (c *ClickRecorded) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalClickRecorded decodes and validates a payload.
func UnmarshalClickRecorded(data []byte) (*ClickRecorded, error) {
	var c ClickRecorded
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal click event: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
