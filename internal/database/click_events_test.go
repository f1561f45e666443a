// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/waypoint/internal/models"
)

func TestInsertClickEventCoordinatesOnly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	link := createTestShortlink(t, db, "coords01", "owner", true)

	event := &models.ClickEvent{
		ShortlinkID: link.ID,
		Latitude:    models.Ptr(40.7128),
		Longitude:   models.Ptr(-74.0060),
	}
	if err := db.InsertClickEvent(ctx, event); err != nil {
		t.Fatalf("InsertClickEvent() error = %v", err)
	}
	if event.ID == 0 {
		t.Error("InsertClickEvent() did not assign an ID")
	}
	if event.Timestamp.IsZero() {
		t.Error("InsertClickEvent() did not assign a timestamp")
	}

	events, err := db.ListClickEventsByShortlink(ctx, link.ID, "owner", 0)
	if err != nil {
		t.Fatalf("ListClickEventsByShortlink() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}

	got := events[0]
	if got.Latitude == nil || *got.Latitude != 40.7128 {
		t.Errorf("Latitude = %v, want 40.7128", got.Latitude)
	}
	if got.Longitude == nil || *got.Longitude != -74.0060 {
		t.Errorf("Longitude = %v, want -74.0060", got.Longitude)
	}

	nilFields := map[string]bool{
		"ipAddress":  got.IPAddress == nil,
		"country":    got.Country == nil,
		"userAgent":  got.UserAgent == nil,
		"rtt":        got.RTT == nil,
		"downlink":   got.Downlink == nil,
		"isBot":      got.IsBot == nil,
		"referrer":   got.Referrer == nil,
		"backendIp":  got.BackendIP == nil,
		"backendLoc": got.BackendLoc == nil,
	}
	for field, isNil := range nilFields {
		if !isNil {
			t.Errorf("%s should be NULL", field)
		}
	}
}

func TestInsertClickEventKeepsClientAndServerCountry(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	link := createTestShortlink(t, db, "country1", "owner", true)

	event := &models.ClickEvent{
		ShortlinkID:     link.ID,
		Country:         models.Ptr("Canada"),
		BackendCountry:  models.Ptr("United States"),
		RTT:             models.Ptr(50),
		BatteryCharging: models.Ptr(false),
		Timestamp:       time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.InsertClickEvent(ctx, event); err != nil {
		t.Fatalf("InsertClickEvent() error = %v", err)
	}
	if event.Timestamp.Year() == 2001 {
		t.Error("client-supplied timestamp must be replaced")
	}

	events, err := db.ListClickEventsByUser(ctx, "owner", 10)
	if err != nil {
		t.Fatalf("ListClickEventsByUser() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	got := events[0]
	if got.Country == nil || *got.Country != "Canada" {
		t.Errorf("Country = %v, want Canada", got.Country)
	}
	if got.BackendCountry == nil || *got.BackendCountry != "United States" {
		t.Errorf("BackendCountry = %v, want United States", got.BackendCountry)
	}
	if got.RTT == nil || *got.RTT != 50 {
		t.Errorf("RTT = %v, want 50", got.RTT)
	}
	if got.BatteryCharging == nil || *got.BatteryCharging {
		t.Errorf("BatteryCharging = %v, want pointer to false", got.BatteryCharging)
	}
}

func TestInsertClickEventNoDeduplication(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	link := createTestShortlink(t, db, "repeat01", "owner", true)

	for i := 0; i < 3; i++ {
		if err := db.InsertClickEvent(ctx, &models.ClickEvent{ShortlinkID: link.ID, IPAddress: models.Ptr("203.0.113.1")}); err != nil {
			t.Fatalf("InsertClickEvent() #%d error = %v", i, err)
		}
	}

	events, err := db.ListClickEventsByShortlink(ctx, link.ID, "owner", 0)
	if err != nil {
		t.Fatalf("ListClickEventsByShortlink() error = %v", err)
	}
	if len(events) != 3 {
		t.Errorf("len(events) = %d, want 3 identical rows", len(events))
	}
	if events[0].ID < events[2].ID {
		t.Error("events should be newest first")
	}
}

func TestListClickEventsOwnership(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	mine := createTestShortlink(t, db, "mine0001", "owner", true)
	theirs := createTestShortlink(t, db, "theirs01", "other", true)

	for _, id := range []int64{mine.ID, theirs.ID, theirs.ID} {
		if err := db.InsertClickEvent(ctx, &models.ClickEvent{ShortlinkID: id}); err != nil {
			t.Fatalf("InsertClickEvent() error = %v", err)
		}
	}

	if _, err := db.ListClickEventsByShortlink(ctx, theirs.ID, "owner", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListClickEventsByShortlink(not owned) error = %v, want ErrNotFound", err)
	}

	events, err := db.ListClickEventsByUser(ctx, "owner", 0)
	if err != nil {
		t.Fatalf("ListClickEventsByUser() error = %v", err)
	}
	if len(events) != 1 || events[0].ShortlinkID != mine.ID {
		t.Errorf("ListClickEventsByUser() = %+v, want the single click on %d", events, mine.ID)
	}

	limited, err := db.ListClickEventsByUser(ctx, "other", 1)
	if err != nil {
		t.Fatalf("ListClickEventsByUser(limit) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	active := createTestShortlink(t, db, "stats001", "owner", true)
	createTestShortlink(t, db, "stats002", "owner", false)
	other := createTestShortlink(t, db, "stats003", "other", true)

	for _, id := range []int64{active.ID, active.ID, other.ID} {
		if err := db.InsertClickEvent(ctx, &models.ClickEvent{ShortlinkID: id}); err != nil {
			t.Fatalf("InsertClickEvent() error = %v", err)
		}
	}

	stats, err := db.GetStats(ctx, "owner")
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	want := models.Stats{TotalLinks: 2, ActiveLinks: 1, TotalClicks: 2}
	if *stats != want {
		t.Errorf("GetStats() = %+v, want %+v", *stats, want)
	}

	empty, err := db.GetStats(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetStats(nobody) error = %v", err)
	}
	if *empty != (models.Stats{}) {
		t.Errorf("GetStats(nobody) = %+v, want zeros", *empty)
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultListLimit},
		{-5, DefaultListLimit},
		{50, 50},
		{DefaultListLimit + 1, DefaultListLimit},
	}
	for _, tt := range tests {
		if got := normalizeLimit(tt.in); got != tt.want {
			t.Errorf("normalizeLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClickEventColumnsMatchArgs(t *testing.T) {
	args := ClickEventArgs(&models.ClickEvent{ShortlinkID: 1})
	if len(args) != ClickEventColumnCount() {
		t.Errorf("len(ClickEventArgs) = %d, want %d", len(args), ClickEventColumnCount())
	}
	if args[2] != nil {
		t.Errorf("nil IPAddress should flatten to nil, got %v", args[2])
	}
}
