// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/tomtom215/waypoint/internal/database"
	"github.com/tomtom215/waypoint/internal/models"
)

var shortlinkCols = strings.Split(database.ShortlinkColumns, ", ")

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return NewWithDB(db), mock
}

func verify(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	store, mock := setupMockStore(t)

	for range schemaQueries {
		mock.ExpectExec("CREATE (TABLE|INDEX) IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	verify(t, mock)
}

func TestMigrateError(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS shortlinks").WillReturnError(errors.New("permission denied"))

	if err := store.Migrate(context.Background()); err == nil {
		t.Fatal("Migrate() error = nil, want error")
	}
	verify(t, mock)
}

func TestCreateShortlink(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("INSERT INTO shortlinks").
		WithArgs("aB3dE6gH", "user-1", "https://example.com", "spring", sqlmock.AnyArg(), true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	link := &models.Shortlink{
		Slug:         "aB3dE6gH",
		UserID:       "user-1",
		TargetURL:    "https://example.com",
		CampaignName: models.Ptr("spring"),
		IsActive:     true,
	}
	if err := store.CreateShortlink(context.Background(), link); err != nil {
		t.Fatalf("CreateShortlink() error = %v", err)
	}
	if link.ID != 7 {
		t.Errorf("ID = %d, want 7", link.ID)
	}
	if link.CreatedAt.IsZero() {
		t.Error("CreatedAt was not set")
	}
	verify(t, mock)
}

func TestCreateShortlinkUniqueViolation(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("INSERT INTO shortlinks").
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Message: "duplicate key value violates unique constraint"})

	err := store.CreateShortlink(context.Background(), &models.Shortlink{Slug: "taken001", UserID: "u", TargetURL: "https://x.test"})
	if !errors.Is(err, database.ErrSlugConflict) {
		t.Errorf("CreateShortlink() error = %v, want ErrSlugConflict", err)
	}
	verify(t, mock)
}

func TestGetShortlinkBySlug(t *testing.T) {
	store, mock := setupMockStore(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM shortlinks WHERE slug = $1")).
		WithArgs("aB3dE6gH").
		WillReturnRows(sqlmock.NewRows(shortlinkCols).
			AddRow(int64(3), "aB3dE6gH", "user-1", "https://example.com", nil, "landing page", true, created))

	link, err := store.GetShortlinkBySlug(context.Background(), "aB3dE6gH")
	if err != nil {
		t.Fatalf("GetShortlinkBySlug() error = %v", err)
	}
	if link.ID != 3 || !link.IsActive || !link.CreatedAt.Equal(created) {
		t.Errorf("GetShortlinkBySlug() = %+v", link)
	}
	if link.CampaignName != nil {
		t.Errorf("CampaignName = %q, want nil", *link.CampaignName)
	}
	if link.Description == nil || *link.Description != "landing page" {
		t.Errorf("Description = %v, want landing page", link.Description)
	}
	verify(t, mock)
}

func TestGetShortlinkNotFound(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM shortlinks WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(shortlinkCols))

	if _, err := store.GetShortlinkByID(context.Background(), 99); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("GetShortlinkByID() error = %v, want ErrNotFound", err)
	}
	verify(t, mock)
}

func TestSetShortlinkActiveNotOwned(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("UPDATE shortlinks SET is_active").
		WithArgs(false, int64(3), "intruder").
		WillReturnRows(sqlmock.NewRows(shortlinkCols))

	if _, err := store.SetShortlinkActive(context.Background(), 3, "intruder", false); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("SetShortlinkActive() error = %v, want ErrNotFound", err)
	}
	verify(t, mock)
}

func TestInsertClickEvent(t *testing.T) {
	store, mock := setupMockStore(t)

	args := make([]driver.Value, database.ClickEventColumnCount())
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	mock.ExpectQuery("INSERT INTO click_events").
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	event := &models.ClickEvent{
		ShortlinkID: 3,
		Latitude:    models.Ptr(40.7128),
		Longitude:   models.Ptr(-74.0060),
	}
	if err := store.InsertClickEvent(context.Background(), event); err != nil {
		t.Fatalf("InsertClickEvent() error = %v", err)
	}
	if event.ID != 11 {
		t.Errorf("ID = %d, want 11", event.ID)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp was not set")
	}
	verify(t, mock)
}

func TestInsertClickEventError(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectQuery("INSERT INTO click_events").WillReturnError(errors.New("disk full"))

	err := store.InsertClickEvent(context.Background(), &models.ClickEvent{ShortlinkID: 1})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("InsertClickEvent() error = %v, want wrapped disk full", err)
	}
	verify(t, mock)
}

func TestListClickEventsByShortlinkNotOwned(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM shortlinks WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(shortlinkCols).
			AddRow(int64(5), "theirs01", "other", "https://example.com", nil, nil, true, time.Now()))

	if _, err := store.ListClickEventsByShortlink(context.Background(), 5, "owner", 0); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("ListClickEventsByShortlink() error = %v, want ErrNotFound", err)
	}
	verify(t, mock)
}

func TestListClickEventsByUser(t *testing.T) {
	store, mock := setupMockStore(t)

	cols := strings.Split(database.ClickEventSelectColumns(""), ", ")
	values := make([]driver.Value, len(cols))
	values[0] = int64(21)
	values[1] = int64(5)
	values[2] = time.Now()
	values[columnIndex(t, cols, "country")] = "Canada"
	values[columnIndex(t, cols, "backend_country")] = "United States"

	mock.ExpectQuery("FROM click_events c JOIN shortlinks s").
		WithArgs("owner", database.DefaultListLimit).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(values...))

	events, err := store.ListClickEventsByUser(context.Background(), "owner", 0)
	if err != nil {
		t.Fatalf("ListClickEventsByUser() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	e := events[0]
	if e.ID != 21 || e.ShortlinkID != 5 {
		t.Errorf("event ids = %d/%d, want 21/5", e.ID, e.ShortlinkID)
	}
	if e.Country == nil || *e.Country != "Canada" {
		t.Errorf("Country = %v, want Canada", e.Country)
	}
	if e.BackendCountry == nil || *e.BackendCountry != "United States" {
		t.Errorf("BackendCountry = %v, want United States", e.BackendCountry)
	}
	if e.Latitude != nil || e.IsBot != nil {
		t.Error("NULL columns should scan to nil")
	}
	verify(t, mock)
}

func TestGetStats(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT").
		WithArgs("owner").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c"}).AddRow(int64(4), int64(3), int64(17)))

	stats, err := store.GetStats(context.Background(), "owner")
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	want := models.Stats{TotalLinks: 4, ActiveLinks: 3, TotalClicks: 17}
	if *stats != want {
		t.Errorf("GetStats() = %+v, want %+v", *stats, want)
	}
	verify(t, mock)
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "$1, $2, $3" {
		t.Errorf("placeholders(3) = %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pq.Error{Code: pgUniqueViolation}) {
		t.Error("23505 should be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("timeout")) {
		t.Error("plain error is not a unique violation")
	}
}

func columnIndex(t *testing.T, cols []string, name string) int {
	t.Helper()
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	t.Fatalf("column %q not selected", name)
	return -1
}
