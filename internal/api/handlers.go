// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/waypoint/internal/ingest"
	"github.com/tomtom215/waypoint/internal/models"
)

// ShortlinkService is the resolver and owner-side shortlink management.
type ShortlinkService interface {
	Resolve(ctx context.Context, slug string) (*models.ShortlinkMeta, error)
	Create(ctx context.Context, userID string, req *models.CreateShortlinkRequest) (*models.Shortlink, error)
	List(ctx context.Context, userID string) ([]models.Shortlink, error)
	SetActive(ctx context.Context, id int64, userID string, active bool) (*models.Shortlink, error)
	Clicks(ctx context.Context, id int64, userID string, limit int) ([]models.ClickEvent, error)
	UserClicks(ctx context.Context, userID string, limit int) ([]models.ClickEvent, error)
	Stats(ctx context.Context, userID string) (*models.Stats, error)
	QRCode(ctx context.Context, id int64, userID string, size int) ([]byte, error)
	ShortURL(slug string) string
}

// IngestService records tracking submissions.
type IngestService interface {
	Ingest(ctx context.Context, event *models.ClickEvent, conn ingest.ConnectionInfo) (*models.ClickEvent, error)
}

// HealthChecker reports storage reachability.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of every HTTP handler.
type Handler struct {
	links     ShortlinkService
	ingest    IngestService
	health    HealthChecker
	page      *TrackingPage
	version   string
	startTime time.Time
}

// NewHandler creates the handler set.
func NewHandler(links ShortlinkService, ingestSvc IngestService, health HealthChecker, page *TrackingPage, version string) *Handler {
	return &Handler{
		links:     links,
		ingest:    ingestSvc,
		health:    health,
		page:      page,
		version:   version,
		startTime: time.Now(),
	}
}

// Default and maximum row counts for click listings
const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body) //nolint:errcheck // client disconnects are not actionable
}
