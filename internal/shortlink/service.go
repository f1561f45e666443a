// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package shortlink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/waypoint/internal/database"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/validation"
)

var (
	// ErrNotFound covers missing, inactive, and not-owned shortlinks.
	ErrNotFound = errors.New("shortlink not found")

	// ErrSlugSpaceExhausted means every generated slug collided.
	ErrSlugSpaceExhausted = errors.New("could not generate a unique slug")
)

// Store is the slice of persistence the service needs.
type Store interface {
	CreateShortlink(ctx context.Context, link *models.Shortlink) error
	GetShortlinkBySlug(ctx context.Context, slug string) (*models.Shortlink, error)
	GetShortlinkByID(ctx context.Context, id int64) (*models.Shortlink, error)
	ListShortlinksByUser(ctx context.Context, userID string) ([]models.Shortlink, error)
	SetShortlinkActive(ctx context.Context, id int64, userID string, active bool) (*models.Shortlink, error)
	ListClickEventsByShortlink(ctx context.Context, shortlinkID int64, userID string, limit int) ([]models.ClickEvent, error)
	ListClickEventsByUser(ctx context.Context, userID string, limit int) ([]models.ClickEvent, error)
	GetStats(ctx context.Context, userID string) (*models.Stats, error)
}

// Config holds service settings.
type Config struct {
	PublicURL  string
	SlugLength int
}

// Service resolves slugs and performs owner operations.
type Service struct {
	store      Store
	publicURL  string
	slugLength int
	newSlug    func(int) (string, error)
}

// NewService creates a service over store.
func NewService(store Store, cfg Config) *Service {
	if cfg.SlugLength <= 0 {
		cfg.SlugLength = DefaultSlugLength
	}
	return &Service{
		store:      store,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		slugLength: cfg.SlugLength,
		newSlug:    GenerateSlug,
	}
}

// Resolve maps a public slug to its redirect metadata.
// Malformed, missing, and inactive slugs all return ErrNotFound.
func (s *Service) Resolve(ctx context.Context, slug string) (*models.ShortlinkMeta, error) {
	if validation.GetValidator().Var(slug, "slug,max=64") != nil {
		metrics.RecordResolution("not_found")
		return nil, ErrNotFound
	}

	link, err := s.store.GetShortlinkBySlug(ctx, slug)
	if err != nil {
		return nil, s.resolutionError(err, "slug", slug)
	}
	if !link.IsActive {
		metrics.RecordResolution("inactive")
		return nil, ErrNotFound
	}

	metrics.RecordResolution("found")
	return &models.ShortlinkMeta{TargetURL: link.TargetURL, ShortlinkID: link.ID}, nil
}

// ResolveByID returns the shortlink if it exists and is active.
// Ingestion uses it to re-validate a submitted shortlinkId.
func (s *Service) ResolveByID(ctx context.Context, id int64) (*models.Shortlink, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}

	link, err := s.store.GetShortlinkByID(ctx, id)
	if err != nil {
		return nil, s.resolutionError(err, "id", fmt.Sprint(id))
	}
	if !link.IsActive {
		metrics.RecordResolution("inactive")
		return nil, ErrNotFound
	}

	metrics.RecordResolution("found")
	return link, nil
}

func (s *Service) resolutionError(err error, key, value string) error {
	if errors.Is(err, database.ErrNotFound) {
		metrics.RecordResolution("not_found")
		return ErrNotFound
	}
	metrics.RecordResolution("error")
	logging.Error().Err(err).Str(key, value).Msg("Shortlink lookup failed")
	return fmt.Errorf("resolve shortlink: %w", err)
}

// Create stores a new active shortlink for userID with a generated slug.
func (s *Service) Create(ctx context.Context, userID string, req *models.CreateShortlinkRequest) (*models.Shortlink, error) {
	for attempt := 1; attempt <= MaxSlugAttempts; attempt++ {
		slug, err := s.newSlug(s.slugLength)
		if err != nil {
			return nil, err
		}

		link := &models.Shortlink{
			Slug:         slug,
			UserID:       userID,
			TargetURL:    req.TargetURL,
			CampaignName: req.CampaignName,
			Description:  req.Description,
			IsActive:     true,
		}

		err = s.store.CreateShortlink(ctx, link)
		if err == nil {
			logging.Info().Int64("id", link.ID).Str("slug", slug).Str("user_id", userID).Msg("Shortlink created")
			return link, nil
		}
		if !errors.Is(err, database.ErrSlugConflict) {
			return nil, fmt.Errorf("create shortlink: %w", err)
		}
		logging.Debug().Str("slug", slug).Int("attempt", attempt).Msg("Slug collision, retrying")
	}
	return nil, ErrSlugSpaceExhausted
}

// List returns userID's shortlinks, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Shortlink, error) {
	return s.store.ListShortlinksByUser(ctx, userID)
}

// Get returns shortlink id if userID owns it.
func (s *Service) Get(ctx context.Context, id int64, userID string) (*models.Shortlink, error) {
	link, err := s.store.GetShortlinkByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if link.UserID != userID {
		return nil, ErrNotFound
	}
	return link, nil
}

// SetActive toggles the active flag of an owned shortlink.
func (s *Service) SetActive(ctx context.Context, id int64, userID string, active bool) (*models.Shortlink, error) {
	link, err := s.store.SetShortlinkActive(ctx, id, userID, active)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	logging.Info().Int64("id", id).Bool("active", active).Msg("Shortlink active flag changed")
	return link, nil
}

// Clicks lists click events of an owned shortlink, newest first.
func (s *Service) Clicks(ctx context.Context, id int64, userID string, limit int) ([]models.ClickEvent, error) {
	events, err := s.store.ListClickEventsByShortlink(ctx, id, userID, limit)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return events, err
}

// UserClicks lists click events across all of userID's shortlinks.
func (s *Service) UserClicks(ctx context.Context, userID string, limit int) ([]models.ClickEvent, error) {
	return s.store.ListClickEventsByUser(ctx, userID, limit)
}

// Stats summarises userID's shortlinks and clicks.
func (s *Service) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	return s.store.GetStats(ctx, userID)
}

// ShortURL is the public URL visitors open for slug.
func (s *Service) ShortURL(slug string) string {
	return s.publicURL + "/s/" + slug
}

// QRCode renders the short URL of an owned shortlink as a PNG.
func (s *Service) QRCode(ctx context.Context, id int64, userID string, size int) ([]byte, error) {
	link, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return EncodeQR(s.ShortURL(link.Slug), size)
}
