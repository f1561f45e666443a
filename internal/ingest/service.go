// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/fingerprint"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/shortlink"
	"github.com/tomtom215/waypoint/internal/validation"
)

const (
	// MaxPayloadBytes caps a tracking submission body
	MaxPayloadBytes = 64 * 1024

	// DefaultLookupTimeout bounds the server-side geo lookup
	DefaultLookupTimeout = 3 * time.Second

	publishTimeout = 5 * time.Second
)

var (
	// ErrMalformedPayload covers undecodable bodies and wrong field types.
	ErrMalformedPayload = errors.New("malformed tracking payload")

	// ErrUnknownShortlink means shortlinkId does not name an active shortlink.
	ErrUnknownShortlink = errors.New("shortlinkId does not reference an active shortlink")

	// ErrPersist wraps storage failures.
	ErrPersist = errors.New("failed to persist click event")
)

// Store persists click events.
type Store interface {
	InsertClickEvent(ctx context.Context, event *models.ClickEvent) error
}

// ShortlinkResolver re-validates the submitted shortlinkId.
type ShortlinkResolver interface {
	ResolveByID(ctx context.Context, id int64) (*models.Shortlink, error)
}

// GeoLookup is the server-side IP geolocation.
type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (*models.ServerGeo, error)
}

// Publisher announces persisted clicks.
type Publisher interface {
	PublishClick(ctx context.Context, event *models.ClickEvent, slug string) error
}

// Options configures a Service.
type Options struct {
	TrustForwardedFor bool
	LookupTimeout     time.Duration
}

// Service is the ingestion pipeline behind POST /api/track.
type Service struct {
	store     Store
	links     ShortlinkResolver
	geo       GeoLookup
	publisher Publisher
	opts      Options
}

// NewService wires the pipeline. geo and publisher may be nil.
func NewService(store Store, links ShortlinkResolver, geo GeoLookup, publisher Publisher, opts Options) *Service {
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	return &Service{store: store, links: links, geo: geo, publisher: publisher, opts: opts}
}

// Decode reads a submission body. Any decode failure is ErrMalformedPayload.
func Decode(r io.Reader) (*models.ClickEvent, error) {
	var event models.ClickEvent
	if err := json.NewDecoder(io.LimitReader(r, MaxPayloadBytes)).Decode(&event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &event, nil
}

// Ingest enriches, validates, and persists one submission.
//
// Errors: *validation.RequestValidationError and ErrUnknownShortlink are the
// submitter's fault; ErrPersist is ours. Geolocation and publish failures are
// never returned.
func (s *Service) Ingest(ctx context.Context, event *models.ClickEvent, conn ConnectionInfo) (*models.ClickEvent, error) {
	event.ClearServerFields()
	deriveUserAgent(event)

	if verr := validation.ValidateStruct(event); verr != nil {
		metrics.RecordClickRejected("validation")
		return nil, verr
	}

	link, err := s.links.ResolveByID(ctx, event.ShortlinkID)
	if err != nil {
		if errors.Is(err, shortlink.ErrNotFound) {
			metrics.RecordClickRejected("validation")
			return nil, ErrUnknownShortlink
		}
		metrics.RecordClickRejected("storage")
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	s.enrich(ctx, event, conn)

	if err := s.store.InsertClickEvent(ctx, event); err != nil {
		metrics.RecordClickRejected("storage")
		logging.Error().Err(err).Int64("shortlink_id", event.ShortlinkID).Msg("Failed to persist click event")
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	metrics.RecordClickIngested(event.HasCoordinates())
	logging.Ctx(ctx).Debug().
		Int64("click_id", event.ID).
		Int64("shortlink_id", event.ShortlinkID).
		Bool("has_coordinates", event.HasCoordinates()).
		Msg("Click event recorded")

	s.publish(ctx, event, link.Slug)
	return event, nil
}

// enrich performs the server-side lookup. Failure leaves backend_* unset.
func (s *Service) enrich(ctx context.Context, event *models.ClickEvent, conn ConnectionInfo) {
	ip := ServerIP(conn, s.opts.TrustForwardedFor)
	if ip == "" {
		return
	}
	event.BackendIP = models.Ptr(ip)

	if s.geo == nil {
		return
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.LookupTimeout)
	defer cancel()

	geo, err := s.geo.Lookup(lookupCtx, ip)
	if err != nil {
		logging.Debug().Err(err).Str("ip", ip).Msg("Server-side geolocation unavailable, persisting without it")
		return
	}
	event.ApplyServerGeo(geo)
	if event.BackendIP == nil {
		event.BackendIP = models.Ptr(ip)
	}
}

func (s *Service) publish(ctx context.Context, event *models.ClickEvent, slug string) {
	if s.publisher == nil {
		return
	}
	snapshot := *event
	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		err := s.publisher.PublishClick(pubCtx, &snapshot, slug)
		metrics.RecordEventPublish(err)
		if err != nil {
			logging.Warn().Err(err).Int64("click_id", snapshot.ID).Msg("Failed to publish click event")
		}
	}()
}

// deriveUserAgent fills missing browser/os/device fields from the submitted
// userAgent. The request's own User-Agent header is never used: a payload
// without userAgent is stored without any of these fields.
func deriveUserAgent(event *models.ClickEvent) {
	if event.UserAgent == nil || *event.UserAgent == "" {
		return
	}
	if event.Browser != nil && event.OS != nil && event.DeviceType != nil {
		return
	}

	info := fingerprint.ParseUserAgent(*event.UserAgent)
	if event.Browser == nil {
		event.Browser = models.Ptr(info.Browser)
	}
	if event.OS == nil {
		event.OS = models.Ptr(info.OS)
	}
	if event.DeviceType == nil {
		event.DeviceType = models.Ptr(info.DeviceType)
	}
	if event.DeviceModel == nil {
		event.DeviceModel = models.Ptr(info.DeviceModel)
	}
	if event.AndroidVersion == nil && info.AndroidVersion != nil {
		event.AndroidVersion = info.AndroidVersion
	}
}
