// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package main

import (
	"context"
	"time"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/events"
	"github.com/tomtom215/waypoint/internal/ingest"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/supervisor/services"
)

// eventStream holds the click.recorded publisher and, when embedded, the
// broker it publishes to. The zero value is a disabled stream.
type eventStream struct {
	cfg       config.NATSConfig
	broker    *events.EmbeddedServer
	publisher *events.Publisher
}

// initEvents starts the embedded broker (if configured) and connects the
// publisher. NATS disabled yields a disabled stream and no error.
func initEvents(cfg *config.NATSConfig) (*eventStream, error) {
	s := &eventStream{cfg: *cfg}
	if !cfg.Enabled {
		logging.Info().Msg("Click event stream disabled")
		return s, nil
	}

	if cfg.EmbeddedServer {
		broker, err := events.NewEmbeddedServer(cfg)
		if err != nil {
			return nil, err
		}
		s.broker = broker
		s.cfg.URL = broker.ClientURL()
		logging.Info().Str("url", s.cfg.URL).Str("store_dir", cfg.StoreDir).Msg("Embedded NATS server started")
	}

	pub, err := events.NewNATSPublisher(&s.cfg, nil)
	if err != nil {
		s.close()
		return nil, err
	}
	s.publisher = pub
	logging.Info().Str("url", s.cfg.URL).Str("subject", pub.Subject()).Msg("Click event publisher connected")
	return s, nil
}

// publisherOrNil avoids handing ingest a typed-nil interface.
func (s *eventStream) publisherOrNil() ingest.Publisher {
	if s.publisher == nil {
		return nil
	}
	return s.publisher
}

// restartBroker is the supervisor's factory after a broker crash.
func (s *eventStream) restartBroker() (services.Broker, error) {
	broker, err := events.NewEmbeddedServer(&s.cfg)
	if err != nil {
		return nil, err
	}
	s.broker = broker
	logging.Warn().Str("url", broker.ClientURL()).Msg("Embedded NATS server restarted")
	return broker, nil
}

func (s *eventStream) close() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing click event publisher")
		}
	}
	if s.broker != nil && s.broker.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.broker.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
	}
}
