// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrBrokerStopped is returned when the broker dies while supervised.
var ErrBrokerStopped = errors.New("embedded broker stopped unexpectedly")

// Broker is the lifecycle of events.EmbeddedServer.
type Broker interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// BrokerFactory starts a fresh broker after a crash.
type BrokerFactory func() (Broker, error)

// EmbeddedNATSService supervises the in-process NATS server.
//
// The first broker is started by the caller so publishers can connect
// before the tree runs. When it stops on its own, Serve returns
// ErrBrokerStopped and the next Serve starts a replacement via the factory
// on the same configured port.
type EmbeddedNATSService struct {
	current         Broker
	start           BrokerFactory
	checkInterval   time.Duration
	shutdownTimeout time.Duration
}

// NewEmbeddedNATSService wraps a running broker.
func NewEmbeddedNATSService(running Broker, start BrokerFactory) *EmbeddedNATSService {
	return &EmbeddedNATSService{
		current:         running,
		start:           start,
		checkInterval:   5 * time.Second,
		shutdownTimeout: 10 * time.Second,
	}
}

// Serve implements suture.Service.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	if s.current == nil || !s.current.IsRunning() {
		if s.start == nil {
			return fmt.Errorf("%w: no factory to restart it", ErrBrokerStopped)
		}
		b, err := s.start()
		if err != nil {
			return fmt.Errorf("start embedded broker: %w", err)
		}
		s.current = b
	}

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.current.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("embedded broker shutdown: %w", err)
			}
			return ctx.Err()

		case <-ticker.C:
			if !s.current.IsRunning() {
				return ErrBrokerStopped
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *EmbeddedNATSService) String() string {
	return "embedded-nats"
}
