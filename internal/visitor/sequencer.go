// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package visitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

// DefaultRedirectDelay separates dispatching the submission from navigating.
const DefaultRedirectDelay = 1500 * time.Millisecond

// submitTimeout bounds the detached submission
const submitTimeout = 10 * time.Second

var (
	// ErrMissingShortlinkID means the payload was assembled without a
	// resolved shortlink. The resolver gate makes this a programming error.
	ErrMissingShortlinkID = errors.New("tracking payload has no shortlink id")

	// ErrNotGranted is returned when the sequencer runs before consent.
	ErrNotGranted = errors.New("geolocation permission not granted")
)

// Submitter delivers a tracking payload.
type Submitter interface {
	Submit(ctx context.Context, event *models.ClickEvent) error
}

// Navigator performs the final redirect.
type Navigator interface {
	Navigate(ctx context.Context, targetURL string) error
}

// Sequencer dispatches the submission and redirects after a fixed delay,
// whatever the submission outcome. Submissions are never retried.
type Sequencer struct {
	submitter Submitter
	navigator Navigator
	delay     time.Duration
}

// NewSequencer creates a sequencer. A non-positive delay uses DefaultRedirectDelay.
func NewSequencer(submitter Submitter, navigator Navigator, delay time.Duration) *Sequencer {
	if delay <= 0 {
		delay = DefaultRedirectDelay
	}
	return &Sequencer{submitter: submitter, navigator: navigator, delay: delay}
}

// Run submits event and navigates to targetURL once state is granted.
//
// The returned channel yields the submission result once it settles; callers
// may ignore it. The redirect does not wait for it.
func (s *Sequencer) Run(ctx context.Context, state State, event *models.ClickEvent, targetURL string) (<-chan error, error) {
	if state != StateGranted {
		return nil, ErrNotGranted
	}
	if event == nil || event.ShortlinkID <= 0 {
		return nil, ErrMissingShortlinkID
	}

	submitted := make(chan error, 1)
	payload := *event
	go func() {
		// Detached from ctx: navigating away must not cancel the beacon
		subCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
		defer cancel()

		err := s.submitter.Submit(subCtx, &payload)
		if err != nil {
			logging.Warn().Err(err).Int64("shortlink_id", payload.ShortlinkID).Msg("Tracking submission failed")
		}
		submitted <- err
	}()

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return submitted, ctx.Err()
	}

	if err := s.navigator.Navigate(ctx, targetURL); err != nil {
		return submitted, fmt.Errorf("navigate to target: %w", err)
	}
	return submitted, nil
}
