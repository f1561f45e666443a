// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package visitor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/waypoint/internal/fingerprint"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

// ErrDenied means the flow ended with geolocation denied and no retry left.
var ErrDenied = errors.New("geolocation denied")

// MetaSource bootstraps a slug.
type MetaSource interface {
	Meta(ctx context.Context, slug string) (*models.ShortlinkMeta, error)
}

// Flow runs the client-side pipeline for one visit:
// bootstrap, fingerprint and IP lookup in parallel, consent, submit, redirect.
type Flow struct {
	Meta       MetaSource
	Collector  *fingerprint.Collector
	IPResolver *IPResolver
	Negotiator *Negotiator
	Sequencer  *Sequencer

	// Retry decides whether the visitor presses "try again" after a denial.
	// Nil always retries while the negotiator allows it.
	Retry func(attempt int, lastErr error) bool
}

// Result describes a finished flow.
type Result struct {
	Meta       *models.ShortlinkMeta
	Event      *models.ClickEvent
	State      State
	Attempts   int
	Submission <-chan error
}

// Run executes the flow for slug. A denied outcome returns the partial result
// together with ErrDenied.
func (f *Flow) Run(ctx context.Context, slug string, env fingerprint.Environment) (*Result, error) {
	meta, err := f.Meta.Meta(ctx, slug)
	if err != nil {
		return nil, err
	}

	event := &models.ClickEvent{ShortlinkID: meta.ShortlinkID}
	res := &Result{Meta: meta, Event: event}

	var (
		wg  sync.WaitGroup
		fp  *fingerprint.Fingerprint
		geo *ClientGeo
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fp = f.Collector.Collect(ctx, env)
	}()
	go func() {
		defer wg.Done()
		if f.IPResolver != nil {
			geo = f.IPResolver.Resolve(ctx)
		}
	}()
	wg.Wait()

	fp.ApplyTo(event)
	geo.ApplyTo(event)

	state := f.negotiate(ctx)
	res.State = state
	res.Attempts = f.Negotiator.Attempts()
	if state != StateGranted {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		return res, fmt.Errorf("%w after %d attempts: %v", ErrDenied, res.Attempts, f.Negotiator.LastError())
	}

	if pos := f.Negotiator.Position(); pos != nil {
		// Native fix overrides any IP-derived coordinates
		event.Latitude = models.Ptr(pos.Latitude)
		event.Longitude = models.Ptr(pos.Longitude)
	}

	res.Submission, err = f.Sequencer.Run(ctx, state, event, meta.TargetURL)
	if err != nil {
		return res, err
	}
	return res, nil
}

func (f *Flow) negotiate(ctx context.Context) State {
	for {
		state, err := f.Negotiator.Request(ctx)
		if err != nil || state == StateGranted {
			return f.Negotiator.State()
		}
		if ctx.Err() != nil || !f.Negotiator.CanRetry() {
			return state
		}
		attempt := f.Negotiator.Attempts()
		if f.Retry != nil && !f.Retry(attempt, f.Negotiator.LastError()) {
			return state
		}
		logging.Debug().Int("attempt", attempt).Msg("Retrying geolocation after denial")
	}
}
