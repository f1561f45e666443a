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
	"time"

	"github.com/tomtom215/waypoint/internal/logging"
)

// State is the geolocation permission state.
type State string

const (
	StatePending State = "pending"
	StateGranted State = "granted"
	StateDenied  State = "denied"
)

// DefaultGeolocationTimeout is the native position request budget.
const DefaultGeolocationTimeout = 10 * time.Second

var (
	// ErrRetriesExhausted is returned by Request from denied once the retry
	// budget is spent.
	ErrRetriesExhausted = errors.New("geolocation permission retries exhausted")

	// ErrRequestInFlight is returned when a request is already outstanding.
	ErrRequestInFlight = errors.New("geolocation request already in flight")

	// ErrNoGeolocation marks a client without a position capability.
	ErrNoGeolocation = errors.New("geolocation unsupported")
)

// Position is a native geolocation fix.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// PositionOptions mirror the native request options.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
}

// PositionSource is the native geolocation capability. Implementations should
// honour ctx; the negotiator also enforces opts.Timeout itself.
type PositionSource interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)
}

// PositionFunc adapts a function to PositionSource.
type PositionFunc func(ctx context.Context, opts PositionOptions) (Position, error)

// CurrentPosition implements PositionSource.
func (f PositionFunc) CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error) {
	return f(ctx, opts)
}

// Negotiator is the consent state machine gating the redirect.
//
//	pending --success--> granted
//	pending --failure--> denied
//	denied  --retry----> pending (and a new request)
//
// It starts in pending and waits for an explicit Request, the "allow" gesture.
// Only granted releases the redirect.
type Negotiator struct {
	source     PositionSource
	timeout    time.Duration
	maxRetries int

	mu        sync.Mutex
	state     State
	position  *Position
	attempts  int
	inFlight  bool
	lastError error
	onChange  func(from, to State)
}

// NegotiatorOption configures a Negotiator.
type NegotiatorOption func(*Negotiator)

// WithGeolocationTimeout overrides DefaultGeolocationTimeout.
func WithGeolocationTimeout(d time.Duration) NegotiatorOption {
	return func(n *Negotiator) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithMaxRetries caps retries from denied. Zero or less means unbounded.
func WithMaxRetries(max int) NegotiatorOption {
	return func(n *Negotiator) {
		n.maxRetries = max
	}
}

// WithStateObserver is called after every transition, outside the lock.
func WithStateObserver(fn func(from, to State)) NegotiatorOption {
	return func(n *Negotiator) {
		n.onChange = fn
	}
}

// NewNegotiator creates a negotiator in pending. A nil source behaves as a
// client without geolocation: every request ends in denied.
func NewNegotiator(source PositionSource, opts ...NegotiatorOption) *Negotiator {
	n := &Negotiator{
		source:  source,
		timeout: DefaultGeolocationTimeout,
		state:   StatePending,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// State returns the current state.
func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Position returns the granted fix, or nil.
func (n *Negotiator) Position() *Position {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.position == nil {
		return nil
	}
	p := *n.position
	return &p
}

// Attempts is the number of native requests issued so far.
func (n *Negotiator) Attempts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.attempts
}

// LastError is the failure behind the most recent denial.
func (n *Negotiator) LastError() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastError
}

// CanRetry reports whether a Request from denied would be accepted.
func (n *Negotiator) CanRetry() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.canRetryLocked()
}

func (n *Negotiator) canRetryLocked() bool {
	// attempts-1 retries have been used after the first request
	return n.maxRetries <= 0 || n.attempts-1 < n.maxRetries
}

// Request handles the "allow" gesture: from pending it issues the native
// request, from denied it re-enters pending and issues a new one. From granted
// it is a no-op. It blocks until the request settles and returns the new state.
func (n *Negotiator) Request(ctx context.Context) (State, error) {
	n.mu.Lock()
	if n.inFlight {
		n.mu.Unlock()
		return StatePending, ErrRequestInFlight
	}
	from := n.state
	switch from {
	case StateGranted:
		n.mu.Unlock()
		return StateGranted, nil
	case StateDenied:
		if !n.canRetryLocked() {
			n.mu.Unlock()
			return StateDenied, ErrRetriesExhausted
		}
		n.state = StatePending
	}
	n.inFlight = true
	n.attempts++
	attempt := n.attempts
	n.mu.Unlock()

	if from == StateDenied {
		n.notify(StateDenied, StatePending)
	}

	pos, err := n.locate(ctx)

	n.mu.Lock()
	n.inFlight = false
	if err != nil {
		n.state = StateDenied
		n.lastError = err
	} else {
		n.state = StateGranted
		n.position = &pos
		n.lastError = nil
	}
	to := n.state
	n.mu.Unlock()

	logging.Debug().Int("attempt", attempt).Str("state", string(to)).Err(err).Msg("Geolocation request settled")
	n.notify(StatePending, to)
	return to, nil
}

func (n *Negotiator) locate(ctx context.Context) (pos Position, err error) {
	if n.source == nil {
		return Position{}, ErrNoGeolocation
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	type result struct {
		pos Position
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("position source panicked: %v", r)}
			}
		}()
		p, err := n.source.CurrentPosition(ctx, PositionOptions{HighAccuracy: true, Timeout: n.timeout})
		done <- result{pos: p, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			if lat, _ := validPair(r.pos.Latitude, r.pos.Longitude); lat == nil {
				return Position{}, fmt.Errorf("position out of range: %v,%v", r.pos.Latitude, r.pos.Longitude)
			}
		}
		return r.pos, r.err
	case <-ctx.Done():
		return Position{}, fmt.Errorf("geolocation: %w", ctx.Err())
	}
}

func (n *Negotiator) notify(from, to State) {
	if n.onChange != nil {
		n.onChange(from, to)
	}
}
