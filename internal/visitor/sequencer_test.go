// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package visitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/waypoint/internal/models"
)

type recordingSubmitter struct {
	mu     sync.Mutex
	events []models.ClickEvent
	at     []time.Time
	delay  time.Duration
	err    error
}

func (r *recordingSubmitter) Submit(ctx context.Context, e *models.ClickEvent) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	r.at = append(r.at, time.Now())
	return r.err
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type recordingNavigator struct {
	mu  sync.Mutex
	url string
	at  time.Time
}

func (n *recordingNavigator) Navigate(_ context.Context, target string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.url = target
	n.at = time.Now()
	return nil
}

func TestSequencer_RedirectsAfterDelay(t *testing.T) {
	sub := &recordingSubmitter{}
	nav := &recordingNavigator{}
	s := NewSequencer(sub, nav, 30*time.Millisecond)

	start := time.Now()
	submitted, err := s.Run(context.Background(), StateGranted, &models.ClickEvent{ShortlinkID: 9}, "https://example.com/landing")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if nav.url != "https://example.com/landing" {
		t.Errorf("navigated to %q", nav.url)
	}
	if elapsed := nav.at.Sub(start); elapsed < 30*time.Millisecond {
		t.Errorf("redirect after %v, want >= delay", elapsed)
	}
	if err := <-submitted; err != nil {
		t.Errorf("submission error = %v", err)
	}
	if sub.count() != 1 || sub.events[0].ShortlinkID != 9 {
		t.Errorf("submitted %+v", sub.events)
	}
}

func TestSequencer_DoesNotWaitForSubmission(t *testing.T) {
	sub := &recordingSubmitter{delay: 300 * time.Millisecond}
	nav := &recordingNavigator{}
	s := NewSequencer(sub, nav, 10*time.Millisecond)

	start := time.Now()
	submitted, err := s.Run(context.Background(), StateGranted, &models.ClickEvent{ShortlinkID: 1}, "https://example.com")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if time.Since(start) >= 300*time.Millisecond {
		t.Error("redirect waited for the slow submission")
	}
	if sub.count() != 0 {
		t.Error("submission should still be in flight at redirect time")
	}
	<-submitted
}

func TestSequencer_SubmissionFailureStillRedirects(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("503")}
	nav := &recordingNavigator{}
	s := NewSequencer(sub, nav, time.Millisecond)

	submitted, err := s.Run(context.Background(), StateGranted, &models.ClickEvent{ShortlinkID: 1}, "https://example.com")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if nav.url == "" {
		t.Error("no redirect after failed submission")
	}
	if err := <-submitted; err == nil {
		t.Error("submission error not reported on channel")
	}
	if sub.count() != 1 {
		t.Errorf("submissions = %d, want exactly 1 (no retries)", sub.count())
	}
}

func TestSequencer_Guards(t *testing.T) {
	sub := &recordingSubmitter{}
	nav := &recordingNavigator{}
	s := NewSequencer(sub, nav, time.Millisecond)

	if _, err := s.Run(context.Background(), StatePending, &models.ClickEvent{ShortlinkID: 1}, "https://x"); !errors.Is(err, ErrNotGranted) {
		t.Errorf("pending: error = %v, want ErrNotGranted", err)
	}
	if _, err := s.Run(context.Background(), StateDenied, &models.ClickEvent{ShortlinkID: 1}, "https://x"); !errors.Is(err, ErrNotGranted) {
		t.Errorf("denied: error = %v, want ErrNotGranted", err)
	}
	if _, err := s.Run(context.Background(), StateGranted, &models.ClickEvent{}, "https://x"); !errors.Is(err, ErrMissingShortlinkID) {
		t.Errorf("missing id: error = %v, want ErrMissingShortlinkID", err)
	}
	if _, err := s.Run(context.Background(), StateGranted, nil, "https://x"); !errors.Is(err, ErrMissingShortlinkID) {
		t.Errorf("nil event: error = %v, want ErrMissingShortlinkID", err)
	}
	if sub.count() != 0 || nav.url != "" {
		t.Error("guarded runs must not submit or navigate")
	}
}

func TestSequencer_DefaultDelay(t *testing.T) {
	s := NewSequencer(nil, nil, 0)
	if s.delay != 1500*time.Millisecond {
		t.Errorf("delay = %v, want 1.5s", s.delay)
	}
}
