// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/models"
)

// fakeServer serves one active slug "abc12345" and records submissions.
type fakeServer struct {
	mu      sync.Mutex
	tracked []models.ClickEvent
	srv     *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/shortlink-meta/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/api/shortlink-meta/") != "abc12345" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.ShortlinkMeta{TargetURL: f.srv.URL + "/landing", ShortlinkID: 7})
	})
	mux.HandleFunc("/api/track", func(w http.ResponseWriter, r *http.Request) {
		var e models.ClickEvent
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.tracked = append(f.tracked, e)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("welcome"))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) submissions() []models.ClickEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ClickEvent(nil), f.tracked...)
}

func runVisitor(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append(args, "-providers", "", "-redirect-delay", "10ms"), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVisitorGranted(t *testing.T) {
	f := newFakeServer(t)

	code, stdout, stderr := runVisitor(t, "-base", f.srv.URL, "-slug", "abc12345", "-lat", "51.5", "-lng", "-0.12")
	if code != exitOK {
		t.Fatalf("exit = %d, want 0 (stderr %s)", code, stderr)
	}
	if !strings.Contains(stdout, "/landing") {
		t.Errorf("stdout = %q, want the reached target", stdout)
	}

	subs := f.submissions()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	e := subs[0]
	if e.ShortlinkID != 7 {
		t.Errorf("shortlinkId = %d, want 7", e.ShortlinkID)
	}
	if e.Latitude == nil || *e.Latitude != 51.5 || e.Longitude == nil || *e.Longitude != -0.12 {
		t.Errorf("coordinates = %v,%v", e.Latitude, e.Longitude)
	}
	if e.Browser == nil || *e.Browser != "Chrome 115.0.0.0" {
		t.Errorf("browser = %v", e.Browser)
	}
}

func TestVisitorDenied(t *testing.T) {
	f := newFakeServer(t)

	code, stdout, _ := runVisitor(t, "-base", f.srv.URL, "-slug", "abc12345", "-deny", "-max-retries", "2")
	if code != exitDenied {
		t.Fatalf("exit = %d, want 2", code)
	}
	if !strings.Contains(stdout, "denied after 3 attempts") {
		t.Errorf("stdout = %q", stdout)
	}
	if n := len(f.submissions()); n != 0 {
		t.Errorf("submissions = %d, want none before consent", n)
	}
}

func TestVisitorErrors(t *testing.T) {
	f := newFakeServer(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing slug", []string{"-base", f.srv.URL}},
		{"unknown slug", []string{"-base", f.srv.URL, "-slug", "nope0000"}},
		{"unbounded denial", []string{"-base", f.srv.URL, "-slug", "abc12345", "-deny", "-max-retries", "0"}},
		{"unknown provider", []string{"-base", f.srv.URL, "-slug", "abc12345", "-providers", "geo.example"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			// later flags win, so -providers here overrides the empty default
			args := append([]string{"-providers", "", "-redirect-delay", "10ms"}, tt.args...)
			if code := run(context.Background(), args, &stdout, &stderr); code != exitError {
				t.Errorf("exit = %d, want 1", code)
			}
			if stderr.Len() == 0 {
				t.Error("expected a message on stderr")
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" ipapi.co, ,ipwho.is ")
	if strings.Join(got, "|") != "ipapi.co|ipwho.is" {
		t.Errorf("splitList() = %v", got)
	}
	if splitList("") != nil {
		t.Error("empty list should be nil")
	}
}
