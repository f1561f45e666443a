// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package geoip

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/waypoint/internal/cache"
	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/models"
)

// fakeProvider answers from a function and counts calls
type fakeProvider struct {
	name   string
	calls  atomic.Int32
	lookup func(ctx context.Context, ip string) (*models.ServerGeo, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Lookup(ctx context.Context, ip string) (*models.ServerGeo, error) {
	f.calls.Add(1)
	return f.lookup(ctx, ip)
}

func okProvider(name, country string) *fakeProvider {
	return &fakeProvider{name: name, lookup: func(_ context.Context, ip string) (*models.ServerGeo, error) {
		return &models.ServerGeo{Country: country, Provider: name}, nil
	}}
}

func failingProvider(name string, err error) *fakeProvider {
	return &fakeProvider{name: name, lookup: func(context.Context, string) (*models.ServerGeo, error) {
		return nil, err
	}}
}

func TestResolver_FirstProviderWins(t *testing.T) {
	first := okProvider("first", "US")
	second := okProvider("second", "DE")
	r := NewResolver([]Provider{first, second})

	geo, err := r.Lookup(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if geo.Country != "US" {
		t.Errorf("Country = %q, want US", geo.Country)
	}
	if geo.IP != "8.8.8.8" {
		t.Errorf("IP = %q, want lookup address filled in", geo.IP)
	}
	if second.calls.Load() != 0 {
		t.Error("second provider should not be called")
	}
}

func TestResolver_FallsBack(t *testing.T) {
	first := failingProvider("first", errors.New("connection refused"))
	second := okProvider("second", "DE")
	r := NewResolver([]Provider{first, second})

	geo, err := r.Lookup(context.Background(), "203.0.113.50:51234")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if geo.Provider != "second" || geo.IP != "203.0.113.50" {
		t.Errorf("Lookup() = %+v", geo)
	}
	if first.calls.Load() != 1 {
		t.Errorf("first calls = %d, want 1", first.calls.Load())
	}
}

func TestResolver_AllFail(t *testing.T) {
	last := errors.New("last failure")
	r := NewResolver([]Provider{
		failingProvider("a", errors.New("first failure")),
		failingProvider("b", last),
	})

	_, err := r.Lookup(context.Background(), "8.8.8.8")
	if !errors.Is(err, last) {
		t.Errorf("Lookup() error = %v, want wrapped last failure", err)
	}
}

func TestResolver_ProviderBogonStopsChain(t *testing.T) {
	second := okProvider("second", "US")
	r := NewResolver([]Provider{failingProvider("first", ErrPrivateIP), second})

	if _, err := r.Lookup(context.Background(), "8.8.8.8"); !errors.Is(err, ErrPrivateIP) {
		t.Errorf("Lookup() error = %v, want ErrPrivateIP", err)
	}
	if second.calls.Load() != 0 {
		t.Error("chain should stop at a bogon answer")
	}
}

func TestResolver_SkipsPrivateAndInvalid(t *testing.T) {
	p := okProvider("p", "US")
	r := NewResolver([]Provider{p})

	tests := []struct {
		ip      string
		wantErr error
	}{
		{"192.168.1.10", ErrPrivateIP},
		{"127.0.0.1:8080", ErrPrivateIP},
		{"[::1]:443", ErrPrivateIP},
		{"0.0.0.0", ErrPrivateIP},
		{"", ErrInvalidIP},
		{"not-an-ip", ErrInvalidIP},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if _, err := r.Lookup(context.Background(), tt.ip); !errors.Is(err, tt.wantErr) {
				t.Errorf("Lookup(%q) error = %v, want %v", tt.ip, err, tt.wantErr)
			}
		})
	}
	if p.calls.Load() != 0 {
		t.Errorf("provider called %d times for unroutable input", p.calls.Load())
	}
}

func TestResolver_NoProviders(t *testing.T) {
	r := NewResolver(nil)
	if _, err := r.Lookup(context.Background(), "8.8.8.8"); !errors.Is(err, ErrNoProviders) {
		t.Errorf("Lookup() error = %v, want ErrNoProviders", err)
	}
}

func TestResolver_Cache(t *testing.T) {
	store := cache.NewMemory(time.Minute)
	defer store.Close()

	p := okProvider("p", "FR")
	r := NewResolver([]Provider{p}, WithCache(store, time.Minute))

	for i := 0; i < 3; i++ {
		geo, err := r.Lookup(context.Background(), "8.8.4.4")
		if err != nil {
			t.Fatalf("Lookup() #%d error = %v", i, err)
		}
		if geo.Country != "FR" {
			t.Errorf("Lookup() #%d Country = %q", i, geo.Country)
		}
	}
	if p.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls.Load())
	}

	if _, ok, _ := store.Get(context.Background(), cacheKeyPrefix+"8.8.4.4"); !ok {
		t.Error("answer not cached under normalized key")
	}
}

func TestResolver_FailuresNotCached(t *testing.T) {
	store := cache.NewMemory(time.Minute)
	defer store.Close()

	p := failingProvider("p", errors.New("down"))
	r := NewResolver([]Provider{p}, WithCache(store, time.Minute))

	_, _ = r.Lookup(context.Background(), "8.8.4.4")
	_, _ = r.Lookup(context.Background(), "8.8.4.4")
	if p.calls.Load() != 2 {
		t.Errorf("provider calls = %d, want 2", p.calls.Load())
	}
}

func TestResolver_Timeout(t *testing.T) {
	slow := &fakeProvider{name: "slow", lookup: func(ctx context.Context, _ string) (*models.ServerGeo, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	never := okProvider("never", "US")
	r := NewResolver([]Provider{slow, never}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := r.Lookup(context.Background(), "8.8.8.8")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lookup() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout not applied")
	}
	if never.calls.Load() != 0 {
		t.Error("expired context should stop the chain")
	}
}

func TestNewFromConfig(t *testing.T) {
	r, err := NewFromConfig(&config.GeoIPConfig{
		Providers:      []string{ProviderIPInfo, ProviderIPAPI},
		Timeout:        time.Second,
		BreakerEnabled: true,
	}, nil, 0)
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	if len(r.providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(r.providers))
	}
	if _, ok := r.providers[0].(*BreakerProvider); !ok {
		t.Errorf("provider[0] = %T, want *BreakerProvider", r.providers[0])
	}
	if r.providers[1].Name() != "ip-api.com" {
		t.Errorf("provider[1].Name() = %q", r.providers[1].Name())
	}
	if r.timeout != time.Second {
		t.Errorf("timeout = %v", r.timeout)
	}
}

func TestNewFromConfig_Errors(t *testing.T) {
	if _, err := NewFromConfig(&config.GeoIPConfig{}, nil, 0); !errors.Is(err, ErrNoProviders) {
		t.Errorf("empty providers error = %v, want ErrNoProviders", err)
	}
	if _, err := NewFromConfig(&config.GeoIPConfig{Providers: []string{"maxmind"}}, nil, 0); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestBreakerProvider_Trips(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	inner := &fakeProvider{name: "flaky", lookup: func(context.Context, string) (*models.ServerGeo, error) {
		if fail.Load() {
			return nil, errors.New("503")
		}
		return &models.ServerGeo{Country: "US"}, nil
	}}
	b := NewBreakerProvider(inner)

	// 3 successes then 7 failures: 70% over 10 requests
	fail.Store(false)
	for i := 0; i < 3; i++ {
		if _, err := b.Lookup(context.Background(), "8.8.8.8"); err != nil {
			t.Fatalf("success #%d error = %v", i, err)
		}
	}
	fail.Store(true)
	for i := 0; i < 7; i++ {
		_, _ = b.Lookup(context.Background(), "8.8.8.8")
	}

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	before := inner.calls.Load()
	if _, err := b.Lookup(context.Background(), "8.8.8.8"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Lookup() on open breaker error = %v, want ErrOpenState", err)
	}
	if inner.calls.Load() != before {
		t.Error("open breaker must not call the provider")
	}
}

func TestBreakerProvider_SkipsDoNotTrip(t *testing.T) {
	inner := failingProvider("limited", ErrRateLimited)
	b := NewBreakerProvider(inner)

	for i := 0; i < 20; i++ {
		if _, err := b.Lookup(context.Background(), "8.8.8.8"); !errors.Is(err, ErrRateLimited) {
			t.Fatalf("Lookup() error = %v, want ErrRateLimited", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, rate-limit skips must not open the breaker", b.State())
	}
	if b.Name() != "limited" {
		t.Errorf("Name() = %q, want wrapped name", b.Name())
	}
}

func TestStateToString(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		str   string
		val   float64
	}{
		{gobreaker.StateClosed, "closed", 0},
		{gobreaker.StateHalfOpen, "half-open", 1},
		{gobreaker.StateOpen, "open", 2},
	}
	for _, tt := range tests {
		if got := stateToString(tt.state); got != tt.str {
			t.Errorf("stateToString(%v) = %q, want %q", tt.state, got, tt.str)
		}
		if got := stateToFloat(tt.state); got != tt.val {
			t.Errorf("stateToFloat(%v) = %v, want %v", tt.state, got, tt.val)
		}
	}
}
