// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package geoip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/cache"
	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
)

const cacheKeyPrefix = "geoip:"

// Resolver tries providers in order and caches successful answers per IP.
type Resolver struct {
	providers []Provider
	cache     cache.Store
	cacheTTL  time.Duration
	timeout   time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache caches answers in store for ttl.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = store
		r.cacheTTL = ttl
	}
}

// WithTimeout bounds a whole Lookup, all providers included.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// NewResolver creates a resolver over providers, tried in order.
func NewResolver(providers []Provider, opts ...Option) *Resolver {
	r := &Resolver{providers: providers}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig builds the configured provider chain. store may be nil.
func NewFromConfig(cfg *config.GeoIPConfig, store cache.Store, cacheTTL time.Duration) (*Resolver, error) {
	providers := make([]Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		var p Provider
		switch name {
		case ProviderIPInfo:
			p = NewIPInfoProvider(cfg.IPInfoToken)
		case ProviderIPAPI:
			p = NewIPAPIProvider(cfg.IPAPIRateLimit)
		default:
			return nil, fmt.Errorf("unknown geoip provider %q", name)
		}
		if cfg.BreakerEnabled {
			p = NewBreakerProvider(p)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	opts := []Option{WithTimeout(cfg.Timeout)}
	if store != nil {
		opts = append(opts, WithCache(store, cacheTTL))
	}
	return NewResolver(providers, opts...), nil
}

// Lookup resolves ipAddress, which may carry a port or brackets.
//
// Private addresses return ErrPrivateIP without contacting any provider.
// When every provider fails the last provider error is wrapped.
func (r *Resolver) Lookup(ctx context.Context, ipAddress string) (*models.ServerGeo, error) {
	ip := NormalizeIP(ipAddress)
	if ip == "" || !isParseable(ip) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIP, ipAddress)
	}
	if !IsValidPublicIP(ip) {
		metrics.RecordGeoLookup("resolver", 0, ErrPrivateIP)
		return nil, ErrPrivateIP
	}
	if len(r.providers) == 0 {
		return nil, ErrNoProviders
	}

	if geo := r.tryCache(ctx, ip); geo != nil {
		return geo, nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	geo, err := r.tryProviders(ctx, ip)
	if err != nil {
		return nil, err
	}

	r.store(ctx, ip, geo)
	return geo, nil
}

func (r *Resolver) tryCache(ctx context.Context, ip string) *models.ServerGeo {
	if r.cache == nil {
		return nil
	}

	data, ok, err := r.cache.Get(ctx, cacheKeyPrefix+ip)
	if err != nil {
		logging.Debug().Err(err).Str("backend", r.cache.Backend()).Msg("GeoIP cache read failed")
	}
	metrics.RecordCacheLookup(r.cache.Backend(), ok)
	if !ok {
		return nil
	}

	var geo models.ServerGeo
	if err := json.Unmarshal(data, &geo); err != nil {
		logging.Warn().Err(err).Str("ip", ip).Msg("Discarding undecodable GeoIP cache entry")
		return nil
	}
	return &geo
}

func (r *Resolver) tryProviders(ctx context.Context, ip string) (*models.ServerGeo, error) {
	var lastErr error

	for _, provider := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("geoip lookup for %s: %w", ip, err)
		}

		start := time.Now()
		geo, err := provider.Lookup(ctx, ip)
		metrics.RecordGeoLookup(provider.Name(), time.Since(start), err)

		if err != nil {
			logging.Debug().Err(err).Str("provider", provider.Name()).Str("ip", ip).Msg("GeoIP provider failed")
			lastErr = err
			if errors.Is(err, ErrPrivateIP) {
				// Provider says bogon; no other provider will do better
				return nil, err
			}
			continue
		}

		if geo.IP == "" {
			geo.IP = ip
		}
		return geo, nil
	}

	return nil, fmt.Errorf("all geoip providers failed for %s: %w", ip, lastErr)
}

func (r *Resolver) store(ctx context.Context, ip string, geo *models.ServerGeo) {
	if r.cache == nil {
		return
	}

	data, err := json.Marshal(geo)
	if err != nil {
		return
	}
	// Detached so a cancelled request still populates the cache
	if err := r.cache.Set(context.WithoutCancel(ctx), cacheKeyPrefix+ip, data, r.cacheTTL); err != nil {
		logging.Warn().Err(err).Str("ip", ip).Msg("Failed to cache geolocation")
	}
}
