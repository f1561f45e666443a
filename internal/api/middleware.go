// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
)

// MiddlewareConfig holds CORS and rate limit settings.
type MiddlewareConfig struct {
	CORSAllowedOrigins []string

	// RateLimitRequests per RateLimitWindow applies to the owner API
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// TrackRateLimit is the per-IP POST /api/track budget per minute
	TrackRateLimit int

	// KeyByForwardedFor keys rate limits on the proxy-reported client IP
	KeyByForwardedFor bool
}

// RateLimitConfig defines rate limit parameters for specific endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Endpoint-specific rate limits not taken from configuration
var (
	// RateLimitPublicRead covers the tracking page and meta lookups
	RateLimitPublicRead = RateLimitConfig{Requests: 300, Window: time.Minute}

	// RateLimitHealth allows frequent monitoring checks
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// Middleware builds the chi middleware stack from configuration.
type Middleware struct {
	config MiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewMiddleware creates the middleware factory.
func NewMiddleware(cfg MiddlewareConfig) *Middleware {
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &Middleware{config: cfg, cors: corsHandler}
}

// CORS returns the go-chi/cors handler. Origins must be configured explicitly.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the owner API limiter.
func (m *Middleware) RateLimit(endpoint string) func(http.Handler) http.Handler {
	return m.RateLimitCustom(endpoint, RateLimitConfig{
		Requests: m.config.RateLimitRequests,
		Window:   m.config.RateLimitWindow,
	})
}

// RateLimitTrack returns the per-IP limiter for tracking submissions.
func (m *Middleware) RateLimitTrack() func(http.Handler) http.Handler {
	return m.RateLimitCustom("track", RateLimitConfig{Requests: m.config.TrackRateLimit, Window: time.Minute})
}

// RateLimitCustom limits requests per client IP. A zero budget or a global
// disable returns a pass-through middleware.
func (m *Middleware) RateLimitCustom(endpoint string, cfg RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	keyFunc := httprate.KeyByIP
	if m.config.KeyByForwardedFor {
		keyFunc = httprate.KeyByRealIP
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(endpoint).Inc()
			logging.Ctx(r.Context()).Debug().Str("endpoint", endpoint).Msg("Rate limit exceeded")
			writeJSON(w, http.StatusTooManyRequests, messageBody{Message: "Too many requests"})
		}),
	)
}

// APISecurityHeaders adds the headers every JSON response carries.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setCommonSecurityHeaders(w, r)
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}

func setCommonSecurityHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}

type cspNonceKey struct{}

// TrackingPageHeaders sets a nonce-based CSP for the tracking page. The
// inline script and style are allowed by nonce only, and connect-src is
// limited to this origin plus the client geolocation providers.
func TrackingPageHeaders(connectOrigins []string) func(http.Handler) http.Handler {
	connectSrc := strings.Join(append([]string{"'self'"}, connectOrigins...), " ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce, err := generateNonce()
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to generate CSP nonce")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			csp := "default-src 'none'; " +
				"script-src 'nonce-" + nonce + "'; " +
				"style-src 'nonce-" + nonce + "'; " +
				"connect-src " + connectSrc + "; " +
				"img-src 'self' data:; " +
				"frame-ancestors 'none'; " +
				"base-uri 'none'; " +
				"form-action 'none'"
			w.Header().Set("Content-Security-Policy", csp)
			w.Header().Set("Permissions-Policy", "geolocation=(self), camera=(), microphone=()")
			w.Header().Set("Cache-Control", "no-store")
			setCommonSecurityHeaders(w, r)

			ctx := context.WithValue(r.Context(), cspNonceKey{}, nonce)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func cspNonce(ctx context.Context) string {
	nonce, _ := ctx.Value(cspNonceKey{}).(string)
	return nonce
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
