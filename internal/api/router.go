// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/waypoint/internal/auth"
	"github.com/tomtom215/waypoint/internal/middleware"
)

// RouterConfig selects the optional parts of the route table.
type RouterConfig struct {
	Middleware MiddlewareConfig

	// OwnerAPIEnabled mounts /api/shortlinks, /api/clicks and /api/stats.
	// Tokens must be non-nil when set.
	OwnerAPIEnabled bool
	Tokens          auth.TokenValidator
}

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     RouterConfig
}

// NewRouter creates a router over h.
func NewRouter(h *Handler, cfg RouterConfig) *Router {
	return &Router{
		handler:    h,
		middleware: NewMiddleware(cfg.Middleware),
		config:     cfg,
	}
}

// Handler builds the route table.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	// Global middleware, in order
	r.Use(middleware.RequestID)
	if router.config.Middleware.KeyByForwardedFor {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health
	r.Route("/api/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitCustom("health", RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Tracking page
	r.Group(func(r chi.Router) {
		r.Use(router.middleware.RateLimitCustom("tracking_page", RateLimitPublicRead))
		r.Use(TrackingPageHeaders(router.handler.page.ConnectOrigins()))
		r.Use(middleware.PrometheusMetrics)
		r.Get("/s/{slug}", router.handler.TrackingPage)
	})

	// Public JSON
	r.Group(func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.With(router.middleware.RateLimitCustom("shortlink_meta", RateLimitPublicRead)).
			Get("/api/shortlink-meta/{slug}", router.handler.ShortlinkMeta)
		r.With(router.middleware.RateLimitTrack()).
			Post("/api/track", router.handler.Track)
	})

	// Owner API
	if router.config.OwnerAPIEnabled && router.config.Tokens != nil {
		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimit("owner"))
			r.Use(APISecurityHeaders())
			r.Use(middleware.PrometheusMetrics)
			r.Use(auth.RequireOwner(router.config.Tokens))

			r.Post("/api/shortlinks", router.handler.CreateShortlink)
			r.Get("/api/shortlinks", router.handler.ListShortlinks)
			r.Patch("/api/shortlinks/{id}", router.handler.UpdateShortlink)
			r.Get("/api/shortlinks/{id}/clicks", router.handler.ShortlinkClicks)
			r.Get("/api/shortlinks/{id}/qr", router.handler.ShortlinkQR)
			r.Get("/api/clicks", router.handler.UserClicks)
			r.Get("/api/stats", router.handler.Stats)
		})
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}
