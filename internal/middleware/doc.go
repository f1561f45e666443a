// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package middleware provides infrastructure HTTP middleware shared by all routes.

  - RequestID: assigns X-Request-ID and seeds the logging context
  - PrometheusMetrics: request count, latency, and in-flight gauge labelled by
    chi route pattern

Both are plain func(http.Handler) http.Handler values and are mounted with
chi's Router.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
