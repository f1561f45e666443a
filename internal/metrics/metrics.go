// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package metrics

import (
	"errors"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waypoint_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waypoint_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waypoint_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Shortlink Metrics
	ShortlinkResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_shortlink_resolutions_total",
			Help: "Total number of slug resolutions by outcome",
		},
		[]string{"result"}, // "found", "not_found", "inactive", "error"
	)

	// Click Ingestion Metrics
	ClicksIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waypoint_clicks_ingested_total",
			Help: "Total number of click events persisted",
		},
	)

	ClicksRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_clicks_rejected_total",
			Help: "Total number of tracking submissions rejected",
		},
		[]string{"reason"}, // "malformed", "validation", "storage"
	)

	ClicksWithCoordinates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waypoint_clicks_with_coordinates_total",
			Help: "Total number of persisted click events carrying GPS coordinates",
		},
	)

	// Server-side Geolocation Metrics
	GeoLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waypoint_geoip_lookup_duration_seconds",
			Help:    "Duration of server-side IP geolocation lookups",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
		[]string{"provider"},
	)

	GeoLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_geoip_lookups_total",
			Help: "Total number of server-side IP geolocation lookups",
		},
		[]string{"provider", "result"}, // result: "success", "failure", "skipped"
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"backend"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waypoint_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Stream Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_events_published_total",
			Help: "Total number of click events published to the event stream",
		},
		[]string{"result"}, // "success", "failure"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waypoint_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waypoint_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordResolution records the outcome of a slug lookup
func RecordResolution(result string) {
	ShortlinkResolutions.WithLabelValues(result).Inc()
}

// RecordClickIngested records a persisted click event
func RecordClickIngested(hasCoordinates bool) {
	ClicksIngested.Inc()
	if hasCoordinates {
		ClicksWithCoordinates.Inc()
	}
}

// RecordClickRejected records a rejected tracking submission
func RecordClickRejected(reason string) {
	ClicksRejected.WithLabelValues(reason).Inc()
}

// ErrLookupSkipped marks a lookup that was not attempted (private IP, rate limited).
var ErrLookupSkipped = errors.New("lookup skipped")

// RecordGeoLookup records a server-side geolocation lookup
func RecordGeoLookup(provider string, duration time.Duration, err error) {
	switch {
	case err == nil:
		GeoLookupDuration.WithLabelValues(provider).Observe(duration.Seconds())
		GeoLookupsTotal.WithLabelValues(provider, "success").Inc()
	case errors.Is(err, ErrLookupSkipped):
		GeoLookupsTotal.WithLabelValues(provider, "skipped").Inc()
	default:
		GeoLookupDuration.WithLabelValues(provider).Observe(duration.Seconds())
		GeoLookupsTotal.WithLabelValues(provider, "failure").Inc()
	}
}

// RecordCacheLookup records a cache hit or miss for the named backend
func RecordCacheLookup(backend string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(backend).Inc()
	} else {
		CacheMisses.WithLabelValues(backend).Inc()
	}
}

// RecordEventPublish records the outcome of a click event publication
func RecordEventPublish(err error) {
	if err != nil {
		EventsPublished.WithLabelValues("failure").Inc()
		return
	}
	EventsPublished.WithLabelValues("success").Inc()
}

// SetAppInfo publishes the running version
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// TrackUptime updates the uptime gauge until stop is closed.
func TrackUptime(start time.Time, stop <-chan struct{}) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		AppUptime.Set(time.Since(start).Seconds())
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
