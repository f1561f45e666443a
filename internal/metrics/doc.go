// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and are
exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

HTTP:
  - waypoint_api_requests_total{method,endpoint,status_code}
  - waypoint_api_request_duration_seconds{method,endpoint}
  - waypoint_api_active_requests
  - waypoint_api_rate_limit_hits_total{endpoint}

Shortlinks and clicks:
  - waypoint_shortlink_resolutions_total{result}
  - waypoint_clicks_ingested_total
  - waypoint_clicks_with_coordinates_total
  - waypoint_clicks_rejected_total{reason}

Server-side geolocation:
  - waypoint_geoip_lookup_duration_seconds{provider}
  - waypoint_geoip_lookups_total{provider,result}
  - waypoint_cache_hits_total{backend}, waypoint_cache_misses_total{backend}
  - waypoint_circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - waypoint_circuit_breaker_requests_total{name,result}
  - waypoint_circuit_breaker_state_transitions_total{name,from_state,to_state}

Storage and events:
  - waypoint_db_query_duration_seconds{operation,table}
  - waypoint_db_query_errors_total{operation,table,error_type}
  - waypoint_events_published_total{result}

Endpoint labels use chi route patterns (/s/{slug}) rather than raw paths so
slug values never create unbounded label cardinality.
*/
package metrics
