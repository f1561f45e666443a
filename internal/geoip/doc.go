// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package geoip resolves a visitor's connection IP to the server-side location
stored in a click event's backend_* fields.

Providers:
  - ipinfo: ipinfo.io, token optional
  - ipapi: ip-api.com free tier, limited locally to 45 requests per minute

Each provider can be wrapped in a gobreaker circuit breaker. The Resolver
tries providers in order, skips private addresses without a network call,
bounds the whole chain with one timeout, and caches successful answers in a
cache.Store keyed by normalized IP.

A lookup failure is never fatal to ingestion: the caller persists the click
without backend_* fields.
*/
package geoip
