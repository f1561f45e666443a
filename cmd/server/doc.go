// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Command waypoint-server serves shortlink tracking pages and records clicks.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Store: DuckDB (default) or PostgreSQL
//  3. Server-side geolocation with its lookup cache (memory, redis, badger)
//  4. Click event stream: embedded or external NATS JetStream (optional)
//  5. HTTP router, then the supervisor tree
//
// Minting an owner token:
//
//	JWT_SECRET=... waypoint-server -issue-token alice
//
// SIGINT and SIGTERM stop the tree; the HTTP server drains for 10s.
package main
