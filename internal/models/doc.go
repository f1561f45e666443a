// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package models defines the data structures shared by the storage, ingestion,
and HTTP layers.

  - Shortlink: slug to target URL mapping owned by one user
  - ShortlinkMeta: public {targetUrl, shortlinkId} resolution result
  - ClickEvent: one completed tracking flow; also the POST /api/track payload
  - ServerGeo: server-side lookup result merged into ClickEvent backend_* fields
  - Stats, HealthStatus: owner API and health responses

Optional values are pointers so "unknown" (nil) stays distinct from a zero
value such as latitude 0 or an empty referrer. JSON keys use the camelCase
names the tracking page sends.
*/
package models
