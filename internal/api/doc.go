// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package api is the HTTP surface: a chi router, middleware, and handlers.

Public routes (no authentication, raw JSON bodies):

	GET  /s/{slug}                    tracking page HTML, 404 for unknown or inactive slugs
	GET  /api/shortlink-meta/{slug}   {"targetUrl": ..., "shortlinkId": ...} or 404
	POST /api/track                   201 {"success": true}, 400 malformed/invalid, 500 storage

Owner routes (bearer token, standard envelope), mounted only when the owner
API is enabled:

	POST  /api/shortlinks
	GET   /api/shortlinks
	PATCH /api/shortlinks/{id}
	GET   /api/shortlinks/{id}/clicks
	GET   /api/shortlinks/{id}/qr?size=256
	GET   /api/clicks
	GET   /api/stats

Operational routes:

	GET /api/health/live
	GET /api/health/ready
	GET /metrics

Owner responses use the envelope written by ResponseWriter:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "meta": {...}}
*/
package api
