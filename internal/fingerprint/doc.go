// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package fingerprint collects the passive device signals of a click:
// user agent classification, screen, language, timezone, referrer, a bot
// heuristic, and the best-effort network, WebGL, battery, incognito and
// ad-blocker probes.
//
// The same ParseUserAgent rules back the tracking page script, the synthetic
// visitor, and server-side derivation in the ingestion endpoint.
package fingerprint
