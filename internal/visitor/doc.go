// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package visitor implements the client side of a click: everything that runs on
the visitor's device between opening /s/{slug} and landing on the target.

Components:
  - IPResolver: primary then fallback browser-reachable IP lookup
    (ipapi.co, ipwho.is, ipinfo.io) read with gjson field paths
  - Negotiator: pending/granted/denied geolocation consent state machine
  - Sequencer: fire-and-forget submission followed by a fixed-delay redirect
  - Client: the meta bootstrap and /api/track submission over HTTP
  - Flow: the whole pipeline, used by cmd/visitor

The tracking page script served by the API follows these algorithms.
*/
package visitor
