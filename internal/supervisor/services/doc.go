// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package services adapts Waypoint's long-lived components to suture.Service.
//
// Each wrapper turns a start/shutdown lifecycle into a Serve(ctx) that blocks
// until ctx is canceled, then stops the component with a fresh timeout
// context. Returning an error from Serve makes suture restart the service.
package services
