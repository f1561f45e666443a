// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package services

import (
	"context"
	"time"

	"github.com/tomtom215/waypoint/internal/metrics"
)

// UptimeService keeps the process uptime gauge current.
type UptimeService struct {
	start time.Time
}

// NewUptimeService reports uptime relative to start.
func NewUptimeService(start time.Time) *UptimeService {
	return &UptimeService{start: start}
}

// Serve implements suture.Service.
func (u *UptimeService) Serve(ctx context.Context) error {
	metrics.TrackUptime(u.start, ctx.Done())
	return ctx.Err()
}

// String names the service in supervisor logs.
func (u *UptimeService) String() string {
	return "uptime"
}
