// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package models

// Stats summarises one owner's shortlinks and clicks
type Stats struct {
	TotalLinks  int64 `json:"totalLinks"`
	ActiveLinks int64 `json:"activeLinks"`
	TotalClicks int64 `json:"totalClicks"`
}

// HealthStatus represents the readiness check response
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}
