// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package ingest

import (
	"net"
	"net/http"
	"strings"

	"github.com/tomtom215/waypoint/internal/geoip"
)

// ConnectionInfo is what the server observed about the submitting connection.
// It only feeds the backend_* fields, never the client-claimed ones.
type ConnectionInfo struct {
	RemoteAddr   string
	ForwardedFor string
}

// ConnectionInfoFromRequest extracts ConnectionInfo from r.
func ConnectionInfoFromRequest(r *http.Request) ConnectionInfo {
	return ConnectionInfo{
		RemoteAddr:   r.RemoteAddr,
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
	}
}

// ServerIP returns the backend-observed client IP: the first X-Forwarded-For
// entry when trusted and parseable, else the connection address without its port.
func ServerIP(conn ConnectionInfo, trustForwardedFor bool) string {
	if trustForwardedFor && conn.ForwardedFor != "" {
		first, _, _ := strings.Cut(conn.ForwardedFor, ",")
		if ip := geoip.NormalizeIP(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	return geoip.NormalizeIP(conn.RemoteAddr)
}
