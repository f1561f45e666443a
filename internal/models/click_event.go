// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package models

import (
	"time"
)

// ClickEvent is one completed visit through the tracking interstitial.
//
// It doubles as the POST /api/track payload: the JSON keys are the tracking
// page's camelCase names. ID and Timestamp are assigned by the server, and the
// Backend* fields are filled only from the server-side IP lookup.
//
// Every enrichment field is optional and nil when unknown. Latitude and
// Longitude are either both set or both nil.
type ClickEvent struct {
	ID          int64     `json:"id"`
	ShortlinkID int64     `json:"shortlinkId" validate:"required,gt=0"`
	Timestamp   time.Time `json:"timestamp"`

	// Client-reported network and location
	IPAddress *string  `json:"ipAddress,omitempty" validate:"omitempty,max=64"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"required_with=Latitude,omitempty,longitude"`
	Country   *string  `json:"country,omitempty" validate:"omitempty,max=128"`
	City      *string  `json:"city,omitempty" validate:"omitempty,max=128"`
	ISP       *string  `json:"isp,omitempty" validate:"omitempty,max=256"`

	// Client-reported device
	UserAgent        *string `json:"userAgent,omitempty" validate:"omitempty,max=1024"`
	Browser          *string `json:"browser,omitempty" validate:"omitempty,max=128"`
	OS               *string `json:"os,omitempty" validate:"omitempty,max=128"`
	DeviceModel      *string `json:"deviceModel,omitempty" validate:"omitempty,max=128"`
	DeviceType       *string `json:"deviceType,omitempty" validate:"omitempty,max=32"`
	AndroidVersion   *string `json:"androidVersion,omitempty" validate:"omitempty,max=32"`
	ScreenResolution *string `json:"screenResolution,omitempty" validate:"omitempty,max=32"`
	Language         *string `json:"language,omitempty" validate:"omitempty,max=64"`
	Timezone         *string `json:"timezone,omitempty" validate:"omitempty,max=64"`

	// Best-effort probes
	ConnectionType  *string  `json:"connectionType,omitempty" validate:"omitempty,max=32"`
	Downlink        *float64 `json:"downlink,omitempty" validate:"omitempty,gte=0"`
	RTT             *int     `json:"rtt,omitempty" validate:"omitempty,gte=0"`
	WebGLVendor     *string  `json:"webglVendor,omitempty" validate:"omitempty,max=256"`
	WebGLRenderer   *string  `json:"webglRenderer,omitempty" validate:"omitempty,max=256"`
	BatteryLevel    *float64 `json:"batteryLevel,omitempty" validate:"omitempty,gte=0,lte=1"`
	BatteryCharging *bool    `json:"batteryCharging,omitempty"`
	IsIncognito     *bool    `json:"isIncognito,omitempty"`
	HasAdBlocker    *bool    `json:"hasAdBlocker,omitempty"`
	IsBot           *bool    `json:"isBot,omitempty"`
	Referrer        *string  `json:"referrer,omitempty" validate:"omitempty,max=2048"`

	// Server-derived from the connection IP
	BackendIP       *string `json:"backendIp,omitempty"`
	BackendCountry  *string `json:"backendCountry,omitempty"`
	BackendCity     *string `json:"backendCity,omitempty"`
	BackendRegion   *string `json:"backendRegion,omitempty"`
	BackendLoc      *string `json:"backendLoc,omitempty"`
	BackendOrg      *string `json:"backendOrg,omitempty"`
	BackendTimezone *string `json:"backendTimezone,omitempty"`
}

// HasCoordinates reports whether the event carries a GPS position.
func (e *ClickEvent) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// ClearServerFields drops every value the server alone is allowed to set, so a
// submission cannot spoof its own identifier, timestamp, or backend_* view.
func (e *ClickEvent) ClearServerFields() {
	e.ID = 0
	e.Timestamp = time.Time{}
	e.BackendIP = nil
	e.BackendCountry = nil
	e.BackendCity = nil
	e.BackendRegion = nil
	e.BackendLoc = nil
	e.BackendOrg = nil
	e.BackendTimezone = nil
}

// ServerGeo is the server-side view of a visitor's connection IP.
// Empty strings mean the provider did not report the field.
type ServerGeo struct {
	IP       string `json:"ip"`
	Country  string `json:"country,omitempty"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Loc      string `json:"loc,omitempty"`
	Org      string `json:"org,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// ApplyServerGeo copies the server-side lookup into the backend_* fields.
// Client-reported fields are never touched. A nil geo is a no-op.
func (e *ClickEvent) ApplyServerGeo(g *ServerGeo) {
	if g == nil {
		return
	}
	e.BackendIP = nonEmpty(g.IP)
	e.BackendCountry = nonEmpty(g.Country)
	e.BackendCity = nonEmpty(g.City)
	e.BackendRegion = nonEmpty(g.Region)
	e.BackendLoc = nonEmpty(g.Loc)
	e.BackendOrg = nonEmpty(g.Org)
	e.BackendTimezone = nonEmpty(g.Timezone)
}

// Ptr returns a pointer to v, for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
