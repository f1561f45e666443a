// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package database

import (
	"strings"

	"github.com/tomtom215/waypoint/internal/models"
)

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ShortlinkColumns is the select list matching ScanShortlink.
const ShortlinkColumns = "id, slug, user_id, target_url, campaign_name, description, is_active, created_at"

// clickEventInsertColumns lists every click_events column except id, in ClickEventArgs order.
var clickEventInsertColumns = []string{
	"shortlink_id", "clicked_at",
	"ip_address", "latitude", "longitude", "country", "city", "isp",
	"user_agent", "browser", "os", "device_model", "device_type", "android_version",
	"screen_resolution", "language", "timezone",
	"connection_type", "downlink", "rtt", "webgl_vendor", "webgl_renderer",
	"battery_level", "battery_charging", "is_incognito", "has_ad_blocker", "is_bot", "referrer",
	"backend_ip", "backend_country", "backend_city", "backend_region",
	"backend_loc", "backend_org", "backend_timezone",
}

// ClickEventInsertColumns returns the comma-separated insert column list.
func ClickEventInsertColumns() string {
	return strings.Join(clickEventInsertColumns, ", ")
}

// ClickEventColumnCount is the number of values ClickEventArgs returns.
func ClickEventColumnCount() int {
	return len(clickEventInsertColumns)
}

// ClickEventSelectColumns returns id followed by the insert column list, prefixed
// with alias when non-empty.
func ClickEventSelectColumns(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	cols := make([]string, 0, len(clickEventInsertColumns)+1)
	cols = append(cols, prefix+"id")
	for _, c := range clickEventInsertColumns {
		cols = append(cols, prefix+c)
	}
	return strings.Join(cols, ", ")
}

// ClickEventArgs flattens an event into insert arguments. Nil optionals become SQL NULL.
func ClickEventArgs(e *models.ClickEvent) []any {
	return []any{
		e.ShortlinkID, e.Timestamp,
		Nullable(e.IPAddress), Nullable(e.Latitude), Nullable(e.Longitude),
		Nullable(e.Country), Nullable(e.City), Nullable(e.ISP),
		Nullable(e.UserAgent), Nullable(e.Browser), Nullable(e.OS),
		Nullable(e.DeviceModel), Nullable(e.DeviceType), Nullable(e.AndroidVersion),
		Nullable(e.ScreenResolution), Nullable(e.Language), Nullable(e.Timezone),
		Nullable(e.ConnectionType), Nullable(e.Downlink), Nullable(e.RTT),
		Nullable(e.WebGLVendor), Nullable(e.WebGLRenderer),
		Nullable(e.BatteryLevel), Nullable(e.BatteryCharging),
		Nullable(e.IsIncognito), Nullable(e.HasAdBlocker), Nullable(e.IsBot),
		Nullable(e.Referrer),
		Nullable(e.BackendIP), Nullable(e.BackendCountry), Nullable(e.BackendCity),
		Nullable(e.BackendRegion), Nullable(e.BackendLoc), Nullable(e.BackendOrg),
		Nullable(e.BackendTimezone),
	}
}

// ScanClickEvent reads one row selected with ClickEventSelectColumns.
// NULL columns scan to nil pointers.
func ScanClickEvent(s RowScanner) (*models.ClickEvent, error) {
	var e models.ClickEvent
	err := s.Scan(
		&e.ID, &e.ShortlinkID, &e.Timestamp,
		&e.IPAddress, &e.Latitude, &e.Longitude, &e.Country, &e.City, &e.ISP,
		&e.UserAgent, &e.Browser, &e.OS, &e.DeviceModel, &e.DeviceType, &e.AndroidVersion,
		&e.ScreenResolution, &e.Language, &e.Timezone,
		&e.ConnectionType, &e.Downlink, &e.RTT, &e.WebGLVendor, &e.WebGLRenderer,
		&e.BatteryLevel, &e.BatteryCharging, &e.IsIncognito, &e.HasAdBlocker, &e.IsBot, &e.Referrer,
		&e.BackendIP, &e.BackendCountry, &e.BackendCity, &e.BackendRegion,
		&e.BackendLoc, &e.BackendOrg, &e.BackendTimezone,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ScanShortlink reads one row selected with ShortlinkColumns.
func ScanShortlink(s RowScanner) (*models.Shortlink, error) {
	var l models.Shortlink
	if err := s.Scan(&l.ID, &l.Slug, &l.UserID, &l.TargetURL, &l.CampaignName, &l.Description, &l.IsActive, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
