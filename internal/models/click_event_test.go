// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestClickEventDecodesTrackingPayload(t *testing.T) {
	payload := `{
		"shortlinkId": 7,
		"userAgent": "Mozilla/5.0",
		"screenResolution": "1920x1080",
		"latitude": 40.7128,
		"longitude": -74.006,
		"isBot": false,
		"rtt": 50
	}`

	var e ClickEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if e.ShortlinkID != 7 {
		t.Errorf("ShortlinkID = %d, want 7", e.ShortlinkID)
	}
	if e.ScreenResolution == nil || *e.ScreenResolution != "1920x1080" {
		t.Errorf("ScreenResolution = %v, want 1920x1080", e.ScreenResolution)
	}
	if !e.HasCoordinates() {
		t.Error("HasCoordinates() = false, want true")
	}
	if e.IsBot == nil || *e.IsBot {
		t.Errorf("IsBot = %v, want pointer to false", e.IsBot)
	}
	if e.Country != nil || e.Referrer != nil {
		t.Error("absent fields should decode to nil")
	}
}

func TestClickEventOmitsUnknownFields(t *testing.T) {
	e := ClickEvent{ShortlinkID: 3, Latitude: Ptr(1.5), Longitude: Ptr(2.5)}
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"country", "backendIp", "userAgent"} {
		if _, ok := m[key]; ok {
			t.Errorf("key %q present for nil field: %s", key, out)
		}
	}
	if m["latitude"] != 1.5 {
		t.Errorf("latitude = %v, want 1.5", m["latitude"])
	}
}

func TestClearServerFields(t *testing.T) {
	e := ClickEvent{
		ID:             99,
		ShortlinkID:    1,
		Timestamp:      time.Now(),
		Country:        Ptr("Canada"),
		BackendIP:      Ptr("203.0.113.9"),
		BackendCountry: Ptr("Spoofed"),
	}

	e.ClearServerFields()

	if e.ID != 0 || !e.Timestamp.IsZero() {
		t.Errorf("ID/Timestamp not cleared: %d %v", e.ID, e.Timestamp)
	}
	if e.BackendIP != nil || e.BackendCountry != nil {
		t.Error("backend fields not cleared")
	}
	if e.Country == nil || *e.Country != "Canada" {
		t.Error("client Country must survive ClearServerFields")
	}
}

func TestApplyServerGeoKeepsClientValues(t *testing.T) {
	e := ClickEvent{ShortlinkID: 1, Country: Ptr("Canada"), City: Ptr("Toronto")}

	e.ApplyServerGeo(&ServerGeo{
		IP:      "198.51.100.7",
		Country: "United States",
		City:    "Ashburn",
		Loc:     "39.0438,-77.4874",
	})

	if *e.Country != "Canada" || *e.City != "Toronto" {
		t.Errorf("client values overwritten: %s, %s", *e.Country, *e.City)
	}
	if e.BackendCountry == nil || *e.BackendCountry != "United States" {
		t.Errorf("BackendCountry = %v, want United States", e.BackendCountry)
	}
	if e.BackendLoc == nil || *e.BackendLoc != "39.0438,-77.4874" {
		t.Errorf("BackendLoc = %v", e.BackendLoc)
	}
	if e.BackendRegion != nil {
		t.Errorf("BackendRegion = %v, want nil for empty provider value", *e.BackendRegion)
	}
	if e.HasCoordinates() {
		t.Error("server loc must not populate latitude/longitude")
	}
}

func TestApplyServerGeoNil(t *testing.T) {
	e := ClickEvent{ShortlinkID: 1}
	e.ApplyServerGeo(nil)
	if e.BackendIP != nil {
		t.Error("nil geo should leave backend fields unset")
	}
}
