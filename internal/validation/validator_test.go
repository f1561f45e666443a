// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/waypoint/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

func TestValidateClickEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     models.ClickEvent
		wantField string
	}{
		{
			name:  "shortlink only",
			event: models.ClickEvent{ShortlinkID: 1},
		},
		{
			name: "coordinates only",
			event: models.ClickEvent{
				ShortlinkID: 1,
				Latitude:    models.Ptr(40.7128),
				Longitude:   models.Ptr(-74.0060),
			},
		},
		{
			name: "zero coordinates are a valid pair",
			event: models.ClickEvent{
				ShortlinkID: 1,
				Latitude:    models.Ptr(0.0),
				Longitude:   models.Ptr(0.0),
			},
		},
		{
			name:      "missing shortlink",
			event:     models.ClickEvent{},
			wantField: "shortlinkId",
		},
		{
			name:      "negative shortlink",
			event:     models.ClickEvent{ShortlinkID: -4},
			wantField: "shortlinkId",
		},
		{
			name:      "latitude without longitude",
			event:     models.ClickEvent{ShortlinkID: 1, Latitude: models.Ptr(40.0)},
			wantField: "longitude",
		},
		{
			name:      "longitude without latitude",
			event:     models.ClickEvent{ShortlinkID: 1, Longitude: models.Ptr(-74.0)},
			wantField: "latitude",
		},
		{
			name: "latitude out of range",
			event: models.ClickEvent{
				ShortlinkID: 1,
				Latitude:    models.Ptr(91.0),
				Longitude:   models.Ptr(0.0),
			},
			wantField: "latitude",
		},
		{
			name:      "battery level above one",
			event:     models.ClickEvent{ShortlinkID: 1, BatteryLevel: models.Ptr(1.5)},
			wantField: "batteryLevel",
		},
		{
			name:      "oversized user agent",
			event:     models.ClickEvent{ShortlinkID: 1, UserAgent: models.Ptr(strings.Repeat("x", 1025))},
			wantField: "userAgent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.event)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want error on %s", tt.wantField)
			}
			found := false
			for _, fe := range err.Errors() {
				if fe.Field() == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v do not mention field %q", err, tt.wantField)
			}
		})
	}
}

func TestValidateCreateShortlinkRequest(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{"https", "https://example.com/landing?utm=1", false},
		{"http", "http://example.com", false},
		{"empty", "", true},
		{"relative", "/landing", true},
		{"javascript", "javascript:alert(1)", true},
		{"ftp", "ftp://example.com/file", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&models.CreateShortlinkRequest{TargetURL: tt.target})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct(%q) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			}
		})
	}
}

type slugStruct struct {
	Slug string `json:"slug" validate:"slug,max=32"`
}

func TestSlugValidation(t *testing.T) {
	tests := []struct {
		slug    string
		wantErr bool
	}{
		{"aB3dE6gH", false},
		{"12345678", false},
		{"", true},
		{"has-dash", true},
		{"has space", true},
		{"ünïcode", true},
		{strings.Repeat("a", 33), true},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateStruct(&slugStruct{Slug: tt.slug})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct(%q) error = %v, wantErr %v", tt.slug, err, tt.wantErr)
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	err := ValidateStruct(&models.ClickEvent{})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "shortlinkId is required" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "shortlinkId is required")
	}
	if apiErr.Details["field"] != "shortlinkId" {
		t.Errorf("Details[field] = %v, want shortlinkId", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	err := ValidateStruct(&models.ClickEvent{BatteryLevel: models.Ptr(-1.0)})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] type = %T, want []map[string]interface{}", apiErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Errorf("len(fields) = %d, want 2", len(fields))
	}
	if !strings.Contains(apiErr.Message, "shortlinkId") || !strings.Contains(apiErr.Message, "batteryLevel") {
		t.Errorf("Message = %q, want both fields", apiErr.Message)
	}
}

func TestEmptyRequestValidationError(t *testing.T) {
	var ve RequestValidationError
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q, want %q", ve.Error(), "validation failed")
	}
	if ve.ToAPIError().Message != "Validation failed" {
		t.Errorf("ToAPIError().Message = %q", ve.ToAPIError().Message)
	}
}

func TestRequiredWithNamesJSONKey(t *testing.T) {
	err := ValidateStruct(&models.ClickEvent{ShortlinkID: 1, Latitude: models.Ptr(40.0)})
	if err == nil {
		t.Fatal("expected validation error")
	}

	fe := err.Errors()[0]
	if fe.Param() != "latitude" {
		t.Errorf("Param() = %q, want latitude", fe.Param())
	}
	if want := "longitude is required when latitude is present"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
