// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package models

import (
	"time"
)

// Shortlink maps a public slug to a target URL on behalf of its owner.
//
// The slug is unique across all shortlinks and never changes after creation.
// A shortlink with IsActive=false is never resolvable for redirect.
type Shortlink struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	UserID       string    `json:"userId"`
	TargetURL    string    `json:"targetUrl"`
	CampaignName *string   `json:"campaignName,omitempty"`
	Description  *string   `json:"description,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ShortlinkMeta is the public resolution result served to the tracking page.
type ShortlinkMeta struct {
	TargetURL   string `json:"targetUrl"`
	ShortlinkID int64  `json:"shortlinkId"`
}

// CreateShortlinkRequest is the owner API body for POST /api/shortlinks.
// The slug is always generated server-side.
type CreateShortlinkRequest struct {
	TargetURL    string  `json:"targetUrl" validate:"required,http_url,max=2048"`
	CampaignName *string `json:"campaignName,omitempty" validate:"omitempty,max=200"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// UpdateShortlinkRequest is the owner API body for PATCH /api/shortlinks/{id}.
type UpdateShortlinkRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
