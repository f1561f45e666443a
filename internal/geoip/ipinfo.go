// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package geoip

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tomtom215/waypoint/internal/models"
)

// IPInfoProvider queries ipinfo.io. A token raises the free quota but is optional.
type IPInfoProvider struct {
	client  *http.Client
	token   string
	baseURL string
}

// ipInfoResponse is the /{ip}/json body
type ipInfoResponse struct {
	IP       string `json:"ip"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Loc      string `json:"loc"`
	Org      string `json:"org"`
	Timezone string `json:"timezone"`
	Bogon    bool   `json:"bogon"`
	Error    *struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewIPInfoProvider creates an ipinfo.io provider.
func NewIPInfoProvider(token string) *IPInfoProvider {
	return &IPInfoProvider{
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		token:   token,
		baseURL: "https://ipinfo.io",
	}
}

// Name implements Provider.
func (p *IPInfoProvider) Name() string {
	return "ipinfo.io"
}

// Lookup implements Provider.
func (p *IPInfoProvider) Lookup(ctx context.Context, ip string) (*models.ServerGeo, error) {
	u := fmt.Sprintf("%s/%s/json", p.baseURL, url.PathEscape(ip))
	if p.token != "" {
		u += "?token=" + url.QueryEscape(p.token)
	}

	var result ipInfoResponse
	if err := getJSON(ctx, p.client, u, &result); err != nil {
		return nil, fmt.Errorf("ipinfo.io: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("ipinfo.io error: %s", result.Error.Message)
	}
	if result.Bogon {
		return nil, ErrPrivateIP
	}
	if result.IP == "" {
		return nil, fmt.Errorf("ipinfo.io: response without ip")
	}

	return &models.ServerGeo{
		IP:       result.IP,
		Country:  result.Country,
		City:     result.City,
		Region:   result.Region,
		Loc:      result.Loc,
		Org:      result.Org,
		Timezone: result.Timezone,
		Provider: p.Name(),
	}, nil
}
