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
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/waypoint/internal/models"
)

// DefaultIPAPIRateLimit is the ip-api.com free tier budget per minute
const DefaultIPAPIRateLimit = 45

// IPAPIProvider queries the free ip-api.com endpoint under a local rate limit.
type IPAPIProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// ipAPIResponse is the /json/{ip} body
type ipAPIResponse struct {
	Status     string  `json:"status"` // "success" or "fail"
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Timezone   string  `json:"timezone"`
	ISP        string  `json:"isp"`
	Org        string  `json:"org"`
	Query      string  `json:"query"`
}

// NewIPAPIProvider creates an ip-api.com provider allowing perMinute requests per minute.
func NewIPAPIProvider(perMinute int) *IPAPIProvider {
	if perMinute <= 0 {
		perMinute = DefaultIPAPIRateLimit
	}
	return &IPAPIProvider{
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		baseURL: "http://ip-api.com/json",
	}
}

// Name implements Provider.
func (p *IPAPIProvider) Name() string {
	return "ip-api.com"
}

// Lookup implements Provider. It never waits for budget; an empty bucket is ErrRateLimited.
func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (*models.ServerGeo, error) {
	if !p.limiter.Allow() {
		return nil, ErrRateLimited
	}

	u := fmt.Sprintf("%s/%s?fields=status,message,country,regionName,city,lat,lon,timezone,isp,org,query",
		p.baseURL, url.PathEscape(ip))

	var result ipAPIResponse
	if err := getJSON(ctx, p.client, u, &result); err != nil {
		return nil, fmt.Errorf("ip-api.com: %w", err)
	}
	if result.Status != "success" {
		return nil, fmt.Errorf("ip-api.com lookup failed: %s", result.Message)
	}

	org := result.ISP
	if org == "" {
		org = result.Org
	}

	return &models.ServerGeo{
		IP:       result.Query,
		Country:  result.Country,
		City:     result.City,
		Region:   result.RegionName,
		Loc:      formatLoc(result.Lat, result.Lon),
		Org:      org,
		Timezone: result.Timezone,
		Provider: p.Name(),
	}, nil
}

// formatLoc renders coordinates in ipinfo's "lat,lng" form
func formatLoc(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
}
