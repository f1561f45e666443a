// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package geoip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/models"
)

// Provider looks up the server-side view of one public IP address.
type Provider interface {
	// Lookup returns geolocation for ip. ip is already normalized and public.
	Lookup(ctx context.Context, ip string) (*models.ServerGeo, error)

	// Name is used in logs and metric labels.
	Name() string
}

// Provider names accepted in geoip.providers
const (
	ProviderIPInfo = "ipinfo"
	ProviderIPAPI  = "ipapi"
)

var (
	// ErrNoProviders is returned when no provider is configured.
	ErrNoProviders = errors.New("no geoip providers configured")

	// ErrInvalidIP is returned for strings that are not IP addresses.
	ErrInvalidIP = errors.New("invalid IP address")

	// ErrPrivateIP is returned for loopback, private, and link-local addresses,
	// which no provider can locate.
	ErrPrivateIP = fmt.Errorf("%w: private or reserved address", metrics.ErrLookupSkipped)

	// ErrRateLimited is returned when a provider's local request budget is spent.
	ErrRateLimited = fmt.Errorf("%w: provider rate limit reached", metrics.ErrLookupSkipped)
)

// defaultHTTPTimeout bounds one provider request when the caller's context has no deadline
const defaultHTTPTimeout = 10 * time.Second

// maxResponseBytes caps provider response bodies
const maxResponseBytes = 64 << 10

// getJSON performs a GET and decodes a 200 response into out
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
