// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// parseURL parses rawURL and requires a host and one of schemes.
func parseURL(rawURL, fieldName string, schemes ...string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if !slices.Contains(schemes, u.Scheme) {
		return nil, fmt.Errorf("%s scheme must be %s, got: %q", fieldName, strings.Join(schemes, ", "), u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%s host is required", fieldName)
	}
	return u, nil
}

// validateHTTPURL accepts an http(s) origin. Short URLs are built by appending
// "/s/<slug>", so a path other than "/" or a query string is rejected.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := parseURL(rawURL, fieldName, "http", "https")
	if err != nil {
		return err
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, u.Path)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, u.RawQuery)
	}
	return nil
}

// validateNATSURL accepts nats://, tls://, ws:// and wss:// URLs.
func validateNATSURL(rawURL string) error {
	_, err := parseURL(rawURL, "NATS_URL", "nats", "tls", "ws", "wss")
	return err
}
