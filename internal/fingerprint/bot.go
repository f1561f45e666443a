// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package fingerprint

import "strings"

var botPatterns = []string{
	"bot", "crawler", "spider", "slurp", "headless",
	"phantomjs", "selenium", "puppeteer", "playwright",
	"curl/", "wget/", "python-requests", "go-http-client",
}

// IsBot is a heuristic: automation-controlled browsers and user agents
// naming a crawler or HTTP library count as bots.
func IsBot(ua string, webdriver bool) bool {
	if webdriver || strings.TrimSpace(ua) == "" {
		return true
	}
	lower := strings.ToLower(ua)
	for _, p := range botPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
