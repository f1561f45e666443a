// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package api

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/fingerprint"
	"github.com/tomtom215/waypoint/internal/visitor"
)

var (
	//go:embed templates/tracking.html.tmpl
	trackingTemplateSource string

	//go:embed templates/tracking.js
	trackingScript string

	trackingTemplate = template.Must(template.New("tracking").Parse(trackingTemplateSource))
)

// pageProvider is the browser-side view of a visitor.IPProvider. Paths are
// dotted field paths into the provider's JSON body.
type pageProvider struct {
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	IP      string   `json:"ip"`
	Country string   `json:"country,omitempty"`
	City    string   `json:"city,omitempty"`
	ISP     []string `json:"isp,omitempty"`
	Lat     string   `json:"lat,omitempty"`
	Lng     string   `json:"lng,omitempty"`
	Loc     string   `json:"loc,omitempty"`
}

// pageConfig is serialized into window.WAYPOINT_CONFIG.
type pageConfig struct {
	Slug                 string         `json:"slug"`
	MetaURL              string         `json:"metaUrl"`
	TrackURL             string         `json:"trackUrl"`
	RedirectDelayMs      int64          `json:"redirectDelayMs"`
	GeolocationTimeoutMs int64          `json:"geolocationTimeoutMs"`
	IPLookupTimeoutMs    int64          `json:"ipLookupTimeoutMs"`
	MaxRetries           int            `json:"maxRetries"`
	ProbeTimeoutMs       int64          `json:"probeTimeoutMs"`
	AdBaitSettleMs       int64          `json:"adBaitSettleMs"`
	IncognitoQuotaBytes  int64          `json:"incognitoQuotaBytes"`
	Providers            []pageProvider `json:"providers"`
}

type pageData struct {
	Nonce  string
	Config pageConfig
	Script template.JS
}

// TrackingPage renders the interstitial served at /s/{slug}.
type TrackingPage struct {
	base           pageConfig
	connectOrigins []string
}

// NewTrackingPage builds the page from tracking settings. Unknown provider
// names are an error.
func NewTrackingPage(cfg *config.TrackingConfig) (*TrackingPage, error) {
	base := pageConfig{
		TrackURL:             "/api/track",
		RedirectDelayMs:      cfg.RedirectDelay.Milliseconds(),
		GeolocationTimeoutMs: cfg.GeolocationTimeout.Milliseconds(),
		IPLookupTimeoutMs:    visitor.DefaultIPLookupTimeout.Milliseconds(),
		MaxRetries:           cfg.MaxPermissionRetries,
		ProbeTimeoutMs:       fingerprint.DefaultProbeTimeout.Milliseconds(),
		AdBaitSettleMs:       fingerprint.AdBaitSettleDelay.Milliseconds(),
		IncognitoQuotaBytes:  fingerprint.IncognitoQuotaThreshold,
	}

	var origins []string
	seen := make(map[string]bool)
	for _, name := range cfg.ClientProviders {
		p, ok := visitor.KnownIPProviders[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", visitor.ErrUnknownProvider, name)
		}
		base.Providers = append(base.Providers, pageProvider{
			Name:    p.Name,
			URL:     p.URL,
			IP:      p.IP,
			Country: p.Country,
			City:    p.City,
			ISP:     p.ISP,
			Lat:     p.Lat,
			Lng:     p.Lng,
			Loc:     p.Loc,
		})

		u, err := url.Parse(p.URL)
		if err != nil {
			return nil, fmt.Errorf("provider %s url: %w", p.Name, err)
		}
		origin := u.Scheme + "://" + u.Host
		if !seen[origin] {
			seen[origin] = true
			origins = append(origins, origin)
		}
	}

	return &TrackingPage{base: base, connectOrigins: origins}, nil
}

// ConnectOrigins are the provider origins the page's CSP must allow.
func (p *TrackingPage) ConnectOrigins() []string {
	return p.connectOrigins
}

// Render produces the page HTML for slug with the given CSP nonce.
func (p *TrackingPage) Render(slug, nonce string) ([]byte, error) {
	cfg := p.base
	cfg.Slug = slug
	cfg.MetaURL = "/api/shortlink-meta/" + url.PathEscape(slug)

	var buf bytes.Buffer
	if err := trackingTemplate.Execute(&buf, pageData{
		Nonce:  nonce,
		Config: cfg,
		Script: template.JS(trackingScript),
	}); err != nil {
		return nil, fmt.Errorf("render tracking page: %w", err)
	}
	return buf.Bytes(), nil
}
