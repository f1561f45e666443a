// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package visitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

const (
	// DefaultIPLookupTimeout bounds each client-side provider call
	DefaultIPLookupTimeout = 5 * time.Second

	maxProviderBody = 64 * 1024
)

var (
	// ErrUnknownProvider is returned for a provider name with no field map.
	ErrUnknownProvider = errors.New("unknown client geolocation provider")

	// ErrNoIP means a provider answered without an IP field.
	ErrNoIP = errors.New("provider response has no ip")
)

// IPProvider describes one browser-reachable IP geolocation service as gjson
// paths into its response body.
type IPProvider struct {
	Name    string
	URL     string
	IP      string
	Country string
	City    string
	// ISP paths are tried in order
	ISP []string
	Lat string
	Lng string
	// Loc is a combined "lat,lng" path, used when Lat/Lng are absent
	Loc string
	// Failed reports an in-body failure flag
	Failed func(gjson.Result) bool
}

// KnownIPProviders are the built-in client-side providers by name.
var KnownIPProviders = map[string]IPProvider{
	"ipapi.co": {
		Name:    "ipapi.co",
		URL:     "https://ipapi.co/json/",
		IP:      "ip",
		Country: "country_name",
		City:    "city",
		ISP:     []string{"org", "isp"},
		Lat:     "latitude",
		Lng:     "longitude",
		Failed:  func(r gjson.Result) bool { return r.Get("error").Bool() },
	},
	"ipwho.is": {
		Name:    "ipwho.is",
		URL:     "https://ipwho.is/",
		IP:      "ip",
		Country: "country",
		City:    "city",
		ISP:     []string{"connection.isp", "connection.org"},
		Lat:     "latitude",
		Lng:     "longitude",
		Failed: func(r gjson.Result) bool {
			s := r.Get("success")
			return s.Exists() && !s.Bool()
		},
	},
	"ipinfo.io": {
		Name:    "ipinfo.io",
		URL:     "https://ipinfo.io/json",
		IP:      "ip",
		Country: "country",
		City:    "city",
		ISP:     []string{"org"},
		Loc:     "loc",
		Failed:  func(r gjson.Result) bool { return r.Get("error").Exists() || r.Get("bogon").Bool() },
	},
}

// ClientGeo is what the visitor's own IP lookup reports.
type ClientGeo struct {
	Provider  string
	IP        string
	Country   string
	City      string
	ISP       string
	Latitude  *float64
	Longitude *float64
}

// ApplyTo fills the client network fields of e. Coordinates are written only
// when e has none, so a native position is never overwritten.
func (g *ClientGeo) ApplyTo(e *models.ClickEvent) {
	if g == nil {
		return
	}
	e.IPAddress = optional(g.IP)
	e.Country = optional(g.Country)
	e.City = optional(g.City)
	e.ISP = optional(g.ISP)
	if !e.HasCoordinates() && g.Latitude != nil && g.Longitude != nil {
		e.Latitude = models.Ptr(*g.Latitude)
		e.Longitude = models.Ptr(*g.Longitude)
	}
}

// IPResolver tries the primary provider, then each fallback in order.
type IPResolver struct {
	client    *http.Client
	providers []IPProvider
}

// NewIPResolver builds a resolver over named providers, primary first.
func NewIPResolver(client *http.Client, names ...string) (*IPResolver, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultIPLookupTimeout}
	}
	providers := make([]IPProvider, 0, len(names))
	for _, name := range names {
		p, ok := KnownIPProviders[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
		providers = append(providers, p)
	}
	return &IPResolver{client: client, providers: providers}, nil
}

// NewIPResolverWithProviders uses explicit provider definitions.
func NewIPResolverWithProviders(client *http.Client, providers ...IPProvider) *IPResolver {
	if client == nil {
		client = &http.Client{Timeout: DefaultIPLookupTimeout}
	}
	return &IPResolver{client: client, providers: providers}
}

// Resolve returns the first provider answer that carries an IP. When every
// provider fails it returns nil: the flow continues without IP-derived fields.
func (r *IPResolver) Resolve(ctx context.Context) *ClientGeo {
	for _, p := range r.providers {
		geo, err := r.query(ctx, p)
		if err == nil {
			return geo
		}
		logging.Debug().Err(err).Str("provider", p.Name).Msg("Client IP lookup failed, trying next provider")
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

func (r *IPResolver) query(ctx context.Context, p IPProvider) (*ClientGeo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned status %d", p.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s returned invalid JSON", p.Name)
	}

	return parseProviderResponse(p, gjson.ParseBytes(body))
}

func parseProviderResponse(p IPProvider, res gjson.Result) (*ClientGeo, error) {
	if p.Failed != nil && p.Failed(res) {
		return nil, fmt.Errorf("%s reported failure: %s", p.Name, res.Get("message").String())
	}

	ip := strings.TrimSpace(res.Get(p.IP).String())
	if ip == "" {
		return nil, fmt.Errorf("%s: %w", p.Name, ErrNoIP)
	}

	geo := &ClientGeo{
		Provider: p.Name,
		IP:       ip,
		Country:  res.Get(p.Country).String(),
		City:     res.Get(p.City).String(),
	}
	for _, path := range p.ISP {
		if v := res.Get(path).String(); v != "" {
			geo.ISP = v
			break
		}
	}

	if p.Lat != "" && p.Lng != "" {
		lat, lng := res.Get(p.Lat), res.Get(p.Lng)
		if lat.Type == gjson.Number && lng.Type == gjson.Number {
			geo.Latitude, geo.Longitude = validPair(lat.Float(), lng.Float())
		}
	}
	if geo.Latitude == nil && p.Loc != "" {
		if lat, lng, ok := ParseLoc(res.Get(p.Loc).String()); ok {
			geo.Latitude, geo.Longitude = &lat, &lng
		}
	}

	return geo, nil
}

// ParseLoc parses a combined "lat,lng" string.
func ParseLoc(loc string) (lat, lng float64, ok bool) {
	a, b, found := strings.Cut(loc, ",")
	if !found {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(a), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if p, q := validPair(lat, lng); p == nil || q == nil {
		return 0, 0, false
	}
	return lat, lng, true
}

func validPair(lat, lng float64) (*float64, *float64) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, nil
	}
	return &lat, &lng
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
