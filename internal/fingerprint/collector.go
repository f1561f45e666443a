// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package fingerprint

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/models"
)

const (
	// DefaultProbeTimeout bounds each best-effort probe
	DefaultProbeTimeout = time.Second

	// AdBaitSettleDelay is the wait between placing the bait and checking it
	AdBaitSettleDelay = 100 * time.Millisecond

	// IncognitoQuotaThreshold: private windows report a storage quota below this
	IncognitoQuotaThreshold = 120 * 1024 * 1024
)

// Fingerprint is the flat record of passive signals. Every field is optional.
type Fingerprint struct {
	UserAgent        *string
	Browser          *string
	OS               *string
	DeviceModel      *string
	DeviceType       *string
	AndroidVersion   *string
	ScreenResolution *string
	Language         *string
	Timezone         *string
	Referrer         *string
	IsBot            *bool

	ConnectionType  *string
	Downlink        *float64
	RTT             *int
	WebGLVendor     *string
	WebGLRenderer   *string
	BatteryLevel    *float64
	BatteryCharging *bool
	IsIncognito     *bool
	HasAdBlocker    *bool
}

// ApplyTo copies every collected field into e.
func (f *Fingerprint) ApplyTo(e *models.ClickEvent) {
	e.UserAgent = f.UserAgent
	e.Browser = f.Browser
	e.OS = f.OS
	e.DeviceModel = f.DeviceModel
	e.DeviceType = f.DeviceType
	e.AndroidVersion = f.AndroidVersion
	e.ScreenResolution = f.ScreenResolution
	e.Language = f.Language
	e.Timezone = f.Timezone
	e.Referrer = f.Referrer
	e.IsBot = f.IsBot
	e.ConnectionType = f.ConnectionType
	e.Downlink = f.Downlink
	e.RTT = f.RTT
	e.WebGLVendor = f.WebGLVendor
	e.WebGLRenderer = f.WebGLRenderer
	e.BatteryLevel = f.BatteryLevel
	e.BatteryCharging = f.BatteryCharging
	e.IsIncognito = f.IsIncognito
	e.HasAdBlocker = f.HasAdBlocker
}

// Collector gathers a Fingerprint from an Environment.
type Collector struct {
	probeTimeout time.Duration
	settleDelay  time.Duration
}

// NewCollector creates a collector. A zero timeout uses DefaultProbeTimeout.
func NewCollector(probeTimeout time.Duration) *Collector {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Collector{probeTimeout: probeTimeout, settleDelay: AdBaitSettleDelay}
}

// applier writes one probe's result into the fingerprint
type applier func(*Fingerprint)

type probe struct {
	name string
	run  func(ctx context.Context) (applier, error)
}

// Collect never fails. Passive fields are read directly; each best-effort
// probe runs concurrently under its own timeout and recover, and a probe that
// fails, panics, is unsupported, or times out leaves its fields nil.
func (c *Collector) Collect(ctx context.Context, env Environment) *Fingerprint {
	fp := &Fingerprint{}
	c.collectPassive(env, fp)

	probes := c.probes(env)
	results := make([]applier, len(probes))

	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			results[i] = c.runProbe(ctx, p)
		}(i, p)
	}
	wg.Wait()

	for _, apply := range results {
		if apply != nil {
			apply(fp)
		}
	}
	return fp
}

func (c *Collector) collectPassive(env Environment, fp *Fingerprint) {
	ua := safeString(env.UserAgent)
	info := ParseUserAgent(ua)

	fp.UserAgent = models.Ptr(ua)
	fp.Browser = models.Ptr(info.Browser)
	fp.OS = models.Ptr(info.OS)
	fp.DeviceModel = models.Ptr(info.DeviceModel)
	fp.DeviceType = models.Ptr(info.DeviceType)
	fp.AndroidVersion = info.AndroidVersion
	fp.IsBot = models.Ptr(IsBot(ua, safeBool(env.Webdriver)))

	if w, h := safeScreen(env); w > 0 && h > 0 {
		fp.ScreenResolution = models.Ptr(strconv.Itoa(w) + "x" + strconv.Itoa(h))
	}
	if lang := safeString(env.Language); lang != "" {
		fp.Language = &lang
	}
	if tz := safeString(env.Timezone); tz != "" {
		fp.Timezone = &tz
	}
	if ref := safeString(env.Referrer); ref != "" {
		fp.Referrer = &ref
	}
}

func (c *Collector) probes(env Environment) []probe {
	var probes []probe

	if n, ok := env.(NetworkProber); ok {
		probes = append(probes, probe{name: "network", run: func(ctx context.Context) (applier, error) {
			conn, err := n.Connection(ctx)
			if err != nil {
				return nil, err
			}
			return func(fp *Fingerprint) {
				if conn.EffectiveType != "" {
					fp.ConnectionType = models.Ptr(conn.EffectiveType)
				}
				fp.Downlink = models.Ptr(conn.Downlink)
				fp.RTT = models.Ptr(conn.RTT)
			}, nil
		}})
	}

	if g, ok := env.(GPUProber); ok {
		probes = append(probes, probe{name: "webgl", run: func(ctx context.Context) (applier, error) {
			vendor, renderer, err := g.WebGL(ctx)
			if err != nil {
				return nil, err
			}
			return func(fp *Fingerprint) {
				fp.WebGLVendor = models.Ptr(orUnknown(vendor))
				fp.WebGLRenderer = models.Ptr(orUnknown(renderer))
			}, nil
		}})
	}

	if b, ok := env.(BatteryProber); ok {
		probes = append(probes, probe{name: "battery", run: func(ctx context.Context) (applier, error) {
			level, charging, err := b.Battery(ctx)
			if err != nil {
				return nil, err
			}
			if level < 0 || level > 1 {
				return nil, fmt.Errorf("battery level %v out of range", level)
			}
			return func(fp *Fingerprint) {
				fp.BatteryLevel = models.Ptr(level)
				fp.BatteryCharging = models.Ptr(charging)
			}, nil
		}})
	}

	if s, ok := env.(StorageProber); ok {
		probes = append(probes, probe{name: "incognito", run: func(ctx context.Context) (applier, error) {
			quota, err := s.StorageQuota(ctx)
			if err != nil {
				return nil, err
			}
			return func(fp *Fingerprint) {
				fp.IsIncognito = models.Ptr(quota > 0 && quota < IncognitoQuotaThreshold)
			}, nil
		}})
	}

	if a, ok := env.(AdBaitProber); ok {
		probes = append(probes, probe{name: "adblock", run: func(ctx context.Context) (applier, error) {
			if err := a.PlaceAdBait(ctx); err != nil {
				return nil, err
			}
			select {
			case <-time.After(c.settleDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			visible, err := a.AdBaitVisible(ctx)
			if err != nil {
				return nil, err
			}
			return func(fp *Fingerprint) {
				fp.HasAdBlocker = models.Ptr(!visible)
			}, nil
		}})
	}

	return probes
}

// runProbe returns nil on any failure
func (c *Collector) runProbe(parent context.Context, p probe) applier {
	ctx, cancel := context.WithTimeout(parent, c.probeTimeout)
	defer cancel()

	type result struct {
		apply applier
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("probe panicked: %v", r)}
			}
		}()
		apply, err := p.run(ctx)
		done <- result{apply: apply, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			logging.Debug().Err(res.err).Str("probe", p.name).Msg("Fingerprint probe failed")
			return nil
		}
		return res.apply
	case <-ctx.Done():
		logging.Debug().Str("probe", p.name).Dur("timeout", c.probeTimeout).Msg("Fingerprint probe timed out")
		return nil
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// The passive readers below shield Collect from a panicking Environment.

func safeString(fn func() string) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	return fn()
}

func safeBool(fn func() bool) (b bool) {
	defer func() {
		if recover() != nil {
			b = false
		}
	}()
	return fn()
}

func safeScreen(env Environment) (w, h int) {
	defer func() {
		if recover() != nil {
			w, h = 0, 0
		}
	}()
	return env.ScreenSize()
}
