// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package fingerprint

import "context"

// Environment is the passive device surface every client exposes.
type Environment interface {
	UserAgent() string
	Language() string
	ScreenSize() (width, height int)
	Timezone() string
	Referrer() string
	// Webdriver reports automation control (navigator.webdriver)
	Webdriver() bool
}

// The interfaces below are optional capabilities. An Environment that does not
// implement one is treated as "unsupported" and the matching fields stay nil.
// Implementations may block, fail, or panic; the collector contains all three.

// NetworkProber exposes the Network Information API.
type NetworkProber interface {
	Connection(ctx context.Context) (Connection, error)
}

// Connection is a network information reading.
type Connection struct {
	EffectiveType string
	Downlink      float64
	RTT           int
}

// GPUProber exposes the unmasked WebGL vendor and renderer.
type GPUProber interface {
	WebGL(ctx context.Context) (vendor, renderer string, err error)
}

// BatteryProber exposes the Battery Status API.
type BatteryProber interface {
	Battery(ctx context.Context) (level float64, charging bool, err error)
}

// StorageProber reports the storage quota estimate in bytes, used for the
// incognito heuristic.
type StorageProber interface {
	StorageQuota(ctx context.Context) (int64, error)
}

// AdBaitProber inserts an ad-like bait element and reports whether it is
// still rendered. Called after the settle delay.
type AdBaitProber interface {
	PlaceAdBait(ctx context.Context) error
	AdBaitVisible(ctx context.Context) (bool, error)
}

// StaticEnvironment is an Environment with fixed answers, used by the
// synthetic visitor and tests. It implements none of the optional prober
// interfaces, so every best-effort probe reports its default.
type StaticEnvironment struct {
	UA       string
	Lang     string
	Width    int
	Height   int
	TZ       string
	Referer  string
	Automate bool
}

// UserAgent implements Environment.
func (s StaticEnvironment) UserAgent() string { return s.UA }

// Language implements Environment.
func (s StaticEnvironment) Language() string { return s.Lang }

// ScreenSize implements Environment.
func (s StaticEnvironment) ScreenSize() (int, int) { return s.Width, s.Height }

// Timezone implements Environment.
func (s StaticEnvironment) Timezone() string { return s.TZ }

// Referrer implements Environment.
func (s StaticEnvironment) Referrer() string { return s.Referer }

// Webdriver implements Environment.
func (s StaticEnvironment) Webdriver() bool { return s.Automate }
