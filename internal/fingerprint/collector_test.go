// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package fingerprint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/waypoint/internal/models"
)

// fullEnv supports every probe
type fullEnv struct {
	StaticEnvironment
	quota        int64
	baitVisible  bool
	batteryLevel float64
}

func (fullEnv) Connection(context.Context) (Connection, error) {
	return Connection{EffectiveType: "4g", Downlink: 10, RTT: 50}, nil
}

func (fullEnv) WebGL(context.Context) (string, string, error) {
	return "Google Inc. (NVIDIA)", "ANGLE (NVIDIA GeForce RTX 3080)", nil
}

func (e fullEnv) Battery(context.Context) (float64, bool, error) { return e.batteryLevel, true, nil }

func (e fullEnv) StorageQuota(context.Context) (int64, error) { return e.quota, nil }

func (fullEnv) PlaceAdBait(context.Context) error { return nil }

func (e fullEnv) AdBaitVisible(context.Context) (bool, error) { return e.baitVisible, nil }

// hostileEnv: network panics, webgl hangs, battery errors
type hostileEnv struct {
	StaticEnvironment
}

func (hostileEnv) Connection(context.Context) (Connection, error) {
	panic("navigator.connection is undefined")
}

func (hostileEnv) WebGL(ctx context.Context) (string, string, error) {
	<-ctx.Done()
	return "", "", ctx.Err()
}

func (hostileEnv) Battery(context.Context) (float64, bool, error) {
	return 0, false, errors.New("getBattery is not a function")
}

func (hostileEnv) StorageQuota(context.Context) (int64, error) { return 50 * 1024 * 1024, nil }

// panickyEnv panics on a passive read
type panickyEnv struct {
	StaticEnvironment
}

func (panickyEnv) Language() string { panic("no navigator") }

func baseEnv() StaticEnvironment {
	return StaticEnvironment{
		UA:      uaChromeWindows,
		Lang:    "en-US",
		Width:   1920,
		Height:  1080,
		TZ:      "America/New_York",
		Referer: "https://news.example.com/",
	}
}

func TestCollect_Passive(t *testing.T) {
	fp := NewCollector(0).Collect(context.Background(), baseEnv())

	checks := []struct {
		name string
		got  *string
		want string
	}{
		{"Browser", fp.Browser, "Chrome 115.0.0.0"},
		{"OS", fp.OS, "Windows 10.0"},
		{"DeviceType", fp.DeviceType, "Desktop"},
		{"ScreenResolution", fp.ScreenResolution, "1920x1080"},
		{"Language", fp.Language, "en-US"},
		{"Timezone", fp.Timezone, "America/New_York"},
		{"Referrer", fp.Referrer, "https://news.example.com/"},
	}
	for _, c := range checks {
		if c.got == nil || *c.got != c.want {
			t.Errorf("%s = %v, want %q", c.name, c.got, c.want)
		}
	}
	if fp.IsBot == nil || *fp.IsBot {
		t.Errorf("IsBot = %v, want false", fp.IsBot)
	}

	// StaticEnvironment has no optional capabilities
	if fp.ConnectionType != nil || fp.WebGLVendor != nil || fp.BatteryLevel != nil ||
		fp.IsIncognito != nil || fp.HasAdBlocker != nil {
		t.Errorf("unsupported probes produced values: %+v", fp)
	}
}

func TestCollect_AllProbes(t *testing.T) {
	env := fullEnv{StaticEnvironment: baseEnv(), quota: 50 << 30, baitVisible: false, batteryLevel: 0.42}
	c := NewCollector(time.Second)
	c.settleDelay = time.Millisecond

	fp := c.Collect(context.Background(), env)

	if fp.ConnectionType == nil || *fp.ConnectionType != "4g" || *fp.RTT != 50 || *fp.Downlink != 10 {
		t.Errorf("network = %v %v %v", fp.ConnectionType, fp.RTT, fp.Downlink)
	}
	if fp.WebGLRenderer == nil || *fp.WebGLRenderer != "ANGLE (NVIDIA GeForce RTX 3080)" {
		t.Errorf("WebGLRenderer = %v", fp.WebGLRenderer)
	}
	if fp.BatteryLevel == nil || *fp.BatteryLevel != 0.42 || !*fp.BatteryCharging {
		t.Errorf("battery = %v %v", fp.BatteryLevel, fp.BatteryCharging)
	}
	if fp.IsIncognito == nil || *fp.IsIncognito {
		t.Errorf("IsIncognito = %v, want false for a large quota", fp.IsIncognito)
	}
	if fp.HasAdBlocker == nil || !*fp.HasAdBlocker {
		t.Errorf("HasAdBlocker = %v, want true when bait is hidden", fp.HasAdBlocker)
	}
}

func TestCollect_ProbesFailIndependently(t *testing.T) {
	c := NewCollector(50 * time.Millisecond)

	start := time.Now()
	fp := c.Collect(context.Background(), hostileEnv{StaticEnvironment: baseEnv()})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Collect() took %v; hung probe not bounded", elapsed)
	}

	if fp.ConnectionType != nil || fp.RTT != nil {
		t.Error("panicking network probe should leave fields nil")
	}
	if fp.WebGLVendor != nil {
		t.Error("timed-out webgl probe should leave fields nil")
	}
	if fp.BatteryLevel != nil {
		t.Error("failing battery probe should leave fields nil")
	}
	// The healthy probe still reports
	if fp.IsIncognito == nil || !*fp.IsIncognito {
		t.Errorf("IsIncognito = %v, want true for a small quota", fp.IsIncognito)
	}
	if fp.Browser == nil || *fp.Browser != "Chrome 115.0.0.0" {
		t.Error("passive fields lost after probe failures")
	}
}

func TestCollect_OutOfRangeBattery(t *testing.T) {
	env := fullEnv{StaticEnvironment: baseEnv(), batteryLevel: 1.7}
	fp := NewCollector(0).Collect(context.Background(), env)
	if fp.BatteryLevel != nil {
		t.Errorf("BatteryLevel = %v, want nil for out-of-range reading", *fp.BatteryLevel)
	}
}

func TestCollect_PanickingPassiveRead(t *testing.T) {
	fp := NewCollector(0).Collect(context.Background(), panickyEnv{StaticEnvironment: baseEnv()})
	if fp.Language != nil {
		t.Errorf("Language = %v, want nil", *fp.Language)
	}
	if fp.UserAgent == nil {
		t.Error("UserAgent missing")
	}
}

func TestApplyTo(t *testing.T) {
	fp := NewCollector(0).Collect(context.Background(), baseEnv())

	e := models.ClickEvent{ShortlinkID: 5, Country: models.Ptr("Canada")}
	fp.ApplyTo(&e)

	if e.Browser == nil || *e.Browser != "Chrome 115.0.0.0" {
		t.Errorf("Browser = %v", e.Browser)
	}
	if e.Country == nil || *e.Country != "Canada" {
		t.Error("ApplyTo must not touch location fields")
	}
	if e.ShortlinkID != 5 {
		t.Error("ApplyTo must not touch ShortlinkID")
	}
}

func TestStaticEnvironmentHasNoProbers(t *testing.T) {
	var env Environment = baseEnv()

	if _, ok := env.(NetworkProber); ok {
		t.Error("StaticEnvironment implements NetworkProber")
	}
	if _, ok := env.(GPUProber); ok {
		t.Error("StaticEnvironment implements GPUProber")
	}
	if _, ok := env.(BatteryProber); ok {
		t.Error("StaticEnvironment implements BatteryProber")
	}
	if _, ok := env.(StorageProber); ok {
		t.Error("StaticEnvironment implements StorageProber")
	}
	if _, ok := env.(AdBaitProber); ok {
		t.Error("StaticEnvironment implements AdBaitProber")
	}
}
