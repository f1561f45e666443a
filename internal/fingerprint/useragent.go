// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package fingerprint

import (
	"regexp"
	"strings"
)

// Unknown is reported for any attribute the user agent does not reveal.
const Unknown = "Unknown"

// Device types
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
)

var (
	chromeVersion  = regexp.MustCompile(`Chrome/([\d.]+)`)
	firefoxVersion = regexp.MustCompile(`Firefox/([\d.]+)`)
	safariVersion  = regexp.MustCompile(`Version/([\d.]+)`)
	edgeVersion    = regexp.MustCompile(`Edg/([\d.]+)`)

	windowsVersion = regexp.MustCompile(`Windows NT ([\d.]+)`)
	macVersion     = regexp.MustCompile(`Mac OS X ([\d_]+)`)
	androidVersion = regexp.MustCompile(`Android ([\d.]+)`)
	iosVersion     = regexp.MustCompile(`OS ([\d_]+)`)

	androidModel = regexp.MustCompile(`\) ([^;]+);`)
)

// UAInfo is the parsed form of a user agent string.
type UAInfo struct {
	Browser        string
	OS             string
	DeviceModel    string
	DeviceType     string
	AndroidVersion *string
}

// ParseUserAgent classifies ua with ordered substring rules.
//
// Browser: Chrome (only without "Edg/"), Firefox, Safari (only without
// "Chrome/"), then Edge. OS: Windows, macOS, Linux, Android, iOS, first match
// wins, so a UA that mentions Linux never reaches the Android branch.
func ParseUserAgent(ua string) UAInfo {
	info := UAInfo{
		Browser:     parseBrowser(ua),
		DeviceModel: Unknown,
		DeviceType:  parseDeviceType(ua),
	}
	info.OS, info.AndroidVersion = parseOS(ua)

	switch {
	case strings.Contains(ua, "Android"):
		if m := androidModel.FindStringSubmatch(ua); m != nil {
			info.DeviceModel = m[1]
		}
	case strings.Contains(ua, "iPhone"):
		info.DeviceModel = "iPhone"
	case strings.Contains(ua, "iPad"):
		info.DeviceModel = "iPad"
	}

	return info
}

func parseBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Chrome/") && !strings.Contains(ua, "Edg/"):
		return versioned("Chrome", chromeVersion, ua)
	case strings.Contains(ua, "Firefox/"):
		return versioned("Firefox", firefoxVersion, ua)
	case strings.Contains(ua, "Safari/") && !strings.Contains(ua, "Chrome/"):
		return versioned("Safari", safariVersion, ua)
	case strings.Contains(ua, "Edg/"):
		return versioned("Edge", edgeVersion, ua)
	default:
		return Unknown
	}
}

func parseOS(ua string) (string, *string) {
	switch {
	case strings.Contains(ua, "Windows NT"):
		return versioned("Windows", windowsVersion, ua), nil
	case strings.Contains(ua, "Mac OS X"):
		return underscoreVersioned("macOS", macVersion, ua), nil
	case strings.Contains(ua, "Linux"):
		return "Linux", nil
	case strings.Contains(ua, "Android"):
		m := androidVersion.FindStringSubmatch(ua)
		if m == nil {
			return "Android", nil
		}
		v := m[1]
		return "Android " + v, &v
	case strings.Contains(ua, "iPhone OS") || strings.Contains(ua, "iOS"):
		return underscoreVersioned("iOS", iosVersion, ua), nil
	default:
		return Unknown, nil
	}
}

func parseDeviceType(ua string) string {
	switch {
	case strings.Contains(ua, "Mobile") || strings.Contains(ua, "Android"):
		return DeviceMobile
	case strings.Contains(ua, "Tablet") || strings.Contains(ua, "iPad"):
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

func versioned(name string, re *regexp.Regexp, ua string) string {
	if m := re.FindStringSubmatch(ua); m != nil {
		return name + " " + m[1]
	}
	return name
}

func underscoreVersioned(name string, re *regexp.Regexp, ua string) string {
	if m := re.FindStringSubmatch(ua); m != nil {
		return name + " " + strings.ReplaceAll(m[1], "_", ".")
	}
	return name
}
