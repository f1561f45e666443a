// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package shortlink

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const slugAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	// DefaultSlugLength gives 62^8 (about 2.2e14) possible slugs
	DefaultSlugLength = 8

	// MaxSlugAttempts bounds collision retries in Create
	MaxSlugAttempts = 10
)

// GenerateSlug returns a random base62 slug of the given length.
func GenerateSlug(length int) (string, error) {
	if length <= 0 {
		length = DefaultSlugLength
	}

	max := big.NewInt(int64(len(slugAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}
		out[i] = slugAlphabet[n.Int64()]
	}
	return string(out), nil
}
