// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package shortlink resolves public slugs and carries the owner operations on
shortlinks.

Resolution:

	svc := shortlink.NewService(store, shortlink.Config{PublicURL: cfg.Server.PublicURL})
	meta, err := svc.Resolve(ctx, "aB3dE6gH")
	if errors.Is(err, shortlink.ErrNotFound) {
	    // missing or inactive
	}

Every Resolve and ResolveByID is a fresh store read. An inactive shortlink is
indistinguishable from a missing one to public callers.

Owner operations (Create, List, SetActive, Clicks, UserClicks, Stats, QRCode)
are scoped by user ID; a shortlink owned by someone else is reported as
ErrNotFound so its existence is not disclosed.

Slugs are generated from crypto/rand over a base62 alphabet and retried on a
unique-constraint collision.
*/
package shortlink
