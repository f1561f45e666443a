// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package ingest turns a tracking submission into exactly one persisted click
event.

Pipeline:
 1. Drop server-only fields the client may have sent (id, timestamp, backend_*)
 2. Fill userAgent from the request header if absent; derive missing
    browser/os/device fields from it
 3. Validate against the ClickEvent rules (shortlinkId required, coordinate pairing)
 4. Re-validate the shortlinkId against active shortlinks
 5. Resolve the server-observed IP (first X-Forwarded-For entry, else the
    connection address) and look it up; a failed or slow lookup only leaves
    backend_* geo fields empty
 6. Insert
 7. Publish click.recorded in the background

Submissions are never deduplicated.
*/
package ingest
