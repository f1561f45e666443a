// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package events publishes a click.recorded notification for every persisted
click event.

Publication is best-effort: the ingestion path has already committed the
row when PublishClick runs, and a broker outage never fails a tracking
submission.

Components:

  - ClickRecorded: versioned JSON payload (schema_version 1)
  - Publisher: wraps any Watermill message.Publisher; NewNATSPublisher builds
    one on NATS JetStream with Nats-Msg-Id deduplication
  - EmbeddedServer: optional in-process NATS JetStream server for
    single-instance deployments, runnable under the supervisor tree

Usage:

	pub, err := events.NewNATSPublisher(&cfg.NATS, nil)
	if err != nil {
	    return err
	}
	defer pub.Close()
	err = pub.PublishClick(ctx, event, "promo123")
*/
package events
