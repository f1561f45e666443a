// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package supervisor runs Waypoint's long-lived services under a suture v4 tree.

	RootSupervisor ("waypoint")
	├── MessagingSupervisor ("messaging-layer")
	│   └── EmbeddedNATSService (nats.embedded_server)
	└── APISupervisor ("api-layer")
	    ├── HTTPServerService
	    └── UptimeService

A broker crash restarts inside the messaging layer without taking the HTTP
listener down; click ingestion keeps working and publishes fail until the
broker is back (the publisher's circuit breaker absorbs the gap).

Supervisor events are logged through sutureslog with the slog bridge from
internal/logging:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor tree stopped")
	}
*/
package supervisor
