// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package auth authenticates shortlink owners on the owner API.

Owners present an HS256 bearer token whose subject is their user ID. Tokens
are minted out of band (waypoint-server -issue-token <userID>); there is no
login endpoint. The public tracking routes never pass through this package.

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	r.With(auth.RequireOwner(jwtManager)).Get("/api/shortlinks", h.ListShortlinks)

	// inside the handler
	userID, _ := auth.UserIDFromContext(r.Context())
*/
package auth
