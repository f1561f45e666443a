// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package logging provides centralized zerolog-based logging for Waypoint.
//
// The package keeps one global logger configured from the logging section of
// the application config and exposes level helpers plus context-aware
// loggers that carry request and correlation IDs set by the HTTP middleware.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Msg("Server starting")
//	logging.Error().Err(err).Msg("Operation failed")
//	logging.Ctx(ctx).Info().Str("slug", slug).Msg("Shortlink resolved")
//
// Libraries that accept *slog.Logger (suture's event hook) get a zerolog
// backed logger from NewSlogLogger.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event
// is never written.
package logging
