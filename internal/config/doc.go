// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

/*
Package config provides centralized configuration management for Waypoint.

Configuration is layered with Koanf v2:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, then ./config.yaml, ./config.yml,
    /etc/waypoint/config.yaml, /etc/waypoint/config.yml
 3. Environment variables (highest priority)

Only mapped environment variables are read; see envMappings in koanf.go for the
complete list. Comma-separated values are split for list fields
(GEOIP_PROVIDERS, CORS_ORIGINS, CLIENT_GEO_PROVIDERS).

# Configuration Structure

  - ServerConfig: listener and public base URL used to build short URLs
  - DatabaseConfig: DuckDB (embedded) or PostgreSQL
  - GeoIPConfig: server-side IP lookup providers (ipinfo.io, ip-api.com)
  - CacheConfig: per-IP lookup cache (memory, redis, badger)
  - NATSConfig: click.recorded event stream
  - SecurityConfig: owner API JWT secret, rate limits, CORS
  - TrackingConfig: redirect delay, geolocation timeout, permission retries
  - LoggingConfig: zerolog level and format

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

Validate is called by Load; a returned error names the offending environment
variable so operators can fix the deployment directly.
*/
package config
