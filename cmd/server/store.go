// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/database"
	"github.com/tomtom215/waypoint/internal/database/postgres"
	"github.com/tomtom215/waypoint/internal/logging"
)

const postgresConnectTimeout = 15 * time.Second

// openStore opens the backend named by cfg.Driver.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (database.Store, error) {
	switch cfg.Driver {
	case "duckdb", "":
		db, err := database.New(cfg)
		if err != nil {
			return nil, err
		}
		logging.Info().Str("path", cfg.Path).Msg("DuckDB store opened")
		return db, nil

	case "postgres":
		ctx, cancel := context.WithTimeout(ctx, postgresConnectTimeout)
		defer cancel()
		return postgres.New(ctx, cfg.DSN, cfg.MaxOpenConns)

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
