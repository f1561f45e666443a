// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/waypoint/internal/api"
	"github.com/tomtom215/waypoint/internal/auth"
	"github.com/tomtom215/waypoint/internal/cache"
	"github.com/tomtom215/waypoint/internal/config"
	"github.com/tomtom215/waypoint/internal/geoip"
	"github.com/tomtom215/waypoint/internal/ingest"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/shortlink"
	"github.com/tomtom215/waypoint/internal/supervisor"
	"github.com/tomtom215/waypoint/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//nolint:gocyclo // sequential startup
func main() {
	issueToken := flag.String("issue-token", "", "print a signed owner token for this user ID and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if *issueToken != "" {
		if err := printToken(&cfg.Security, *issueToken); err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue token")
		}
		return
	}

	startTime := time.Now()
	metrics.SetAppInfo(version)
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Msg("Starting Waypoint")

	store, err := openStore(context.Background(), &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	lookupCache, err := cache.New(&cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize lookup cache")
	}
	defer func() {
		if err := lookupCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing lookup cache")
		}
	}()

	var geo ingest.GeoLookup
	if cfg.GeoIP.Enabled {
		resolver, err := geoip.NewFromConfig(&cfg.GeoIP, lookupCache, cfg.Cache.TTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize server geolocation")
		}
		geo = resolver
		logging.Info().Strs("providers", cfg.GeoIP.Providers).Str("cache", lookupCache.Backend()).Msg("Server geolocation enabled")
	} else {
		logging.Info().Msg("Server geolocation disabled")
	}

	stream, err := initEvents(&cfg.NATS)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize click event stream")
	}
	defer stream.close()

	links := shortlink.NewService(store, shortlink.Config{
		PublicURL:  cfg.Server.PublicURL,
		SlugLength: cfg.Tracking.SlugLength,
	})
	ingestSvc := ingest.NewService(store, links, geo, stream.publisherOrNil(), ingestOptions(cfg))

	page, err := api.NewTrackingPage(&cfg.Tracking)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build tracking page")
	}

	routerCfg := api.RouterConfig{
		Middleware: api.MiddlewareConfig{
			CORSAllowedOrigins: cfg.Security.CORSOrigins,
			RateLimitRequests:  cfg.Security.RateLimitReqs,
			RateLimitWindow:    cfg.Security.RateLimitWindow,
			RateLimitDisabled:  cfg.Security.RateLimitDisabled,
			TrackRateLimit:     cfg.Security.TrackRateLimit,
			KeyByForwardedFor:  cfg.Tracking.TrustForwardedFor,
		},
	}
	if cfg.Security.OwnerAPIEnabled {
		tokens, err := auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		routerCfg.OwnerAPIEnabled = true
		routerCfg.Tokens = tokens
		logging.Info().Msg("Owner API enabled")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	handler := api.NewHandler(links, ingestSvc, store, page, version)
	router := api.NewRouter(handler, routerCfg)

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router.Handler(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	if stream.broker != nil {
		tree.AddMessagingService(services.NewEmbeddedNATSService(stream.broker, stream.restartBroker))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddAPIService(services.NewUptimeService(startTime))
	logging.Info().Str("addr", server.Addr).Str("public_url", cfg.Server.PublicURL).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Waypoint stopped")
}

// ingestOptions bounds the per-click geo lookup by geoip.timeout.
func ingestOptions(cfg *config.Config) ingest.Options {
	return ingest.Options{
		TrustForwardedFor: cfg.Tracking.TrustForwardedFor,
		LookupTimeout:     cfg.GeoIP.Timeout,
	}
}

// printToken writes a signed owner token for userID to stdout.
func printToken(cfg *config.SecurityConfig, userID string) error {
	tokens, err := auth.NewJWTManager(cfg)
	if err != nil {
		return err
	}
	token, err := tokens.GenerateToken(userID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}
