// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file, and environment variables (in that order of precedence, lowest first).
//
// Configuration Categories:
//
//  1. Serving: Server (HTTP listener, public base URL), Security (owner API
//     tokens, rate limits, CORS), Tracking (tracking page behaviour)
//  2. Storage: Database (DuckDB or PostgreSQL)
//  3. Enrichment: GeoIP (server-side lookup providers), Cache (lookup cache)
//  4. Messaging: NATS (click event stream)
//  5. Observability: Logging
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	addr := cfg.Server.Address()
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	GeoIP    GeoIPConfig    `koanf:"geoip"`
	Cache    CacheConfig    `koanf:"cache"`
	NATS     NATSConfig     `koanf:"nats"`
	Security SecurityConfig `koanf:"security"`
	Tracking TrackingConfig `koanf:"tracking"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: bind address (default: 0.0.0.0)
//   - HTTP_PORT: listen port (default: 8080)
//   - HTTP_TIMEOUT: read/write timeout (default: 15s)
//   - PUBLIC_URL: externally visible base URL used to build short URLs and QR codes
//   - ENVIRONMENT: development, staging, production (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	PublicURL   string        `koanf:"public_url"`
	Environment string        `koanf:"environment"`
}

// Address returns the host:port listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and tunes the persistence backend.
//
// Driver "duckdb" (default) stores everything in a single embedded file.
// Driver "postgres" connects to an external PostgreSQL server via DSN.
//
// Environment Variables:
//   - DB_DRIVER: duckdb or postgres
//   - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS
//   - DATABASE_URL: PostgreSQL DSN (required when DB_DRIVER=postgres)
//   - DB_MAX_OPEN_CONNS: PostgreSQL pool size (default: 10)
type DatabaseConfig struct {
	Driver       string `koanf:"driver"`
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"` // 0 = runtime.NumCPU()
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// GeoIPConfig holds server-side IP geolocation settings used to enrich
// tracking submissions with the backend_* field set.
//
// Providers are tried in order; the first successful answer wins.
// Supported names: "ipinfo" (ipinfo.io, token optional) and "ipapi"
// (ip-api.com free tier, 45 requests per minute).
//
// Environment Variables:
//   - GEOIP_ENABLED: enable server-side lookups (default: true)
//   - GEOIP_PROVIDERS: comma-separated provider order (default: ipinfo,ipapi)
//   - IPINFO_TOKEN: ipinfo.io access token
//   - GEOIP_TIMEOUT: per-lookup timeout (default: 3s)
//   - GEOIP_IPAPI_RATE_LIMIT: ip-api.com requests per minute (default: 45)
//   - GEOIP_BREAKER_ENABLED: wrap providers in circuit breakers (default: true)
type GeoIPConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Providers      []string      `koanf:"providers"`
	IPInfoToken    string        `koanf:"ipinfo_token"`
	Timeout        time.Duration `koanf:"timeout"`
	IPAPIRateLimit int           `koanf:"ipapi_rate_limit"`
	BreakerEnabled bool          `koanf:"breaker_enabled"`
}

// CacheConfig selects the backend caching server-side geolocation answers per IP.
//
// Backends: "memory" (process-local TTL cache), "redis" (shared across
// instances), "badger" (persistent across restarts), "none".
//
// Environment Variables:
//   - CACHE_BACKEND, CACHE_TTL (default: 6h)
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
//   - BADGER_PATH
type CacheConfig struct {
	Backend       string        `koanf:"backend"`
	TTL           time.Duration `koanf:"ttl"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	BadgerPath    string        `koanf:"badger_path"`
}

// NATSConfig holds click event stream settings.
//
// When Enabled, every persisted click event is published on Subject. With
// EmbeddedServer the process runs its own JetStream server bound to
// Host:Port and publishes to it; otherwise URL points at an external server.
//
// Environment Variables:
//   - NATS_ENABLED (default: false)
//   - NATS_URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED, NATS_HOST, NATS_PORT, NATS_STORE_DIR
//   - NATS_SUBJECT (default: click.recorded)
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	StoreDir       string        `koanf:"store_dir"`
	Subject        string        `koanf:"subject"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
}

// SecurityConfig holds owner API authentication, rate limiting, and CORS settings.
//
// Environment Variables:
//   - OWNER_API_ENABLED: expose /api/shortlinks and friends (default: false)
//   - JWT_SECRET: HS256 secret, at least 32 characters when the owner API is enabled
//   - TOKEN_TTL: lifetime of tokens minted by the server (default: 24h)
//   - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
//   - TRACK_RATE_LIMIT: POST /api/track requests per window per IP (default: 60)
//   - CORS_ORIGINS: comma-separated allowed origins
type SecurityConfig struct {
	OwnerAPIEnabled   bool          `koanf:"owner_api_enabled"`
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	TrackRateLimit    int           `koanf:"track_rate_limit"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// TrackingConfig controls the tracking interstitial served at /s/{slug}.
//
// Environment Variables:
//   - REDIRECT_DELAY: delay between dispatching the submission and navigating (default: 1.5s)
//   - GEOLOCATION_TIMEOUT: native geolocation request budget (default: 10s)
//   - CLIENT_GEO_PROVIDERS: comma-separated browser-side IP lookup providers,
//     primary first (default: ipapi.co,ipwho.is)
//   - MAX_PERMISSION_RETRIES: denial retries before the page gives up; 0 means unbounded
//   - SLUG_LENGTH: generated slug length (default: 8)
//   - TRUST_FORWARDED_FOR: honour X-Forwarded-For for the backend IP (default: true)
type TrackingConfig struct {
	RedirectDelay        time.Duration `koanf:"redirect_delay"`
	GeolocationTimeout   time.Duration `koanf:"geolocation_timeout"`
	ClientProviders      []string      `koanf:"client_providers"`
	MaxPermissionRetries int           `koanf:"max_permission_retries"`
	SlugLength           int           `koanf:"slug_length"`
	TrustForwardedFor    bool          `koanf:"trust_forwarded_for"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration from defaults, config file, and environment.
// See LoadWithKoanf for the layering rules.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
