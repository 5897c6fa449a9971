/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	StationName string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string
	DBBackend   DatabaseBackend
	DBDSN       string
	ClockDir    string // Directory of YAML clock definitions loaded at startup

	// Rotation rule overrides (minutes; zero keeps the built-in defaults)
	ArtistSeparation      time.Duration
	TrackSeparation       time.Duration
	TitleSeparation       time.Duration
	RightsWindow          time.Duration
	MaxArtistInWindow     int
	MaxAlbumInWindow      int
	RelaxRightsOnFallback bool

	// Scheduler watcher configuration
	WatcherInterval time.Duration

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Redis candidate cache configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"AIRLOOM_ENV", "ALM_ENV"}, "development"),
		StationName: getEnvAny([]string{"AIRLOOM_STATION_NAME", "ALM_STATION_NAME"}, "Airloom"),
		HTTPBind:    getEnvAny([]string{"AIRLOOM_HTTP_BIND", "ALM_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"AIRLOOM_HTTP_PORT", "ALM_HTTP_PORT"}, 8080),
		MetricsBind: getEnvAny([]string{"AIRLOOM_METRICS_BIND", "ALM_METRICS_BIND"}, "127.0.0.1:9000"),
		DBBackend:   DatabaseBackend(getEnvAny([]string{"AIRLOOM_DB_BACKEND", "ALM_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:       getEnvAny([]string{"AIRLOOM_DB_DSN", "ALM_DB_DSN"}, "airloom.db"),
		ClockDir:    getEnvAny([]string{"AIRLOOM_CLOCK_DIR", "ALM_CLOCK_DIR"}, ""),

		ArtistSeparation:      minutesEnv([]string{"AIRLOOM_ARTIST_SEPARATION_MINUTES", "ALM_ARTIST_SEPARATION_MINUTES"}, 0),
		TrackSeparation:       minutesEnv([]string{"AIRLOOM_TRACK_SEPARATION_MINUTES", "ALM_TRACK_SEPARATION_MINUTES"}, 0),
		TitleSeparation:       minutesEnv([]string{"AIRLOOM_TITLE_SEPARATION_MINUTES", "ALM_TITLE_SEPARATION_MINUTES"}, 0),
		RightsWindow:          minutesEnv([]string{"AIRLOOM_RIGHTS_WINDOW_MINUTES", "ALM_RIGHTS_WINDOW_MINUTES"}, 0),
		MaxArtistInWindow:     getEnvIntAny([]string{"AIRLOOM_MAX_ARTIST_IN_WINDOW", "ALM_MAX_ARTIST_IN_WINDOW"}, 0),
		MaxAlbumInWindow:      getEnvIntAny([]string{"AIRLOOM_MAX_ALBUM_IN_WINDOW", "ALM_MAX_ALBUM_IN_WINDOW"}, 0),
		RelaxRightsOnFallback: getEnvBoolAny([]string{"AIRLOOM_RELAX_RIGHTS_ON_FALLBACK", "ALM_RELAX_RIGHTS_ON_FALLBACK"}, true),

		WatcherInterval: time.Duration(getEnvIntAny([]string{"AIRLOOM_WATCHER_INTERVAL_SECONDS", "ALM_WATCHER_INTERVAL_SECONDS"}, 30)) * time.Second,

		TracingEnabled:    getEnvBoolAny([]string{"AIRLOOM_TRACING_ENABLED", "ALM_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"AIRLOOM_OTLP_ENDPOINT", "ALM_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"AIRLOOM_TRACING_SAMPLE_RATE", "ALM_TRACING_SAMPLE_RATE"}, 1.0),

		RedisAddr:     getEnvAny([]string{"AIRLOOM_REDIS_ADDR", "ALM_REDIS_ADDR"}, ""),
		RedisPassword: getEnvAny([]string{"AIRLOOM_REDIS_PASSWORD", "ALM_REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"AIRLOOM_REDIS_DB", "ALM_REDIS_DB"}, 0),
		CacheTTL:      time.Duration(getEnvIntAny([]string{"AIRLOOM_CACHE_TTL_SECONDS", "ALM_CACHE_TTL_SECONDS"}, 300)) * time.Second,
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("AIRLOOM_DB_DSN or ALM_DB_DSN must be provided")
	}

	if cfg.WatcherInterval <= 0 {
		return nil, fmt.Errorf("AIRLOOM_WATCHER_INTERVAL_SECONDS must be positive")
	}

	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("AIRLOOM_TRACING_SAMPLE_RATE must be within [0, 1]")
	}

	return cfg, nil
}

func minutesEnv(keys []string, def int) time.Duration {
	return time.Duration(getEnvIntAny(keys, def)) * time.Minute
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
