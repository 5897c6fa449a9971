/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for candidate pools.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultCandidateTTL bounds how stale a cached candidate pool may get.
const DefaultCandidateTTL = 5 * time.Minute

// Key prefixes for Redis cache.
const (
	KeyCandidates = "airloom:cache:candidates:" // + filter key
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CandidateTTL time.Duration

	// DisableOnError trips the circuit breaker on the first Redis error.
	DisableOnError bool
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		CandidateTTL:   DefaultCandidateTTL,
		DisableOnError: true,
	}
}

// CachedTrack is the wire shape for one cached candidate.
type CachedTrack struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Duration    int64  `json:"duration"` // Nanoseconds
	Category    string `json:"category"`
	IntroLeadIn int64  `json:"intro_lead_in"` // Nanoseconds
}

// Cache provides Redis-backed caching with graceful fallback. A nil or
// unreachable Redis never fails callers; reads miss and writes are dropped.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool
}

// New creates a new cache instance.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	if cfg.CandidateTTL <= 0 {
		cfg.CandidateTTL = DefaultCandidateTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logger.With().Str("component", "cache").Logger(),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}

	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// GetCandidates retrieves a cached candidate pool for the filter key.
func (c *Cache) GetCandidates(ctx context.Context, filterKey string) ([]CachedTrack, bool) {
	if c == nil {
		return nil, false
	}
	var tracks []CachedTrack
	found, err := c.get(ctx, KeyCandidates+filterKey, &tracks)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("filter", filterKey).Int("count", len(tracks)).Msg("candidate pool cache hit")
	return tracks, true
}

// SetCandidates caches a candidate pool under the filter key.
func (c *Cache) SetCandidates(ctx context.Context, filterKey string, tracks []CachedTrack) error {
	if c == nil {
		return nil
	}
	c.logger.Debug().Str("filter", filterKey).Int("count", len(tracks)).Msg("caching candidate pool")
	return c.set(ctx, KeyCandidates+filterKey, tracks, c.config.CandidateTTL)
}

// InvalidateCandidates removes every cached candidate pool. Called when the
// library changes.
func (c *Cache) InvalidateCandidates(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.logger.Debug().Msg("invalidating candidate pool caches")
	return c.deletePattern(ctx, KeyCandidates+"*")
}
