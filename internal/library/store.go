/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package library serves rotation candidates from the persisted music
// library and records committed plays.
package library

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/airloom/airloom/internal/cache"
	"github.com/airloom/airloom/internal/models"
	"github.com/airloom/airloom/internal/rotation"
)

// Filter narrows a candidate listing.
type Filter struct {
	Category    string
	Artist      string
	MaxDuration time.Duration
}

func (f Filter) cacheKey() string {
	return strings.ToLower(f.Category) + "|" + strings.ToLower(f.Artist) + "|" + f.MaxDuration.String()
}

// Store reads candidates from the database, consulting the Redis cache
// first. The cache may be nil.
type Store struct {
	db     *gorm.DB
	cache  *cache.Cache
	logger zerolog.Logger
}

// NewStore builds a library store.
func NewStore(db *gorm.DB, c *cache.Cache, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		cache:  c,
		logger: logger.With().Str("component", "library").Logger(),
	}
}

// ListCandidates returns playable tracks matching the filter. Only items
// with completed analysis qualify.
func (s *Store) ListCandidates(ctx context.Context, filter Filter) ([]rotation.Track, error) {
	key := filter.cacheKey()
	if cached, ok := s.cache.GetCandidates(ctx, key); ok {
		return fromCached(cached), nil
	}

	query := s.db.WithContext(ctx).Where("analysis_state = ?", models.AnalysisComplete)
	if filter.Category != "" {
		query = query.Where("category = ?", strings.ToLower(filter.Category))
	}
	if filter.Artist != "" {
		query = query.Where("LOWER(artist) = ?", strings.ToLower(filter.Artist))
	}
	if filter.MaxDuration > 0 {
		query = query.Where("duration <= ?", filter.MaxDuration)
	}

	var items []models.MediaItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	tracks := make([]rotation.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, rotation.Track{
			ID:          item.ID,
			Title:       item.Title,
			Artist:      item.Artist,
			Album:       item.Album,
			Duration:    item.Duration,
			Category:    item.Category,
			IntroLeadIn: item.IntroLeadIn,
		})
	}

	if err := s.cache.SetCandidates(ctx, key, toCached(tracks)); err != nil {
		s.logger.Debug().Err(err).Msg("candidate pool cache write failed")
	}

	return tracks, nil
}

// AddItem inserts one media item and invalidates cached pools.
func (s *Store) AddItem(ctx context.Context, item models.MediaItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AnalysisState == "" {
		item.AnalysisState = models.AnalysisComplete
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return err
	}
	return s.cache.InvalidateCandidates(ctx)
}

// LogPlay persists a committed play.
func (s *Store) LogPlay(ctx context.Context, track rotation.Track, playedAt time.Time, degraded bool) error {
	entry := models.PlayLog{
		ID:          uuid.NewString(),
		MediaItemID: track.ID,
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		PlayedAt:    playedAt,
		Degraded:    degraded,
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// RecentPlays returns committed plays newer than the cutoff in time order,
// used to warm the rotation history across restarts.
func (s *Store) RecentPlays(ctx context.Context, cutoff time.Time) ([]rotation.HistoryEntry, error) {
	var logs []models.PlayLog
	err := s.db.WithContext(ctx).
		Where("played_at >= ?", cutoff).
		Order("played_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	entries := make([]rotation.HistoryEntry, 0, len(logs))
	for _, entry := range logs {
		entries = append(entries, rotation.HistoryEntry{
			Track: rotation.Track{
				ID:     entry.MediaItemID,
				Title:  entry.Title,
				Artist: entry.Artist,
				Album:  entry.Album,
			},
			PlayedAt: entry.PlayedAt,
		})
	}
	return entries, nil
}

func toCached(tracks []rotation.Track) []cache.CachedTrack {
	out := make([]cache.CachedTrack, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, cache.CachedTrack{
			ID:          t.ID,
			Title:       t.Title,
			Artist:      t.Artist,
			Album:       t.Album,
			Duration:    int64(t.Duration),
			Category:    t.Category,
			IntroLeadIn: int64(t.IntroLeadIn),
		})
	}
	return out
}

func fromCached(cached []cache.CachedTrack) []rotation.Track {
	out := make([]rotation.Track, 0, len(cached))
	for _, t := range cached {
		out = append(out, rotation.Track{
			ID:          t.ID,
			Title:       t.Title,
			Artist:      t.Artist,
			Album:       t.Album,
			Duration:    time.Duration(t.Duration),
			Category:    t.Category,
			IntroLeadIn: time.Duration(t.IntroLeadIn),
		})
	}
	return out
}
