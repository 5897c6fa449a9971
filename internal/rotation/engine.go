/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rotation

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airloom/airloom/internal/events"
	"github.com/airloom/airloom/internal/telemetry"
)

// ErrExhausted indicates no candidate passed even the relaxed rules. Callers
// handle it as a normal outcome, typically by skipping the slot.
var ErrExhausted = errors.New("rotation: candidate pool exhausted")

// History entries older than this are pruned on every write. All rule windows
// fit inside it, so pruning never changes a rule decision.
const retentionHorizon = 24 * time.Hour

// HistoryEntry records one committed play.
type HistoryEntry struct {
	Track    Track
	PlayedAt time.Time
}

// Engine selects tracks against a rolling play history. It is the sole owner
// of that history; all access goes through its methods and is safe for
// concurrent use.
type Engine struct {
	mu      sync.Mutex
	rules   Rules
	history []HistoryEntry
	rng     *rand.Rand
	logger  zerolog.Logger
	bus     *events.Bus
}

// NewEngine validates rules and returns an engine with an empty history.
func NewEngine(rules Rules, logger zerolog.Logger) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		rules:  rules,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger.With().Str("component", "rotation").Logger(),
	}, nil
}

// SetBus installs an event bus notified about degraded selections. Optional.
func (e *Engine) SetBus(b *events.Bus) {
	e.mu.Lock()
	e.bus = b
	e.mu.Unlock()
}

// Seed fixes the shuffle order for reproducible runs.
func (e *Engine) Seed(seed int64) {
	e.mu.Lock()
	e.rng = rand.New(rand.NewSource(seed))
	e.mu.Unlock()
}

// Rules returns the configured rule set.
func (e *Engine) Rules() Rules {
	return e.rules
}

// RecordPlay appends the play and prunes entries past the retention horizon.
// Plays are recorded in increasing time order, so the history stays sorted by
// PlayedAt without an explicit sort.
func (e *Engine) RecordPlay(track Track, playedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, HistoryEntry{Track: track, PlayedAt: playedAt})

	cutoff := playedAt.Add(-retentionHorizon)
	firstKept := 0
	for firstKept < len(e.history) && e.history[firstKept].PlayedAt.Before(cutoff) {
		firstKept++
	}
	if firstKept > 0 {
		e.history = append(e.history[:0], e.history[firstKept:]...)
	}
}

// HistoryLen reports the number of retained history entries.
func (e *Engine) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history)
}

// SeparationSatisfied reports whether track may air at the given instant under
// the track, title, and artist separation rules.
func (e *Engine) SeparationSatisfied(track Track, at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.separationSatisfiedLocked(track, at)
}

// separationSatisfiedLocked walks the history backward. The history is sorted
// by time, so each scan stops at the first entry outside its window.
func (e *Engine) separationSatisfiedLocked(track Track, at time.Time) bool {
	identityWindow := maxDuration(e.rules.TrackSeparation, e.rules.TitleSeparation)
	for i := len(e.history) - 1; i >= 0; i-- {
		entry := e.history[i]
		age := at.Sub(entry.PlayedAt)
		if age > identityWindow {
			break
		}
		if age <= e.rules.TrackSeparation && entry.Track.SameIdentity(track) {
			return false
		}
		if age <= e.rules.TitleSeparation && entry.Track.SameTitle(track) {
			return false
		}
	}

	for i := len(e.history) - 1; i >= 0; i-- {
		entry := e.history[i]
		age := at.Sub(entry.PlayedAt)
		if age > e.rules.ArtistSeparation {
			break
		}
		if entry.Track.SameArtist(track) {
			return false
		}
	}

	return true
}

// RightsCompliant reports whether airing track at the given instant stays
// within the rights-window artist and album caps.
func (e *Engine) RightsCompliant(track Track, at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rightsCompliantLocked(track, at)
}

func (e *Engine) rightsCompliantLocked(track Track, at time.Time) bool {
	artistPlays := 0
	albumPlays := 0
	for i := len(e.history) - 1; i >= 0; i-- {
		entry := e.history[i]
		if at.Sub(entry.PlayedAt) > e.rules.RightsWindow {
			break
		}
		if entry.Track.SameArtist(track) {
			artistPlays++
		}
		// Album caps only apply when both sides carry album metadata.
		if track.Album != "" && entry.Track.Album != "" && strings.EqualFold(entry.Track.Album, track.Album) {
			albumPlays++
		}
	}
	if artistPlays >= e.rules.MaxArtistInWindow {
		return false
	}
	if albumPlays >= e.rules.MaxAlbumInWindow {
		return false
	}
	return true
}

// SelectTrack shuffles the candidate pool and returns the first candidate
// passing the full rule set. When none passes, a degraded pass keeps only the
// literal track-repeat rule (and, unless relaxation is allowed, the rights
// caps); the second return value reports whether the pick came from that
// relaxed pass. ErrExhausted means even the degraded pass found nothing.
//
// SelectTrack never records the play; callers commit via RecordPlay once the
// returned track is actually scheduled.
func (e *Engine) SelectTrack(candidates []Track, at time.Time, enforceRights bool) (Track, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	telemetry.SelectionAttemptsTotal.Inc()

	pool := make([]Track, len(candidates))
	copy(pool, candidates)
	e.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	for _, cand := range pool {
		if !e.separationSatisfiedLocked(cand, at) {
			continue
		}
		if enforceRights && !e.rightsCompliantLocked(cand, at) {
			continue
		}
		return cand, false, nil
	}

	// Degraded pass: only the literal same-track repeat is still blocked.
	for _, cand := range pool {
		if e.recentIdentityPlayLocked(cand, at) {
			continue
		}
		if enforceRights && !e.rules.RelaxRightsOnFallback && !e.rightsCompliantLocked(cand, at) {
			continue
		}
		telemetry.SelectionDegradedTotal.Inc()
		e.logger.Warn().
			Str("track_id", cand.ID).
			Str("artist", cand.Artist).
			Time("at", at).
			Msg("selection degraded to relaxed rules")
		if e.bus != nil {
			e.bus.Publish(events.EventSelectionDegraded, events.Payload{
				"track_id": cand.ID,
				"at":       at,
			})
		}
		return cand, true, nil
	}

	telemetry.SelectionExhaustedTotal.Inc()
	e.logger.Warn().Int("pool_size", len(pool)).Time("at", at).Msg("candidate pool exhausted")
	return Track{}, false, ErrExhausted
}

func (e *Engine) recentIdentityPlayLocked(track Track, at time.Time) bool {
	for i := len(e.history) - 1; i >= 0; i-- {
		entry := e.history[i]
		if at.Sub(entry.PlayedAt) > e.rules.TrackSeparation {
			break
		}
		if entry.Track.SameIdentity(track) {
			return true
		}
	}
	return false
}
