/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule resolves which hour clock is active at any instant,
// honoring scheduled show overrides before the daypart lineup.
package schedule

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airloom/airloom/internal/clock"
)

// Show is a time-bounded clock override. It is active while
// start <= now < start + duration and expires naturally.
type Show struct {
	Name      string
	Host      string
	StartTime time.Time
	Duration  time.Duration
	Clock     *clock.HourClock
}

// EndTime returns the instant the show stops being active.
func (s Show) EndTime() time.Time {
	return s.StartTime.Add(s.Duration)
}

// ActiveAt reports whether the show covers the given instant.
func (s Show) ActiveAt(at time.Time) bool {
	return !at.Before(s.StartTime) && at.Before(s.EndTime())
}

// Scheduler owns the daypart lineup and the show list. Resolution never
// fails; a daypart with no registered clock falls back to the default clock.
type Scheduler struct {
	mu           sync.RWMutex
	clocks       map[clock.Daypart]*clock.HourClock
	shows        []Show
	defaultClock *clock.HourClock
	logger       zerolog.Logger
}

// NewScheduler builds a scheduler over the given lineup. Missing dayparts are
// tolerated; defaultClock covers them and must be non-nil.
func NewScheduler(clocks map[clock.Daypart]*clock.HourClock, defaultClock *clock.HourClock, logger zerolog.Logger) *Scheduler {
	if defaultClock == nil {
		defaultClock = clock.MusicHeavy("Default", clock.DaypartOvernight)
	}
	lineup := make(map[clock.Daypart]*clock.HourClock, len(clocks))
	for dp, c := range clocks {
		lineup[dp] = c
	}
	return &Scheduler{
		clocks:       lineup,
		defaultClock: defaultClock,
		logger:       logger.With().Str("component", "schedule").Logger(),
	}
}

// RegisterClock installs or replaces the clock for a daypart.
func (s *Scheduler) RegisterClock(daypart clock.Daypart, c *clock.HourClock) {
	s.mu.Lock()
	s.clocks[daypart] = c
	s.mu.Unlock()
	s.logger.Info().Str("daypart", string(daypart)).Str("clock", c.Name()).Msg("clock registered")
}

// ScheduleShow inserts the show keeping the list sorted by start time.
// Overlaps are not rejected here; resolution returns the earliest-scheduled
// active show, which defines the tie-break.
func (s *Scheduler) ScheduleShow(show Show) {
	s.mu.Lock()
	s.shows = append(s.shows, show)
	sort.SliceStable(s.shows, func(i, j int) bool {
		return s.shows[i].StartTime.Before(s.shows[j].StartTime)
	})
	s.mu.Unlock()
	s.logger.Info().Str("show", show.Name).Time("start", show.StartTime).Dur("duration", show.Duration).Msg("show scheduled")
}

// RemoveShow drops every show with the given name and reports whether any
// was removed.
func (s *Scheduler) RemoveShow(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.shows[:0]
	removed := false
	for _, show := range s.shows {
		if show.Name == name {
			removed = true
			continue
		}
		kept = append(kept, show)
	}
	s.shows = kept
	return removed
}

// ActiveShow returns the earliest-scheduled show covering the instant.
func (s *Scheduler) ActiveShow(at time.Time) (Show, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeShowLocked(at)
}

func (s *Scheduler) activeShowLocked(at time.Time) (Show, bool) {
	for _, show := range s.shows {
		if show.ActiveAt(at) {
			return show, true
		}
	}
	return Show{}, false
}

// ResolveActiveClock returns the clock in effect at the instant. Active shows
// win over the daypart lineup; a missing daypart clock yields the default.
func (s *Scheduler) ResolveActiveClock(at time.Time) *clock.HourClock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if show, ok := s.activeShowLocked(at); ok && show.Clock != nil {
		return show.Clock
	}

	daypart := clock.DaypartOf(at)
	if c, ok := s.clocks[daypart]; ok {
		return c
	}
	s.logger.Warn().Str("daypart", string(daypart)).Msg("no clock registered, using default")
	return s.defaultClock
}

// CurrentSlot returns the slot that should be airing at the instant.
func (s *Scheduler) CurrentSlot(at time.Time) clock.Slot {
	return s.ResolveActiveClock(at).SlotAt(at.Minute())
}

// NextSlot returns the slot that airs after the instant.
func (s *Scheduler) NextSlot(at time.Time) clock.Slot {
	return s.ResolveActiveClock(at).NextSlotAfter(at.Minute())
}

// UpcomingShows returns shows starting within the horizon after the instant,
// in start order.
func (s *Scheduler) UpcomingShows(at time.Time, horizon time.Duration) []Show {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := at.Add(horizon)
	var out []Show
	for _, show := range s.shows {
		if !show.StartTime.Before(at) && show.StartTime.Before(cutoff) {
			out = append(out, show)
		}
	}
	return out
}

// ShowSummary is the wire shape for one upcoming show.
type ShowSummary struct {
	Name  string    `json:"name"`
	Host  string    `json:"host,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Summary describes the schedule state at an instant.
type Summary struct {
	Daypart        string        `json:"daypart"`
	ActiveClock    string        `json:"active_clock"`
	ActiveShow     string        `json:"active_show,omitempty"`
	CurrentSegment string        `json:"current_segment"`
	NextSegment    string        `json:"next_segment"`
	NextSegmentAt  int           `json:"next_segment_at"`
	UpcomingShows  []ShowSummary `json:"upcoming_shows"`
}

// Summarize reports the active clock, current and next slots, and shows
// starting in the next six hours.
func (s *Scheduler) Summarize(at time.Time) Summary {
	active := s.ResolveActiveClock(at)
	current := active.SlotAt(at.Minute())
	next := active.NextSlotAfter(at.Minute())

	summary := Summary{
		Daypart:        string(clock.DaypartOf(at)),
		ActiveClock:    active.Name(),
		CurrentSegment: string(current.Type),
		NextSegment:    string(next.Type),
		NextSegmentAt:  next.MinuteOfHour,
	}
	if show, ok := s.ActiveShow(at); ok {
		summary.ActiveShow = show.Name
	}
	for _, show := range s.UpcomingShows(at, 6*time.Hour) {
		summary.UpcomingShows = append(summary.UpcomingShows, ShowSummary{
			Name:  show.Name,
			Host:  show.Host,
			Start: show.StartTime,
			End:   show.EndTime(),
		})
	}
	return summary
}
