/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/airloom/airloom/internal/events"
	"github.com/airloom/airloom/internal/telemetry"
)

// Notifier receives schedule transition callbacks from the watcher.
type Notifier interface {
	ClockChanged(old, next string, at time.Time)
	ShowStarted(show Show, at time.Time)
	ShowEnded(show Show, at time.Time)
}

// Watcher polls the scheduler on a fixed interval and reports clock and show
// transitions. It drives playout in production; the core resolution API works
// without it.
type Watcher struct {
	scheduler *Scheduler
	bus       *events.Bus
	notifier  Notifier
	interval  time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	lastClock string
	lastShow  string
	lastSeen  Show
}

// NewWatcher builds a watcher. The notifier may be nil; bus events are always
// published.
func NewWatcher(scheduler *Scheduler, bus *events.Bus, notifier Notifier, interval time.Duration, logger zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		scheduler: scheduler,
		bus:       bus,
		notifier:  notifier,
		interval:  interval,
		logger:    logger.With().Str("component", "schedule_watcher").Logger(),
		now:       time.Now,
	}
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("schedule watcher started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("schedule watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(w.now())
		}
	}
}

// Tick evaluates schedule state at the instant and emits transitions since
// the previous tick.
func (w *Watcher) Tick(at time.Time) {
	telemetry.WatcherTicksTotal.Inc()

	active := w.scheduler.ResolveActiveClock(at)
	if name := active.Name(); name != w.lastClock {
		if w.lastClock != "" {
			w.logger.Info().Str("from", w.lastClock).Str("to", name).Msg("active clock changed")
			w.bus.Publish(events.EventClockChange, events.Payload{
				"from": w.lastClock,
				"to":   name,
				"at":   at,
			})
			if w.notifier != nil {
				w.notifier.ClockChanged(w.lastClock, name, at)
			}
		}
		w.lastClock = name
	}

	show, ok := w.scheduler.ActiveShow(at)
	switch {
	case ok && show.Name != w.lastShow:
		if w.lastShow != "" {
			w.emitShowEnd(w.lastSeen, at)
		}
		w.logger.Info().Str("show", show.Name).Msg("show started")
		w.bus.Publish(events.EventShowStart, events.Payload{"show": show.Name, "at": at})
		if w.notifier != nil {
			w.notifier.ShowStarted(show, at)
		}
		w.lastShow = show.Name
		w.lastSeen = show
	case !ok && w.lastShow != "":
		w.emitShowEnd(w.lastSeen, at)
		w.lastShow = ""
		w.lastSeen = Show{}
	}
}

func (w *Watcher) emitShowEnd(show Show, at time.Time) {
	w.logger.Info().Str("show", show.Name).Msg("show ended")
	w.bus.Publish(events.EventShowEnd, events.Payload{"show": show.Name, "at": at})
	if w.notifier != nil {
		w.notifier.ShowEnded(show, at)
	}
}
