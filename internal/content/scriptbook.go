/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package content produces script text for spoken segments from stock
// templates. It stands in wherever a generative text collaborator is not
// wired, and serves as the fallback when one fails.
package content

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/airloom/airloom/internal/clock"
)

// ScriptBook picks a template line for each spoken segment type.
type ScriptBook struct {
	mu          sync.Mutex
	rng         *rand.Rand
	stationName string
}

// NewScriptBook builds a template generator for the station.
func NewScriptBook(stationName string) *ScriptBook {
	if stationName == "" {
		stationName = "the station"
	}
	return &ScriptBook{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		stationName: stationName,
	}
}

// Seed fixes template choice for reproducible runs.
func (s *ScriptBook) Seed(seed int64) {
	s.mu.Lock()
	s.rng = rand.New(rand.NewSource(seed))
	s.mu.Unlock()
}

var templates = map[clock.SegmentType][]string{
	clock.SegmentStationID: {
		"You're locked in to {station}.",
		"{station}, all day, every day.",
		"This is {station}.",
	},
	clock.SegmentVoice: {
		"The {daypart} vibes continue right here on {station}.",
		"More music coming your way, only on {station}.",
		"You picked the right place for your {daypart}. Stay with us.",
	},
	clock.SegmentWeather: {
		"Quick weather check, then straight back to the music.",
		"Here's what it looks like outside right now.",
		"Your {daypart} forecast, coming up.",
	},
	clock.SegmentNews: {
		"Here's what's happening right now.",
		"Top stories this hour.",
	},
	clock.SegmentAdBreak: {
		"We'll be right back after this.",
		"A quick word from the people who keep the lights on.",
	},
	clock.SegmentJingle: {
		"{station}!",
	},
	clock.SegmentSweeper: {
		"{station}. More music, less talk.",
		"Back to back hits on {station}.",
	},
	clock.SegmentShowIntro: {
		"Welcome to the show. Great to have you along this {daypart}.",
		"It's that time again. Let's get into it.",
	},
	clock.SegmentShowOutro: {
		"That's all from us this hour. Thanks for listening.",
		"We're out of time. Catch you next time on {station}.",
	},
	clock.SegmentMusic: {
		"Here comes the next one. Turn it up!",
		"New sound, coming right up.",
		"Keep it locked, this one's a favorite.",
	},
}

// GenerateText returns a template line for the segment. It never fails; the
// generic voice lines cover unknown segment types.
func (s *ScriptBook) GenerateText(_ context.Context, segment clock.SegmentType, at time.Time) (string, error) {
	lines, ok := templates[segment]
	if !ok {
		lines = templates[clock.SegmentVoice]
	}

	s.mu.Lock()
	line := lines[s.rng.Intn(len(lines))]
	s.mu.Unlock()

	replacer := strings.NewReplacer(
		"{station}", s.stationName,
		"{daypart}", string(clock.DaypartOf(at)),
	)
	return replacer.Replace(line), nil
}
