/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rotation picks the next music track from a candidate pool while
// honoring separation and performance-rights rules against a rolling play
// history.
package rotation

import (
	"strings"
	"time"
)

// Rotation category tiers.
const (
	CategoryHot    = "hot"
	CategoryNormal = "normal"
	CategoryGold   = "gold"
)

// Track is a playable music item. Immutable once created; ID is the stable
// identity compared across calls.
type Track struct {
	ID          string
	Title       string
	Artist      string
	Album       string
	Duration    time.Duration
	Category    string
	IntroLeadIn time.Duration // instrumental ramp before the vocal starts; zero when unknown
}

// SameIdentity reports whether two tracks are the same playable item.
func (t Track) SameIdentity(other Track) bool {
	return t.ID == other.ID
}

// SameTitle matches titles case-insensitively.
func (t Track) SameTitle(other Track) bool {
	return strings.EqualFold(t.Title, other.Title)
}

// SameArtist matches artists case-insensitively.
func (t Track) SameArtist(other Track) bool {
	return strings.EqualFold(t.Artist, other.Artist)
}
