/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package clock models station hour clocks: minute-by-minute templates of
// what segment type should air across a broadcast hour.
package clock

import (
	"fmt"
	"time"
)

// SegmentType enumerates broadcast segment kinds.
type SegmentType string

const (
	SegmentMusic     SegmentType = "music"
	SegmentVoice     SegmentType = "voice"
	SegmentStationID SegmentType = "station_id"
	SegmentWeather   SegmentType = "weather"
	SegmentNews      SegmentType = "news"
	SegmentAdBreak   SegmentType = "ad_break"
	SegmentJingle    SegmentType = "jingle"
	SegmentSweeper   SegmentType = "sweeper"
	SegmentShowIntro SegmentType = "show_intro"
	SegmentShowOutro SegmentType = "show_outro"
)

// Daypart names a segment of the broadcast day.
type Daypart string

const (
	DaypartOvernight Daypart = "overnight"
	DaypartMorning   Daypart = "morning"
	DaypartMidday    Daypart = "midday"
	DaypartAfternoon Daypart = "afternoon"
	DaypartEvening   Daypart = "evening"
)

// Dayparts lists all dayparts in broadcast-day order.
var Dayparts = []Daypart{
	DaypartOvernight,
	DaypartMorning,
	DaypartMidday,
	DaypartAfternoon,
	DaypartEvening,
}

// DaypartOf maps an instant to its daypart by local hour of day.
func DaypartOf(t time.Time) Daypart {
	switch hour := t.Hour(); {
	case hour < 6:
		return DaypartOvernight
	case hour < 10:
		return DaypartMorning
	case hour < 15:
		return DaypartMidday
	case hour < 19:
		return DaypartAfternoon
	default:
		return DaypartEvening
	}
}

// Slot is one entry in an hour clock template.
type Slot struct {
	Type         SegmentType
	Duration     time.Duration
	MinuteOfHour int
	ContentRef   string
}

// HourClock is a named, read-only slot template tagged with a daypart. Build
// one via New and treat it as immutable afterwards; edits mean constructing a
// replacement.
type HourClock struct {
	name    string
	daypart Daypart
	slots   []Slot
}

// New validates the slot list and returns a clock with slots sorted by minute.
func New(name string, daypart Daypart, slots []Slot) (*HourClock, error) {
	if name == "" {
		return nil, fmt.Errorf("clock: name is required")
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("clock %q: at least one slot is required", name)
	}

	sorted := make([]Slot, len(slots))
	copy(sorted, slots)
	for _, slot := range sorted {
		if slot.MinuteOfHour < 0 || slot.MinuteOfHour > 59 {
			return nil, fmt.Errorf("clock %q: slot minute %d out of range", name, slot.MinuteOfHour)
		}
		if slot.Duration <= 0 {
			return nil, fmt.Errorf("clock %q: slot at minute %d has non-positive duration", name, slot.MinuteOfHour)
		}
		if slot.Type == "" {
			return nil, fmt.Errorf("clock %q: slot at minute %d has no segment type", name, slot.MinuteOfHour)
		}
	}
	sortSlots(sorted)

	return &HourClock{name: name, daypart: daypart, slots: sorted}, nil
}

func sortSlots(slots []Slot) {
	// Insertion sort keeps equal-minute slots in declaration order.
	for i := 1; i < len(slots); i++ {
		for j := i; j > 0 && slots[j].MinuteOfHour < slots[j-1].MinuteOfHour; j-- {
			slots[j], slots[j-1] = slots[j-1], slots[j]
		}
	}
}

// Name returns the clock's display name.
func (c *HourClock) Name() string { return c.name }

// Daypart returns the daypart the clock is tagged with.
func (c *HourClock) Daypart() Daypart { return c.daypart }

// Slots returns a copy of the slot template in minute order.
func (c *HourClock) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// SlotAt returns the slot with the greatest minute not after the given
// minute. Minutes before the earliest slot wrap to the last slot, which
// represents the tail of the previous hour still playing out.
func (c *HourClock) SlotAt(minute int) Slot {
	for i := len(c.slots) - 1; i >= 0; i-- {
		if c.slots[i].MinuteOfHour <= minute {
			return c.slots[i]
		}
	}
	return c.slots[len(c.slots)-1]
}

// NextSlotAfter returns the first slot strictly after the given minute,
// wrapping to the first slot of the next hour when none remains.
func (c *HourClock) NextSlotAfter(minute int) Slot {
	for _, slot := range c.slots {
		if slot.MinuteOfHour > minute {
			return slot
		}
	}
	return c.slots[0]
}
