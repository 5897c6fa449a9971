/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package clock

import "time"

// MusicHeavy builds a music-forward clock with short talk breaks at the
// familiar quarter-hour marks.
func MusicHeavy(name string, daypart Daypart) *HourClock {
	c, err := New(name, daypart, []Slot{
		{Type: SegmentStationID, Duration: 10 * time.Second, MinuteOfHour: 0},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 1},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 4},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 7},
		{Type: SegmentVoice, Duration: 30 * time.Second, MinuteOfHour: 10},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 11},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 14},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 17},
		{Type: SegmentSweeper, Duration: 15 * time.Second, MinuteOfHour: 20},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 21},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 24},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 27},
		{Type: SegmentAdBreak, Duration: 2 * time.Minute, MinuteOfHour: 30},
		{Type: SegmentJingle, Duration: 10 * time.Second, MinuteOfHour: 32},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 33},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 36},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 39},
		{Type: SegmentVoice, Duration: 30 * time.Second, MinuteOfHour: 42},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 43},
		{Type: SegmentWeather, Duration: 30 * time.Second, MinuteOfHour: 45},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 46},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 49},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 52},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 55},
		{Type: SegmentSweeper, Duration: 15 * time.Second, MinuteOfHour: 58},
	})
	if err != nil {
		// The preset layout is fixed; a construction failure is a bug.
		panic(err)
	}
	return c
}

// TalkRadio builds a talk-forward clock with long voice blocks and a single
// ad break at the bottom of the hour.
func TalkRadio(name string, daypart Daypart) *HourClock {
	c, err := New(name, daypart, []Slot{
		{Type: SegmentStationID, Duration: 10 * time.Second, MinuteOfHour: 0},
		{Type: SegmentShowIntro, Duration: time.Minute, MinuteOfHour: 1},
		{Type: SegmentVoice, Duration: 8 * time.Minute, MinuteOfHour: 2},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 10},
		{Type: SegmentVoice, Duration: 8 * time.Minute, MinuteOfHour: 13},
		{Type: SegmentWeather, Duration: time.Minute, MinuteOfHour: 21},
		{Type: SegmentVoice, Duration: 7 * time.Minute, MinuteOfHour: 22},
		{Type: SegmentAdBreak, Duration: 3 * time.Minute, MinuteOfHour: 30},
		{Type: SegmentVoice, Duration: 10 * time.Minute, MinuteOfHour: 33},
		{Type: SegmentMusic, Duration: 3 * time.Minute, MinuteOfHour: 43},
		{Type: SegmentNews, Duration: 2 * time.Minute, MinuteOfHour: 46},
		{Type: SegmentVoice, Duration: 7 * time.Minute, MinuteOfHour: 48},
		{Type: SegmentShowOutro, Duration: time.Minute, MinuteOfHour: 55},
		{Type: SegmentSweeper, Duration: 15 * time.Second, MinuteOfHour: 56},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultClocks returns the stock daypart lineup: talk in morning drive,
// music everywhere else.
func DefaultClocks() map[Daypart]*HourClock {
	return map[Daypart]*HourClock{
		DaypartOvernight: MusicHeavy("Overnight", DaypartOvernight),
		DaypartMorning:   TalkRadio("Morning Drive", DaypartMorning),
		DaypartMidday:    MusicHeavy("Midday Mix", DaypartMidday),
		DaypartAfternoon: MusicHeavy("Afternoon Drive", DaypartAfternoon),
		DaypartEvening:   MusicHeavy("Evening Vibes", DaypartEvening),
	}
}
