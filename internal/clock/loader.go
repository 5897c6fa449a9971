/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package clock

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type clockFile struct {
	Name    string     `yaml:"name"`
	Daypart string     `yaml:"daypart"`
	Slots   []slotFile `yaml:"slots"`
}

type slotFile struct {
	Type            string `yaml:"type"`
	DurationSeconds int    `yaml:"duration_seconds"`
	Minute          int    `yaml:"minute"`
	ContentRef      string `yaml:"content_ref"`
}

// LoadFile parses a single YAML clock definition.
func LoadFile(path string) (*HourClock, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clock file: %w", err)
	}

	var def clockFile
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse clock file %s: %w", path, err)
	}

	daypart, err := parseDaypart(def.Daypart)
	if err != nil {
		return nil, fmt.Errorf("clock file %s: %w", path, err)
	}

	slots := make([]Slot, 0, len(def.Slots))
	for _, s := range def.Slots {
		slots = append(slots, Slot{
			Type:         SegmentType(strings.ToLower(strings.TrimSpace(s.Type))),
			Duration:     time.Duration(s.DurationSeconds) * time.Second,
			MinuteOfHour: s.Minute,
			ContentRef:   s.ContentRef,
		})
	}

	c, err := New(def.Name, daypart, slots)
	if err != nil {
		return nil, fmt.Errorf("clock file %s: %w", path, err)
	}
	return c, nil
}

// LoadDir parses every .yml/.yaml clock file in dir and returns a daypart
// lineup. A later file for the same daypart replaces the earlier one; files
// are visited in name order so the outcome is deterministic.
func LoadDir(dir string) (map[Daypart]*HourClock, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read clock dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	clocks := make(map[Daypart]*HourClock, len(names))
	for _, name := range names {
		c, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		clocks[c.Daypart()] = c
	}
	return clocks, nil
}

func parseDaypart(raw string) (Daypart, error) {
	candidate := Daypart(strings.ToLower(strings.TrimSpace(raw)))
	for _, dp := range Dayparts {
		if dp == candidate {
			return dp, nil
		}
	}
	return "", fmt.Errorf("unknown daypart %q", raw)
}
