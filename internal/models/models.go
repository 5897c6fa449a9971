/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package models holds the persisted schema for the music library and the
// play log.
package models

import "time"

// AnalysisState tracks ingest analyzer progress.
type AnalysisState string

const (
	AnalysisPending  AnalysisState = "pending"
	AnalysisRunning  AnalysisState = "running"
	AnalysisComplete AnalysisState = "complete"
	AnalysisFailed   AnalysisState = "failed"
)

// MediaItem is an audio asset with rotation metadata. Only items whose
// analysis is complete are eligible for selection.
type MediaItem struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	Title         string `gorm:"index"`
	Artist        string `gorm:"index"`
	Album         string `gorm:"index"`
	Duration      time.Duration
	Path          string
	Category      string        `gorm:"type:varchar(16);index"`
	IntroLeadIn   time.Duration // instrumental ramp before the vocal
	AnalysisState AnalysisState `gorm:"type:varchar(32)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PlayLog records one committed play for audit and cross-restart history.
type PlayLog struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	MediaItemID string `gorm:"type:uuid;index"`
	Title       string
	Artist      string `gorm:"index"`
	Album       string
	PlayedAt    time.Time `gorm:"index"`
	Degraded    bool
	CreatedAt   time.Time
}
