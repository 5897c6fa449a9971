/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/airloom/airloom/internal/assembler"
)

// Speech pacing assumed by the estimator: 150 words per minute.
const wordsPerSecond = 2.5

// SpeechEstimator is a voice synthesizer stand-in that derives spoken
// duration from word count instead of rendering audio. Useful for planning
// runs and tests where no TTS backend is wired.
type SpeechEstimator struct{}

// NewSpeechEstimator returns a word-count based synthesizer.
func NewSpeechEstimator() *SpeechEstimator {
	return &SpeechEstimator{}
}

// MaxWords returns how many words fit in the given spoken duration.
func MaxWords(d time.Duration) int {
	return int(d.Seconds() * wordsPerSecond)
}

// EstimateDuration predicts how long the text takes to speak.
func EstimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return time.Duration(float64(words)/wordsPerSecond*1000) * time.Millisecond
}

// Synthesize returns a reference item whose duration is estimated from the
// text. Text that cannot fit the duration bound is truncated to it.
func (s *SpeechEstimator) Synthesize(_ context.Context, text string, maxDuration time.Duration) (assembler.VoiceItem, error) {
	if strings.TrimSpace(text) == "" {
		return assembler.VoiceItem{}, fmt.Errorf("content: empty script text")
	}

	duration := EstimateDuration(text)
	if maxDuration > 0 && duration > maxDuration {
		duration = maxDuration
	}

	return assembler.VoiceItem{
		AudioRef: "speech:" + uuid.NewString(),
		Duration: duration,
	}, nil
}
