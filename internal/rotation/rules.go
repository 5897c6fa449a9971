/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rotation

import (
	"fmt"
	"time"
)

// Rules holds the thresholds applied during track selection. Treat a value as
// read-only after construction; derive a modified copy and validate it rather
// than mutating in place.
type Rules struct {
	ArtistSeparation time.Duration
	TrackSeparation  time.Duration
	TitleSeparation  time.Duration

	// Performance-rights window caps.
	RightsWindow      time.Duration
	MaxArtistInWindow int
	MaxAlbumInWindow  int

	// RelaxRightsOnFallback controls whether degraded selection may ignore
	// the rights-window caps. Deployments with strict webcasting compliance
	// set this false and accept exhaustion instead.
	RelaxRightsOnFallback bool
}

// DefaultRules returns the stock rule set.
func DefaultRules() Rules {
	return Rules{
		ArtistSeparation:      60 * time.Minute,
		TrackSeparation:       240 * time.Minute,
		TitleSeparation:       120 * time.Minute,
		RightsWindow:          3 * time.Hour,
		MaxArtistInWindow:     3,
		MaxAlbumInWindow:      2,
		RelaxRightsOnFallback: true,
	}
}

// Validate fails fast on thresholds no selection pass could honor.
func (r Rules) Validate() error {
	if r.ArtistSeparation < 0 || r.TrackSeparation < 0 || r.TitleSeparation < 0 || r.RightsWindow < 0 {
		return fmt.Errorf("rotation: separation and rights windows must be non-negative")
	}
	if r.MaxArtistInWindow < 1 {
		return fmt.Errorf("rotation: max artist plays per window must be at least 1, got %d", r.MaxArtistInWindow)
	}
	if r.MaxAlbumInWindow < 1 {
		return fmt.Errorf("rotation: max album plays per window must be at least 1, got %d", r.MaxAlbumInWindow)
	}
	if widest := r.widestWindow(); widest > retentionHorizon {
		return fmt.Errorf("rotation: rule window %v exceeds the %v history retention horizon", widest, retentionHorizon)
	}
	return nil
}

func (r Rules) widestWindow() time.Duration {
	widest := r.ArtistSeparation
	for _, d := range []time.Duration{r.TrackSeparation, r.TitleSeparation, r.RightsWindow} {
		if d > widest {
			widest = d
		}
	}
	return widest
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
