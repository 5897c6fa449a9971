/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package assembler builds hour blocks: it walks the active clock's segment
// plan, fills music segments from the rotation engine, and merges in voice
// and spot content from external collaborators.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airloom/airloom/internal/clock"
	"github.com/airloom/airloom/internal/events"
	"github.com/airloom/airloom/internal/rotation"
	"github.com/airloom/airloom/internal/schedule"
	"github.com/airloom/airloom/internal/telemetry"
)

// An hour is considered filled once appended items cover this much of it.
const minHourFill = 55 * time.Minute

// Intros shorter than this are not worth overlaying a voice ramp onto.
const minOverlayLeadIn = 5 * time.Second

// CandidateSource supplies the music pool for an hour.
type CandidateSource interface {
	ListCandidates(ctx context.Context) ([]rotation.Track, error)
}

// ContentGenerator produces script text for a segment.
type ContentGenerator interface {
	GenerateText(ctx context.Context, segment clock.SegmentType, at time.Time) (string, error)
}

// VoiceItem is a rendered voice asset with a known duration.
type VoiceItem struct {
	AudioRef string
	Duration time.Duration
}

// VoiceSynthesizer renders text to audio. maxDuration of zero means
// unconstrained.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, text string, maxDuration time.Duration) (VoiceItem, error)
}

// AudioMixer overlays a voice asset onto a track's instrumental intro.
type AudioMixer interface {
	OverlayOnIntro(ctx context.Context, voiceRef, trackRef string, leadIn time.Duration) (string, error)
}

// PlayRecorder persists committed plays. Optional.
type PlayRecorder interface {
	LogPlay(ctx context.Context, track rotation.Track, playedAt time.Time, degraded bool) error
}

// PlanItem is one entry in an hour block.
type PlanItem struct {
	ItemRef     string            `json:"item_ref"`
	Kind        clock.SegmentType `json:"kind"`
	Title       string            `json:"title,omitempty"`
	Artist      string            `json:"artist,omitempty"`
	StartOffset time.Duration     `json:"start_offset"`
	Duration    time.Duration     `json:"duration"`
}

// DegradedItem notes a plan entry that was skipped or downgraded.
type DegradedItem struct {
	Segment clock.SegmentType `json:"segment"`
	Reason  string            `json:"reason"`
}

// HourBlockPlan is the ordered output for one hour.
type HourBlockPlan struct {
	HourStart time.Time      `json:"hour_start"`
	ClockName string         `json:"clock_name"`
	Items     []PlanItem     `json:"items"`
	Elapsed   time.Duration  `json:"elapsed"`
	Degraded  []DegradedItem `json:"degraded,omitempty"`
}

// Assembler orchestrates hour-block construction. Collaborator failures are
// absorbed per item; only a missing candidate source is fatal at build time.
type Assembler struct {
	engine    *rotation.Engine
	scheduler *schedule.Scheduler
	source    CandidateSource
	content   ContentGenerator
	voice     VoiceSynthesizer
	mixer     AudioMixer
	recorder  PlayRecorder
	bus       *events.Bus
	logger    zerolog.Logger
}

// Option customizes an assembler.
type Option func(*Assembler)

// WithContent installs the script text collaborator.
func WithContent(c ContentGenerator) Option { return func(a *Assembler) { a.content = c } }

// WithVoice installs the speech synthesis collaborator.
func WithVoice(v VoiceSynthesizer) Option { return func(a *Assembler) { a.voice = v } }

// WithMixer installs the audio mixing collaborator.
func WithMixer(m AudioMixer) Option { return func(a *Assembler) { a.mixer = m } }

// WithRecorder installs the play log sink.
func WithRecorder(r PlayRecorder) Option { return func(a *Assembler) { a.recorder = r } }

// WithBus installs the event bus.
func WithBus(b *events.Bus) Option { return func(a *Assembler) { a.bus = b } }

// New builds an assembler. The engine, scheduler, and candidate source are
// required.
func New(engine *rotation.Engine, scheduler *schedule.Scheduler, source CandidateSource, logger zerolog.Logger, opts ...Option) (*Assembler, error) {
	if engine == nil {
		return nil, fmt.Errorf("assembler: rotation engine is required")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("assembler: scheduler is required")
	}
	if source == nil {
		return nil, fmt.Errorf("assembler: candidate source is required")
	}
	a := &Assembler{
		engine:    engine,
		scheduler: scheduler,
		source:    source,
		logger:    logger.With().Str("component", "assembler").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// voiceResult carries one prefetched voice item, indexed by slot position.
type voiceResult struct {
	item VoiceItem
	text string
	err  error
}

// AssembleHour builds the plan for the hour starting at hourStart. The plan
// is always returned; when the context is cancelled mid-build the partial
// plan comes back together with the context error.
func (a *Assembler) AssembleHour(ctx context.Context, hourStart time.Time) (HourBlockPlan, error) {
	started := time.Now()
	defer func() {
		telemetry.HourAssemblyDuration.Observe(time.Since(started).Seconds())
	}()

	ctx, span := telemetry.StartSpan(ctx, "assembler", "AssembleHour")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{"hour_start": hourStart.Format(time.RFC3339)})

	activeClock := a.scheduler.ResolveActiveClock(hourStart)
	slots := activeClock.Slots()

	plan := HourBlockPlan{HourStart: hourStart, ClockName: activeClock.Name()}

	pool, err := a.source.ListCandidates(ctx)
	if err != nil {
		telemetry.CollaboratorFailuresTotal.WithLabelValues("candidate_source").Inc()
		a.logger.Error().Err(err).Msg("candidate listing failed, hour will carry no music")
		plan.Degraded = append(plan.Degraded, DegradedItem{Segment: clock.SegmentMusic, Reason: "candidate_source_unavailable"})
		pool = nil
	}

	// Voice rendering is independent of rotation history, so all spoken
	// segments are prefetched concurrently and joined back in slot order.
	prefetched := a.prefetchVoice(ctx, slots, hourStart)

	cursor := time.Duration(0)
	exhaustedStreak := 0

	for idx, slot := range slots {
		if err := ctx.Err(); err != nil {
			plan.Elapsed = cursor
			return plan, err
		}

		if slot.Type == clock.SegmentMusic {
			added, ok := a.appendMusic(ctx, &plan, pool, hourStart, cursor)
			if !ok {
				exhaustedStreak++
				continue
			}
			exhaustedStreak = 0
			cursor += added
			continue
		}

		result, ok := prefetched[idx]
		if !ok || result.err != nil {
			plan.Degraded = append(plan.Degraded, DegradedItem{Segment: slot.Type, Reason: "voice_unavailable"})
			telemetry.DegradedItemsTotal.WithLabelValues("voice_unavailable").Inc()
			continue
		}

		plan.Items = append(plan.Items, PlanItem{
			ItemRef:     result.item.AudioRef,
			Kind:        slot.Type,
			Title:       result.text,
			StartOffset: cursor,
			Duration:    result.item.Duration,
		})
		telemetry.AssembledItemsTotal.WithLabelValues(string(slot.Type)).Inc()
		cursor += result.item.Duration
	}

	// Fixed slots rarely sum to a full hour; top up with music until the
	// fill threshold or the pool runs dry twice in a row.
	for cursor < minHourFill && exhaustedStreak < 2 {
		if err := ctx.Err(); err != nil {
			plan.Elapsed = cursor
			return plan, err
		}
		added, ok := a.appendMusic(ctx, &plan, pool, hourStart, cursor)
		if !ok {
			exhaustedStreak++
			continue
		}
		exhaustedStreak = 0
		cursor += added
	}

	plan.Elapsed = cursor

	a.logger.Info().
		Time("hour_start", hourStart).
		Str("clock", plan.ClockName).
		Int("items", len(plan.Items)).
		Int("degraded", len(plan.Degraded)).
		Dur("elapsed", cursor).
		Msg("hour block assembled")

	if a.bus != nil {
		a.bus.Publish(events.EventHourAssembled, events.Payload{
			"hour_start": hourStart,
			"clock":      plan.ClockName,
			"items":      len(plan.Items),
			"elapsed":    cursor,
		})
		if len(plan.Degraded) > 0 {
			a.bus.Publish(events.EventHourDegraded, events.Payload{
				"hour_start": hourStart,
				"degraded":   len(plan.Degraded),
			})
		}
	}

	return plan, nil
}

// AssembleRange builds consecutive hour blocks in strict hour order; the
// shared rotation history makes cross-hour separation windows effective.
func (a *Assembler) AssembleRange(ctx context.Context, start time.Time, hours int) ([]HourBlockPlan, error) {
	plans := make([]HourBlockPlan, 0, hours)
	for i := 0; i < hours; i++ {
		plan, err := a.AssembleHour(ctx, start.Add(time.Duration(i)*time.Hour))
		if len(plan.Items) > 0 || err == nil {
			plans = append(plans, plan)
		}
		if err != nil {
			return plans, err
		}
	}
	return plans, nil
}

// appendMusic selects, commits, and appends one track, plus its spoken intro
// ramp when one applies. Returns the total plan time appended; a false return
// means the pool was exhausted and nothing was appended, so the cursor must
// not advance.
func (a *Assembler) appendMusic(ctx context.Context, plan *HourBlockPlan, pool []rotation.Track, hourStart time.Time, cursor time.Duration) (time.Duration, bool) {
	if len(pool) == 0 {
		plan.Degraded = append(plan.Degraded, DegradedItem{Segment: clock.SegmentMusic, Reason: "empty_pool"})
		telemetry.DegradedItemsTotal.WithLabelValues("empty_pool").Inc()
		return 0, false
	}

	at := hourStart.Add(cursor)
	track, degraded, err := a.engine.SelectTrack(pool, at, true)
	if errors.Is(err, rotation.ErrExhausted) {
		plan.Degraded = append(plan.Degraded, DegradedItem{Segment: clock.SegmentMusic, Reason: "pool_exhausted"})
		telemetry.DegradedItemsTotal.WithLabelValues("pool_exhausted").Inc()
		if a.bus != nil {
			a.bus.Publish(events.EventSelectionExhausted, events.Payload{"at": at})
		}
		return 0, false
	}
	if err != nil {
		plan.Degraded = append(plan.Degraded, DegradedItem{Segment: clock.SegmentMusic, Reason: "selection_failed"})
		return 0, false
	}

	a.engine.RecordPlay(track, at)
	if a.recorder != nil {
		if logErr := a.recorder.LogPlay(ctx, track, at, degraded); logErr != nil {
			a.logger.Warn().Err(logErr).Str("track_id", track.ID).Msg("play log write failed")
		}
	}

	added := time.Duration(0)
	item := PlanItem{
		ItemRef:     track.ID,
		Kind:        clock.SegmentMusic,
		Title:       track.Title,
		Artist:      track.Artist,
		StartOffset: cursor,
		Duration:    track.Duration,
	}

	// Best effort: a short spoken ramp rides the track's instrumental
	// intro. When mixing is unavailable or fails, the ramp instead airs
	// sequentially, just ahead of the track.
	if voice, text, ok := a.introRamp(ctx, track, at); ok {
		if mixed, mixedOK := a.mixIntro(ctx, voice, track); mixedOK {
			item.ItemRef = mixed
		} else {
			plan.Items = append(plan.Items, PlanItem{
				ItemRef:     voice.AudioRef,
				Kind:        clock.SegmentVoice,
				Title:       text,
				StartOffset: cursor,
				Duration:    voice.Duration,
			})
			telemetry.AssembledItemsTotal.WithLabelValues(string(clock.SegmentVoice)).Inc()
			added += voice.Duration
			item.StartOffset = cursor + added
		}
	}

	plan.Items = append(plan.Items, item)
	telemetry.AssembledItemsTotal.WithLabelValues(string(clock.SegmentMusic)).Inc()
	added += track.Duration
	return added, true
}

// introRamp renders the spoken ramp for a track's intro, constrained to its
// lead-in. A false return means no ramp applies: missing collaborators, a
// too-short lead-in, or a generation failure.
func (a *Assembler) introRamp(ctx context.Context, track rotation.Track, at time.Time) (VoiceItem, string, bool) {
	if a.content == nil || a.voice == nil {
		return VoiceItem{}, "", false
	}
	if track.IntroLeadIn < minOverlayLeadIn {
		return VoiceItem{}, "", false
	}

	text, err := a.content.GenerateText(ctx, clock.SegmentMusic, at)
	if err != nil {
		telemetry.CollaboratorFailuresTotal.WithLabelValues("content").Inc()
		return VoiceItem{}, "", false
	}
	voice, err := a.voice.Synthesize(ctx, text, track.IntroLeadIn)
	if err != nil {
		telemetry.CollaboratorFailuresTotal.WithLabelValues("voice").Inc()
		return VoiceItem{}, "", false
	}
	if voice.Duration > track.IntroLeadIn {
		return VoiceItem{}, "", false
	}
	return voice, text, true
}

// mixIntro overlays the ramp onto the track intro. A false return sends the
// ramp down the sequential voice-then-track path instead.
func (a *Assembler) mixIntro(ctx context.Context, voice VoiceItem, track rotation.Track) (string, bool) {
	if a.mixer == nil {
		return "", false
	}
	mixed, err := a.mixer.OverlayOnIntro(ctx, voice.AudioRef, track.ID, track.IntroLeadIn)
	if err != nil {
		telemetry.CollaboratorFailuresTotal.WithLabelValues("mixer").Inc()
		a.logger.Debug().Err(err).Str("track_id", track.ID).Msg("intro overlay failed, airing ramp before track")
		return "", false
	}
	return mixed, true
}

// prefetchVoice renders every spoken segment concurrently and returns the
// results keyed by slot index.
func (a *Assembler) prefetchVoice(ctx context.Context, slots []clock.Slot, hourStart time.Time) map[int]voiceResult {
	results := make(map[int]voiceResult)
	if a.content == nil || a.voice == nil {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for idx, slot := range slots {
		if slot.Type == clock.SegmentMusic {
			continue
		}
		wg.Add(1)
		go func(idx int, slot clock.Slot) {
			defer wg.Done()
			res := a.renderVoice(ctx, slot, hourStart)
			mu.Lock()
			results[idx] = res
			mu.Unlock()
		}(idx, slot)
	}
	wg.Wait()
	return results
}

func (a *Assembler) renderVoice(ctx context.Context, slot clock.Slot, hourStart time.Time) voiceResult {
	text, err := a.content.GenerateText(ctx, slot.Type, hourStart)
	if err != nil {
		telemetry.CollaboratorFailuresTotal.WithLabelValues("content").Inc()
		return voiceResult{err: err}
	}
	item, err := a.voice.Synthesize(ctx, text, slot.Duration)
	if err != nil {
		telemetry.CollaboratorFailuresTotal.WithLabelValues("voice").Inc()
		return voiceResult{err: err}
	}
	return voiceResult{item: item, text: text}
}
