package assembler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/airloom/airloom/internal/clock"
	"github.com/airloom/airloom/internal/events"
	"github.com/airloom/airloom/internal/rotation"
	"github.com/airloom/airloom/internal/schedule"
)

type stubSource struct {
	tracks []rotation.Track
	err    error
}

func (s *stubSource) ListCandidates(ctx context.Context) ([]rotation.Track, error) {
	return s.tracks, s.err
}

type stubContent struct {
	err error
}

func (s *stubContent) GenerateText(ctx context.Context, segment clock.SegmentType, at time.Time) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "script for " + string(segment), nil
}

type stubVoice struct {
	err      error
	duration time.Duration
}

func (s *stubVoice) Synthesize(ctx context.Context, text string, maxDuration time.Duration) (VoiceItem, error) {
	if s.err != nil {
		return VoiceItem{}, s.err
	}
	dur := s.duration
	if dur == 0 {
		dur = 25 * time.Second
	}
	if maxDuration > 0 && dur > maxDuration {
		dur = maxDuration
	}
	return VoiceItem{AudioRef: "voice:" + text, Duration: dur}, nil
}

type stubMixer struct {
	err   error
	calls int
}

func (s *stubMixer) OverlayOnIntro(ctx context.Context, voiceRef, trackRef string, leadIn time.Duration) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "mixed:" + trackRef, nil
}

type stubRecorder struct {
	plays    []rotation.Track
	degraded []bool
}

func (s *stubRecorder) LogPlay(ctx context.Context, track rotation.Track, playedAt time.Time, degraded bool) error {
	s.plays = append(s.plays, track)
	s.degraded = append(s.degraded, degraded)
	return nil
}

// recordingContent captures the plan times generation is asked for.
type recordingContent struct {
	mu    sync.Mutex
	times []time.Time
}

func (r *recordingContent) GenerateText(ctx context.Context, segment clock.SegmentType, at time.Time) (string, error) {
	r.mu.Lock()
	r.times = append(r.times, at)
	r.mu.Unlock()
	return "script for " + string(segment), nil
}

func bigPool(n int) []rotation.Track {
	pool := make([]rotation.Track, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, rotation.Track{
			ID:       fmt.Sprintf("track-%03d", i),
			Title:    fmt.Sprintf("Song %d", i),
			Artist:   fmt.Sprintf("Artist %d", i),
			Duration: 3 * time.Minute,
			Category: rotation.CategoryNormal,
		})
	}
	return pool
}

func testScheduler() *schedule.Scheduler {
	return schedule.NewScheduler(clock.DefaultClocks(), nil, zerolog.Nop())
}

func testEngine(t *testing.T) *rotation.Engine {
	t.Helper()
	eng, err := rotation.NewEngine(rotation.DefaultRules(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	eng.Seed(7)
	return eng
}

func TestNewRequiresCollaboratorWiring(t *testing.T) {
	eng := testEngine(t)
	sched := testScheduler()
	src := &stubSource{tracks: bigPool(5)}

	if _, err := New(nil, sched, src, zerolog.Nop()); err == nil {
		t.Fatal("expected missing engine to fail")
	}
	if _, err := New(eng, nil, src, zerolog.Nop()); err == nil {
		t.Fatal("expected missing scheduler to fail")
	}
	if _, err := New(eng, sched, nil, zerolog.Nop()); err == nil {
		t.Fatal("expected missing candidate source to fail")
	}
}

func TestAssembleHourFillsToTarget(t *testing.T) {
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: bigPool(60)}, zerolog.Nop(),
		WithContent(&stubContent{}), WithVoice(&stubVoice{}))
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	hourStart := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	plan, err := a.AssembleHour(context.Background(), hourStart)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if plan.Elapsed < 55*time.Minute {
		t.Fatalf("hour underfilled: %v", plan.Elapsed)
	}
	if plan.ClockName != "Midday Mix" {
		t.Fatalf("unexpected clock %q", plan.ClockName)
	}

	hasMusic, hasVoice := false, false
	var cursor time.Duration
	for _, item := range plan.Items {
		if item.StartOffset != cursor {
			t.Fatalf("item %q starts at %v, want %v", item.ItemRef, item.StartOffset, cursor)
		}
		cursor += item.Duration
		switch item.Kind {
		case clock.SegmentMusic:
			hasMusic = true
		case clock.SegmentVoice:
			hasVoice = true
		}
	}
	if !hasMusic {
		t.Fatal("plan contains no music")
	}
	if !hasVoice {
		t.Fatal("plan contains no voice items")
	}
}

func TestAssembleHourRespectsSeparationAcrossPlan(t *testing.T) {
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: bigPool(60)}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	hourStart := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	plan, err := a.AssembleHour(context.Background(), hourStart)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	seen := map[string]bool{}
	for _, item := range plan.Items {
		if item.Kind != clock.SegmentMusic {
			continue
		}
		if seen[item.ItemRef] {
			t.Fatalf("track %q repeated within one hour", item.ItemRef)
		}
		seen[item.ItemRef] = true
	}
}

func TestAssembleHourSurvivesVoiceFailure(t *testing.T) {
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: bigPool(60)}, zerolog.Nop(),
		WithContent(&stubContent{err: errors.New("llm down")}), WithVoice(&stubVoice{}))
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	plan, err := a.AssembleHour(context.Background(), time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	for _, item := range plan.Items {
		if item.Kind != clock.SegmentMusic {
			t.Fatalf("voice item %q appended despite generator failure", item.ItemRef)
		}
	}
	if len(plan.Degraded) == 0 {
		t.Fatal("expected degraded entries for failed voice segments")
	}
	if plan.Elapsed < 55*time.Minute {
		t.Fatalf("music top-up should still fill the hour, got %v", plan.Elapsed)
	}
}

func TestAssembleHourStopsAfterConsecutiveExhaustion(t *testing.T) {
	// Two tracks can never fill an hour; assembly must stop cleanly
	// instead of looping.
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: bigPool(2)}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	plan, err := a.AssembleHour(context.Background(), time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if plan.Elapsed >= 55*time.Minute {
		t.Fatalf("two tracks cannot fill an hour, got %v", plan.Elapsed)
	}
	if len(plan.Degraded) == 0 {
		t.Fatal("expected exhaustion to be reported as degraded entries")
	}
}

func TestAssembleHourEmptyPoolStillReturnsPlan(t *testing.T) {
	a, err := New(testEngine(t), testScheduler(), &stubSource{err: errors.New("db down")}, zerolog.Nop(),
		WithContent(&stubContent{}), WithVoice(&stubVoice{}))
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	plan, err := a.AssembleHour(context.Background(), time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("assemble must absorb a failed candidate listing: %v", err)
	}
	for _, item := range plan.Items {
		if item.Kind == clock.SegmentMusic {
			t.Fatal("music appended with no candidate pool")
		}
	}
}

func TestAssembleHourOverlaysIntro(t *testing.T) {
	pool := bigPool(40)
	for i := range pool {
		pool[i].IntroLeadIn = 12 * time.Second
	}
	mixer := &stubMixer{}
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: pool}, zerolog.Nop(),
		WithContent(&stubContent{}), WithVoice(&stubVoice{duration: 8 * time.Second}), WithMixer(mixer))
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	plan, err := a.AssembleHour(context.Background(), time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if mixer.calls == 0 {
		t.Fatal("expected the mixer to be asked for intro overlays")
	}
	mixedSeen := false
	for _, item := range plan.Items {
		if item.Kind == clock.SegmentMusic && len(item.ItemRef) > 6 && item.ItemRef[:6] == "mixed:" {
			mixedSeen = true
		}
	}
	if !mixedSeen {
		t.Fatal("no mixed track refs in plan")
	}
}

func TestAssembleHourMixerFailureFallsBackToVoiceThenTrack(t *testing.T) {
	pool := bigPool(40)
	for i := range pool {
		pool[i].IntroLeadIn = 12 * time.Second
	}
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: pool}, zerolog.Nop(),
		WithContent(&stubContent{}), WithVoice(&stubVoice{duration: 8 * time.Second}),
		WithMixer(&stubMixer{err: errors.New("render failed")}))
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	plan, err := a.AssembleHour(context.Background(), time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	// Every track carries a usable lead-in, so each one must be preceded
	// by its spoken ramp, airing sequentially since mixing is down.
	musicCount := 0
	for i, item := range plan.Items {
		if item.Kind != clock.SegmentMusic {
			continue
		}
		musicCount++
		if item.ItemRef == "" {
			t.Fatal("track dropped after mixer failure")
		}
		if i == 0 {
			t.Fatal("track placed without its preceding ramp")
		}
		ramp := plan.Items[i-1]
		if ramp.Kind != clock.SegmentVoice {
			t.Fatalf("item before track %q is %q, want a voice ramp", item.ItemRef, ramp.Kind)
		}
		if ramp.StartOffset+ramp.Duration != item.StartOffset {
			t.Fatalf("ramp ends at %v but track %q starts at %v", ramp.StartOffset+ramp.Duration, item.ItemRef, item.StartOffset)
		}
	}
	if musicCount == 0 {
		t.Fatal("expected music despite mixer failures")
	}
}

func TestAssembleHourNoMixerStillPlacesRampBeforeTrack(t *testing.T) {
	pool := bigPool(40)
	for i := range pool {
		pool[i].IntroLeadIn = 12 * time.Second
	}
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: pool}, zerolog.Nop(),
		WithContent(&stubContent{}), WithVoice(&stubVoice{duration: 8 * time.Second}))
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	plan, err := a.AssembleHour(context.Background(), time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	for i, item := range plan.Items {
		if item.Kind != clock.SegmentMusic {
			continue
		}
		if i == 0 || plan.Items[i-1].Kind != clock.SegmentVoice {
			t.Fatalf("track %q has no sequential ramp despite its lead-in", item.ItemRef)
		}
	}
}

func TestAssembleHourRampUsesPlanTime(t *testing.T) {
	pool := bigPool(40)
	for i := range pool {
		pool[i].IntroLeadIn = 12 * time.Second
	}
	content := &recordingContent{}
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: pool}, zerolog.Nop(),
		WithContent(content), WithVoice(&stubVoice{duration: 8 * time.Second}))
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	// A morning hour well away from the test's own wall-clock time.
	hourStart := time.Date(2027, 6, 14, 7, 0, 0, 0, time.UTC)
	if _, err := a.AssembleHour(context.Background(), hourStart); err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if len(content.times) == 0 {
		t.Fatal("expected generation requests")
	}
	for _, at := range content.times {
		if at.Before(hourStart) || !at.Before(hourStart.Add(time.Hour)) {
			t.Fatalf("generation asked for %v, want within the assembled hour starting %v", at, hourStart)
		}
	}
}

func TestAssembleHourRecordsDegradedSelections(t *testing.T) {
	// A single-artist pool forces every pick after the first through the
	// relaxed pass.
	pool := bigPool(30)
	for i := range pool {
		pool[i].Artist = "House Band"
	}
	rec := &stubRecorder{}
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: pool}, zerolog.Nop(),
		WithRecorder(rec))
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	if _, err := a.AssembleHour(context.Background(), time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if len(rec.degraded) < 2 {
		t.Fatalf("expected multiple logged plays, got %d", len(rec.degraded))
	}
	if rec.degraded[0] {
		t.Fatal("first play on a clean history logged as degraded")
	}
	sawDegraded := false
	for _, d := range rec.degraded[1:] {
		if d {
			sawDegraded = true
		}
	}
	if !sawDegraded {
		t.Fatal("relaxed-pass plays never logged as degraded")
	}
}

func TestAssembleHourCancellation(t *testing.T) {
	a, err := New(testEngine(t), testScheduler(), &stubSource{tracks: bigPool(60)}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan, err := a.AssembleHour(ctx, time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if plan.Elapsed != 0 {
		t.Fatalf("cancelled before any step, got elapsed %v", plan.Elapsed)
	}
}

func TestAssembleRangeSharesHistory(t *testing.T) {
	eng := testEngine(t)
	recorder := &stubRecorder{}
	a, err := New(eng, testScheduler(), &stubSource{tracks: bigPool(120)}, zerolog.Nop(),
		WithRecorder(recorder), WithBus(events.NewBus()))
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	plans, err := a.AssembleRange(context.Background(), start, 3)
	if err != nil {
		t.Fatalf("assemble range: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}
	for i, plan := range plans {
		want := start.Add(time.Duration(i) * time.Hour)
		if !plan.HourStart.Equal(want) {
			t.Fatalf("plan %d starts %v, want %v", i, plan.HourStart, want)
		}
	}
	if len(recorder.plays) == 0 {
		t.Fatal("expected committed plays to reach the recorder")
	}
	if eng.HistoryLen() != len(recorder.plays) {
		t.Fatalf("engine history %d does not match recorded plays %d", eng.HistoryLen(), len(recorder.plays))
	}
}
