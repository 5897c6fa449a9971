package schedule

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/airloom/airloom/internal/clock"
	"github.com/airloom/airloom/internal/events"
)

func newTestScheduler() *Scheduler {
	return NewScheduler(clock.DefaultClocks(), nil, zerolog.Nop())
}

func TestResolveActiveClockByDaypart(t *testing.T) {
	s := newTestScheduler()

	morning := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	if got := s.ResolveActiveClock(morning); got.Name() != "Morning Drive" {
		t.Fatalf("07:00 resolved to %q, want Morning Drive", got.Name())
	}

	overnight := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	if got := s.ResolveActiveClock(overnight); got.Name() != "Overnight" {
		t.Fatalf("03:00 resolved to %q, want Overnight", got.Name())
	}
}

func TestResolveActiveClockFallsBackToDefault(t *testing.T) {
	def := clock.MusicHeavy("Fallback", clock.DaypartOvernight)
	s := NewScheduler(nil, def, zerolog.Nop())

	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := s.ResolveActiveClock(at); got.Name() != "Fallback" {
		t.Fatalf("empty lineup resolved to %q, want Fallback", got.Name())
	}
}

func TestShowOverridesDaypartClock(t *testing.T) {
	s := newTestScheduler()

	special := clock.TalkRadio("Election Special", clock.DaypartEvening)
	start := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	s.ScheduleShow(Show{Name: "Election Special", Host: "Dana", StartTime: start, Duration: 2 * time.Hour, Clock: special})

	during := start.Add(30 * time.Minute)
	if got := s.ResolveActiveClock(during); got.Name() != "Election Special" {
		t.Fatalf("during show resolved to %q, want the show clock", got.Name())
	}

	after := start.Add(2 * time.Hour)
	if got := s.ResolveActiveClock(after); got.Name() == "Election Special" {
		t.Fatal("expired show still resolving")
	}
}

func TestOverlappingShowsEarliestWins(t *testing.T) {
	s := newTestScheduler()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first := clock.TalkRadio("First", clock.DaypartMorning)
	second := clock.TalkRadio("Second", clock.DaypartMorning)
	// Scheduled out of order; the list is kept sorted by start time.
	s.ScheduleShow(Show{Name: "Second", StartTime: base.Add(30 * time.Minute), Duration: 2 * time.Hour, Clock: second})
	s.ScheduleShow(Show{Name: "First", StartTime: base, Duration: 2 * time.Hour, Clock: first})

	at := base.Add(time.Hour)
	if got := s.ResolveActiveClock(at); got.Name() != "First" {
		t.Fatalf("overlap resolved to %q, want the earliest show", got.Name())
	}
}

func TestRemoveShow(t *testing.T) {
	s := newTestScheduler()
	start := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	c := clock.MusicHeavy("Late Night", clock.DaypartEvening)
	s.ScheduleShow(Show{Name: "Late Night", StartTime: start, Duration: time.Hour, Clock: c})

	if !s.RemoveShow("Late Night") {
		t.Fatal("expected removal to report success")
	}
	if s.RemoveShow("Late Night") {
		t.Fatal("expected second removal to report nothing removed")
	}
	if got := s.ResolveActiveClock(start.Add(10 * time.Minute)); got.Name() == "Late Night" {
		t.Fatal("removed show still resolving")
	}
}

func TestUpcomingShows(t *testing.T) {
	s := newTestScheduler()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	c := clock.MusicHeavy("Any", clock.DaypartMidday)

	s.ScheduleShow(Show{Name: "Soon", StartTime: now.Add(2 * time.Hour), Duration: time.Hour, Clock: c})
	s.ScheduleShow(Show{Name: "Later", StartTime: now.Add(30 * time.Hour), Duration: time.Hour, Clock: c})
	s.ScheduleShow(Show{Name: "Past", StartTime: now.Add(-2 * time.Hour), Duration: time.Hour, Clock: c})

	upcoming := s.UpcomingShows(now, 24*time.Hour)
	if len(upcoming) != 1 || upcoming[0].Name != "Soon" {
		t.Fatalf("unexpected upcoming shows: %+v", upcoming)
	}
}

func TestSummarize(t *testing.T) {
	s := newTestScheduler()
	at := time.Date(2026, 3, 10, 12, 22, 0, 0, time.UTC)

	summary := s.Summarize(at)
	if summary.Daypart != string(clock.DaypartMidday) {
		t.Errorf("unexpected daypart %q", summary.Daypart)
	}
	if summary.ActiveClock != "Midday Mix" {
		t.Errorf("unexpected active clock %q", summary.ActiveClock)
	}
	if summary.CurrentSegment == "" || summary.NextSegment == "" {
		t.Error("expected current and next segments to be populated")
	}
}

type recordingNotifier struct {
	clockChanges []string
	started      []string
	ended        []string
}

func (r *recordingNotifier) ClockChanged(old, next string, at time.Time) {
	r.clockChanges = append(r.clockChanges, old+"->"+next)
}
func (r *recordingNotifier) ShowStarted(show Show, at time.Time) {
	r.started = append(r.started, show.Name)
}
func (r *recordingNotifier) ShowEnded(show Show, at time.Time) {
	r.ended = append(r.ended, show.Name)
}

func TestWatcherEmitsTransitions(t *testing.T) {
	s := newTestScheduler()
	bus := events.NewBus()
	notifier := &recordingNotifier{}
	w := NewWatcher(s, bus, notifier, time.Second, zerolog.Nop())

	startSub := bus.Subscribe(events.EventShowStart)
	endSub := bus.Subscribe(events.EventShowEnd)

	base := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	c := clock.TalkRadio("Lunch Talk", clock.DaypartMidday)
	s.ScheduleShow(Show{Name: "Lunch Talk", StartTime: base.Add(time.Hour), Duration: time.Hour, Clock: c})

	w.Tick(base)                          // baseline, midday music clock
	w.Tick(base.Add(time.Hour))           // show starts
	w.Tick(base.Add(90 * time.Minute))    // show still active
	w.Tick(base.Add(2*time.Hour + time.Minute)) // show over

	if len(notifier.started) != 1 || notifier.started[0] != "Lunch Talk" {
		t.Fatalf("unexpected show starts: %v", notifier.started)
	}
	if len(notifier.ended) != 1 || notifier.ended[0] != "Lunch Talk" {
		t.Fatalf("unexpected show ends: %v", notifier.ended)
	}
	if len(notifier.clockChanges) == 0 {
		t.Fatal("expected a clock change when the show clock took over")
	}

	select {
	case payload := <-startSub:
		if payload["show"] != "Lunch Talk" {
			t.Fatalf("unexpected start payload: %v", payload)
		}
	default:
		t.Fatal("expected a show start event on the bus")
	}
	select {
	case <-endSub:
	default:
		t.Fatal("expected a show end event on the bus")
	}
}
