package engine

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"lyricsync/internal/timeline"
)

type fakeClock struct {
	t       float64
	playing bool
	seeks   []float64
}

func (c *fakeClock) CurrentTime() float64 { return c.t }
func (c *fakeClock) IsPlaying() bool      { return c.playing }
func (c *fakeClock) SeekTo(s float64) error {
	c.seeks = append(c.seeks, s)
	return nil
}

type fakeSurface struct {
	offset     float64
	lineHeight float64
	commands   []float64
	follow     bool // emulate an instant surface that lands on target
}

func (s *fakeSurface) Offset() float64              { return s.offset }
func (s *fakeSurface) LineOffset(index int) float64 { return float64(index) * s.lineHeight }
func (s *fakeSurface) ScrollTo(offset float64, animated bool) {
	s.commands = append(s.commands, offset)
	if s.follow {
		s.offset = offset
	}
}

func newTestEngine() (*Engine, *fakeClock, *fakeSurface) {
	clock := &fakeClock{playing: true}
	surface := &fakeSurface{lineHeight: 120, follow: true}
	e := New(DefaultConfig(), clock, surface, zerolog.Nop())
	return e, clock, surface
}

func helloWorld() *timeline.Timeline {
	return &timeline.Timeline{Synced: true, Lines: []timeline.Line{
		{Time: 0, EndTime: timeline.Seconds(1.0), Text: "Hello"},
		{Time: 5.0, Text: "World"},
	}}
}

func TestEngineScenario(t *testing.T) {
	e, clock, _ := newTestEngine()
	e.BeginTrack("track-1")
	e.DeliverTimeline("track-1", helloWorld())

	// Gap of 5.0-1.0 = 4.0s >= threshold; at t=2.0 the breathing phase
	// is half done.
	clock.t = 2.0
	snap := e.Tick(at(0))

	if snap.Status != StatusReady {
		t.Fatalf("expected ready, got %v", snap.Status)
	}
	if snap.ActiveLine != 0 {
		t.Errorf("expected active line 0, got %d", snap.ActiveLine)
	}
	if !snap.Gap.InGap {
		t.Fatalf("expected gap state: %+v", snap.Gap)
	}
	if !near(snap.Gap.BreathingProgress, 0.5) {
		t.Errorf("expected breathing 0.5, got %.4f", snap.Gap.BreathingProgress)
	}
	if snap.Lines[1].IsPast || snap.Lines[1].Distance != 1 {
		t.Errorf("unexpected line state: %+v", snap.Lines[1])
	}
}

func TestEngineIdempotentRetick(t *testing.T) {
	e, clock, _ := newTestEngine()
	e.BeginTrack("track-1")
	e.DeliverTimeline("track-1", helloWorld())

	clock.t = 2.0
	first := e.Tick(at(0))
	second := e.Tick(at(16))

	// The surface landed on target after the first command, so the
	// snapshots must be identical: no hidden per-call state.
	first.Scroll = nil
	second.Scroll = nil
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-tick diverged:\n%+v\n%+v", first, second)
	}
	if second.ActiveLine != first.ActiveLine || second.Gap != first.Gap {
		t.Error("resolver state leaked between identical samples")
	}
}

func TestEngineLoadingAndNoLyrics(t *testing.T) {
	e, clock, _ := newTestEngine()
	e.BeginTrack("track-1")

	clock.t = 3.0
	snap := e.Tick(at(0))
	if snap.Status != StatusLoading || snap.ActiveLine != -1 {
		t.Errorf("expected inert loading snapshot, got %+v", snap)
	}

	e.Unavailable("track-1")
	snap = e.Tick(at(16))
	if snap.Status != StatusNoLyrics || snap.ActiveLine != -1 {
		t.Errorf("expected stable no-lyrics snapshot, got %+v", snap)
	}
	// Re-ticking a degraded panel stays degraded, no error surface.
	again := e.Tick(at(32))
	again.Scroll = nil
	snap.Scroll = nil
	if !reflect.DeepEqual(snap, again) {
		t.Errorf("degraded snapshot not stable: %+v vs %+v", snap, again)
	}
}

func TestEngineUnsyncedTimeline(t *testing.T) {
	e, clock, _ := newTestEngine()
	e.BeginTrack("track-1")
	e.DeliverTimeline("track-1", &timeline.Timeline{Lines: []timeline.Line{{Text: "words"}}})

	clock.t = 10
	snap := e.Tick(at(0))
	if snap.Status != StatusNoSync {
		t.Errorf("expected no-sync status, got %v", snap.Status)
	}
	if snap.ActiveLine != -1 || snap.Gap.InGap {
		t.Errorf("unsynced timeline must not highlight: %+v", snap)
	}
}

func TestEngineDiscardsStaleDelivery(t *testing.T) {
	e, clock, _ := newTestEngine()
	e.BeginTrack("track-1")
	e.BeginTrack("track-2")

	// The fetch for track-1 resolves late; it must not clobber track-2.
	e.DeliverTimeline("track-1", helloWorld())
	clock.t = 2.0
	snap := e.Tick(at(0))
	if snap.Status != StatusLoading {
		t.Errorf("stale delivery accepted: %+v", snap)
	}
	if snap.TrackID != "track-2" {
		t.Errorf("expected track-2, got %s", snap.TrackID)
	}
}

func TestEngineAutoScrollOnLineChange(t *testing.T) {
	e, clock, surface := newTestEngine()
	e.BeginTrack("track-1")
	e.DeliverTimeline("track-1", helloWorld())

	clock.t = 0.5
	e.Tick(at(0))
	clock.t = 5.5
	snap := e.Tick(at(16))

	if snap.Scroll == nil {
		t.Fatal("expected scroll command on line change")
	}
	if snap.Scroll.Line != 1 || snap.Scroll.Tag == "" {
		t.Errorf("unexpected scroll command: %+v", snap.Scroll)
	}
	want := surface.LineOffset(1) - e.cfg.AnchorOffset
	if want < 0 {
		want = 0
	}
	if snap.Scroll.Offset != want {
		t.Errorf("expected offset %.1f, got %.1f", want, snap.Scroll.Offset)
	}
}

func TestEngineScrollSuppressedDuringOverride(t *testing.T) {
	e, clock, _ := newTestEngine()
	e.BeginTrack("track-1")
	e.DeliverTimeline("track-1", helloWorld())

	clock.t = 0.5
	e.Tick(at(0))
	e.OnUserScroll("", at(100))

	clock.t = 5.5
	snap := e.Tick(at(200))
	if snap.Scroll != nil {
		t.Errorf("auto-scroll must be suppressed in UserOverride: %+v", snap.Scroll)
	}
	if snap.ScrollMode != UserOverride {
		t.Errorf("expected UserOverride mode, got %v", snap.ScrollMode)
	}

	// When the override expires the engine issues one scroll-to-active.
	snap = e.Tick(at(3200))
	if snap.ScrollMode != Following {
		t.Fatalf("expected return to Following, got %v", snap.ScrollMode)
	}
	if snap.Scroll == nil || snap.Scroll.Line != 1 {
		t.Errorf("expected catch-up scroll to line 1, got %+v", snap.Scroll)
	}
}

func TestEngineScrollNoopWithinSlop(t *testing.T) {
	e, clock, surface := newTestEngine()
	e.BeginTrack("track-1")
	e.DeliverTimeline("track-1", helloWorld())

	// Park the surface within 5px of line 1's target before the change.
	surface.offset = surface.LineOffset(1) - e.cfg.AnchorOffset + 4
	if surface.offset < 0 {
		surface.offset = 0
	}
	issued := len(surface.commands)

	clock.t = 5.5
	snap := e.Tick(at(0))
	if snap.Scroll != nil {
		t.Errorf("expected no-op within slop, got %+v", snap.Scroll)
	}
	if len(surface.commands) != issued {
		t.Errorf("surface was commanded despite slop")
	}
}

func TestEngineSeekForwarding(t *testing.T) {
	e, clock, _ := newTestEngine()
	e.BeginTrack("track-1")
	e.DeliverTimeline("track-1", helloWorld())

	if err := e.SeekToLine(1); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if len(clock.seeks) != 1 || clock.seeks[0] != 5.0 {
		t.Errorf("expected forwarded seek to 5.0, got %v", clock.seeks)
	}
	// The engine itself does not move until the clock does.
	clock.t = 0.2
	snap := e.Tick(at(0))
	if snap.ActiveLine != 0 {
		t.Errorf("seek must not mutate engine state directly: %+v", snap)
	}
}

func TestEngineBeginTrackResetsScroll(t *testing.T) {
	e, clock, surface := newTestEngine()
	e.BeginTrack("track-1")
	e.DeliverTimeline("track-1", helloWorld())
	clock.t = 5.5
	e.Tick(at(0))

	e.BeginTrack("track-2")
	if surface.offset != 0 {
		t.Errorf("expected scroll reset to top, got %.1f", surface.offset)
	}
	if e.arbitrator.Mode() != Following {
		t.Error("expected arbitration reset on track change")
	}
}
