package engine

import (
	"math"
	"testing"

	"lyricsync/internal/timeline"
)

func gapTimeline(end0, start1 float64) *timeline.Timeline {
	return &timeline.Timeline{Synced: true, Lines: []timeline.Line{
		{Time: 0, EndTime: timeline.Seconds(end0), Text: "a"},
		{Time: start1, Text: "b"},
	}}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestGapBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	// 1.9s pause never opens a window.
	tl := gapTimeline(1.0, 2.9)
	if got := ComputeGap(2.0, 0, tl, cfg); got.InGap {
		t.Errorf("1.9s pause should not be a gap: %+v", got)
	}
}

func TestGapAboveThreshold(t *testing.T) {
	cfg := DefaultConfig()
	// 2.1s pause does.
	tl := gapTimeline(1.0, 3.1)
	if got := ComputeGap(2.0, 0, tl, cfg); !got.InGap {
		t.Errorf("2.1s pause should be a gap: %+v", got)
	}
}

func TestGapInhalePhase(t *testing.T) {
	cfg := DefaultConfig()
	// D = 4.0s: breathing span 2.0s, inhale 2.0s. One second into the
	// inhale (elapsed = D - 1.0) the inhale is half done.
	tl := gapTimeline(1.0, 5.0)
	got := ComputeGap(4.0, 0, tl, cfg)
	if !got.InGap || !got.Inhaling {
		t.Fatalf("expected inhale phase: %+v", got)
	}
	if !near(got.InhaleProgress, 0.5) {
		t.Errorf("expected inhale progress 0.5, got %.4f", got.InhaleProgress)
	}
	if !near(got.BreathingProgress, 1.0) {
		t.Errorf("breathing should be complete during inhale, got %.4f", got.BreathingProgress)
	}
}

func TestGapBreathingPhase(t *testing.T) {
	cfg := DefaultConfig()
	// Lines at t=0 (end 1.0) and t=5.0: D=4.0. At t=2.0, elapsed 1.0 of
	// a 2.0s breathing span.
	tl := gapTimeline(1.0, 5.0)
	got := ComputeGap(2.0, 0, tl, cfg)
	if !got.InGap || got.Inhaling {
		t.Fatalf("expected breathing phase: %+v", got)
	}
	if !near(got.BreathingProgress, 0.5) {
		t.Errorf("expected breathing progress 0.5, got %.4f", got.BreathingProgress)
	}
}

func TestGapIntro(t *testing.T) {
	cfg := DefaultConfig()
	tl := &timeline.Timeline{Synced: true, Lines: []timeline.Line{{Time: 6, Text: "a"}}}

	got := ComputeGap(3.0, -1, tl, cfg)
	if !got.InGap {
		t.Fatalf("expected intro gap: %+v", got)
	}
	if !near(got.BreathingProgress, 0.75) {
		t.Errorf("expected breathing progress 0.75, got %.4f", got.BreathingProgress)
	}

	// The intro window only applies while no line is active.
	if got := ComputeGap(3.0, 0, tl, cfg); got.InGap {
		t.Errorf("active last line should not gap: %+v", got)
	}
}

func TestGapRequiresEndTime(t *testing.T) {
	cfg := DefaultConfig()
	tl := &timeline.Timeline{Synced: true, Lines: []timeline.Line{
		{Time: 0, Text: "a"}, // no end time, line-only format
		{Time: 10, Text: "b"},
	}}
	if got := ComputeGap(5.0, 0, tl, cfg); got.InGap {
		t.Errorf("missing end time must disable gap dots: %+v", got)
	}
}

func TestGapOutsideWindow(t *testing.T) {
	cfg := DefaultConfig()
	tl := gapTimeline(1.0, 5.0)
	if got := ComputeGap(0.5, 0, tl, cfg); got.InGap {
		t.Errorf("before window start should not gap: %+v", got)
	}
	if got := ComputeGap(5.5, 0, tl, cfg); got.InGap {
		t.Errorf("past window end should not gap: %+v", got)
	}
}

func TestGapLegacyStyle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DotStyle = DotStyleLegacy
	tl := gapTimeline(1.0, 5.0)

	got := ComputeGap(4.0, 0, tl, cfg)
	if !got.InGap || got.Inhaling {
		t.Fatalf("legacy style has no inhale phase: %+v", got)
	}
	if !near(got.BreathingProgress, 0.75) {
		t.Errorf("expected single-phase fill 0.75, got %.4f", got.BreathingProgress)
	}
}

func TestGapStateless(t *testing.T) {
	cfg := DefaultConfig()
	tl := gapTimeline(1.0, 5.0)
	a := ComputeGap(2.5, 0, tl, cfg)
	b := ComputeGap(2.5, 0, tl, cfg)
	if a != b {
		t.Errorf("gap state must be a pure function of time: %+v vs %+v", a, b)
	}
}
