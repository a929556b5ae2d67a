package engine

import "lyricsync/internal/timeline"

// GapState describes the instrumental-pause animation at one instant. It
// is a pure function of the sample time; no history is carried.
type GapState struct {
	InGap             bool    `json:"inGap"`
	BreathingProgress float64 `json:"breathingProgress"`
	Inhaling          bool    `json:"inhaling"`
	InhaleProgress    float64 `json:"inhaleProgress"`
}

// ComputeGap evaluates the pause window for the current active line. Two
// windows exist: the intro (start of track to the first line, while no
// line is active) and inter-line gaps (a line's end to the next line's
// start). Lines without end times never open a window.
func ComputeGap(t float64, active int, tl *timeline.Timeline, cfg Config) GapState {
	if tl == nil || !tl.Synced || len(tl.Lines) == 0 {
		return GapState{}
	}

	var start, end float64
	switch {
	case active == -1:
		start, end = 0, tl.Lines[0].Time
	case active >= 0 && active < len(tl.Lines)-1:
		line := tl.Lines[active]
		if line.EndTime == nil {
			return GapState{}
		}
		start, end = *line.EndTime, tl.Lines[active+1].Time
	default:
		return GapState{}
	}

	duration := end - start
	if duration < cfg.MinPause {
		return GapState{}
	}
	elapsed := t - start
	if elapsed < 0 || elapsed > duration {
		return GapState{}
	}

	if cfg.DotStyle == DotStyleLegacy {
		// Single-phase: dots fill across the whole window.
		return GapState{InGap: true, BreathingProgress: clamp01(elapsed / duration)}
	}

	breathingSpan := duration - cfg.InhaleDuration
	state := GapState{InGap: true}
	if breathingSpan <= 0 || elapsed >= breathingSpan {
		state.BreathingProgress = 1
		state.Inhaling = true
		state.InhaleProgress = clamp01((elapsed - breathingSpan) / cfg.InhaleDuration)
	} else {
		state.BreathingProgress = clamp01(elapsed / breathingSpan)
	}
	return state
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
