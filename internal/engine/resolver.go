package engine

import "lyricsync/internal/timeline"

// LineResolver maps a sampled playback time to the active line index. It
// carries exactly one piece of state across ticks, the last committed
// index, to resist jitter around line boundaries: a candidate behind the
// committed line is only accepted when the sample is far enough back to be
// a real seek.
type LineResolver struct {
	tl            *timeline.Timeline
	ordered       bool
	lastCommitted int
	seekThreshold float64
}

func NewLineResolver(seekThreshold float64) *LineResolver {
	return &LineResolver{lastCommitted: -1, seekThreshold: seekThreshold}
}

// Reset swaps the timeline the resolver works against and clears the
// carry-over index. Call whenever the timeline object changes.
func (r *LineResolver) Reset(tl *timeline.Timeline) {
	r.tl = tl
	r.lastCommitted = -1
	r.ordered = tl != nil && tl.Validate() == nil
}

// Last returns the last committed index (-1 before the first line).
func (r *LineResolver) Last() int { return r.lastCommitted }

// Resolve returns the active line index for the sample time t, or -1 when
// no line matches. Malformed timelines always resolve to -1.
func (r *LineResolver) Resolve(t float64) int {
	if r.tl == nil || !r.tl.Synced || !r.ordered {
		return -1
	}

	candidate := indexAt(r.tl.Lines, t)

	if candidate < r.lastCommitted && r.lastCommitted < len(r.tl.Lines) {
		// Backward movement: accept only a genuine seek, not sampling
		// jitter around the committed line's start.
		if t >= r.tl.Lines[r.lastCommitted].Time-r.seekThreshold {
			return r.lastCommitted
		}
	}

	r.lastCommitted = candidate
	return candidate
}

// indexAt finds the last line whose start is at or before t.
func indexAt(lines []timeline.Line, t float64) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Time <= t {
			return i
		}
	}
	return -1
}
