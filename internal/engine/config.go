package engine

import "time"

// DotStyle selects the gap-dot animation model. The legacy style fills over
// the whole pause window with no inhale phase; the phased style splits the
// window into breathing and inhale sub-phases.
type DotStyle string

const (
	DotStyleLegacy DotStyle = "legacy"
	DotStylePhased DotStyle = "phased"
)

// Config carries the engine's tuning constants. The durations are
// empirically tuned UI values carried over from the original panels; they
// are configuration, not derived quantities.
type Config struct {
	// SeekThreshold is how far behind the committed line's start a sample
	// must land before a backward transition is accepted as a real seek.
	SeekThreshold float64
	// MinPause is the shortest vocal gap that shows the gap-dot animation.
	MinPause float64
	// InhaleDuration is the final sub-interval of a pause window.
	InhaleDuration float64
	// LatencyShift is added to the sampled time before word-progress
	// evaluation, compensating perceived highlight lag.
	LatencyShift float64
	// DefaultWordSpan is the assumed duration of a word or final syllable
	// with no end time.
	DefaultWordSpan float64
	// OverrideReturn is how long after the last user scroll the engine
	// resumes auto-follow.
	OverrideReturn time.Duration
	// TagValidity is how long an engine-issued scroll command's echoed
	// events are ignored; it covers a smooth-scroll animation.
	TagValidity time.Duration
	// ScrollSlop is the offset distance (px) under which a scroll command
	// is skipped as redundant.
	ScrollSlop float64
	// AnchorOffset is where the active line sits in the viewport (px from
	// the top), for auto-scroll targeting.
	AnchorOffset float64
	// LineHeight is the assumed rendered height of one line (px), used to
	// map line indices to scroll offsets when the surface has no better
	// measurement.
	LineHeight float64

	DotStyle DotStyle
}

// DefaultConfig returns the tuning the original panels shipped with.
func DefaultConfig() Config {
	return Config{
		SeekThreshold:   2.0,
		MinPause:        2.0,
		InhaleDuration:  2.0,
		LatencyShift:    0.15,
		DefaultWordSpan: 0.3,
		OverrideReturn:  3000 * time.Millisecond,
		TagValidity:     1500 * time.Millisecond,
		ScrollSlop:      5,
		AnchorOffset:    96,
		LineHeight:      56,
		DotStyle:        DotStylePhased,
	}
}
