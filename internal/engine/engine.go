// Package engine turns a sampled playback clock and a parsed lyrics
// timeline into a render-ready snapshot per tick: active line, gap-dot
// animation phase, per-word highlight fill and auto-scroll commands.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lyricsync/internal/timeline"
)

// PlaybackClock is the engine's view of the player. Time is sampled, not
// pushed; delivery is never assumed to be frame-accurate.
type PlaybackClock interface {
	CurrentTime() float64
	IsPlaying() bool
	SeekTo(seconds float64) error
}

// ScrollSurface is a scrollable viewport the engine may command. Offsets
// are pixels from the top of the lyrics content.
type ScrollSurface interface {
	Offset() float64
	LineOffset(index int) float64
	ScrollTo(offset float64, animated bool)
}

// Status is the coarse render state of the panel.
type Status int

const (
	// StatusLoading means a timeline request is in flight.
	StatusLoading Status = iota
	// StatusNoLyrics means no timeline is available for the track.
	StatusNoLyrics
	// StatusNoSync means lyrics exist but carry no time data; text is
	// shown without highlighting.
	StatusNoSync
	// StatusReady means a synced timeline is driving the panel.
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusNoLyrics:
		return "no-lyrics"
	case StatusNoSync:
		return "no-sync"
	default:
		return "ready"
	}
}

// LineState is the per-line render hint.
type LineState struct {
	IsPast    bool `json:"isPast"`
	Distance  int  `json:"distance"`
	Secondary bool `json:"secondary"`
}

// ScrollCommand is an auto-scroll the engine issued this tick. The tag
// identifies the command so the surface's echoed events are attributable.
type ScrollCommand struct {
	Tag      string  `json:"tag"`
	Line     int     `json:"line"`
	Offset   float64 `json:"offset"`
	Animated bool    `json:"animated"`
}

// Snapshot is the discrete render state for one tick.
type Snapshot struct {
	TrackID    string            `json:"trackId"`
	Status     Status            `json:"status"`
	ActiveLine int               `json:"activeLine"`
	Lines      []LineState       `json:"lines,omitempty"`
	Gap        GapState          `json:"gap"`
	Words      map[int]WordState `json:"words,omitempty"`
	ScrollMode ScrollMode        `json:"scrollMode"`
	Scroll     *ScrollCommand    `json:"scroll,omitempty"`
}

// Engine orchestrates the resolvers. It is single-threaded by contract:
// every method must be called from the same goroutine (the app's tick
// loop), so there are no locks and no shared mutable state.
type Engine struct {
	cfg        Config
	clock      PlaybackClock
	surface    ScrollSurface
	resolver   *LineResolver
	arbitrator *Arbitrator
	log        zerolog.Logger

	trackID    string
	tl         *timeline.Timeline
	status     Status
	lastActive int
	lastTarget int // last line index auto-scroll was issued for
}

func New(cfg Config, clock PlaybackClock, surface ScrollSurface, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		clock:      clock,
		surface:    surface,
		resolver:   NewLineResolver(cfg.SeekThreshold),
		arbitrator: NewArbitrator(cfg.OverrideReturn, cfg.TagValidity),
		log:        log.With().Str("component", "engine").Logger(),
		status:     StatusNoLyrics,
		lastActive: -1,
		lastTarget: -1,
	}
}

// BeginTrack clears all carry-over state for a new track and enters the
// loading placeholder until a timeline (or its absence) is delivered.
func (e *Engine) BeginTrack(trackID string) {
	e.trackID = trackID
	e.tl = nil
	e.status = StatusLoading
	e.lastActive = -1
	e.lastTarget = -1
	e.resolver.Reset(nil)
	e.arbitrator.Reset()
	e.surface.ScrollTo(0, false)
	e.log.Info().Str("track", trackID).Msg("Track changed, engine state cleared")
}

// DeliverTimeline hands over a fetched timeline. Deliveries for a track
// that is no longer current are discarded; late fetches for the previous
// track must not clobber the new one. tl may be nil ("unavailable").
func (e *Engine) DeliverTimeline(trackID string, tl *timeline.Timeline) {
	if trackID != e.trackID {
		e.log.Debug().Str("track", trackID).Str("current", e.trackID).Msg("Discarding stale timeline delivery")
		return
	}
	e.tl = tl
	e.resolver.Reset(tl)
	switch {
	case tl == nil || len(tl.Lines) == 0:
		e.status = StatusNoLyrics
	case !tl.Synced:
		e.status = StatusNoSync
	default:
		e.status = StatusReady
	}
	e.log.Info().Str("track", trackID).Stringer("status", e.status).Msg("Timeline delivered")
}

// Unavailable marks the current track's lyrics fetch as failed. The panel
// degrades to a stable placeholder; retry happens on the next track change.
func (e *Engine) Unavailable(trackID string) {
	e.DeliverTimeline(trackID, nil)
}

// OnUserScroll feeds a scroll event from the surface. An empty tag means
// the event could not be attributed to an engine command.
func (e *Engine) OnUserScroll(tag string, now time.Time) {
	before := e.arbitrator.Mode()
	e.arbitrator.NoteUserScroll(tag, now)
	if after := e.arbitrator.Mode(); after != before {
		e.log.Debug().Stringer("mode", after).Msg("Scroll arbitration mode changed")
	}
}

// RequestSeek forwards a seek (e.g. a click on a line) to the clock. The
// engine does not move its own state; the next tick samples the new time.
func (e *Engine) RequestSeek(seconds float64) error {
	return e.clock.SeekTo(seconds)
}

// SeekToLine forwards a seek to the start of the given line.
func (e *Engine) SeekToLine(index int) error {
	if e.tl == nil || index < 0 || index >= len(e.tl.Lines) {
		return nil
	}
	return e.RequestSeek(e.tl.Lines[index].Time)
}

// Tick recomputes the render state for the current clock sample. It is a
// pure recomputation over absolute time: irregular tick intervals and
// repeated samples of the same time produce consistent snapshots.
func (e *Engine) Tick(now time.Time) Snapshot {
	snap := Snapshot{
		TrackID:    e.trackID,
		Status:     e.status,
		ActiveLine: -1,
		ScrollMode: e.arbitrator.Mode(),
	}
	if e.status != StatusReady {
		return snap
	}

	t := e.clock.CurrentTime()
	active := e.resolver.Resolve(t)
	snap.ActiveLine = active
	snap.Lines = e.lineStates(active)
	snap.Gap = ComputeGap(t, active, e.tl, e.cfg)
	if active >= 0 && len(e.tl.Lines[active].Words) > 0 {
		snap.Words = WordProgress(e.tl.Lines[active], t, e.cfg)
	}

	returned := e.arbitrator.Advance(now)
	snap.ScrollMode = e.arbitrator.Mode()

	if active != e.lastActive {
		e.log.Info().
			Int("index", active).
			Float64("player_time", t).
			Msg("Active line changed")
		e.lastActive = active
	}

	// Auto-scroll: on line change while following, or once on return from
	// a user override.
	if e.arbitrator.Mode() == Following && active >= 0 {
		if returned || active != e.lastTarget {
			snap.Scroll = e.scrollToLine(active, now)
			e.lastTarget = active
		}
	}

	return snap
}

// scrollToLine issues a tagged scroll command placing the line at the
// anchor offset, skipping the command when the surface is already there.
func (e *Engine) scrollToLine(index int, now time.Time) *ScrollCommand {
	target := e.surface.LineOffset(index) - e.cfg.AnchorOffset
	if target < 0 {
		target = 0
	}
	delta := e.surface.Offset() - target
	if delta < 0 {
		delta = -delta
	}
	if delta <= e.cfg.ScrollSlop {
		return nil
	}
	cmd := &ScrollCommand{
		Tag:      uuid.NewString(),
		Line:     index,
		Offset:   target,
		Animated: true,
	}
	e.arbitrator.NoteEngineScroll(cmd.Tag, now)
	e.surface.ScrollTo(target, true)
	return cmd
}

func (e *Engine) lineStates(active int) []LineState {
	states := make([]LineState, len(e.tl.Lines))
	for i, line := range e.tl.Lines {
		states[i] = LineState{
			IsPast:    active >= 0 && i < active,
			Distance:  i - active,
			Secondary: line.Agent == timeline.AgentSecondary,
		}
	}
	return states
}
