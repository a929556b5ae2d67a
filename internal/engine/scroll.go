package engine

import "time"

// ScrollMode is the arbitrator's state: either the engine may auto-scroll
// to the active line, or the user has taken control.
type ScrollMode int

const (
	Following ScrollMode = iota
	UserOverride
)

func (m ScrollMode) String() string {
	if m == UserOverride {
		return "user-override"
	}
	return "following"
}

// Arbitrator decides whether auto-scroll is allowed. It is deadline-based:
// events and ticks carry the current time, so there is no outstanding
// timer to cancel and the whole machine resets by value. Engine-issued
// scroll commands open a tag window during which echoed scroll events are
// not treated as user input.
type Arbitrator struct {
	mode        ScrollMode
	returnAt    time.Time
	tag         string
	tagUntil    time.Time
	returnDelay time.Duration
	tagValidity time.Duration
}

func NewArbitrator(returnDelay, tagValidity time.Duration) *Arbitrator {
	return &Arbitrator{returnDelay: returnDelay, tagValidity: tagValidity}
}

// Mode returns the current scroll mode.
func (a *Arbitrator) Mode() ScrollMode { return a.mode }

// NoteEngineScroll records that the engine just issued a scroll command
// with the given tag; events arriving inside the validity window are the
// command's own echo.
func (a *Arbitrator) NoteEngineScroll(tag string, now time.Time) {
	a.tag = tag
	a.tagUntil = now.Add(a.tagValidity)
}

// NoteUserScroll feeds a scroll event from the surface. The first real
// user event switches to UserOverride immediately; every further event
// restarts the return timer. Events inside the engine-tag window are
// ignored.
func (a *Arbitrator) NoteUserScroll(tag string, now time.Time) {
	if now.Before(a.tagUntil) {
		return
	}
	if tag != "" && tag == a.tag {
		return
	}
	a.mode = UserOverride
	a.returnAt = now.Add(a.returnDelay)
}

// Advance checks the return deadline. It reports true exactly once, on the
// tick where control returns to Following; the caller must then issue one
// scroll-to-active-line command.
func (a *Arbitrator) Advance(now time.Time) bool {
	if a.mode == UserOverride && !now.Before(a.returnAt) {
		a.mode = Following
		return true
	}
	return false
}

// Reset returns the arbitrator to its initial state. Called on track
// change and teardown so no stale deadline fires against a new track.
func (a *Arbitrator) Reset() {
	a.mode = Following
	a.returnAt = time.Time{}
	a.tag = ""
	a.tagUntil = time.Time{}
}
