package app

// ipcSurface is the engine's view of the remote GUI viewport. The real
// widget lives across the socket; this mirror tracks the offset the GUI
// last reported (or the engine last commanded) and converts line indices
// to pixel offsets with a fixed line height. Actual scrolling happens in
// the client when it applies the scroll command carried by the snapshot.
type ipcSurface struct {
	offset     float64
	lineHeight float64
}

func newIPCSurface(lineHeight float64) *ipcSurface {
	return &ipcSurface{lineHeight: lineHeight}
}

func (s *ipcSurface) Offset() float64 {
	return s.offset
}

func (s *ipcSurface) LineOffset(index int) float64 {
	return float64(index) * s.lineHeight
}

func (s *ipcSurface) ScrollTo(offset float64, animated bool) {
	s.offset = offset
}

// noteClientOffset records the offset a client event reported.
func (s *ipcSurface) noteClientOffset(offset float64) {
	s.offset = offset
}
