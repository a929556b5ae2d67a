// Package timeline holds the parsed, immutable lyrics data for one track.
// A Timeline is built once by the lyrics provider and never mutated; the
// engine swaps the whole object on track change.
package timeline

import "fmt"

// Agent identifies which singer a line belongs to. Secondary-agent lines
// render right-aligned downstream.
type Agent string

const (
	AgentPrimary   Agent = "v1"
	AgentSecondary Agent = "v2"
	AgentGroup     Agent = "v1000"
)

// Syllable is a timed fragment inside a word.
type Syllable struct {
	Time    float64  `json:"time"`
	EndTime *float64 `json:"endTime,omitempty"`
	Text    string   `json:"text"`
}

// Word is a timed token inside a line. A word with fewer than two syllable
// entries is "simple"; two or more make it "compound".
type Word struct {
	Time      float64    `json:"time"`
	EndTime   *float64   `json:"endTime,omitempty"`
	Text      string     `json:"text"`
	Syllables []Syllable `json:"syllables,omitempty"`
}

// Compound reports whether the word carries per-syllable timing.
func (w Word) Compound() bool { return len(w.Syllables) >= 2 }

// Line is one lyric line. EndTime is only present for formats that carry
// it; without it the boundary after this line never shows gap dots.
type Line struct {
	Time    float64  `json:"time"`
	EndTime *float64 `json:"endTime,omitempty"`
	Text    string   `json:"text"`
	Agent   Agent    `json:"agent,omitempty"`
	Words   []Word   `json:"words,omitempty"`
}

// Timeline is the full lyrics document for one track. Synced=false means
// no usable time data exists and consumers degrade to plain text.
type Timeline struct {
	Synced bool   `json:"synced"`
	Lines  []Line `json:"lines"`
}

// Validate checks the ordering invariants: line, word and syllable times
// non-decreasing, and every EndTime >= its Time. Lyrics are third-party
// best-effort data, so callers treat a failure as "no match", not a crash.
func (t *Timeline) Validate() error {
	var prev float64
	for i, line := range t.Lines {
		if i > 0 && line.Time < prev {
			return fmt.Errorf("line %d starts at %.3f, before previous line at %.3f", i, line.Time, prev)
		}
		prev = line.Time
		if line.EndTime != nil && *line.EndTime < line.Time {
			return fmt.Errorf("line %d has negative duration", i)
		}
		var prevWord float64
		for j, w := range line.Words {
			if j > 0 && w.Time < prevWord {
				return fmt.Errorf("line %d word %d out of order", i, j)
			}
			prevWord = w.Time
			if w.EndTime != nil && *w.EndTime < w.Time {
				return fmt.Errorf("line %d word %d has negative duration", i, j)
			}
			var prevSyl float64
			for k, s := range w.Syllables {
				if k > 0 && s.Time < prevSyl {
					return fmt.Errorf("line %d word %d syllable %d out of order", i, j, k)
				}
				prevSyl = s.Time
				if s.EndTime != nil && *s.EndTime < s.Time {
					return fmt.Errorf("line %d word %d syllable %d has negative duration", i, j, k)
				}
			}
		}
	}
	return nil
}

// Seconds returns a pointer to v, for filling the optional end-time fields.
func Seconds(v float64) *float64 { return &v }
