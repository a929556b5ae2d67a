package engine

import (
	"unicode/utf8"

	"lyricsync/internal/timeline"
)

// WordState is the highlight fill for one word of the active line.
// CurrentSyllable is -1 before the word starts and len(syllables) once
// every syllable has completed.
type WordState struct {
	OverallProgress  float64 `json:"overallProgress"`
	CurrentSyllable  int     `json:"currentSyllable"`
	SyllableProgress float64 `json:"syllableProgress"`
}

// WordProgress computes per-word fill states for a word-synced line. The
// sample time is shifted forward by the latency compensation before any
// evaluation. Compound words fill proportionally to revealed characters,
// not elapsed time, so uneven syllable lengths still sweep smoothly.
func WordProgress(line timeline.Line, t float64, cfg Config) map[int]WordState {
	if len(line.Words) == 0 {
		return nil
	}
	t += cfg.LatencyShift

	states := make(map[int]WordState, len(line.Words))
	for i, w := range line.Words {
		if w.Compound() {
			states[i] = compoundProgress(w, t, cfg)
		} else {
			states[i] = simpleProgress(w, t, cfg)
		}
	}
	return states
}

func simpleProgress(w timeline.Word, t float64, cfg Config) WordState {
	end := w.Time + cfg.DefaultWordSpan
	if w.EndTime != nil {
		end = *w.EndTime
	}
	switch {
	case t < w.Time:
		return WordState{CurrentSyllable: -1}
	case t >= end:
		return WordState{OverallProgress: 1, CurrentSyllable: len(w.Syllables), SyllableProgress: 1}
	}
	p := clamp01((t - w.Time) / (end - w.Time))
	return WordState{OverallProgress: p, CurrentSyllable: 0, SyllableProgress: p}
}

func compoundProgress(w timeline.Word, t float64, cfg Config) WordState {
	if t < w.Time && t < w.Syllables[0].Time {
		return WordState{CurrentSyllable: -1}
	}

	total := 0
	for _, s := range w.Syllables {
		total += utf8.RuneCountInString(s.Text)
	}
	if total == 0 {
		return WordState{OverallProgress: 1, CurrentSyllable: len(w.Syllables), SyllableProgress: 1}
	}

	before := 0
	for i, s := range w.Syllables {
		if t < s.Time {
			// Between syllables: everything before is revealed, the next
			// one has not started.
			return WordState{
				OverallProgress: float64(before) / float64(total),
				CurrentSyllable: i,
			}
		}
		end := syllableEnd(w.Syllables, i, cfg)
		if t < end {
			p := clamp01((t - s.Time) / (end - s.Time))
			chars := utf8.RuneCountInString(s.Text)
			return WordState{
				OverallProgress:  (float64(before) + p*float64(chars)) / float64(total),
				CurrentSyllable:  i,
				SyllableProgress: p,
			}
		}
		before += utf8.RuneCountInString(s.Text)
	}

	return WordState{OverallProgress: 1, CurrentSyllable: len(w.Syllables), SyllableProgress: 1}
}

// syllableEnd resolves the end of syllable i: its own end time, the next
// syllable's start, or a default span for the last one.
func syllableEnd(syls []timeline.Syllable, i int, cfg Config) float64 {
	s := syls[i]
	if s.EndTime != nil {
		return *s.EndTime
	}
	if i+1 < len(syls) {
		return syls[i+1].Time
	}
	return s.Time + cfg.DefaultWordSpan
}
