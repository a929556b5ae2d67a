package timeline

import (
	"bufio"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	lineTagRe   = regexp.MustCompile(`\[(\d{2}):(\d{2})(?:\.(\d{1,3}))?\](.*)`)
	inlineTagRe = regexp.MustCompile(`<(\d{2}):(\d{2})(?:\.(\d{1,3}))?>`)
	agentRe     = regexp.MustCompile(`^(v1000|v1|v2):\s*`)
)

// ParseLRC parses standard and enhanced (word-timestamped) LRC text into a
// Timeline. Input with no timestamps at all yields Synced=false with one
// line per non-empty text row.
func ParseLRC(lrc string) *Timeline {
	scanner := bufio.NewScanner(strings.NewReader(lrc))
	var lines []Line

	for scanner.Scan() {
		row := scanner.Text()
		matches := lineTagRe.FindAllStringSubmatch(row, -1)
		for _, match := range matches {
			text := strings.TrimSpace(match[4])
			line := Line{Time: tagSeconds(match[1], match[2], match[3]), Agent: AgentPrimary}
			if m := agentRe.FindStringSubmatch(text); m != nil {
				line.Agent = Agent(m[1])
				text = text[len(m[0]):]
			}
			parseInline(&line, text)
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return parsePlain(lrc)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Time < lines[j].Time })
	return &Timeline{Synced: true, Lines: lines}
}

// parseInline fills line.Text and, when the text carries <..> word tags,
// line.Words with per-word and per-syllable timing. A trailing tag with no
// text after it becomes the line's end time.
func parseInline(line *Line, text string) {
	tags := inlineTagRe.FindAllStringSubmatchIndex(text, -1)
	if len(tags) == 0 {
		line.Text = text
		return
	}

	type fragment struct {
		time float64
		text string
	}
	var frags []fragment
	for i, tag := range tags {
		end := len(text)
		if i+1 < len(tags) {
			end = tags[i+1][0]
		}
		sub := inlineTagRe.FindStringSubmatch(text[tag[0]:tag[1]])
		frags = append(frags, fragment{
			time: tagSeconds(sub[1], sub[2], sub[3]),
			text: text[tag[1]:end],
		})
	}

	// A final empty fragment is an end marker, not a syllable.
	if last := frags[len(frags)-1]; strings.TrimSpace(last.text) == "" {
		line.EndTime = Seconds(last.time)
		frags = frags[:len(frags)-1]
	}

	var words []Word
	var cur []Syllable
	var curText strings.Builder
	flush := func(end *float64) {
		if len(cur) == 0 {
			return
		}
		syls := make([]Syllable, len(cur))
		copy(syls, cur)
		if end != nil {
			syls[len(syls)-1].EndTime = end
		}
		words = append(words, Word{
			Time:      syls[0].Time,
			EndTime:   syls[len(syls)-1].EndTime,
			Text:      strings.TrimSpace(curText.String()),
			Syllables: syls,
		})
		cur = cur[:0]
		curText.Reset()
	}

	for i, f := range frags {
		trimmed := strings.TrimSpace(f.text)
		if trimmed == "" {
			continue
		}
		syl := Syllable{Time: f.time, Text: trimmed}
		if i+1 < len(frags) {
			syl.EndTime = Seconds(frags[i+1].time)
		} else {
			syl.EndTime = line.EndTime
		}
		cur = append(cur, syl)
		curText.WriteString(f.text)
		// Trailing whitespace closes the word.
		if strings.HasSuffix(f.text, " ") || strings.HasSuffix(f.text, "\t") {
			flush(syl.EndTime)
		}
	}
	flush(line.EndTime)

	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(w.Text)
	}
	line.Text = b.String()
	line.Words = words
}

// parsePlain turns untimed text into an unsynced timeline.
func parsePlain(text string) *Timeline {
	var lines []Line
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		row := strings.TrimSpace(scanner.Text())
		if row == "" {
			continue
		}
		lines = append(lines, Line{Text: row, Agent: AgentPrimary})
	}
	return &Timeline{Synced: false, Lines: lines}
}

func tagSeconds(minStr, secStr, msStr string) float64 {
	min, _ := strconv.Atoi(minStr)
	sec, _ := strconv.Atoi(secStr)
	ms := 0
	if msStr != "" {
		ms, _ = strconv.Atoi(msStr)
		// Fractional digits scale by their width: .1 is 100ms, .49 is 490ms.
		switch len(msStr) {
		case 1:
			ms *= 100
		case 2:
			ms *= 10
		}
	}
	return float64(min*60+sec) + float64(ms)/1000
}
