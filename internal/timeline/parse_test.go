package timeline

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseLRCBasic(t *testing.T) {
	lrc := "[00:01.00]Hello\n[00:05.50]World\n"
	tl := ParseLRC(lrc)

	if !tl.Synced {
		t.Fatal("expected synced timeline")
	}
	if len(tl.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(tl.Lines))
	}
	if !almost(tl.Lines[0].Time, 1.0) || tl.Lines[0].Text != "Hello" {
		t.Errorf("unexpected first line: %+v", tl.Lines[0])
	}
	if !almost(tl.Lines[1].Time, 5.5) || tl.Lines[1].Text != "World" {
		t.Errorf("unexpected second line: %+v", tl.Lines[1])
	}
}

func TestParseLRCFractionalDigits(t *testing.T) {
	cases := []struct {
		tag  string
		want float64
	}{
		{"[00:10.1]x", 10.1},
		{"[00:10.49]x", 10.49},
		{"[00:10.490]x", 10.49},
		{"[01:00]x", 60.0},
	}
	for _, c := range cases {
		tl := ParseLRC(c.tag)
		if len(tl.Lines) != 1 {
			t.Fatalf("%s: expected 1 line", c.tag)
		}
		if !almost(tl.Lines[0].Time, c.want) {
			t.Errorf("%s: expected %.3f, got %.3f", c.tag, c.want, tl.Lines[0].Time)
		}
	}
}

func TestParseLRCSortsByTime(t *testing.T) {
	tl := ParseLRC("[00:20.00]second\n[00:10.00]first\n")
	if tl.Lines[0].Text != "first" || tl.Lines[1].Text != "second" {
		t.Errorf("lines not sorted by time: %+v", tl.Lines)
	}
}

func TestParseLRCAgents(t *testing.T) {
	tl := ParseLRC("[00:01.00]v2: echo me\n[00:02.00]plain\n")
	if tl.Lines[0].Agent != AgentSecondary {
		t.Errorf("expected v2 agent, got %q", tl.Lines[0].Agent)
	}
	if tl.Lines[0].Text != "echo me" {
		t.Errorf("agent prefix not stripped: %q", tl.Lines[0].Text)
	}
	if tl.Lines[1].Agent != AgentPrimary {
		t.Errorf("expected default agent, got %q", tl.Lines[1].Agent)
	}
}

func TestParseEnhancedWords(t *testing.T) {
	tl := ParseLRC("[00:10.00]<00:10.00>Hel<00:10.30>lo <00:10.80>world<00:11.50>\n")
	if len(tl.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(tl.Lines))
	}
	line := tl.Lines[0]
	if line.Text != "Hello world" {
		t.Errorf("unexpected line text: %q", line.Text)
	}
	if line.EndTime == nil || !almost(*line.EndTime, 11.5) {
		t.Errorf("expected line end 11.5, got %v", line.EndTime)
	}
	if len(line.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(line.Words))
	}

	hello := line.Words[0]
	if !hello.Compound() || len(hello.Syllables) != 2 {
		t.Fatalf("expected compound first word, got %+v", hello)
	}
	if hello.Syllables[0].Text != "Hel" || !almost(hello.Syllables[0].Time, 10.0) {
		t.Errorf("unexpected first syllable: %+v", hello.Syllables[0])
	}
	if hello.Syllables[0].EndTime == nil || !almost(*hello.Syllables[0].EndTime, 10.3) {
		t.Errorf("first syllable should end at next syllable start")
	}
	if hello.EndTime == nil || !almost(*hello.EndTime, 10.8) {
		t.Errorf("expected word end 10.8, got %v", hello.EndTime)
	}

	world := line.Words[1]
	if world.Compound() {
		t.Errorf("expected simple second word")
	}
	if world.EndTime == nil || !almost(*world.EndTime, 11.5) {
		t.Errorf("last word should inherit line end, got %v", world.EndTime)
	}
}

func TestParsePlainFallback(t *testing.T) {
	tl := ParseLRC("just some text\n\nno timestamps here\n")
	if tl.Synced {
		t.Fatal("expected unsynced timeline")
	}
	if len(tl.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(tl.Lines))
	}
	if tl.Lines[0].Text != "just some text" {
		t.Errorf("unexpected line: %q", tl.Lines[0].Text)
	}
}

func TestValidate(t *testing.T) {
	good := &Timeline{Synced: true, Lines: []Line{
		{Time: 1, EndTime: Seconds(2)},
		{Time: 3},
	}}
	if err := good.Validate(); err != nil {
		t.Errorf("expected valid timeline, got %v", err)
	}

	outOfOrder := &Timeline{Synced: true, Lines: []Line{{Time: 5}, {Time: 3}}}
	if err := outOfOrder.Validate(); err == nil {
		t.Error("expected error for out-of-order lines")
	}

	negative := &Timeline{Synced: true, Lines: []Line{{Time: 5, EndTime: Seconds(4)}}}
	if err := negative.Validate(); err == nil {
		t.Error("expected error for negative duration")
	}

	badWord := &Timeline{Synced: true, Lines: []Line{{
		Time:  1,
		Words: []Word{{Time: 2}, {Time: 1.5}},
	}}}
	if err := badWord.Validate(); err == nil {
		t.Error("expected error for out-of-order words")
	}
}
