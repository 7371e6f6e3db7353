package normalize

import (
	"strings"
	"testing"
)

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "a **brave** fox", "a brave fox"},
		{"italic", "a *quiet* mouse", "a quiet mouse"},
		{"bold underscore", "the __big__ tree", "the big tree"},
		{"italic underscore", "a _small_ seed", "a small seed"},
		{"heading", "# The Forest\nOnce there was", "The Forest\nOnce there was"},
		{"deep heading", "### Chapter Three", "Chapter Three"},
		{"link", "see [the moon](https://example.com) tonight", "see the moon tonight"},
		{"inline code", "say `hello` softly", "say hello softly"},
		{"code fence", "```python\nprint(1)\n```", "\nprint(1)\n"},
		{"bold link", "[**the sun**](http://x)", "the sun"},
		{"plain", "nothing to strip here", "nothing to strip here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripMarkdown(tt.in)
			if got != tt.want {
				t.Errorf("stripMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripMarkdownIdempotent(t *testing.T) {
	inputs := []string{
		"**bold** and *italic*",
		"# heading\n`code` and [text](url)",
		"__under__ _score_ ```go\nfence```",
	}
	for _, in := range inputs {
		once := stripMarkdown(in)
		twice := stripMarkdown(once)
		if once != twice {
			t.Errorf("stripMarkdown not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestNormalizePunctuation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing space after period", "Hello.World", "Hello. World"},
		{"missing space after comma", "one,two", "one, two"},
		{"space run", "too  many   spaces", "too many spaces"},
		{"decimal untouched", "about 3.14 exactly", "about 3.14 exactly"},
		{"thousands untouched", "1,000 stars", "1,000 stars"},
		{"ellipsis not split", "wait...then go", "wait... then go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePunctuation(tt.in)
			if got != tt.want {
				t.Errorf("normalizePunctuation(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestInsertPauses(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"once upon a time", "Once upon a time there was a fox.", "Once upon a time... there was a fox."},
		{"trailing comma swallowed", "Once upon a time, a fox.", "Once upon a time... a fox."},
		{"suddenly", "And suddenly the door opened.", "And suddenly... the door opened."},
		{"all of a sudden", "All of a sudden it rained.", "All of a sudden... it rained."},
		{"the end", "They smiled. The end.", "They smiled. The end..."},
		{"existing ellipsis kept", "Once upon a time... a fox.", "Once upon a time... a fox."},
		{"the ending untouched", "the ending was happy", "the ending was happy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := insertPauses(tt.in)
			if got != tt.want {
				t.Errorf("insertPauses(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestInsertPausesNoDuplication(t *testing.T) {
	in := "Once upon a time there was a fox. Once upon a time there was a hen."
	out := insertPauses(insertPauses(in))
	if strings.Count(out, "Once upon a time...") != 2 {
		t.Errorf("expected ellipsis once per occurrence, got %q", out)
	}
	if strings.Contains(out, "......") {
		t.Errorf("ellipsis duplicated: %q", out)
	}
}

func TestAddEmphasis(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"number word", "there were three bears", "there were exactly three bears"},
		{"digits", "he found 7 acorns", "he found exactly 7 acorns"},
		{"important", "an important lesson", "an very important lesson"},
		{"amazing", "an amazing trick", "an absolutely amazing trick"},
		{"happy", "she was happy", "she was really happy"},
		{"inside word untouched", "someone wonderful", "someone wonderful"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addEmphasis(tt.in)
			if got != tt.want {
				t.Errorf("addEmphasis(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddEmphasisNoDoublePrefix(t *testing.T) {
	in := "there were three very important and absolutely amazing things"
	once := addEmphasis(in)
	twice := addEmphasis(once)
	if once != twice {
		t.Errorf("addEmphasis compounded: %q vs %q", once, twice)
	}
	if strings.Contains(twice, "exactly exactly") ||
		strings.Contains(twice, "very very") ||
		strings.Contains(twice, "absolutely absolutely") {
		t.Errorf("double prefix in %q", twice)
	}
}

func TestAddTransitions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"so at start", "So we went home.", "So then we went home."},
		{"so with comma", "So, we went home.", "So then, we went home."},
		{"well", "Well that was fun.", "Well now that was fun."},
		{"now", "Now we can play.", "Now then we can play."},
		{"mid sentence untouched", "and so we went", "and so we went"},
		{"after period", "It rained. So we stayed in.", "It rained. So then we stayed in."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addTransitions(tt.in)
			if got != tt.want {
				t.Errorf("addTransitions(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddTransitionsIdempotent(t *testing.T) {
	inputs := []string{
		"So we went home. Well that was fun. Now we can play.",
		"So then we went home.",
	}
	for _, in := range inputs {
		once := addTransitions(in)
		twice := addTransitions(once)
		if once != twice {
			t.Errorf("addTransitions compounded for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestAddExcitement(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"amazing", "Amazing! You did it.", "Oh, Amazing! You did it."},
		{"great after period", "Good try. Great job!", "Good try. Oh, Great job!"},
		{"lets", "Let's count together.", "Come on, let's count together."},
		{"mid sentence untouched", "that was great fun", "that was great fun"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addExcitement(tt.in)
			if got != tt.want {
				t.Errorf("addExcitement(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddGentling(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"sleep", "time to sleep now", "time to gently sleep now"},
		{"dream", "dream of clouds", "softly dream of clouds"},
		{"close your eyes", "close your eyes and rest", "slowly close your eyes and rest"},
		{"sleepy untouched", "the sleepy bear", "the sleepy bear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addGentling(tt.in)
			if got != tt.want {
				t.Errorf("addGentling(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddGentlingIdempotent(t *testing.T) {
	in := "close your eyes, sleep, and dream"
	once := addGentling(in)
	twice := addGentling(once)
	if once != twice {
		t.Errorf("addGentling compounded: %q vs %q", once, twice)
	}
}
