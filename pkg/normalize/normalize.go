// Package normalize prepares model-generated prose for speech synthesis.
//
// The Murf voices used by murfkiddo accept plain text with
// punctuation-driven pacing rather than SSML, so instead of emitting
// markup the package rewrites text with ordered regex passes: markdown
// removal, punctuation spacing, pause insertion after trigger phrases,
// and optional emphasis and transition substitutions tuned per content
// category.
//
// Example usage:
//
//	spoken := normalize.ForStorytelling(raw)
//	result, _ := ttsProvider.Synthesize(ctx, spoken)
//
// Every entry point is a pure string transformation: no input panics,
// empty input yields empty output, and running a pipeline twice does not
// compound substitutions.
package normalize

import "strings"

// Options selects which optional passes run after the mandatory cleanup.
type Options struct {
	// Emphasis enables the "exactly three" / "very important" style
	// word substitutions.
	Emphasis bool

	// Transitions enables sentence-initial transition softening
	// ("So" becomes "So then").
	Transitions bool

	// ChildFriendly enables the excitable register: "Amazing!" becomes
	// "Oh, Amazing!" and "Let's" becomes "Come on, let's".
	ChildFriendly bool
}

// DefaultOptions returns the options used for general content.
func DefaultOptions() Options {
	return Options{
		Emphasis:    true,
		Transitions: true,
	}
}

// Pass is one named step of the normalization pipeline. Order matters:
// substitution passes assume markdown and spacing cleanup already ran.
type Pass struct {
	Name  string
	Apply func(string) string
}

// Pipeline returns the ordered pass list for the given options.
// The first three passes always run; the rest are option-gated.
func Pipeline(opts Options) []Pass {
	passes := []Pass{
		{Name: "strip_markdown", Apply: stripMarkdown},
		{Name: "normalize_punctuation", Apply: normalizePunctuation},
		{Name: "pause_triggers", Apply: insertPauses},
	}
	if opts.Emphasis {
		passes = append(passes, Pass{Name: "emphasis", Apply: addEmphasis})
	}
	if opts.Transitions {
		passes = append(passes, Pass{Name: "transitions", Apply: addTransitions})
	}
	if opts.ChildFriendly {
		passes = append(passes, Pass{Name: "excitement", Apply: addExcitement})
	}
	return passes
}

// General runs the full ordered pipeline with the given options.
func General(text string, opts Options) string {
	if text == "" {
		return ""
	}
	out := text
	for _, p := range Pipeline(opts) {
		out = p.Apply(out)
	}
	return strings.TrimSpace(out)
}

// ForStorytelling normalizes narrated story text: the full child-friendly
// pipeline plus dramatic pauses around classic story beats.
func ForStorytelling(text string) string {
	out := General(text, Options{
		Emphasis:      true,
		Transitions:   true,
		ChildFriendly: true,
	})
	return strings.TrimSpace(addStoryPauses(out))
}

// ForEducation normalizes tutor answers in a friendly register.
func ForEducation(text string) string {
	return General(text, Options{
		Emphasis:      true,
		Transitions:   true,
		ChildFriendly: true,
	})
}

// ForConversation normalizes casual chat replies.
func ForConversation(text string) string {
	return General(text, Options{
		Emphasis:      true,
		Transitions:   true,
		ChildFriendly: true,
	})
}

// ForBedtime normalizes wind-down content: emphasis and excitement are
// disabled entirely and calming substitutions are applied instead.
func ForBedtime(text string) string {
	out := General(text, Options{})
	return strings.TrimSpace(addGentling(out))
}
