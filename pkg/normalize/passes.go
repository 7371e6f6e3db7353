package normalize

import (
	"regexp"
	"strings"
)

// Markdown patterns. Links are rewritten before emphasis markers so that
// [**bold link**](url) unwraps cleanly.
var (
	reLink      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	reBold      = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	reItalic    = regexp.MustCompile(`\*([^*]*)\*`)
	reBoldUnder = regexp.MustCompile(`__([^_]*)__`)
	reItalUnder = regexp.MustCompile(`\b_([^_]+)_\b`)
	reHeading   = regexp.MustCompile(`(?m)^#{1,6}[ \t]*`)
	reCodeFence = regexp.MustCompile("```[a-zA-Z0-9]*")
	reBacktick  = regexp.MustCompile("`")
)

// stripMarkdown removes formatting the model emits despite being asked
// for plain prose. Removal-only, so applying it twice is a no-op.
func stripMarkdown(s string) string {
	s = reLink.ReplaceAllString(s, "$1")
	s = reBold.ReplaceAllString(s, "$1")
	s = reItalic.ReplaceAllString(s, "$1")
	s = reBoldUnder.ReplaceAllString(s, "$1")
	s = reItalUnder.ReplaceAllString(s, "$1")
	s = reHeading.ReplaceAllString(s, "")
	s = reCodeFence.ReplaceAllString(s, "")
	s = reBacktick.ReplaceAllString(s, "")
	return s
}

var (
	reSpaceRun = regexp.MustCompile(`[ \t]{2,}`)
	// Letters only on the right: "3.14" and "1,000" must stay intact,
	// and an ellipsis must not be split into ". . .".
	rePunctTight = regexp.MustCompile(`([.!?,:;])(\p{L})`)
)

// normalizePunctuation collapses space runs and restores a single space
// after sentence punctuation so the voice gets a clean beat.
func normalizePunctuation(s string) string {
	s = reSpaceRun.ReplaceAllString(s, " ")
	s = rePunctTight.ReplaceAllString(s, "$1 $2")
	return s
}

// Trigger phrases get a breath after them. The optional trailing group
// swallows an existing ellipsis (or a period/comma) so re-application
// never stacks dots.
var rePause = regexp.MustCompile(`(?i)\b(once upon a time|all of a sudden|suddenly|the end)\b(\.\.\.|[.,])?`)

// insertPauses adds an ellipsis after dramatic trigger phrases.
func insertPauses(s string) string {
	return rePause.ReplaceAllStringFunc(s, func(m string) string {
		sub := rePause.FindStringSubmatch(m)
		return sub[1] + "..."
	})
}

// Emphasis substitutions. Each pattern optionally matches its own prefix
// so a second application rewrites to the same text instead of
// double-prefixing (Go regexp has no lookahead to guard with).
var (
	reExactly    = regexp.MustCompile(`(?i)\b(exactly\s+)?(one|two|three|four|five|six|seven|eight|nine|ten|\d+)\b`)
	reVery       = regexp.MustCompile(`(?i)\b(very\s+)?(important|special)\b`)
	reAbsolutely = regexp.MustCompile(`(?i)\b(absolutely\s+)?(amazing|incredible)\b`)
	reReally     = regexp.MustCompile(`(?i)\b(really\s+)?(excited|happy)\b`)
)

// addEmphasis prefixes counting words and a fixed adjective set so the
// voice leans on them.
func addEmphasis(s string) string {
	s = reExactly.ReplaceAllString(s, "exactly ${2}")
	s = reVery.ReplaceAllString(s, "very ${2}")
	s = reAbsolutely.ReplaceAllString(s, "absolutely ${2}")
	s = reReally.ReplaceAllString(s, "really ${2}")
	return s
}

// Sentence-initial transition words, captured with the word that follows
// so re-application can be detected without lookahead.
var reTransition = regexp.MustCompile(`(^|[.!?]\s+)(So|Well|Now)(,?\s+)([\pL\d']+)`)

var transitionFollowers = map[string]string{
	"So":   "then",
	"Well": "now",
	"Now":  "then",
}

// addTransitions softens sentence openers: "So" reads as "So then",
// "Well" as "Well now", "Now" as "Now then".
func addTransitions(s string) string {
	return reTransition.ReplaceAllStringFunc(s, func(m string) string {
		sub := reTransition.FindStringSubmatch(m)
		lead, word, gap, next := sub[1], sub[2], sub[3], sub[4]
		follower := transitionFollowers[word]
		if strings.EqualFold(next, follower) {
			return m
		}
		return lead + word + " " + follower + gap + next
	})
}

// Excitable register for the child-friendly categories.
var (
	reExcite = regexp.MustCompile(`(^|[.!?]\s+)(Amazing|Great|Awesome)\b`)
	reLets   = regexp.MustCompile(`(^|[.!?]\s+)Let's\b`)
)

// addExcitement turns sentence-initial exclamations into warmer openers.
// The replacements lower the trigger out of sentence-initial position,
// so a second application finds nothing to rewrite.
func addExcitement(s string) string {
	s = reExcite.ReplaceAllString(s, "${1}Oh, ${2}")
	s = reLets.ReplaceAllString(s, "${1}Come on, let's")
	return s
}

// Story beats that earn a longer beat than the general triggers.
var reStoryBeat = regexp.MustCompile(`(?i)\b(happily ever after|from that day on)\b(\.\.\.|[.,])?`)

// addStoryPauses appends pauses on classic ending beats.
func addStoryPauses(s string) string {
	return reStoryBeat.ReplaceAllStringFunc(s, func(m string) string {
		sub := reStoryBeat.FindStringSubmatch(m)
		return sub[1] + "..."
	})
}

// Calming substitutions for bedtime content, prefix-guarded the same way
// as the emphasis set.
var (
	reSleep = regexp.MustCompile(`(?i)\b(gently\s+)?(sleep)\b`)
	reDream = regexp.MustCompile(`(?i)\b(softly\s+)?(dreams?)\b`)
	reEyes  = regexp.MustCompile(`(?i)\b(slowly\s+)?(close your eyes)\b`)
)

// addGentling slows down the sleepy vocabulary.
func addGentling(s string) string {
	s = reEyes.ReplaceAllString(s, "slowly ${2}")
	s = reSleep.ReplaceAllString(s, "gently ${2}")
	s = reDream.ReplaceAllString(s, "softly ${2}")
	return s
}
