// Package tts provides a unified interface for text-to-speech providers.
//
// The primary backend is Murf, which synthesizes plain text with
// punctuation-driven pacing and returns a hosted audio URL. All providers
// implement the Provider interface, so callers can swap in the Mock for
// tests or a Chain for fallback without changing code.
//
// Example usage:
//
//	provider, _ := tts.NewMurf(
//	    tts.WithAPIKey(os.Getenv("MURF_API_KEY")),
//	    tts.WithVoice("en-US-natalie"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, &tts.SpeechRequest{
//	    Text:  "Once upon a time...",
//	    Style: tts.StyleNarration,
//	})
//	// result.AudioURL is a playable MP3 URL
package tts

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to speech and returns a hosted audio URL.
	Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Style selects the delivery register of the voice.
type Style string

const (
	// StyleConversational suits chat, games, and tutoring.
	StyleConversational Style = "Conversational"

	// StyleNarration suits stories and bedtime content.
	StyleNarration Style = "Narration"
)

// SpeechRequest describes one synthesis call.
type SpeechRequest struct {
	// Text is the prose to speak. Must be non-empty; it is defensively
	// truncated to the provider ceiling before sending.
	Text string

	// VoiceID selects the voice. Empty uses the provider's configured
	// default.
	VoiceID string

	// Style selects the delivery register. Empty defaults to
	// Conversational.
	Style Style

	// Rate adjusts speaking speed as a percent offset (-50..50).
	// Negative is slower; bedtime content uses around -10.
	Rate int
}

// SpeechResult is a completed synthesis.
type SpeechResult struct {
	// AudioURL is the provider-hosted audio file.
	AudioURL string

	// AudioLengthSec is the reported playback length in seconds.
	AudioLengthSec float64

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis round-trip time in milliseconds.
	LatencyMs int64
}

// MaxTextChars is the defensive ceiling on synthesized text. Murf does
// not document a hard limit; requests near this size have been observed
// to succeed while much larger ones are rejected.
const MaxTextChars = 3000

// Truncate caps text at limit bytes, cutting back to the last sentence
// boundary when one exists in the kept region so speech does not stop
// mid-word. The cut never splits a multi-byte rune.
func Truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}

	cut := text[:limit]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}

	if i := strings.LastIndexAny(cut, ".!?"); i > limit/2 {
		return cut[:i+1]
	}
	if i := strings.LastIndex(cut, " "); i > 0 {
		return cut[:i]
	}
	return cut
}
