// Package transcribe provides speech-to-text via the Whisper API.
//
// The browser already has its own speech recognition, so this package is
// a second line: when the hosted model cannot produce a usable
// transcript, the result carries a Fallback flag telling the caller to
// degrade to browser-side recognition instead of failing the whole
// interaction.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Sentinel errors.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("transcribe: API key required")

	// ErrNoAudio is returned when no audio data is provided.
	ErrNoAudio = errors.New("transcribe: audio data required")
)

// Transcriber converts recorded audio into text.
type Transcriber interface {
	// Transcribe converts one audio recording into a transcript.
	// filename carries the original extension so the provider can pick
	// a decoder.
	Transcribe(ctx context.Context, audio io.Reader, filename string) (*Transcript, error)

	// Close releases any resources held by the transcriber.
	Close() error
}

// Transcript is the result of one transcription.
type Transcript struct {
	// Text is the recognized speech. Empty when Fallback is set.
	Text string

	// Fallback is true when transcription was not usable and the
	// caller should degrade to browser-side recognition.
	Fallback bool

	// LatencyMs is the round-trip time in milliseconds.
	LatencyMs int64
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("transcribe [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// Disabled is the transcriber used when no hosted model is configured.
// Every call signals the browser-recognition fallback.
type Disabled struct{}

var _ Transcriber = (*Disabled)(nil)

// Transcribe immediately signals fallback.
func (*Disabled) Transcribe(ctx context.Context, audio io.Reader, filename string) (*Transcript, error) {
	if audio == nil {
		return nil, ErrNoAudio
	}
	return &Transcript{Fallback: true}, nil
}

// Close is a no-op.
func (*Disabled) Close() error { return nil }
