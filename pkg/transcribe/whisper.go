package transcribe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/murfkiddo/murfkiddo/internal/httpc"
)

const providerWhisper = "whisper"

// Whisper implements Transcriber via the hosted Whisper API.
type Whisper struct {
	client  *openai.Client
	model   string
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

// WhisperOption configures the Whisper transcriber.
type WhisperOption func(*Whisper)

// WithModel overrides the default whisper-1 model.
func WithModel(model string) WhisperOption {
	return func(w *Whisper) {
		w.model = model
	}
}

// WithTimeout bounds one transcription call.
func WithTimeout(timeout time.Duration) WhisperOption {
	return func(w *Whisper) {
		w.timeout = timeout
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) WhisperOption {
	return func(w *Whisper) {
		w.baseURL = url
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) WhisperOption {
	return func(w *Whisper) {
		w.logger = logger
	}
}

// NewWhisper creates a Whisper transcriber.
func NewWhisper(apiKey string, opts ...WhisperOption) (*Whisper, error) {
	if apiKey == "" {
		return nil, WrapError(providerWhisper, ErrNoAPIKey)
	}

	w := &Whisper{
		model:   openai.Whisper1,
		timeout: 10 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "transcribe.whisper")

	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = httpc.NewClient(w.timeout)
	if w.baseURL != "" {
		cfg.BaseURL = w.baseURL
	}
	w.client = openai.NewClientWithConfig(cfg)

	return w, nil
}

// Transcribe sends the recording to Whisper. Timeouts and server-side
// failures come back as a fallback transcript, not an error, so the
// route can tell the client to use browser recognition.
func (w *Whisper) Transcribe(ctx context.Context, audio io.Reader, filename string) (*Transcript, error) {
	if audio == nil {
		return nil, WrapError(providerWhisper, ErrNoAudio)
	}
	if filename == "" {
		filename = "recording.webm"
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Reader:   audio,
		FilePath: filename,
	})
	if err != nil {
		if degradable(err) {
			w.logger.Warn("transcription degraded to browser fallback", "error", err)
			return &Transcript{Fallback: true, LatencyMs: time.Since(start).Milliseconds()}, nil
		}
		return nil, WrapError(providerWhisper, err)
	}

	text := strings.TrimSpace(resp.Text)
	w.logger.Debug("transcribed audio",
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &Transcript{
		Text:      text,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Close releases resources held by the transcriber.
func (w *Whisper) Close() error {
	return nil
}

// degradable reports whether the failure is one the caller can recover
// from with browser-side recognition: timeouts and provider-side errors,
// but not bad requests or bad credentials.
func degradable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return false
}

// Verify Whisper implements Transcriber at compile time.
var _ Transcriber = (*Whisper)(nil)
