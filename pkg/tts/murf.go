package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/murfkiddo/murfkiddo/internal/httpc"
)

const (
	murfBaseURL  = "https://api.murf.ai/v1"
	providerMurf = "murf"
)

// Murf implements Provider for the Murf speech generation API.
type Murf struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewMurf creates a new Murf TTS provider.
func NewMurf(opts ...Option) (*Murf, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = murfBaseURL
	}

	return &Murf{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.murf"),
		baseURL: baseURL,
	}, nil
}

// murfGenerateResponse is the subset of the generate response we use.
type murfGenerateResponse struct {
	AudioFile            string  `json:"audioFile"`
	AudioLengthInSeconds float64 `json:"audioLengthInSeconds"`
	ConsumedCharacters   int     `json:"consumedCharacterCount"`
}

// Synthesize converts text to speech via the Murf generate endpoint.
func (m *Murf) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return nil, WrapError(providerMurf, ErrEmptyText)
	}

	start := time.Now()

	text := Truncate(req.Text, m.config.MaxChars)
	payload := m.buildPayload(text, req)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerMurf, fmt.Errorf("marshal payload: %w", err))
	}

	url := fmt.Sprintf("%s/speech/generate", m.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerMurf, fmt.Errorf("create request: %w", err))
	}
	m.setHeaders(httpReq)

	resp, err := m.doWithRetry(ctx, httpReq, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, m.parseError(resp)
	}

	var result murfGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerMurf, fmt.Errorf("decode response: %w", err))
	}
	if result.AudioFile == "" {
		return nil, WrapError(providerMurf, fmt.Errorf("no audio file in response"))
	}

	m.logger.Debug("synthesized speech",
		"chars", len(text),
		"length_sec", result.AudioLengthInSeconds,
		"latency_ms", latency,
		"voice", m.voiceID(req),
	)

	return &SpeechResult{
		AudioURL:       result.AudioFile,
		AudioLengthSec: result.AudioLengthInSeconds,
		CharCount:      len(text),
		LatencyMs:      latency,
	}, nil
}

// Health checks API connectivity and key validity via the voices list.
func (m *Murf) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/speech/voices", m.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return WrapError(providerMurf, err)
	}
	req.Header.Set("api-key", m.config.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return WrapError(providerMurf, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return m.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (m *Murf) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

// VoiceID returns the configured default voice ID.
func (m *Murf) VoiceID() string {
	return m.config.VoiceID
}

// voiceID resolves the voice for one request.
func (m *Murf) voiceID(req *SpeechRequest) string {
	if req.VoiceID != "" {
		return req.VoiceID
	}
	return m.config.VoiceID
}

// buildPayload constructs the generate request payload.
func (m *Murf) buildPayload(text string, req *SpeechRequest) map[string]interface{} {
	style := req.Style
	if style == "" {
		style = m.config.Style
	}
	rate := req.Rate
	if rate == 0 {
		rate = m.config.Rate
	}

	return map[string]interface{}{
		"voiceId":     m.voiceID(req),
		"text":        text,
		"style":       string(style),
		"rate":        rate,
		"format":      m.config.Format,
		"sampleRate":  m.config.SampleRate,
		"channelType": "MONO",
	}
}

// setHeaders sets required HTTP headers.
func (m *Murf) setHeaders(req *http.Request) {
	req.Header.Set("api-key", m.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// doWithRetry performs the request, retrying rate limits and 5xx.
func (m *Murf) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= m.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, WrapError(providerMurf, ctx.Err())
			case <-time.After(m.config.RetryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := m.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerMurf, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = m.parseError(resp)
			m.logger.Warn("retrying synthesis",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (m *Murf) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var errResp struct {
		ErrorMessage string `json:"errorMessage"`
		Message      string `json:"message"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.ErrorMessage != "" {
			message = errResp.ErrorMessage
		} else if errResp.Message != "" {
			message = errResp.Message
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerMurf,
	}
}

// Verify Murf implements Provider at compile time.
var _ Provider = (*Murf)(nil)
