package inference

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

const providerGemini = "gemini"

// Gemini implements the Provider interface for Google's Gemini API.
// Gemini uses its own request format rather than the OpenAI one, so the
// HTTP call is implemented directly.
type Gemini struct {
	apiKey string
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini provider.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	cfg.Model = "gemini-2.0-flash"
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}

	return &Gemini{
		apiKey: cfg.APIKey,
		config: cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "inference.gemini"),
	}, nil
}

// geminiResponse is the subset of the generateContent response we use.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate produces text from a prompt using Gemini.
func (g *Gemini) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, WrapError(providerGemini, ErrEmptyPrompt)
	}

	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.config.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.config.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = g.config.Temperature
	}

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": req.Prompt}},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     temperature,
			"maxOutputTokens": maxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.config.BaseURL, model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, g.parseError(resp)
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("decode response: %w", err))
	}

	if result.Error.Message != "" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    result.Error.Message,
			Provider:   providerGemini,
		}
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, WrapError(providerGemini, ErrEmptyResponse)
	}

	latency := time.Since(start).Milliseconds()
	g.logger.Debug("generated text",
		"model", model,
		"chars", len(result.Candidates[0].Content.Parts[0].Text),
		"latency_ms", latency,
	)

	return &Response{
		Text:         result.Candidates[0].Content.Parts[0].Text,
		FinishReason: result.Candidates[0].FinishReason,
		Model:        model,
		LatencyMs:    latency,
	}, nil
}

// Health checks connectivity with a minimal generation call.
func (g *Gemini) Health(ctx context.Context) error {
	_, err := g.Generate(ctx, &Request{Prompt: "Say OK.", MaxTokens: 5})
	return err
}

// Close releases resources held by the provider.
func (g *Gemini) Close() error {
	g.http.CloseIdleConnections()
	return nil
}

// parseError reads and parses a non-200 response.
func (g *Gemini) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerGemini,
	}
}

// Verify Gemini implements Provider at compile time.
var _ Provider = (*Gemini)(nil)
