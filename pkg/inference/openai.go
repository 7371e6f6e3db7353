package inference

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/murfkiddo/murfkiddo/internal/httpc"
)

const providerOpenAI = "openai"

// OpenAI implements the Provider interface via the chat completions API.
// Any OpenAI-compatible endpoint works by overriding the base URL.
type OpenAI struct {
	client *openai.Client
	config *Config
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Model = openai.GPT4oMini
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerOpenAI, ErrNoAPIKey)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.HTTPClient = httpc.NewClient(cfg.Timeout)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		logger: cfg.Logger.With("component", "inference.openai"),
	}, nil
}

// Generate produces text from a prompt using chat completions.
func (o *OpenAI) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, WrapError(providerOpenAI, ErrEmptyPrompt)
	}

	start := time.Now()

	model := req.Model
	if model == "" {
		model = o.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.config.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = o.config.Temperature
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return nil, convertOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, WrapError(providerOpenAI, ErrEmptyResponse)
	}

	latency := time.Since(start).Milliseconds()
	o.logger.Debug("generated text",
		"model", model,
		"chars", len(resp.Choices[0].Message.Content),
		"latency_ms", latency,
	)

	return &Response{
		Text:         resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Model:        model,
		LatencyMs:    latency,
	}, nil
}

// Health checks connectivity by listing models.
func (o *OpenAI) Health(ctx context.Context) error {
	_, err := o.client.ListModels(ctx)
	if err != nil {
		return convertOpenAIError(err)
	}
	return nil
}

// Close releases resources held by the provider.
func (o *OpenAI) Close() error {
	return nil
}

// convertOpenAIError maps SDK errors into the package taxonomy so
// callers never see provider-specific shapes.
func convertOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Provider:   providerOpenAI,
		}
	}
	return WrapError(providerOpenAI, err)
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
