// Package inference provides a unified interface for generative-text
// providers.
//
// The package abstracts text generation behind a single Provider
// interface, enabling seamless switching between Gemini and any
// OpenAI-compatible API, plus a Chain for key-outage fallback and a Mock
// for tests.
//
// Example usage:
//
//	provider, _ := inference.NewGemini(
//	    inference.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	)
//	defer provider.Close()
//
//	resp, _ := provider.Generate(ctx, &inference.Request{
//	    Prompt: "Tell a story about a brave fox.",
//	})
//	// resp.Text contains the generated prose
package inference

import "context"

// Provider is the generative-text interface.
// All implementations must satisfy this interface.
type Provider interface {
	// Generate produces free text for a prompt.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Request for text generation.
type Request struct {
	// Prompt is the full instruction text.
	Prompt string

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0).
	Temperature float64
}

// Response from text generation.
type Response struct {
	// Text is the generated prose.
	Text string

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}
