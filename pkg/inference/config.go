package inference

import (
	"log/slog"
	"time"
)

// Config holds inference provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey  string
	BaseURL string

	// Model selection
	Model string

	// Generation defaults
	MaxTokens   int
	Temperature float64

	// Timeout bounds one generation call.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithMaxTokens sets the default response length limit.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxTokens:   1024,
		Temperature: 0.8,
		Timeout:     30 * time.Second,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
