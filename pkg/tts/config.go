package tts

import (
	"log/slog"
	"time"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey  string
	BaseURL string

	// Voice defaults applied when a request leaves them empty.
	VoiceID string
	Style   Style
	Rate    int

	// Audio output
	Format     string
	SampleRate int

	// MaxChars caps synthesized text length; longer text is truncated
	// at a sentence boundary.
	MaxChars int

	// Timeout bounds one synthesis call.
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
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

// WithVoice sets the default voice ID.
func WithVoice(voiceID string) Option {
	return func(c *Config) {
		c.VoiceID = voiceID
	}
}

// WithStyle sets the default delivery style.
func WithStyle(style Style) Option {
	return func(c *Config) {
		c.Style = style
	}
}

// WithRate sets the default speed adjustment percent.
func WithRate(rate int) Option {
	return func(c *Config) {
		c.Rate = rate
	}
}

// WithMaxChars sets the truncation ceiling for synthesized text.
func WithMaxChars(n int) Option {
	return func(c *Config) {
		c.MaxChars = n
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
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
		Style:      StyleConversational,
		Format:     "MP3",
		SampleRate: 24000,
		MaxChars:   MaxTextChars,
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		RetryDelay: 200 * time.Millisecond,
		Logger:     slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.VoiceID == "" {
		return ErrNoVoiceID
	}
	return nil
}
