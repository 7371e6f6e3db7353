// Package config loads murfkiddo server configuration from an optional
// TOML file with environment variable overrides. Environment always wins
// so deployments can keep secrets out of the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	LogLevel string `toml:"log_level"`
}

// GenerationConfig holds generative-text provider settings.
type GenerationConfig struct {
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`
	OpenAIAPIKey string `toml:"openai_api_key"`
	OpenAIModel  string `toml:"openai_model"`
}

// SpeechConfig holds Murf TTS settings.
type SpeechConfig struct {
	MurfAPIKey string `toml:"murf_api_key"`
	// VoiceID is the default narration voice; modes may override.
	VoiceID string `toml:"voice_id"`
	// MaxChars caps synthesized text length before truncation.
	MaxChars int `toml:"max_chars"`
}

// TranscribeConfig holds Whisper speech-to-text settings.
type TranscribeConfig struct {
	OpenAIAPIKey string `toml:"openai_api_key"`
	Model        string `toml:"model"`
}

// SessionConfig tunes the voice-capture state machine.
type SessionConfig struct {
	ListenWindowSeconds int `toml:"listen_window_seconds"`
	MaxRestarts         int `toml:"max_restarts"`
}

// StoreConfig tunes the in-memory settings/activity store.
type StoreConfig struct {
	ActivityCap int `toml:"activity_cap"`
}

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Generation GenerationConfig `toml:"generation"`
	Speech     SpeechConfig     `toml:"speech"`
	Transcribe TranscribeConfig `toml:"transcribe"`
	Session    SessionConfig    `toml:"session"`
	Store      StoreConfig      `toml:"store"`
}

// Default returns the baseline configuration before file and env overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:     ":8080",
			LogLevel: "info",
		},
		Generation: GenerationConfig{
			GeminiModel: "gemini-2.0-flash",
			OpenAIModel: "gpt-4o-mini",
		},
		Speech: SpeechConfig{
			VoiceID:  "en-US-natalie",
			MaxChars: 3000,
		},
		Transcribe: TranscribeConfig{
			Model: "whisper-1",
		},
		Session: SessionConfig{
			ListenWindowSeconds: 15,
			MaxRestarts:         2,
		},
		Store: StoreConfig{
			ActivityCap: 50,
		},
	}
}

// Load reads configuration from path (if non-empty and present) and then
// applies environment overrides. A missing file is not an error; a
// malformed file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	setIfEnv(&c.Server.Addr, "MURFKIDDO_ADDR")
	setIfEnv(&c.Server.LogLevel, "MURFKIDDO_LOG_LEVEL")
	setIfEnv(&c.Generation.GeminiAPIKey, "GEMINI_API_KEY")
	setIfEnv(&c.Generation.GeminiModel, "GEMINI_MODEL")
	setIfEnv(&c.Generation.OpenAIAPIKey, "OPENAI_API_KEY")
	setIfEnv(&c.Generation.OpenAIModel, "OPENAI_MODEL")
	setIfEnv(&c.Speech.MurfAPIKey, "MURF_API_KEY")
	setIfEnv(&c.Speech.VoiceID, "MURF_VOICE_ID")
	setIfEnv(&c.Transcribe.OpenAIAPIKey, "OPENAI_API_KEY")
	setIfEnv(&c.Transcribe.Model, "WHISPER_MODEL")
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ListenWindow returns the session listening window as a duration,
// clamped to the 15-20s range the capture UI supports.
func (c *Config) ListenWindow() time.Duration {
	secs := c.Session.ListenWindowSeconds
	if secs < 15 {
		secs = 15
	}
	if secs > 20 {
		secs = 20
	}
	return time.Duration(secs) * time.Second
}

// Validate checks that at least one generation provider and the speech
// provider are configured.
func (c *Config) Validate() error {
	if c.Generation.GeminiAPIKey == "" && c.Generation.OpenAIAPIKey == "" {
		return fmt.Errorf("config: at least one of GEMINI_API_KEY or OPENAI_API_KEY is required")
	}
	if c.Speech.MurfAPIKey == "" {
		return fmt.Errorf("config: MURF_API_KEY is required")
	}
	return nil
}
