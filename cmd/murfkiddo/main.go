// murfkiddo: voice interaction server for kids. Serves stories,
// tutoring, chat, games, language practice, and bedtime content,
// narrated by Murf voices.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/murfkiddo/murfkiddo/internal/config"
	"github.com/murfkiddo/murfkiddo/internal/log"
	"github.com/murfkiddo/murfkiddo/pkg/api"
	"github.com/murfkiddo/murfkiddo/pkg/hub"
	"github.com/murfkiddo/murfkiddo/pkg/inference"
	"github.com/murfkiddo/murfkiddo/pkg/session"
	"github.com/murfkiddo/murfkiddo/pkg/settings"
	"github.com/murfkiddo/murfkiddo/pkg/transcribe"
	"github.com/murfkiddo/murfkiddo/pkg/tts"
)

var configPath = flag.String("config", "", "path to TOML config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log.Init(cfg.Server.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	llm, err := buildGeneration(cfg)
	if err != nil {
		log.Error("generation provider", "error", err)
		os.Exit(1)
	}
	defer llm.Close()

	speech, err := tts.NewMurf(
		tts.WithAPIKey(cfg.Speech.MurfAPIKey),
		tts.WithVoice(cfg.Speech.VoiceID),
		tts.WithMaxChars(cfg.Speech.MaxChars),
		tts.WithLogger(log.With("component", "tts")),
	)
	if err != nil {
		log.Error("speech provider", "error", err)
		os.Exit(1)
	}
	defer speech.Close()

	stt, err := buildTranscriber(cfg)
	if err != nil {
		log.Error("transcriber", "error", err)
		os.Exit(1)
	}
	defer stt.Close()

	server := api.NewServer(api.Options{
		LLM:    llm,
		Speech: speech,
		STT:    stt,
		Store:  settings.NewMemory(cfg.Store.ActivityCap),
		Feed:   hub.New(),
		Voice:  cfg.Speech.VoiceID,
		Capture: session.Config{
			ListenWindow: cfg.ListenWindow(),
			MaxRestarts:  cfg.Session.MaxRestarts,
		},
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		log.Info("shutting down", "signal", sig.String())
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr); err != nil {
		log.Error("server", "error", err)
		os.Exit(1)
	}
}

// buildGeneration constructs the text provider. With both keys present
// Gemini is primary and OpenAI the fallback, chained so one provider
// outage does not take the app down.
func buildGeneration(cfg *config.Config) (inference.Provider, error) {
	var providers []inference.Provider

	if cfg.Generation.GeminiAPIKey != "" {
		gemini, err := inference.NewGemini(
			inference.WithAPIKey(cfg.Generation.GeminiAPIKey),
			inference.WithModel(cfg.Generation.GeminiModel),
			inference.WithLogger(log.With("component", "gemini")),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, gemini)
	}

	if cfg.Generation.OpenAIAPIKey != "" {
		oa, err := inference.NewOpenAI(
			inference.WithAPIKey(cfg.Generation.OpenAIAPIKey),
			inference.WithModel(cfg.Generation.OpenAIModel),
			inference.WithLogger(log.With("component", "openai")),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, oa)
	}

	if len(providers) == 1 {
		return providers[0], nil
	}
	return inference.NewChain(providers...)
}

// buildTranscriber constructs Whisper when an OpenAI key is available;
// otherwise a degraded transcriber that always signals the browser
// fallback, so voice capture still works client-side.
func buildTranscriber(cfg *config.Config) (transcribe.Transcriber, error) {
	if cfg.Transcribe.OpenAIAPIKey == "" {
		log.Warn("no transcription key, relying on browser recognition")
		return &transcribe.Disabled{}, nil
	}
	return transcribe.NewWhisper(
		cfg.Transcribe.OpenAIAPIKey,
		transcribe.WithModel(cfg.Transcribe.Model),
		transcribe.WithLogger(log.With("component", "whisper")),
	)
}
