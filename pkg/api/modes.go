package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/murfkiddo/murfkiddo/internal/log"
	"github.com/murfkiddo/murfkiddo/pkg/inference"
	"github.com/murfkiddo/murfkiddo/pkg/normalize"
	"github.com/murfkiddo/murfkiddo/pkg/prompts"
	"github.com/murfkiddo/murfkiddo/pkg/tts"
)

// ModeConfig parameterizes the shared interaction pipeline for one mode.
type ModeConfig struct {
	// Name tags activity entries and logs.
	Name string

	// Path is the route under /api.
	Path string

	// Build parses the request body and produces the model prompt.
	Build func(c *fiber.Ctx) (prompts.Prompt, error)

	// Normalize prepares generated prose for narration.
	Normalize func(string) string

	// TextField is the envelope key the generated prose is returned
	// under ("story", "reply", ...).
	TextField string

	// EchoField, when set, returns the prompt's resolved label under
	// this key ("gameType", "language", "contentType").
	EchoField string

	// Style and Rate tune the voice delivery.
	Style tts.Style
	Rate  int

	// Timeout bounds the whole turn: generation plus synthesis.
	Timeout time.Duration

	// AllowTextOnly degrades a synthesis failure to a text-only
	// success instead of failing the turn.
	AllowTextOnly bool
}

type storyRequest struct {
	Topic     string `json:"topic"`
	StoryType string `json:"storyType"`
	Length    string `json:"length"`
}

type tutorRequest struct {
	Question string `json:"question"`
	Subject  string `json:"subject"`
}

type chatRequest struct {
	Message string         `json:"message"`
	History []prompts.Turn `json:"history"`
}

type playRequest struct {
	GameType   string `json:"gameType"`
	Difficulty string `json:"difficulty"`
	UserAnswer string `json:"userAnswer"`
}

type languageRequest struct {
	Action         string `json:"action"`
	TargetLanguage string `json:"targetLanguage"`
	Text           string `json:"text"`
}

type bedtimeRequest struct {
	ContentType string `json:"contentType"`
	Topic       string `json:"topic"`
}

// modes is the route table. Story and bedtime get the long window and
// the narration voice; chat is the only mode that survives a synthesis
// failure with text alone, because a typed conversation still works
// without audio while a story or lesson does not.
func (s *Server) modes() []ModeConfig {
	return []ModeConfig{
		{
			Name: "story", Path: "/story",
			Build: func(c *fiber.Ctx) (prompts.Prompt, error) {
				var req storyRequest
				if err := c.BodyParser(&req); err != nil {
					return prompts.Prompt{}, fmt.Errorf("%w: %v", errBadBody, err)
				}
				return prompts.Story(req.Topic, req.StoryType, req.Length)
			},
			Normalize: normalize.ForStorytelling,
			TextField: "story",
			Style:     tts.StyleNarration,
			Timeout:   30 * time.Second,
		},
		{
			Name: "tutor", Path: "/tutor",
			Build: func(c *fiber.Ctx) (prompts.Prompt, error) {
				var req tutorRequest
				if err := c.BodyParser(&req); err != nil {
					return prompts.Prompt{}, fmt.Errorf("%w: %v", errBadBody, err)
				}
				return prompts.Tutor(req.Question, req.Subject)
			},
			Normalize: normalize.ForEducation,
			TextField: "answer",
			Style:     tts.StyleConversational,
			Timeout:   20 * time.Second,
		},
		{
			Name: "chat", Path: "/chat",
			Build: func(c *fiber.Ctx) (prompts.Prompt, error) {
				var req chatRequest
				if err := c.BodyParser(&req); err != nil {
					return prompts.Prompt{}, fmt.Errorf("%w: %v", errBadBody, err)
				}
				return prompts.Chat(req.Message, req.History)
			},
			Normalize:     normalize.ForConversation,
			TextField:     "reply",
			Style:         tts.StyleConversational,
			Timeout:       15 * time.Second,
			AllowTextOnly: true,
		},
		{
			Name: "play", Path: "/play",
			Build: func(c *fiber.Ctx) (prompts.Prompt, error) {
				var req playRequest
				if err := c.BodyParser(&req); err != nil {
					return prompts.Prompt{}, fmt.Errorf("%w: %v", errBadBody, err)
				}
				return prompts.Play(req.GameType, req.Difficulty, req.UserAnswer)
			},
			Normalize: normalize.ForConversation,
			TextField: "game",
			EchoField: "gameType",
			Style:     tts.StyleConversational,
			Timeout:   20 * time.Second,
		},
		{
			Name: "language", Path: "/language",
			Build: func(c *fiber.Ctx) (prompts.Prompt, error) {
				var req languageRequest
				if err := c.BodyParser(&req); err != nil {
					return prompts.Prompt{}, fmt.Errorf("%w: %v", errBadBody, err)
				}
				return prompts.Language(req.Action, req.TargetLanguage, req.Text)
			},
			Normalize: normalize.ForEducation,
			TextField: "lesson",
			EchoField: "language",
			Style:     tts.StyleConversational,
			Timeout:   20 * time.Second,
		},
		{
			Name: "bedtime", Path: "/bedtime",
			Build: func(c *fiber.Ctx) (prompts.Prompt, error) {
				var req bedtimeRequest
				if err := c.BodyParser(&req); err != nil {
					return prompts.Prompt{}, fmt.Errorf("%w: %v", errBadBody, err)
				}
				return prompts.Bedtime(req.ContentType, req.Topic)
			},
			Normalize: normalize.ForBedtime,
			TextField: "content",
			EchoField: "contentType",
			Style:     tts.StyleNarration,
			Rate:      -10,
			Timeout:   30 * time.Second,
		},
	}
}

// handleMode runs the shared pipeline for one mode.
func (s *Server) handleMode(mode ModeConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := mode.Build(c)
		if err != nil {
			return s.fail(c, mode.Name, err)
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), mode.Timeout)
		defer cancel()

		gen, err := s.llm.Generate(ctx, &inference.Request{Prompt: p.Text})
		if err != nil {
			return s.fail(c, mode.Name, err)
		}

		payload := fiber.Map{
			"success":      true,
			mode.TextField: gen.Text,
		}
		if p.Title != "" {
			payload["title"] = p.Title
		}
		if mode.EchoField != "" {
			payload[mode.EchoField] = p.Label
		}

		spoken := mode.Normalize(gen.Text)
		speech, err := s.speech.Synthesize(ctx, &tts.SpeechRequest{
			Text:    spoken,
			VoiceID: s.voice,
			Style:   mode.Style,
			Rate:    mode.Rate,
		})
		switch {
		case err == nil:
			payload["audioUrl"] = speech.AudioURL
			payload["audioSeconds"] = speech.AudioLengthSec
		case mode.AllowTextOnly:
			log.Warn("synthesis failed, returning text only",
				"mode", mode.Name, "error", err)
			payload["audioUrl"] = nil
		default:
			return s.fail(c, mode.Name, err)
		}

		s.recordActivity(mode.Name, activitySummary(mode, p))
		return c.JSON(payload)
	}
}

// activitySummary produces the one-line dashboard entry for a turn.
func activitySummary(mode ModeConfig, p prompts.Prompt) string {
	switch {
	case p.Title != "":
		return p.Title
	case p.Label != "":
		return p.Label
	default:
		return mode.Name
	}
}
