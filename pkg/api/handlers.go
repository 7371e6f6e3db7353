package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/murfkiddo/murfkiddo/pkg/hub"
	"github.com/murfkiddo/murfkiddo/pkg/settings"
	"github.com/murfkiddo/murfkiddo/pkg/transcribe"
)

// voiceTimeout bounds one transcription round trip.
const voiceTimeout = 10 * time.Second

// handleVoice accepts either an `audio` multipart file for server-side
// transcription or a `transcript` field already recognized in the
// browser. Degraded transcription is not an error: the client falls
// back to browser recognition when `fallback` is set.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	if transcript := strings.TrimSpace(c.FormValue("transcript")); transcript != "" {
		return c.JSON(fiber.Map{
			"success":    true,
			"transcript": transcript,
			"fallback":   false,
		})
	}

	header, err := c.FormFile("audio")
	if err != nil {
		return s.fail(c, "voice", transcribe.ErrNoAudio)
	}
	file, err := header.Open()
	if err != nil {
		return s.fail(c, "voice", err)
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(c.UserContext(), voiceTimeout)
	defer cancel()

	result, err := s.stt.Transcribe(ctx, file, header.Filename)
	if err != nil {
		return s.fail(c, "voice", err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"transcript": result.Text,
		"fallback":   result.Fallback,
	})
}

type sessionEventRequest struct {
	Event string `json:"event"`
	Text  string `json:"text"`
}

// handleSessionEvent drives the voice-capture machine from the client's
// recognition callbacks. Every accepted event publishes the resulting
// transition on the activity feed; the response carries the new state
// so the client stays in sync.
func (s *Server) handleSessionEvent(c *fiber.Ctx) error {
	var req sessionEventRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, "session", errBadBody)
	}

	var err error
	switch strings.ToLower(strings.TrimSpace(req.Event)) {
	case "start":
		err = s.machine.Start()
	case "interim":
		s.machine.SpeechInterim(req.Text)
	case "result":
		err = s.machine.SpeechResult(req.Text)
	case "error":
		err = s.machine.SpeechError()
	case "expired":
		s.machine.CountdownExpired()
	case "responded":
		err = s.machine.ServerResponded()
	case "failed":
		err = s.machine.ServerFailed()
	case "retry":
		err = s.machine.Retry()
	case "reset":
		s.machine.Reset()
	default:
		err = fmt.Errorf("%w: unknown event %q", errBadBody, req.Event)
	}
	if err != nil {
		return s.fail(c, "session", err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"state":        s.machine.State(),
		"restarts":     s.machine.Restarts(),
		"textFallback": s.machine.TextFallback(),
	})
}

// handleGetSettings returns the parental settings, recent activity,
// and the voice-capture tuning the client state machine should use.
func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":    true,
		"settings":   s.store.Settings(),
		"activities": s.store.Activities(),
		"capture": fiber.Map{
			"listenWindowSeconds": int(s.capture.ListenWindow.Seconds()),
			"maxRestarts":         s.capture.MaxRestarts,
		},
	})
}

// handleUpdateSettings replaces the parental settings wholesale.
func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	var update settings.Settings
	if err := c.BodyParser(&update); err != nil {
		return s.fail(c, "settings", errBadBody)
	}
	if err := s.store.ReplaceSettings(update); err != nil {
		return s.fail(c, "settings", err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"settings": s.store.Settings(),
	})
}

// healthTimeout bounds the provider probes.
const healthTimeout = 5 * time.Second

// handleHealth probes the generation and speech providers. The
// endpoint itself always answers 200; the body reports per-component
// state so a dashboard can show partial outages.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	components := fiber.Map{}
	healthy := true

	if err := s.llm.Health(ctx); err != nil {
		components["generation"] = "unavailable"
		healthy = false
	} else {
		components["generation"] = "ok"
	}

	if err := s.speech.Health(ctx); err != nil {
		components["speech"] = "unavailable"
		healthy = false
	} else {
		components["speech"] = "ok"
	}

	status := "ok"
	if !healthy {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"status":     status,
		"components": components,
	})
}

// handleActivityWS serves the parent-dashboard feed. New clients get a
// hello snapshot so they can render before the next live event.
func (s *Server) handleActivityWS(conn *websocket.Conn) {
	hello := hub.NewEvent(hub.KindHello, fiber.Map{
		"settings":   s.store.Settings(),
		"activities": s.store.Activities(),
	})
	client := hub.NewClient(s.feed, conn, hello)
	client.Run()
}
