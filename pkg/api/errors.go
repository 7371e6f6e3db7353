package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/murfkiddo/murfkiddo/internal/log"
	"github.com/murfkiddo/murfkiddo/pkg/prompts"
	"github.com/murfkiddo/murfkiddo/pkg/session"
	"github.com/murfkiddo/murfkiddo/pkg/settings"
	"github.com/murfkiddo/murfkiddo/pkg/transcribe"
	"github.com/murfkiddo/murfkiddo/pkg/tts"
)

// errBadBody marks a request body that would not parse.
var errBadBody = errors.New("api: malformed request body")

// Client-facing messages. Kids read these, so they name what to do
// next, never what broke.
const (
	msgValidation = "I didn't catch that. Can you tell me a little more?"
	msgTimeout    = "That took too long. Let's try again!"
	msgUpstream   = "Something went wrong on my side. Please try again!"
)

// fail maps an adapter error to a status and a kid-friendly envelope.
// The underlying error is logged, never returned to the client.
func (s *Server) fail(c *fiber.Ctx, mode string, err error) error {
	status := fiber.StatusInternalServerError
	msg := msgUpstream

	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, prompts.ErrMissingInput),
		errors.Is(err, transcribe.ErrNoAudio),
		errors.Is(err, settings.ErrInvalidSettings),
		errors.Is(err, session.ErrBadTransition),
		errors.Is(err, tts.ErrEmptyText):
		status = fiber.StatusBadRequest
		msg = msgValidation

	case errors.Is(err, context.DeadlineExceeded):
		status = fiber.StatusRequestTimeout
		msg = msgTimeout
	}

	logger := log.ForRequest(requestID(c), c.Path())
	if status == fiber.StatusBadRequest {
		logger.Debug("request rejected", "mode", mode, "error", err)
	} else {
		logger.Error("turn failed", "mode", mode, "status", status, "error", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// requestID pulls the middleware-assigned ID off the request context.
func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
