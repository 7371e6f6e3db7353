// Package api is the HTTP surface: six interaction modes over one
// shared pipeline (build prompt, generate, normalize, synthesize),
// plus transcription, parental settings, health, and the live
// activity websocket.
package api

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/murfkiddo/murfkiddo/internal/log"
	"github.com/murfkiddo/murfkiddo/pkg/hub"
	"github.com/murfkiddo/murfkiddo/pkg/inference"
	"github.com/murfkiddo/murfkiddo/pkg/session"
	"github.com/murfkiddo/murfkiddo/pkg/settings"
	"github.com/murfkiddo/murfkiddo/pkg/transcribe"
	"github.com/murfkiddo/murfkiddo/pkg/tts"
)

// Options carries the server's collaborators.
type Options struct {
	LLM    inference.Provider
	Speech tts.Provider
	STT    transcribe.Transcriber
	Store  settings.Store
	Feed   *hub.Hub

	// Voice is the default Murf voice when a mode does not override it.
	Voice string

	// Capture is the voice-capture tuning advertised to clients.
	Capture session.Config
}

// Server owns the Fiber app and routes.
type Server struct {
	app     *fiber.App
	llm     inference.Provider
	speech  tts.Provider
	stt     transcribe.Transcriber
	store   settings.Store
	feed    *hub.Hub
	voice   string
	capture session.Config
	machine *session.Machine
}

// uploadLimit bounds `/api/voice` audio uploads.
const uploadLimit = 15 * 1024 * 1024

// NewServer wires routes and middleware. Call Start to listen.
func NewServer(opts Options) *Server {
	opts.Capture.Clamp()
	s := &Server{
		llm:     opts.LLM,
		speech:  opts.Speech,
		stt:     opts.STT,
		store:   opts.Store,
		feed:    opts.Feed,
		voice:   opts.Voice,
		capture: opts.Capture,
	}

	// Capture-state changes go out on the activity feed so the parent
	// dashboard can show what the child is doing right now.
	machineCfg := opts.Capture
	machineCfg.OnTransition = func(from, to session.State, cause string) {
		if s.feed == nil {
			return
		}
		err := s.feed.Publish(hub.NewEvent(hub.KindSession, fiber.Map{
			"from":  from,
			"to":    to,
			"cause": cause,
		}))
		if err != nil {
			log.Warn("session publish failed", "error", err)
		}
	}
	s.machine = session.New(machineCfg)

	app := fiber.New(fiber.Config{
		AppName:               "MurfKiddo",
		DisableStartupMessage: true,
		BodyLimit:             uploadLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	app.Use(recoverer.New())
	app.Use(cors.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(s.logRequests)

	api := app.Group("/api")
	for _, mode := range s.modes() {
		api.Post(mode.Path, s.handleMode(mode))
	}
	api.Post("/voice", s.handleVoice)
	api.Post("/session/event", s.handleSessionEvent)
	api.Get("/settings", s.handleGetSettings)
	api.Post("/settings", s.handleUpdateSettings)
	api.Get("/health", s.handleHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/activity", websocket.New(s.handleActivityWS))

	s.app = app
	return s
}

// Start runs the feed hub and listens on addr. Blocks until shutdown.
func (s *Server) Start(addr string) error {
	if s.feed != nil {
		go s.feed.Run()
	}
	log.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the listener and disconnects feed clients.
func (s *Server) Shutdown() error {
	if s.feed != nil {
		s.feed.Stop()
	}
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// App exposes the Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// logRequests emits one structured line per request.
func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Info("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"ms", time.Since(start).Milliseconds(),
		"request_id", c.Locals("requestid"),
	)
	return err
}

// recordActivity stores a dashboard entry and pushes it on the feed.
func (s *Server) recordActivity(mode, summary string) {
	if s.store == nil {
		return
	}
	entry := s.store.AppendActivity(mode, summary)
	if s.feed != nil {
		if err := s.feed.Publish(hub.NewEvent(hub.KindActivity, entry)); err != nil {
			log.Warn("activity publish failed", "error", err)
		}
	}
}
