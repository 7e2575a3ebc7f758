// Package web exposes the voice documentation assistant over HTTP: JSON
// endpoints for the query pipeline, documentation retrieval, completion
// analysis and speech synthesis, plus a WebSocket relay that streams
// browser microphone audio to the transcription vendor.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/voxdocs/voxdocs/internal/pipeline"
	"github.com/voxdocs/voxdocs/pkg/stt"
	"github.com/voxdocs/voxdocs/pkg/tts"
)

// SessionDialer opens streaming transcription sessions for the voice
// relay. *stt.Client satisfies it.
type SessionDialer interface {
	Dial(ctx context.Context) (stt.Session, error)
}

// Cleaner rewrites answer text into speakable form before synthesis.
// *speakable.Rewriter satisfies it.
type Cleaner interface {
	Rewrite(ctx context.Context, text string) string
}

// Server is the HTTP front end.
type Server struct {
	app    *fiber.App
	port   string
	model  string
	logger *slog.Logger

	pipe    *pipeline.Pipeline
	docs    pipeline.Gatherer
	tts     tts.Provider // nil means on-device speech only
	stt     SessionDialer
	cleaner Cleaner // nil falls back to the regex cleaner
}

// Option configures the server.
type Option func(*Server)

// WithPort sets the listen port. Default: 3001.
func WithPort(port string) Option {
	return func(s *Server) { s.port = port }
}

// WithModel names the completion model reported by analyze responses.
func WithModel(model string) Option {
	return func(s *Server) { s.model = model }
}

// WithTTS enables server-side speech synthesis. Without it every TTS
// request answers with the on-device fallback signal.
func WithTTS(provider tts.Provider) Option {
	return func(s *Server) { s.tts = provider }
}

// WithSTT enables the voice relay endpoint.
func WithSTT(dialer SessionDialer) Option {
	return func(s *Server) { s.stt = dialer }
}

// WithCleaner sets the speakable-text rewriter used before synthesis.
func WithCleaner(cleaner Cleaner) Option {
	return func(s *Server) { s.cleaner = cleaner }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(pipe *pipeline.Pipeline, gatherer pipeline.Gatherer, opts ...Option) *Server {
	s := &Server{
		port:   "3001",
		logger: slog.Default(),
		pipe:   pipe,
		docs:   gatherer,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("component", "web")

	app := fiber.New(fiber.Config{
		AppName:               "voxdocs",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(fiberlogger.New())

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Post("/voice-query", s.handleVoiceQuery)
	api.Post("/documentation-context", s.handleDocumentationContext)
	api.Post("/completion-analyze", s.handleCompletionAnalyze)
	api.Post("/tts", s.handleTTS)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/voice", websocket.New(s.handleVoiceWS))

	s.app = app
	return s
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
