// Package server exposes the upload pipeline over HTTP with Fiber.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/mrsingh-rishi/voice-instructor/config"
	"github.com/mrsingh-rishi/voice-instructor/metrics"
	"github.com/mrsingh-rishi/voice-instructor/model"
	"github.com/mrsingh-rishi/voice-instructor/pipeline"
)

const (
	ServiceName    = "voice-instructor"
	ServiceVersion = "1.0.0"
)

// Processor runs one upload through framing, transcription and, optionally,
// instruction. *pipeline.Pipeline satisfies it.
type Processor interface {
	Process(ctx context.Context, pcm model.PCM, withInstruction bool) (*pipeline.Result, error)
	BreakerStates() map[string]string
}

type Server struct {
	app      *fiber.App
	cfg      config.HTTPConfig
	pipeline Processor
	metrics  *metrics.Metrics
	logger   *zap.Logger
	started  time.Time
}

// New builds the Fiber app and registers every route.
func New(cfg config.HTTPConfig, p Processor, m *metrics.Metrics, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		metrics:  m,
		logger:   logger,
		started:  time.Now(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               ServiceName,
		ServerHeader:          ServiceName,
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          ErrorHandler(cfg, logger, m),
	})

	s.app.Use(requestID())
	s.app.Use(requestLogger(logger, m))
	s.app.Use(recover.New())

	s.routes()
	return s
}

func (s *Server) routes() {
	instruct := s.upload(true)
	raw := s.upload(false)

	// unversioned path keeps the original instruction response
	s.app.Post("/upload-audio/", instruct)

	v1 := s.app.Group("/v1")
	v1.Post("/upload-audio/", raw)

	v2 := s.app.Group("/v2")
	v2.Post("/upload-audio/", instruct)

	s.app.Post("/convert-audio/", s.convert)
	s.app.Get("/health", s.health)

	exporter := fasthttpadaptor.NewFastHTTPHandler(s.metrics.Handler())
	s.app.Get("/metrics", func(c *fiber.Ctx) error {
		exporter(c.Context())
		return nil
	})
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured address until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info("http server listening", zap.String("address", s.cfg.Address))
	return s.app.Listen(s.cfg.Address)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
