package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/PromptOps/PromptForge/pkg/config"
	handlers "github.com/PromptOps/PromptForge/pkg/handlers/http"
)

type (
	DI struct {
		HandlerTransport handlers.HandlerTransport
		Config           *config.Config
		Logger           *logrus.Logger
	}
	Server struct {
		config           *config.Config
		logger           *logrus.Logger
		router           *fiber.App
		handlerTransport handlers.HandlerTransport
	}
)

func NewServer(di DI) *Server {
	r := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             1 * 1024 * 1024,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	r.Use(recover.New())

	return &Server{
		config:           di.Config,
		logger:           di.Logger,
		router:           r,
		handlerTransport: di.HandlerTransport,
	}
}

func (s *Server) Run() error {
	s.setupRoutes()
	s.setupHealthCheck()
	s.setupMetricsEndpoint()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.WithField("addr", addr).Info("Starting server")
	return s.router.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.router.Shutdown()
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		optimization := v1.Group("/optimization")
		{
			optimization.Post("", s.handlerTransport.CreateOptimizationHandler.Handle)
			optimization.Get("", s.handlerTransport.ListOptimizationsHandler.Handle)
			optimization.Get("/:job_id", s.handlerTransport.GetOptimizationHandler.Handle)
		}

		prompts := v1.Group("/prompts")
		{
			prompts.Post("/analyze", s.handlerTransport.AnalyzePromptHandler.Handle)
		}

		security := v1.Group("/security")
		{
			security.Post("/scan-prompt", s.handlerTransport.ScanPromptHandler.Handle)
			security.Post("/validate-prompt", s.handlerTransport.ValidatePromptHandler.Handle)
			security.Get("/guardrails/stats", s.handlerTransport.GuardrailStatsHandler.Handle)
		}
	}
}

func (s *Server) setupHealthCheck() {
	s.router.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}

func (s *Server) setupMetricsEndpoint() {
	s.router.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})
}
