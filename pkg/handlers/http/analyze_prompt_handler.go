package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/PromptOps/PromptForge/pkg/analyzer"
	"github.com/PromptOps/PromptForge/pkg/cache"
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type analyzePromptHandler struct {
	logger   *logrus.Logger
	analyzer *analyzer.Analyzer
	cache    *cache.AnalysisCache
}

func NewAnalyzePromptHandler(logger *logrus.Logger, a *analyzer.Analyzer, c *cache.AnalysisCache) Handler {
	return &analyzePromptHandler{logger: logger, analyzer: a, cache: c}
}

func (h *analyzePromptHandler) Handle(c *fiber.Ctx) error {
	var req promptRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind analyze request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if metrics, ok := h.cache.Get(c.Context(), req.Prompt); ok {
		return c.Status(fiber.StatusOK).JSON(metrics)
	}

	metrics := h.analyzer.Analyze(req.Prompt)
	h.cache.Set(c.Context(), req.Prompt, metrics)

	return c.Status(fiber.StatusOK).JSON(metrics)
}
