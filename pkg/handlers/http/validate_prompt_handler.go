package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/PromptOps/PromptForge/pkg/guardrail"
	"github.com/PromptOps/PromptForge/pkg/metrics"
)

type validatePromptHandler struct {
	logger  *logrus.Logger
	engine  *guardrail.Engine
	metrics *metrics.Collector
}

func NewValidatePromptHandler(logger *logrus.Logger, e *guardrail.Engine, m *metrics.Collector) Handler {
	return &validatePromptHandler{logger: logger, engine: e, metrics: m}
}

func (h *validatePromptHandler) Handle(c *fiber.Ctx) error {
	var req promptRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind validate request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result := h.engine.Validate(req.Prompt)
	for _, v := range result.Violations {
		h.metrics.ViolationsFound.WithLabelValues(v.RuleName).Inc()
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
