package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/PromptOps/PromptForge/pkg/classifier"
)

type scanPromptHandler struct {
	logger     *logrus.Logger
	classifier *classifier.Classifier
}

func NewScanPromptHandler(logger *logrus.Logger, cl *classifier.Classifier) Handler {
	return &scanPromptHandler{logger: logger, classifier: cl}
}

func (h *scanPromptHandler) Handle(c *fiber.Ctx) error {
	var req promptRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind scan request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	assessment := h.classifier.Classify(req.Prompt)
	return c.Status(fiber.StatusOK).JSON(assessment)
}
