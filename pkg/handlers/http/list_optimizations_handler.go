package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	appoptimization "github.com/PromptOps/PromptForge/pkg/app/optimization"
)

type listOptimizationsHandler struct {
	logger *logrus.Logger
	finder *appoptimization.Finder
}

func NewListOptimizationsHandler(logger *logrus.Logger, finder *appoptimization.Finder) Handler {
	return &listOptimizationsHandler{logger: logger, finder: finder}
}

func (h *listOptimizationsHandler) Handle(c *fiber.Ctx) error {
	jobs, err := h.finder.List(c.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list optimization jobs")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	summaries := make([]fiber.Map, 0, len(jobs))
	for _, job := range jobs {
		summary := fiber.Map{
			"job_id":     job.ID,
			"status":     job.Status,
			"created_at": job.CreatedAt,
		}
		if job.Result != nil {
			summary["cost_reduction"] = job.Result.CostReduction
			summary["target_met"] = job.Result.TargetMet
		}
		summaries = append(summaries, summary)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"jobs": summaries})
}
