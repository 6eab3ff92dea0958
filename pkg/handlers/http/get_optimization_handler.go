package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	appoptimization "github.com/PromptOps/PromptForge/pkg/app/optimization"
	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
)

type getOptimizationHandler struct {
	logger *logrus.Logger
	finder *appoptimization.Finder
}

func NewGetOptimizationHandler(logger *logrus.Logger, finder *appoptimization.Finder) Handler {
	return &getOptimizationHandler{logger: logger, finder: finder}
}

func (h *getOptimizationHandler) Handle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid job id"})
	}

	job, err := h.finder.Find(c.Context(), id)
	if err != nil {
		if optimization.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("failed to load optimization job")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(jobStatusResponse(job))
}

func jobStatusResponse(job *optimization.Job) fiber.Map {
	resp := fiber.Map{
		"job_id":          job.ID,
		"status":          job.Status,
		"original_prompt": job.OriginalPrompt,
		"created_at":      job.CreatedAt,
		"updated_at":      job.UpdatedAt,
	}
	if job.BestCandidate != nil {
		resp["best_candidate_text"] = job.BestCandidate.Text
	}
	if job.Result != nil {
		resp["cost_reduction"] = job.Result.CostReduction
		resp["quality_change"] = job.Result.QualityChange
		resp["target_met"] = job.Result.TargetMet
		resp["generations_run"] = job.Result.GenerationsRun
	}
	if len(job.History) > 0 {
		resp["iteration_history"] = job.History
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	if len(job.Violations) > 0 {
		resp["violations"] = job.Violations
	}
	if job.CompletedAt != nil {
		resp["completed_at"] = job.CompletedAt
	}
	return resp
}
