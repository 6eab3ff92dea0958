package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	appoptimization "github.com/PromptOps/PromptForge/pkg/app/optimization"
	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
)

type createOptimizationRequest struct {
	Prompt                 string  `json:"prompt"`
	MaxIterations          int     `json:"max_iterations"`
	UseGeneticAlgorithm    bool    `json:"use_genetic_algorithm"`
	TargetCostReduction    float64 `json:"target_cost_reduction"`
	TargetQualityThreshold float64 `json:"target_quality_threshold"`
	PopulationSize         int     `json:"population_size"`
	Seed                   int64   `json:"seed"`

	Strategy map[string]interface{} `json:"strategy,omitempty"`
}

type createOptimizationHandler struct {
	logger    *logrus.Logger
	submitter *appoptimization.Submitter
}

func NewCreateOptimizationHandler(logger *logrus.Logger, submitter *appoptimization.Submitter) Handler {
	return &createOptimizationHandler{logger: logger, submitter: submitter}
}

func (h *createOptimizationHandler) Handle(c *fiber.Ctx) error {
	var req createOptimizationRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind optimization request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	job, err := h.submitter.Submit(c.Context(), appoptimization.SubmitRequest{
		Prompt:                 req.Prompt,
		MaxIterations:          req.MaxIterations,
		UseGeneticAlgorithm:    req.UseGeneticAlgorithm,
		TargetCostReduction:    req.TargetCostReduction,
		TargetQualityThreshold: req.TargetQualityThreshold,
		PopulationSize:         req.PopulationSize,
		Seed:                   req.Seed,
		StrategyOverrides:      req.Strategy,
	})
	if err != nil {
		if optimization.IsInputError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("failed to submit optimization job")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": job.ID,
		"status": job.Status,
	})
}
