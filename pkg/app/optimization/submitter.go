package optimization

import (
	"context"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
	"github.com/PromptOps/PromptForge/pkg/metrics"
)

const (
	maxPromptLength   = 10000
	maxIterationLimit = 50
	maxPopulationSize = 50
)

// SubmitRequest carries the raw submission parameters.
type SubmitRequest struct {
	Prompt                 string
	MaxIterations          int
	UseGeneticAlgorithm    bool
	TargetCostReduction    float64
	TargetQualityThreshold float64
	PopulationSize         int
	Seed                   int64
	FitnessWeights         *optimization.FitnessWeights

	// StrategyOverrides optionally tunes mutation, crossover and elitism
	// as a loosely typed settings map.
	StrategyOverrides map[string]interface{}
}

// Submitter validates submissions and creates pending jobs. Invalid input
// is rejected synchronously: no job row is ever created for it.
type Submitter struct {
	repo      optimization.Repository
	runner    *Runner
	collector *metrics.Collector
	logger    *logrus.Logger
}

// NewSubmitter builds the submission use-case.
func NewSubmitter(
	repo optimization.Repository,
	runner *Runner,
	collector *metrics.Collector,
	logger *logrus.Logger,
) *Submitter {
	return &Submitter{repo: repo, runner: runner, collector: collector, logger: logger}
}

// Submit validates the request, persists a pending job and starts its
// runner. The returned job reflects the initial pending state.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*optimization.Job, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}
	job := optimization.NewJob(req.Prompt, params)

	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}

	s.collector.JobsSubmitted.Inc()
	s.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"strategy": params.Strategy.Kind,
	}).Info("optimization job submitted")

	s.runner.Start(job.ID)
	return job, nil
}

func validate(req SubmitRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return optimization.NewInputError("prompt", "must not be empty")
	}
	if len(req.Prompt) > maxPromptLength {
		return optimization.NewInputError("prompt", "exceeds maximum length")
	}
	if req.MaxIterations <= 0 || req.MaxIterations > maxIterationLimit {
		return optimization.NewInputError("max_iterations", "must be between 1 and 50")
	}
	if req.TargetCostReduction < 0 || req.TargetCostReduction > 1 {
		return optimization.NewInputError("target_cost_reduction", "must be within [0,1]")
	}
	if req.TargetQualityThreshold < 0 || req.TargetQualityThreshold > 1 {
		return optimization.NewInputError("target_quality_threshold", "must be within [0,1]")
	}
	if req.PopulationSize < 0 || req.PopulationSize > maxPopulationSize {
		return optimization.NewInputError("population_size", "must be between 0 and 50")
	}
	return nil
}

func buildParams(req SubmitRequest) (optimization.Params, error) {
	strategy := optimization.HillClimbing()
	if req.UseGeneticAlgorithm {
		strategy = optimization.GeneticAlgorithm(req.PopulationSize)
	}
	if len(req.StrategyOverrides) > 0 {
		if err := mapstructure.Decode(req.StrategyOverrides, &strategy); err != nil {
			return optimization.Params{}, optimization.NewInputError("strategy", err.Error())
		}
		if err := validateStrategy(strategy); err != nil {
			return optimization.Params{}, err
		}
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	weights := optimization.DefaultFitnessWeights()
	if req.FitnessWeights != nil {
		weights = *req.FitnessWeights
	}

	quality := req.TargetQualityThreshold
	if quality == 0 {
		quality = 0.8
	}

	return optimization.Params{
		TargetCostReduction:    req.TargetCostReduction,
		TargetQualityThreshold: quality,
		MaxIterations:          req.MaxIterations,
		Strategy:               strategy,
		Seed:                   seed,
		FitnessWeights:         weights,
	}, nil
}

func validateStrategy(s optimization.SearchStrategy) error {
	if s.PopulationSize < 1 || s.PopulationSize > maxPopulationSize {
		return optimization.NewInputError("strategy.population_size", "must be between 1 and 50")
	}
	if s.MutationRate < 0 || s.MutationRate > 1 {
		return optimization.NewInputError("strategy.mutation_rate", "must be within [0,1]")
	}
	if s.CrossoverRate < 0 || s.CrossoverRate > 1 {
		return optimization.NewInputError("strategy.crossover_rate", "must be within [0,1]")
	}
	if s.ElitismCount < 0 || s.ElitismCount > s.PopulationSize {
		return optimization.NewInputError("strategy.elitism_count", "must be within the population size")
	}
	return nil
}
