package optimization

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
	"github.com/PromptOps/PromptForge/pkg/metrics"
	"github.com/PromptOps/PromptForge/pkg/optimizer"
)

// Runner owns the job state machine around the optimization engine:
// pending -> running -> completed | failed. Every failure mode lands as a
// structured job error; nothing escapes the runner as a panic.
type Runner struct {
	repo           optimization.Repository
	engine         *optimizer.Engine
	safety         optimizer.SafetyOracle
	collector      *metrics.Collector
	logger         *logrus.Logger
	jobTimeout     time.Duration
	costPerKTokens float64

	wg sync.WaitGroup
}

// NewRunner builds the job runner. costPerKTokens is the provider-neutral
// flat price applied to token counts for the reported cost figures.
func NewRunner(
	repo optimization.Repository,
	engine *optimizer.Engine,
	safety optimizer.SafetyOracle,
	collector *metrics.Collector,
	logger *logrus.Logger,
	jobTimeout time.Duration,
	costPerKTokens float64,
) *Runner {
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}
	return &Runner{
		repo:           repo,
		engine:         engine,
		safety:         safety,
		collector:      collector,
		logger:         logger,
		jobTimeout:     jobTimeout,
		costPerKTokens: costPerKTokens,
	}
}

// Start launches the job in the background with the configured timeout.
func (r *Runner) Start(jobID uuid.UUID) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.jobTimeout)
		defer cancel()
		if err := r.Run(ctx, jobID); err != nil {
			r.logger.WithError(err).WithField("job_id", jobID).Error("job runner failed")
		}
	}()
}

// Wait blocks until every in-flight job has reached a terminal state.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Run executes one job to a terminal state. Exposed for synchronous use
// in tests; Start is the production entry point.
func (r *Runner) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := r.repo.Get(ctx, jobID)
	if err != nil {
		return err
	}

	started := time.Now()
	if err := job.Transition(optimization.StatusRunning); err != nil {
		return err
	}
	if err := r.repo.Update(ctx, job); err != nil {
		return err
	}

	outcome, runErr := r.engine.Run(ctx, job.OriginalPrompt, job.Params)

	// persistence must succeed even when the job context timed out
	writeCtx := context.WithoutCancel(ctx)
	switch {
	case runErr != nil:
		r.fail(writeCtx, job, runErr.Error())
	case outcome.State == optimizer.StateRejected:
		job.Violations = outcome.Violations
		r.fail(writeCtx, job, optimization.NewSafetyRejection(outcome.Violations).Error())
	default:
		r.complete(writeCtx, job, outcome)
	}

	r.collector.JobDuration.Observe(time.Since(started).Seconds())
	r.collector.JobsCompleted.WithLabelValues(string(job.Status)).Inc()
	return nil
}

func (r *Runner) complete(ctx context.Context, job *optimization.Job, outcome optimizer.Outcome) {
	best := outcome.Best
	transition := r.safety.ValidateTransition(job.OriginalPrompt, best.Text)

	result := &optimization.Result{
		CostReduction:     optimizer.CostReduction(outcome.Original.Metrics, best.Metrics),
		QualityChange:     best.Metrics.Quality - outcome.Original.Metrics.Quality,
		QualityRetention:  optimizer.QualityRetention(outcome.Original.Metrics, best.Metrics),
		OriginalTokens:    outcome.Original.Metrics.TokenCount,
		OptimizedTokens:   best.Metrics.TokenCount,
		OriginalCostUSD:   r.tokenCost(outcome.Original.Metrics.TokenCount),
		OptimizedCostUSD:  r.tokenCost(best.Metrics.TokenCount),
		TargetMet:         outcome.TargetMet,
		GenerationsRun:    len(outcome.History),
		SafetyMaintained:  transition.SafetyMaintained,
		OptimizationSafe:  transition.OptimizationSafe,
		TransitionDetails: &transition,
	}

	job.BestCandidate = &best
	job.History = outcome.History
	job.Result = result
	r.collector.Generations.Add(float64(len(outcome.History)))

	if err := job.Transition(optimization.StatusCompleted); err != nil {
		r.logger.WithError(err).WithField("job_id", job.ID).Error("completion transition rejected")
		return
	}
	if err := r.repo.Update(ctx, job); err != nil {
		r.logger.WithError(err).WithField("job_id", job.ID).Error("failed to persist completed job")
		return
	}

	r.logger.WithFields(logrus.Fields{
		"job_id":         job.ID,
		"state":          outcome.State,
		"cost_reduction": result.CostReduction,
		"quality_change": result.QualityChange,
		"target_met":     result.TargetMet,
	}).Info("optimization completed")
}

func (r *Runner) fail(ctx context.Context, job *optimization.Job, msg string) {
	job.Error = msg
	for _, v := range job.Violations {
		r.collector.ViolationsFound.WithLabelValues(v.RuleName).Inc()
	}
	if err := job.Transition(optimization.StatusFailed); err != nil {
		r.logger.WithError(err).WithField("job_id", job.ID).Error("failure transition rejected")
		return
	}
	if err := r.repo.Update(ctx, job); err != nil {
		r.logger.WithError(err).WithField("job_id", job.ID).Error("failed to persist failed job")
		return
	}
	r.logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"error":  msg,
	}).Warn("optimization failed")
}

func (r *Runner) tokenCost(tokens int) float64 {
	return float64(tokens) / 1000 * r.costPerKTokens
}
