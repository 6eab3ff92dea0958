package optimization

import (
	"time"

	"github.com/google/uuid"

	"github.com/PromptOps/PromptForge/pkg/domain/guardrail"
)

// Status is the lifecycle state of a job. Transitions are monotone:
// pending -> running -> completed | failed, never backwards.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var statusOrder = map[Status]int{
	StatusPending:   0,
	StatusRunning:   1,
	StatusCompleted: 2,
	StatusFailed:    2,
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving to next respects the monotone order.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	return statusOrder[next] > statusOrder[s]
}

// Params are the per-job optimization inputs accepted at submission.
type Params struct {
	TargetCostReduction    float64        `json:"target_cost_reduction"`
	TargetQualityThreshold float64        `json:"target_quality_threshold"`
	MaxIterations          int            `json:"max_iterations"`
	Strategy               SearchStrategy `json:"strategy"`
	Seed                   int64          `json:"seed"`
	FitnessWeights         FitnessWeights `json:"fitness_weights"`
}

// FitnessWeights combine cost reduction and quality retention into the
// scalar candidate score. Exact values are configuration, not architecture.
type FitnessWeights struct {
	CostReduction    float64 `json:"cost_reduction" mapstructure:"cost_reduction"`
	QualityRetention float64 `json:"quality_retention" mapstructure:"quality_retention"`
	QualityLoss      float64 `json:"quality_loss" mapstructure:"quality_loss"`
}

// DefaultFitnessWeights favor cost reduction while still rewarding
// retained quality.
func DefaultFitnessWeights() FitnessWeights {
	return FitnessWeights{
		CostReduction:    0.6,
		QualityRetention: 0.35,
		QualityLoss:      0.25,
	}
}

// Result holds the numeric outcome of a finished job.
type Result struct {
	CostReduction     float64                     `json:"cost_reduction"`
	QualityChange     float64                     `json:"quality_change"`
	QualityRetention  float64                     `json:"quality_retention"`
	OriginalTokens    int                         `json:"original_tokens"`
	OptimizedTokens   int                         `json:"optimized_tokens"`
	OriginalCostUSD   float64                     `json:"original_cost_usd"`
	OptimizedCostUSD  float64                     `json:"optimized_cost_usd"`
	TargetMet         bool                        `json:"target_met"`
	GenerationsRun    int                         `json:"generations_run"`
	SafetyMaintained  bool                        `json:"safety_maintained"`
	OptimizationSafe  bool                        `json:"optimization_safe"`
	TransitionDetails *guardrail.TransitionResult `json:"transition_details,omitempty"`
}

// Job is one optimization request's lifecycle. It exclusively owns its
// history and best candidate.
type Job struct {
	ID             uuid.UUID             `json:"id"`
	Status         Status                `json:"status"`
	OriginalPrompt string                `json:"original_prompt"`
	Params         Params                `json:"params"`
	BestCandidate  *Candidate            `json:"best_candidate,omitempty"`
	History        []GenerationSummary   `json:"history"`
	Result         *Result               `json:"result,omitempty"`
	Error          string                `json:"error,omitempty"`
	Violations     []guardrail.Violation `json:"violations,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`
}

// NewJob builds a pending job for the given prompt and parameters.
func NewJob(originalPrompt string, params Params) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:             uuid.New(),
		Status:         StatusPending,
		OriginalPrompt: originalPrompt,
		Params:         params,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Transition moves the job to next, enforcing the monotone state machine.
func (j *Job) Transition(next Status) error {
	if !j.Status.CanTransition(next) {
		return NewInternalFault("invalid status transition", nil)
	}
	j.Status = next
	now := time.Now().UTC()
	j.UpdatedAt = now
	if next.Terminal() {
		j.CompletedAt = &now
	}
	return nil
}
