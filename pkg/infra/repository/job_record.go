package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PromptOps/PromptForge/pkg/domain/guardrail"
	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
)

// JobRecord is the relational shape of an optimization job. Structured
// fields persist as jsonb; no binary formats are involved.
type JobRecord struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Status         string         `gorm:"index"`
	OriginalPrompt string         `gorm:"type:text"`
	Params         ParamsJSON     `gorm:"type:jsonb"`
	BestCandidate  CandidateJSON  `gorm:"type:jsonb"`
	History        HistoryJSON    `gorm:"type:jsonb"`
	Result         ResultJSON     `gorm:"type:jsonb"`
	Violations     ViolationsJSON `gorm:"type:jsonb"`
	Error          string         `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// TableName keeps the table name stable across gorm naming changes.
func (JobRecord) TableName() string { return "optimization_jobs" }

type ParamsJSON optimization.Params

func (p ParamsJSON) Value() (driver.Value, error)  { return jsonValue(p) }
func (p *ParamsJSON) Scan(value interface{}) error { return jsonScan(value, p) }

type CandidateJSON struct {
	Candidate *optimization.Candidate `json:"candidate,omitempty"`
}

func (c CandidateJSON) Value() (driver.Value, error)  { return jsonValue(c) }
func (c *CandidateJSON) Scan(value interface{}) error { return jsonScan(value, c) }

type HistoryJSON []optimization.GenerationSummary

func (h HistoryJSON) Value() (driver.Value, error)  { return jsonValue(h) }
func (h *HistoryJSON) Scan(value interface{}) error { return jsonScan(value, h) }

type ResultJSON struct {
	Result *optimization.Result `json:"result,omitempty"`
}

func (r ResultJSON) Value() (driver.Value, error)  { return jsonValue(r) }
func (r *ResultJSON) Scan(value interface{}) error { return jsonScan(value, r) }

type ViolationsJSON []guardrail.Violation

func (v ViolationsJSON) Value() (driver.Value, error)  { return jsonValue(v) }
func (v *ViolationsJSON) Scan(value interface{}) error { return jsonScan(value, v) }

func jsonValue(v interface{}) (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb column: %w", err)
	}
	return raw, nil
}

func jsonScan(value interface{}, dst interface{}) error {
	if value == nil {
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		if s, sok := value.(string); sok {
			raw = []byte(s)
		} else {
			return fmt.Errorf("unsupported jsonb source type %T", value)
		}
	}
	return json.Unmarshal(raw, dst)
}

func toRecord(job *optimization.Job) *JobRecord {
	return &JobRecord{
		ID:             job.ID,
		Status:         string(job.Status),
		OriginalPrompt: job.OriginalPrompt,
		Params:         ParamsJSON(job.Params),
		BestCandidate:  CandidateJSON{Candidate: job.BestCandidate},
		History:        HistoryJSON(job.History),
		Result:         ResultJSON{Result: job.Result},
		Violations:     ViolationsJSON(job.Violations),
		Error:          job.Error,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
		CompletedAt:    job.CompletedAt,
	}
}

func toDomain(record *JobRecord) *optimization.Job {
	return &optimization.Job{
		ID:             record.ID,
		Status:         optimization.Status(record.Status),
		OriginalPrompt: record.OriginalPrompt,
		Params:         optimization.Params(record.Params),
		BestCandidate:  record.BestCandidate.Candidate,
		History:        []optimization.GenerationSummary(record.History),
		Result:         record.Result.Result,
		Violations:     []guardrail.Violation(record.Violations),
		Error:          record.Error,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
		CompletedAt:    record.CompletedAt,
	}
}
