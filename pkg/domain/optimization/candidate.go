package optimization

import (
	"github.com/PromptOps/PromptForge/pkg/domain/guardrail"
	"github.com/PromptOps/PromptForge/pkg/domain/prompt"
)

// Candidate is one prompt variant in the search. Candidates are owned by
// the population that created them and copied, never shared, across
// generations so fitness stays reproducible.
type Candidate struct {
	ID         string                     `json:"id"`
	Text       string                     `json:"text"`
	Generation int                        `json:"generation"`
	Metrics    prompt.Metrics             `json:"metrics"`
	Validation guardrail.ValidationResult `json:"validation"`
	Fitness    float64                    `json:"fitness"`
}

// Clone returns an independent copy of the candidate.
func (c Candidate) Clone() Candidate {
	out := c
	out.Metrics.Issues = append([]prompt.IssueTag(nil), c.Metrics.Issues...)
	out.Validation.Violations = append([]guardrail.Violation(nil), c.Validation.Violations...)
	out.Validation.Recommendations = append([]string(nil), c.Validation.Recommendations...)
	return out
}

// Better reports whether c should rank ahead of other. Equal fitness falls
// back to lower token count, then to the lexicographically earlier id, so
// ranking is fully deterministic for a fixed seed.
func (c Candidate) Better(other Candidate) bool {
	if c.Fitness != other.Fitness {
		return c.Fitness > other.Fitness
	}
	if c.Metrics.TokenCount != other.Metrics.TokenCount {
		return c.Metrics.TokenCount < other.Metrics.TokenCount
	}
	return c.ID < other.ID
}

// GenerationSummary is the audit record appended to job history after
// every accepted generation.
type GenerationSummary struct {
	Generation    int     `json:"generation"`
	BestFitness   float64 `json:"best_fitness"`
	BestID        string  `json:"best_candidate_id"`
	BestTokens    int     `json:"best_token_count"`
	PopulationLen int     `json:"population_size"`
	Diversity     float64 `json:"diversity"`
}
