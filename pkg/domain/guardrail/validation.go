package guardrail

import "github.com/PromptOps/PromptForge/pkg/domain/threat"

// Violation is a single rule failure. Once produced it is never modified.
type Violation struct {
	RuleName    string       `json:"rule_name"`
	Severity    threat.Level `json:"severity"`
	Description string       `json:"description"`
	MatchedText string       `json:"matched_text"`
	Confidence  float64      `json:"confidence"`
	Remediation string       `json:"remediation"`
}

// ValidationResult is the aggregated safety verdict for one text.
// IsSafe is a pure function of Violations and the configured threshold.
type ValidationResult struct {
	IsSafe          bool         `json:"is_safe"`
	Violations      []Violation  `json:"violations"`
	Recommendations []string     `json:"recommendations"`
	ThreatLevel     threat.Level `json:"threat_level"`
}

// CategoriesAt returns the set of rule names with severity at or above min.
func (r ValidationResult) CategoriesAt(min threat.Level) map[string]bool {
	out := make(map[string]bool)
	for _, v := range r.Violations {
		if v.Severity.AtLeast(min) {
			out[v.RuleName] = true
		}
	}
	return out
}

// AggregateSeverity sums violation severities by rank, giving a coarse
// ordering for "not less safe than" comparisons between two texts.
func (r ValidationResult) AggregateSeverity() int {
	total := 0
	for _, v := range r.Violations {
		total += v.Severity.Rank()
	}
	return total
}

// TransitionResult captures whether rewriting original into candidate
// kept the prompt inside the safety envelope.
type TransitionResult struct {
	SafetyMaintained bool     `json:"safety_maintained"`
	QualityImproved  bool     `json:"quality_improved"`
	OptimizationSafe bool     `json:"optimization_safe"`
	Recommendations  []string `json:"recommendations"`
}
