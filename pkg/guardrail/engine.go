package guardrail

import (
	"strings"

	"github.com/sirupsen/logrus"

	domain "github.com/PromptOps/PromptForge/pkg/domain/guardrail"
	"github.com/PromptOps/PromptForge/pkg/domain/threat"
)

const maxMatchLen = 100

// ThreatClassifier is the pattern-matching capability the engine composes.
// Satisfied by classifier.Classifier.
type ThreatClassifier interface {
	Classify(text string) threat.Assessment
}

// Engine aggregates the threat classifier and the independent content
// rules into one safety verdict. Rule state is fixed at construction and
// shared read-only across concurrent jobs.
type Engine struct {
	classifier        ThreatClassifier
	rules             []Rule
	criticalThreshold threat.Level
	logger            *logrus.Logger
}

// Option configures the engine at construction time.
type Option func(*Engine)

// WithCriticalThreshold overrides the severity at or above which a
// violation makes the text unsafe. Default is critical.
func WithCriticalThreshold(level threat.Level) Option {
	return func(e *Engine) { e.criticalThreshold = level }
}

// WithRules replaces the default content rule set.
func WithRules(rules []Rule) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithDisabledRules removes named rules from the set.
func WithDisabledRules(names ...string) Option {
	return func(e *Engine) {
		disabled := make(map[string]bool, len(names))
		for _, n := range names {
			disabled[n] = true
		}
		kept := e.rules[:0]
		for _, r := range e.rules {
			if !disabled[r.Name] {
				kept = append(kept, r)
			}
		}
		e.rules = kept
	}
}

// NewEngine builds a guardrail engine over the given classifier.
func NewEngine(classifier ThreatClassifier, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		classifier:        classifier,
		rules:             DefaultRules(),
		criticalThreshold: threat.LevelCritical,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate evaluates text against the threat classifier and every content
// rule. All firing rules are reported, not just the first.
func (e *Engine) Validate(text string) domain.ValidationResult {
	var violations []domain.Violation

	assessment := e.classifier.Classify(text)
	if assessment.Level.AtLeast(threat.LevelMedium) {
		violations = append(violations, domain.Violation{
			RuleName:    RuleThreatPatterns,
			Severity:    assessment.Level,
			Description: "Threat patterns detected in prompt",
			MatchedText: truncate(text, maxMatchLen),
			Confidence:  assessment.OverallConfidence,
			Remediation: "Rewrite the prompt without injection or override patterns",
		})
	}

	for _, rule := range e.rules {
		violations = append(violations, checkRule(text, rule)...)
	}

	result := domain.ValidationResult{
		IsSafe:          !e.anyAtThreshold(violations),
		Violations:      violations,
		Recommendations: recommendations(violations),
		ThreatLevel:     assessment.Level,
	}

	if len(violations) > 0 {
		e.logger.WithFields(logrus.Fields{
			"violations":   len(violations),
			"is_safe":      result.IsSafe,
			"threat_level": assessment.Level,
		}).Warn("guardrail violations detected")
	}

	return result
}

// ValidateTransition checks that rewriting original into candidate did
// not leave the safety envelope. This is the gate that stops the search
// from optimizing into an unsafe but shorter prompt.
func (e *Engine) ValidateTransition(original, candidate string) domain.TransitionResult {
	origResult := e.Validate(original)
	candResult := e.Validate(candidate)

	safetyMaintained := true
	if origResult.IsSafe && !candResult.IsSafe {
		safetyMaintained = false
	}

	origCritical := origResult.CategoriesAt(threat.LevelCritical)
	for name := range candResult.CategoriesAt(threat.LevelCritical) {
		if !origCritical[name] {
			safetyMaintained = false
		}
	}

	qualityImproved := len(candResult.Violations) <= len(origResult.Violations)
	optimizationSafe := safetyMaintained &&
		candResult.AggregateSeverity() <= origResult.AggregateSeverity()

	var recs []string
	if safetyMaintained {
		recs = append(recs, "Optimization maintained safety standards")
	} else {
		recs = append(recs, "Optimization introduced new safety issues")
	}
	if !qualityImproved {
		recs = append(recs, "Optimization surfaced additional rule violations")
	}

	return domain.TransitionResult{
		SafetyMaintained: safetyMaintained,
		QualityImproved:  qualityImproved,
		OptimizationSafe: optimizationSafe,
		Recommendations:  recs,
	}
}

// Rules exposes the configured rule set for stats reporting.
func (e *Engine) Rules() []Rule {
	return e.rules
}

func (e *Engine) anyAtThreshold(violations []domain.Violation) bool {
	for _, v := range violations {
		if v.Severity.AtLeast(e.criticalThreshold) {
			return true
		}
	}
	return false
}

func checkRule(text string, rule Rule) []domain.Violation {
	var violations []domain.Violation

	for _, pattern := range rule.Patterns {
		for _, match := range pattern.FindAllString(text, -1) {
			violations = append(violations, domain.Violation{
				RuleName:    rule.Name,
				Severity:    rule.Severity,
				Description: rule.Description,
				MatchedText: truncate(match, maxMatchLen),
				Confidence:  0.9,
				Remediation: rule.Remediation,
			})
		}
	}

	lower := strings.ToLower(text)
	for _, keyword := range rule.Keywords {
		if strings.Contains(lower, keyword) {
			violations = append(violations, domain.Violation{
				RuleName:    rule.Name,
				Severity:    rule.Severity,
				Description: rule.Description,
				MatchedText: keyword,
				Confidence:  0.7,
				Remediation: rule.Remediation,
			})
		}
	}

	return violations
}

func recommendations(violations []domain.Violation) []string {
	if len(violations) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var recs []string
	for _, v := range violations {
		if !seen[v.Remediation] {
			seen[v.Remediation] = true
			recs = append(recs, v.Remediation)
		}
	}
	return recs
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
