package guardrail

import (
	"regexp"

	"github.com/PromptOps/PromptForge/pkg/domain/threat"
)

// Rule is an independent content predicate with a fixed severity. Rules
// are evaluated against the raw text, order-insensitively, and every
// firing rule is reported.
type Rule struct {
	Name        string
	Description string
	Severity    threat.Level
	Patterns    []*regexp.Regexp
	Keywords    []string
	Remediation string
}

const (
	RuleThreatPatterns = "threat_patterns"
	RuleHarmfulContent = "harmful_content"
	RulePrivacy        = "privacy_leakage"
	RuleBiasedLanguage = "biased_language"
	RuleToxicity       = "toxicity"
	RulePolicyEthics   = "policy_ethics"
)

// DefaultRules returns the built-in content rule set. The returned slice
// is treated as immutable after engine construction.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        RuleHarmfulContent,
			Description: "Harmful, violent or dangerous content",
			Severity:    threat.LevelCritical,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(?:kill|murder|suicide|self-?harm)\b`),
				regexp.MustCompile(`(?i)\b(?:build|make|assemble)\b.{0,40}\b(?:bomb|explosive|weapon)\b`),
				regexp.MustCompile(`(?i)\bhow\s+to\s+(?:hurt|harm|poison)\b`),
			},
			Keywords:    []string{"bomb", "explosive", "massacre"},
			Remediation: "Remove harmful, violent or dangerous content from the prompt",
		},
		{
			Name:        RulePrivacy,
			Description: "Personal or confidential information exposure",
			Severity:    threat.LevelHigh,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
				regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`),
				regexp.MustCompile(`(?i)\b(?:password|api\s+key|secret\s+key|access\s+token)\b`),
				regexp.MustCompile(`(?i)\b(?:social\s+security|ssn|credit\s+card)\s+(?:number|info)`),
			},
			Keywords:    []string{"confidential"},
			Remediation: "Remove requests for personal or confidential information",
		},
		{
			Name:        RuleBiasedLanguage,
			Description: "Stereotyping or biased generalisations",
			Severity:    threat.LevelMedium,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\ball\s+(?:men|women|immigrants|foreigners)\s+are\b`),
				regexp.MustCompile(`(?i)\btypical\s+(?:male|female)\s+behaviou?r\b`),
				regexp.MustCompile(`(?i)\bobviously\s+(?:inferior|superior)\b`),
			},
			Remediation: "Rephrase to avoid stereotypes and biased language",
		},
		{
			Name:        RuleToxicity,
			Description: "Profanity or abusive phrasing",
			Severity:    threat.LevelHigh,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\byou\s+(?:stupid|worthless|pathetic)\b`),
				regexp.MustCompile(`(?i)\b(?:shut\s+up|go\s+to\s+hell)\b`),
				regexp.MustCompile(`(?i)\bf+u+c*k+\b`),
			},
			Remediation: "Keep language civil and professional",
		},
		{
			Name:        RulePolicyEthics,
			Description: "Deceptive or policy-violating request",
			Severity:    threat.LevelMedium,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(?:manipulate|deceive|trick|mislead)\s+(?:people|users|customers)\b`),
				regexp.MustCompile(`(?i)\b(?:fake\s+news|misinformation|propaganda)\b`),
				regexp.MustCompile(`(?i)\b(?:plagiarize|academic\s+dishonesty)\b`),
			},
			Remediation: "Ensure the request follows ethical usage guidelines",
		},
	}
}
