package classifier

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/PromptOps/PromptForge/pkg/domain/threat"
)

// Pattern is one entry of the threat table: a compiled case-insensitive
// matcher with its base severity and confidence weight.
type Pattern struct {
	Category    threat.Category
	Regex       *regexp.Regexp
	Severity    threat.Level
	Confidence  float64
	Description string
}

// Table is the immutable pattern set a classifier matches against. It is
// built once at startup and shared read-only across jobs.
type Table struct {
	Version  string
	Patterns []Pattern
}

const defaultTableVersion = "builtin-1"

var defaultPatterns = []Pattern{
	{
		Category:    threat.InstructionOverride,
		Regex:       regexp.MustCompile(`(?i)ignore\s+(?:all\s+)?(?:previous|prior|above|earlier|the)\s+instructions?`),
		Severity:    threat.LevelHigh,
		Confidence:  0.9,
		Description: "Attempt to override system instructions",
	},
	{
		Category:    threat.InstructionOverride,
		Regex:       regexp.MustCompile(`(?i)(?:forget|disregard)\s+(?:everything|all|previous|prior)`),
		Severity:    threat.LevelHigh,
		Confidence:  0.85,
		Description: "Attempt to discard prior instructions",
	},
	{
		Category:    threat.InstructionOverride,
		Regex:       regexp.MustCompile(`(?i)new\s+instructions?\s*:`),
		Severity:    threat.LevelMedium,
		Confidence:  0.7,
		Description: "Inline replacement instruction block",
	},
	{
		Category:    threat.ContextSwitching,
		Regex:       regexp.MustCompile(`(?i)(?:now\s+you\s+are|from\s+now\s+on\s+you\s+(?:are|will)|you\s+are\s+no\s+longer)`),
		Severity:    threat.LevelMedium,
		Confidence:  0.7,
		Description: "Attempt to switch assistant context",
	},
	{
		Category:    threat.ContextSwitching,
		Regex:       regexp.MustCompile(`(?i)switch\s+to\s+(?:a\s+)?(?:new\s+)?(?:role|mode|character|persona)`),
		Severity:    threat.LevelMedium,
		Confidence:  0.65,
		Description: "Role or mode switch request",
	},
	{
		Category:    threat.Jailbreak,
		Regex:       regexp.MustCompile(`(?i)\b(?:jailbreak|dan\s+mode|developer\s+mode|unrestricted\s+mode)\b`),
		Severity:    threat.LevelCritical,
		Confidence:  0.95,
		Description: "Known jailbreak phrasing",
	},
	{
		Category:    threat.Jailbreak,
		Regex:       regexp.MustCompile(`(?i)(?:bypass|remove|disable)\s+(?:safety|restrictions?|guidelines|filters?|limitations?)`),
		Severity:    threat.LevelCritical,
		Confidence:  0.9,
		Description: "Attempt to disable safety restrictions",
	},
	{
		Category:    threat.Jailbreak,
		Regex:       regexp.MustCompile(`(?i)(?:pretend|act|roleplay)\s+(?:to\s+be|as|like)\s+(?:an?\s+)?(?:evil|malicious|harmful|unfiltered)`),
		Severity:    threat.LevelHigh,
		Confidence:  0.85,
		Description: "Harmful persona override",
	},
	{
		Category:    threat.DataExtraction,
		Regex:       regexp.MustCompile(`(?i)(?:show|tell|reveal|display|print|output|repeat)\s+(?:me\s+)?(?:your\s+)?(?:system\s+prompt|initial\s+instructions?|hidden\s+instructions?)`),
		Severity:    threat.LevelHigh,
		Confidence:  0.85,
		Description: "System prompt extraction attempt",
	},
	{
		Category:    threat.DataExtraction,
		Regex:       regexp.MustCompile(`(?i)(?:dump|extract|exfiltrate)\s+(?:all\s+)?(?:data|memory|credentials|secrets)`),
		Severity:    threat.LevelHigh,
		Confidence:  0.8,
		Description: "Bulk data extraction attempt",
	},
	{
		Category:    threat.EncodingObfuscation,
		Regex:       regexp.MustCompile(`(?i)(?:decode|execute)\s+(?:this\s+)?base64`),
		Severity:    threat.LevelMedium,
		Confidence:  0.7,
		Description: "Base64 smuggling request",
	},
	{
		Category:    threat.EncodingObfuscation,
		Regex:       regexp.MustCompile(`(?:\\x[0-9a-fA-F]{2}){4,}|(?:%[0-9a-fA-F]{2}){6,}`),
		Severity:    threat.LevelMedium,
		Confidence:  0.6,
		Description: "Escaped byte sequence obfuscation",
	},
	{
		Category:    threat.EncodingObfuscation,
		Regex:       regexp.MustCompile(`\b[A-Za-z0-9+/]{60,}={0,2}\b`),
		Severity:    threat.LevelLow,
		Confidence:  0.4,
		Description: "Long opaque encoded blob",
	},
	{
		Category:    threat.PrivilegeEscalation,
		Regex:       regexp.MustCompile(`(?i)(?:grant|give)\s+(?:me\s+)?(?:admin|root|sudo|elevated)\s+(?:access|privileges?|rights)`),
		Severity:    threat.LevelHigh,
		Confidence:  0.8,
		Description: "Privilege escalation language",
	},
	{
		Category:    threat.PrivilegeEscalation,
		Regex:       regexp.MustCompile(`(?i)\b(?:sudo|as\s+root|superuser)\b.{0,40}\b(?:run|execute|delete|modify)\b`),
		Severity:    threat.LevelMedium,
		Confidence:  0.6,
		Description: "Elevated execution request",
	},
}

// DefaultTable returns the built-in pattern table.
func DefaultTable() *Table {
	return &Table{Version: defaultTableVersion, Patterns: defaultPatterns}
}

type patternFile struct {
	Version  string `yaml:"version"`
	Patterns []struct {
		Category    string  `yaml:"category"`
		Pattern     string  `yaml:"pattern"`
		Severity    string  `yaml:"severity"`
		Confidence  float64 `yaml:"confidence"`
		Description string  `yaml:"description"`
	} `yaml:"patterns"`
}

// LoadTable reads a YAML pattern file and appends its entries to the
// built-in table. Used at startup only; the resulting table is never
// mutated afterwards.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}

	var pf patternFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file: %w", err)
	}

	table := &Table{
		Version:  pf.Version,
		Patterns: append([]Pattern(nil), defaultPatterns...),
	}
	if table.Version == "" {
		table.Version = defaultTableVersion
	}

	for _, p := range pf.Patterns {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p.Pattern, err)
		}
		severity := threat.Level(p.Severity)
		if severity.Rank() == 0 && severity != threat.LevelNone {
			return nil, fmt.Errorf("invalid severity %q for pattern %q", p.Severity, p.Pattern)
		}
		confidence := p.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.5
		}
		table.Patterns = append(table.Patterns, Pattern{
			Category:    threat.Category(p.Category),
			Regex:       re,
			Severity:    severity,
			Confidence:  confidence,
			Description: p.Description,
		})
	}

	return table, nil
}
