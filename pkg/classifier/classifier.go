package classifier

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/PromptOps/PromptForge/pkg/domain/threat"
)

const (
	maxMatchLen = 100

	// repetitionRunThreshold is the number of consecutive identical
	// tokens treated as flooding.
	repetitionRunThreshold = 8
)

// Classifier matches text against an immutable threat pattern table.
// Classification is deterministic: the same input always yields the same
// assessment.
type Classifier struct {
	table  *Table
	logger *logrus.Logger
}

// NewClassifier builds a classifier over the given table. Tests inject a
// reduced table; production uses DefaultTable or a YAML overlay.
func NewClassifier(table *Table, logger *logrus.Logger) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	return &Classifier{table: table, logger: logger}
}

// Classify scans text and aggregates every match. Overlapping matches are
// all retained so aggregate confidence reflects every signal. It never
// fails, including on malformed or non-UTF-8 input.
func (c *Classifier) Classify(text string) threat.Assessment {
	assessment := threat.Assessment{
		Level:        threat.LevelNone,
		TableVersion: c.table.Version,
	}
	if text == "" {
		return assessment
	}

	for _, p := range c.table.Patterns {
		for _, match := range p.Regex.FindAllString(text, -1) {
			assessment.Detections = append(assessment.Detections, threat.Detection{
				Category:    p.Category,
				Pattern:     p.Regex.String(),
				MatchedText: truncate(match, maxMatchLen),
				Severity:    p.Severity,
				Confidence:  p.Confidence,
				Description: p.Description,
			})
		}
	}

	if d, ok := detectRepetitionFlooding(text); ok {
		assessment.Detections = append(assessment.Detections, d)
	}

	for _, d := range assessment.Detections {
		assessment.Level = threat.MaxLevel(assessment.Level, d.Severity)
	}
	assessment.OverallConfidence = aggregateConfidence(assessment.Detections)

	if len(assessment.Detections) > 0 {
		c.logger.WithFields(logrus.Fields{
			"threat_level": assessment.Level,
			"detections":   len(assessment.Detections),
			"confidence":   assessment.OverallConfidence,
		}).Warn("threat patterns detected")
	}

	return assessment
}

// aggregateConfidence treats detections as independent evidence:
// 1 - prod(1 - c_i). More detections never decrease the result.
func aggregateConfidence(detections []threat.Detection) float64 {
	if len(detections) == 0 {
		return 0
	}
	miss := 1.0
	for _, d := range detections {
		miss *= 1 - d.Confidence
	}
	return 1 - miss
}

// detectRepetitionFlooding counts the longest run of one token. RE2 has
// no backreferences, so this check is programmatic.
func detectRepetitionFlooding(text string) (threat.Detection, bool) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) < repetitionRunThreshold {
		return threat.Detection{}, false
	}

	run := 1
	longest := 1
	repeated := ""
	for i := 1; i < len(tokens); i++ {
		if tokens[i] == tokens[i-1] {
			run++
			if run > longest {
				longest = run
				repeated = tokens[i]
			}
		} else {
			run = 1
		}
	}

	if longest < repetitionRunThreshold {
		return threat.Detection{}, false
	}
	return threat.Detection{
		Category:    threat.RepetitionFlooding,
		Pattern:     "token-run-length",
		MatchedText: truncate(repeated, maxMatchLen),
		Severity:    threat.LevelMedium,
		Confidence:  0.7,
		Description: "Repeated token flooding",
	}, true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
