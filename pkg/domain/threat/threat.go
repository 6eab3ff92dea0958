package threat

// Category identifies the class of attack a pattern detects.
type Category string

const (
	InstructionOverride Category = "instruction_override"
	ContextSwitching    Category = "context_switching"
	Jailbreak           Category = "jailbreak"
	DataExtraction      Category = "data_extraction"
	EncodingObfuscation Category = "encoding_obfuscation"
	PrivilegeEscalation Category = "privilege_escalation"
	RepetitionFlooding  Category = "repetition_flooding"
)

// Level is the ordinal threat classification assigned to a prompt.
type Level string

const (
	LevelNone     Level = "none"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

var levelRank = map[Level]int{
	LevelNone:     0,
	LevelLow:      1,
	LevelMedium:   2,
	LevelHigh:     3,
	LevelCritical: 4,
}

// Rank returns the ordinal position of the level, none being lowest.
func (l Level) Rank() int {
	return levelRank[l]
}

// AtLeast reports whether l is at or above other in the severity ordering.
func (l Level) AtLeast(other Level) bool {
	return l.Rank() >= other.Rank()
}

// ParseLevel maps a configuration string onto a Level. Unknown values
// report false so callers can fall back to their default.
func ParseLevel(s string) (Level, bool) {
	l := Level(s)
	if _, ok := levelRank[l]; !ok {
		return LevelNone, false
	}
	return l, true
}

// MaxLevel returns the higher of two levels.
func MaxLevel(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Detection is a single pattern match found in a prompt.
type Detection struct {
	Category    Category `json:"category"`
	Pattern     string   `json:"pattern"`
	MatchedText string   `json:"matched_text"`
	Severity    Level    `json:"severity"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description"`
}

// Assessment aggregates every detection found in one prompt.
type Assessment struct {
	Level             Level       `json:"threat_level"`
	OverallConfidence float64     `json:"overall_confidence"`
	Detections        []Detection `json:"detections"`
	TableVersion      string      `json:"table_version"`
}

// IsThreat reports whether anything at all matched.
func (a Assessment) IsThreat() bool {
	return len(a.Detections) > 0
}
