package analyzer

import (
	"math"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/PromptOps/PromptForge/pkg/domain/prompt"
)

// tokenPattern splits on word/punctuation boundaries. The same string
// always yields the same count, which is what makes fitness comparisons
// reproducible.
var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_]+|[^\sA-Za-z0-9_]`)

var sentencePattern = regexp.MustCompile(`[.!?]+`)

// Analyzer scores prompts on token cost, clarity, quality and a fast
// safety heuristic. Analyze never fails, for any input.
type Analyzer struct {
	logger *logrus.Logger
}

// NewAnalyzer builds an analyzer.
func NewAnalyzer(logger *logrus.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// CountTokens returns the deterministic token count for text.
func CountTokens(text string) int {
	return len(tokenPattern.FindAllString(text, -1))
}

// Analyze computes a fresh metrics snapshot for text.
func (a *Analyzer) Analyze(text string) prompt.Metrics {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return prompt.Metrics{
			Safety:     1.0,
			Complexity: prompt.ComplexityLow,
			Issues:     []prompt.IssueTag{prompt.IssueEmpty},
		}
	}

	lower := strings.ToLower(trimmed)
	words := strings.Fields(trimmed)
	sentences := splitSentences(trimmed)

	m := prompt.Metrics{
		TokenCount:    CountTokens(trimmed),
		WordCount:     len(words),
		SentenceCount: len(sentences),
		HasExamples:   containsAny(lower, ExampleMarkers),
		HasFormatSpec: containsAny(lower, FormatMarkers),
	}

	m.Issues = a.identifyIssues(trimmed, lower, words)
	m.Clarity = a.clarityScore(lower, words, sentences, m)
	m.Quality = a.qualityScore(lower, words, m)
	m.Safety = a.safetyScore(lower, words)
	m.Complexity = assessComplexity(len(words), countInstructions(lower))

	a.logger.WithFields(logrus.Fields{
		"tokens": m.TokenCount,
		"issues": len(m.Issues),
	}).Debug("prompt analyzed")

	return m
}

func (a *Analyzer) identifyIssues(text, lower string, words []string) []prompt.IssueTag {
	var issues []prompt.IssueTag

	if len(words) < 4 {
		issues = append(issues, prompt.IssueTooShort)
	}
	if len(words) > 300 {
		issues = append(issues, prompt.IssueTooLong)
	}
	if !strings.ContainsAny(text, ".!?") {
		issues = append(issues, prompt.IssueNoSentenceBreaks)
	}
	if !hasInstructionVerb(lower) {
		issues = append(issues, prompt.IssueNoInstructionVerb)
	}
	if containsAnyWord(lower, VagueWords) {
		issues = append(issues, prompt.IssueVagueLanguage)
	}
	if containsAny(lower, FillerPhrases) {
		issues = append(issues, prompt.IssueFillerLanguage)
	}
	if strings.Count(text, "?") > 5 {
		issues = append(issues, prompt.IssueTooManyQuestions)
	}

	return issues
}

// clarityScore is a weighted combination of instruction presence, absence
// of vague language, sentence-length regularity and format instructions.
func (a *Analyzer) clarityScore(lower string, words []string, sentences []string, m prompt.Metrics) float64 {
	score := 0.5

	if hasInstructionVerb(lower) {
		score += 0.2
	}
	if m.HasFormatSpec {
		score += 0.1
	}
	if m.HasExamples {
		score += 0.1
	}
	if containsAnyWord(lower, VagueWords) {
		score -= 0.15
	}
	if containsAny(lower, FillerPhrases) {
		score -= 0.1
	}
	if len(words) > 200 {
		score -= 0.1
	}
	if v := sentenceLengthVariance(sentences); v > 120 {
		score -= 0.05
	}

	return clamp01(score)
}

func (a *Analyzer) qualityScore(lower string, words []string, m prompt.Metrics) float64 {
	score := 0.4

	if hasInstructionVerb(lower) {
		score += 0.2
	}
	if m.HasFormatSpec {
		score += 0.1
	}
	if m.HasExamples {
		score += 0.1
	}
	if containsAny(lower, []string{"context", "background", "given"}) {
		score += 0.05
	}
	if containsAny(lower, []string{"must", "should", "require"}) {
		score += 0.05
	}
	if len(words) >= 8 {
		score += 0.1
	}
	if containsAnyWord(lower, VagueWords) {
		score -= 0.15
	}

	return clamp01(score)
}

// safetyScore is keyword density only. It feeds fast fitness feedback;
// the guardrail engine is the authoritative gate.
func (a *Analyzer) safetyScore(lower string, words []string) float64 {
	hits := 0
	for _, topic := range unsafeTopics {
		hits += countWordOccurrences(lower, topic)
	}
	if hits == 0 {
		return 1.0
	}
	density := float64(hits) / math.Max(float64(len(words)), 1)
	return clamp01(1.0 - 0.25*float64(hits) - density)
}

func assessComplexity(wordCount, instructionCount int) prompt.Complexity {
	switch {
	case wordCount < 20 && instructionCount <= 1:
		return prompt.ComplexityLow
	case wordCount < 100 && instructionCount <= 3:
		return prompt.ComplexityMedium
	default:
		return prompt.ComplexityHigh
	}
}

func countInstructions(lower string) int {
	count := 0
	for _, verb := range InstructionVerbs {
		count += countWordOccurrences(lower, verb)
	}
	return count
}

func hasInstructionVerb(lower string) bool {
	for _, verb := range InstructionVerbs {
		if countWordOccurrences(lower, verb) > 0 {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	parts := sentencePattern.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func sentenceLengthVariance(sentences []string) float64 {
	if len(sentences) < 2 {
		return 0
	}
	lengths := make([]float64, len(sentences))
	var sum float64
	for i, s := range sentences {
		lengths[i] = float64(len(strings.Fields(s)))
		sum += lengths[i]
	}
	mean := sum / float64(len(lengths))
	var variance float64
	for _, l := range lengths {
		variance += (l - mean) * (l - mean)
	}
	return variance / float64(len(lengths))
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func containsAnyWord(lower string, words []string) bool {
	for _, w := range words {
		if countWordOccurrences(lower, w) > 0 {
			return true
		}
	}
	return false
}

func countWordOccurrences(lower, word string) int {
	count := 0
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return count
		}
		start := idx + i
		end := start + len(word)
		if boundaryBefore(lower, start) && boundaryAfter(lower, end) {
			count++
		}
		idx = end
	}
}

func boundaryBefore(s string, i int) bool {
	return i == 0 || !isWordByte(s[i-1])
}

func boundaryAfter(s string, i int) bool {
	return i >= len(s) || !isWordByte(s[i])
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
