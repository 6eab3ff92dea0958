package prompt

// Complexity buckets a prompt by length and instruction density.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// IssueTag marks a concrete problem the analyzer found in a prompt.
type IssueTag string

const (
	IssueEmpty             IssueTag = "empty"
	IssueTooShort          IssueTag = "too_short"
	IssueTooLong           IssueTag = "too_long"
	IssueNoInstructionVerb IssueTag = "no_instruction_verb"
	IssueNoSentenceBreaks  IssueTag = "no_sentence_breaks"
	IssueVagueLanguage     IssueTag = "vague_language"
	IssueFillerLanguage    IssueTag = "filler_language"
	IssueTooManyQuestions  IssueTag = "too_many_questions"
)

// Metrics is an immutable scored snapshot of one prompt string.
// It is recomputed from scratch for every string; nothing mutates it.
type Metrics struct {
	TokenCount    int        `json:"token_count"`
	WordCount     int        `json:"word_count"`
	SentenceCount int        `json:"sentence_count"`
	Clarity       float64    `json:"clarity_score"`
	Quality       float64    `json:"quality_score"`
	Safety        float64    `json:"safety_score"`
	Complexity    Complexity `json:"complexity"`
	HasExamples   bool       `json:"has_examples"`
	HasFormatSpec bool       `json:"has_format_spec"`
	Issues        []IssueTag `json:"issues"`
}

// HasIssue reports whether the analyzer flagged the given tag.
func (m Metrics) HasIssue(tag IssueTag) bool {
	for _, i := range m.Issues {
		if i == tag {
			return true
		}
	}
	return false
}
