package mutation

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"github.com/PromptOps/PromptForge/pkg/analyzer"
)

// Operator is one deterministic rewrite. Apply must terminate, must not
// panic for any input, and must preserve the placeholder set of text.
// Applying an operator twice is allowed and may be a no-op.
type Operator interface {
	Name() string
	Apply(text string, seed int64) string
}

// Operators returns the full unary operator set in fixed order. Order
// matters for seed derivation, so it is part of the reproducibility
// contract.
func Operators() []Operator {
	return []Operator{
		Compression{},
		VagueRemoval{},
		Clarification{},
		Structuring{},
		Truncation{},
	}
}

var (
	whitespaceRun  = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforeDot = regexp.MustCompile(`\s+([.,;:!?])`)
	duplicateWord  = regexp.MustCompile(`(?i)\b(please|very|really|actually|carefully)(\s+\1)+\b`)
)

// simplifications swap wordy constructions for shorter equivalents.
var simplifications = [][2]string{
	{"in order to", "to"},
	{"utilize", "use"},
	{"demonstrate", "show"},
	{"facilitate", "help"},
	{"subsequently", "then"},
	{"furthermore", "also"},
	{"approximately", "about"},
}

// Compression collapses filler phrases and redundant clauses using the
// same lexicon the analyzer penalizes.
type Compression struct{}

func (Compression) Name() string { return "compression" }

func (Compression) Apply(text string, _ int64) string {
	out := text
	for _, phrase := range analyzer.FillerPhrases {
		out = removePhrase(out, phrase)
	}
	for _, pair := range simplifications {
		out = replacePhrase(out, pair[0], pair[1])
	}
	out = duplicateWord.ReplaceAllString(out, "$1")
	out = dedupeSentences(out)
	return tidy(out, text)
}

// VagueRemoval strips vague qualifiers that add tokens without meaning.
type VagueRemoval struct{}

func (VagueRemoval) Name() string { return "vague_removal" }

func (VagueRemoval) Apply(text string, _ int64) string {
	out := text
	for _, word := range analyzer.VagueWords {
		out = removePhrase(out, word)
	}
	return tidy(out, text)
}

// Clarification prepends an explicit instruction verb when the text has
// none.
type Clarification struct{}

func (Clarification) Name() string { return "clarification" }

func (Clarification) Apply(text string, _ int64) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}
	lower := strings.ToLower(trimmed)
	for _, verb := range analyzer.InstructionVerbs {
		if containsWord(lower, verb) {
			return text
		}
	}
	return "Provide a response to the following. " + trimmed
}

// Structuring wraps free text into an explicit task/output template when
// variable placeholders are present.
type Structuring struct{}

func (Structuring) Name() string { return "structuring" }

func (Structuring) Apply(text string, _ int64) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(Placeholders(trimmed)) == 0 {
		return text
	}
	if strings.HasPrefix(trimmed, "Task:") {
		return text
	}
	return "Task: " + trimmed + "\nFormat the output as plain text."
}

// Truncation removes trailing elaboration, always keeping the first
// sentence and every sentence carrying a placeholder verbatim.
type Truncation struct{}

func (Truncation) Name() string { return "truncation" }

func (Truncation) Apply(text string, _ int64) string {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return text
	}

	kept := []string{sentences[0]}
	for _, s := range sentences[1:] {
		if len(Placeholders(s)) > 0 {
			kept = append(kept, s)
		}
	}
	out := strings.TrimSpace(strings.Join(kept, " "))
	if out == "" || !SamePlaceholders(out, text) {
		return text
	}
	return out
}

// Crossover recombines two parents at a sentence boundary. The split
// point never fractures a placeholder because segments are whole
// sentences; if the recombination would change either parent's
// placeholder set, the parents are returned unchanged.
func Crossover(parentA, parentB string, seed int64) (string, string) {
	sa := splitSentences(parentA)
	sb := splitSentences(parentB)
	if len(sa) < 2 || len(sb) < 2 {
		return parentA, parentB
	}

	rng := rand.New(rand.NewSource(seed))
	limit := len(sa)
	if len(sb) < limit {
		limit = len(sb)
	}
	point := 1 + rng.Intn(limit-1)

	childA := strings.TrimSpace(strings.Join(append(append([]string{}, sa[:point]...), sb[point:]...), " "))
	childB := strings.TrimSpace(strings.Join(append(append([]string{}, sb[:point]...), sa[point:]...), " "))

	if !SamePlaceholders(childA, parentA) || !SamePlaceholders(childB, parentB) {
		return parentA, parentB
	}
	return childA, childB
}

var sentenceSplit = regexp.MustCompile(`(?s)(.*?[.!?])(?:\s+|$)`)

func splitSentences(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	matches := sentenceSplit.FindAllStringSubmatch(trimmed, -1)
	var out []string
	consumed := 0
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
		consumed += len(m[0])
	}
	if rest := strings.TrimSpace(trimmed[min(consumed, len(trimmed)):]); rest != "" {
		out = append(out, rest)
	}
	if len(out) == 0 {
		out = []string{trimmed}
	}
	return out
}

var (
	phraseMu       sync.Mutex
	phrasePatterns = map[string]*regexp.Regexp{}
)

// phrasePattern compiles and caches a case-insensitive whole-word
// matcher for phrase. Matching the original text directly keeps byte
// offsets valid even when lowercasing would change rune widths.
func phrasePattern(key, expr string) *regexp.Regexp {
	phraseMu.Lock()
	defer phraseMu.Unlock()
	re, ok := phrasePatterns[key]
	if !ok {
		re = regexp.MustCompile(expr)
		phrasePatterns[key] = re
	}
	return re
}

// removePhrase deletes whole-word occurrences of phrase, case-insensitive.
// A single trailing space is swallowed so the surrounding words do not fuse.
func removePhrase(text, phrase string) string {
	re := phrasePattern("rm:"+phrase, `(?i)\b`+regexp.QuoteMeta(phrase)+`\b ?`)
	return re.ReplaceAllLiteralString(text, "")
}

// replacePhrase swaps whole-word occurrences of phrase, case-insensitive.
func replacePhrase(text, phrase, replacement string) string {
	re := phrasePattern("sub:"+phrase, `(?i)\b`+regexp.QuoteMeta(phrase)+`\b`)
	return re.ReplaceAllLiteralString(text, replacement)
}

func wordBoundary(s string, start, end int) bool {
	before := start == 0 || !isWordByte(s[start-1])
	after := end >= len(s) || !isWordByte(s[end])
	return before && after
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		if wordBoundary(lower, start, end) {
			return true
		}
		idx = end
	}
}

func dedupeSentences(text string) string {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return text
	}
	seen := make(map[string]bool)
	var kept []string
	for _, s := range sentences {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, s)
	}
	if len(kept) == len(sentences) {
		return text
	}
	return strings.Join(kept, " ")
}

// tidy normalises whitespace after phrase removal, falling back to the
// original text if the rewrite stripped everything or lost a placeholder.
func tidy(out, original string) string {
	out = whitespaceRun.ReplaceAllString(out, " ")
	out = spaceBeforeDot.ReplaceAllString(out, "$1")
	out = strings.TrimSpace(out)
	if out == "" || !SamePlaceholders(out, original) {
		return original
	}
	return out
}
