package mutation

import (
	"regexp"
	"sort"
)

// placeholderPattern matches named substitution slots like {topic}. These
// are load-bearing: every operator must leave the placeholder set intact.
var placeholderPattern = regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_]*\}`)

// Placeholders returns the sorted set of placeholder literals in text.
func Placeholders(text string) []string {
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllString(text, -1) {
		seen[m] = true
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// SamePlaceholders reports whether a and b carry the identical set.
func SamePlaceholders(a, b string) bool {
	pa, pb := Placeholders(a), Placeholders(b)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}
