package analyzer

// Lexicons shared between scoring and the mutation operators. The
// compression operator removes exactly the phrases the analyzer penalizes,
// so a mutated prompt never re-flags what was just stripped.

// InstructionVerbs are accepted as an explicit task instruction.
var InstructionVerbs = []string{
	"write", "generate", "create", "analyze", "explain", "describe",
	"summarize", "list", "provide", "translate", "classify", "extract",
	"compare", "rewrite", "answer", "draft", "outline", "review",
}

// FillerPhrases add tokens without adding instruction content. Ordered by
// phrase length so multi-word phrases are stripped before their substrings.
var FillerPhrases = []string{
	"please make sure to",
	"it would be great if you could",
	"i would like you to",
	"if at all possible",
	"as much as possible",
	"carefully and thoroughly",
	"make sure to",
	"be sure to",
	"please kindly",
	"very carefully",
	"go ahead and",
	"really",
	"kindly",
	"basically",
	"actually",
	"just",
	"very",
	"quite",
	"please",
}

// VagueWords signal an under-specified request.
var VagueWords = []string{
	"maybe", "perhaps", "possibly", "something", "anything", "stuff",
	"thing", "things", "somehow", "whatever", "etc",
}

// FormatMarkers indicate an explicit output-format instruction.
var FormatMarkers = []string{
	"format", "structure", "bullet", "numbered list", "json", "table",
	"markdown", "sections", "headings", "csv",
}

// ExampleMarkers indicate a worked example is present.
var ExampleMarkers = []string{
	"example", "for instance", "such as", "e.g.", "like this",
}

// unsafeTopics is the lightweight keyword lexicon behind the safety
// heuristic. Full gating always goes through the guardrail engine; this
// only feeds fast fitness scoring.
var unsafeTopics = []string{
	"hack", "exploit", "malware", "weapon", "bomb", "violence",
	"suicide", "self-harm", "illegal", "jailbreak",
}
