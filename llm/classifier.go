package llm

import "strings"

// QueryClass is the routing category assigned to an input query.
type QueryClass string

const (
	ClassSimple    QueryClass = "simple"
	ClassComplex   QueryClass = "complex"
	ClassTechnical QueryClass = "technical"
	ClassCreative  QueryClass = "creative"
	ClassGeneral   QueryClass = "general"
)

// simpleQueryMaxWords is the length gate for the simple-query heuristic.
const simpleQueryMaxWords = 8

var simplePatterns = []string{
	"what is", "who is", "when is", "where is",
	"what's", "who's", "when's", "where's",
	"define", "meaning of", "capital of",
	"how many", "how much", "how old",
}

var complexIndicators = []string{
	"explain", "why", "how does", "how do", "reasoning",
	"step by step", "analyze", "compare", "contrast",
	"differences between", "relationship between",
	"implications", "consequences", "effect of",
}

var technicalKeywords = []string{
	"code", "python", "javascript", "function", "algorithm",
	"implement", "debug", "sql", "api", "class",
	"programming", "software", "developer", "technical",
}

var creativeKeywords = []string{
	"write a story", "poem", "creative", "imagine", "compose",
	"draft", "marketing", "slogan", "brainstorm", "design", "invent",
}

func normalizeQuery(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// containsAny checks substring containment, not word-boundary tokenization.
// A pattern matching inside a longer word still counts; this matches the
// shipped heuristic and routing regressions depend on the literal behavior.
func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// IsSimpleQuery detects short, direct factual questions: at most eight words
// and at least one simple question pattern.
func IsSimpleQuery(text string) bool {
	if len(strings.Fields(text)) > simpleQueryMaxWords {
		return false
	}
	return containsAny(normalizeQuery(text), simplePatterns)
}

// IsComplexQuery detects queries that need deep reasoning or explanation.
// Unlike the simple check, it has no length gate.
func IsComplexQuery(text string) bool {
	return containsAny(normalizeQuery(text), complexIndicators)
}

// IsTechnicalQuery detects programming and software queries.
func IsTechnicalQuery(text string) bool {
	return containsAny(normalizeQuery(text), technicalKeywords)
}

// IsCreativeQuery detects queries asking for creative output.
func IsCreativeQuery(text string) bool {
	return containsAny(normalizeQuery(text), creativeKeywords)
}

// Classify labels an input query. It is a pure, deterministic function of the
// input: case-insensitive, whitespace-trimmed, evaluated in the router's
// fixed priority order with first match winning.
func Classify(text string) QueryClass {
	switch {
	case IsSimpleQuery(text):
		return ClassSimple
	case IsComplexQuery(text):
		return ClassComplex
	case IsTechnicalQuery(text):
		return ClassTechnical
	case IsCreativeQuery(text):
		return ClassCreative
	default:
		return ClassGeneral
	}
}
