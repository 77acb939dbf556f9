package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  QueryClass
	}{
		{"capital question", "What is the capital of France?", ClassSimple},
		{"contraction", "Who's the president?", ClassSimple},
		{"casing and punctuation", "  WHAT IS gravity??  ", ClassSimple},
		{"count question", "How many moons does Jupiter have?", ClassSimple},
		{"step by step explanation", "Explain how neural networks work step by step", ClassComplex},
		{"why question", "Why does the economy fluctuate over decades and centuries into the future", ClassComplex},
		{"comparison", "Compare the French and American revolutions in terms of their causes and outcomes", ClassComplex},
		{"coding request", "Write a Python function for binary search", ClassTechnical},
		{"debugging", "My SQL query keeps timing out in production, debug it for me please", ClassTechnical},
		{"story request", "Write a story about a lighthouse keeper who befriends a whale", ClassCreative},
		{"slogan", "Brainstorm a slogan for our new coffee brand launching next quarter", ClassCreative},
		{"smalltalk", "Good morning to you!", ClassGeneral},
		{"empty", "", ClassGeneral},
		{"whitespace only", "   \t  ", ClassGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

// Priority order is fixed: simple wins over complex when both match and the
// length gate passes, matching the shipped routing behavior.
func TestClassify_PriorityOrder(t *testing.T) {
	// 4 words, contains "what is" (simple) and "explain" (complex).
	assert.Equal(t, ClassSimple, Classify("Explain what is gravity"))

	// Same phrases past the length gate: simple no longer applies.
	assert.Equal(t, ClassComplex,
		Classify("Explain to me in great detail what is meant by general relativity"))

	// Complex beats technical.
	assert.Equal(t, ClassComplex, Classify("Explain how this sorting algorithm works internally and why"))

	// Technical beats creative.
	assert.Equal(t, ClassTechnical, Classify("Design a REST api for our billing platform"))
}

// Matching is substring containment, not word-boundary tokenization. This is
// defined behavior: "how many" inside a longer phrase still matches, and so
// do keyword fragments embedded in unrelated words.
func TestClassify_SubstringContainment(t *testing.T) {
	// "api" is contained in "rapid".
	assert.True(t, IsTechnicalQuery("rapid transit maps"))
	// "why" is contained in "whyever".
	assert.True(t, IsComplexQuery("whyever would that be"))
}

func TestIsSimpleQuery_LengthGate(t *testing.T) {
	assert.True(t, IsSimpleQuery("What is the capital of France?"))

	// Nine words with a simple pattern: gate fails.
	assert.False(t, IsSimpleQuery("What is the exact population of the United States"))
}

func TestClassify_Deterministic(t *testing.T) {
	q := "Compare how does a daft poem define an api"
	first := Classify(q)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(q))
	}
}
