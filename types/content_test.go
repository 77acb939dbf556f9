package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContent_FlattenText(t *testing.T) {
	assert.Equal(t, "hello there", TextContent("hello there").Flatten())
	assert.Equal(t, "", TextContent("").Flatten())
}

func TestContent_FlattenParts(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		want    string
	}{
		{
			name:    "prefers explicit text part",
			content: PartsContent(Part{Kind: PartRaw, Text: "raw"}, Part{Kind: PartText, Text: "tagged"}),
			want:    "tagged",
		},
		{
			name:    "joins raw string parts",
			content: PartsContent(Part{Text: "first"}, Part{Text: "second"}),
			want:    "first second",
		},
		{
			name:    "skips non-text typed parts",
			content: PartsContent(Part{Kind: PartAudio, Text: "blob"}, Part{Text: "spoken"}),
			want:    "spoken",
		},
		{
			name:    "empty part list",
			content: PartsContent(),
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.content.Flatten())
		})
	}
}

func TestContent_IsParts(t *testing.T) {
	assert.False(t, TextContent("x").IsParts())
	assert.True(t, PartsContent(Part{Text: "x"}).IsParts())
	assert.True(t, PartsContent().IsParts(), "empty part list is still the parts form")
}
