package types

import "strings"

// PartKind tags a content part. Transports deliver either raw string parts
// (empty kind) or explicitly typed parts such as "text" and "audio".
type PartKind string

const (
	PartRaw   PartKind = ""
	PartText  PartKind = "text"
	PartAudio PartKind = "audio"
)

// Part is one element of a multi-part message content.
type Part struct {
	Kind PartKind `json:"kind,omitempty"`
	Text string   `json:"text,omitempty"`
}

// Content is a tagged variant over message content: either plain Text or a
// sequence of Parts. A nil Parts slice means the plain-text form, even when
// Text is empty.
type Content struct {
	Text  string `json:"text,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// TextContent wraps plain text in the Content variant.
func TextContent(text string) Content {
	return Content{Text: text}
}

// PartsContent wraps a part sequence in the Content variant.
func PartsContent(parts ...Part) Content {
	if parts == nil {
		parts = []Part{}
	}
	return Content{Parts: parts}
}

// IsParts reports whether the content carries the part-sequence form.
func (c Content) IsParts() bool {
	return c.Parts != nil
}

// Flatten extracts a single text string from the content. For the plain form
// it returns the text as-is. For the part form it prefers the first part
// explicitly tagged as text; otherwise it concatenates all raw string parts
// with single spaces. Extraction is best-effort and never fails: content with
// no usable text flattens to the empty string.
func (c Content) Flatten() string {
	if !c.IsParts() {
		return c.Text
	}

	for _, p := range c.Parts {
		if p.Kind == PartText {
			return p.Text
		}
	}

	var raw []string
	for _, p := range c.Parts {
		if p.Kind == PartRaw && p.Text != "" {
			raw = append(raw, p.Text)
		}
	}
	return strings.Join(raw, " ")
}
