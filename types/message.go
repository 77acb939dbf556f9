// Package types provides core types shared across the voxflow gateway.
// This package has ZERO dependencies on other voxflow packages to avoid
// circular imports. All other packages should import types from here.
package types

import "time"

// Role represents the role of a conversation participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one entry in a conversation history as delivered by the
// voice pipeline. Content is a tagged variant: either plain text or a sequence
// of typed parts (multimodal transports split a turn into parts).
type Message struct {
	Role      Role      `json:"role"`
	Content   Content   `json:"content"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewMessage creates a new plain-text message with the given role.
func NewMessage(role Role, text string) Message {
	return Message{
		Role:      role,
		Content:   TextContent(text),
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new plain-text user message.
func NewUserMessage(text string) Message {
	return NewMessage(RoleUser, text)
}

// NewAssistantMessage creates a new plain-text assistant message.
func NewAssistantMessage(text string) Message {
	return NewMessage(RoleAssistant, text)
}
