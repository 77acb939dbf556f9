// Package llm defines the text-generation backend contract and the heuristic
// routing pipeline that sits between the voice session and the backends.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/voxflow/voxflow/types"
)

// Message is one wire-level chat message sent to or received from a backend.
type Message struct {
	Role    types.Role `json:"role"`
	Content string     `json:"content,omitempty"`
	Name    string     `json:"name,omitempty"`
}

// ChatRequest is a synchronous generation request.
type ChatRequest struct {
	TraceID     string            `json:"trace_id,omitempty"`
	Model       string            `json:"model,omitempty"`
	Messages    []Message         `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float32           `json:"temperature,omitempty"`
	TopP        float32           `json:"top_p,omitempty"`
	Stop        []string          `json:"stop,omitempty"`
	Timeout     time.Duration     `json:"timeout,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ChatUsage reports token accounting for a completed request.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatChoice is one candidate completion.
type ChatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Message      Message `json:"message"`
}

// ChatResponse is a full synchronous response.
type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// StreamChunk is one unit of the streaming response protocol consumed by the
// voice front end.
type StreamChunk struct {
	ID           string       `json:"id,omitempty"`
	Provider     string       `json:"provider,omitempty"`
	Model        string       `json:"model,omitempty"`
	Index        int          `json:"index,omitempty"`
	Delta        Message      `json:"delta"`
	FinishReason string       `json:"finish_reason,omitempty"`
	Err          *types.Error `json:"error,omitempty"`
}

// HealthStatus reports the result of a lightweight provider probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider is the unified backend contract. A backend is an opaque named
// text-generation capability; routing never inspects anything beyond it.
type Provider interface {
	// Completion issues a synchronous chat request and returns the full response.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream issues a chat request and returns an incremental response channel.
	// The channel is closed when the stream ends.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// HealthCheck performs a lightweight availability probe.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the backend's unique identifier.
	Name() string
}

// ResponseText extracts the reply text from a backend response: the first
// choice's message content when present, otherwise the response's display
// string. Mirrors the "content field if present, else stringify" contract.
func ResponseText(resp *ChatResponse) string {
	if resp == nil {
		return ""
	}
	if choice, err := FirstChoice(resp); err == nil {
		return choice.Message.Content
	}
	return fmt.Sprintf("%v", *resp)
}

// FirstChoice safely returns the first choice from a ChatResponse.
// Returns an error if the response is nil or has no choices.
func FirstChoice(resp *ChatResponse) (ChatChoice, error) {
	if resp == nil {
		return ChatChoice{}, fmt.Errorf("nil ChatResponse")
	}
	if len(resp.Choices) == 0 {
		return ChatChoice{}, fmt.Errorf("empty choices in ChatResponse")
	}
	return resp.Choices[0], nil
}
