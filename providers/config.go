// Package providers holds configuration types for concrete backend
// implementations.
package providers

import "time"

// GeminiConfig configures one Gemini backend instance. The same provider
// implementation serves both routing roles: wire it twice with different
// models (a flash model for "fast", a pro model for "advanced").
type GeminiConfig struct {
	APIKey      string        `json:"api_key" yaml:"api_key"`
	BaseURL     string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string        `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature float32       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}
