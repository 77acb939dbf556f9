// Package voxflow provides a top-level convenience entry point for creating
// a routed conversation session with minimal boilerplate.
//
// Usage:
//
//	import "github.com/voxflow/voxflow"
//
//	session, err := voxflow.NewSession(voxflow.WithAPIKey(key))
//	reply := session.Invoke(ctx, "What is the capital of France?")
//
// This is a thin wrapper around the llm and providers packages; use them
// directly when you need custom backends or metrics.
package voxflow

import (
	"os"

	"go.uber.org/zap"

	"github.com/voxflow/voxflow/llm"
	"github.com/voxflow/voxflow/providers"
	"github.com/voxflow/voxflow/providers/gemini"
)

// Options configures NewSession.
type Options struct {
	apiKey        string
	fastModel     string
	advancedModel string
	logger        *zap.Logger
}

// Option configures the session created by [NewSession].
type Option func(*Options)

// WithAPIKey sets the Gemini API key. Defaults to GOOGLE_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *Options) { o.apiKey = key }
}

// WithModels overrides the fast and advanced model names.
func WithModels(fast, advanced string) Option {
	return func(o *Options) {
		o.fastModel = fast
		o.advancedModel = advanced
	}
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// NewSession creates a conversation session over the default Gemini backend
// pair: short factual queries go to the fast model, everything demanding
// goes to the advanced one.
func NewSession(opts ...Option) (*llm.Session, error) {
	o := &Options{
		apiKey:        os.Getenv("GOOGLE_API_KEY"),
		fastModel:     "gemini-2.5-flash",
		advancedModel: "gemini-2.5-pro",
	}
	for _, opt := range opts {
		opt(o)
	}

	newBackend := func(model string) *gemini.Provider {
		return gemini.New(providers.GeminiConfig{
			APIKey: o.apiKey,
			Model:  model,
		}, o.logger)
	}

	return llm.NewSession(map[string]llm.Provider{
		llm.BackendFast:     newBackend(o.fastModel),
		llm.BackendAdvanced: newBackend(o.advancedModel),
	}, llm.SessionOptions{
		Logger: o.logger,
	})
}
