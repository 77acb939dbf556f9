// Package agent hosts the voice agent: it extracts the user's latest
// utterance from conversation history, drives one turn through the model
// session, and adapts the reply into the pipeline's streaming protocol.
package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/voxflow/voxflow/llm"
	"github.com/voxflow/voxflow/types"
)

// DefaultGreeting is spoken when the conversation has no user utterance yet.
const DefaultGreeting = "Hello"

// LatestUserText scans the history backwards and returns the most recent
// user utterance as plain text. An empty history, or one with no user entry,
// yields DefaultGreeting so the agent always has something to respond to.
func LatestUserText(history []types.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != types.RoleUser {
			continue
		}
		if text := history[i].Content.Flatten(); text != "" {
			return text
		}
		return DefaultGreeting
	}
	return DefaultGreeting
}

// VoiceAgent answers conversation turns using a routed model session.
type VoiceAgent struct {
	session *llm.Session
	logger  *zap.Logger
}

// Options configures optional VoiceAgent collaborators.
type Options struct {
	Logger *zap.Logger
}

// New creates a voice agent over an existing session.
func New(session *llm.Session, opts Options) *VoiceAgent {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoiceAgent{
		session: session,
		logger:  logger.With(zap.String("component", "voice_agent")),
	}
}

// Respond processes one conversation turn: it picks the latest user utterance
// out of history, invokes the session, and returns the reply as a
// single-chunk stream. Backend failures surface as a spoken error message in
// the stream, never as an error from Respond.
func (a *VoiceAgent) Respond(ctx context.Context, history []types.Message) *llm.ResponseStream {
	text := LatestUserText(history)

	a.logger.Debug("processing turn",
		zap.String("user_text", text),
		zap.Int("history_len", len(history)))

	response := a.session.Invoke(ctx, text)

	a.logger.Info("turn completed",
		zap.String("backend", a.session.LastBackendUsed()))

	return llm.NewResponseStream(response)
}
