package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voxflow/voxflow/internal/metrics"
)

// InteractionRecord is one completed conversation turn. Records are
// append-only and never mutated or evicted: history grows for the lifetime of
// the session, which is acceptable for short-lived voice sessions.
type InteractionRecord struct {
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	Backend       string    `json:"backend"`
	Reason        string    `json:"reason"`
	At            time.Time `json:"at"`
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Session is one bound conversation lifetime: it owns the backend set for its
// duration and an append-only interaction log. Invoke is a blocking,
// synchronous call performing exactly one backend invocation; the internal
// mutex serializes hosts that drive concurrent calls on the same session.
type Session struct {
	router  *Router
	logger  *zap.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	history []InteractionRecord
}

// NewSession creates a session over a role-keyed backend set. The set must
// include both the fast and the advanced role; otherwise construction fails
// with a configuration error before any turn is processed.
func NewSession(backends map[string]Provider, opts SessionOptions) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	router, err := NewRouter(backends, RouterOptions{
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		router:  router,
		logger:  opts.Logger.With(zap.String("component", "session")),
		metrics: opts.Metrics,
	}, nil
}

// Invoke routes one user query through the backend set and returns the
// response text. Every call appends exactly one InteractionRecord, including
// degraded turns where the backend failed.
func (s *Session) Invoke(ctx context.Context, text string) string {
	decision := s.router.Route(ctx, text)

	s.mu.Lock()
	s.history = append(s.history, InteractionRecord{
		UserText:      text,
		AssistantText: decision.Response,
		Backend:       decision.Backend,
		Reason:        decision.Reason,
		At:            time.Now(),
	})
	s.mu.Unlock()

	s.metrics.RecordTurn()
	return decision.Response
}

// LastBackendUsed returns the backend name of the most recent turn, or "none"
// when the session has no history yet.
func (s *Session) LastBackendUsed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return "none"
	}
	return s.history[len(s.history)-1].Backend
}

// History returns a copy of the interaction log.
func (s *Session) History() []InteractionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]InteractionRecord, len(s.history))
	copy(out, s.history)
	return out
}
