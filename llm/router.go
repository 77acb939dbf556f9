package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voxflow/voxflow/internal/metrics"
	"github.com/voxflow/voxflow/types"
)

// Backend roles. Routing picks between exactly these two capabilities: a fast
// model for short factual and general chatter, an advanced model for anything
// that needs reasoning, code, or creative output.
const (
	BackendFast     = "fast"
	BackendAdvanced = "advanced"
)

// Routing reasons, one per query class.
const (
	reasonSimple    = "Simple factual query"
	reasonComplex   = "Complex reasoning query"
	reasonTechnical = "Technical/coding query"
	reasonCreative  = "Creative query"
	reasonGeneral   = "General query"
)

// errResponsePrefix marks a degraded value-level backend failure. The router
// never propagates a backend error; the voice pipeline keeps speaking.
const errResponsePrefix = "Error calling model: "

// RoutingDecision records the outcome of routing one query. Immutable once
// produced.
type RoutingDecision struct {
	Backend  string     `json:"backend"`
	Role     string     `json:"role"`
	Class    QueryClass `json:"class"`
	Reason   string     `json:"reason"`
	Response string     `json:"response"`
}

// Failed reports whether the decision carries a degraded error response
// instead of real backend output.
func (d *RoutingDecision) Failed() bool {
	return len(d.Response) >= len(errResponsePrefix) && d.Response[:len(errResponsePrefix)] == errResponsePrefix
}

// RouterOptions configures a Router.
type RouterOptions struct {
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

func normalizeRouterOptions(opts RouterOptions) RouterOptions {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

// Router selects exactly one backend per query using the classification
// heuristics and invokes it synchronously. It performs no retries and no
// fallback: timeout policy belongs to the backend itself.
type Router struct {
	backends map[string]Provider // role -> Provider
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewRouter creates a router over a role-keyed backend set. Both the "fast"
// and the "advanced" role must be present, otherwise construction fails with
// a configuration error.
func NewRouter(backends map[string]Provider, opts RouterOptions) (*Router, error) {
	opts = normalizeRouterOptions(opts)

	for _, role := range []string{BackendFast, BackendAdvanced} {
		if backends[role] == nil {
			return nil, types.NewError(types.ErrConfigInvalid,
				"backend set must include the "+role+" role")
		}
	}

	return &Router{
		backends: backends,
		logger:   opts.Logger.With(zap.String("component", "router")),
		metrics:  opts.Metrics,
	}, nil
}

// selectBackend maps a query class to a role and a human-readable reason.
// Priority order is fixed; first match wins (see Classify).
func selectBackend(class QueryClass) (role, reason string) {
	switch class {
	case ClassSimple:
		return BackendFast, reasonSimple
	case ClassComplex:
		return BackendAdvanced, reasonComplex
	case ClassTechnical:
		return BackendAdvanced, reasonTechnical
	case ClassCreative:
		return BackendAdvanced, reasonCreative
	default:
		return BackendFast, reasonGeneral
	}
}

// Route classifies the query, invokes the selected backend with the raw text,
// and returns the decision. It always returns a non-nil decision whose
// backend is drawn from the configured set; a backend failure degrades to a
// value-level error response rather than a returned error.
func (r *Router) Route(ctx context.Context, text string) *RoutingDecision {
	class := Classify(text)
	role, reason := selectBackend(class)
	backend := r.backends[role]

	decision := &RoutingDecision{
		Backend: backend.Name(),
		Role:    role,
		Class:   class,
		Reason:  reason,
	}

	start := time.Now()
	resp, err := backend.Completion(ctx, &ChatRequest{
		Messages: []Message{{Role: types.RoleUser, Content: text}},
	})
	elapsed := time.Since(start)

	r.metrics.RecordDecision(string(class), decision.Backend)
	r.metrics.ObserveBackendCall(decision.Backend, elapsed, err == nil)

	if err != nil {
		decision.Response = errResponsePrefix + err.Error()
		r.logger.Warn("backend invocation failed",
			zap.String("backend", decision.Backend),
			zap.String("class", string(class)),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		)
		return decision
	}

	decision.Response = ResponseText(resp)
	r.logger.Debug("routed query",
		zap.String("backend", decision.Backend),
		zap.String("class", string(class)),
		zap.String("reason", reason),
		zap.Duration("latency", elapsed),
	)
	return decision
}

// Backends returns the configured role-keyed backend set.
func (r *Router) Backends() map[string]Provider {
	return r.backends
}
