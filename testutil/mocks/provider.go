// Package mocks provides test doubles for the backend contract.
//
// MockProvider supports fixed responses, error injection, and call recording.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxflow/voxflow/llm"
	"github.com/voxflow/voxflow/types"
)

// MockCall records a single invocation.
type MockCall struct {
	Request  *llm.ChatRequest
	Response *llm.ChatResponse
	Err      error
}

// MockProvider is a configurable in-memory implementation of llm.Provider.
type MockProvider struct {
	mu sync.Mutex

	name     string
	response string
	err      error
	delay    time.Duration

	failAfter int // fail on call N+1 and later; 0 disables
	callCount int
	calls     []MockCall

	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// NewMockProvider creates a mock backend named "mock" returning a fixed
// response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name:     "mock",
		response: "Mock response",
	}
}

// WithName sets the backend name.
func (m *MockProvider) WithName(name string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	return m
}

// WithResponse sets the fixed response content.
func (m *MockProvider) WithResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithError makes every call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithDelay adds a synthetic latency to each call.
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithFailAfter makes calls fail once more than n calls have been made.
func (m *MockProvider) WithFailAfter(n int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithCompletionFunc overrides Completion entirely.
func (m *MockProvider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completionFunc = fn
	return m
}

func (m *MockProvider) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Completion returns the configured response or error and records the call.
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.callCount++
	count := m.callCount
	fn := m.completionFunc
	delay := m.delay
	err := m.err
	if err == nil && m.failAfter > 0 && count > m.failAfter {
		err = types.NewError(types.ErrUpstreamError, "mock failure injected")
	}
	response := m.response
	name := m.name
	m.mu.Unlock()

	if fn != nil {
		resp, fnErr := fn(ctx, req)
		m.record(req, resp, fnErr)
		return resp, fnErr
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			m.record(req, nil, ctx.Err())
			return nil, ctx.Err()
		}
	}

	if err != nil {
		m.record(req, nil, err)
		return nil, err
	}

	resp := &llm.ChatResponse{
		ID:       uuid.NewString(),
		Provider: name,
		Model:    req.Model,
		Choices: []llm.ChatChoice{
			{
				Index:        0,
				FinishReason: "stop",
				Message:      llm.Message{Role: types.RoleAssistant, Content: response},
			},
		},
		Usage:     llm.ChatUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		CreatedAt: time.Now(),
	}
	m.record(req, resp, nil)
	return resp, nil
}

// Stream returns the configured response as a single chunk.
func (m *MockProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	resp, err := m.Completion(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{
		ID:           resp.ID,
		Provider:     resp.Provider,
		Delta:        llm.Message{Role: types.RoleAssistant, Content: llm.ResponseText(resp)},
		FinishReason: "stop",
	}
	close(ch)
	return ch, nil
}

func (m *MockProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true, Latency: time.Millisecond}, nil
}

func (m *MockProvider) record(req *llm.ChatRequest, resp *llm.ChatResponse, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Request: req, Response: resp, Err: err})
}

// CallCount returns the number of Completion calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Calls returns a copy of recorded calls.
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastRequest returns the most recent request, or nil before any call.
func (m *MockProvider) LastRequest() *llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1].Request
}

// Reset clears recorded calls and the call counter.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.calls = nil
}
