// Package gemini implements the backend contract on top of the Google Gemini
// generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxflow/voxflow/llm"
	"github.com/voxflow/voxflow/providers"
	"github.com/voxflow/voxflow/types"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Provider calls Gemini over HTTP. Authentication uses the x-goog-api-key
// request header.
type Provider struct {
	cfg    providers.GeminiConfig
	client *http.Client
	logger *zap.Logger
}

// New creates a Gemini provider.
func New(cfg providers.GeminiConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "gemini"), zap.String("model", cfg.Model)),
	}
}

// Name returns the configured model name, which doubles as the backend
// identifier so that two instances with different models stay distinguishable
// in routing decisions.
func (p *Provider) Name() string { return p.cfg.Model }

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // user, model
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float32  `json:"temperature,omitempty"`
	TopP            float32  `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (p *Provider) buildRequest(req *llm.ChatRequest) *geminiRequest {
	out := &geminiRequest{}

	for _, m := range req.Messages {
		switch m.Role {
		case types.RoleSystem:
			out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case types.RoleAssistant:
			out.Contents = append(out.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			out.Contents = append(out.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}

	gen := &geminiGenerationConfig{
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.Stop,
	}
	if gen.Temperature == 0 {
		gen.Temperature = p.cfg.Temperature
	}
	if req.MaxTokens > 0 {
		gen.MaxOutputTokens = req.MaxTokens
	} else if p.cfg.MaxTokens > 0 {
		gen.MaxOutputTokens = p.cfg.MaxTokens
	}
	out.GenerationConfig = gen

	return out
}

// Completion issues a synchronous generateContent request.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	payload, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to encode request").WithCause(err).WithProvider(p.Name())
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(p.cfg.BaseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to create request").WithCause(err).WithProvider(p.Name())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrUpstreamTimeout, "gemini request cancelled").WithCause(err).WithProvider(p.Name())
		}
		return nil, types.NewError(types.ErrUpstreamError, "gemini request failed").WithCause(err).WithRetryable(true).WithProvider(p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapError(resp.StatusCode, resp.Body)
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "failed to decode gemini response").WithCause(err).WithProvider(p.Name())
	}

	out := &llm.ChatResponse{
		ID:       uuid.NewString(),
		Provider: p.Name(),
		Model:    model,
		Usage: llm.ChatUsage{
			PromptTokens:     gResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: gResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gResp.UsageMetadata.TotalTokenCount,
		},
		CreatedAt: time.Now(),
	}

	for i, cand := range gResp.Candidates {
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
		out.Choices = append(out.Choices, llm.ChatChoice{
			Index:        i,
			FinishReason: strings.ToLower(cand.FinishReason),
			Message:      llm.Message{Role: types.RoleAssistant, Content: sb.String()},
		})
	}

	return out, nil
}

// Stream simulates streaming over the synchronous endpoint: the full response
// is fetched and emitted as a single chunk. Token-level streaming is not part
// of the routing pipeline's contract.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	resp, err := p.Completion(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{
		ID:           resp.ID,
		Provider:     resp.Provider,
		Model:        resp.Model,
		Delta:        llm.Message{Role: types.RoleAssistant, Content: llm.ResponseText(resp)},
		FinishReason: "stop",
	}
	close(ch)
	return ch, nil
}

// HealthCheck probes the models listing endpoint.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1beta/models"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &llm.HealthStatus{Healthy: false}, err
	}
	httpReq.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("gemini health check failed: status=%d", resp.StatusCode)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

func (p *Provider) mapError(status int, body io.Reader) *types.Error {
	msg := "gemini request rejected"
	var eBody geminiErrorBody
	if err := json.NewDecoder(body).Decode(&eBody); err == nil && eBody.Error.Message != "" {
		msg = eBody.Error.Message
	}

	var code types.ErrorCode
	retryable := false
	switch {
	case status == http.StatusBadRequest:
		code = types.ErrInvalidRequest
	case status == http.StatusUnauthorized:
		code = types.ErrUnauthorized
	case status == http.StatusForbidden:
		code = types.ErrForbidden
	case status == http.StatusTooManyRequests:
		code = types.ErrRateLimited
		retryable = true
	case status >= 500:
		code = types.ErrUpstreamError
		retryable = true
	default:
		code = types.ErrUpstreamError
	}

	return types.NewError(code, msg).WithRetryable(retryable).WithProvider(p.Name())
}
