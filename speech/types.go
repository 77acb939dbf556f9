// Package speech provides the speech-to-text and text-to-speech provider
// boundary for the voice pipeline. Providers are external collaborators; this
// package defines their contract and ships HTTP clients for the OpenAI
// implementations the pipeline uses by default.
package speech

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/voxflow/voxflow/types"
)

// mapStatus converts an HTTP error status from a speech API into the shared
// error taxonomy.
func mapStatus(status int) types.ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return types.ErrUnauthorized
	case status == http.StatusForbidden:
		return types.ErrForbidden
	case status == http.StatusTooManyRequests:
		return types.ErrRateLimited
	case status >= 500:
		return types.ErrUpstreamError
	default:
		return types.ErrInvalidRequest
	}
}

// TTSRequest represents a text-to-speech request.
type TTSRequest struct {
	Text           string  `json:"text"`
	Model          string  `json:"model,omitempty"`
	Voice          string  `json:"voice,omitempty"`
	Speed          float64 `json:"speed,omitempty"`           // 0.25-4.0
	ResponseFormat string  `json:"response_format,omitempty"` // mp3, opus, wav, pcm
}

// TTSResponse represents a response to a TTS request. Audio is a stream the
// caller must close.
type TTSResponse struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Audio     io.ReadCloser `json:"-"`
	Format    string        `json:"format"`
	CharCount int           `json:"char_count,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// TTSProvider is the text-to-speech contract.
type TTSProvider interface {
	// Synthesize converts text to speech.
	Synthesize(ctx context.Context, req *TTSRequest) (*TTSResponse, error)

	// Name returns the provider name.
	Name() string
}

// STTRequest represents a speech-to-text request.
type STTRequest struct {
	Audio    io.Reader `json:"-"`
	Model    string    `json:"model,omitempty"`
	Language string    `json:"language,omitempty"` // ISO-639-1 code
	Prompt   string    `json:"prompt,omitempty"`   // Context hint
}

// STTResponse represents a response to an STT request.
type STTResponse struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Text      string        `json:"text"`
	Language  string        `json:"language,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// STTProvider is the speech-to-text contract.
type STTProvider interface {
	// Transcribe converts speech to text.
	Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error)

	// Name returns the provider name.
	Name() string

	// SupportedFormats returns the audio formats the provider accepts.
	SupportedFormats() []string
}
