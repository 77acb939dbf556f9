package types

import (
	"errors"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrUpstreamError, "upstream failed").
		WithCause(root).
		WithRetryable(true).
		WithProvider("gemini")

	if GetErrorCode(err) != ErrUpstreamError {
		t.Fatalf("expected code %s, got %s", ErrUpstreamError, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_ConfigClassification(t *testing.T) {
	t.Parallel()

	if !IsConfigError(NewError(ErrConfigMissing, "LIVEKIT_URL is required")) {
		t.Fatalf("CONFIG_MISSING should classify as config error")
	}
	if !IsConfigError(NewError(ErrConfigInvalid, "backend set incomplete")) {
		t.Fatalf("CONFIG_INVALID should classify as config error")
	}
	if IsConfigError(NewError(ErrUpstreamError, "boom")) {
		t.Fatalf("UPSTREAM_ERROR is not a config error")
	}
	if IsConfigError(errors.New("plain")) {
		t.Fatalf("plain errors are not config errors")
	}
}

func TestGetErrorCode_PlainError(t *testing.T) {
	t.Parallel()

	if code := GetErrorCode(errors.New("plain")); code != "" {
		t.Fatalf("expected empty code for plain error, got %s", code)
	}
}
