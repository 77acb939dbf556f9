package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxflow/voxflow/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.FastModel)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.AdvancedModel)
	assert.Equal(t, "voxflow-agent", cfg.LiveKit.AgentName)
	assert.Equal(t, "tts-1", cfg.Speech.TTSModel)
	assert.Equal(t, "whisper-1", cfg.Speech.STTModel)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
gemini:
  fast_model: gemini-2.0-flash
  timeout: 15s
livekit:
  url: wss://voice.example.com
`), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).WithoutDotenv().Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.FastModel)
	assert.Equal(t, 15*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, "wss://voice.example.com", cfg.LiveKit.URL)
	// Untouched values keep their defaults.
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.AdvancedModel)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "nope.yaml")).
		WithoutDotenv().
		Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoader_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := NewLoader().WithConfigPath(path).WithoutDotenv().Load()
	require.Error(t, err)
}

func TestLoader_PrefixedEnvOverrides(t *testing.T) {
	t.Setenv("VOXFLOW_SERVER_ADDR", ":7070")
	t.Setenv("VOXFLOW_GEMINI_FAST_MODEL", "gemini-exp")
	t.Setenv("VOXFLOW_GEMINI_TIMEOUT", "5s")
	t.Setenv("VOXFLOW_LOG_LEVEL", "debug")

	cfg, err := NewLoader().WithoutDotenv().Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "gemini-exp", cfg.Gemini.FastModel)
	assert.Equal(t, 5*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_WellKnownEnv(t *testing.T) {
	t.Setenv("LIVEKIT_URL", "wss://lk.example.com")
	t.Setenv("LIVEKIT_API_KEY", "lk-key")
	t.Setenv("LIVEKIT_API_SECRET", "lk-secret")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")

	cfg, err := NewLoader().WithoutDotenv().Load()
	require.NoError(t, err)

	assert.Equal(t, "wss://lk.example.com", cfg.LiveKit.URL)
	assert.Equal(t, "lk-key", cfg.LiveKit.APIKey)
	assert.Equal(t, "lk-secret", cfg.LiveKit.APISecret)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
	assert.Equal(t, "oa-key", cfg.Speech.OpenAIAPIKey)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LiveKit.URL = "wss://lk.example.com"
	cfg.LiveKit.APIKey = "key"
	cfg.LiveKit.APISecret = "secret"
	cfg.Gemini.APIKey = "g-key"
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate_NamesMissingVars(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LiveKit.URL = "wss://lk.example.com"
	cfg.LiveKit.APIKey = "key"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, types.ErrConfigMissing, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "LIVEKIT_API_SECRET")
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
	assert.NotContains(t, err.Error(), "LIVEKIT_URL")
}
