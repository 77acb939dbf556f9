package config

import "time"

// DefaultConfig returns the baseline configuration before any overlay.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		LiveKit: LiveKitConfig{
			AgentName: "voxflow-agent",
		},
		Gemini: GeminiConfig{
			FastModel:     "gemini-2.5-flash",
			AdvancedModel: "gemini-2.5-pro",
			Timeout:       60 * time.Second,
		},
		Speech: SpeechConfig{
			TTSModel: "tts-1",
			TTSVoice: "alloy",
			STTModel: "whisper-1",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
