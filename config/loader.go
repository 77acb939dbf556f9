// Package config loads the voxflow configuration from defaults, an optional
// YAML file, and environment variables, in that priority order. A .env file
// in the working directory is folded into the environment when present.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("VOXFLOW").
//	    Load()
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/voxflow/voxflow/types"
)

// Config is the complete voxflow configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" env:"SERVER"`
	LiveKit LiveKitConfig `yaml:"livekit" env:"LIVEKIT"`
	Gemini  GeminiConfig  `yaml:"gemini" env:"GEMINI"`
	Speech  SpeechConfig  `yaml:"speech" env:"SPEECH"`
	Log     LogConfig     `yaml:"log" env:"LOG"`
}

// ServerConfig tunes the HTTP gateway.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// LiveKitConfig points at the realtime media backend.
type LiveKitConfig struct {
	URL       string `yaml:"url" env:"URL"`
	APIKey    string `yaml:"api_key" env:"API_KEY"`
	APISecret string `yaml:"api_secret" env:"API_SECRET"`
	AgentName string `yaml:"agent_name" env:"AGENT_NAME"`
}

// GeminiConfig names the model backends.
type GeminiConfig struct {
	APIKey        string        `yaml:"api_key" env:"API_KEY"`
	BaseURL       string        `yaml:"base_url" env:"BASE_URL"`
	FastModel     string        `yaml:"fast_model" env:"FAST_MODEL"`
	AdvancedModel string        `yaml:"advanced_model" env:"ADVANCED_MODEL"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// SpeechConfig configures the TTS and STT providers.
type SpeechConfig struct {
	OpenAIAPIKey string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	TTSModel     string `yaml:"tts_model" env:"TTS_MODEL"`
	TTSVoice     string `yaml:"tts_voice" env:"TTS_VOICE"`
	STTModel     string `yaml:"stt_model" env:"STT_MODEL"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Loader loads configuration with a builder interface.
type Loader struct {
	configPath string
	envPrefix  string
	dotenv     bool
}

// NewLoader creates a loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "VOXFLOW",
		dotenv:    true,
	}
}

// WithConfigPath sets the YAML config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithoutDotenv disables loading a .env file.
func (l *Loader) WithoutDotenv() *Loader {
	l.dotenv = false
	return l
}

// Load resolves the configuration. Priority: defaults, then YAML file, then
// environment variables.
func (l *Loader) Load() (*Config, error) {
	if l.dotenv {
		// Best effort: a missing .env file is not an error.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	applyWellKnownEnv(cfg)

	return cfg, nil
}

// loadFromFile overlays values from the YAML file. A missing file falls back
// to defaults.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// applyWellKnownEnv honors the conventional variable names of the external
// services, so the usual credentials work without the VOXFLOW prefix.
func applyWellKnownEnv(cfg *Config) {
	if v := os.Getenv("LIVEKIT_URL"); v != "" {
		cfg.LiveKit.URL = v
	}
	if v := os.Getenv("LIVEKIT_API_KEY"); v != "" {
		cfg.LiveKit.APIKey = v
	}
	if v := os.Getenv("LIVEKIT_API_SECRET"); v != "" {
		cfg.LiveKit.APISecret = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Speech.OpenAIAPIKey = v
	}
}

// setFieldsFromEnv walks the config struct and overlays PREFIX_TAG variables.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	}

	return nil
}

// Validate checks the credentials the serve path requires. It fails fast
// before any connection is attempted and names the missing variable.
func (c *Config) Validate() error {
	var missing []string
	if c.LiveKit.URL == "" {
		missing = append(missing, "LIVEKIT_URL")
	}
	if c.LiveKit.APIKey == "" {
		missing = append(missing, "LIVEKIT_API_KEY")
	}
	if c.LiveKit.APISecret == "" {
		missing = append(missing, "LIVEKIT_API_SECRET")
	}
	if c.Gemini.APIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}

	if len(missing) > 0 {
		return types.NewError(types.ErrConfigMissing,
			fmt.Sprintf("missing required configuration: %s", strings.Join(missing, ", ")))
	}
	return nil
}
