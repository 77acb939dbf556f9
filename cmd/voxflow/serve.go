package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/voxflow/voxflow/config"
	"github.com/voxflow/voxflow/internal/metrics"
	"github.com/voxflow/voxflow/internal/server"
	"github.com/voxflow/voxflow/llm"
	"github.com/voxflow/voxflow/providers"
	"github.com/voxflow/voxflow/providers/gemini"
	"github.com/voxflow/voxflow/speech"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting voxflow",
		zap.String("version", Version),
		zap.String("git_commit", GitCommit),
	)

	collector := metrics.NewCollector("voxflow", logger)
	factory := sessionFactory(cfg, collector, logger)

	// Construct one session up front so misconfiguration fails at boot
	// instead of on the first connection.
	if _, err := factory(); err != nil {
		logger.Fatal("failed to initialize session", zap.Error(err))
	}

	voice := server.NewVoiceHandler(factory, logger)
	if cfg.Speech.OpenAIAPIKey != "" {
		voice = voice.WithSpeech(
			speech.NewOpenAITTSProvider(speech.OpenAITTSConfig{
				APIKey: cfg.Speech.OpenAIAPIKey,
				Model:  cfg.Speech.TTSModel,
				Voice:  cfg.Speech.TTSVoice,
			}),
			speech.NewOpenAISTTProvider(speech.OpenAISTTConfig{
				APIKey: cfg.Speech.OpenAIAPIKey,
				Model:  cfg.Speech.STTModel,
			}),
		)
		logger.Info("speech pipeline enabled",
			zap.String("tts_model", cfg.Speech.TTSModel),
			zap.String("stt_model", cfg.Speech.STTModel))
	} else {
		logger.Info("speech pipeline disabled, text-only conversations")
	}
	handler := server.Routes(voice, collector, logger)

	serverCfg := server.DefaultConfig()
	serverCfg.Addr = cfg.Server.Addr
	serverCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	// Websocket conversations outlive request timeouts.
	serverCfg.ReadTimeout = 0
	serverCfg.WriteTimeout = 0

	manager := server.NewManager(handler, serverCfg, logger)
	if err := manager.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	manager.WaitForShutdown()
	logger.Info("voxflow stopped")
}

// sessionFactory wires the two Gemini backends behind the routing roles.
func sessionFactory(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) server.SessionFactory {
	newBackend := func(model string) *gemini.Provider {
		return gemini.New(providers.GeminiConfig{
			APIKey:  cfg.Gemini.APIKey,
			BaseURL: cfg.Gemini.BaseURL,
			Model:   model,
			Timeout: cfg.Gemini.Timeout,
		}, logger)
	}

	return func() (*llm.Session, error) {
		return llm.NewSession(map[string]llm.Provider{
			llm.BackendFast:     newBackend(cfg.Gemini.FastModel),
			llm.BackendAdvanced: newBackend(cfg.Gemini.AdvancedModel),
		}, llm.SessionOptions{
			Logger:  logger,
			Metrics: collector,
		})
	}
}
