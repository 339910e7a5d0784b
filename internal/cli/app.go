package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
	"github.com/veristream/veristream/internal/cache"
	"github.com/veristream/veristream/internal/classify"
	"github.com/veristream/veristream/internal/consensus"
	"github.com/veristream/veristream/internal/correction"
	"github.com/veristream/veristream/internal/interject"
	"github.com/veristream/veristream/internal/llm"
	"github.com/veristream/veristream/internal/model"
	"github.com/veristream/veristream/internal/queue"
	"github.com/veristream/veristream/internal/segment"
	"github.com/veristream/veristream/internal/session"
	"github.com/veristream/veristream/internal/speech"
	"github.com/veristream/veristream/internal/store"
	"github.com/veristream/veristream/internal/verify"
	"github.com/veristream/veristream/internal/worker"
)

// loadConfig builds the effective configuration: defaults, then config
// file, then VERISTREAM_* environment variables.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	// API keys come from the conventional env vars when not set explicitly
	if cfg.LLM.Provider != "" && cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "ollama":
			if base := os.Getenv("OLLAMA_BASE_URL"); base != "" && cfg.LLM.BaseURL == "" {
				cfg.LLM.BaseURL = base
			}
		}
	}

	return cfg, nil
}

// setupLogger builds the slog logger per the log configuration
func setupLogger(cfg model.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// app bundles everything a command needs to run the pipeline
type app struct {
	cfg       *model.Config
	logger    *slog.Logger
	deps      session.Deps
	monitor   *interject.EnergyMonitor
	scheduler *interject.Scheduler
}

// buildApp assembles the full pipeline from configuration
func buildApp(cfg *model.Config, logger *slog.Logger) (*app, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("configure LLM provider: %w", err)
	}

	agents, err := buildAgents(cfg, provider)
	if err != nil {
		return nil, err
	}

	limiter := worker.NewLimiter(cfg.Verify.AgentRate, cfg.Verify.AgentBurst)
	orchestrator, err := verify.NewOrchestrator(agents, limiter, cfg.Verify.AgentTimeout, logger)
	if err != nil {
		return nil, err
	}

	var authority consensus.Authority
	if cfg.Consensus.AuthorityURL != "" {
		authority = consensus.NewHTTPAuthority(cfg.Consensus.AuthorityURL, cfg.Consensus.Timeout)
	}

	records, err := store.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("configure record store: %w", err)
	}

	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		resultCache = cache.NewResultCache(cfg.Cache.TTL)
	}

	monitor := interject.NewEnergyMonitor(cfg.Interject.EnergyThreshold)
	speaker := speech.New(cfg.Speech, logger)
	scheduler := interject.NewScheduler(monitor, speaker, logger)

	deps := session.Deps{
		Segmenter:    segment.NewSegmenter(provider, logger),
		Classifier:   classify.NewClassifier(provider, logger),
		Orchestrator: orchestrator,
		Consensus:    consensus.NewEngine(authority, logger),
		Synthesizer:  correction.NewSynthesizer(provider, logger),
		Queue:        queue.New(records, logger),
		Records:      records,
		Cache:        resultCache,
		Gate:         worker.NewGate(cfg.Verify.MaxInFlight),
		Scheduler:    scheduler,
		Logger:       logger,
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		deps:      deps,
		monitor:   monitor,
		scheduler: scheduler,
	}, nil
}

// buildAgents materializes the verification roster. With no agents
// configured and a provider available, a default panel of three
// LLM verifiers is used.
func buildAgents(cfg *model.Config, provider llm.Provider) ([]verify.Agent, error) {
	if len(cfg.Agents) == 0 {
		if provider == nil {
			return nil, fmt.Errorf("no verification agents configured and no LLM provider available")
		}
		var agents []verify.Agent
		for _, name := range []string{"verifier-1", "verifier-2", "verifier-3"} {
			agents = append(agents, verify.NewLLMAgent(model.AgentConfig{Name: name}, provider))
		}
		return agents, nil
	}

	agents := make([]verify.Agent, 0, len(cfg.Agents))
	for _, ac := range cfg.Agents {
		agent, err := verify.NewAgent(ac, provider)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, nil
}
