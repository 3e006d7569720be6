// Package app wires together the configuration, the Remote Adapter, the Repository
// Extractor, the LLM Gateway, and the HTTP server into one running process. Grounded on
// the teacher's internal/wire/wire_gen.go, whose generated InitializeApp hand-assembles
// every dependency in one function; this repo keeps that manual-wiring shape without the
// wire code-generation step since the Summarization Orchestrator's dependency graph is
// small enough not to need it.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/extractor"
	"github.com/sevigo/repodigest/internal/githost"
	"github.com/sevigo/repodigest/internal/llmgateway"
	"github.com/sevigo/repodigest/internal/metrics"
	"github.com/sevigo/repodigest/internal/orchestrator"
	"github.com/sevigo/repodigest/internal/server"
)

// App holds the assembled components of the repository digest service.
type App struct {
	Cfg     *config.Config
	Metrics *metrics.Metrics

	logger *slog.Logger
	server *server.Server
}

// New loads the ignore rules, builds the githost client, the Repository Extractor, the
// LLM Gateway, the Summarization Orchestrator, and the HTTP server around it.
func New(cfg *config.Config, configDir string, logger *slog.Logger) (*App, error) {
	logger.Info("initializing repository digest service",
		"llm_model", cfg.LLMGate.Model,
		"code_host", cfg.CodeHost.Hostname,
		"server_port", cfg.Server.Port,
	)

	orch, m, err := BuildOrchestrator(cfg, configDir, logger)
	if err != nil {
		return nil, err
	}

	httpServer := server.NewServer(cfg, orch, m, logger)

	return &App{
		Cfg:     cfg,
		Metrics: m,
		logger:  logger,
		server:  httpServer,
	}, nil
}

// BuildOrchestrator assembles the Summarization Orchestrator and its metrics registry
// without the HTTP server around it, so the one-shot CLI (cmd/cli) can drive the same
// pipeline the server exposes over /summarize.
func BuildOrchestrator(cfg *config.Config, configDir string, logger *slog.Logger) (*orchestrator.Orchestrator, *metrics.Metrics, error) {
	ignoreRules, err := config.LoadIgnoreRules(configDir)
	switch {
	case err == nil:
	case errors.Is(err, config.ErrIgnoreRulesNotFound):
		logger.Info("no non-informative-files.json found, using default ignore rules")
	default:
		return nil, nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}

	client := githost.New(cfg.CodeHost, cfg.GithubGate)
	ex := extractor.New(client, cfg.GithubGate, ignoreRules, logger.With("component", "extractor"))

	gateway, err := llmgateway.New(cfg.LLMGate)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize LLM gateway: %w", err)
	}

	m := metrics.New()

	orch := orchestrator.New(
		client,
		ex,
		gateway,
		cfg.RepoProcessor,
		cfg.CodeHost.Hostname,
		cfg.Server.DebugLogDir,
		logger.With("component", "orchestrator"),
		m,
	)

	return orch, m, nil
}

// Start runs the HTTP server; blocks until shutdown or a fatal error.
func (a *App) Start() error {
	return a.server.Start()
}

// Stop gracefully shuts down the HTTP server.
func (a *App) Stop() error {
	return a.server.Stop()
}
