// Package config loads the runtime configuration for the repository digest pipeline:
// server/LLM/code-host settings from environment + config/runtime.json via viper, the way
// the teacher's internal/config loads config.yaml, and ignore rules from
// config/non-informative-files.json via encoding/json.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/repodigest/internal/logger"
)

// Config is the top-level configuration for the service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	CodeHost      CodeHostConfig      `mapstructure:"code_host"`
	GithubGate    GithubGateLimits    `mapstructure:"github_gate"`
	LLMGate       LLMGateConfig       `mapstructure:"llm_gate"`
	RepoProcessor RepoProcessorConfig `mapstructure:"repo_processor"`
	Logging       logger.Config       `mapstructure:"logging"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	DebugLogDir string `mapstructure:"debug_log_dir"`
}

// CodeHostConfig describes the remote code host the Remote Adapter talks to.
type CodeHostConfig struct {
	Hostname   string `mapstructure:"hostname"`     // e.g. "github.com"
	APIBaseURL string `mapstructure:"api_base_url"` // e.g. "https://api.github.com"
	RawBaseURL string `mapstructure:"raw_base_url"` // e.g. "https://raw.githubusercontent.com"
	Token      string `mapstructure:"token"`        // optional PAT, usually from env
}

// LLMGateConfig describes how the LLM Gateway reaches the downstream model provider.
type LLMGateConfig struct {
	BaseURL            string  `mapstructure:"base_url"`
	Model              string  `mapstructure:"model"`
	Temperature        float64 `mapstructure:"temperature"`
	TopP               float64 `mapstructure:"top_p"`
	MaxTokens          int     `mapstructure:"max_tokens"`
	MaxRetries         int     `mapstructure:"max_retries"`
	AttemptTimeoutSecs float64 `mapstructure:"attempt_timeout_seconds"`
	APIKeyEnvVar       string  `mapstructure:"api_key_env_var"`
}

func (c LLMGateConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSecs * float64(time.Second))
}

// Validate checks the positivity invariants the LLM Gateway's request builder and retry
// loop depend on, the same hand-rolled-arithmetic style as GithubGateLimits.Validate.
func (c LLMGateConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("llm_gate.base_url must be set")
	}
	if c.Model == "" {
		return errors.New("llm_gate.model must be set")
	}
	if c.MaxTokens <= 0 {
		return errors.New("llm_gate.max_tokens must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("llm_gate.max_retries must be >= 0")
	}
	if c.AttemptTimeoutSecs <= 0 {
		return errors.New("llm_gate.attempt_timeout_seconds must be positive")
	}
	if c.APIKeyEnvVar == "" {
		return errors.New("llm_gate.api_key_env_var must be set")
	}
	return nil
}

// LoadConfig loads configuration with the hierarchy: env vars > config/runtime.json >
// defaults, the same precedence the teacher repo uses for its own config.yaml.
func LoadConfig(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("runtime")
	v.SetConfigType("json")
	v.AddConfigPath(configDir)
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config/runtime.json: %w", err)
		}
		slog.Info("no runtime.json found, using defaults and environment variables")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.RepoProcessor.Validate(); err != nil {
		return nil, fmt.Errorf("repo_processor config invalid: %w", err)
	}
	if err := cfg.GithubGate.Validate(); err != nil {
		return nil, fmt.Errorf("github_gate config invalid: %w", err)
	}
	if err := cfg.LLMGate.Validate(); err != nil {
		return nil, fmt.Errorf("llm_gate config invalid: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.debug_log_dir", "logs")

	v.SetDefault("code_host.hostname", "github.com")
	v.SetDefault("code_host.api_base_url", "https://api.github.com")
	v.SetDefault("code_host.raw_base_url", "https://raw.githubusercontent.com")

	v.SetDefault("github_gate.max_single_file_bytes", 200_000)
	v.SetDefault("github_gate.max_docs_bytes", 400_000)
	v.SetDefault("github_gate.max_tests_bytes", 300_000)
	v.SetDefault("github_gate.max_build_package_bytes", 100_000)
	v.SetDefault("github_gate.max_code_bytes", 800_000)
	v.SetDefault("github_gate.max_docs_files", 40)
	v.SetDefault("github_gate.max_tests_files", 60)
	v.SetDefault("github_gate.max_build_package_files", 30)
	v.SetDefault("github_gate.max_code_files", 200)
	v.SetDefault("github_gate.max_code_depth", 8)
	v.SetDefault("github_gate.max_docs_depth", 6)
	v.SetDefault("github_gate.max_tests_depth", 6)
	v.SetDefault("github_gate.max_build_package_depth", 4)
	v.SetDefault("github_gate.metadata_stage_seconds", 5.0)
	v.SetDefault("github_gate.tree_stage_seconds", 10.0)
	v.SetDefault("github_gate.languages_stage_seconds", 5.0)
	v.SetDefault("github_gate.readme_stage_seconds", 5.0)
	v.SetDefault("github_gate.docs_stage_seconds", 20.0)
	v.SetDefault("github_gate.build_package_stage_seconds", 15.0)
	v.SetDefault("github_gate.tests_stage_seconds", 20.0)
	v.SetDefault("github_gate.code_stage_seconds", 30.0)
	v.SetDefault("github_gate.max_total_fetch_duration_seconds", 90.0)
	v.SetDefault("github_gate.max_retries", 3)
	v.SetDefault("github_gate.attempt_timeout_seconds", 8.0)

	v.SetDefault("llm_gate.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm_gate.model", "gpt-4o-mini")
	v.SetDefault("llm_gate.temperature", 0.2)
	v.SetDefault("llm_gate.top_p", 1.0)
	v.SetDefault("llm_gate.max_tokens", 1024)
	v.SetDefault("llm_gate.max_retries", 2)
	v.SetDefault("llm_gate.attempt_timeout_seconds", 60.0)
	v.SetDefault("llm_gate.api_key_env_var", "LLM_API_KEY")

	v.SetDefault("repo_processor.model_context_window_tokens", 128_000)
	v.SetDefault("repo_processor.max_repo_data_ratio_in_prompt", 0.6)
	v.SetDefault("repo_processor.bytes_per_token_estimate", 4.0)
	v.SetDefault("repo_processor.weight_documentation", 1.0)
	v.SetDefault("repo_processor.weight_tests", 0.5)
	v.SetDefault("repo_processor.weight_build_and_package_data", 0.5)
	v.SetDefault("repo_processor.weight_code", 2.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "logs/repodigest.log")
}
