package config

import (
	"errors"
	"time"
)

// GithubGateLimits are the multi-axis budgets the Repository Extractor enforces while
// crawling the code host: per-category byte/file/depth caps, per-file byte cap, per-stage
// and total-fetch wall-clock deadlines.
type GithubGateLimits struct {
	MaxSingleFileBytes int64 `mapstructure:"max_single_file_bytes"`

	MaxDocsBytes         int64 `mapstructure:"max_docs_bytes"`
	MaxTestsBytes        int64 `mapstructure:"max_tests_bytes"`
	MaxBuildPackageBytes int64 `mapstructure:"max_build_package_bytes"`
	MaxCodeBytes         int64 `mapstructure:"max_code_bytes"`

	MaxDocsFiles         int `mapstructure:"max_docs_files"`
	MaxTestsFiles        int `mapstructure:"max_tests_files"`
	MaxBuildPackageFiles int `mapstructure:"max_build_package_files"`
	MaxCodeFiles         int `mapstructure:"max_code_files"`

	MaxCodeDepth         int `mapstructure:"max_code_depth"`
	MaxDocsDepth         int `mapstructure:"max_docs_depth"`
	MaxTestsDepth        int `mapstructure:"max_tests_depth"`
	MaxBuildPackageDepth int `mapstructure:"max_build_package_depth"`

	MetadataStageSeconds      float64 `mapstructure:"metadata_stage_seconds"`
	TreeStageSeconds          float64 `mapstructure:"tree_stage_seconds"`
	LanguagesStageSeconds     float64 `mapstructure:"languages_stage_seconds"`
	ReadmeStageSeconds        float64 `mapstructure:"readme_stage_seconds"`
	DocsStageSeconds          float64 `mapstructure:"docs_stage_seconds"`
	BuildPackageStageSeconds  float64 `mapstructure:"build_package_stage_seconds"`
	TestsStageSeconds         float64 `mapstructure:"tests_stage_seconds"`
	CodeStageSeconds          float64 `mapstructure:"code_stage_seconds"`
	MaxTotalFetchDurationSecs float64 `mapstructure:"max_total_fetch_duration_seconds"`

	MaxRetries            int     `mapstructure:"max_retries"`
	AttemptTimeoutSeconds float64 `mapstructure:"attempt_timeout_seconds"`
}

func (l GithubGateLimits) TotalFetchDeadline() time.Duration {
	return time.Duration(l.MaxTotalFetchDurationSecs * float64(time.Second))
}

func (l GithubGateLimits) AttemptTimeout() time.Duration {
	return time.Duration(l.AttemptTimeoutSeconds * float64(time.Second))
}

// Validate checks the positivity invariants §3 requires of GithubGateLimits. It is
// deliberately hand-rolled arithmetic, mirroring AIConfig.Validate() in the teacher repo,
// rather than a generic validator library: every check here is a cheap numeric comparison,
// not a reusable schema.
func (l GithubGateLimits) Validate() error {
	positive := map[string]float64{
		"max_single_file_bytes":            float64(l.MaxSingleFileBytes),
		"max_docs_bytes":                   float64(l.MaxDocsBytes),
		"max_tests_bytes":                  float64(l.MaxTestsBytes),
		"max_build_package_bytes":          float64(l.MaxBuildPackageBytes),
		"max_code_bytes":                   float64(l.MaxCodeBytes),
		"max_docs_files":                   float64(l.MaxDocsFiles),
		"max_tests_files":                  float64(l.MaxTestsFiles),
		"max_build_package_files":          float64(l.MaxBuildPackageFiles),
		"max_code_files":                   float64(l.MaxCodeFiles),
		"max_code_depth":                   float64(l.MaxCodeDepth),
		"max_docs_depth":                   float64(l.MaxDocsDepth),
		"max_tests_depth":                  float64(l.MaxTestsDepth),
		"max_build_package_depth":          float64(l.MaxBuildPackageDepth),
		"metadata_stage_seconds":           l.MetadataStageSeconds,
		"tree_stage_seconds":               l.TreeStageSeconds,
		"languages_stage_seconds":          l.LanguagesStageSeconds,
		"readme_stage_seconds":             l.ReadmeStageSeconds,
		"docs_stage_seconds":               l.DocsStageSeconds,
		"build_package_stage_seconds":      l.BuildPackageStageSeconds,
		"tests_stage_seconds":              l.TestsStageSeconds,
		"code_stage_seconds":               l.CodeStageSeconds,
		"max_total_fetch_duration_seconds": l.MaxTotalFetchDurationSecs,
		"attempt_timeout_seconds":          l.AttemptTimeoutSeconds,
	}
	for name, v := range positive {
		if v <= 0 {
			return errors.New("github_gate." + name + " must be positive")
		}
	}
	if l.MaxRetries < 0 {
		return errors.New("github_gate.max_retries must be >= 0")
	}
	return nil
}

// RepoProcessorConfig drives the Context-Budget Processor's budget math.
type RepoProcessorConfig struct {
	ModelContextWindowTokens int64   `mapstructure:"model_context_window_tokens"`
	MaxRepoDataRatioInPrompt float64 `mapstructure:"max_repo_data_ratio_in_prompt"`
	BytesPerTokenEstimate    float64 `mapstructure:"bytes_per_token_estimate"`

	WeightDocumentation       float64 `mapstructure:"weight_documentation"`
	WeightTests               float64 `mapstructure:"weight_tests"`
	WeightBuildAndPackageData float64 `mapstructure:"weight_build_and_package_data"`
	WeightCode                float64 `mapstructure:"weight_code"`
}

func (c RepoProcessorConfig) Validate() error {
	if c.ModelContextWindowTokens <= 0 {
		return errors.New("repo_processor.model_context_window_tokens must be positive")
	}
	if c.MaxRepoDataRatioInPrompt <= 0 || c.MaxRepoDataRatioInPrompt >= 1 {
		return errors.New("repo_processor.max_repo_data_ratio_in_prompt must be in (0,1)")
	}
	if c.BytesPerTokenEstimate <= 0 {
		return errors.New("repo_processor.bytes_per_token_estimate must be positive")
	}
	if c.WeightDocumentation < 0 || c.WeightTests < 0 || c.WeightBuildAndPackageData < 0 || c.WeightCode < 0 {
		return errors.New("repo_processor weights must be >= 0")
	}
	if c.WeightDocumentation == 0 && c.WeightTests == 0 && c.WeightBuildAndPackageData == 0 && c.WeightCode == 0 {
		return errors.New("repo_processor: at least one weight must be > 0")
	}
	return nil
}

// WithRatio returns a copy of the config with a different max_repo_data_ratio_in_prompt,
// used by the orchestrator's adaptive retry (§4.8) without mutating the shared config.
func (c RepoProcessorConfig) WithRatio(ratio float64) RepoProcessorConfig {
	c.MaxRepoDataRatioInPrompt = ratio
	return c
}

// Weights returns the four optional-category weights keyed by the category name used
// throughout the processor and renderer.
func (c RepoProcessorConfig) Weights() map[string]float64 {
	return map[string]float64{
		"documentation":          c.WeightDocumentation,
		"tests":                  c.WeightTests,
		"build_and_package_data": c.WeightBuildAndPackageData,
		"code":                   c.WeightCode,
	}
}
