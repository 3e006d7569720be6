package config

import "testing"

func validRepoProcessorConfig() RepoProcessorConfig {
	return RepoProcessorConfig{
		ModelContextWindowTokens:  128_000,
		MaxRepoDataRatioInPrompt:  0.6,
		BytesPerTokenEstimate:     4,
		WeightDocumentation:       1,
		WeightTests:               0.5,
		WeightBuildAndPackageData: 0.5,
		WeightCode:                2,
	}
}

func TestRepoProcessorConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c RepoProcessorConfig) RepoProcessorConfig
		wantErr bool
	}{
		{"valid config", func(c RepoProcessorConfig) RepoProcessorConfig { return c }, false},
		{"zero context window", func(c RepoProcessorConfig) RepoProcessorConfig {
			c.ModelContextWindowTokens = 0
			return c
		}, true},
		{"ratio at zero", func(c RepoProcessorConfig) RepoProcessorConfig {
			c.MaxRepoDataRatioInPrompt = 0
			return c
		}, true},
		{"ratio at one", func(c RepoProcessorConfig) RepoProcessorConfig {
			c.MaxRepoDataRatioInPrompt = 1
			return c
		}, true},
		{"negative bytes per token", func(c RepoProcessorConfig) RepoProcessorConfig {
			c.BytesPerTokenEstimate = -1
			return c
		}, true},
		{"negative weight", func(c RepoProcessorConfig) RepoProcessorConfig {
			c.WeightCode = -1
			return c
		}, true},
		{"all weights zero", func(c RepoProcessorConfig) RepoProcessorConfig {
			c.WeightDocumentation, c.WeightTests, c.WeightBuildAndPackageData, c.WeightCode = 0, 0, 0, 0
			return c
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(validRepoProcessorConfig()).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepoProcessorConfig_WithRatio(t *testing.T) {
	base := validRepoProcessorConfig()
	tightened := base.WithRatio(0.1)

	if tightened.MaxRepoDataRatioInPrompt != 0.1 {
		t.Fatalf("WithRatio did not update the ratio: got %v", tightened.MaxRepoDataRatioInPrompt)
	}
	if base.MaxRepoDataRatioInPrompt != 0.6 {
		t.Fatalf("WithRatio mutated the receiver: got %v", base.MaxRepoDataRatioInPrompt)
	}
}

func validLLMGateConfig() LLMGateConfig {
	return LLMGateConfig{
		BaseURL:            "https://api.openai.com/v1",
		Model:              "gpt-4o-mini",
		MaxTokens:          1024,
		MaxRetries:         2,
		AttemptTimeoutSecs: 60,
		APIKeyEnvVar:       "LLM_API_KEY",
	}
}

func TestLLMGateConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c LLMGateConfig) LLMGateConfig
		wantErr bool
	}{
		{"valid config", func(c LLMGateConfig) LLMGateConfig { return c }, false},
		{"missing base url", func(c LLMGateConfig) LLMGateConfig { c.BaseURL = ""; return c }, true},
		{"missing model", func(c LLMGateConfig) LLMGateConfig { c.Model = ""; return c }, true},
		{"zero max tokens", func(c LLMGateConfig) LLMGateConfig { c.MaxTokens = 0; return c }, true},
		{"negative max retries", func(c LLMGateConfig) LLMGateConfig { c.MaxRetries = -1; return c }, true},
		{"zero attempt timeout", func(c LLMGateConfig) LLMGateConfig { c.AttemptTimeoutSecs = 0; return c }, true},
		{"missing api key env var", func(c LLMGateConfig) LLMGateConfig { c.APIKeyEnvVar = ""; return c }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(validLLMGateConfig()).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLLMGateConfig_AttemptTimeout(t *testing.T) {
	c := LLMGateConfig{AttemptTimeoutSecs: 2.5}
	if got, want := c.AttemptTimeout().Seconds(), 2.5; got != want {
		t.Fatalf("AttemptTimeout() = %v, want %v", got, want)
	}
}

func validGithubGateLimits() GithubGateLimits {
	return GithubGateLimits{
		MaxSingleFileBytes: 200_000,

		MaxDocsBytes: 400_000, MaxTestsBytes: 300_000, MaxBuildPackageBytes: 100_000, MaxCodeBytes: 800_000,
		MaxDocsFiles: 40, MaxTestsFiles: 60, MaxBuildPackageFiles: 30, MaxCodeFiles: 200,
		MaxCodeDepth: 8, MaxDocsDepth: 6, MaxTestsDepth: 6, MaxBuildPackageDepth: 4,

		MetadataStageSeconds: 5, TreeStageSeconds: 10, LanguagesStageSeconds: 5, ReadmeStageSeconds: 5,
		DocsStageSeconds: 20, BuildPackageStageSeconds: 15, TestsStageSeconds: 20, CodeStageSeconds: 30,
		MaxTotalFetchDurationSecs: 90,

		MaxRetries: 3, AttemptTimeoutSeconds: 8,
	}
}

func TestGithubGateLimits_Validate(t *testing.T) {
	if err := validGithubGateLimits().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	zeroed := validGithubGateLimits()
	zeroed.MaxCodeBytes = 0
	if err := zeroed.Validate(); err == nil {
		t.Fatal("expected error for zero max_code_bytes")
	}

	negativeRetries := validGithubGateLimits()
	negativeRetries.MaxRetries = -1
	if err := negativeRetries.Validate(); err == nil {
		t.Fatal("expected error for negative max_retries")
	}
}

func TestGithubGateLimits_Deadlines(t *testing.T) {
	l := GithubGateLimits{MaxTotalFetchDurationSecs: 90, AttemptTimeoutSeconds: 8}
	if got, want := l.TotalFetchDeadline().Seconds(), 90.0; got != want {
		t.Fatalf("TotalFetchDeadline() = %v, want %v", got, want)
	}
	if got, want := l.AttemptTimeout().Seconds(), 8.0; got != want {
		t.Fatalf("AttemptTimeout() = %v, want %v", got, want)
	}
}
