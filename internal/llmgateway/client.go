// Package llmgateway builds the strict JSON-schema chat-completion request for the
// summarization model, sends it with bearer auth and a bounded retry policy, and
// normalizes the structured response. Grounded on kraklabs-cie's pkg/llm.openaiProvider.Chat
// for the HTTP shape and on the teacher's internal/llm.PromptManager for the embedded
// prompt contract.
package llmgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
)

const maxTechnologies = 20
const maxTechnologyLen = 80

// Gateway is the LLM Gateway: it owns the embedded prompt contract, the API key read once
// from the environment, and the HTTP client used for every chat-completion call.
type Gateway struct {
	cfg        config.LLMGateConfig
	apiKey     string
	httpClient *http.Client
	prompt     *promptContract
}

// New constructs a Gateway, loading the embedded prompt contract and reading the API key
// from the environment variable named by cfg.APIKeyEnvVar.
func New(cfg config.LLMGateConfig) (*Gateway, error) {
	prompt, err := loadPromptContract()
	if err != nil {
		return nil, err
	}
	apiKey := os.Getenv(cfg.APIKeyEnvVar)
	if apiKey == "" {
		return nil, core.Config("environment variable %s is not set", cfg.APIKeyEnvVar)
	}
	return &Gateway{
		cfg:        cfg,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		prompt:     prompt,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Type       string `json:"type"`
	JSONSchema struct {
		Name   string          `json:"name"`
		Schema json.RawMessage `json:"schema"`
		Strict bool            `json:"strict"`
	} `json:"json_schema"`
}

type chatRequest struct {
	Model          string           `json:"model"`
	Temperature    float64          `json:"temperature"`
	TopP           float64          `json:"top_p"`
	MaxTokens      int              `json:"max_tokens"`
	Stream         bool             `json:"stream"`
	ResponseFormat jsonSchemaFormat `json:"response_format"`
	Messages       []chatMessage    `json:"messages"`
}

// contentPart handles the case where a provider returns message content as a list of
// typed parts instead of a bare string.
type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize renders the user prompt from processed, sends the chat-completion request,
// and returns the normalized summary result.
func (g *Gateway) Summarize(ctx context.Context, processed core.ProcessedRepoMarkdown) (*core.SummaryResult, error) {
	userPrompt, err := g.prompt.renderUser(userPromptData{
		RepositoryMetadata: processed.RepositoryMetadata,
		LanguageStats:      processed.LanguageStats,
		DirectoryTree:      processed.DirectoryTree,
		Readme:             processed.Readme,
		Documentation:      processed.Documentation,
		BuildAndPackage:    processed.BuildAndPackage,
		Tests:              processed.Tests,
		Code:               processed.Code,
	})
	if err != nil {
		return nil, err
	}

	req := chatRequest{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		TopP:        g.cfg.TopP,
		MaxTokens:   g.cfg.MaxTokens,
		Stream:      false,
		Messages: []chatMessage{
			{Role: "system", Content: g.prompt.systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	req.ResponseFormat.Type = "json_schema"
	req.ResponseFormat.JSONSchema.Name = "repo_summary"
	req.ResponseFormat.JSONSchema.Schema = g.prompt.schema
	req.ResponseFormat.JSONSchema.Strict = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	raw, err := withRetry(ctx, g.cfg, func(attemptCtx context.Context) ([]byte, error) {
		return g.post(attemptCtx, body)
	})
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, core.OutputValidation("failed to decode chat completion response: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.OutputValidation("chat completion response carried no choices")
	}

	content, err := extractContent(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	var result core.SummaryResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, core.OutputValidation("model response content was not valid JSON: %v", err)
	}

	return normalize(result)
}

func (g *Gateway) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(g.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyNetworkError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.Upstream(resp.StatusCode, err, "failed to read chat completion response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := core.Upstream(resp.StatusCode, nil, "llm provider returned status %d", resp.StatusCode)
		e.Context = string(respBody)
		return nil, e
	}
	return respBody, nil
}

func classifyNetworkError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return core.Timeout(ctx.Err(), "llm provider request timed out")
	}
	return core.Upstream(0, err, "llm provider request failed: %v", err)
}

// extractContent drills into the OpenAI-shaped message content, which may be a bare JSON
// string or a list of content parts (§4.7 "Response extraction").
func extractContent(raw json.RawMessage) (string, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}

	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "output_text" || p.Text != "" {
				b.WriteString(p.Text)
			}
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}

	return "", core.OutputValidation("chat completion message content had an unrecognized shape")
}

// normalize enforces the exact {summary, technologies, structure} contract: non-empty
// trimmed summary/structure, and a deduplicated, length-capped, count-capped technologies
// list (§4.7 "Normalization").
func normalize(result core.SummaryResult) (*core.SummaryResult, error) {
	summary := strings.TrimSpace(result.Summary)
	if summary == "" {
		return nil, core.OutputValidation("model response had an empty summary")
	}
	structure := strings.TrimSpace(result.Structure)
	if structure == "" {
		return nil, core.OutputValidation("model response had an empty structure")
	}

	seen := make(map[string]bool, len(result.Technologies))
	technologies := make([]string, 0, len(result.Technologies))
	for _, tech := range result.Technologies {
		t := strings.TrimSpace(tech)
		if t == "" {
			continue
		}
		if len(t) > maxTechnologyLen {
			t = t[:maxTechnologyLen]
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		technologies = append(technologies, t)
		if len(technologies) == maxTechnologies {
			break
		}
	}

	return &core.SummaryResult{
		Summary:      summary,
		Technologies: technologies,
		Structure:    structure,
	}, nil
}
