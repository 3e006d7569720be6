package llmgateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
)

func newGateway(t *testing.T, baseURL string) *Gateway {
	t.Helper()
	t.Setenv("TEST_LLM_API_KEY", "sk-test-key")
	g, err := New(config.LLMGateConfig{
		BaseURL:            baseURL,
		Model:              "test-model",
		Temperature:        0.2,
		TopP:               1.0,
		MaxTokens:          512,
		MaxRetries:         2,
		AttemptTimeoutSecs: 2,
		APIKeyEnvVar:       "TEST_LLM_API_KEY",
	})
	require.NoError(t, err)
	return g
}

func testProcessed() core.ProcessedRepoMarkdown {
	return core.ProcessedRepoMarkdown{
		RepositoryMetadata: "## Repository Metadata\nowner/repo",
		LanguageStats:      "## Language Stats\nGo: 100%",
		DirectoryTree:      "## Directory Tree\n- main.go",
		Readme:             "## README\nHello.",
		Documentation:      "Not requested",
		BuildAndPackage:    "## File: go.mod\n```text\nmodule repo\n```\n",
		Tests:              "Not found",
		Code:               "## File: main.go\n```text\npackage main\n```\n",
	}
}

func chatResponseBody(t *testing.T, content any) []byte {
	t.Helper()
	var raw json.RawMessage
	switch v := content.(type) {
	case string:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		raw = b
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		raw = b
	}
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": json.RawMessage(raw)}},
		},
	}
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return b
}

func TestSummarize_SuccessNormalizesTechnologies(t *testing.T) {
	content := `{"summary":"  A tidy Go service.  ","technologies":["Go","go","  Python ","","` + strings.Repeat("x", 90) + `"],"structure":"One main package."}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test-key", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, "json_schema", req.ResponseFormat.Type)
		assert.Equal(t, "repo_summary", req.ResponseFormat.JSONSchema.Name)
		assert.True(t, req.ResponseFormat.JSONSchema.Strict)
		assert.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "owner/repo")

		w.WriteHeader(http.StatusOK)
		w.Write(chatResponseBody(t, content))
	}))
	defer server.Close()

	g := newGateway(t, server.URL)
	result, err := g.Summarize(t.Context(), testProcessed())
	require.NoError(t, err)
	assert.Equal(t, "A tidy Go service.", result.Summary)
	assert.Equal(t, "One main package.", result.Structure)
	require.Len(t, result.Technologies, 3) // "go"/"Go" deduped case-insensitively, "" dropped, long entry kept truncated
	assert.Equal(t, "Go", result.Technologies[0])
	assert.Equal(t, "Python", result.Technologies[1])
	assert.Equal(t, strings.Repeat("x", maxTechnologyLen), result.Technologies[2])
	assert.Len(t, strings.Repeat("x", 90), 90)
}

func TestSummarize_TechnologiesTruncatedAndCapped(t *testing.T) {
	techs := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		techs = append(techs, fmt.Sprintf("tech-%02d", i))
	}
	longTech := strings.Repeat("z", 90)
	techs = append(techs, longTech)
	payload := map[string]any{"summary": "s", "technologies": techs, "structure": "st"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(chatResponseBody(t, string(body)))
	}))
	defer server.Close()

	g := newGateway(t, server.URL)
	result, err := g.Summarize(t.Context(), testProcessed())
	require.NoError(t, err)
	assert.Len(t, result.Technologies, maxTechnologies)
	for _, tech := range result.Technologies {
		assert.LessOrEqual(t, len(tech), maxTechnologyLen)
	}
}

func TestSummarize_RetriesOn503ThenSucceeds(t *testing.T) {
	var calls int32
	content := `{"summary":"ok","technologies":[],"structure":"ok"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"try again"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write(chatResponseBody(t, content))
	}))
	defer server.Close()

	g := newGateway(t, server.URL)
	result, err := g.Summarize(t.Context(), testProcessed())
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Summary)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSummarize_TerminalStatusDoesNotRetry(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(status)
				w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			g := newGateway(t, server.URL)
			_, err := g.Summarize(t.Context(), testProcessed())
			require.Error(t, err)
			kind, ok := core.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, core.KindUpstream, kind)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestSummarize_MalformedJSONContentIsOutputValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(chatResponseBody(t, "not json at all"))
	}))
	defer server.Close()

	g := newGateway(t, server.URL)
	_, err := g.Summarize(t.Context(), testProcessed())
	require.Error(t, err)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, core.KindOutputValidation, kind)
}

func TestSummarize_ContentPartsListShape(t *testing.T) {
	parts := []map[string]string{
		{"type": "output_text", "text": `{"summary":"parted",`},
		{"type": "output_text", "text": `"technologies":["Go"],"structure":"parted struct"}`},
	}
	b, err := json.Marshal(parts)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(chatResponseBody(t, json.RawMessage(b)))
	}))
	defer server.Close()

	g := newGateway(t, server.URL)
	result, err := g.Summarize(t.Context(), testProcessed())
	require.NoError(t, err)
	assert.Equal(t, "parted", result.Summary)
	assert.Equal(t, "parted struct", result.Structure)
}

func TestSummarize_EmptySummaryIsRejected(t *testing.T) {
	content := `{"summary":"   ","technologies":[],"structure":"fine"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(chatResponseBody(t, content))
	}))
	defer server.Close()

	g := newGateway(t, server.URL)
	_, err := g.Summarize(t.Context(), testProcessed())
	require.Error(t, err)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, core.KindOutputValidation, kind)
}
