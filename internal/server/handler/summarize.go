// Package handler provides HTTP handlers for the repository digest service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sevigo/repodigest/internal/core"
)

// Summarizer is the subset of orchestrator.Orchestrator this handler depends on.
type Summarizer interface {
	Summarize(ctx context.Context, githubURL string) (*core.SummaryResult, error)
}

// SummarizeHandler serves POST /summarize.
type SummarizeHandler struct {
	orchestrator Summarizer
	logger       *slog.Logger
}

func NewSummarizeHandler(orchestrator Summarizer, logger *slog.Logger) *SummarizeHandler {
	return &SummarizeHandler{orchestrator: orchestrator, logger: logger}
}

type summarizeRequest struct {
	GithubURL string `json:"github_url"`
}

type summarizeResponse struct {
	Summary      string   `json:"summary"`
	Technologies []string `json:"technologies"`
	Structure    string   `json:"structure"`
}

// errorResponse is the edge's error envelope, exactly {status, message} per §6 — never a
// stack trace, never the error kind's internal taxonomy name.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handle decodes the request body, runs the Summarization Orchestrator's pipeline, and
// writes the result (or a mapped error) as JSON.
func (h *SummarizeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, core.InvalidRequestBody("request body is not valid JSON: %v", err))
		return
	}

	result, err := h.orchestrator.Summarize(r.Context(), req.GithubURL)
	if err != nil {
		h.logger.Warn("summarize request failed", "github_url", req.GithubURL, "error", err)
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summarizeResponse{
		Summary:      result.Summary,
		Technologies: result.Technologies,
		Structure:    result.Structure,
	})
}

func (h *SummarizeHandler) writeError(w http.ResponseWriter, err error) {
	status, kind := StatusForError(err)
	writeJSON(w, status, errorResponse{Status: "error", Message: messageForKind(kind)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
