// Package orchestrator implements the Summarization Orchestrator: it sequences URL
// parsing, access verification, extraction, rendering, budget processing, and the LLM
// call into one request, retrying exactly once with a tightened budget ratio when the
// provider reports the digest overflowed its context window. Grounded on the teacher's
// internal/app request-handling flow, which threads one request-scoped context through a
// fixed pipeline of named stages.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
	"github.com/sevigo/repodigest/internal/digest"
	"github.com/sevigo/repodigest/internal/extractor"
	"github.com/sevigo/repodigest/internal/githost"
	"github.com/sevigo/repodigest/internal/llmgateway"
	"github.com/sevigo/repodigest/internal/metrics"
	"github.com/sevigo/repodigest/internal/processor"
	"github.com/sevigo/repodigest/internal/urlparse"
)

// contextOverflowPattern matches the provider's "maximum context length is N tokens ...
// request has M input tokens" 400 error shape (§4.8 "Adaptive retry").
var contextOverflowPattern = regexp.MustCompile(`(?is)maximum context length is (\d+) tokens.*?request has (\d+) input tokens`)

const (
	minRetryRatio    = 0.05
	retryRatioFactor = 0.90
)

// Gateway is the subset of llmgateway.Gateway the orchestrator depends on.
type Gateway interface {
	Summarize(ctx context.Context, processed core.ProcessedRepoMarkdown) (*core.SummaryResult, error)
}

var _ Gateway = (*llmgateway.Gateway)(nil)

// Extractor is the subset of extractor.Extractor the orchestrator depends on.
type Extractor interface {
	Extract(ctx context.Context, ref core.RepoRef) (*core.RepoSnapshot, error)
}

var _ Extractor = (*extractor.Extractor)(nil)

// Orchestrator wires the URL parser, the Remote Adapter, the Repository Extractor, the
// Context-Budget Processor, and the LLM Gateway into the single /summarize operation.
type Orchestrator struct {
	client       githost.Client
	extractor    Extractor
	gateway      Gateway
	processorCfg config.RepoProcessorConfig
	expectedHost string
	debugLogDir  string
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

func New(
	client githost.Client,
	ex Extractor,
	gateway Gateway,
	processorCfg config.RepoProcessorConfig,
	expectedHost string,
	debugLogDir string,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		client:       client,
		extractor:    ex,
		gateway:      gateway,
		processorCfg: processorCfg,
		expectedHost: expectedHost,
		debugLogDir:  debugLogDir,
		logger:       logger,
		metrics:      m,
	}
}

// Summarize runs the full pipeline for a single github_url and returns the validated
// summary, per §4.8.
func (o *Orchestrator) Summarize(ctx context.Context, githubURL string) (result *core.SummaryResult, err error) {
	rc := &core.RequestContext{
		RequestID: uuid.NewString(),
		StartedAt: time.Now(),
		RatioUsed: o.processorCfg.MaxRepoDataRatioInPrompt,
	}
	defer o.flushDebugLog(githubURL, rc)
	defer func() {
		o.recordSummarizeOutcome(rc.StartedAt, err)
	}()

	ref, err := urlparse.Parse(githubURL, o.expectedHost)
	if err != nil {
		return nil, err
	}

	if err := o.client.VerifyRepoAccess(ctx, ref); err != nil {
		return nil, err
	}

	snapshot, err := o.extractor.Extract(ctx, ref)
	if err != nil {
		return nil, err
	}

	extracted := digest.BuildExtracted(snapshot)
	extractedMarkdown := digest.Render(extracted)

	processed, err := o.process(extracted, extractedMarkdown, o.processorCfg, rc)
	if err != nil {
		return nil, err
	}

	result, err = o.gateway.Summarize(ctx, *processed)
	if err == nil {
		return result, nil
	}

	newRatio, retryable := adaptiveRetryRatio(err, o.processorCfg.MaxRepoDataRatioInPrompt)
	if !retryable {
		return nil, err
	}

	rc.Warnings = append(rc.Warnings, fmt.Sprintf("context window overflow, retrying once with ratio %.4f (was %.4f)", newRatio, rc.RatioUsed))
	rc.RatioUsed = newRatio

	retryCfg := o.processorCfg.WithRatio(newRatio)
	processed, procErr := o.process(extracted, extractedMarkdown, retryCfg, rc)
	if procErr != nil {
		return nil, procErr
	}

	result, err = o.gateway.Summarize(ctx, *processed)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) recordSummarizeOutcome(startedAt time.Time, err error) {
	if o.metrics == nil {
		return
	}
	outcome := ""
	if kind, ok := core.KindOf(err); ok {
		outcome = string(kind)
	} else if err != nil {
		outcome = "unknown"
	}
	o.metrics.SummarizeRequests.WithLabelValues(outcome).Inc()
	o.metrics.SummarizeDuration.Observe(time.Since(startedAt).Seconds())
}

// process runs the Context-Budget Processor and falls back to the unprocessed digest
// sections when a budget_error leaves no partial result to work with, per §4.8's
// "fall back to original markdown if budget raises" step.
func (o *Orchestrator) process(
	extracted *core.ExtractedRepoMarkdown,
	extractedMarkdown string,
	cfg config.RepoProcessorConfig,
	rc *core.RequestContext,
) (*core.ProcessedRepoMarkdown, error) {
	processed, err := processor.Process(extractedMarkdown, cfg)
	if err == nil {
		o.recordTruncations(processed, false)
		return processed, nil
	}

	kind, ok := core.KindOf(err)
	if !ok || kind != core.KindBudget {
		return nil, err
	}

	rc.Warnings = append(rc.Warnings, err.Error())
	if processed != nil {
		o.recordTruncations(processed, true)
		return processed, nil
	}
	if o.metrics != nil {
		o.metrics.ProcessorBudgetErrors.Inc()
	}
	return fallbackProcessed(extracted, extractedMarkdown, cfg), nil
}

func (o *Orchestrator) recordTruncations(processed *core.ProcessedRepoMarkdown, budgetErrored bool) {
	if o.metrics == nil || processed == nil {
		return
	}
	sections := make([]string, 0, len(processed.TruncationNotes))
	for _, n := range processed.TruncationNotes {
		sections = append(sections, n.Section)
	}
	o.metrics.RecordTruncationNotes(sections, budgetErrored)
}

// fallbackProcessed builds a ProcessedRepoMarkdown straight from the original, untruncated
// digest sections when the Context-Budget Processor cannot reserve even the baseline
// sections within the budget (§4.8's last-resort fallback).
func fallbackProcessed(extracted *core.ExtractedRepoMarkdown, extractedMarkdown string, cfg config.RepoProcessorConfig) *core.ProcessedRepoMarkdown {
	inputBytes := int64(len(extractedMarkdown))
	return &core.ProcessedRepoMarkdown{
		RepositoryMetadata:            orchestratorStrOf(extracted.RepositoryMetadata),
		LanguageStats:                 orchestratorStrOf(extracted.LanguageStats),
		DirectoryTree:                 orchestratorStrOf(extracted.DirectoryTree),
		Readme:                        orchestratorStrOf(extracted.Readme),
		Documentation:                 orchestratorStrOf(extracted.Documentation),
		BuildAndPackage:               orchestratorStrOf(extracted.BuildAndPackage),
		Tests:                         orchestratorStrOf(extracted.Tests),
		Code:                          orchestratorStrOf(extracted.Code),
		InputTotalUTF8Bytes:           inputBytes,
		OutputTotalUTF8Bytes:          inputBytes,
		MaxRepoDataSizeForPromptBytes: int64(float64(cfg.ModelContextWindowTokens) * cfg.MaxRepoDataRatioInPrompt * cfg.BytesPerTokenEstimate),
		EstimatedInputTokens:          estimateTokens(inputBytes, cfg.BytesPerTokenEstimate),
		EstimatedOutputTokens:         estimateTokens(inputBytes, cfg.BytesPerTokenEstimate),
		BytesPerTokenEstimate:         cfg.BytesPerTokenEstimate,
		PerCategoryBytes: map[string]int64{
			"repository_metadata":    int64(len(orchestratorStrOf(extracted.RepositoryMetadata))),
			"language_stats":         int64(len(orchestratorStrOf(extracted.LanguageStats))),
			"directory_tree":         int64(len(orchestratorStrOf(extracted.DirectoryTree))),
			"readme":                 int64(len(orchestratorStrOf(extracted.Readme))),
			"documentation":          int64(len(orchestratorStrOf(extracted.Documentation))),
			"build_and_package_data": int64(len(orchestratorStrOf(extracted.BuildAndPackage))),
			"tests":                  int64(len(orchestratorStrOf(extracted.Tests))),
			"code":                   int64(len(orchestratorStrOf(extracted.Code))),
		},
		TruncationNotes: nil,
	}
}

func orchestratorStrOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func estimateTokens(n int64, bytesPerToken float64) int64 {
	if bytesPerToken <= 0 {
		return 0
	}
	return int64(float64(n)/bytesPerToken + 0.999999)
}

// adaptiveRetryRatio inspects err for the provider's context-overflow shape and, if
// found, computes the tightened ratio r' per §4.8's formula:
// r' = min(currentRatio*0.90, currentRatio*(N*0.90/M)), clamped to [0.05, currentRatio).
func adaptiveRetryRatio(err error, currentRatio float64) (float64, bool) {
	kind, ok := core.KindOf(err)
	if !ok || kind != core.KindUpstream {
		return 0, false
	}
	e, ok := err.(*core.Error)
	if !ok || e.Status != 400 {
		return 0, false
	}
	haystack := e.Message
	if body, ok := e.Context.(string); ok && body != "" {
		haystack = haystack + "\n" + body
	}

	m := contextOverflowPattern.FindStringSubmatch(haystack)
	if m == nil {
		return 0, false
	}
	n, errN := strconv.ParseFloat(m[1], 64)
	input, errM := strconv.ParseFloat(m[2], 64)
	if errN != nil || errM != nil || input <= 0 {
		return 0, false
	}

	candidate := currentRatio * retryRatioFactor
	byWindow := currentRatio * (n * retryRatioFactor / input)
	if byWindow < candidate {
		candidate = byWindow
	}
	if candidate < minRetryRatio {
		candidate = minRetryRatio
	}
	if candidate >= currentRatio {
		candidate = currentRatio * retryRatioFactor
	}
	return candidate, true
}

func (o *Orchestrator) flushDebugLog(githubURL string, rc *core.RequestContext) {
	if o.debugLogDir == "" {
		return
	}
	if err := os.MkdirAll(o.debugLogDir, 0o755); err != nil {
		o.logf("failed to create debug log directory %s: %v", o.debugLogDir, err)
		return
	}

	name := sanitizeRepoName(githubURL)
	short := rc.RequestID
	if len(short) > 8 {
		short = short[:8]
	}
	path := filepath.Join(o.debugLogDir, fmt.Sprintf("%s-%s-%s.log", name, rc.StartedAt.UTC().Format("20060102T150405Z"), short))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		o.logf("failed to open debug log %s: %v", path, err)
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "request_id=%s started_at=%s ratio_used=%.4f url=%s\n", rc.RequestID, rc.StartedAt.UTC().Format(time.RFC3339), rc.RatioUsed, githubURL)
	for _, w := range rc.Warnings {
		fmt.Fprintf(f, "warning: %s\n", w)
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.logger == nil {
		return
	}
	o.logger.Warn(fmt.Sprintf(format, args...))
}

// sanitizeRepoName extracts a filesystem-safe stem from a github_url for the debug log
// file name, falling back to "repo" when the URL can't be parsed into owner/repo.
func sanitizeRepoName(githubURL string) string {
	trimmed := strings.Trim(githubURL, "/")
	segments := strings.Split(trimmed, "/")
	if len(segments) < 2 {
		return "repo"
	}
	owner, repo := segments[len(segments)-2], segments[len(segments)-1]
	raw := owner + "-" + repo
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := b.String()
	if out == "" {
		return "repo"
	}
	return out
}
