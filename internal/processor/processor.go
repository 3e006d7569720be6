// Package processor implements the Context-Budget Processor: it compresses an extracted
// digest markdown down to fit inside a model's context window, reserving space for four
// mandatory baseline sections in a fixed shrink order before allocating the remainder
// across four weighted optional categories with a largest-remainder apportionment.
package processor

import (
	"math"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
	"github.com/sevigo/repodigest/internal/digest"
)

// baselineOrder is the canonical shrink order this system resolves the distilled spec's
// open question with: directory_tree shrinks first (most compressible, least semantically
// dense), then readme, then language_stats, then repository_metadata (shrunk last, as it
// is the smallest and most informationally dense section).
var baselineOrder = []string{"directory_tree", "readme", "language_stats", "repository_metadata"}

// optionalCategories are the four weighted categories allocated in Step 3.
var optionalCategories = []string{"documentation", "tests", "build_and_package_data", "code"}

// Process turns extractedMarkdown into a ProcessedRepoMarkdown that fits within the
// configured token budget, per §4.6.
func Process(extractedMarkdown string, cfg config.RepoProcessorConfig) (*core.ProcessedRepoMarkdown, error) {
	extracted, err := digest.Parse(extractedMarkdown)
	if err != nil {
		return nil, err
	}

	maxRepoBytes := int64(math.Floor(float64(cfg.ModelContextWindowTokens) * cfg.MaxRepoDataRatioInPrompt * cfg.BytesPerTokenEstimate))

	inputBytes := int64(len(extractedMarkdown))

	// Step 1: fast path.
	candidate := cloneAllPresent(extracted)
	rendered := digest.Render(candidate)
	if int64(len(rendered)) <= maxRepoBytes {
		return finalize(candidate, rendered, inputBytes, maxRepoBytes, cfg, nil)
	}

	// Step 2: baseline reservation.
	skeleton := digest.Render(emptyBodies(candidate))
	bodyBudget := maxRepoBytes - int64(len(skeleton))
	if bodyBudget < 0 {
		bodyBudget = 0
	}

	baselineSizes, notes, err := reserveBaseline(candidate, bodyBudget)
	if err != nil {
		return nil, err
	}

	var baselineTotal int64
	for _, v := range baselineSizes {
		baselineTotal += v
	}

	if baselineTotal > bodyBudget {
		return nil, core.Budget(map[string]any{
			"baseline_total_bytes": baselineTotal,
			"body_budget_bytes":    bodyBudget,
		}, "baseline sections alone (%d bytes) exceed the body budget (%d bytes)", baselineTotal, bodyBudget)
	}

	// Step 3: weighted allocation for optional categories.
	available := bodyBudget - baselineTotal
	allocations := allocateOptional(candidate, cfg.Weights(), available)
	optionalNotes := applyOptionalTruncation(candidate, allocations)
	notes = append(notes, optionalNotes...)

	rendered = digest.Render(candidate)
	if int64(len(rendered)) > maxRepoBytes {
		result, finalizeErr := finalize(candidate, rendered, inputBytes, maxRepoBytes, cfg, notes)
		if finalizeErr != nil {
			return nil, finalizeErr
		}
		return result, core.Budget(map[string]any{
			"output_bytes": len(rendered),
			"max_bytes":    maxRepoBytes,
			"partial":      result,
		}, "processed digest (%d bytes) still exceeds max_repo_bytes (%d bytes) after all truncation", len(rendered), maxRepoBytes)
	}

	return finalize(candidate, rendered, inputBytes, maxRepoBytes, cfg, notes)
}

func cloneAllPresent(e *core.ExtractedRepoMarkdown) *core.ExtractedRepoMarkdown {
	out := &core.ExtractedRepoMarkdown{}
	assignOrNotFound(&out.RepositoryMetadata, e.RepositoryMetadata)
	assignOrNotFound(&out.LanguageStats, e.LanguageStats)
	assignOrNotFound(&out.DirectoryTree, e.DirectoryTree)
	assignOrNotFound(&out.Readme, e.Readme)
	assignOrNotFound(&out.Documentation, e.Documentation)
	assignOrNotFound(&out.BuildAndPackage, e.BuildAndPackage)
	assignOrNotFound(&out.Tests, e.Tests)
	assignOrNotFound(&out.Code, e.Code)
	assignOrNotFound(&out.ExtractionStats, e.ExtractionStats)
	assignOrNotFound(&out.Warnings, e.Warnings)
	return out
}

func assignOrNotFound(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
		return
	}
	empty := ""
	*dst = &empty
}

func emptyBodies(e *core.ExtractedRepoMarkdown) *core.ExtractedRepoMarkdown {
	out := cloneAllPresent(e)
	empty := ""
	out.RepositoryMetadata = &empty
	out.LanguageStats = &empty
	out.DirectoryTree = &empty
	out.Readme = &empty
	out.Documentation = &empty
	out.BuildAndPackage = &empty
	out.Tests = &empty
	out.Code = &empty
	return out
}

func finalize(
	e *core.ExtractedRepoMarkdown,
	rendered string,
	inputBytes, maxRepoBytes int64,
	cfg config.RepoProcessorConfig,
	notes []core.TruncationNote,
) (*core.ProcessedRepoMarkdown, error) {
	outputBytes := int64(len(rendered))
	result := &core.ProcessedRepoMarkdown{
		RepositoryMetadata:            strOf(e.RepositoryMetadata),
		LanguageStats:                 strOf(e.LanguageStats),
		DirectoryTree:                 strOf(e.DirectoryTree),
		Readme:                        strOf(e.Readme),
		Documentation:                 strOf(e.Documentation),
		BuildAndPackage:               strOf(e.BuildAndPackage),
		Tests:                         strOf(e.Tests),
		Code:                          strOf(e.Code),
		InputTotalUTF8Bytes:           inputBytes,
		OutputTotalUTF8Bytes:          outputBytes,
		MaxRepoDataSizeForPromptBytes: maxRepoBytes,
		EstimatedInputTokens:          estimateTokensForBytes(inputBytes, cfg.BytesPerTokenEstimate),
		EstimatedOutputTokens:         estimateTokensForBytes(outputBytes, cfg.BytesPerTokenEstimate),
		BytesPerTokenEstimate:         cfg.BytesPerTokenEstimate,
		PerCategoryBytes:              perCategoryBytes(e),
		TruncationNotes:               notes,
	}
	return result, nil
}

func strOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func estimateTokensForBytes(n int64, bytesPerToken float64) int64 {
	if bytesPerToken <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(n) / bytesPerToken))
}

func perCategoryBytes(e *core.ExtractedRepoMarkdown) map[string]int64 {
	return map[string]int64{
		"repository_metadata":    int64(len(strOf(e.RepositoryMetadata))),
		"language_stats":         int64(len(strOf(e.LanguageStats))),
		"directory_tree":         int64(len(strOf(e.DirectoryTree))),
		"readme":                 int64(len(strOf(e.Readme))),
		"documentation":          int64(len(strOf(e.Documentation))),
		"build_and_package_data": int64(len(strOf(e.BuildAndPackage))),
		"tests":                  int64(len(strOf(e.Tests))),
		"code":                   int64(len(strOf(e.Code))),
	}
}
