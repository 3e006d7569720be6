package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
	"github.com/sevigo/repodigest/internal/digest"
)

func ptr(s string) *string { return &s }

func testCfg() config.RepoProcessorConfig {
	return config.RepoProcessorConfig{
		ModelContextWindowTokens:  1000,
		MaxRepoDataRatioInPrompt:  0.5,
		BytesPerTokenEstimate:     4,
		WeightDocumentation:       1,
		WeightTests:               1,
		WeightBuildAndPackageData: 1,
		WeightCode:                2,
	}
}

// fileBlock builds a "## File: ..." block in the same shape digest.renderFileBlock
// produces, without depending on that unexported function.
func fileBlock(path, content string) string {
	return "## File: " + path + "\n" +
		"- Source: n/a\n" +
		"- UTF8 Bytes: 0\n" +
		"- Estimated Tokens: 0\n" +
		"```text\n" + content + "\n```\n"
}

func smallDigest() string {
	e := &core.ExtractedRepoMarkdown{
		RepositoryMetadata: ptr("- Owner: acme\n"),
		LanguageStats:      ptr("- Go: 100 bytes\n"),
		DirectoryTree:      ptr("main.go\n"),
		Readme:             ptr(fileBlock("README.md", "hello world")),
		Documentation:      ptr(""),
		BuildAndPackage:    ptr(fileBlock("go.mod", "module widget\n")),
		Tests:              ptr(""),
		Code:               ptr(fileBlock("main.go", "package main\n")),
		ExtractionStats:    ptr("- total: 24 bytes\n"),
		Warnings:           ptr(""),
	}
	return digest.Render(e)
}

func TestProcess_FastPathWhenUnderBudget(t *testing.T) {
	cfg := testCfg() // 1000 * 0.5 * 4 = 2000 bytes available
	out, err := Process(smallDigest(), cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, out.OutputTotalUTF8Bytes, out.MaxRepoDataSizeForPromptBytes)
	assert.Contains(t, out.Code, "package main")
	assert.Empty(t, out.TruncationNotes)
}

func bigFileBlock(path string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("x")
	}
	return fileBlock(path, b.String())
}

func largeDigest() string {
	e := &core.ExtractedRepoMarkdown{
		RepositoryMetadata: ptr("- Owner: acme\n- Repo: widget\n"),
		LanguageStats:      ptr("- Go: 100000 bytes\n"),
		DirectoryTree:      ptr(strings.Repeat("pkg/file.go\n", 500)),
		Readme:             ptr(bigFileBlock("README.md", 2000)),
		Documentation:      ptr(bigFileBlock("docs/guide.md", 2000)),
		BuildAndPackage:    ptr(bigFileBlock("go.mod", 500)),
		Tests:              ptr(bigFileBlock("main_test.go", 2000)),
		Code:               ptr(bigFileBlock("main.go", 5000)),
		ExtractionStats:    ptr("- total: lots\n"),
		Warnings:           ptr(""),
	}
	return digest.Render(e)
}

func TestProcess_ShrinksBaselineAndAllocatesOptional(t *testing.T) {
	cfg := testCfg()
	out, err := Process(largeDigest(), cfg)
	// A digest this much larger than the budget may still overflow slightly after every
	// truncation strategy has been applied, or the baseline sections alone may exceed the
	// body budget; Process reports either as a budget error, with a partial result
	// attached to post-truncation overflows, rather than silently succeeding.
	if err != nil {
		kind, ok := core.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, core.KindBudget, kind)
	}
	if out != nil {
		assert.NotEmpty(t, out.TruncationNotes)
		assert.Less(t, out.OutputTotalUTF8Bytes, out.InputTotalUTF8Bytes)
	}
}

func TestProcess_BudgetErrorWhenWindowTooSmall(t *testing.T) {
	cfg := config.RepoProcessorConfig{
		ModelContextWindowTokens:  10,
		MaxRepoDataRatioInPrompt:  0.5,
		BytesPerTokenEstimate:     4,
		WeightDocumentation:       1,
		WeightTests:               1,
		WeightBuildAndPackageData: 1,
		WeightCode:                1,
	}
	_, err := Process(largeDigest(), cfg)
	require.Error(t, err)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, core.KindBudget, kind)
}

func TestReserveBaseline_ShrinksInCanonicalOrder(t *testing.T) {
	e := &core.ExtractedRepoMarkdown{
		DirectoryTree:      ptr(strings.Repeat("a\n", 100)),
		Readme:             ptr(strings.Repeat("b", 50)),
		LanguageStats:      ptr(strings.Repeat("c", 10)),
		RepositoryMetadata: ptr(strings.Repeat("d", 10)),
	}
	sizes, notes, err := reserveBaseline(e, 60)
	require.NoError(t, err)

	var total int64
	for _, v := range sizes {
		total += v
	}
	assert.LessOrEqual(t, total, int64(60))
	// directory_tree (biggest, shrinks first) should have taken the brunt of the cut.
	assert.Less(t, sizes["directory_tree"], int64(200))
	assert.NotEmpty(t, notes)
}

func TestAllocateOptional_RespectsWeightsAndContentCaps(t *testing.T) {
	e := &core.ExtractedRepoMarkdown{
		Documentation:   ptr(strings.Repeat("d", 10)), // small; should be fully satisfied
		Tests:           ptr(strings.Repeat("t", 1000)),
		BuildAndPackage: ptr(strings.Repeat("b", 1000)),
		Code:            ptr(strings.Repeat("x", 1000)),
	}
	weights := map[string]float64{
		"documentation":          1,
		"tests":                  1,
		"build_and_package_data": 1,
		"code":                   2,
	}
	allocations := allocateOptional(e, weights, 400)

	var total int64
	for _, v := range allocations {
		total += v
	}
	assert.LessOrEqual(t, total, int64(400))
	assert.Equal(t, int64(10), allocations["documentation"]) // capped at actual content size
	assert.Greater(t, allocations["code"], allocations["tests"])
}

func TestAllocateOptional_ZeroAvailableYieldsZeroAllocations(t *testing.T) {
	e := &core.ExtractedRepoMarkdown{
		Documentation:   ptr("doc"),
		Tests:           ptr("test"),
		BuildAndPackage: ptr("build"),
		Code:            ptr("code"),
	}
	allocations := allocateOptional(e, map[string]float64{
		"documentation": 1, "tests": 1, "build_and_package_data": 1, "code": 1,
	}, 0)
	for _, name := range optionalCategories {
		assert.Equal(t, int64(0), allocations[name])
	}
}

func TestTruncateDirectoryTree_KeepsWholeLines(t *testing.T) {
	content := "a/b.go\nc/d.go\ne/f.go\n"
	out := truncateDirectoryTree(content, 8)
	assert.Equal(t, "a/b.go\n", out)
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestTruncateDirectoryTree_ZeroBudget(t *testing.T) {
	assert.Equal(t, "", truncateDirectoryTree("a\nb\n", 0))
}

func TestTruncatePrefixUTF8_StopsOnRuneBoundary(t *testing.T) {
	content := "héllo" // 'é' is 2 bytes
	out := truncatePrefixUTF8(content, 2)
	assert.Equal(t, "h", out)
}

func TestTruncateFileBlocks_KeepsWholeBlocksThenOnePartial(t *testing.T) {
	content := fileBlock("a.go", "package a\n") + "\n\n" + fileBlock("b.go", strings.Repeat("y", 200))
	out := truncateFileBlocks(content, int64(len(fileBlock("a.go", "package a\n")))+100)
	assert.Contains(t, out, "## File: a.go")
	assert.Contains(t, out, "## File: b.go")
	assert.True(t, strings.HasSuffix(strings.TrimRight(out, "\n"), "```"))
}

func TestTruncateFileBlocks_ZeroBudgetReturnsLiteral(t *testing.T) {
	content := fileBlock("a.go", "package a\n")
	assert.Equal(t, "Truncated to zero", truncateFileBlocks(content, 0))
}

func TestTruncateFileBlocks_DropsBlockThatCannotFitHeader(t *testing.T) {
	content := fileBlock("a-very-long-filename-that-takes-up-a-lot-of-space.go", "package a\n")
	out := truncateFileBlocks(content, 3)
	assert.Equal(t, "Truncated to zero", out)
}
