package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repodigest/internal/core"
)

func ptr(s string) *string { return &s }

func TestRender_MissingSectionsUseSentinels(t *testing.T) {
	e := &core.ExtractedRepoMarkdown{
		RepositoryMetadata: ptr("- Owner: acme\n"),
		LanguageStats:      nil,
		DirectoryTree:      ptr(""),
		Readme:             nil,
		Documentation:      ptr(""),
		BuildAndPackage:    ptr(""),
		Tests:              ptr(""),
		Code:               ptr(""),
		ExtractionStats:    ptr(""),
		Warnings:           ptr(""),
	}
	out := Render(e)
	assert.Contains(t, out, "# Language Stats\n\nNot requested")
	assert.Contains(t, out, "# Directory Tree\n\nNot found")
	assert.Contains(t, out, "# Repository Metadata\n\n- Owner: acme")
}

func TestRenderParse_Idempotent(t *testing.T) {
	e := &core.ExtractedRepoMarkdown{
		RepositoryMetadata: ptr("- Owner: acme\n- Repo: widget\n"),
		LanguageStats:      ptr("- Go: 100 bytes\n"),
		DirectoryTree:      ptr("main.go\npkg/\n"),
		Readme:             nil,
		Documentation:      ptr(""),
		BuildAndPackage:    ptr("## File: go.mod\n- Source: n/a\n- UTF8 Bytes: 12\n- Estimated Tokens: 3\n```text\nmodule widget\n```\n"),
		Tests:              ptr(""),
		Code:               ptr("## File: main.go\n- Source: n/a\n- UTF8 Bytes: 12\n- Estimated Tokens: 3\n```text\npackage main\n```\n"),
		ExtractionStats:    ptr("- total: 24 bytes (~6 tokens)\n"),
		Warnings:           ptr(""),
	}

	first := Render(e)
	parsed, err := Parse(first)
	require.NoError(t, err)
	second := Render(parsed)

	assert.Equal(t, first, second)
}

func TestParse_IgnoresUnknownHeadings(t *testing.T) {
	md := "# Repository Metadata\n\n- Owner: acme\n\n# Some Random Heading\nnot a real section\n\n# Language Stats\n\nNot found\n"
	parsed, err := Parse(md)
	require.NoError(t, err)
	require.NotNil(t, parsed.RepositoryMetadata)
	assert.Contains(t, *parsed.RepositoryMetadata, "Some Random Heading")
	require.NotNil(t, parsed.LanguageStats)
	assert.Equal(t, "", *parsed.LanguageStats)
}

func TestParse_IgnoresHeadingsInsideFences(t *testing.T) {
	md := "# Code\n\n## File: x.md\n- Source: n/a\n- UTF8 Bytes: 9\n- Estimated Tokens: 3\n```text\n# Repository Metadata\nthis is just file content\n```\n\n# Warnings\n\nNot found\n"
	parsed, err := Parse(md)
	require.NoError(t, err)
	assert.Nil(t, parsed.RepositoryMetadata)
	require.NotNil(t, parsed.Code)
	assert.Contains(t, *parsed.Code, "# Repository Metadata")
	require.NotNil(t, parsed.Warnings)
	assert.Equal(t, "", *parsed.Warnings)
}

func TestParse_NoKnownBoundaryRaisesParseError(t *testing.T) {
	_, err := Parse("just some text\nwith no headings at all\n")
	require.Error(t, err)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, core.KindParse, kind)
}

func TestBuildExtracted_FromSnapshot(t *testing.T) {
	snap := &core.RepoSnapshot{
		Metadata:  core.RepoMetadata{Owner: "acme", Repo: "widget", DefaultBranch: "main"},
		Languages: map[string]int64{"Go": 500},
		Tree: []core.TreeEntry{
			{Path: "main.go", Type: core.EntryBlob},
			{Path: "pkg", Type: core.EntryTree},
		},
		Readme: &core.ReadmeData{File: core.FileContent{Path: "README.md", ContentText: "hello", ByteSize: 5}},
		Code:   []core.FileContent{{Path: "main.go", ContentText: "package main", ByteSize: 12}},
	}

	extracted := BuildExtracted(snap)
	require.NotNil(t, extracted.Readme)
	assert.Contains(t, *extracted.Readme, "## File: README.md")
	require.NotNil(t, extracted.Documentation)
	assert.Equal(t, "", *extracted.Documentation) // snapshot.Documentation is nil -> not found
	require.NotNil(t, extracted.Code)
	assert.Contains(t, *extracted.Code, "package main")

	rendered := Render(extracted)
	assert.True(t, strings.Contains(rendered, "# Directory Tree"))
	assert.Contains(t, rendered, "main.go")
}

func TestRenderFileBlock_AddsTrailingNewlineBeforeFence(t *testing.T) {
	fc := core.FileContent{Path: "a.go", ContentText: "package a", ByteSize: 9}
	out := renderFileBlock(fc)
	assert.Contains(t, out, "## File: a.go\n")
	assert.Contains(t, out, "```text\npackage a\n```\n")
}

func TestEstimateTokens_RoundsUp(t *testing.T) {
	assert.Equal(t, 1, estimateTokens(1))
	assert.Equal(t, 1, estimateTokens(4))
	assert.Equal(t, 2, estimateTokens(5))
}
