package digest

import (
	"fmt"
	"strings"

	"github.com/sevigo/repodigest/internal/core"
)

// Render produces the canonical ten-section markdown document from e. A nil section
// field renders the "Not requested" sentinel; a non-nil empty string renders "Not found".
func Render(e *core.ExtractedRepoMarkdown) string {
	var b strings.Builder
	for _, key := range sectionOrder {
		body := bodyFor(e, key)
		fmt.Fprintf(&b, "# %s\n\n", key)
		b.WriteString(renderBody(body))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderBody(body *string) string {
	if body == nil {
		return sentinelNotRequested + "\n"
	}
	if *body == "" {
		return sentinelNotFound + "\n"
	}
	s := *body
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}

func bodyFor(e *core.ExtractedRepoMarkdown, key sectionKey) *string {
	switch key {
	case SectionRepositoryMetadata:
		return e.RepositoryMetadata
	case SectionLanguageStats:
		return e.LanguageStats
	case SectionDirectoryTree:
		return e.DirectoryTree
	case SectionReadme:
		return e.Readme
	case SectionDocumentation:
		return e.Documentation
	case SectionBuildAndPackage:
		return e.BuildAndPackage
	case SectionTests:
		return e.Tests
	case SectionCode:
		return e.Code
	case SectionExtractionStats:
		return e.ExtractionStats
	case SectionWarnings:
		return e.Warnings
	}
	return nil
}

// setBody is the symmetric setter Parse uses to populate each field by key.
func setBody(e *core.ExtractedRepoMarkdown, key sectionKey, body string) {
	v := body
	switch key {
	case SectionRepositoryMetadata:
		e.RepositoryMetadata = &v
	case SectionLanguageStats:
		e.LanguageStats = &v
	case SectionDirectoryTree:
		e.DirectoryTree = &v
	case SectionReadme:
		e.Readme = &v
	case SectionDocumentation:
		e.Documentation = &v
	case SectionBuildAndPackage:
		e.BuildAndPackage = &v
	case SectionTests:
		e.Tests = &v
	case SectionCode:
		e.Code = &v
	case SectionExtractionStats:
		e.ExtractionStats = &v
	case SectionWarnings:
		e.Warnings = &v
	}
}
