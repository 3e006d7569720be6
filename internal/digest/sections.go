// Package digest implements the Markdown Renderer and its strict inverse, the Digest
// Parser: a canonical ten-section markdown document is the wire format passed between
// the Repository Extractor, the Context-Budget Processor, and the LLM Gateway.
package digest

// sectionKey names the ten canonical top-level headings, in fixed render order.
type sectionKey string

const (
	SectionRepositoryMetadata sectionKey = "Repository Metadata"
	SectionLanguageStats      sectionKey = "Language Stats"
	SectionDirectoryTree      sectionKey = "Directory Tree"
	SectionReadme             sectionKey = "README"
	SectionDocumentation      sectionKey = "Documentation"
	SectionBuildAndPackage    sectionKey = "Build and Package Data"
	SectionTests              sectionKey = "Tests"
	SectionCode               sectionKey = "Code"
	SectionExtractionStats    sectionKey = "Extraction Stats"
	SectionWarnings           sectionKey = "Warnings"
)

// sectionOrder is the fixed render order the renderer and parser both key off of.
var sectionOrder = []sectionKey{
	SectionRepositoryMetadata,
	SectionLanguageStats,
	SectionDirectoryTree,
	SectionReadme,
	SectionDocumentation,
	SectionBuildAndPackage,
	SectionTests,
	SectionCode,
	SectionExtractionStats,
	SectionWarnings,
}

// fileBlockSections are the sections rendered as a sequence of "## File: <path>" blocks
// rather than one flat body.
var fileBlockSections = map[sectionKey]bool{
	SectionReadme:          true,
	SectionDocumentation:   true,
	SectionBuildAndPackage: true,
	SectionTests:           true,
	SectionCode:            true,
}

const (
	sentinelNotRequested = "Not requested"
	sentinelNotFound     = "Not found"
)
