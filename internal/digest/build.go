package digest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sevigo/repodigest/internal/core"
)

// BuildExtracted converts a RepoSnapshot into the ten rendered section bodies, ready for
// Render. A nil field means the section was never attempted; an empty (non-nil) string
// means it was attempted and came back empty — Render maps these to "Not requested" and
// "Not found" respectively.
func BuildExtracted(snapshot *core.RepoSnapshot) *core.ExtractedRepoMarkdown {
	out := &core.ExtractedRepoMarkdown{}

	meta := renderMetadata(snapshot.Metadata)
	out.RepositoryMetadata = &meta

	langs := renderLanguages(snapshot.Languages)
	out.LanguageStats = &langs

	tree := renderDirectoryTree(snapshot.Tree)
	out.DirectoryTree = &tree

	if snapshot.Readme != nil {
		readme := renderFileBlock(snapshot.Readme.File)
		out.Readme = &readme
	} else {
		empty := ""
		out.Readme = &empty
	}

	if snapshot.Documentation != nil {
		docs := renderFileBlocks(snapshot.Documentation.Files)
		out.Documentation = &docs
	} else {
		empty := ""
		out.Documentation = &empty
	}

	build := renderFileBlocks(snapshot.BuildPackage)
	out.BuildAndPackage = &build

	tests := renderFileBlocks(snapshot.Tests)
	out.Tests = &tests

	code := renderFileBlocks(snapshot.Code)
	out.Code = &code

	stats := renderExtractionStats(snapshot)
	out.ExtractionStats = &stats

	warnings := renderWarnings(snapshot.Warnings)
	out.Warnings = &warnings

	return out
}

func renderMetadata(m core.RepoMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Owner: %s\n", m.Owner)
	fmt.Fprintf(&b, "- Repo: %s\n", m.Repo)
	fmt.Fprintf(&b, "- Default Branch: %s\n", m.DefaultBranch)
	fmt.Fprintf(&b, "- Description: %s\n", orNA(m.Description))
	fmt.Fprintf(&b, "- Topics: %s\n", strings.Join(m.Topics, ", "))
	fmt.Fprintf(&b, "- Homepage: %s\n", orNA(m.Homepage))
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func renderLanguages(langs map[string]int64) string {
	if len(langs) == 0 {
		return ""
	}
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %d bytes\n", name, langs[name])
	}
	return b.String()
}

func renderDirectoryTree(entries []core.TreeEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range entries {
		suffix := ""
		if e.Type == core.EntryTree {
			suffix = "/"
		}
		fmt.Fprintf(&b, "%s%s\n", e.Path, suffix)
	}
	return b.String()
}

func renderExtractionStats(s *core.RepoSnapshot) string {
	categories := []struct {
		name  string
		bytes int64
	}{
		{"readme", readmeBytes(s.Readme)},
		{"documentation", docBytes(s.Documentation)},
		{"build_and_package_data", sumBytes(s.BuildPackage)},
		{"tests", sumBytes(s.Tests)},
		{"code", sumBytes(s.Code)},
	}
	var b strings.Builder
	var total int64
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: %d bytes (~%d tokens)\n", c.name, c.bytes, estimateTokens(int(c.bytes)))
		total += c.bytes
	}
	fmt.Fprintf(&b, "- total: %d bytes (~%d tokens)\n", total, estimateTokens(int(total)))
	return b.String()
}

func readmeBytes(r *core.ReadmeData) int64 {
	if r == nil {
		return 0
	}
	return r.File.ByteSize
}

func docBytes(d *core.DocumentationData) int64 {
	if d == nil {
		return 0
	}
	return d.TotalBytes
}

func sumBytes(files []core.FileContent) int64 {
	var total int64
	for _, f := range files {
		total += f.ByteSize
	}
	return total
}

func renderWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	for _, w := range warnings {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	return b.String()
}
