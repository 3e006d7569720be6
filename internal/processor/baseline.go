package processor

import (
	"github.com/sevigo/repodigest/internal/core"
)

// baselineField maps a canonical baseline name to accessor/mutator closures over e, so
// reserveBaseline can iterate baselineOrder generically.
type baselineField struct {
	name string
	get  func() string
	set  func(string)
}

func baselineFields(e *core.ExtractedRepoMarkdown) map[string]baselineField {
	return map[string]baselineField{
		"directory_tree": {
			name: "directory_tree",
			get:  func() string { return strOf(e.DirectoryTree) },
			set:  func(s string) { e.DirectoryTree = &s },
		},
		"readme": {
			name: "readme",
			get:  func() string { return strOf(e.Readme) },
			set:  func(s string) { e.Readme = &s },
		},
		"language_stats": {
			name: "language_stats",
			get:  func() string { return strOf(e.LanguageStats) },
			set:  func(s string) { e.LanguageStats = &s },
		},
		"repository_metadata": {
			name: "repository_metadata",
			get:  func() string { return strOf(e.RepositoryMetadata) },
			set:  func(s string) { e.RepositoryMetadata = &s },
		},
	}
}

// reserveBaseline shrinks the four mandatory baseline sections in the canonical order
// directory_tree -> readme -> language_stats -> repository_metadata. Each field's
// allowance is max(0, bodyBudget - sum(current sizes of the other three)), so earlier
// fields in the order absorb the brunt of the shrinkage and later fields are only
// touched if the earlier shrinkage wasn't enough.
func reserveBaseline(e *core.ExtractedRepoMarkdown, bodyBudget int64) (map[string]int64, []core.TruncationNote, error) {
	fields := baselineFields(e)
	var notes []core.TruncationNote

	for _, name := range baselineOrder {
		f := fields[name]
		current := f.get()
		others := int64(0)
		for _, other := range baselineOrder {
			if other == name {
				continue
			}
			others += int64(len(fields[other].get()))
		}
		allowance := bodyBudget - others
		if allowance < 0 {
			allowance = 0
		}

		originalLen := int64(len(current))
		if originalLen <= allowance {
			continue
		}

		truncated, strategy := truncateBaselineField(name, current, allowance)
		f.set(truncated)
		notes = append(notes, core.TruncationNote{
			Section:       name,
			OriginalBytes: originalLen,
			TargetBytes:   allowance,
			FinalBytes:    int64(len(truncated)),
			Strategy:      strategy,
		})
	}

	sizes := make(map[string]int64, len(baselineOrder))
	for _, name := range baselineOrder {
		sizes[name] = int64(len(fields[name].get()))
	}
	return sizes, notes, nil
}

// truncateBaselineField dispatches to the category-specific truncation strategy:
// directory_tree keeps whole lines, readme is a file-block section and uses the same
// greedy+partial-block strategy as the optional categories, and the remaining flat-text
// baseline fields (language_stats, repository_metadata) are prefix-truncated on a UTF-8
// boundary (§4.6 "Other text").
func truncateBaselineField(name, content string, target int64) (string, string) {
	if target <= 0 {
		return "", "zero_budget"
	}
	switch name {
	case "directory_tree":
		return truncateDirectoryTree(content, target), "directory_tree_line_prefix"
	case "readme":
		return truncateFileBlocks(content, target), "file_block_greedy_partial"
	default:
		return truncatePrefixUTF8(content, target), "prefix_truncate_utf8_boundary"
	}
}
