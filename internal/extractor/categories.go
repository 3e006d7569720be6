package extractor

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/sevigo/repodigest/internal/core"
	"github.com/sevigo/repodigest/internal/selector"
)

// categoryBudget bundles the four hard guards a category fetch evaluates per candidate,
// in the order §4.4 specifies: total byte cap, file-count cap, stage deadline, per-file cap.
type categoryBudget struct {
	maxTotalBytes int64
	maxFiles      int
	maxFileBytes  int64
	stageSeconds  float64
}

// fetchCategory walks candidates in the order given (already BFS-sorted by the caller)
// and fetches their content via the adapter. The file-count, stage-deadline, and total-byte
// caps stop the walk entirely once reached; a single oversized candidate only skips that
// candidate and tries the next, so it never discards smaller files later in BFS order.
func (e *Extractor) fetchCategory(
	ctx context.Context,
	ref core.RepoRef,
	branch string,
	candidates []core.TreeEntry,
	budget categoryBudget,
	categoryName string,
	b *snapshotBuilder,
) []core.FileContent {
	stageCtx, cancel := stageDeadline(ctx, budget.stageSeconds)
	defer cancel()

	var out []core.FileContent
	var totalBytes int64

	for _, entry := range candidates {
		if totalBytes >= budget.maxTotalBytes {
			b.warn("%s: total byte cap (%d) reached, stopping", categoryName, budget.maxTotalBytes)
			break
		}
		if len(out) >= budget.maxFiles {
			b.warn("%s: file-count cap (%d) reached, skipping remaining candidates", categoryName, budget.maxFiles)
			break
		}
		if stageCtx.Err() != nil {
			b.warn("%s: stage deadline (%.0fs) exceeded before all candidates were fetched", categoryName, budget.stageSeconds)
			break
		}
		if entry.SizeBytes > 0 && entry.SizeBytes > budget.maxFileBytes {
			b.warn("%s: %s skipped, reported size %d exceeds per-file cap %d", categoryName, entry.Path, entry.SizeBytes, budget.maxFileBytes)
			continue
		}

		fc, err := e.client.GetFileContent(stageCtx, ref, branch, entry.Path)
		if err != nil {
			b.warn("%s: failed to fetch %s: %v", categoryName, entry.Path, err)
			continue
		}
		if containsBinary(fc.ContentText) {
			b.warn("%s: %s rejected, binary content detected", categoryName, entry.Path)
			continue
		}
		if fc.ByteSize > budget.maxFileBytes {
			fc.ContentText = truncateUTF8(fc.ContentText, budget.maxFileBytes)
			fc.ByteSize = int64(len(fc.ContentText))
			b.warn("%s: %s exceeded per-file cap of %d bytes, truncated", categoryName, entry.Path, budget.maxFileBytes)
		}
		if totalBytes+fc.ByteSize > budget.maxTotalBytes {
			b.warn("%s: %s would exceed total byte cap (%d), trying next candidate", categoryName, entry.Path, budget.maxTotalBytes)
			continue
		}

		totalBytes += fc.ByteSize
		out = append(out, *fc)
	}

	return out
}

func blobEntries(tree []core.TreeEntry) []core.TreeEntry {
	out := make([]core.TreeEntry, 0, len(tree))
	for _, e := range tree {
		if e.Type == core.EntryBlob {
			out = append(out, e)
		}
	}
	return out
}

func (e *Extractor) isIgnored(p string) bool {
	return e.ignore.IsIgnored(p)
}

func sortByBFSPaths(entries []core.TreeEntry) []core.TreeEntry {
	paths := make([]string, len(entries))
	byPath := make(map[string]core.TreeEntry, len(entries))
	for i, en := range entries {
		paths[i] = en.Path
		byPath[en.Path] = en
	}
	ordered := selector.SortedBFS(paths)
	out := make([]core.TreeEntry, len(ordered))
	for i, p := range ordered {
		out[i] = byPath[p]
	}
	return out
}

func (e *Extractor) runDocsStage(ctx context.Context, ref core.RepoRef, meta core.RepoMetadata, tree []core.TreeEntry, b *snapshotBuilder) {
	var candidates []core.TreeEntry
	for _, en := range blobEntries(tree) {
		if e.isIgnored(en.Path) {
			continue
		}
		if !selector.IsLikelyTextPath(en.Path) {
			continue
		}
		if selector.LooksLikeDocPath(en.Path) && selector.PathDepth(en.Path) <= e.gate.MaxDocsDepth {
			candidates = append(candidates, en)
		}
	}
	candidates = sortByBFSPaths(candidates)

	budget := categoryBudget{
		maxTotalBytes: e.gate.MaxDocsBytes,
		maxFiles:      e.gate.MaxDocsFiles,
		maxFileBytes:  e.gate.MaxSingleFileBytes,
		stageSeconds:  e.gate.DocsStageSeconds,
	}
	files := e.fetchCategory(ctx, ref, meta.DefaultBranch, candidates, budget, "documentation", b)

	if meta.Homepage != "" {
		files = e.prependHomepageSynthetic(ctx, meta.Homepage, files, b)
	}

	var total int64
	for _, f := range files {
		total += f.ByteSize
	}

	b.mu.Lock()
	if len(files) > 0 {
		b.snapshot.Documentation = &core.DocumentationData{Files: files, TotalBytes: total}
	}
	b.mu.Unlock()
}

// prependHomepageSynthetic fetches meta.Homepage and prepends it as a synthetic
// FileContent{path:"about-homepage"}, truncated to whichever of the per-file cap or the
// remaining documentation budget is smaller, per §4.4.
func (e *Extractor) prependHomepageSynthetic(ctx context.Context, homepage string, files []core.FileContent, b *snapshotBuilder) []core.FileContent {
	var used int64
	for _, f := range files {
		used += f.ByteSize
	}
	remaining := e.gate.MaxDocsBytes - used
	if remaining <= 0 {
		return files
	}
	limit := e.gate.MaxSingleFileBytes
	if remaining < limit {
		limit = remaining
	}

	data, err := e.client.HTTPGetBytes(ctx, homepage, limit)
	if err != nil {
		b.warn("documentation: failed to fetch homepage %s: %v", homepage, err)
		return files
	}
	if containsBinary(string(data)) {
		b.warn("documentation: homepage %s rejected, binary content detected", homepage)
		return files
	}
	synthetic := core.FileContent{
		Path:        "about-homepage",
		SourceURL:   homepage,
		ContentText: truncateUTF8(string(data), limit),
	}
	synthetic.ByteSize = int64(len(synthetic.ContentText))
	return append([]core.FileContent{synthetic}, files...)
}

func (e *Extractor) runBuildPackageStage(ctx context.Context, ref core.RepoRef, branch string, tree []core.TreeEntry, b *snapshotBuilder) {
	var candidates []core.TreeEntry
	for _, en := range blobEntries(tree) {
		if e.isIgnored(en.Path) {
			continue
		}
		if !selector.IsLikelyTextPath(en.Path) {
			continue
		}
		if !selector.LooksLikeBuildPackagePath(en.Path) {
			continue
		}
		depth := selector.PathDepth(en.Path)
		if depth > e.gate.MaxBuildPackageDepth {
			continue
		}
		if strings.EqualFold(path.Base(en.Path), "makefile") && depth > 1 {
			continue
		}
		candidates = append(candidates, en)
	}
	candidates = sortBuildPackageOrder(candidates)

	budget := categoryBudget{
		maxTotalBytes: e.gate.MaxBuildPackageBytes,
		maxFiles:      e.gate.MaxBuildPackageFiles,
		maxFileBytes:  e.gate.MaxSingleFileBytes,
		stageSeconds:  e.gate.BuildPackageStageSeconds,
	}
	files := e.fetchCategory(ctx, ref, branch, candidates, budget, "build_and_package_data", b)

	b.mu.Lock()
	b.snapshot.BuildPackage = files
	b.mu.Unlock()
}

// highSignalBuildNames ranks conventional manifest files above incidental build-adjacent
// files when depth ties, per §4.4 "secondarily by high-signal-filename preference".
var highSignalBuildNames = map[string]int{
	"go.mod": 0, "package.json": 0, "pyproject.toml": 0, "cargo.toml": 0, "pom.xml": 0,
	"build.gradle": 1, "build.gradle.kts": 1, "setup.py": 1, "gemfile": 1, "composer.json": 1,
	"dockerfile": 2, "docker-compose.yml": 2, "docker-compose.yaml": 2, "makefile": 2,
}

func sortBuildPackageOrder(entries []core.TreeEntry) []core.TreeEntry {
	out := make([]core.TreeEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := selector.PathDepth(out[i].Path), selector.PathDepth(out[j].Path)
		if di != dj {
			return di < dj
		}
		ri, rj := buildRank(out[i].Path), buildRank(out[j].Path)
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(out[i].Path) < strings.ToLower(out[j].Path)
	})
	return out
}

func buildRank(p string) int {
	base := strings.ToLower(path.Base(p))
	if rank, ok := highSignalBuildNames[base]; ok {
		return rank
	}
	return 3
}

func (e *Extractor) runTestsStage(ctx context.Context, ref core.RepoRef, branch string, tree []core.TreeEntry, b *snapshotBuilder) {
	var candidates []core.TreeEntry
	for _, en := range blobEntries(tree) {
		if e.isIgnored(en.Path) {
			continue
		}
		if !selector.IsLikelyTextPath(en.Path) {
			continue
		}
		if selector.LooksLikeTestPath(en.Path) && selector.PathDepth(en.Path) <= e.gate.MaxTestsDepth {
			candidates = append(candidates, en)
		}
	}
	candidates = sortByBFSPaths(candidates)

	budget := categoryBudget{
		maxTotalBytes: e.gate.MaxTestsBytes,
		maxFiles:      e.gate.MaxTestsFiles,
		maxFileBytes:  e.gate.MaxSingleFileBytes,
		stageSeconds:  e.gate.TestsStageSeconds,
	}
	files := e.fetchCategory(ctx, ref, branch, candidates, budget, "tests", b)

	b.mu.Lock()
	b.snapshot.Tests = files
	b.mu.Unlock()
}

func (e *Extractor) runCodeStage(ctx context.Context, ref core.RepoRef, branch string, tree []core.TreeEntry, b *snapshotBuilder) {
	var candidates []core.TreeEntry
	for _, en := range blobEntries(tree) {
		if e.isIgnored(en.Path) {
			continue
		}
		if !selector.IsLikelyTextPath(en.Path) {
			continue
		}
		if selector.LooksLikeDocPath(en.Path) || selector.LooksLikeTestPath(en.Path) {
			continue
		}
		if selector.PathDepth(en.Path) > e.gate.MaxCodeDepth {
			continue
		}
		candidates = append(candidates, en)
	}
	candidates = sortByBFSPaths(candidates)
	candidates = prependEntrypoints(candidates)

	budget := categoryBudget{
		maxTotalBytes: e.gate.MaxCodeBytes,
		maxFiles:      e.gate.MaxCodeFiles,
		maxFileBytes:  e.gate.MaxSingleFileBytes,
		stageSeconds:  e.gate.CodeStageSeconds,
	}
	files := e.fetchCategory(ctx, ref, branch, candidates, budget, "code", b)

	b.mu.Lock()
	b.snapshot.Code = files
	b.mu.Unlock()
}

// prependEntrypoints moves entrypoint-named files to the front of the BFS order, deduping,
// per §4.4 "Prepend entrypoint-named files to the BFS order, dedup."
func prependEntrypoints(entries []core.TreeEntry) []core.TreeEntry {
	var entrypoints, rest []core.TreeEntry
	for _, en := range entries {
		if selector.LooksLikeEntrypoint(en.Path) {
			entrypoints = append(entrypoints, en)
		} else {
			rest = append(rest, en)
		}
	}
	return append(entrypoints, rest...)
}
