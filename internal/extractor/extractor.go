// Package extractor implements the Repository Extractor: a bounded, best-effort crawler
// that turns a RepoRef into a core.RepoSnapshot by fanning the Remote Adapter's calls out
// under the per-category/per-file/per-stage/total budgets in config.GithubGateLimits.
// Stage concurrency and deadline composition are grounded on
// internal/llm/arch_context.go's errgroup.WithContext usage in the teacher repo.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
	"github.com/sevigo/repodigest/internal/githost"
)

// Extractor orchestrates the selector and the Remote Adapter under the configured budgets.
type Extractor struct {
	client githost.Client
	gate   config.GithubGateLimits
	ignore *config.IgnoreRules
	logger *slog.Logger
}

func New(client githost.Client, gate config.GithubGateLimits, ignore *config.IgnoreRules, logger *slog.Logger) *Extractor {
	if ignore == nil {
		ignore = config.DefaultIgnoreRules()
	}
	return &Extractor{client: client, gate: gate, ignore: ignore, logger: logger}
}

// snapshotBuilder collects stage results and warnings behind one mutex, since each
// errgroup goroutine writes a distinct field but warnings are shared (§3 RepoSnapshot:
// "Mutation is confined to the extractor's internal warnings buffer").
type snapshotBuilder struct {
	mu       sync.Mutex
	snapshot core.RepoSnapshot
}

func (b *snapshotBuilder) warn(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshot.Warnings = append(b.snapshot.Warnings, fmt.Sprintf(format, args...))
}

// Extract produces a complete RepoSnapshot for ref under a shared total-fetch deadline.
// Metadata and tree are fetched first, one after the other, and an error from either is
// returned. The remaining six stages then run concurrently; a stage that fails or runs out
// of time records a warning and leaves its field at its zero value rather than failing the
// whole request.
func (e *Extractor) Extract(ctx context.Context, ref core.RepoRef) (*core.RepoSnapshot, error) {
	totalCtx, cancel := context.WithTimeout(ctx, e.gate.TotalFetchDeadline())
	defer cancel()

	meta, err := e.client.GetRepoMetadata(totalCtx, ref)
	if err != nil {
		return nil, err
	}

	b := &snapshotBuilder{}
	b.snapshot.Metadata = meta

	tree, err := e.client.GetTree(totalCtx, ref, meta.DefaultBranch)
	if err != nil {
		return nil, err
	}
	b.snapshot.Tree = tree

	g, gctx := errgroup.WithContext(totalCtx)

	g.Go(func() error { e.runLanguagesStage(gctx, ref, b); return nil })
	g.Go(func() error { e.runReadmeStage(gctx, ref, meta.DefaultBranch, b); return nil })
	g.Go(func() error { e.runDocsStage(gctx, ref, meta, tree, b); return nil })
	g.Go(func() error { e.runBuildPackageStage(gctx, ref, meta.DefaultBranch, tree, b); return nil })
	g.Go(func() error { e.runTestsStage(gctx, ref, meta.DefaultBranch, tree, b); return nil })
	g.Go(func() error { e.runCodeStage(gctx, ref, meta.DefaultBranch, tree, b); return nil })

	_ = g.Wait() // individual stage errors are recorded as warnings, never propagated

	if totalCtx.Err() != nil {
		b.warn("total fetch deadline (%s) exceeded; some stages may be incomplete", e.gate.TotalFetchDeadline())
	}

	return &b.snapshot, nil
}

func stageDeadline(parent context.Context, seconds float64) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(seconds*float64(time.Second)))
}

func (e *Extractor) runLanguagesStage(ctx context.Context, ref core.RepoRef, b *snapshotBuilder) {
	stageCtx, cancel := stageDeadline(ctx, e.gate.LanguagesStageSeconds)
	defer cancel()

	langs, err := e.client.GetLanguages(stageCtx, ref)
	if err != nil {
		b.warn("languages stage failed: %v", err)
		return
	}
	b.mu.Lock()
	b.snapshot.Languages = langs
	b.mu.Unlock()
}

func (e *Extractor) runReadmeStage(ctx context.Context, ref core.RepoRef, branch string, b *snapshotBuilder) {
	stageCtx, cancel := stageDeadline(ctx, e.gate.ReadmeStageSeconds)
	defer cancel()

	readme, err := e.client.GetReadme(stageCtx, ref, branch)
	if err != nil {
		b.warn("readme stage failed: %v", err)
		return
	}
	if readme == nil {
		return
	}
	if err := e.enforceSingleFileCap(readme); err != nil {
		b.warn("readme truncated: %v", err)
	}
	b.mu.Lock()
	b.snapshot.Readme = &core.ReadmeData{File: *readme}
	b.mu.Unlock()
}

// enforceSingleFileCap truncates fc.ContentText in place down to MaxSingleFileBytes,
// mirroring the "per-file byte cap, re-checked after download" guard from §4.4.
func (e *Extractor) enforceSingleFileCap(fc *core.FileContent) error {
	if fc.ByteSize <= e.gate.MaxSingleFileBytes {
		return nil
	}
	fc.ContentText = truncateUTF8(fc.ContentText, e.gate.MaxSingleFileBytes)
	fc.ByteSize = int64(len(fc.ContentText))
	return fmt.Errorf("%s exceeded per-file cap of %d bytes, truncated", fc.Path, e.gate.MaxSingleFileBytes)
}

// truncateUTF8 cuts s to at most maxBytes bytes without splitting a multi-byte rune.
func truncateUTF8(s string, maxBytes int64) string {
	if int64(len(s)) <= maxBytes {
		return s
	}
	cut := int(maxBytes)
	for cut > 0 && !isUTF8Boundary(s, cut) {
		cut--
	}
	return s[:cut]
}

func isUTF8Boundary(s string, idx int) bool {
	if idx <= 0 || idx >= len(s) {
		return true
	}
	return s[idx]&0xC0 != 0x80
}

// containsBinary reports whether content contains a NUL byte, the Repository Extractor's
// binary guard from §4.4.
func containsBinary(content string) bool {
	return bytes.IndexByte([]byte(content), 0) != -1
}
