package digest

import (
	"fmt"
	"strings"

	"github.com/sevigo/repodigest/internal/core"
)

// estimateTokens applies the coarse ceil(bytes/4) ratio §4.5 gives for per-file token
// estimates in rendered file blocks (distinct from the processor's configurable
// bytes_per_token_estimate, which governs budget math, not display).
func estimateTokens(byteCount int) int {
	return (byteCount + 3) / 4
}

// renderFileBlock renders one "## File: <path>" block in the fixed shape §4.5 specifies.
func renderFileBlock(fc core.FileContent) string {
	source := fc.SourceURL
	if source == "" {
		source = "n/a"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## File: %s\n", fc.Path)
	fmt.Fprintf(&b, "- Source: %s\n", source)
	fmt.Fprintf(&b, "- UTF8 Bytes: %d\n", fc.ByteSize)
	fmt.Fprintf(&b, "- Estimated Tokens: %d\n", estimateTokens(int(fc.ByteSize)))
	b.WriteString("```text\n")
	b.WriteString(fc.ContentText)
	if !strings.HasSuffix(fc.ContentText, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	return b.String()
}

// renderFileBlocks joins each file's block with a blank line. Block boundaries are found
// by their "## File: " header lines, not by the blank line.
func renderFileBlocks(files []core.FileContent) string {
	blocks := make([]string, 0, len(files))
	for _, fc := range files {
		blocks = append(blocks, renderFileBlock(fc))
	}
	return strings.Join(blocks, "\n")
}
