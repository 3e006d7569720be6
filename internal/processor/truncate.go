package processor

import (
	"strings"
	"unicode/utf8"
)

// truncateDirectoryTree keeps the longest whole-line prefix of content that fits within
// target bytes. Directory tree entries are one-per-line, so a partial line would render
// a broken path; whole lines keep the section readable even when heavily cut.
func truncateDirectoryTree(content string, target int64) string {
	if target <= 0 {
		return ""
	}
	lines := strings.SplitAfter(content, "\n")
	var b strings.Builder
	var used int64
	for _, line := range lines {
		ll := int64(len(line))
		if used+ll > target {
			break
		}
		b.WriteString(line)
		used += ll
	}
	return b.String()
}

// truncatePrefixUTF8 keeps the longest prefix of content that fits within target bytes,
// backing off to the nearest preceding UTF-8 rune boundary so the result never ends
// mid-rune.
func truncatePrefixUTF8(content string, target int64) string {
	if target <= 0 {
		return ""
	}
	if int64(len(content)) <= target {
		return content
	}
	cut := int(target)
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// truncateFileBlocks truncates a rendered sequence of "## File: ..." blocks (as produced
// by renderFileBlocks) down to target bytes. It greedily keeps whole blocks in order,
// then — if the next block's header and opening fence alone fit in the remaining budget —
// includes one final partial block: header, opening fence, as much of the file content as
// fits on a UTF-8 boundary, and a re-closed fence. A block whose header+fence don't even
// fit is dropped entirely. If nothing fits at all, returns the zero-budget literal.
func truncateFileBlocks(content string, target int64) string {
	if target <= 0 {
		return "Truncated to zero"
	}
	blocks := splitFileBlocks(content)
	if len(blocks) == 0 {
		return truncatePrefixUTF8(content, target)
	}

	var b strings.Builder
	var used int64
	for i, block := range blocks {
		sep := int64(0)
		if b.Len() > 0 {
			sep = 2 // blank-line separator between blocks
		}
		bl := int64(len(block))
		if used+sep+bl <= target {
			if sep > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(block)
			used += sep + bl
			continue
		}

		partial := partialFileBlock(block, target-used-sep)
		if partial != "" {
			if sep > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(partial)
		}
		_ = i
		break
	}

	out := b.String()
	if out == "" {
		return "Truncated to zero"
	}
	return out
}

// splitFileBlocks splits a rendered file-block sequence on its "## File: " boundaries,
// preserving the blank-line-free block bodies (the blank-line separator is re-added by
// the caller).
func splitFileBlocks(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	var blocks []string
	var current []string
	for _, line := range lines {
		if strings.HasPrefix(line, "## File: ") && len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}

	// Trim a single trailing empty element produced by a trailing newline in content.
	trimmed := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		if strings.TrimSpace(blk) == "" {
			continue
		}
		trimmed = append(trimmed, strings.TrimRight(blk, "\n"))
	}
	return trimmed
}

// partialFileBlock keeps a file block's header metadata lines and opening fence, fills as
// much file content as fits the remaining budget on a UTF-8 boundary, and re-closes the
// fence. Returns "" if even the header and fences don't fit.
func partialFileBlock(block string, budget int64) string {
	if budget <= 0 {
		return ""
	}
	fenceOpen := "```text\n"
	fenceClose := "```"

	idx := strings.Index(block, fenceOpen)
	if idx < 0 {
		return truncatePrefixUTF8(block, budget)
	}
	header := block[:idx+len(fenceOpen)]
	rest := block[idx+len(fenceOpen):]
	body := strings.TrimSuffix(rest, fenceClose)

	skeleton := int64(len(header)) + int64(len(fenceClose))
	if skeleton > budget {
		return ""
	}

	bodyBudget := budget - skeleton
	truncatedBody := truncatePrefixUTF8(body, bodyBudget)
	if truncatedBody != "" && !strings.HasSuffix(truncatedBody, "\n") {
		// Leave one byte for the newline that puts the closing fence on its own line.
		truncatedBody = truncatePrefixUTF8(body, bodyBudget-1)
		if !strings.HasSuffix(truncatedBody, "\n") {
			truncatedBody += "\n"
		}
	}

	return header + truncatedBody + fenceClose
}
