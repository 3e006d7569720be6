package digest

import (
	"strings"

	"github.com/sevigo/repodigest/internal/core"
)

type boundary struct {
	key     sectionKey
	lineIdx int
}

// Parse is the strict inverse of Render: it locates top-level headings that match the
// fixed section set, only when outside fenced code blocks, and slices bodies between
// consecutive boundaries. Unknown top-level headings are ignored (their lines stay part
// of whichever known section is currently open). "Not requested"/"Not found" bodies map
// back to a nil field and a non-nil empty field respectively.
func Parse(markdown string) (*core.ExtractedRepoMarkdown, error) {
	lines := strings.Split(markdown, "\n")

	var boundaries []boundary
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if strings.HasPrefix(strings.TrimSpace(trimmed), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if !strings.HasPrefix(trimmed, "# ") {
			continue
		}
		name := strings.TrimSpace(trimmed[2:])
		if key, ok := knownSection(name); ok {
			boundaries = append(boundaries, boundary{key: key, lineIdx: i})
		}
	}

	if len(boundaries) == 0 {
		return nil, core.Parse("digest_parse_error: no known section boundary found in digest markdown")
	}

	out := &core.ExtractedRepoMarkdown{}
	for i, bd := range boundaries {
		start := bd.lineIdx + 1
		end := len(lines)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].lineIdx
		}
		body := strings.Trim(strings.Join(lines[start:end], "\n"), "\n")

		switch body {
		case sentinelNotRequested:
			// leave the field nil
		case sentinelNotFound:
			setBody(out, bd.key, "")
		default:
			setBody(out, bd.key, body)
		}
	}

	return out, nil
}

func knownSection(name string) (sectionKey, bool) {
	for _, key := range sectionOrder {
		if string(key) == name {
			return key, true
		}
	}
	return "", false
}
