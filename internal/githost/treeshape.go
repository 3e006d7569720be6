package githost

import (
	"encoding/json"

	"github.com/sevigo/repodigest/internal/core"
)

// treeEntryWire tolerates two spellings of the size field, resolving the SPEC_FULL.md
// Open Question: some code-host API variants return "size", others "size_bytes".
type treeEntryWire struct {
	Path      string `json:"path"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	SizeBytes int64  `json:"size_bytes"`
}

func (w treeEntryWire) toCore() core.TreeEntry {
	entryType := core.EntryBlob
	if w.Type == "tree" || w.Type == "dir" || w.Type == "directory" {
		entryType = core.EntryTree
	}
	size := w.Size
	if size == 0 {
		size = w.SizeBytes
	}
	return core.TreeEntry{
		Path:      w.Path,
		Type:      entryType,
		SizeBytes: size,
	}
}

// rawTreeEnvelope enumerates every top-level key probed for the entry array, in probe
// order, resolving the second SPEC_FULL.md Open Question: the tree endpoint may return
// a bare array, or an object keyed "tree" or "items", possibly nested one level under
// "data".
type rawTreeEnvelope struct {
	Tree  []treeEntryWire `json:"tree"`
	Items []treeEntryWire `json:"items"`
	Data  *rawTreeData    `json:"data"`
}

type rawTreeData struct {
	Tree  []treeEntryWire `json:"tree"`
	Items []treeEntryWire `json:"items"`
}

// parseTreeResponse tolerantly extracts the flat list of tree entries from raw JSON,
// probing in order: bare array, "tree", "items", "data.tree", "data.items". Returns a
// shape error (KindShape) when none of the probes match.
func parseTreeResponse(raw []byte) ([]treeEntryWire, error) {
	var asArray []treeEntryWire
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return asArray, nil
	}

	var env rawTreeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, core.Shape("tree response matched no known shape: %v", err)
	}
	switch {
	case len(env.Tree) > 0:
		return env.Tree, nil
	case len(env.Items) > 0:
		return env.Items, nil
	case env.Data != nil && len(env.Data.Tree) > 0:
		return env.Data.Tree, nil
	case env.Data != nil && len(env.Data.Items) > 0:
		return env.Data.Items, nil
	}
	// All keys legitimately empty (empty repo) is valid, not a shape error.
	if env.Tree != nil || env.Items != nil || (env.Data != nil && (env.Data.Tree != nil || env.Data.Items != nil)) {
		return nil, nil
	}
	return nil, core.Shape("tree response object carried none of the tree, items, data.tree or data.items keys")
}
