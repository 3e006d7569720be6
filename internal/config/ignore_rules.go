package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreRules is loaded from config/non-informative-files.json and applied by the
// Selector Library before any classification runs, case-insensitively, the same shape
// as the teacher's .code-warden.yml repo-level ignore config but JSON and global.
type IgnoreRules struct {
	Dirs         []string `json:"dirs"`
	Extensions   []string `json:"extensions"`
	Filenames    []string `json:"filenames"`
	Globs        []string `json:"globs"`
	PathContains []string `json:"path_contains"`
}

// ErrIgnoreRulesNotFound mirrors config.ErrConfigNotFound from the teacher repo: the
// caller falls back to the default rule set returned alongside it rather than failing.
var ErrIgnoreRulesNotFound = errors.New("non-informative-files.json not found")

func DefaultIgnoreRules() *IgnoreRules {
	return &IgnoreRules{
		Dirs: []string{
			".git", ".github", "node_modules", "vendor", "dist", "build",
			".venv", "venv", "__pycache__", ".idea", ".vscode", "target",
		},
		Extensions: []string{
			".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg", ".woff", ".woff2",
			".ttf", ".eot", ".pdf", ".zip", ".tar", ".gz", ".lock",
		},
		Filenames:    []string{"package-lock.json", "yarn.lock", "go.sum"},
		Globs:        []string{"*.min.js", "*.min.css"},
		PathContains: []string{"/testdata/", "/fixtures/"},
	}
}

// LoadIgnoreRules loads config/non-informative-files.json from configDir, falling back
// to DefaultIgnoreRules when the file is absent.
func LoadIgnoreRules(configDir string) (*IgnoreRules, error) {
	path := filepath.Join(configDir, "non-informative-files.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultIgnoreRules(), ErrIgnoreRulesNotFound
		}
		return nil, fmt.Errorf("failed to read non-informative-files.json: %w", err)
	}

	rules := DefaultIgnoreRules()
	if err := json.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse non-informative-files.json: %w", err)
	}
	return rules, nil
}

// IsIgnored reports whether path should be dropped before any category classification.
func (r *IgnoreRules) IsIgnored(path string) bool {
	lower := strings.ToLower(path)
	segments := strings.Split(lower, "/")
	base := segments[len(segments)-1]

	for _, d := range r.Dirs {
		d = strings.ToLower(d)
		for _, seg := range segments[:len(segments)-1] {
			if seg == d {
				return true
			}
		}
	}
	for _, ext := range r.Extensions {
		if strings.HasSuffix(base, strings.ToLower(ext)) {
			return true
		}
	}
	for _, name := range r.Filenames {
		if base == strings.ToLower(name) {
			return true
		}
	}
	for _, g := range r.Globs {
		if ok, _ := filepath.Match(strings.ToLower(g), base); ok {
			return true
		}
	}
	for _, sub := range r.PathContains {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
