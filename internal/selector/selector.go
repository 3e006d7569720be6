// Package selector implements pure path-classification functions used by the Repository
// Extractor to bucket tree entries into documentation/test/build-package/code candidates,
// plus the BFS ordering the extractor walks them in. Nothing here performs I/O.
package selector

import (
	"path"
	"sort"
	"strings"
)

// textExtensions is the fixed allow-list of extensions considered "likely text". Mirrors
// the extension-switch idiom of the teacher's internal/llm/constants.go isCodeExtension,
// generalized from "is code" to "is text-like" since the selector also has to pass
// documentation and config files.
var textExtensions = map[string]bool{
	".go": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".py": true, ".java": true, ".c": true, ".cpp": true, ".cc": true, ".h": true, ".hpp": true,
	".rs": true, ".rb": true, ".php": true, ".cs": true, ".swift": true, ".kt": true, ".scala": true,
	".md": true, ".mdx": true, ".rst": true, ".txt": true,
	".yml": true, ".yaml": true, ".json": true, ".toml": true, ".ini": true, ".cfg": true,
	".mod": true, ".gradle": true,
	".sh": true, ".bash": true, ".zsh": true, ".ps1": true,
	".html": true, ".css": true, ".scss": true, ".sql": true,
	".proto": true, ".graphql": true, ".xml": true,
}

// knownScriptsWithoutExtension are filenames that are text even though they carry no
// extension at all (shell scripts invoked by name, not by suffix).
var knownScriptsWithoutExtension = map[string]bool{
	"makefile": true, "dockerfile": true, "rakefile": true, "gemfile": true,
	"procfile": true, "vagrantfile": true, "jenkinsfile": true,
}

// IsLikelyTextPath reports whether path is plausibly a text file worth fetching.
func IsLikelyTextPath(p string) bool {
	base := strings.ToLower(path.Base(p))
	if base == "dockerfile" {
		return true
	}
	if knownScriptsWithoutExtension[base] {
		return true
	}
	ext := strings.ToLower(path.Ext(base))
	return textExtensions[ext]
}

var docExtensions = map[string]bool{".md": true, ".mdx": true, ".rst": true, ".txt": true}

// LooksLikeDocPath reports whether path is documentation per §4.2.
func LooksLikeDocPath(p string) bool {
	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, "docs/") || strings.HasPrefix(lower, "documentation/") {
		return true
	}
	base := strings.ToLower(path.Base(p))
	if strings.HasPrefix(base, "readme") {
		return true
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	switch stem {
	case "contributing", "setup", "installation", "install":
		return docExtensions[strings.ToLower(path.Ext(base))]
	}
	return false
}

// LooksLikeTestPath reports whether path is a test file per §4.2.
func LooksLikeTestPath(p string) bool {
	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, "tests/") || strings.HasPrefix(lower, "test/") {
		return true
	}
	base := strings.ToLower(path.Base(p))
	ext := strings.ToLower(path.Ext(base))
	stem := strings.TrimSuffix(base, ext)
	return strings.HasSuffix(stem, "_test") || strings.HasPrefix(stem, "test_")
}

var buildPackageExactNames = map[string]bool{
	"package.json": true, "go.mod": true, "cargo.toml": true, "pom.xml": true,
	"build.gradle": true, "build.gradle.kts": true, "setup.py": true, "pyproject.toml": true,
	"gemfile": true, "composer.json": true, "requirements.txt": true, "pipfile": true,
	"dockerfile": true, "docker-compose.yml": true, "docker-compose.yaml": true,
	"makefile": true, "cmakelists.txt": true,
	".gitlab-ci.yml": true, ".travis.yml": true, "jenkinsfile": true,
}

// LooksLikeBuildPackagePath reports whether path is a build/package manifest per §4.2.
func LooksLikeBuildPackagePath(p string) bool {
	base := strings.ToLower(path.Base(p))
	if buildPackageExactNames[base] {
		return true
	}
	if ok, _ := path.Match("requirements-*.txt", base); ok {
		return true
	}
	// GitHub Actions workflow files live under .github/workflows/*.yml
	return strings.Contains(strings.ToLower(p), ".github/workflows/") && (strings.HasSuffix(base, ".yml") || strings.HasSuffix(base, ".yaml"))
}

var entrypointStems = map[string]bool{
	"main": true, "app": true, "server": true, "cli": true,
	"__main__": true, "manage": true, "run": true,
}

// LooksLikeEntrypoint reports whether path's filename stem names a conventional
// program entrypoint.
func LooksLikeEntrypoint(p string) bool {
	base := strings.ToLower(path.Base(p))
	stem := strings.TrimSuffix(base, path.Ext(base))
	return entrypointStems[stem]
}

// PathDepth counts the '/' separators in path.
func PathDepth(p string) int {
	return strings.Count(p, "/")
}

// SortedBFS stably sorts paths by (depth, lowercased path) ascending, the breadth-first
// ordering every category walk uses before applying its budgets.
func SortedBFS(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := PathDepth(out[i]), PathDepth(out[j])
		if di != dj {
			return di < dj
		}
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
