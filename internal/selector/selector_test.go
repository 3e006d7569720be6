package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLikelyTextPath(t *testing.T) {
	cases := map[string]bool{
		"main.go":        true,
		"Dockerfile":     true,
		"dockerfile":     true,
		"Makefile":       true,
		"image.png":      false,
		"docs/guide.md":  true,
		"archive.tar.gz": false,
		"go.mod":         true,
		"build.gradle":   true,
	}
	for p, want := range cases {
		assert.Equalf(t, want, IsLikelyTextPath(p), "path %q", p)
	}
}

func TestLooksLikeDocPath(t *testing.T) {
	assert.True(t, LooksLikeDocPath("docs/guide.md"))
	assert.True(t, LooksLikeDocPath("README.md"))
	assert.True(t, LooksLikeDocPath("readme.rst"))
	assert.True(t, LooksLikeDocPath("INSTALL.md"))
	assert.False(t, LooksLikeDocPath("install.py"))
	assert.False(t, LooksLikeDocPath("src/main.go"))
}

func TestLooksLikeTestPath(t *testing.T) {
	assert.True(t, LooksLikeTestPath("tests/foo.py"))
	assert.True(t, LooksLikeTestPath("internal/selector/selector_test.go"))
	assert.True(t, LooksLikeTestPath("test_utils.py"))
	assert.False(t, LooksLikeTestPath("internal/selector/selector.go"))
}

func TestLooksLikeBuildPackagePath(t *testing.T) {
	assert.True(t, LooksLikeBuildPackagePath("go.mod"))
	assert.True(t, LooksLikeBuildPackagePath("requirements-dev.txt"))
	assert.True(t, LooksLikeBuildPackagePath(".github/workflows/ci.yml"))
	assert.False(t, LooksLikeBuildPackagePath("docs/go.mod.md"))
}

func TestLooksLikeEntrypoint(t *testing.T) {
	assert.True(t, LooksLikeEntrypoint("cmd/server/main.go"))
	assert.True(t, LooksLikeEntrypoint("manage.py"))
	assert.False(t, LooksLikeEntrypoint("utils.go"))
}

func TestSortedBFS(t *testing.T) {
	in := []string{"b/deep/file.go", "a.go", "B.go", "a/file.go"}
	got := SortedBFS(in)
	assert.Equal(t, []string{"a.go", "B.go", "a/file.go", "b/deep/file.go"}, got)
}

func TestPathDepth(t *testing.T) {
	assert.Equal(t, 0, PathDepth("a.go"))
	assert.Equal(t, 2, PathDepth("a/b/c.go"))
}
