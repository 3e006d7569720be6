package urlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repodigest/internal/core"
)

func TestParse_Valid(t *testing.T) {
	ref, err := Parse("https://github.com/acme/widget", "github.com")
	require.NoError(t, err)
	assert.Equal(t, core.RepoRef{Owner: "acme", Repo: "widget"}, ref)
}

func TestParse_StripsDotGitSuffix(t *testing.T) {
	ref, err := Parse("https://github.com/acme/widget.git", "github.com")
	require.NoError(t, err)
	assert.Equal(t, "widget", ref.Repo)
}

func TestParse_HostCaseInsensitive(t *testing.T) {
	_, err := Parse("https://GitHub.com/acme/widget", "github.com")
	require.NoError(t, err)
}

func TestParse_RejectsWrongScheme(t *testing.T) {
	_, err := Parse("http://github.com/acme/widget", "github.com")
	require.Error(t, err)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, core.KindInvalidURL, kind)
}

func TestParse_RejectsWrongHost(t *testing.T) {
	_, err := Parse("https://gitlab.com/acme/widget", "github.com")
	require.Error(t, err)
}

func TestParse_RejectsExtraSegments(t *testing.T) {
	_, err := Parse("https://github.com/acme/widget/tree/main", "github.com")
	require.Error(t, err)
}

func TestParse_RejectsMissingSegments(t *testing.T) {
	_, err := Parse("https://github.com/acme", "github.com")
	require.Error(t, err)
}

func TestParse_RejectsEmptyPath(t *testing.T) {
	_, err := Parse("https://github.com/", "github.com")
	require.Error(t, err)
}

func TestParse_RejectsMalformedURL(t *testing.T) {
	_, err := Parse("https://gi thub.com/a/b", "github.com")
	require.Error(t, err)
}

func TestParse_RejectsEmptyOwnerOrRepo(t *testing.T) {
	_, err := Parse("https://github.com//widget", "github.com")
	require.Error(t, err)
}
