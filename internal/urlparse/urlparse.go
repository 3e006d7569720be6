// Package urlparse implements the URL Parser: turns a github_url into a core.RepoRef,
// rejecting anything that isn't exactly https://<configured-host>/<owner>/<repo>.
// Grounded on internal/gitutil/url.go's ParsePullRequestURL in the teacher repo, trimmed
// down to the repo-root shape this system accepts (no /pull/<n> suffix).
package urlparse

import (
	"net/url"
	"strings"

	"github.com/sevigo/repodigest/internal/core"
)

// Parse accepts exactly "https://<host>/<owner>/<repo>" where host matches
// expectedHost case-insensitively, and returns the extracted RepoRef. Any other shape —
// wrong scheme, wrong host, missing or extra path segments, empty owner/repo, trailing
// content — is rejected with a core.KindInvalidURL error.
func Parse(rawURL, expectedHost string) (core.RepoRef, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return core.RepoRef{}, core.InvalidURL("malformed github_url: %v", err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return core.RepoRef{}, core.InvalidURL("github_url must use https, got %q", u.Scheme)
	}
	if !strings.EqualFold(u.Hostname(), expectedHost) {
		return core.RepoRef{}, core.InvalidURL("github_url host %q does not match configured host %q", u.Hostname(), expectedHost)
	}

	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return core.RepoRef{}, core.InvalidURL("github_url is missing an owner/repo path")
	}
	segments := strings.Split(trimmed, "/")
	if len(segments) != 2 {
		return core.RepoRef{}, core.InvalidURL("github_url must be exactly https://%s/<owner>/<repo>, got %d path segments", expectedHost, len(segments))
	}

	owner, repo := segments[0], segments[1]
	if owner == "" || repo == "" {
		return core.RepoRef{}, core.InvalidURL("github_url owner and repo segments must be non-empty")
	}
	repo = strings.TrimSuffix(repo, ".git")
	if repo == "" {
		return core.RepoRef{}, core.InvalidURL("github_url repo segment must be non-empty")
	}

	return core.RepoRef{Owner: owner, Repo: repo}, nil
}
