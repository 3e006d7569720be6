// Package githost implements the Remote Adapter: authenticated-or-anonymous HTTP calls to
// a code host's REST API (repo info, language stats, recursive tree, README, raw file
// fetch), with a deterministic retry/backoff/timeout policy and tolerant response-shape
// handling for the recursive tree call. Grounded on kraklabs-cie/pkg/llm/provider.go's
// hand-rolled http.Client pattern rather than a typed SDK, because the tree endpoint must
// tolerate several different response shapes (§4.3) that a typed client forecloses.
package githost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
)

//go:generate mockgen -destination=../../mocks/mock_githost_client.go -package=mocks . Client

// Client is the Remote Adapter's contract, consumed by the Repository Extractor.
type Client interface {
	VerifyRepoAccess(ctx context.Context, ref core.RepoRef) error
	GetRepoMetadata(ctx context.Context, ref core.RepoRef) (core.RepoMetadata, error)
	GetLanguages(ctx context.Context, ref core.RepoRef) (map[string]int64, error)
	GetTree(ctx context.Context, ref core.RepoRef, branch string) ([]core.TreeEntry, error)
	GetReadme(ctx context.Context, ref core.RepoRef, branch string) (*core.FileContent, error)
	GetFileContent(ctx context.Context, ref core.RepoRef, branch, path string) (*core.FileContent, error)
	HTTPGetBytes(ctx context.Context, url string, maxBytes int64) ([]byte, error)
}

type client struct {
	cfg        config.CodeHostConfig
	gate       config.GithubGateLimits
	httpClient *http.Client

	mu           sync.Mutex
	metadataOnce map[core.RepoRef]metadataCacheEntry
}

type metadataCacheEntry struct {
	metadata core.RepoMetadata
	err      error
}

// New builds a Remote Adapter. When cfg.Token is non-empty, the underlying *http.Client is
// wrapped with an oauth2 bearer token source the same way internal/github/client.go's
// NewPATClient does for the teacher's GitHub App flow; otherwise requests go out
// unauthenticated ("authenticated-or-anonymous" per §2).
func New(cfg config.CodeHostConfig, gate config.GithubGateLimits) Client {
	var hc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(context.Background(), ts)
	} else {
		hc = &http.Client{}
	}
	return &client{
		cfg:          cfg,
		gate:         gate,
		httpClient:   hc,
		metadataOnce: make(map[core.RepoRef]metadataCacheEntry),
	}
}

func (c *client) apiURL(format string, args ...any) string {
	return c.cfg.APIBaseURL + fmt.Sprintf(format, args...)
}

// doJSON performs one retried HTTP GET via doRaw and decodes the body as JSON into out.
// Every adapter call runs through withRetry and classifyStatus, so the retry/backoff/status
// mapping policy in §4.3 lives in exactly one place.
func (c *client) doJSON(ctx context.Context, url string, out any) error {
	body, err := c.doRaw(ctx, url)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return core.Shape("failed to decode JSON response from %s: %v", url, err)
	}
	return nil
}

// doRaw performs one retried HTTP GET and returns the raw body bytes.
func (c *client) doRaw(ctx context.Context, url string) ([]byte, error) {
	return withRetry(ctx, c.gate, func(attemptCtx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
		if err != nil {
			return nil, core.Upstream(0, err, "failed to build request for %s", url)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, classifyNetworkError(attemptCtx, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, core.Upstream(resp.StatusCode, err, "failed reading response body from %s", url)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}
		return nil, classifyStatus(resp.StatusCode, string(data))
	})
}

// VerifyRepoAccess issues a lightweight metadata fetch purely to surface an access error
// early, per the orchestrator's "URL parse -> access verify -> extract" sequence (§4.8).
func (c *client) VerifyRepoAccess(ctx context.Context, ref core.RepoRef) error {
	_, err := c.GetRepoMetadata(ctx, ref)
	return err
}

// GetRepoMetadata fetches and caches repo metadata once per RepoRef within a request,
// per §4.3 "cached per RepoRef within a request".
func (c *client) GetRepoMetadata(ctx context.Context, ref core.RepoRef) (core.RepoMetadata, error) {
	c.mu.Lock()
	if cached, ok := c.metadataOnce[ref]; ok {
		c.mu.Unlock()
		return cached.metadata, cached.err
	}
	c.mu.Unlock()

	var wire repoMetadataWire
	url := c.apiURL("/repos/%s/%s", ref.Owner, ref.Repo)
	err := c.doJSON(ctx, url, &wire)

	var meta core.RepoMetadata
	if err == nil {
		meta = wire.toCore(ref)
	}

	c.mu.Lock()
	c.metadataOnce[ref] = metadataCacheEntry{metadata: meta, err: err}
	c.mu.Unlock()

	return meta, err
}

func (c *client) GetLanguages(ctx context.Context, ref core.RepoRef) (map[string]int64, error) {
	var wire map[string]int64
	url := c.apiURL("/repos/%s/%s/languages", ref.Owner, ref.Repo)
	if err := c.doJSON(ctx, url, &wire); err != nil {
		return nil, err
	}
	return wire, nil
}

func (c *client) GetTree(ctx context.Context, ref core.RepoRef, branch string) ([]core.TreeEntry, error) {
	url := c.apiURL("/repos/%s/%s/git/trees/%s?recursive=1", ref.Owner, ref.Repo, branch)
	raw, err := c.doRaw(ctx, url)
	if err != nil {
		return nil, err
	}
	entries, err := parseTreeResponse(raw)
	if err != nil {
		return nil, err
	}
	out := make([]core.TreeEntry, 0, len(entries))
	for _, e := range entries {
		te := e.toCore()
		if te.Type == core.EntryBlob {
			te.DownloadURL = c.downloadURL(ref, branch, te.Path)
		}
		te.APIURL = c.apiURL("/repos/%s/%s/contents/%s?ref=%s", ref.Owner, ref.Repo, te.Path, branch)
		out = append(out, te)
	}
	return out, nil
}

func (c *client) downloadURL(ref core.RepoRef, branch, path string) string {
	return c.cfg.RawBaseURL + "/" + ref.Owner + "/" + ref.Repo + "/" + branch + "/" + path
}

func (c *client) GetReadme(ctx context.Context, ref core.RepoRef, branch string) (*core.FileContent, error) {
	var wire contentWire
	url := c.apiURL("/repos/%s/%s/readme?ref=%s", ref.Owner, ref.Repo, branch)
	if err := c.doJSON(ctx, url, &wire); err != nil {
		var e *core.Error
		if ok := asCoreError(err, &e); ok && e.Kind == core.KindInaccessible {
			return nil, nil // a missing README is a normal, absent section, not an error
		}
		return nil, err
	}
	fc, err := wire.toFileContent()
	if err != nil {
		return nil, err
	}
	return fc, nil
}

func (c *client) GetFileContent(ctx context.Context, ref core.RepoRef, branch, path string) (*core.FileContent, error) {
	var wire contentWire
	url := c.apiURL("/repos/%s/%s/contents/%s?ref=%s", ref.Owner, ref.Repo, path, branch)
	if err := c.doJSON(ctx, url, &wire); err != nil {
		return nil, err
	}
	return wire.toFileContent()
}

// HTTPGetBytes performs a raw, retried GET against an arbitrary URL (used for the
// optional homepage fetch and raw-content downloads), capping the read at maxBytes.
func (c *client) HTTPGetBytes(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	return withRetry(ctx, c.gate, func(attemptCtx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
		if err != nil {
			return nil, core.Upstream(0, err, "failed to build request for %s", url)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, classifyNetworkError(attemptCtx, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, classifyStatus(resp.StatusCode, string(data))
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
		if err != nil {
			return nil, core.Upstream(resp.StatusCode, err, "failed reading body from %s", url)
		}
		if int64(len(data)) > maxBytes {
			data = data[:maxBytes]
		}
		return data, nil
	})
}

func asCoreError(err error, target **core.Error) bool {
	if e, ok := err.(*core.Error); ok {
		*target = e
		return true
	}
	return false
}

// classifyStatus implements the status-code mapping table from §4.3.
func classifyStatus(status int, body string) error {
	switch status {
	case http.StatusNotFound:
		return core.Inaccessible(status, "repository or resource not found")
	case http.StatusForbidden:
		if looksRateLimited(body) {
			return core.RateLimited(status, "rate limited: %s", truncate(body, 200))
		}
		return core.Inaccessible(status, "access forbidden: %s", truncate(body, 200))
	case http.StatusBadRequest, http.StatusUnauthorized:
		return core.Upstream(status, nil, "non-retryable upstream error: %s", truncate(body, 200))
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return core.Upstream(status, nil, "retryable upstream error: %s", truncate(body, 200))
	default:
		if status >= 500 {
			return core.Upstream(status, nil, "upstream server error: %s", truncate(body, 200))
		}
		return core.Upstream(status, nil, "unexpected upstream status: %s", truncate(body, 200))
	}
}

func looksRateLimited(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "api rate")
}

func classifyNetworkError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return core.Timeout(err, "request deadline exceeded")
	}
	return core.Upstream(0, err, "network error: %v", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// wire types ----------------------------------------------------------------

type repoMetadataWire struct {
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	Name          string   `json:"name"`
	DefaultBranch string   `json:"default_branch"`
	Description   string   `json:"description"`
	Topics        []string `json:"topics"`
	Homepage      string   `json:"homepage"`
}

func (w repoMetadataWire) toCore(ref core.RepoRef) core.RepoMetadata {
	owner := w.Owner.Login
	if owner == "" {
		owner = ref.Owner
	}
	name := w.Name
	if name == "" {
		name = ref.Repo
	}
	branch := w.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	return core.RepoMetadata{
		Owner:         owner,
		Repo:          name,
		DefaultBranch: branch,
		Description:   w.Description,
		Topics:        append([]string(nil), w.Topics...),
		Homepage:      w.Homepage,
	}
}

type contentWire struct {
	Path        string `json:"path"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	Size        int64  `json:"size"`
	HTMLURL     string `json:"html_url"`
	URL         string `json:"url"`
	DownloadURL string `json:"download_url"`
}

func (w contentWire) toFileContent() (*core.FileContent, error) {
	decoded, err := decodeContent(w.Content, w.Encoding)
	if err != nil {
		return nil, core.Shape("failed to decode file content for %s: %v", w.Path, err)
	}
	src := w.DownloadURL
	if src == "" {
		src = w.HTMLURL
	}
	return &core.FileContent{
		Path:        w.Path,
		SourceURL:   src,
		ContentText: decoded,
		ByteSize:    int64(len(decoded)),
	}, nil
}

func decodeContent(content, encoding string) (string, error) {
	switch encoding {
	case "base64", "":
		return decodeBase64Maybe(content, encoding)
	default:
		return content, nil
	}
}

func decodeBase64Maybe(content, encoding string) (string, error) {
	if encoding != "base64" {
		return content, nil
	}
	clean := strings.ReplaceAll(content, "\n", "")
	if b, err := base64.StdEncoding.DecodeString(clean); err == nil {
		return string(b), nil
	}
	b, err := base64.RawStdEncoding.DecodeString(clean)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
