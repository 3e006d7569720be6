package core

import "time"

// RepoRef identifies a single repository on a code host.
type RepoRef struct {
	Owner string
	Repo  string
}

func (r RepoRef) String() string { return r.Owner + "/" + r.Repo }

// RepoMetadata is the repository-level information the code host exposes about a repo.
type RepoMetadata struct {
	Owner         string
	Repo          string
	DefaultBranch string
	Description   string
	Topics        []string
	Homepage      string
}

// EntryType distinguishes a tree blob from a tree directory.
type EntryType string

const (
	EntryBlob EntryType = "blob"
	EntryTree EntryType = "tree"
)

// TreeEntry is one node of the repository's recursive file tree.
type TreeEntry struct {
	Path        string // POSIX separators
	Type        EntryType
	SizeBytes   int64
	APIURL      string
	DownloadURL string // populated only for blob entries
}

// FileContent is the textual body of one fetched file, plus enough bookkeeping to
// reproduce the invariant ByteSize == utf8 length of ContentText.
type FileContent struct {
	Path        string
	SourceURL   string
	ContentText string
	ByteSize    int64
}

// ReadmeData wraps the repository's root README, if one was found and fetched.
type ReadmeData struct {
	File FileContent
}

// DocumentationData owns an ordered set of documentation files plus a cached byte total.
type DocumentationData struct {
	Files      []FileContent
	TotalBytes int64
}

// RepoSnapshot is the complete, request-scoped, immutable-once-built view of a repository
// extraction. Every field is position-stable: each extraction stage writes to its own
// pre-assigned field rather than appending to a shared list.
type RepoSnapshot struct {
	Metadata      RepoMetadata
	Languages     map[string]int64 // language name -> byte count
	Tree          []TreeEntry
	Readme        *ReadmeData
	Documentation *DocumentationData
	BuildPackage  []FileContent
	Tests         []FileContent
	Code          []FileContent
	Warnings      []string
}

// SummaryResult is the final, validated output of the pipeline.
type SummaryResult struct {
	Summary      string   `json:"summary"`
	Technologies []string `json:"technologies"`
	Structure    string   `json:"structure"`
}

// TruncationNote documents one truncation decision made by the Context-Budget Processor.
type TruncationNote struct {
	Section       string
	OriginalBytes int64
	TargetBytes   int64
	FinalBytes    int64
	Strategy      string
}

// ExtractedRepoMarkdown holds the ten rendered sections, any of which may be absent.
type ExtractedRepoMarkdown struct {
	RepositoryMetadata *string
	LanguageStats      *string
	DirectoryTree      *string
	Readme             *string
	Documentation      *string
	BuildAndPackage    *string
	Tests              *string
	Code               *string
	ExtractionStats    *string
	Warnings           *string
}

// ProcessedRepoMarkdown is the budget-compressed digest ready to hand to the LLM gateway.
type ProcessedRepoMarkdown struct {
	RepositoryMetadata string
	LanguageStats      string
	DirectoryTree      string
	Readme             string
	Documentation      string
	BuildAndPackage    string
	Tests              string
	Code               string

	InputTotalUTF8Bytes           int64
	OutputTotalUTF8Bytes          int64
	MaxRepoDataSizeForPromptBytes int64
	EstimatedInputTokens          int64
	EstimatedOutputTokens         int64
	BytesPerTokenEstimate         float64
	PerCategoryBytes              map[string]int64
	TruncationNotes               []TruncationNote
}

// RequestContext threads request-scoped bookkeeping through the orchestrator for the
// per-request debug log.
type RequestContext struct {
	RequestID string
	StartedAt time.Time
	RatioUsed float64
	Warnings  []string
}
