package progress

import "context"

// CommitSource is the source-control capability.
type CommitSource interface {
	// UniqueCommits returns the commits reachable from repo.Branch but not
	// from base, oldest first.
	UniqueCommits(ctx context.Context, repo Repository, base string) ([]Commit, error)

	// CommitDiff returns the commit's per-file patches concatenated, each
	// prefixed with "+++ <filename>". A commit without patches yields "".
	CommitDiff(ctx context.Context, repo Repository, sha string) (string, error)
}

// CompletionRequest is a single system+user prompt exchange.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// CompletionService is the judgment capability used for summaries and
// predictions.
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// TabularStore reads and writes A1-addressed ranges of a worksheet.
//
// ReadRange returns rows with trailing empty cells and trailing empty rows
// omitted. WriteRange writes values starting at the top-left of rng.
type TabularStore interface {
	ReadRange(ctx context.Context, rng string) ([][]string, error)
	WriteRange(ctx context.Context, rng string, values [][]string) error
}
