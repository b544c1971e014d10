package github

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
	gh "github.com/google/go-github/v57/github"
	"go.uber.org/zap"
)

const perPage = 100

// Source lists and diffs commits through the GitHub REST API.
type Source struct {
	client *gh.Client
	logger *logging.Logger
}

// NewSource wraps an authenticated client.
func NewSource(client *gh.Client, logger *logging.Logger) *Source {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Source{client: client, logger: logger.Named("github")}
}

// UniqueCommits implements progress.CommitSource using the compare endpoint
// (base...branch). Commits are returned oldest first.
func (s *Source) UniqueCommits(ctx context.Context, repo progress.Repository, base string) ([]progress.Commit, error) {
	var out []progress.Commit
	opts := &gh.ListOptions{PerPage: perPage}

	for {
		cmp, resp, err := s.client.Repositories.CompareCommits(ctx, repo.Owner, repo.Name, base, repo.Branch, opts)
		if err != nil {
			return nil, newAPIError("compare", repo.String(), resp, err)
		}

		for _, rc := range cmp.Commits {
			c, ok := toCommit(rc, repo)
			if !ok {
				s.logger.Warn(ctx, "skipping commit with missing fields",
					zap.String("sha", rc.GetSHA()))
				continue
			}
			out = append(out, c)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	s.logger.Debug(ctx, "compared branches",
		zap.String("base", base),
		zap.String("head", repo.Branch),
		zap.Int("commits", len(out)))
	return out, nil
}

// CommitDiff implements progress.CommitSource. Files without a patch
// (binary or too large) are skipped.
func (s *Source) CommitDiff(ctx context.Context, repo progress.Repository, sha string) (string, error) {
	var b strings.Builder
	files := 0
	opts := &gh.ListOptions{PerPage: perPage}

	for {
		rc, resp, err := s.client.Repositories.GetCommit(ctx, repo.Owner, repo.Name, sha, opts)
		if err != nil {
			return "", newAPIError("commit", repo.String(), resp, err)
		}

		for _, f := range rc.Files {
			files++
			patch := f.GetPatch()
			if patch == "" {
				continue
			}
			b.WriteString("+++ ")
			b.WriteString(f.GetFilename())
			b.WriteByte('\n')
			b.WriteString(patch)
			b.WriteByte('\n')
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if files == 0 {
		s.logger.Warn(ctx, "no files found for commit", zap.String("sha", sha))
	}
	return b.String(), nil
}

// toCommit converts an API commit. It reports false when the payload lacks
// the fields matching depends on.
func toCommit(rc *gh.RepositoryCommit, repo progress.Repository) (progress.Commit, bool) {
	if rc == nil || rc.GetSHA() == "" || rc.Commit == nil || rc.Commit.Author == nil || rc.Commit.Author.Date == nil {
		return progress.Commit{}, false
	}
	c := progress.Commit{
		SHA:     rc.GetSHA(),
		Date:    rc.Commit.Author.GetDate().Time,
		Author:  rc.Commit.Author.GetName(),
		Message: rc.Commit.GetMessage(),
		Repo:    repo,
	}
	if committer := rc.Commit.GetCommitter(); committer != nil {
		c.CommitterDate = committer.GetDate().Time
	}
	return c, true
}
