// Package gitlocal implements progress.CommitSource over local clones.
//
// It follows the compare semantics of the hosted API: the commits reachable
// from the branch but not from the base, oldest first, with diffs rendered
// per file as "+++ <path>" followed by +/-/space prefixed lines.
package gitlocal

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// contextLines is the unchanged context kept around each change.
const contextLines = 3

// Source reads commits from repositories on disk.
type Source struct {
	logger *logging.Logger
}

// NewSource creates a local commit source.
func NewSource(logger *logging.Logger) *Source {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Source{logger: logger.Named("gitlocal")}
}

func (s *Source) open(path string) (*git.Repository, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", path, err)
	}
	return r, nil
}

// UniqueCommits implements progress.CommitSource.
func (s *Source) UniqueCommits(ctx context.Context, repo progress.Repository, base string) ([]progress.Commit, error) {
	r, err := s.open(repo.Path)
	if err != nil {
		return nil, err
	}

	head, err := r.ResolveRevision(plumbing.Revision(repo.Branch))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve branch %q: %w", repo.Branch, err)
	}
	baseHash, err := r.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base %q: %w", base, err)
	}

	excluded := make(map[plumbing.Hash]bool)
	baseIter, err := r.Log(&git.LogOptions{From: *baseHash})
	if err != nil {
		return nil, fmt.Errorf("failed to walk base %q: %w", base, err)
	}
	err = baseIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		excluded[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk base %q: %w", base, err)
	}

	headIter, err := r.Log(&git.LogOptions{From: *head, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to walk branch %q: %w", repo.Branch, err)
	}
	var newestFirst []progress.Commit
	err = headIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if excluded[c.Hash] {
			return nil
		}
		newestFirst = append(newestFirst, progress.Commit{
			SHA:           c.Hash.String(),
			Date:          c.Author.When,
			CommitterDate: c.Committer.When,
			Author:        c.Author.Name,
			Message:       c.Message,
			Repo:          repo,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk branch %q: %w", repo.Branch, err)
	}

	out := make([]progress.Commit, len(newestFirst))
	for i, c := range newestFirst {
		out[len(newestFirst)-1-i] = c
	}

	s.logger.Debug(ctx, "compared branches",
		zap.String("base", base),
		zap.String("head", repo.Branch),
		zap.Int("commits", len(out)))
	return out, nil
}

// CommitDiff implements progress.CommitSource. Binary files are skipped.
func (s *Source) CommitDiff(ctx context.Context, repo progress.Repository, sha string) (string, error) {
	r, err := s.open(repo.Path)
	if err != nil {
		return "", err
	}

	hash, err := r.ResolveRevision(plumbing.Revision(sha))
	if err != nil {
		return "", fmt.Errorf("failed to resolve commit %s: %w", sha, err)
	}
	c, err := r.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("failed to load commit %s: %w", sha, err)
	}

	tree, err := c.Tree()
	if err != nil {
		return "", fmt.Errorf("failed to load tree of %s: %w", sha, err)
	}
	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return "", fmt.Errorf("failed to load parent of %s: %w", sha, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return "", fmt.Errorf("failed to load parent tree of %s: %w", sha, err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, nil)
	if err != nil {
		return "", fmt.Errorf("failed to diff %s: %w", sha, err)
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to build patch for %s: %w", sha, err)
	}

	var b strings.Builder
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			continue
		}
		writeFilePatch(&b, fp)
	}
	if b.Len() == 0 {
		s.logger.Warn(ctx, "no textual changes in commit", zap.String("sha", sha))
	}
	return b.String(), nil
}

func writeFilePatch(b *strings.Builder, fp diff.FilePatch) {
	from, to := fp.Files()
	name := ""
	switch {
	case to != nil:
		name = to.Path()
	case from != nil:
		name = from.Path()
	}

	b.WriteString("+++ ")
	b.WriteString(name)
	b.WriteByte('\n')

	chunks := fp.Chunks()
	for i, ch := range chunks {
		lines := splitLines(ch.Content())
		switch ch.Type() {
		case diff.Add:
			writeLines(b, "+", lines)
		case diff.Delete:
			writeLines(b, "-", lines)
		default:
			writeLines(b, " ", trimContext(lines, i > 0, i < len(chunks)-1))
		}
	}
}

// trimContext keeps contextLines after a preceding change and before a
// following one.
func trimContext(lines []string, afterChange, beforeChange bool) []string {
	switch {
	case afterChange && beforeChange:
		if len(lines) <= 2*contextLines {
			return lines
		}
		out := append([]string{}, lines[:contextLines]...)
		out = append(out, "...")
		return append(out, lines[len(lines)-contextLines:]...)
	case afterChange:
		if len(lines) > contextLines {
			return lines[:contextLines]
		}
	case beforeChange:
		if len(lines) > contextLines {
			return lines[len(lines)-contextLines:]
		}
	default:
		return nil
	}
	return lines
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func writeLines(b *strings.Builder, prefix string, lines []string) {
	for _, l := range lines {
		b.WriteString(prefix)
		b.WriteString(l)
		b.WriteByte('\n')
	}
}
