package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
	"github.com/fyrsmithlabs/taskpulse/internal/secrets"
)

// Sentinel texts placed in the combined summary.
const (
	EmptyDiff   = "empty diff"
	NoCommits   = "No relevant commits found."
	truncMarker = "... [diff truncated]"
	entrySep    = "\n\n"
	errorPrefix = "Error summarizing commit: "
)

// ErrEmptyDiff is returned by Summarize when the diff has no content.
var ErrEmptyDiff = errors.New("empty diff")

// Scrubber removes secrets from a diff. *secrets.Scrubber satisfies it.
type Scrubber interface {
	Scrub(diff string) (secrets.Result, error)
}

// Entry is the outcome for one commit. Err is set when Text is an inline
// error rather than a real summary.
type Entry struct {
	SHA  string
	Text string
	Err  error
}

// Summarizer produces per-commit summaries.
type Summarizer struct {
	completion   progress.CompletionService
	scrubber     Scrubber
	temperature  float64
	maxTokens    int
	maxDiffBytes int
	logger       *logging.Logger
}

// New creates a Summarizer. scrubber may be nil to send diffs unmodified.
func New(completion progress.CompletionService, scrubber Scrubber, cfg config.SummarizerConfig, logger *logging.Logger) *Summarizer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Summarizer{
		completion:   completion,
		scrubber:     scrubber,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		maxDiffBytes: cfg.MaxDiffBytes,
		logger:       logger,
	}
}

// Summarize describes one diff in 1-3 sentences. ErrEmptyDiff is returned
// without calling the completion service when diff is blank.
func (s *Summarizer) Summarize(ctx context.Context, taskName, diff string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", ErrEmptyDiff
	}

	if s.scrubber != nil {
		res, err := s.scrubber.Scrub(diff)
		if err != nil {
			return "", fmt.Errorf("failed to scrub diff: %w", err)
		}
		if res.Redactions > 0 {
			s.logger.Info(ctx, "redacted secrets from diff",
				zap.Int("redactions", res.Redactions),
				zap.Any("rules", res.RuleCounts))
		}
		diff = res.Content
	}

	diff = Truncate(diff, s.maxDiffBytes)

	summary, err := s.completion.Complete(ctx, progress.CompletionRequest{
		System:      systemPrompt,
		Prompt:      buildPrompt(taskName, diff),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// Entry summarizes a commit whose diff was fetched with diffErr, mapping
// every failure to its inline text.
func (s *Summarizer) Entry(ctx context.Context, taskName string, c progress.MatchedCommit, diff string, diffErr error) Entry {
	e := Entry{SHA: c.ShortSHA()}
	if diffErr != nil {
		e.Err = diffErr
		e.Text = errorPrefix + "failed to fetch diff: " + diffErr.Error()
		s.logger.Warn(ctx, "failed to fetch commit diff",
			zap.String("sha", c.SHA), zap.Error(diffErr))
		return e
	}

	summary, err := s.Summarize(ctx, taskName, diff)
	switch {
	case errors.Is(err, ErrEmptyDiff):
		e.Text = EmptyDiff
	case err != nil:
		e.Err = err
		e.Text = errorPrefix + err.Error()
		s.logger.Warn(ctx, "failed to summarize commit",
			zap.String("sha", c.SHA), zap.Error(err))
	default:
		e.Text = summary
		s.logger.Debug(ctx, "summarized commit",
			zap.String("sha", c.SHA), zap.Int("summary_len", len(summary)))
	}
	return e
}

// Fold joins entries as "Commit <sha7>:\n<text>" separated by blank lines.
// No entries yields NoCommits.
func Fold(entries []Entry) string {
	if len(entries) == 0 {
		return NoCommits
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, "Commit "+e.SHA+":\n"+e.Text)
	}
	return strings.Join(parts, entrySep)
}

// Truncate caps diff at max bytes, cutting at the last line boundary that
// fits and appending a marker. Without a line boundary the cut falls on a
// rune boundary. max <= 0 disables the cap.
func Truncate(diff string, max int) string {
	if max <= 0 || len(diff) <= max {
		return diff
	}
	cut := diff[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i+1] + truncMarker
	}
	for n := max; n > 0; n-- {
		if utf8.RuneStart(diff[n]) {
			cut = diff[:n]
			break
		}
	}
	return cut + "\n" + truncMarker
}
