package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/matcher"
	"github.com/fyrsmithlabs/taskpulse/internal/predictor"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
	"github.com/fyrsmithlabs/taskpulse/internal/summarizer"
)

// TaskReader loads the tasks to review.
type TaskReader interface {
	Read(ctx context.Context) ([]progress.Task, error)
}

// ResultWriter persists the collected results.
type ResultWriter interface {
	Write(ctx context.Context, results progress.Results) (int, error)
}

// Options holds run-level settings.
type Options struct {
	Repositories []progress.Repository
	BaseBranch   string
	DryRun       bool

	PushgatewayURL string
	MetricsJob     string
}

// Deps are the stage implementations. Remote and Local may be nil when no
// repository of that kind is configured.
type Deps struct {
	Tasks      TaskReader
	Remote     progress.CommitSource
	Local      progress.CommitSource
	Matcher    *matcher.Matcher
	Summarizer *summarizer.Summarizer
	Predictor  *predictor.Predictor
	Writer     ResultWriter
	Tracer     trace.Tracer
	Logger     *logging.Logger
	Now        func() time.Time
}

// Pipeline runs progress reviews.
type Pipeline struct {
	opts Options
	deps Deps
}

// New validates deps and creates a Pipeline.
func New(opts Options, deps Deps) (*Pipeline, error) {
	switch {
	case deps.Tasks == nil:
		return nil, errors.New("task reader is required")
	case deps.Matcher == nil:
		return nil, errors.New("matcher is required")
	}
	for _, repo := range opts.Repositories {
		if repo.IsLocal() && deps.Local == nil {
			return nil, fmt.Errorf("repository %s: no local commit source configured", repo)
		}
		if !repo.IsLocal() && deps.Remote == nil {
			return nil, fmt.Errorf("repository %s: no remote commit source configured", repo)
		}
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Pipeline{opts: opts, deps: deps}, nil
}

// Run executes a full review. The returned error is non-nil only when a
// required stage is missing; stage failures are recorded in the Report.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if p.deps.Summarizer == nil || p.deps.Predictor == nil {
		return nil, errors.New("summarizer and predictor are required to run")
	}
	if p.deps.Writer == nil && !p.opts.DryRun {
		return nil, errors.New("result writer is required unless dry-run")
	}

	start := p.deps.Now()
	report := newReport(uuid.NewString(), start, p.opts.DryRun)
	ctx = logging.WithRunID(ctx, report.RunID)

	ctx, span := p.deps.Tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", report.RunID),
			attribute.Int("repositories", len(p.opts.Repositories)),
			attribute.Bool("dry_run", p.opts.DryRun),
		))
	defer span.End()

	log := p.deps.Logger
	log.Info(ctx, "fetching tasks")

	tasks, err := p.deps.Tasks.Read(ctx)
	if err != nil {
		report.SourceErr = err
		report.Duration = p.deps.Now().Sub(start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "task source read failed")
		log.Warn(ctx, "failed to read tasks, nothing will be written", zap.Error(err))
		return report, nil
	}
	report.Tasks = len(tasks)
	if len(tasks) == 0 {
		report.Duration = p.deps.Now().Sub(start)
		log.Warn(ctx, "no tasks found in task source")
		return report, nil
	}
	log.Info(ctx, "fetched tasks", zap.Int("count", len(tasks)))

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			log.Warn(ctx, "run canceled", zap.Error(err))
			break
		}
		p.runTask(ctx, task, report)
	}

	if p.opts.DryRun {
		log.Info(ctx, "dry run, skipping write", zap.Int("results", len(report.Results)))
	} else {
		n, err := p.deps.Writer.Write(ctx, report.Results)
		report.RowsWritten = n
		report.WriteErr = err
		report.Written = err == nil
		if err != nil {
			span.RecordError(err)
		}
	}

	report.Duration = p.deps.Now().Sub(start)
	span.SetAttributes(
		attribute.Int("tasks", report.Tasks),
		attribute.Int("matched_commits", report.Matched),
		attribute.Bool("written", report.Written),
	)
	log.Info(ctx, "run complete",
		zap.Int("tasks", report.Tasks),
		zap.Int("skipped", report.Skipped),
		zap.Int("matched_commits", report.Matched),
		zap.Int("summary_failures", report.SummaryFailures),
		zap.Int("prediction_failures", report.PredictionFailures),
		zap.Int("repository_failures", report.RepoFailures),
		zap.Bool("written", report.Written),
		zap.Duration("duration", report.Duration))

	p.publishMetrics(ctx, report)
	return report, nil
}

func (p *Pipeline) runTask(ctx context.Context, task progress.Task, report *Report) {
	ctx = logging.WithTask(ctx, task.Name)
	ctx, span := p.deps.Tracer.Start(ctx, "pipeline.task",
		trace.WithAttributes(attribute.String("task.name", task.Name)))
	defer span.End()

	log := p.deps.Logger
	matched, err := p.MatchTask(ctx, task, report)
	if errors.Is(err, matcher.ErrNoPattern) {
		report.Skipped++
		span.SetAttributes(attribute.Bool("skipped", true))
		log.Debug(ctx, "skipping task without valid pattern", zap.String("keyword", task.Keyword))
		return
	}
	report.Matched += len(matched)
	span.SetAttributes(attribute.Int("matched_commits", len(matched)))

	if len(matched) == 0 {
		log.Info(ctx, "no matching commits for task")
	} else {
		log.Info(ctx, "matching commits found for task", zap.Int("count", len(matched)))
		for _, mc := range matched {
			log.Info(ctx, "matched commit",
				zap.String("commit", mc.String()),
				zap.String("repo", mc.Repo.String()),
				zap.String("sha", mc.ShortSHA()))
		}
	}

	entries := make([]summarizer.Entry, 0, len(matched))
	for _, mc := range matched {
		entries = append(entries, p.summarizeCommit(ctx, task, mc, report))
	}
	summary := summarizer.Fold(entries)

	verdict, err := p.deps.Predictor.Predict(ctx, task, summary)
	if err != nil {
		report.PredictionFailures++
		span.RecordError(err)
		log.Error(ctx, "prediction failed", zap.Error(err))
		verdict = predictor.ErrorText(err)
	} else {
		report.Statuses[predictor.ParseVerdict(verdict).Status]++
	}

	report.Results.Put(progress.TaskResult{
		TaskName: task.Name,
		Status:   verdict,
		Summary:  summary,
	})
}

func (p *Pipeline) summarizeCommit(ctx context.Context, task progress.Task, mc progress.MatchedCommit, report *Report) summarizer.Entry {
	ctx = logging.WithRepository(ctx, mc.Repo.String())
	ctx, span := p.deps.Tracer.Start(ctx, "pipeline.summarize",
		trace.WithAttributes(
			attribute.String("commit.sha", mc.SHA),
			attribute.String("repo", mc.Repo.String()),
		))
	defer span.End()

	p.deps.Logger.Info(ctx, "summarizing commit", zap.String("sha", mc.SHA))
	diff, diffErr := p.sourceFor(mc.Repo).CommitDiff(ctx, mc.Repo, mc.SHA)
	entry := p.deps.Summarizer.Entry(ctx, task.Name, mc, diff, diffErr)

	report.Summaries++
	if entry.Err != nil {
		report.SummaryFailures++
		span.RecordError(entry.Err)
		span.SetStatus(codes.Error, "summary failed")
	}
	return entry
}

// MatchTask collects the commits related to task across all repositories,
// in repository order. A repository that fails to list is logged and
// contributes nothing. report may be nil.
func (p *Pipeline) MatchTask(ctx context.Context, task progress.Task, report *Report) ([]progress.MatchedCommit, error) {
	tm, err := p.deps.Matcher.ForTask(task)
	if err != nil {
		return nil, err
	}

	var matched []progress.MatchedCommit
	for _, repo := range p.opts.Repositories {
		rctx := logging.WithRepository(ctx, repo.String())
		p.deps.Logger.Info(rctx, "analyzing repository", zap.String("branch", repo.Branch))

		commits, err := p.sourceFor(repo).UniqueCommits(rctx, repo, p.opts.BaseBranch)
		if err != nil {
			if report != nil {
				report.RepoFailures++
			}
			p.deps.Logger.Error(rctx, "failed to fetch commits", zap.Error(err))
			continue
		}
		for i := range commits {
			commits[i].Repo = repo
		}

		found := tm.Match(commits)
		if len(found) == 0 {
			p.deps.Logger.Debug(rctx, "no related commits after task start",
				zap.Int("unique_commits", len(commits)))
		}
		matched = append(matched, found...)
	}
	return matched, nil
}

// TaskMatches is one task's match listing.
type TaskMatches struct {
	Task    progress.Task
	Skipped bool
	Commits []progress.MatchedCommit
}

// Match reads tasks and matches commits without summarizing, predicting
// or writing.
func (p *Pipeline) Match(ctx context.Context) ([]TaskMatches, error) {
	tasks, err := p.deps.Tasks.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TaskMatches, 0, len(tasks))
	for _, task := range tasks {
		tctx := logging.WithTask(ctx, task.Name)
		commits, err := p.MatchTask(tctx, task, nil)
		out = append(out, TaskMatches{
			Task:    task,
			Skipped: errors.Is(err, matcher.ErrNoPattern),
			Commits: commits,
		})
	}
	return out, nil
}

func (p *Pipeline) sourceFor(repo progress.Repository) progress.CommitSource {
	if repo.IsLocal() {
		return p.deps.Local
	}
	return p.deps.Remote
}

func (p *Pipeline) publishMetrics(ctx context.Context, report *Report) {
	if p.opts.PushgatewayURL == "" {
		return
	}
	m := NewMetrics()
	m.Observe(report)
	if err := m.Push(ctx, p.opts.PushgatewayURL, p.opts.MetricsJob); err != nil {
		p.deps.Logger.Warn(ctx, "failed to push run metrics", zap.Error(err))
		return
	}
	p.deps.Logger.Debug(ctx, "pushed run metrics", zap.String("url", p.opts.PushgatewayURL))
}
