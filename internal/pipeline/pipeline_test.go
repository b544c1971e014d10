package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/matcher"
	"github.com/fyrsmithlabs/taskpulse/internal/predictor"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
	"github.com/fyrsmithlabs/taskpulse/internal/progress/progresstest"
	"github.com/fyrsmithlabs/taskpulse/internal/summarizer"
	"github.com/fyrsmithlabs/taskpulse/internal/tasksource"
	"github.com/fyrsmithlabs/taskpulse/internal/telemetry"
	"github.com/fyrsmithlabs/taskpulse/internal/writer"
)

const verdictText = "1. Status: On Track\n2. Reason: Validation done.\n3. AI Evaluation Score: 80\n" +
	"4. AI Estimated Completion Time: 2-4 hours\n5. Completion: 70% complete, 30% remaining"

var (
	runDay = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	api    = progress.Repository{Owner: "acme", Name: "api", Branch: "feature/login"}
	web    = progress.Repository{Owner: "acme", Name: "web", Branch: "main"}
)

type staticTasks struct {
	tasks []progress.Task
	err   error
}

func (s staticTasks) Read(context.Context) ([]progress.Task, error) {
	return s.tasks, s.err
}

type recordingWriter struct {
	calls   int
	results progress.Results
	err     error
}

func (w *recordingWriter) Write(_ context.Context, results progress.Results) (int, error) {
	w.calls++
	w.results = results
	if w.err != nil {
		return 0, w.err
	}
	return len(results), nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func loginTask() progress.Task {
	return progress.Task{
		Name:      "Add login validation",
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		Keyword:   "auth",
		Row:       2,
	}
}

// completion answers summarizer prompts with a per-diff summary and
// predictor prompts with verdictText.
func completion() *progresstest.Completion {
	return &progresstest.Completion{
		Respond: func(req progress.CompletionRequest) (string, error) {
			if strings.Contains(req.System, "reviewing Git commits") {
				return "Summary of change.", nil
			}
			return verdictText, nil
		},
	}
}

type fixture struct {
	source     *progresstest.CommitSource
	completion *progresstest.Completion
	writer     *recordingWriter
	logger     *logging.TestLogger
	deps       Deps
	opts       Options
}

func newFixture(tasks ...progress.Task) *fixture {
	f := &fixture{
		source:     progresstest.NewCommitSource(),
		completion: completion(),
		writer:     &recordingWriter{},
		logger:     logging.NewTestLogger(),
	}
	f.opts = Options{Repositories: []progress.Repository{api}, BaseBranch: "main"}
	f.deps = Deps{
		Tasks:      staticTasks{tasks: tasks},
		Remote:     f.source,
		Matcher:    matcher.New(config.MatchingConfig{Mode: config.MatchModeHeuristic, MinScore: 2, MinTokenLength: 3}),
		Summarizer: summarizer.New(f.completion, nil, config.SummarizerConfig{MaxDiffBytes: 60000}, nil),
		Predictor:  predictor.New(f.completion, config.PredictorConfig{}, nil),
		Writer:     f.writer,
		Logger:     f.logger.Logger,
		Now:        func() time.Time { return runDay },
	}
	return f
}

func (f *fixture) run(t *testing.T) *Report {
	t.Helper()
	p, err := New(f.opts, f.deps)
	require.NoError(t, err)
	report, err := p.Run(context.Background())
	require.NoError(t, err)
	return report
}

func TestRun_LoginScenario(t *testing.T) {
	f := newFixture(loginTask())
	f.source.Add(api,
		progress.Commit{SHA: "1111111aaaa", Date: date(2023, 12, 31), Author: "ana", Message: "fix auth bug"},
		progress.Commit{SHA: "2222222bbbb", Date: date(2024, 1, 5), Author: "ana", Message: "add auth validation logic for login\n"},
	)
	f.source.Diffs["2222222bbbb"] = "+++ login.go\n+validate()\n"

	report := f.run(t)

	assert.Equal(t, 1, report.Tasks)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Summaries)
	assert.True(t, report.Written)
	assert.Equal(t, 1, report.Statuses[predictor.StatusOnTrack])
	assert.NotEmpty(t, report.RunID)

	assert.Equal(t, []string{"2222222bbbb"}, f.source.DiffCalls)
	assert.Equal(t, []string{"acme/api main...feature/login"}, f.source.CompareCalls)

	res := f.writer.results["Add login validation"]
	assert.Equal(t, verdictText, res.Status)
	assert.Equal(t, "Commit 2222222:\nSummary of change.", res.Summary)

	require.Equal(t, 2, f.completion.Calls())
	assert.Contains(t, f.completion.Requests[1].Prompt, "Commit 2222222:\nSummary of change.")

	f.logger.AssertField(t, "matched commit", "commit", "[2024-01-05] ana - add auth validation logic for login (auth)")
}

func TestRun_UnrelatedCommitNotMatched(t *testing.T) {
	task := loginTask()
	task.Keyword = ""
	f := newFixture(task)
	f.source.Add(api, progress.Commit{SHA: "3333333", Date: date(2024, 1, 2), Message: "refactor unrelated module"})

	report := f.run(t)

	assert.Zero(t, report.Matched)
	assert.Empty(t, f.source.DiffCalls)
	assert.Equal(t, summarizer.NoCommits, f.writer.results[task.Name].Summary)
	require.Equal(t, 1, f.completion.Calls(), "prediction still runs")
	assert.Contains(t, f.completion.Requests[0].Prompt, summarizer.NoCommits)
}

func TestRun_RepositoryFailureIsolated(t *testing.T) {
	f := newFixture(loginTask())
	f.opts.Repositories = []progress.Repository{web, api}
	f.source.CommitErrs["acme/web"] = errors.New("502 bad gateway")
	f.source.Add(api, progress.Commit{SHA: "4444444", Date: date(2024, 1, 3), Message: "auth checks"})
	f.source.Diffs["4444444"] = "+++ a\n+b\n"

	report := f.run(t)

	assert.Equal(t, 1, report.RepoFailures)
	assert.Equal(t, 1, report.Matched)
	assert.True(t, report.Written)
	f.logger.AssertLogged(t, zapcore.ErrorLevel, "failed to fetch commits")
}

func TestRun_EmptyDiffSkipsSummaryCall(t *testing.T) {
	f := newFixture(loginTask())
	f.source.Add(api, progress.Commit{SHA: "5555555", Date: date(2024, 1, 3), Message: "auth: merge"})

	f.run(t)

	require.Equal(t, 1, f.completion.Calls(), "only the prediction call")
	assert.Equal(t, "Commit 5555555:\nempty diff", f.writer.results["Add login validation"].Summary)
}

func TestRun_InlineFailures(t *testing.T) {
	other := progress.Task{Name: "Billing export", StartDate: date(2024, 1, 1), Keyword: "billing"}
	f := newFixture(loginTask(), other)
	f.source.Add(api,
		progress.Commit{SHA: "6666666", Date: date(2024, 1, 3), Message: "auth: part one"},
		progress.Commit{SHA: "7777777", Date: date(2024, 1, 4), Message: "auth: part two"},
	)
	f.source.DiffErrs["6666666"] = errors.New("404 not found")
	f.source.Diffs["7777777"] = "+++ a\n+b\n"

	f.completion.Respond = func(req progress.CompletionRequest) (string, error) {
		if strings.Contains(req.System, "reviewing Git commits") {
			return "", errors.New("rate limited")
		}
		if strings.Contains(req.Prompt, "Add login validation") {
			return "", errors.New("service unavailable")
		}
		return verdictText, nil
	}

	report := f.run(t)

	assert.Equal(t, 2, report.SummaryFailures)
	assert.Equal(t, 1, report.PredictionFailures)
	assert.Equal(t, 2, report.Processed())

	login := f.writer.results["Add login validation"]
	assert.Equal(t,
		"Commit 6666666:\nError summarizing commit: failed to fetch diff: 404 not found\n\n"+
			"Commit 7777777:\nError summarizing commit: rate limited",
		login.Summary)
	assert.True(t, strings.HasPrefix(login.Status, "Evaluation error: "))
	assert.Contains(t, login.Status, "service unavailable")

	assert.Equal(t, verdictText, f.writer.results["Billing export"].Status, "next task continues")
}

func TestRun_TaskSourceFailureWritesNothing(t *testing.T) {
	f := newFixture()
	f.deps.Tasks = staticTasks{err: errors.New("sheet unreachable")}

	report := f.run(t)

	assert.Error(t, report.SourceErr)
	assert.False(t, report.Written)
	assert.Zero(t, f.writer.calls)
	f.logger.AssertLogged(t, zapcore.WarnLevel, "failed to read tasks")
}

func TestRun_NoTasks(t *testing.T) {
	f := newFixture()
	report := f.run(t)
	assert.Zero(t, report.Tasks)
	assert.Zero(t, f.writer.calls)
}

func TestRun_PatternModeSkipsTasks(t *testing.T) {
	noKeyword := loginTask()
	noKeyword.Name = "Docs"
	noKeyword.Keyword = " , "
	f := newFixture(loginTask(), noKeyword)
	f.deps.Matcher = matcher.New(config.MatchingConfig{Mode: config.MatchModePattern})
	f.source.Add(api,
		progress.Commit{SHA: "8888888", Date: date(2024, 1, 3), Message: "Auth token refresh"},
		progress.Commit{SHA: "9999999", Date: date(2024, 1, 3), Message: "oauthlib bump"},
	)
	f.source.Diffs["8888888"] = "+++ a\n+b\n"

	report := f.run(t)

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Matched, "word boundary excludes oauthlib")
	_, ok := f.writer.results["Docs"]
	assert.False(t, ok)
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(loginTask())
	f.opts.DryRun = true
	f.deps.Writer = nil

	report := f.run(t)

	assert.True(t, report.DryRun)
	assert.False(t, report.Written)
	assert.Contains(t, report.Results, "Add login validation")
}

func TestRun_WritesThroughResultWriter(t *testing.T) {
	store := progresstest.NewStore(
		[]string{"Task Name", "Start Date", "End Date", "Git Keyword"},
		[]string{"Add login validation", "2024-01-01", "2024-01-31", "auth"},
		[]string{"Unlisted", "2024-01-01", "2024-01-31", ""},
	)
	f := newFixture(loginTask())
	f.deps.Writer = writer.New(store, "Sheet1", nil, writer.WithClock(func() time.Time { return runDay }))

	report := f.run(t)

	assert.Equal(t, 2, report.RowsWritten)
	assert.Equal(t, []string{"Task Name", "Start Date", "End Date", "Git Keyword", "2024-06-01 Status", "2024-06-01 Summary"}, store.Header())
	assert.Equal(t, verdictText, store.Cell(1, 4))
	assert.Equal(t, summarizer.NoCommits, store.Cell(1, 5))
	assert.Equal(t, "", store.Cell(2, 4))
}

func TestRun_SheetRoundTrip(t *testing.T) {
	store := progresstest.NewStore(
		[]string{"ID", "Task Name", "Start Date", "End Date", "Git Keyword"},
		[]string{"1", "Add login validation ", "2024-01-01", "2024-01-31", "auth"},
		[]string{"2", "Billing", "2024-01-01", "2024-01-31", "pay"},
		[]string{"3", "", "2024-01-01", "2024-01-31", ""},
	)
	f := newFixture()
	f.deps.Tasks = tasksource.NewReader(store, "Sheet1!A:E", nil)
	f.deps.Writer = writer.New(store, "Sheet1", nil, writer.WithClock(func() time.Time { return runDay }))
	f.source.Add(api,
		progress.Commit{SHA: "2222222bbbb", Date: date(2024, 1, 5), Author: "ana", Message: "add auth validation logic for login"},
	)
	f.source.Diffs["2222222bbbb"] = "+++ login.go\n+validate()\n"

	report := f.run(t)

	assert.Equal(t, 2, report.Tasks)
	assert.Equal(t, 2, report.RowsWritten, "trailing row without a name is not returned by the sheet")
	assert.Equal(t, "2024-06-01 Status", store.Header()[5])
	assert.Equal(t, verdictText, store.Cell(1, 5))
	assert.Equal(t, "Commit 2222222:\nSummary of change.", store.Cell(1, 6))
	assert.Equal(t, verdictText, store.Cell(2, 5))
	assert.Equal(t, summarizer.NoCommits, store.Cell(2, 6))
	assert.Equal(t, "", store.Cell(3, 5), "row without a task stays blank")
}

func TestRun_WriteFailureReported(t *testing.T) {
	f := newFixture(loginTask())
	f.writer.err = errors.New("forbidden")

	report := f.run(t)

	assert.False(t, report.Written)
	assert.EqualError(t, report.WriteErr, "forbidden")
}

func TestRun_Spans(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	f := newFixture(loginTask())
	f.deps.Tracer = tel.Tracer("pipeline-test")
	f.source.Add(api, progress.Commit{SHA: "abcdef0123", Date: date(2024, 1, 3), Message: "auth fix"})
	f.source.DiffErrs["abcdef0123"] = errors.New("gone")

	f.run(t)

	tel.AssertSpanExists(t, "pipeline.run")
	tel.AssertSpanAttribute(t, "pipeline.task", "task.name", "Add login validation")
	tel.AssertSpanAttribute(t, "pipeline.summarize", "commit.sha", "abcdef0123")
	tel.AssertSpanError(t, "pipeline.summarize")
}

func TestRun_PushesMetrics(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	f := newFixture(loginTask())
	f.opts.PushgatewayURL = srv.URL
	f.opts.MetricsJob = "taskpulse"

	f.run(t)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/metrics/job/taskpulse", path)
	assert.NotEmpty(t, body)
}

func TestMatch(t *testing.T) {
	f := newFixture(loginTask())
	f.source.Add(api, progress.Commit{SHA: "1234567", Date: date(2024, 1, 3), Author: "li", Message: "login validation tweaks"})

	p, err := New(f.opts, f.deps)
	require.NoError(t, err)
	got, err := p.Match(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.False(t, got[0].Skipped)
	require.Len(t, got[0].Commits, 1)
	assert.Equal(t, api, got[0].Commits[0].Repo)
	assert.Empty(t, got[0].Commits[0].Keyword, "matched on name tokens")
	assert.Zero(t, f.completion.Calls())
	assert.Zero(t, f.writer.calls)
}

func TestNew_Validation(t *testing.T) {
	f := newFixture()

	_, err := New(Options{Repositories: []progress.Repository{{Path: "/src/app"}}}, f.deps)
	assert.ErrorContains(t, err, "no local commit source")

	deps := f.deps
	deps.Remote = nil
	_, err = New(Options{Repositories: []progress.Repository{api}}, deps)
	assert.ErrorContains(t, err, "no remote commit source")

	deps = f.deps
	deps.Tasks = nil
	_, err = New(f.opts, deps)
	assert.Error(t, err)
}
