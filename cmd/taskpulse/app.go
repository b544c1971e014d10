package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/fyrsmithlabs/taskpulse/internal/github"
	"github.com/fyrsmithlabs/taskpulse/internal/gitlocal"
	"github.com/fyrsmithlabs/taskpulse/internal/llm"
	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/matcher"
	"github.com/fyrsmithlabs/taskpulse/internal/pipeline"
	"github.com/fyrsmithlabs/taskpulse/internal/predictor"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
	"github.com/fyrsmithlabs/taskpulse/internal/secrets"
	"github.com/fyrsmithlabs/taskpulse/internal/sheets"
	"github.com/fyrsmithlabs/taskpulse/internal/summarizer"
	"github.com/fyrsmithlabs/taskpulse/internal/tasksource"
	"github.com/fyrsmithlabs/taskpulse/internal/telemetry"
	"github.com/fyrsmithlabs/taskpulse/internal/writer"
)

const shutdownTimeout = 5 * time.Second

// app holds the process-wide dependencies built from config.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	tel    *telemetry.Telemetry
}

// setup loads config and initializes tracing, then logging so entries can
// be bridged to the OTLP log provider.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded, continuing without export", zap.Error(h.Err))
	}

	return &app{cfg: cfg, logger: logger, tel: tel}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Close()
}

func (a *app) repositories() []progress.Repository {
	repos := make([]progress.Repository, 0, len(a.cfg.Repositories))
	for _, r := range a.cfg.Repositories {
		repos = append(repos, progress.Repository{
			Owner:  r.Owner,
			Name:   r.Name,
			Branch: r.Branch,
			Path:   r.Path,
		})
	}
	return repos
}

// pipelineFor wires every stage. withLLM=false builds a match-only pipeline.
func (a *app) pipelineFor(ctx context.Context, withLLM, dryRun bool) (*pipeline.Pipeline, error) {
	cfg := a.cfg
	repos := a.repositories()
	if len(repos) == 0 {
		a.logger.Warn(ctx, "no repositories configured, every task will have no commits")
	}

	store, err := sheets.NewStore(ctx, cfg.Sheets, a.logger.Named("sheets"))
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Tasks:   tasksource.NewReader(store, cfg.Sheets.Range, a.logger.Named("tasks")),
		Matcher: matcher.New(cfg.Matching),
		Tracer:  a.tel.Tracer("github.com/fyrsmithlabs/taskpulse/internal/pipeline"),
		Logger:  a.logger,
	}

	for _, r := range repos {
		if r.IsLocal() && deps.Local == nil {
			deps.Local = gitlocal.NewSource(a.logger.Named("gitlocal"))
		}
		if !r.IsLocal() && deps.Remote == nil {
			client, err := github.NewClient(ctx, cfg.GitHub)
			if err != nil {
				if errors.Is(err, github.ErrTokenMissing) {
					return nil, fmt.Errorf("%w: set GITHUB_TOKEN or github.token", err)
				}
				return nil, err
			}
			deps.Remote = github.NewSource(client, a.logger.Named("github"))
		}
	}

	if withLLM {
		completion, err := llm.New(cfg.LLM, a.logger.Named("llm"))
		if err != nil {
			return nil, err
		}
		scrubber, err := secrets.NewScrubber(cfg.Secrets)
		if err != nil {
			return nil, err
		}
		if !scrubber.Enabled() {
			a.logger.Warn(ctx, "secret scrubbing disabled, diffs are sent unmodified")
		}
		deps.Summarizer = summarizer.New(completion, scrubber, cfg.Summarizer, a.logger.Named("summarizer"))
		deps.Predictor = predictor.New(completion, cfg.Predictor, a.logger.Named("predictor"))
		if !dryRun {
			deps.Writer = writer.New(store, cfg.Sheets.Worksheet, a.logger.Named("writer"))
		}
	}

	return pipeline.New(pipeline.Options{
		Repositories:   repos,
		BaseBranch:     cfg.GitHub.BaseBranch,
		DryRun:         dryRun,
		PushgatewayURL: cfg.Metrics.PushgatewayURL,
		MetricsJob:     cfg.Metrics.Job,
	}, deps)
}
