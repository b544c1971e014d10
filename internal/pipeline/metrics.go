package pipeline

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/fyrsmithlabs/taskpulse/internal/predictor"
)

// Metrics holds the gauges for a single run. Each run gets its own
// registry so the pushed group reflects only that run.
type Metrics struct {
	registry *prometheus.Registry

	Tasks           *prometheus.GaugeVec
	MatchedCommits  prometheus.Gauge
	Summaries       *prometheus.GaugeVec
	Predictions     *prometheus.GaugeVec
	RepoFailures    prometheus.Gauge
	RowsWritten     prometheus.Gauge
	Duration        prometheus.Gauge
	LastSuccessTime prometheus.Gauge
}

// NewMetrics registers the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Labels: outcome (processed, skipped)
		Tasks: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskpulse",
			Subsystem: "run",
			Name:      "tasks",
			Help:      "Tasks read from the task source by outcome",
		}, []string{"outcome"}),

		MatchedCommits: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskpulse",
			Subsystem: "run",
			Name:      "matched_commits",
			Help:      "Commits matched to tasks across all repositories",
		}),

		// Labels: result (success, error)
		Summaries: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskpulse",
			Subsystem: "run",
			Name:      "commit_summaries",
			Help:      "Commit summaries by result",
		}, []string{"result"}),

		// Labels: status (on-track, at-risk, likely-delayed, unknown, error)
		Predictions: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskpulse",
			Subsystem: "run",
			Name:      "predictions",
			Help:      "Task predictions by parsed status",
		}, []string{"status"}),

		RepoFailures: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskpulse",
			Subsystem: "run",
			Name:      "repository_failures",
			Help:      "Repository commit listings that failed",
		}),

		RowsWritten: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskpulse",
			Subsystem: "run",
			Name:      "rows_written",
			Help:      "Task rows written to the result sink",
		}),

		Duration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskpulse",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of the run in seconds",
		}),

		LastSuccessTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskpulse",
			Subsystem: "run",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run whose results were written",
		}),
	}
}

// Registry returns the run registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe copies a finished report into the gauges.
func (m *Metrics) Observe(r *Report) {
	if m == nil || r == nil {
		return
	}
	m.Tasks.WithLabelValues("processed").Set(float64(r.Processed()))
	m.Tasks.WithLabelValues("skipped").Set(float64(r.Skipped))
	m.MatchedCommits.Set(float64(r.Matched))
	m.Summaries.WithLabelValues("success").Set(float64(r.Summaries - r.SummaryFailures))
	m.Summaries.WithLabelValues("error").Set(float64(r.SummaryFailures))

	for _, s := range []predictor.Status{
		predictor.StatusOnTrack, predictor.StatusAtRisk,
		predictor.StatusLikelyDelayed, predictor.StatusUnknown,
	} {
		m.Predictions.WithLabelValues(string(s)).Set(float64(r.Statuses[s]))
	}
	m.Predictions.WithLabelValues("error").Set(float64(r.PredictionFailures))

	m.RepoFailures.Set(float64(r.RepoFailures))
	m.RowsWritten.Set(float64(r.RowsWritten))
	m.Duration.Set(r.Duration.Seconds())
	if r.Written {
		m.LastSuccessTime.Set(float64(r.Date.Unix()))
	} else {
		m.registry.Unregister(m.LastSuccessTime)
	}
}

// Push sends the registry to a Pushgateway under job. Metrics absent from
// this run (such as the last success time after a failed write) keep their
// previously pushed values.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).AddContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
