package pipeline

import (
	"time"

	"github.com/fyrsmithlabs/taskpulse/internal/predictor"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
)

// Report describes one run.
type Report struct {
	RunID    string
	Date     time.Time
	Duration time.Duration
	DryRun   bool

	// SourceErr is set when the task source could not be read.
	SourceErr error

	Tasks              int
	Skipped            int
	Matched            int
	Summaries          int
	SummaryFailures    int
	PredictionFailures int
	RepoFailures       int
	Statuses           map[predictor.Status]int

	Written     bool
	RowsWritten int
	WriteErr    error

	Results progress.Results
}

func newReport(runID string, now time.Time, dryRun bool) *Report {
	return &Report{
		RunID:    runID,
		Date:     now,
		DryRun:   dryRun,
		Statuses: map[predictor.Status]int{},
		Results:  progress.Results{},
	}
}

// Processed returns the number of tasks that received a result.
func (r *Report) Processed() int {
	return r.Tasks - r.Skipped
}
