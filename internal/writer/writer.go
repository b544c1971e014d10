// Package writer persists task results under two date-stamped columns,
// "<date> Status" and "<date> Summary", aligned with the task rows by the
// trimmed task name found under the "Task Name" header.
//
// Every run rewrites the full status/summary range for its date: rows
// without a result are blanked, so rerunning on the same day replaces the
// previous values.
package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
	"github.com/fyrsmithlabs/taskpulse/internal/tasksource"
)

// ErrNoHeader indicates the worksheet has no header row to extend.
var ErrNoHeader = errors.New("worksheet has no header row")

// Writer writes results into a worksheet.
type Writer struct {
	store     progress.TabularStore
	worksheet string
	now       func() time.Time
	logger    *logging.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock overrides the clock used for the column date.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// New creates a Writer for worksheet.
func New(store progress.TabularStore, worksheet string, logger *logging.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = logging.Nop()
	}
	w := &Writer{
		store:     store,
		worksheet: worksheet,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Columns returns the header names used for date.
func Columns(date time.Time) (status, summary string) {
	d := date.Format(progress.DateLayout)
	return d + " Status", d + " Summary"
}

// Write persists results and returns the number of task rows written.
// Failures are logged here; the error is returned for reporting only.
func (w *Writer) Write(ctx context.Context, results progress.Results) (int, error) {
	n, err := w.write(ctx, results)
	if err != nil {
		w.logger.Error(ctx, "failed to write task updates", zap.Error(err))
		return 0, err
	}
	w.logger.Info(ctx, "wrote task updates", zap.Int("rows", n))
	return n, nil
}

func (w *Writer) write(ctx context.Context, results progress.Results) (int, error) {
	sheet := progress.QuoteSheet(w.worksheet)

	rows, err := w.store.ReadRange(ctx, sheet+"!1:1")
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, ErrNoHeader
	}
	header := append([]string(nil), rows[0]...)
	nameIdx := tasksource.NameColumn(header)
	if nameIdx < 0 {
		return 0, fmt.Errorf("%w: %s", tasksource.ErrMissingColumn, tasksource.ColumnTaskName)
	}

	statusCol, summaryCol := Columns(w.now())
	statusIdx, header, addedStatus := ensureColumn(header, statusCol)
	summaryIdx, header, addedSummary := ensureColumn(header, summaryCol)
	if addedStatus || addedSummary {
		if err := w.store.WriteRange(ctx, sheet+"!A1", [][]string{header}); err != nil {
			return 0, fmt.Errorf("failed to update header: %w", err)
		}
		w.logger.Info(ctx, "added result columns",
			zap.String("status_column", statusCol), zap.String("summary_column", summaryCol))
	}

	nameCol := progress.ColumnName(nameIdx)
	nameRows, err := w.store.ReadRange(ctx, sheet+"!"+nameCol+"2:"+nameCol)
	if err != nil {
		return 0, fmt.Errorf("failed to read task rows: %w", err)
	}
	if len(nameRows) == 0 {
		return 0, nil
	}

	statuses := make([][]string, len(nameRows))
	summaries := make([][]string, len(nameRows))
	pairs := make([][]string, len(nameRows))
	for i, row := range nameRows {
		var name string
		if len(row) > 0 {
			name = tasksource.TaskKey(row[0])
		}
		res := results[name]
		statuses[i] = []string{res.Status}
		summaries[i] = []string{res.Summary}
		pairs[i] = []string{res.Status, res.Summary}
	}

	last := len(nameRows) // 0-based index of the last task row
	if summaryIdx == statusIdx+1 {
		rng := progress.CellRange(w.worksheet, statusIdx, 1, summaryIdx, last)
		if err := w.store.WriteRange(ctx, rng, pairs); err != nil {
			return 0, fmt.Errorf("failed to write results: %w", err)
		}
		return len(nameRows), nil
	}

	// The columns were separated by hand; write them one at a time.
	if err := w.store.WriteRange(ctx, progress.CellRange(w.worksheet, statusIdx, 1, statusIdx, last), statuses); err != nil {
		return 0, fmt.Errorf("failed to write status column: %w", err)
	}
	if err := w.store.WriteRange(ctx, progress.CellRange(w.worksheet, summaryIdx, 1, summaryIdx, last), summaries); err != nil {
		return 0, fmt.Errorf("failed to write summary column: %w", err)
	}
	return len(nameRows), nil
}

// ensureColumn returns the index of name in header, appending it if absent.
func ensureColumn(header []string, name string) (int, []string, bool) {
	for i, h := range header {
		if h == name {
			return i, header, false
		}
	}
	return len(header), append(header, name), true
}
