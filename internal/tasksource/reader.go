// Package tasksource reads tasks from a worksheet whose first row names
// the columns. Columns are located by header text, so their order and any
// extra columns do not matter.
package tasksource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
)

// Header names. Matching is case-insensitive and ignores surrounding space.
const (
	ColumnTaskName  = "Task Name"
	ColumnStartDate = "Start Date"
	ColumnEndDate   = "End Date"
	ColumnKeyword   = "Git Keyword"
)

var (
	// ErrNoHeader indicates the range is empty.
	ErrNoHeader = errors.New("no header row found")

	// ErrMissingColumn indicates a required header is absent.
	ErrMissingColumn = errors.New("missing required column")
)

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{
	progress.DateLayout,
	"2006/01/02",
	"1/2/2006",
	time.RFC3339,
}

// Reader decodes tasks from a TabularStore range.
type Reader struct {
	store  progress.TabularStore
	rng    string
	logger *logging.Logger
}

// NewReader reads tasks from rng, e.g. "Sheet1!A:E".
func NewReader(store progress.TabularStore, rng string, logger *logging.Logger) *Reader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Reader{store: store, rng: rng, logger: logger}
}

type columns struct {
	name, start, end, keyword int
}

// Read returns the resolvable tasks in sheet order. Rows without a task
// name or with an unparseable date are logged and skipped.
func (r *Reader) Read(ctx context.Context) ([]progress.Task, error) {
	parsed, err := progress.ParseRange(r.rng)
	if err != nil {
		return nil, err
	}

	values, err := r.store.ReadRange(ctx, r.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrNoHeader
	}

	cols, err := locate(values[0])
	if err != nil {
		return nil, err
	}

	var tasks []progress.Task
	for i, row := range values[1:] {
		rowNum := parsed.StartRow + i + 2
		task, ok := r.decode(ctx, row, cols, rowNum)
		if ok {
			tasks = append(tasks, task)
		}
	}

	r.logger.Info(ctx, "read tasks",
		zap.Int("rows", len(values)-1), zap.Int("tasks", len(tasks)))
	return tasks, nil
}

func (r *Reader) decode(ctx context.Context, row []string, cols columns, rowNum int) (progress.Task, bool) {
	name := TaskKey(cell(row, cols.name))
	if name == "" {
		r.logger.Debug(ctx, "skipping row without task name", zap.Int("row", rowNum))
		return progress.Task{}, false
	}

	start, err := ParseDate(cell(row, cols.start))
	if err != nil {
		r.logger.Warn(ctx, "skipping task with invalid start date",
			zap.String("task.name", name), zap.Int("row", rowNum), zap.Error(err))
		return progress.Task{}, false
	}
	end, err := ParseDate(cell(row, cols.end))
	if err != nil {
		r.logger.Warn(ctx, "skipping task with invalid end date",
			zap.String("task.name", name), zap.Int("row", rowNum), zap.Error(err))
		return progress.Task{}, false
	}

	return progress.Task{
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Keyword:   strings.TrimSpace(cell(row, cols.keyword)),
		Row:       rowNum,
	}, true
}

// locate maps header names to indexes. The keyword column is optional.
func locate(header []string) (columns, error) {
	cols := columns{name: -1, start: -1, end: -1, keyword: -1}
	for i, h := range header {
		switch {
		case isHeader(h, ColumnTaskName):
			cols.name = i
		case isHeader(h, ColumnStartDate):
			cols.start = i
		case isHeader(h, ColumnEndDate):
			cols.end = i
		case isHeader(h, ColumnKeyword):
			cols.keyword = i
		}
	}

	var missing []string
	if cols.name < 0 {
		missing = append(missing, ColumnTaskName)
	}
	if cols.start < 0 {
		missing = append(missing, ColumnStartDate)
	}
	if cols.end < 0 {
		missing = append(missing, ColumnEndDate)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

// NameColumn returns the index of the task name column in header, or -1.
// The result writer aligns rows through the same column Read uses.
func NameColumn(header []string) int {
	for i, h := range header {
		if isHeader(h, ColumnTaskName) {
			return i
		}
	}
	return -1
}

// TaskKey normalizes a task name cell. Tasks and their results are keyed
// on it, so a row reads and writes under the same name.
func TaskKey(name string) string {
	return strings.TrimSpace(name)
}

func isHeader(h, name string) bool {
	return strings.EqualFold(strings.TrimSpace(h), name)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ParseDate parses a date cell as a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD)", s)
}
