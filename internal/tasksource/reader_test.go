package tasksource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
	"github.com/fyrsmithlabs/taskpulse/internal/progress/progresstest"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRead(t *testing.T) {
	store := progresstest.NewStore(
		[]string{"Task Name", "Start Date", "End Date", "Git Keyword", "Owner"},
		[]string{"Add login validation", "2024-01-01", "2024-01-31", "auth", "ana"},
		[]string{"Signup page", "2024-02-01", "2024-02-15"},
	)
	r := NewReader(store, "Sheet1!A:E", nil)

	tasks, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []progress.Task{
		{Name: "Add login validation", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 31), Keyword: "auth", Row: 2},
		{Name: "Signup page", StartDate: day(2024, 2, 1), EndDate: day(2024, 2, 15), Row: 3},
	}, tasks)
}

func TestRead_HeaderOrderAndCase(t *testing.T) {
	store := progresstest.NewStore(
		[]string{" git keyword ", "END DATE", "task name", "Start Date"},
		[]string{"api, auth", "2024-03-10", "Build API", "2024-03-01"},
	)
	tasks, err := NewReader(store, "Sheet1!A:D", nil).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Build API", tasks[0].Name)
	assert.Equal(t, "api, auth", tasks[0].Keyword)
	assert.Equal(t, day(2024, 3, 10), tasks[0].EndDate)
}

func TestRead_KeywordColumnOptional(t *testing.T) {
	store := progresstest.NewStore(
		[]string{"Task Name", "Start Date", "End Date"},
		[]string{"Refactor", "2024-01-01", "2024-01-02"},
	)
	tasks, err := NewReader(store, "Sheet1!A:C", nil).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Empty(t, tasks[0].Keyword)
}

func TestRead_SkipsUnresolvableRows(t *testing.T) {
	logger := logging.NewTestLogger()
	store := progresstest.NewStore(
		[]string{"Task Name", "Start Date", "End Date", "Git Keyword"},
		[]string{"", "2024-01-01", "2024-01-02"},
		[]string{"Bad start", "soon", "2024-01-02"},
		[]string{"Bad end", "2024-01-01", "31/31/2024"},
		[]string{"Good", "2024-01-01", "2024-01-02"},
	)
	tasks, err := NewReader(store, "Sheet1!A:D", logger.Logger).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Good", tasks[0].Name)
	assert.Equal(t, 5, tasks[0].Row)

	logger.AssertLogged(t, zapcore.WarnLevel, "invalid start date")
	logger.AssertLogged(t, zapcore.WarnLevel, "invalid end date")
}

func TestRead_Errors(t *testing.T) {
	t.Run("empty sheet", func(t *testing.T) {
		_, err := NewReader(progresstest.NewStore(), "Sheet1!A:E", nil).Read(context.Background())
		assert.ErrorIs(t, err, ErrNoHeader)
	})

	t.Run("missing columns", func(t *testing.T) {
		store := progresstest.NewStore([]string{"Task Name", "Due"})
		_, err := NewReader(store, "Sheet1!A:E", nil).Read(context.Background())
		assert.ErrorIs(t, err, ErrMissingColumn)
		assert.Contains(t, err.Error(), "Start Date, End Date")
	})

	t.Run("store failure", func(t *testing.T) {
		store := progresstest.NewStore()
		store.ReadErr = errors.New("403 forbidden")
		_, err := NewReader(store, "Sheet1!A:E", nil).Read(context.Background())
		assert.ErrorContains(t, err, "failed to read tasks")
	})

	t.Run("bad range", func(t *testing.T) {
		_, err := NewReader(progresstest.NewStore(), "Sheet1!", nil).Read(context.Background())
		assert.ErrorIs(t, err, progress.ErrInvalidRange)
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-05", day(2024, 1, 5), false},
		{" 2024-01-05 ", day(2024, 1, 5), false},
		{"2024/01/05", day(2024, 1, 5), false},
		{"1/5/2024", day(2024, 1, 5), false},
		{"2024-01-05T23:30:00-05:00", day(2024, 1, 5), false},
		{"", time.Time{}, true},
		{"next week", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNameColumnAndTaskKey(t *testing.T) {
	assert.Equal(t, 1, NameColumn([]string{"ID", " TASK NAME ", "Start Date"}))
	assert.Equal(t, -1, NameColumn([]string{"Title"}))
	assert.Equal(t, "Add login validation", TaskKey("  Add login validation \t"))
}
