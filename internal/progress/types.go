package progress

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used in the task source and in
// date-stamped result columns.
const DateLayout = "2006-01-02"

// Task is one row of the task source. Immutable once read.
type Task struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Keyword   string // comma-separated, may be empty

	// Row is the 1-based sheet row the task was read from.
	Row int
}

// Repository identifies a repository to scan. Either Owner/Name or Path
// is set; Branch is the head compared against the base branch.
type Repository struct {
	Owner  string
	Name   string
	Branch string
	Path   string
}

// IsLocal reports whether the repository is a local clone.
func (r Repository) IsLocal() bool {
	return r.Path != ""
}

// String returns "owner/name", or the path for local clones.
func (r Repository) String() string {
	if r.Owner == "" && r.Name == "" {
		return r.Path
	}
	return r.Owner + "/" + r.Name
}

// Commit is a change returned by a CommitSource.
type Commit struct {
	SHA           string
	Date          time.Time // author date
	CommitterDate time.Time
	Author        string
	Message       string
	Repo          Repository
}

// ShortSHA returns the first 7 characters of the commit id.
func (c Commit) ShortSHA() string {
	if len(c.SHA) <= 7 {
		return c.SHA
	}
	return c.SHA[:7]
}

// MatchedCommit is a Commit judged relevant to a task.
type MatchedCommit struct {
	Commit

	// Keyword is the task keyword term that matched, or "" when the commit
	// matched on task-name tokens alone.
	Keyword string
}

// String renders the one-line listing used by the match command and logs.
func (m MatchedCommit) String() string {
	s := fmt.Sprintf("[%s] %s - %s", m.Date.UTC().Format(DateLayout), m.Author, m.Message)
	if m.Keyword != "" {
		s += " (" + m.Keyword + ")"
	}
	return s
}

// TaskResult is what gets written back for one task.
type TaskResult struct {
	TaskName string
	Status   string
	Summary  string
}

// Results maps task name to result. Duplicate task names collide and the
// last write wins.
type Results map[string]TaskResult

// Put records r under its task name.
func (rs Results) Put(r TaskResult) {
	rs[r.TaskName] = r
}
