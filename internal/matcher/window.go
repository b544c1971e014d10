package matcher

import (
	"time"

	"github.com/fyrsmithlabs/taskpulse/internal/progress"
)

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OnOrAfter reports whether date falls on or after start's calendar day.
func OnOrAfter(date, start time.Time) bool {
	return !Day(date).Before(Day(start))
}

// Since keeps commits authored on or after start, preserving order.
func Since(commits []progress.Commit, start time.Time) []progress.Commit {
	var out []progress.Commit
	for _, c := range commits {
		if OnOrAfter(c.Date, start) {
			out = append(out, c)
		}
	}
	return out
}
