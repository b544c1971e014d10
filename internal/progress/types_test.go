package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCommit_ShortSHA(t *testing.T) {
	assert.Equal(t, "0123456", Commit{SHA: "0123456789abcdef"}.ShortSHA())
	assert.Equal(t, "abc", Commit{SHA: "abc"}.ShortSHA())
}

func TestRepository_String(t *testing.T) {
	assert.Equal(t, "acme/web", Repository{Owner: "acme", Name: "web", Branch: "dev"}.String())
	assert.Equal(t, "/src/web", Repository{Path: "/src/web"}.String())
	assert.True(t, Repository{Path: "/src/web"}.IsLocal())
	assert.False(t, Repository{Owner: "acme", Name: "web"}.IsLocal())
}

func TestMatchedCommit_String(t *testing.T) {
	m := MatchedCommit{
		Commit: Commit{
			Date:    time.Date(2024, 1, 5, 23, 30, 0, 0, time.UTC),
			Author:  "Dana",
			Message: "add auth validation logic",
		},
		Keyword: "auth",
	}
	assert.Equal(t, "[2024-01-05] Dana - add auth validation logic (auth)", m.String())

	m.Keyword = ""
	assert.Equal(t, "[2024-01-05] Dana - add auth validation logic", m.String())
}

func TestResults_LastWriteWins(t *testing.T) {
	rs := Results{}
	rs.Put(TaskResult{TaskName: "Login", Status: "first"})
	rs.Put(TaskResult{TaskName: "Login", Status: "second"})

	assert.Len(t, rs, 1)
	assert.Equal(t, "second", rs["Login"].Status)
}
