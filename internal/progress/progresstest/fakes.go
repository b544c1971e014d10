// Package progresstest provides in-memory fakes for the progress ports.
package progresstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/taskpulse/internal/progress"
)

// CommitSource serves canned commits and diffs keyed by repository.
type CommitSource struct {
	mu sync.Mutex

	Commits    map[string][]progress.Commit // key: Repository.String()
	CommitErrs map[string]error
	Diffs      map[string]string // key: sha
	DiffErrs   map[string]error

	CompareCalls []string
	DiffCalls    []string
}

// NewCommitSource returns an empty fake.
func NewCommitSource() *CommitSource {
	return &CommitSource{
		Commits:    map[string][]progress.Commit{},
		CommitErrs: map[string]error{},
		Diffs:      map[string]string{},
		DiffErrs:   map[string]error{},
	}
}

// Add registers commits for repo, tagging each with it.
func (f *CommitSource) Add(repo progress.Repository, commits ...progress.Commit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range commits {
		c.Repo = repo
		f.Commits[repo.String()] = append(f.Commits[repo.String()], c)
	}
}

// UniqueCommits implements progress.CommitSource.
func (f *CommitSource) UniqueCommits(_ context.Context, repo progress.Repository, base string) ([]progress.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CompareCalls = append(f.CompareCalls, repo.String()+" "+base+"..."+repo.Branch)
	if err := f.CommitErrs[repo.String()]; err != nil {
		return nil, err
	}
	out := make([]progress.Commit, len(f.Commits[repo.String()]))
	copy(out, f.Commits[repo.String()])
	return out, nil
}

// CommitDiff implements progress.CommitSource.
func (f *CommitSource) CommitDiff(_ context.Context, _ progress.Repository, sha string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DiffCalls = append(f.DiffCalls, sha)
	if err := f.DiffErrs[sha]; err != nil {
		return "", err
	}
	return f.Diffs[sha], nil
}

// Completion answers requests with Respond, or Reply when Respond is nil.
type Completion struct {
	mu sync.Mutex

	Reply   string
	Err     error
	Respond func(req progress.CompletionRequest) (string, error)

	Requests []progress.CompletionRequest
}

// Complete implements progress.CompletionService.
func (f *Completion) Complete(_ context.Context, req progress.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	respond := f.Respond
	f.mu.Unlock()

	if respond != nil {
		return respond(req)
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

// Calls returns the number of requests received.
func (f *Completion) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// Store is an in-memory worksheet grid addressed with A1 ranges.
type Store struct {
	mu sync.Mutex

	Grid     [][]string
	ReadErr  error
	WriteErr error

	Writes []string
}

// NewStore returns a store seeded with rows (header first).
func NewStore(rows ...[]string) *Store {
	s := &Store{}
	for _, r := range rows {
		s.Grid = append(s.Grid, append([]string(nil), r...))
	}
	return s
}

// ReadRange implements progress.TabularStore.
func (s *Store) ReadRange(_ context.Context, rng string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	r, err := progress.ParseRange(rng)
	if err != nil {
		return nil, err
	}

	endRow := r.EndRow
	if endRow < 0 || endRow >= len(s.Grid) {
		endRow = len(s.Grid) - 1
	}
	var out [][]string
	for i := r.StartRow; i <= endRow; i++ {
		row := s.Grid[i]
		endCol := r.EndCol
		if endCol < 0 || endCol >= len(row) {
			endCol = len(row) - 1
		}
		var cells []string
		if r.StartCol <= endCol {
			cells = append(cells, row[r.StartCol:endCol+1]...)
		}
		out = append(out, trimRow(cells))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// WriteRange implements progress.TabularStore.
func (s *Store) WriteRange(_ context.Context, rng string, values [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	r, err := progress.ParseRange(rng)
	if err != nil {
		return err
	}
	s.Writes = append(s.Writes, rng)

	for i, vals := range values {
		row := r.StartRow + i
		if r.EndRow >= 0 && row > r.EndRow {
			return fmt.Errorf("write to %s overflows range at row %d", rng, row+1)
		}
		for len(s.Grid) <= row {
			s.Grid = append(s.Grid, nil)
		}
		for j, v := range vals {
			col := r.StartCol + j
			for len(s.Grid[row]) <= col {
				s.Grid[row] = append(s.Grid[row], "")
			}
			s.Grid[row][col] = v
		}
	}
	return nil
}

// Cell returns the value at 0-based row/col, or "" when out of bounds.
func (s *Store) Cell(row, col int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row >= len(s.Grid) || col >= len(s.Grid[row]) {
		return ""
	}
	return s.Grid[row][col]
}

// Header returns a copy of the first row.
func (s *Store) Header() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Grid) == 0 {
		return nil
	}
	return append([]string(nil), s.Grid[0]...)
}

func trimRow(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}
