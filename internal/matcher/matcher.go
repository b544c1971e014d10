// Package matcher decides which commits relate to a task.
//
// Two modes are supported. Heuristic mode (the default) relates a commit
// when enough distinct task-name tokens occur in its message, or when any
// task keyword occurs in it. The keyword cell is split on commas and each
// term is tried on its own, so "auth, login" relates a message that only
// mentions login; a cell holding one keyword behaves as a single substring
// test. Pattern mode compiles the keyword list into a
// word-boundary pattern and relates only commits the pattern matches.
//
// Both modes first drop commits authored before the task start date,
// compared by UTC calendar day.
package matcher

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
)

// ErrNoPattern is returned in pattern mode when a task keyword yields no
// usable pattern. Such tasks are skipped.
var ErrNoPattern = errors.New("no keyword pattern")

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Matcher builds per-task matchers from the matching settings.
type Matcher struct {
	mode           string
	minScore       int
	minTokenLength int
}

// New creates a Matcher. Zero thresholds fall back to 2 and 3.
func New(cfg config.MatchingConfig) *Matcher {
	m := &Matcher{
		mode:           cfg.Mode,
		minScore:       cfg.MinScore,
		minTokenLength: cfg.MinTokenLength,
	}
	if m.mode == "" {
		m.mode = config.MatchModeHeuristic
	}
	if m.minScore < 1 {
		m.minScore = 2
	}
	if m.minTokenLength < 1 {
		m.minTokenLength = 3
	}
	return m
}

// Mode returns the matching mode.
func (m *Matcher) Mode() string {
	return m.mode
}

// ForTask prepares matching state for one task.
// In pattern mode it returns ErrNoPattern when the keyword compiles to nothing.
func (m *Matcher) ForTask(task progress.Task) (*TaskMatcher, error) {
	tm := &TaskMatcher{
		task:     task,
		minScore: m.minScore,
	}
	if m.mode == config.MatchModePattern {
		tm.pattern = CompilePattern(task.Keyword)
		if tm.pattern == nil {
			return nil, ErrNoPattern
		}
	} else {
		tm.tokens = Tokenize(task.Name, m.minTokenLength)
	}
	tm.keywords = SplitKeywords(task.Keyword)
	return tm, nil
}

// TaskMatcher matches commits against a single task.
type TaskMatcher struct {
	task     progress.Task
	tokens   []string
	keywords []string
	pattern  *regexp.Regexp
	minScore int
}

// Tokens returns the significant task-name tokens.
func (tm *TaskMatcher) Tokens() []string {
	return tm.tokens
}

// Related reports whether msg relates to the task and, when a keyword
// decided it, which keyword term.
func (tm *TaskMatcher) Related(msg string) (bool, string) {
	if tm.pattern != nil {
		hit := tm.pattern.FindString(msg)
		if hit == "" {
			return false, ""
		}
		for _, kw := range tm.keywords {
			if strings.EqualFold(kw, hit) {
				return true, kw
			}
		}
		return true, hit
	}

	lower := strings.ToLower(msg)
	kw := matchKeyword(tm.keywords, lower)
	if kw != "" {
		return true, kw
	}
	return Score(tm.tokens, lower) >= tm.minScore, ""
}

// Match filters commits to the task window and keeps the related ones,
// preserving input order.
func (tm *TaskMatcher) Match(commits []progress.Commit) []progress.MatchedCommit {
	var out []progress.MatchedCommit
	for _, c := range Since(commits, tm.task.StartDate) {
		ok, kw := tm.Related(c.Message)
		if !ok {
			continue
		}
		c.Message = strings.TrimSpace(c.Message)
		out = append(out, progress.MatchedCommit{Commit: c, Keyword: kw})
	}
	return out
}

// Tokenize lowercases name and returns its distinct word tokens of at
// least minLen runes, in first-seen order.
func Tokenize(name string, minLen int) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range tokenPattern.FindAllString(strings.ToLower(name), -1) {
		if utf8.RuneCountInString(w) < minLen || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// Score counts tokens occurring as substrings of msg. msg must already be
// lowercase.
func Score(tokens []string, msg string) int {
	n := 0
	for _, tok := range tokens {
		if strings.Contains(msg, tok) {
			n++
		}
	}
	return n
}

// SplitKeywords splits a comma-separated keyword cell into trimmed,
// non-empty terms.
func SplitKeywords(keyword string) []string {
	var out []string
	for _, kw := range strings.Split(keyword, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// matchKeyword returns the first keyword that occurs case-insensitively
// in lowerMsg.
func matchKeyword(keywords []string, lowerMsg string) string {
	for _, kw := range keywords {
		if strings.Contains(lowerMsg, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

// CompilePattern builds a case-insensitive, word-bounded alternation from
// a comma-separated keyword list. It returns nil when no term survives
// trimming or the pattern does not compile.
func CompilePattern(keyword string) *regexp.Regexp {
	terms := SplitKeywords(keyword)
	if len(terms) == 0 {
		return nil
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil
	}
	return re
}
