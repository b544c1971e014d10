// internal/logging/testing.go
package logging

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger whose entries are captured in memory. Entries are
// not encoded, so redaction does not apply to them.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger captures everything down to TraceLevel.
func NewTestLogger() *TestLogger {
	return NewTestLoggerAt(TraceLevel)
}

// NewTestLoggerAt captures entries at level and above.
func NewTestLoggerAt(level zapcore.Level) *TestLogger {
	core, observed := observer.New(level)
	return &TestLogger{
		Logger:   &Logger{zap: zap.New(core), config: NewDefaultConfig()},
		observed: observed,
	}
}

func (t *TestLogger) All() []observer.LoggedEntry {
	return t.observed.All()
}

func (t *TestLogger) FilterMessage(msg string) *observer.ObservedLogs {
	return t.observed.FilterMessage(msg)
}

func (t *TestLogger) Reset() {
	t.observed.TakeAll()
}

// Count returns how many entries at level contain msgContains.
func (t *TestLogger) Count(level zapcore.Level, msgContains string) int {
	return len(t.matching(level, msgContains))
}

func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msgContains string) {
	tb.Helper()
	if len(t.matching(level, msgContains)) == 0 {
		tb.Errorf("no %v entry containing %q; got %+v", level, msgContains, t.observed.All())
	}
}

func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msgContains string) {
	tb.Helper()
	if n := len(t.matching(level, msgContains)); n > 0 {
		tb.Errorf("found %d unexpected %v entries containing %q", n, level, msgContains)
	}
}

// AssertField checks that some entry with message msg carries key=expected.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, expected interface{}) {
	tb.Helper()
	for _, entry := range t.observed.FilterMessage(msg).All() {
		if v, ok := entry.ContextMap()[key]; ok && reflect.DeepEqual(v, expected) {
			return
		}
	}
	tb.Errorf("field %q=%v not found on %q", key, expected, msg)
}

// AssertNoSecrets fails if a captured message or string field matches the
// default redaction rules without having been redacted at the call site.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	rules := NewDefaultConfig().Redaction
	patterns := make([]*regexp.Regexp, 0, len(rules.Patterns))
	for _, p := range rules.Patterns {
		patterns = append(patterns, regexp.MustCompile(p))
	}
	leaks := func(s string) bool {
		for _, re := range patterns {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}

	for _, entry := range t.observed.All() {
		if leaks(entry.Message) {
			tb.Errorf("secret in message %q", entry.Message)
		}
		for _, f := range entry.Context {
			if f.Type != zapcore.StringType {
				continue
			}
			if isSensitiveKey(rules.Fields, f.Key) && f.String != "" && !strings.HasPrefix(f.String, "[REDACTED") {
				tb.Errorf("field %q not redacted", f.Key)
			}
			if leaks(f.String) {
				tb.Errorf("secret in field %q", f.Key)
			}
		}
	}
}

func (t *TestLogger) matching(level zapcore.Level, msgContains string) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, entry := range t.observed.All() {
		if entry.Level == level && strings.Contains(entry.Message, msgContains) {
			out = append(out, entry)
		}
	}
	return out
}

func isSensitiveKey(fields []string, key string) bool {
	key = strings.ToLower(key)
	for _, f := range fields {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}
