package secrets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// Result is a scrubbed diff plus what was removed. Secret values are never
// retained.
type Result struct {
	Content    string
	Redactions int
	RuleCounts map[string]int
}

// Scrubber replaces detected secrets with [REDACTED:<rule>] markers.
// A disabled Scrubber passes content through unchanged.
type Scrubber struct {
	enabled   bool
	detector  *detect.Detector
	allowlist *Allowlist
}

// NewScrubber builds the Gitleaks detector once for the whole run.
func NewScrubber(cfg config.SecretsConfig) (*Scrubber, error) {
	if !cfg.Enabled {
		return &Scrubber{}, nil
	}

	allowlist, err := LoadAllowlist(cfg.AllowlistPath)
	if err != nil {
		return nil, fmt.Errorf("loading allowlist: %w", err)
	}

	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("creating secret detector: %w", err)
	}
	allowlist.apply(&detector.Config)

	return &Scrubber{
		enabled:   true,
		detector:  detector,
		allowlist: allowlist,
	}, nil
}

// Enabled reports whether scrubbing is active.
func (s *Scrubber) Enabled() bool {
	return s != nil && s.enabled
}

// Scrub redacts secrets in a diff. File sections whose path is allowlisted
// are dropped before scanning.
func (s *Scrubber) Scrub(diff string) (Result, error) {
	res := Result{Content: diff, RuleCounts: map[string]int{}}
	if !s.Enabled() || strings.TrimSpace(diff) == "" {
		return res, nil
	}

	content := s.dropAllowlistedFiles(diff)
	res.Content = content

	secrets := make(map[string]string) // secret -> rule
	for _, f := range s.detector.DetectString(content) {
		secret := f.Secret
		if secret == "" {
			secret = f.Match
		}
		if secret == "" {
			continue
		}
		res.Redactions++
		res.RuleCounts[f.RuleID]++
		secrets[secret] = f.RuleID
	}
	if len(secrets) == 0 {
		return res, nil
	}

	// Longest first so a secret containing another is replaced whole.
	ordered := make([]string, 0, len(secrets))
	for secret := range secrets {
		ordered = append(ordered, secret)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})
	for _, secret := range ordered {
		content = strings.ReplaceAll(content, secret, "[REDACTED:"+secrets[secret]+"]")
	}
	res.Content = content
	return res, nil
}

// dropAllowlistedFiles removes "+++ <path>" sections for allowlisted paths.
func (s *Scrubber) dropAllowlistedFiles(diff string) string {
	if s.allowlist == nil || len(s.allowlist.Paths) == 0 {
		return diff
	}

	var b strings.Builder
	keep := true
	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, "+++ ") {
			keep = !s.allowlist.skipsPath(strings.TrimSpace(strings.TrimPrefix(line, "+++ ")))
		}
		if keep {
			b.WriteString(line)
		}
	}
	return b.String()
}
