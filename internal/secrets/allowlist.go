package secrets

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// Allowlist holds content patterns that must never be treated as secrets,
// plus file path patterns whose diffs are not scanned.
//
// File format (gitleaks style):
//
//	[allowlist]
//	paths = ['''testdata/.*''']
//	regexes = ['''EXAMPLE_[A-Z]+''']
type Allowlist struct {
	Paths   []string
	Regexes []string
}

// LoadAllowlist reads an allowlist file. A missing file yields an empty
// allowlist; a malformed file or pattern is an error.
func LoadAllowlist(path string) (*Allowlist, error) {
	if path == "" {
		return &Allowlist{}, nil
	}

	var doc struct {
		Allowlist struct {
			Paths   []string
			Regexes []string
		}
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &Allowlist{}, nil
		}
		return nil, fmt.Errorf("failed to stat allowlist %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	for _, pattern := range doc.Allowlist.Paths {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: invalid path pattern '%s' in %s: %v",
				ErrInvalidRegex, pattern, path, err)
		}
	}
	for _, pattern := range doc.Allowlist.Regexes {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: invalid content pattern '%s' in %s: %v",
				ErrInvalidRegex, pattern, path, err)
		}
	}

	return &Allowlist{
		Paths:   doc.Allowlist.Paths,
		Regexes: doc.Allowlist.Regexes,
	}, nil
}

// apply merges the allowlist into a Gitleaks config. Patterns were
// validated by LoadAllowlist.
func (a *Allowlist) apply(cfg *gitleaksConfig.Config) {
	if a == nil || (len(a.Paths) == 0 && len(a.Regexes) == 0) {
		return
	}
	entry := &gitleaksConfig.Allowlist{
		Description: "taskpulse allowlist",
	}
	for _, pattern := range a.Paths {
		entry.Paths = append(entry.Paths, (*gitleaksRegexp.Regexp)(regexp.MustCompile(pattern)))
	}
	for _, pattern := range a.Regexes {
		entry.Regexes = append(entry.Regexes, (*gitleaksRegexp.Regexp)(regexp.MustCompile(pattern)))
	}
	cfg.Allowlists = append(cfg.Allowlists, entry)
}

// skipsPath reports whether a diffed file matches a path pattern.
func (a *Allowlist) skipsPath(file string) bool {
	if a == nil {
		return false
	}
	for _, pattern := range a.Paths {
		if regexp.MustCompile(pattern).MatchString(file) {
			return true
		}
	}
	return false
}
