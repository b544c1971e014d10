// Package config provides configuration loading for taskpulse.
//
// A Config is built once at process start (defaults, then YAML file, then
// environment) and handed to every stage explicitly. Nothing below cmd/ reads
// the process environment on its own.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Matching modes.
const (
	MatchModeHeuristic = "heuristic"
	MatchModePattern   = "pattern"
)

// Completion providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Sheets auth modes.
const (
	SheetsAuthOAuth          = "oauth"
	SheetsAuthServiceAccount = "service_account"
)

// Config holds the complete taskpulse configuration.
type Config struct {
	GitHub       GitHubConfig       `koanf:"github" yaml:"github"`
	Repositories []RepositoryConfig `koanf:"repositories" yaml:"repositories"`
	Sheets       SheetsConfig       `koanf:"sheets" yaml:"sheets"`
	LLM          LLMConfig          `koanf:"llm" yaml:"llm"`
	Matching     MatchingConfig     `koanf:"matching" yaml:"matching"`
	Summarizer   SummarizerConfig   `koanf:"summarizer" yaml:"summarizer"`
	Predictor    PredictorConfig    `koanf:"predictor" yaml:"predictor"`
	Secrets      SecretsConfig      `koanf:"secrets" yaml:"secrets"`
	Logging      LoggingConfig      `koanf:"logging" yaml:"logging"`
	Telemetry    TelemetryConfig    `koanf:"telemetry" yaml:"telemetry"`
	Metrics      MetricsConfig      `koanf:"metrics" yaml:"metrics"`
}

// GitHubConfig holds source-control API settings.
type GitHubConfig struct {
	Token         Secret   `koanf:"token" yaml:"token"`
	BaseURL       string   `koanf:"base_url" yaml:"base_url"` // GitHub Enterprise API root, empty for github.com
	BaseBranch    string   `koanf:"base_branch" yaml:"base_branch"`
	DefaultBranch string   `koanf:"default_branch" yaml:"default_branch"`
	Timeout       Duration `koanf:"timeout" yaml:"timeout"`
}

// RepositoryConfig names one repository to scan.
// Either Owner/Name (GitHub) or Path (local clone) must be set.
type RepositoryConfig struct {
	Owner  string `koanf:"owner" yaml:"owner"`
	Name   string `koanf:"name" yaml:"name"`
	Branch string `koanf:"branch" yaml:"branch"`
	Path   string `koanf:"path" yaml:"path,omitempty"`
}

// IsLocal reports whether the repository is read from a local clone.
func (r RepositoryConfig) IsLocal() bool {
	return r.Path != ""
}

// SheetsConfig holds task source and result sink settings.
type SheetsConfig struct {
	SpreadsheetID   string   `koanf:"sheet_id" yaml:"sheet_id"`
	Range           string   `koanf:"range" yaml:"range"`
	Worksheet       string   `koanf:"worksheet" yaml:"worksheet"`
	AuthMode        string   `koanf:"auth_mode" yaml:"auth_mode"`
	CredentialsFile string   `koanf:"credentials_file" yaml:"credentials_file"`
	TokenFile       string   `koanf:"token_file" yaml:"token_file"`
	Timeout         Duration `koanf:"timeout" yaml:"timeout"`
}

// LLMConfig holds completion service settings.
type LLMConfig struct {
	Provider          string   `koanf:"provider" yaml:"provider"`
	Model             string   `koanf:"model" yaml:"model"`
	APIKey            Secret   `koanf:"api_key" yaml:"api_key"`
	BaseURL           string   `koanf:"base_url" yaml:"base_url"`
	RequestsPerSecond float64  `koanf:"requests_per_second" yaml:"requests_per_second"`
	Timeout           Duration `koanf:"timeout" yaml:"timeout"`
}

// MatchingConfig tunes the commit matcher.
type MatchingConfig struct {
	Mode           string `koanf:"mode" yaml:"mode"`
	MinScore       int    `koanf:"min_score" yaml:"min_score"`
	MinTokenLength int    `koanf:"min_token_length" yaml:"min_token_length"`
}

// SummarizerConfig tunes commit summarization requests.
type SummarizerConfig struct {
	Temperature  float64 `koanf:"temperature" yaml:"temperature"`
	MaxTokens    int     `koanf:"max_tokens" yaml:"max_tokens"`
	MaxDiffBytes int     `koanf:"max_diff_bytes" yaml:"max_diff_bytes"`
}

// PredictorConfig tunes progress prediction requests.
type PredictorConfig struct {
	Temperature float64 `koanf:"temperature" yaml:"temperature"`
	MaxTokens   int     `koanf:"max_tokens" yaml:"max_tokens"`
}

// SecretsConfig controls diff scrubbing.
type SecretsConfig struct {
	Enabled       bool   `koanf:"enabled" yaml:"enabled"`
	AllowlistPath string `koanf:"allowlist_path" yaml:"allowlist_path"`
}

// LoggingConfig holds the user-facing logging knobs.
type LoggingConfig struct {
	Level    string `koanf:"level" yaml:"level"`
	Format   string `koanf:"format" yaml:"format"`
	Output   string `koanf:"output" yaml:"output"` // stderr, stdout, or a file path
	Sampling bool   `koanf:"sampling" yaml:"sampling"`
}

// TelemetryConfig holds OpenTelemetry settings. Logs additionally ships
// log entries over OTLP next to the local log output.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled" yaml:"enabled"`
	Logs        bool    `koanf:"logs" yaml:"logs"`
	Endpoint    string  `koanf:"endpoint" yaml:"endpoint"`
	Protocol    string  `koanf:"protocol" yaml:"protocol"`
	Insecure    bool    `koanf:"insecure" yaml:"insecure"`
	ServiceName string  `koanf:"service_name" yaml:"service_name"`
	SampleRate  float64 `koanf:"sample_rate" yaml:"sample_rate"`
}

// MetricsConfig holds Prometheus Pushgateway settings.
type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url" yaml:"pushgateway_url"`
	Job            string `koanf:"job" yaml:"job"`
}

// Default returns a Config populated with the stock defaults.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseBranch:    "main",
			DefaultBranch: "main",
			Timeout:       Duration(30 * time.Second),
		},
		Sheets: SheetsConfig{
			Range:           "Sheet1!A:E",
			Worksheet:       "Sheet1",
			AuthMode:        SheetsAuthOAuth,
			CredentialsFile: "config/credentials.json",
			TokenFile:       "config/token.json",
			Timeout:         Duration(30 * time.Second),
		},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-4",
			Timeout:  Duration(60 * time.Second),
		},
		Matching: MatchingConfig{
			Mode:           MatchModeHeuristic,
			MinScore:       2,
			MinTokenLength: 3,
		},
		Summarizer: SummarizerConfig{
			Temperature:  0.3,
			MaxTokens:    200,
			MaxDiffBytes: 60000,
		},
		Predictor: PredictorConfig{
			Temperature: 0.3,
			MaxTokens:   400,
		},
		Secrets: SecretsConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
			ServiceName: "taskpulse",
			SampleRate:  1.0,
		},
		Metrics: MetricsConfig{
			Job: "taskpulse",
		},
	}
}

// normalize fills per-repository defaults that depend on other sections.
func (c *Config) normalize() {
	for i := range c.Repositories {
		r := &c.Repositories[i]
		r.Owner = strings.TrimSpace(r.Owner)
		r.Name = strings.TrimSpace(r.Name)
		r.Branch = strings.TrimSpace(r.Branch)
		if r.Branch == "" {
			r.Branch = c.GitHub.DefaultBranch
		}
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Matching.Mode = strings.ToLower(strings.TrimSpace(c.Matching.Mode))
}

// Validate validates the configuration.
//
// Returns an error if:
//   - the spreadsheet id is missing
//   - a repository has neither owner/name nor a local path
//   - the LLM provider or matching mode is unknown
//   - matching thresholds are below 1
//   - the logging format is not json or console
func (c *Config) Validate() error {
	if c.Sheets.SpreadsheetID == "" {
		return errors.New("sheets.sheet_id is required")
	}
	if c.Sheets.Worksheet == "" {
		return errors.New("sheets.worksheet is required")
	}
	switch c.Sheets.AuthMode {
	case SheetsAuthOAuth, SheetsAuthServiceAccount:
	default:
		return fmt.Errorf("unknown sheets.auth_mode %q (must be oauth or service_account)", c.Sheets.AuthMode)
	}

	for i, r := range c.Repositories {
		if r.IsLocal() {
			continue
		}
		if r.Owner == "" || r.Name == "" {
			return fmt.Errorf("repositories[%d]: owner and name are required unless path is set", i)
		}
	}
	if c.GitHub.BaseBranch == "" {
		return errors.New("github.base_branch is required")
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown llm.provider %q (must be openai or anthropic)", c.LLM.Provider)
	}
	if c.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requests_per_second must be >= 0, got %v", c.LLM.RequestsPerSecond)
	}

	switch c.Matching.Mode {
	case MatchModeHeuristic, MatchModePattern:
	default:
		return fmt.Errorf("unknown matching.mode %q (must be heuristic or pattern)", c.Matching.Mode)
	}
	if c.Matching.MinScore < 1 {
		return fmt.Errorf("matching.min_score must be >= 1, got %d", c.Matching.MinScore)
	}
	if c.Matching.MinTokenLength < 1 {
		return fmt.Errorf("matching.min_token_length must be >= 1, got %d", c.Matching.MinTokenLength)
	}

	if c.Summarizer.MaxDiffBytes < 0 {
		return fmt.Errorf("summarizer.max_diff_bytes must be >= 0, got %d", c.Summarizer.MaxDiffBytes)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	return nil
}
