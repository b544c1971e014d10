package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Sheets.SpreadsheetID = "sheet-123"
	cfg.Repositories = []RepositoryConfig{{Owner: "acme", Name: "api", Branch: "feature"}}
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "main", cfg.GitHub.BaseBranch)
	assert.Equal(t, "Sheet1!A:E", cfg.Sheets.Range)
	assert.Equal(t, "Sheet1", cfg.Sheets.Worksheet)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, MatchModeHeuristic, cfg.Matching.Mode)
	assert.Equal(t, 2, cfg.Matching.MinScore)
	assert.Equal(t, 3, cfg.Matching.MinTokenLength)
	assert.Equal(t, 200, cfg.Summarizer.MaxTokens)
	assert.Equal(t, 400, cfg.Predictor.MaxTokens)
	assert.True(t, cfg.Secrets.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout.Duration())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no repositories is allowed", mutate: func(c *Config) { c.Repositories = nil }},
		{name: "local repository without owner", mutate: func(c *Config) {
			c.Repositories = []RepositoryConfig{{Path: "/src/api", Branch: "feature"}}
		}},
		{name: "missing sheet id", mutate: func(c *Config) { c.Sheets.SpreadsheetID = "" }, wantErr: "sheet_id"},
		{name: "missing worksheet", mutate: func(c *Config) { c.Sheets.Worksheet = "" }, wantErr: "worksheet"},
		{name: "bad auth mode", mutate: func(c *Config) { c.Sheets.AuthMode = "magic" }, wantErr: "auth_mode"},
		{name: "repository without name", mutate: func(c *Config) {
			c.Repositories = []RepositoryConfig{{Owner: "acme"}}
		}, wantErr: "repositories[0]"},
		{name: "missing base branch", mutate: func(c *Config) { c.GitHub.BaseBranch = "" }, wantErr: "base_branch"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "cohere" }, wantErr: "llm.provider"},
		{name: "negative rate", mutate: func(c *Config) { c.LLM.RequestsPerSecond = -1 }, wantErr: "requests_per_second"},
		{name: "unknown mode", mutate: func(c *Config) { c.Matching.Mode = "fuzzy" }, wantErr: "matching.mode"},
		{name: "zero min score", mutate: func(c *Config) { c.Matching.MinScore = 0 }, wantErr: "min_score"},
		{name: "zero token length", mutate: func(c *Config) { c.Matching.MinTokenLength = 0 }, wantErr: "min_token_length"},
		{name: "negative diff cap", mutate: func(c *Config) { c.Summarizer.MaxDiffBytes = -1 }, wantErr: "max_diff_bytes"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Normalize(t *testing.T) {
	cfg := validConfig()
	cfg.GitHub.DefaultBranch = "develop"
	cfg.LLM.Provider = " OpenAI "
	cfg.Matching.Mode = "Pattern"
	cfg.Repositories = []RepositoryConfig{
		{Owner: " acme ", Name: "api "},
		{Owner: "acme", Name: "web", Branch: "release"},
	}

	cfg.normalize()

	assert.Equal(t, "acme", cfg.Repositories[0].Owner)
	assert.Equal(t, "api", cfg.Repositories[0].Name)
	assert.Equal(t, "develop", cfg.Repositories[0].Branch)
	assert.Equal(t, "release", cfg.Repositories[1].Branch)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, MatchModePattern, cfg.Matching.Mode)
}

func TestSecret_NeverPrints(t *testing.T) {
	s := Secret("ghp_abcdef")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "ghp_abcdef", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(struct{ Token Secret }{Token: s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Token":"[REDACTED]"}`, string(data))

	text, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]", string(text))

	assert.Equal(t, "", Secret("").String())
	assert.False(t, Secret("").IsSet())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("45s")))
	assert.Equal(t, 45*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
