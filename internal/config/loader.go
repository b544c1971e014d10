package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every taskpulse environment variable.
	EnvPrefix = "TASKPULSE_"

	// maxLegacyRepos bounds the REPO_<n>_* lookup.
	maxLegacyRepos = 9
)

// legacyEnv maps the environment names used by earlier deployments onto
// config keys. TASKPULSE_* variables take precedence over these.
var legacyEnv = map[string]string{
	"GITHUB_TOKEN":      "github.token",
	"SHEET_ID":          "sheets.sheet_id",
	"SHEET_RANGE":       "sheets.range",
	"GOOGLE_TOKEN_PATH": "sheets.token_file",
}

// providerKeyEnv names the API key variable each completion provider reads
// when llm.api_key is not configured.
var providerKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. TASKPULSE_* environment variables (TASKPULSE_GITHUB_BASE_BRANCH, ...)
//  2. Legacy environment variables (GITHUB_TOKEN, SHEET_ID, REPO_1_OWNER, ...)
//  3. YAML config file (~/.config/taskpulse/config.yaml)
//  4. Defaults
//
// A missing file is not an error. An existing file must not be readable by
// group or others since it usually carries tokens.
//
// # Environment Variable Mapping
//
// The prefix is stripped and the remainder split on the first underscore:
//
//	TASKPULSE_GITHUB_BASE_BRANCH -> github.base_branch
//	TASKPULSE_LLM_API_KEY        -> llm.api_key
//	TASKPULSE_SHEETS_SHEET_ID    -> sheets.sheet_id
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	content, err := readConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment variables: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Repositories) == 0 {
		cfg.Repositories = legacyRepositories()
	}

	cfg.normalize()

	if !cfg.LLM.APIKey.IsSet() {
		if name, ok := providerKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = Secret(os.Getenv(name))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultPath returns ~/.config/taskpulse/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "taskpulse", "config.yaml"), nil
}

// readConfigFile returns the file content, or nil if the file does not exist.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	// Stat the open descriptor, not the path, to avoid a TOCTOU race.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o077 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}

// legacyRepositories builds the repository list from REPO_<n>_OWNER,
// REPO_<n>_NAME and REPO_<n>_BRANCH. Entries missing owner or name are dropped.
func legacyRepositories() []RepositoryConfig {
	var repos []RepositoryConfig
	for i := 1; i <= maxLegacyRepos; i++ {
		prefix := "REPO_" + strconv.Itoa(i) + "_"
		owner := os.Getenv(prefix + "OWNER")
		name := os.Getenv(prefix + "NAME")
		if strings.TrimSpace(owner) == "" || strings.TrimSpace(name) == "" {
			continue
		}
		repos = append(repos, RepositoryConfig{
			Owner:  owner,
			Name:   name,
			Branch: os.Getenv(prefix + "BRANCH"),
		})
	}
	return repos
}
