package logging

import (
	"testing"
	"time"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, OutputStderr, cfg.Output)
	assert.False(t, cfg.Sampling.Enabled)
	assert.Equal(t, time.Second, cfg.Sampling.Tick)
	assert.True(t, cfg.Redaction.Enabled)
	assert.Equal(t, "taskpulse", cfg.Fields["service"])
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "invalid format",
			mutate: func(c *Config) { c.Format = "xml" },
			errMsg: "format must be 'json' or 'console'",
		},
		{
			name:   "empty output",
			mutate: func(c *Config) { c.Output = "" },
			errMsg: "output must be",
		},
		{
			name: "invalid sampling tick",
			mutate: func(c *Config) {
				c.Sampling.Enabled = true
				c.Sampling.Tick = 0
			},
			errMsg: "sampling tick must be > 0",
		},
		{
			name:   "negative caller skip",
			mutate: func(c *Config) { c.Caller.Skip = -1 },
			errMsg: "caller skip must be >= 0",
		},
		{
			name:   "bad redaction pattern",
			mutate: func(c *Config) { c.Redaction.Patterns = []string{"("} },
			errMsg: "invalid redaction pattern",
		},
		{
			name:   "empty field value",
			mutate: func(c *Config) { c.Fields["env"] = "" },
			errMsg: `field "env" has empty value`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFromSettings(t *testing.T) {
	t.Run("maps settings", func(t *testing.T) {
		cfg, err := FromSettings(config.LoggingConfig{
			Level:    "trace",
			Format:   "json",
			Output:   "stdout",
			Sampling: true,
		})
		require.NoError(t, err)
		assert.Equal(t, TraceLevel, cfg.Level)
		assert.Equal(t, "json", cfg.Format)
		assert.Equal(t, OutputStdout, cfg.Output)
		assert.True(t, cfg.Sampling.Enabled)
	})

	t.Run("empty settings keep defaults", func(t *testing.T) {
		cfg, err := FromSettings(config.LoggingConfig{})
		require.NoError(t, err)
		assert.Equal(t, zapcore.InfoLevel, cfg.Level)
		assert.Equal(t, "console", cfg.Format)
	})

	t.Run("level is case insensitive", func(t *testing.T) {
		cfg, err := FromSettings(config.LoggingConfig{Level: "WARN"})
		require.NoError(t, err)
		assert.Equal(t, zapcore.WarnLevel, cfg.Level)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := FromSettings(config.LoggingConfig{Level: "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"trace", TraceLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := LevelFromString(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := LevelFromString("verbose")
	assert.Error(t, err)
}
