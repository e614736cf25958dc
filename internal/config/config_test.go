package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{"08:00", 8, 0, false},
		{"23:59", 23, 59, false},
		{"00:00", 0, 0, false},
		{"8:00", 0, 0, true},
		{"08:60", 0, 0, true},
		{"24:00", 0, 0, true},
		{"0800", 0, 0, true},
		{"ab:cd", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, minute, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}

func validConfig() *Config {
	return &Config{
		GitHubToken:      "token",
		LLMProvider:      "anthropic",
		LLMAPIKey:        "key",
		ScheduleInterval: "daily",
		ScheduleTime:     "08:00",
		StorageType:      "sqlite",
		SQLitePath:       "./sentinel.db",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing token", func(c *Config) { c.GitHubToken = "" }, true},
		{"missing provider key", func(c *Config) { c.LLMAPIKey = "" }, true},
		{"ollama needs no key", func(c *Config) { c.LLMProvider = "ollama"; c.LLMAPIKey = "" }, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "bard" }, true},
		{"bad interval", func(c *Config) { c.ScheduleInterval = "hourly" }, true},
		{"bad time", func(c *Config) { c.ScheduleTime = "25:00" }, true},
		{"bad storage type", func(c *Config) { c.StorageType = "oracle" }, true},
		{"postgres without URL", func(c *Config) { c.StorageType = "postgres" }, true},
		{"postgres with URL", func(c *Config) {
			c.StorageType = "postgres"
			c.PostgresURL = "postgres://localhost/sentinel"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, apperrors.ErrCodeConfig, appErr.Code)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gh-token", cfg.GitHubToken)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, "anthropic-key", cfg.LLMAPIKey)
	assert.Equal(t, 4096, cfg.LLMMaxTokens)
	assert.Equal(t, "daily", cfg.ScheduleInterval)
	assert.Equal(t, "08:00", cfg.ScheduleTime)
	assert.Equal(t, "./reports", cfg.ReportDir)
	assert.Equal(t, "English", cfg.ReportLanguage)
	assert.Equal(t, "sqlite", cfg.StorageType)
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("DEEPSEEK_API_KEY", "deepseek-key")

	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	yaml := `
llm:
  provider: deepseek
  model: deepseek-chat
  max_tokens: 2048
report:
  output_dir: /tmp/reports
  language: Chinese
scheduler:
  interval: weekly
  time: "09:30"
subscriptions_file: /tmp/subs.json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "deepseek", cfg.LLMProvider)
	assert.Equal(t, "deepseek-key", cfg.LLMAPIKey)
	assert.Equal(t, "deepseek-chat", cfg.LLMModel)
	assert.Equal(t, 2048, cfg.LLMMaxTokens)
	assert.Equal(t, "/tmp/reports", cfg.ReportDir)
	assert.Equal(t, "Chinese", cfg.ReportLanguage)
	assert.Equal(t, "weekly", cfg.ScheduleInterval)
	assert.Equal(t, "09:30", cfg.ScheduleTime)
	assert.Equal(t, "/tmp/subs.json", cfg.SubscriptionsFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_BASE_URL", "http://127.0.0.1:11434")
	t.Setenv("SCHEDULE_INTERVAL", "weekly")
	t.Setenv("REPORT_LANGUAGE", "Japanese")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, "http://127.0.0.1:11434", cfg.LLMBaseURL)
	assert.Equal(t, "weekly", cfg.ScheduleInterval)
	assert.Equal(t, "Japanese", cfg.ReportLanguage)
	assert.NoError(t, cfg.Validate())
}
