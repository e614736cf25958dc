package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
)

// Config holds the application configuration. It is constructed once at
// startup and passed into component constructors; nothing reads it from a
// global.
type Config struct {
	// GitHub
	GitHubToken string

	// LLM
	LLMProvider  string // "anthropic", "deepseek" or "ollama"
	LLMModel     string
	LLMMaxTokens int
	LLMAPIKey    string
	LLMBaseURL   string // openai-compatible or ollama endpoint

	// Reports
	ReportDir      string
	ReportLanguage string

	// Scheduler
	ScheduleInterval string // "daily" or "weekly"
	ScheduleTime     string // "HH:MM", host local time

	// Subscriptions
	SubscriptionsFile string

	// Report history storage
	StorageType string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// fileConfig mirrors the optional YAML configuration file
type fileConfig struct {
	LLM struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"llm"`
	Report struct {
		OutputDir string `yaml:"output_dir"`
		Language  string `yaml:"language"`
	} `yaml:"report"`
	Scheduler struct {
		Interval string `yaml:"interval"`
		Time     string `yaml:"time"`
	} `yaml:"scheduler"`
	SubscriptionsFile string `yaml:"subscriptions_file"`
	Storage           struct {
		Type        string `yaml:"type"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"storage"`
}

// Load loads the configuration from the optional YAML file at path and
// from environment variables. Credentials come only from the environment.
// An empty path falls back to sentinel.yaml if one exists.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		GitHubToken:       os.Getenv("GITHUB_TOKEN"),
		LLMProvider:       getEnv("LLM_PROVIDER", "anthropic"),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMMaxTokens:      getEnvInt("LLM_MAX_TOKENS", 4096),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		ReportDir:         getEnv("REPORT_DIR", "./reports"),
		ReportLanguage:    getEnv("REPORT_LANGUAGE", "English"),
		ScheduleInterval:  getEnv("SCHEDULE_INTERVAL", "daily"),
		ScheduleTime:      getEnv("SCHEDULE_TIME", "08:00"),
		SubscriptionsFile: getEnv("SUBSCRIPTIONS_FILE", "./subscriptions.json"),
		StorageType:       getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:        getEnv("SQLITE_PATH", "./sentinel.db"),
		PostgresURL:       getEnv("POSTGRES_URL", ""),
		APIPort:           getEnv("API_PORT", "8080"),
		APIHost:           getEnv("API_HOST", "localhost"),
		APIEndpoint:       getEnv("API_ENDPOINT", "http://localhost:8080"),
	}

	if path == "" {
		if _, err := os.Stat("sentinel.yaml"); err == nil {
			path = "sentinel.yaml"
		}
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	switch cfg.LLMProvider {
	case "anthropic":
		cfg.LLMAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "deepseek":
		cfg.LLMAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	}

	return cfg, nil
}

// mergeFile overlays values from a YAML configuration file
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setIfPresent(&c.LLMProvider, fc.LLM.Provider)
	setIfPresent(&c.LLMModel, fc.LLM.Model)
	setIfPresent(&c.LLMBaseURL, fc.LLM.BaseURL)
	if fc.LLM.MaxTokens > 0 {
		c.LLMMaxTokens = fc.LLM.MaxTokens
	}
	setIfPresent(&c.ReportDir, fc.Report.OutputDir)
	setIfPresent(&c.ReportLanguage, fc.Report.Language)
	setIfPresent(&c.ScheduleInterval, fc.Scheduler.Interval)
	setIfPresent(&c.ScheduleTime, fc.Scheduler.Time)
	setIfPresent(&c.SubscriptionsFile, fc.SubscriptionsFile)
	setIfPresent(&c.StorageType, fc.Storage.Type)
	setIfPresent(&c.SQLitePath, fc.Storage.SQLitePath)
	setIfPresent(&c.PostgresURL, fc.Storage.PostgresURL)

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return apperrors.NewConfigError("GITHUB_TOKEN", "GitHub token is required")
	}

	switch c.LLMProvider {
	case "anthropic", "deepseek":
		if c.LLMAPIKey == "" {
			return apperrors.NewConfigError("LLM_PROVIDER", fmt.Sprintf("API key for provider %q is required", c.LLMProvider))
		}
	case "ollama":
		// local endpoint, no credential
	default:
		return apperrors.NewConfigError("LLM_PROVIDER", "must be 'anthropic', 'deepseek' or 'ollama'")
	}

	if c.ScheduleInterval != string(domain.IntervalDaily) && c.ScheduleInterval != string(domain.IntervalWeekly) {
		return apperrors.NewConfigError("SCHEDULE_INTERVAL", "must be 'daily' or 'weekly'")
	}
	if _, _, err := ParseTimeOfDay(c.ScheduleTime); err != nil {
		return apperrors.NewConfigError("SCHEDULE_TIME", err.Error())
	}

	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return apperrors.NewConfigError("STORAGE_TYPE", "must be 'sqlite' or 'postgres'")
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return apperrors.NewConfigError("POSTGRES_URL", "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'")
	}

	return nil
}

// Interval returns the schedule interval as a domain type
func (c *Config) Interval() domain.Interval {
	return domain.Interval(c.ScheduleInterval)
}

// ParseTimeOfDay parses a "HH:MM" time-of-day string
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(s[:2])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	minute, err = strconv.Atoi(s[3:])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return hour, minute, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
