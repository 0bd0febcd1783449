// Package config provides centralized configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/danielolaszy/spark/internal/logging"
)

// ErrConfigurationMissing is returned when required settings are absent.
var ErrConfigurationMissing = errors.New("configuration missing")

const defaultEnvPath = "config/.env"

// Config holds all configuration parameters for the application.
// It is assembled once at startup and passed to each component.
type Config struct {
	Jira   JiraConfig
	CopyAI CopyAIConfig
	Report ReportConfig
	Cache  CacheConfig
	Email  EmailConfig
	GitHub GitHubConfig
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL                 string
	Email               string
	Token               string
	ProjectKey          string
	VersionFilterPrefix string
	TeamNames           []string
	TeamField           string
	BrandField          string
}

// CopyAIConfig holds the summarization workflow settings.
type CopyAIConfig struct {
	BaseURL         string
	Token           string
	WorkflowID      string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// ReportConfig controls the release aggregation.
type ReportConfig struct {
	Concurrency         int
	SkipFailedSummaries bool
}

// CacheConfig selects and locates the durable cache.
type CacheConfig struct {
	Backend    string
	Dir        string
	SQLitePath string
	RedisURL   string
}

// EmailConfig holds settings for the generated .eml file.
type EmailConfig struct {
	Dir  string
	From string
	To   string
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
	Owner  string
	Repo   string
}

// LoadConfig loads the .env file (if any) and builds the configuration
// from environment variables.
func LoadConfig() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindings := map[string]string{
		"jira.url":              "JIRA_URL",
		"jira.domain":           "JIRA_DOMAIN",
		"jira.email":            "JIRA_EMAIL",
		"jira.token":            "JIRA_TOKEN",
		"jira.project_key":      "JIRA_PROJECT_KEY",
		"jira.version_prefix":   "JIRA_VERSION_FILTER_PREFIX",
		"jira.team_names":       "JIRA_TEAM_NAMES",
		"jira.team_field":       "JIRA_TEAM_FIELD",
		"jira.brand_field":      "JIRA_BRAND_FIELD",
		"copyai.base_url":       "COPY_AI_BASE_URL",
		"copyai.token":          "COPY_AI_TOKEN",
		"copyai.workflow_id":    "COPY_AI_WORKFLOW_ID",
		"copyai.poll_interval":  "SPARK_POLL_INTERVAL",
		"copyai.poll_attempts":  "SPARK_POLL_MAX_ATTEMPTS",
		"report.concurrency":    "SPARK_CONCURRENCY",
		"report.skip_failed":    "SPARK_SKIP_FAILED",
		"cache.backend":         "SPARK_CACHE_BACKEND",
		"cache.dir":             "SPARK_CACHE_DIR",
		"cache.sqlite_path":     "SPARK_SQLITE_PATH",
		"cache.redis_url":       "REDIS_URL",
		"email.dir":             "SPARK_EMAIL_DIR",
		"email.from":            "SPARK_EMAIL_FROM",
		"email.to":              "SPARK_EMAIL_TO",
		"github.token":          "GITHUB_TOKEN",
		"github.domain":         "GITHUB_DOMAIN",
		"github.owner":          "GITHUB_OWNER",
		"github.repo":           "GITHUB_REPO",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetDefault("jira.team_field", "customfield_18834")
	v.SetDefault("jira.brand_field", "customfield_13301")
	v.SetDefault("copyai.base_url", "https://api.copy.ai/api")
	v.SetDefault("copyai.poll_interval", 3*time.Second)
	v.SetDefault("copyai.poll_attempts", 200)
	v.SetDefault("report.concurrency", 1)
	v.SetDefault("report.skip_failed", false)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "./tmp")
	v.SetDefault("cache.sqlite_path", "./tmp/spark.db")
	v.SetDefault("email.dir", "/tmp/emails")
	v.SetDefault("email.from", "demo@spark.local")
	v.SetDefault("email.to", "demo@spark.local")
	v.SetDefault("github.domain", "github.com")

	jiraURL := v.GetString("jira.url")
	if jiraURL == "" && v.GetString("jira.domain") != "" {
		jiraURL = fmt.Sprintf("https://%s.atlassian.net", v.GetString("jira.domain"))
	}

	config := &Config{
		Jira: JiraConfig{
			URL:                 jiraURL,
			Email:               v.GetString("jira.email"),
			Token:               v.GetString("jira.token"),
			ProjectKey:          v.GetString("jira.project_key"),
			VersionFilterPrefix: v.GetString("jira.version_prefix"),
			TeamNames:           SplitList(v.GetString("jira.team_names")),
			TeamField:           v.GetString("jira.team_field"),
			BrandField:          v.GetString("jira.brand_field"),
		},
		CopyAI: CopyAIConfig{
			BaseURL:         v.GetString("copyai.base_url"),
			Token:           v.GetString("copyai.token"),
			WorkflowID:      v.GetString("copyai.workflow_id"),
			PollInterval:    v.GetDuration("copyai.poll_interval"),
			MaxPollAttempts: v.GetInt("copyai.poll_attempts"),
		},
		Report: ReportConfig{
			Concurrency:         v.GetInt("report.concurrency"),
			SkipFailedSummaries: v.GetBool("report.skip_failed"),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(v.GetString("cache.backend")),
			Dir:        v.GetString("cache.dir"),
			SQLitePath: v.GetString("cache.sqlite_path"),
			RedisURL:   v.GetString("cache.redis_url"),
		},
		Email: EmailConfig{
			Dir:  v.GetString("email.dir"),
			From: v.GetString("email.from"),
			To:   v.GetString("email.to"),
		},
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
			Owner:  v.GetString("github.owner"),
			Repo:   v.GetString("github.repo"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	logging.Debug("configuration loaded",
		"jira_url", config.Jira.URL,
		"jira_token", logging.MaskSensitive(config.Jira.Token),
		"copyai_token", logging.MaskSensitive(config.CopyAI.Token),
		"cache_backend", config.Cache.Backend,
		"team_count", len(config.Jira.TeamNames))

	return config, nil
}

func loadDotEnv() {
	envFile := os.Getenv("ENV_FILE_PATH")
	if envFile == "" {
		envFile = defaultEnvPath
	}

	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			logging.Debug("no .env file found, using process environment", "path", envFile)
		}
	}
}

// SplitList splits a comma-separated value, trimming blanks and dropping empty items.
func SplitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// validateConfig checks values that are wrong regardless of which command runs.
func validateConfig(config *Config) error {
	switch config.Cache.Backend {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("unsupported cache backend %q", config.Cache.Backend)
	}

	if config.Report.Concurrency < 1 {
		config.Report.Concurrency = 1
	}

	if config.CopyAI.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", config.CopyAI.PollInterval)
	}

	return nil
}

func missing(vars []string) error {
	if len(vars) > 0 {
		return fmt.Errorf("%w: missing required environment variables: %s",
			ErrConfigurationMissing, strings.Join(vars, ", "))
	}
	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_DOMAIN")
	}
	if config.Jira.Email == "" {
		missingVars = append(missingVars, "JIRA_EMAIL")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	return missing(missingVars)
}

// ValidateVersionConfig validates what the fix-version listing needs.
func ValidateVersionConfig(config *Config) error {
	if err := ValidateJiraConfig(config); err != nil {
		return err
	}

	var missingVars []string
	if config.Jira.ProjectKey == "" {
		missingVars = append(missingVars, "JIRA_PROJECT_KEY")
	}
	if config.Jira.VersionFilterPrefix == "" {
		missingVars = append(missingVars, "JIRA_VERSION_FILTER_PREFIX")
	}

	return missing(missingVars)
}

// ValidateCopyAIConfig validates the summarization workflow configuration.
func ValidateCopyAIConfig(config *Config) error {
	var missingVars []string

	if config.CopyAI.Token == "" {
		missingVars = append(missingVars, "COPY_AI_TOKEN")
	}
	if config.CopyAI.WorkflowID == "" {
		missingVars = append(missingVars, "COPY_AI_WORKFLOW_ID")
	}

	return missing(missingVars)
}

// ValidateGitHubConfig validates GitHub-specific configuration.
func ValidateGitHubConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}
	if config.GitHub.Owner == "" {
		missingVars = append(missingVars, "GITHUB_OWNER")
	}
	if config.GitHub.Repo == "" {
		missingVars = append(missingVars, "GITHUB_REPO")
	}

	return missing(missingVars)
}
