package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE_PATH", filepath.Join(t.TempDir(), "missing.env"))
	for _, name := range []string{
		"JIRA_URL", "JIRA_DOMAIN", "JIRA_EMAIL", "JIRA_TOKEN", "JIRA_PROJECT_KEY",
		"JIRA_VERSION_FILTER_PREFIX", "JIRA_TEAM_NAMES", "JIRA_TEAM_FIELD", "JIRA_BRAND_FIELD",
		"COPY_AI_BASE_URL", "COPY_AI_TOKEN", "COPY_AI_WORKFLOW_ID",
		"SPARK_POLL_INTERVAL", "SPARK_POLL_MAX_ATTEMPTS", "SPARK_CONCURRENCY", "SPARK_SKIP_FAILED",
		"SPARK_CACHE_BACKEND", "SPARK_CACHE_DIR", "SPARK_SQLITE_PATH", "REDIS_URL",
		"SPARK_EMAIL_DIR", "SPARK_EMAIL_FROM", "SPARK_EMAIL_TO",
		"GITHUB_TOKEN", "GITHUB_DOMAIN", "GITHUB_OWNER", "GITHUB_REPO",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	isolateEnv(t)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "customfield_18834", config.Jira.TeamField)
	assert.Equal(t, "customfield_13301", config.Jira.BrandField)
	assert.Equal(t, "https://api.copy.ai/api", config.CopyAI.BaseURL)
	assert.Equal(t, 3*time.Second, config.CopyAI.PollInterval)
	assert.Equal(t, 200, config.CopyAI.MaxPollAttempts)
	assert.Equal(t, 1, config.Report.Concurrency)
	assert.False(t, config.Report.SkipFailedSummaries)
	assert.Equal(t, "file", config.Cache.Backend)
	assert.Equal(t, "./tmp", config.Cache.Dir)
	assert.Equal(t, "github.com", config.GitHub.Domain)
	assert.Empty(t, config.Jira.TeamNames)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JIRA_DOMAIN", "acme")
	t.Setenv("JIRA_EMAIL", "dev@acme.test")
	t.Setenv("JIRA_TOKEN", "secret-token")
	t.Setenv("JIRA_TEAM_NAMES", "Bread Bakers, Cheese Crafters,,Chocolate Artisans")
	t.Setenv("SPARK_POLL_INTERVAL", "250ms")
	t.Setenv("SPARK_CONCURRENCY", "4")
	t.Setenv("SPARK_SKIP_FAILED", "true")
	t.Setenv("SPARK_CACHE_BACKEND", "SQLite")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://acme.atlassian.net", config.Jira.URL)
	assert.Equal(t, []string{"Bread Bakers", "Cheese Crafters", "Chocolate Artisans"}, config.Jira.TeamNames)
	assert.Equal(t, 250*time.Millisecond, config.CopyAI.PollInterval)
	assert.Equal(t, 4, config.Report.Concurrency)
	assert.True(t, config.Report.SkipFailedSummaries)
	assert.Equal(t, "sqlite", config.Cache.Backend)
	require.NoError(t, ValidateJiraConfig(config))
}

func TestLoadConfigExplicitURLWins(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JIRA_URL", "https://jira.example.com")
	t.Setenv("JIRA_DOMAIN", "acme")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://jira.example.com", config.Jira.URL)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SPARK_CACHE_BACKEND", "memcached")

	config, err := LoadConfig()
	assert.Error(t, err)
	assert.Nil(t, config)
}

func TestValidateJiraConfig(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		email   string
		token   string
		missing string
	}{
		{name: "All fields present", url: "https://jira.example.com", email: "a@b.c", token: "t"},
		{name: "Missing URL", email: "a@b.c", token: "t", missing: "JIRA_DOMAIN"},
		{name: "Missing email", url: "https://jira.example.com", token: "t", missing: "JIRA_EMAIL"},
		{name: "Missing token", url: "https://jira.example.com", email: "a@b.c", missing: "JIRA_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{Jira: JiraConfig{URL: tt.url, Email: tt.email, Token: tt.token}}
			err := ValidateJiraConfig(config)
			if tt.missing == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigurationMissing))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestValidateCopyAIConfig(t *testing.T) {
	err := ValidateCopyAIConfig(&Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Contains(t, err.Error(), "COPY_AI_TOKEN")
	assert.Contains(t, err.Error(), "COPY_AI_WORKFLOW_ID")

	assert.NoError(t, ValidateCopyAIConfig(&Config{CopyAI: CopyAIConfig{Token: "t", WorkflowID: "wf"}}))
}

func TestValidateVersionConfig(t *testing.T) {
	config := &Config{Jira: JiraConfig{URL: "https://jira.example.com", Email: "a@b.c", Token: "t"}}
	err := ValidateVersionConfig(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JIRA_PROJECT_KEY")

	config.Jira.ProjectKey = "WEB"
	config.Jira.VersionFilterPrefix = "Web"
	assert.NoError(t, ValidateVersionConfig(config))
}

func TestValidateGitHubConfig(t *testing.T) {
	err := ValidateGitHubConfig(&Config{GitHub: GitHubConfig{Token: "t"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Contains(t, err.Error(), "GITHUB_OWNER")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"A", "B"}, SplitList(" A ,B, "))
}
