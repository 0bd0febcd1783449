package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/pkg/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.Config{Jira: config.JiraConfig{
		URL:   server.URL,
		Email: "dev@acme.test",
		Token: "token",
	}})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(&config.Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigurationMissing)
}

func TestSearchIssuesPaginates(t *testing.T) {
	var tokens []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/search/jql", r.URL.Path)
		assert.Equal(t, `fixVersion = "Web 1.2.0"`, r.URL.Query().Get("jql"))
		assert.Equal(t, "*all", r.URL.Query().Get("fields"))
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "dev@acme.test", user)

		token := r.URL.Query().Get("nextPageToken")
		tokens = append(tokens, token)

		if token == "p2" {
			_, _ = w.Write([]byte(`{"isLast": true, "issues": [
				{"key": "WEB-3", "fields": {"summary": "Issue 3"}}
			]}`))
			return
		}
		_, _ = w.Write([]byte(`{"isLast": false, "nextPageToken": "p2", "issues": [
			{"key": "WEB-1", "fields": {"summary": "Issue 1"}},
			{"key": "WEB-2", "fields": {"summary": "Issue 2"}}
		]}`))
	}))

	issues, err := client.SearchIssuesByFixVersion(context.Background(), "Web 1.2.0")
	require.NoError(t, err)
	require.Len(t, issues, 3)
	assert.Equal(t, "WEB-3", issues[2].Key)
	assert.Equal(t, "Issue 3", issues[2].Fields.Summary)
	assert.Equal(t, []string{"", "p2"}, tokens)
}

func TestSearchIssuesRejectsRepeatedPageToken(t *testing.T) {
	requests := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`{"isLast": false, "nextPageToken": "stuck", "issues": []}`))
	}))

	_, err := client.SearchIssues(context.Background(), "project = WEB")
	require.ErrorIs(t, err, ErrTrackerFetch)
	assert.Equal(t, 2, requests)
}

func TestSearchIssuesWrapsFailures(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages":["bad auth"]}`, http.StatusUnauthorized)
	}))

	_, err := client.SearchIssues(context.Background(), "project = WEB")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTrackerFetch)
}

func TestGetIssue(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/WEB-101", r.URL.Path)
		_, _ = w.Write([]byte(storyJSON))
	}))

	issue, err := client.GetIssue(context.Background(), "WEB-101")
	require.NoError(t, err)
	assert.Equal(t, "WEB-101", issue.Key)
	assert.Equal(t, "Bread Bakers", issue.Fields.CustomValue("customfield_18834"))
}

func TestGetIssueNotFound(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.GetIssue(context.Background(), "WEB-404")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTrackerFetch)
}

func TestListVersions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/project/WEB", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"key": "WEB",
			"versions": []map[string]any{
				{"id": "1", "name": "Project 2.0.0", "releaseDate": "2023-01-02", "released": true},
				{"id": "2", "name": "Project 1.0.0", "releaseDate": "2023-01-01", "released": true},
				{"id": "3", "name": "Project 3.0.0", "releaseDate": "2023-01-03"},
				{"id": "4", "name": "Other 9.0.0", "releaseDate": "2023-01-04"},
				{"id": "5", "name": "Project 4.0.0"},
			},
		})
	}))

	versions, err := client.ListVersions(context.Background(), "WEB", "Project")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "Project 3.0.0", versions[0].Name)
	assert.Equal(t, "Project 2.0.0", versions[1].Name)
	assert.True(t, versions[1].Released)
	assert.Equal(t, "Project 1.0.0", versions[2].Name)
}

func TestSelectVersionsTieBreakAndLimit(t *testing.T) {
	var versions []models.Version
	for i := 1; i <= 12; i++ {
		versions = append(versions, models.Version{Name: fmt.Sprintf("Web 1.%d.0", i), ReleaseDate: "2024-05-01"})
	}
	versions = append(versions, models.Version{Name: "Web 2.0.0", ReleaseDate: "not-a-date"})

	selected := SelectVersions(versions, "Web", 10)

	require.Len(t, selected, 10)
	assert.Equal(t, "Web 1.12.0", selected[0].Name)
	assert.Equal(t, "Web 1.3.0", selected[9].Name)
}

func TestFixVersionJQLEscapesQuotes(t *testing.T) {
	assert.Equal(t, `fixVersion = "Web \"beta\" 1.0"`, FixVersionJQL(`Web "beta" 1.0`))
}

func TestCurrentUser(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/myself", r.URL.Path)
		_, _ = w.Write([]byte(`{"accountId": "abc", "displayName": "Dev Eloper"}`))
	}))

	name, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dev Eloper", name)
}

func TestCurrentUserRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	_, err := client.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrTrackerFetch)
}
