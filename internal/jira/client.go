// Package jira reads release data from Jira and normalizes it into tickets.
package jira

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/logging"
	"github.com/danielolaszy/spark/pkg/models"
)

// ErrTrackerFetch wraps every failure talking to Jira.
var ErrTrackerFetch = errors.New("tracker fetch failed")

const (
	searchPageSize = 100
	maxVersions    = 10
)

// Client handles interactions with the JIRA API.
type Client struct {
	client *jira.Client
}

// searchResult is one page of /rest/api/3/search/jql. Pages are chained by
// token; the last page has isLast set and no token.
type searchResult struct {
	Issues        []Issue `json:"issues"`
	NextPageToken string  `json:"nextPageToken"`
	IsLast        bool    `json:"isLast"`
}

// NewClient creates a JIRA client authenticated with the configured email and API token.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := config.ValidateJiraConfig(cfg); err != nil {
		return nil, err
	}

	tp := jira.BasicAuthTransport{
		Username: cfg.Jira.Email,
		Password: cfg.Jira.Token,
	}

	client, err := jira.NewClient(tp.Client(), cfg.Jira.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	logging.Debug("jira client initialized",
		"url", cfg.Jira.URL,
		"email", cfg.Jira.Email,
		"token", logging.MaskSensitive(cfg.Jira.Token))

	return &Client{client: client}, nil
}

// SearchIssues returns every issue matching the JQL query, following
// pagination tokens until Jira reports the last page.
func (c *Client) SearchIssues(ctx context.Context, jql string) ([]Issue, error) {
	var issues []Issue
	token := ""

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("jql", jql)
		params.Set("maxResults", strconv.Itoa(searchPageSize))
		// The jql endpoint only returns issue ids unless fields are requested.
		params.Set("fields", "*all")
		if token != "" {
			params.Set("nextPageToken", token)
		}

		req, err := c.client.NewRequestWithContext(ctx, "GET", "rest/api/3/search/jql?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to build search request: %v", ErrTrackerFetch, err)
		}

		var result searchResult
		if _, err := c.client.Do(req, &result); err != nil {
			logging.Error("jira search failed", "jql", jql, "page", page, "error", err)
			return nil, fmt.Errorf("%w: search %q: %v", ErrTrackerFetch, jql, err)
		}

		issues = append(issues, result.Issues...)
		logging.Debug("fetched search page",
			"jql", jql,
			"page", page,
			"page_size", len(result.Issues),
			"is_last", result.IsLast)

		if result.IsLast || result.NextPageToken == "" {
			break
		}
		if result.NextPageToken == token {
			return nil, fmt.Errorf("%w: search %q: page token %q repeated", ErrTrackerFetch, jql, token)
		}
		token = result.NextPageToken
	}

	return issues, nil
}

// SearchIssuesByFixVersion returns every issue tagged with the given fix version.
func (c *Client) SearchIssuesByFixVersion(ctx context.Context, fixVersion string) ([]Issue, error) {
	return c.SearchIssues(ctx, FixVersionJQL(fixVersion))
}

// GetIssue fetches a single issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	req, err := c.client.NewRequestWithContext(ctx, "GET", "rest/api/3/issue/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build issue request: %v", ErrTrackerFetch, err)
	}

	var issue Issue
	if _, err := c.client.Do(req, &issue); err != nil {
		logging.Error("failed to fetch jira issue", "key", key, "error", err)
		return nil, fmt.Errorf("%w: issue %s: %v", ErrTrackerFetch, key, err)
	}

	return &issue, nil
}

// CurrentUser returns the display name of the authenticated account.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	user, _, err := c.client.User.GetSelfWithContext(ctx)
	if err != nil {
		logging.Error("failed to validate jira credentials", "error", err)
		return "", fmt.Errorf("%w: current user: %v", ErrTrackerFetch, err)
	}
	return user.DisplayName, nil
}

// ListVersions returns the newest released-dated versions of a project whose
// names start with prefix.
func (c *Client) ListVersions(ctx context.Context, projectKey, prefix string) ([]models.Version, error) {
	project, _, err := c.client.Project.GetWithContext(ctx, projectKey)
	if err != nil {
		logging.Error("failed to fetch jira project", "project", projectKey, "error", err)
		return nil, fmt.Errorf("%w: project %s: %v", ErrTrackerFetch, projectKey, err)
	}

	versions := make([]models.Version, 0, len(project.Versions))
	for _, v := range project.Versions {
		versions = append(versions, models.Version{
			ID:          v.ID,
			Name:        v.Name,
			ReleaseDate: v.ReleaseDate,
			Released:    v.Released != nil && *v.Released,
		})
	}

	logging.Debug("fetched jira versions", "project", projectKey, "count", len(versions))

	return SelectVersions(versions, prefix, maxVersions), nil
}

// FixVersionJQL builds the JQL selecting issues of one fix version.
func FixVersionJQL(fixVersion string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(fixVersion)
	return fmt.Sprintf(`fixVersion = "%s"`, escaped)
}

var semverPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// SelectVersions keeps versions with the prefix and a release date, orders
// them newest first (semantic version breaks ties) and truncates to limit.
func SelectVersions(versions []models.Version, prefix string, limit int) []models.Version {
	type dated struct {
		version models.Version
		date    time.Time
	}

	var candidates []dated
	for _, v := range versions {
		if !strings.HasPrefix(v.Name, prefix) || v.ReleaseDate == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", v.ReleaseDate)
		if err != nil {
			logging.Warn("skipping version with unparseable release date",
				"version", v.Name,
				"release_date", v.ReleaseDate)
			continue
		}
		candidates = append(candidates, dated{version: v, date: date})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].date.Equal(candidates[j].date) {
			return candidates[i].date.After(candidates[j].date)
		}
		return compareSemver(candidates[i].version.Name, candidates[j].version.Name) > 0
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := make([]models.Version, len(candidates))
	for i, c := range candidates {
		result[i] = c.version
	}
	return result
}

func compareSemver(a, b string) int {
	pa, pb := semverParts(a), semverParts(b)
	for i := range pa {
		if pa[i] != pb[i] {
			if pa[i] > pb[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

func semverParts(name string) [3]int {
	var parts [3]int
	m := semverPattern.FindStringSubmatch(name)
	if m == nil {
		return parts
	}
	for i := 0; i < 3; i++ {
		parts[i], _ = strconv.Atoi(m[i+1])
	}
	return parts
}
