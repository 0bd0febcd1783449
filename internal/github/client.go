// Package github looks up the pull requests that went into a release.
package github

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/logging"
	"github.com/danielolaszy/spark/pkg/models"
)

const defaultDomain = "github.com"

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// APIURL returns the REST endpoint for a GitHub or GitHub Enterprise domain.
func APIURL(domain string) string {
	if domain == "" || domain == defaultDomain {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// NewClient creates a token-authenticated client for the configured domain.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.GitHub.Token == "" {
		return nil, fmt.Errorf("%w: GITHUB_TOKEN", config.ErrConfigurationMissing)
	}

	apiURL := APIURL(cfg.GitHub.Domain)
	logging.Info("github configuration",
		"domain", cfg.GitHub.Domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(cfg.GitHub.Token))

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHub.Token})
	client := github.NewClient(oauth2.NewClient(context.Background(), ts))

	if apiURL != APIURL(defaultDomain) {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = parsedURL
		client.UploadURL = parsedURL
	}

	return &Client{client: client}, nil
}

// CurrentUser returns the login the token authenticates as.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		logging.Error("failed to validate github token", "error", err)
		return "", fmt.Errorf("error testing github token: %w", err)
	}
	return user.GetLogin(), nil
}

// TagDate returns the committer date of the commit a tag points at.
// Annotated tags are followed to their commit.
func (c *Client) TagDate(ctx context.Context, owner, repo, tag string) (time.Time, error) {
	ref, _, err := c.client.Git.GetRef(ctx, owner, repo, "tags/"+tag)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve tag %s: %w", tag, err)
	}

	object := ref.GetObject()
	sha := object.GetSHA()
	if object.GetType() == "tag" {
		annotated, _, err := c.client.Git.GetTag(ctx, owner, repo, sha)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to read annotated tag %s: %w", tag, err)
		}
		sha = annotated.GetObject().GetSHA()
	}

	commit, _, err := c.client.Git.GetCommit(ctx, owner, repo, sha)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read commit %s of tag %s: %w", sha, tag, err)
	}

	date := commit.GetCommitter().GetDate()
	logging.Debug("resolved tag", "tag", tag, "sha", sha, "date", date)
	return date, nil
}

// MergedPullRequestsBetween returns the pull requests merged between the
// commits of baseTag and headTag.
func (c *Client) MergedPullRequestsBetween(ctx context.Context, owner, repo, baseTag, headTag string) ([]models.PullRequest, error) {
	base, err := c.TagDate(ctx, owner, repo, baseTag)
	if err != nil {
		return nil, err
	}
	head, err := c.TagDate(ctx, owner, repo, headTag)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("repo:%s/%s is:pr is:merged merged:%s..%s",
		owner, repo,
		base.UTC().Format(time.RFC3339),
		head.UTC().Format(time.RFC3339))

	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var prs []models.PullRequest
	for {
		result, resp, err := c.client.Search.Issues(ctx, query, opts)
		if err != nil {
			logging.Error("failed to search pull requests", "query", query, "error", err)
			return nil, fmt.Errorf("failed to search pull requests: %w", err)
		}

		for _, issue := range result.Issues {
			prs = append(prs, models.PullRequest{
				Number: issue.GetNumber(),
				Title:  issue.GetTitle(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logging.Info("found merged pull requests",
		"repository", owner+"/"+repo,
		"base", baseTag,
		"head", headTag,
		"count", len(prs))

	return prs, nil
}
