// Package copyai drives the CopyAI workflow that turns ticket content into
// customer-readable summaries.
package copyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/logging"
)

// ErrSummaryJob wraps failures submitting, polling or parsing a summary job.
var ErrSummaryJob = errors.New("summary job failed")

// StatusComplete is the workflow run status reported once output is ready.
const StatusComplete = "COMPLETE"

// JobStatus is the state of one workflow run.
type JobStatus struct {
	ID          string
	Status      string
	FinalOutput string
}

// Client talks to the CopyAI workflow API.
type Client struct {
	baseURL    string
	token      string
	workflowID string
	httpClient *http.Client
}

type runRequest struct {
	StartVariables struct {
		JiraBlob string `json:"jira_blob"`
	} `json:"startVariables"`
	Metadata struct {
		API bool `json:"api"`
	} `json:"metadata"`
}

type runResponse struct {
	Status string `json:"status"`
	Data   struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Output struct {
			FinalOutput string `json:"final_output"`
		} `json:"output"`
	} `json:"data"`
}

// NewClient creates a CopyAI client from the configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := config.ValidateCopyAIConfig(cfg); err != nil {
		return nil, err
	}

	logging.Debug("copyai client initialized",
		"base_url", cfg.CopyAI.BaseURL,
		"workflow_id", cfg.CopyAI.WorkflowID,
		"token", logging.MaskSensitive(cfg.CopyAI.Token))

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.CopyAI.BaseURL, "/"),
		token:      cfg.CopyAI.Token,
		workflowID: cfg.CopyAI.WorkflowID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SubmitJob starts a workflow run with content as its input and returns the run ID.
func (c *Client) SubmitJob(ctx context.Context, content string) (string, error) {
	var body runRequest
	body.StartVariables.JiraBlob = content
	body.Metadata.API = true

	var resp runResponse
	if err := c.do(ctx, http.MethodPost, c.runURL(""), body, &resp); err != nil {
		return "", fmt.Errorf("%w: submit: %v", ErrSummaryJob, err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("%w: submit: response carried no run id", ErrSummaryJob)
	}

	logging.Info("started workflow run", "run_id", resp.Data.ID)
	return resp.Data.ID, nil
}

// GetJobStatus fetches the current state of a workflow run.
func (c *Client) GetJobStatus(ctx context.Context, runID string) (*JobStatus, error) {
	var resp runResponse
	if err := c.do(ctx, http.MethodGet, c.runURL(runID), nil, &resp); err != nil {
		return nil, fmt.Errorf("%w: status of run %s: %v", ErrSummaryJob, runID, err)
	}

	return &JobStatus{
		ID:          runID,
		Status:      resp.Data.Status,
		FinalOutput: resp.Data.Output.FinalOutput,
	}, nil
}

func (c *Client) runURL(runID string) string {
	u := fmt.Sprintf("%s/workflow/%s/run", c.baseURL, url.PathEscape(c.workflowID))
	if runID != "" {
		u += "/" + url.PathEscape(runID)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-copy-ai-api-key", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
