package copyai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/store"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.Config{CopyAI: config.CopyAIConfig{
		BaseURL:    server.URL + "/api/",
		Token:      "copy-token",
		WorkflowID: "WCFG-1",
	}})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(&config.Config{})
	assert.ErrorIs(t, err, config.ErrConfigurationMissing)
}

func TestSubmitJob(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/workflow/WCFG-1/run", r.URL.Path)
		assert.Equal(t, "copy-token", r.Header.Get("x-copy-ai-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ticket blob", body["startVariables"]["jira_blob"])
		assert.Equal(t, true, body["metadata"]["api"])

		_, _ = w.Write([]byte(`{"status": "success", "data": {"id": "WRUN-42"}}`))
	})

	runID, err := client.SubmitJob(context.Background(), "ticket blob")
	require.NoError(t, err)
	assert.Equal(t, "WRUN-42", runID)
}

func TestSubmitJobWithoutRunID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "success", "data": {}}`))
	})

	_, err := client.SubmitJob(context.Background(), "ticket blob")
	assert.ErrorIs(t, err, ErrSummaryJob)
}

func TestGetJobStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/workflow/WCFG-1/run/WRUN-42", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": {"id": "WRUN-42", "status": "COMPLETE", "output": {"final_output": "{\"summary\":\"ok\",\"isCustomerFacing\":false}"}}}`))
	})

	status, err := client.GetJobStatus(context.Background(), "WRUN-42")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, status.Status)
	assert.JSONEq(t, `{"summary":"ok","isCustomerFacing":false}`, status.FinalOutput)
}

func TestGetJobStatusHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.GetJobStatus(context.Background(), "WRUN-42")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSummaryJob)
	assert.Contains(t, err.Error(), "429")
}

func TestClientDrivesSummarizer(t *testing.T) {
	polls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"data": {"id": "WRUN-1"}}`))
			return
		}
		polls++
		if polls < 2 {
			_, _ = w.Write([]byte(`{"data": {"status": "PROCESSING"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": {"status": "COMPLETE", "output": {"final_output": "{\"summary\":\"done\",\"isCustomerFacing\":true}"}}}`))
	})

	s := NewSummarizer(client, store.NewFileStore(t.TempDir()), Options{Sleep: (&recordingSleep{}).sleep})
	result, err := s.GetSummary(context.Background(), "Web 1.2.0", "WEB-9", "blob")
	require.NoError(t, err)
	assert.Equal(t, "done", result.Summary)
	assert.True(t, result.IsCustomerFacing)
	assert.Equal(t, 2, polls)
}
