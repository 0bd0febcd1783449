package copyai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/spark/internal/store"
	"github.com/danielolaszy/spark/pkg/models"
)

// stubJobs completes a run on the completeOn-th status query.
type stubJobs struct {
	completeOn  int
	finalOutput string
	submitErr   error
	statusErr   error

	submissions []string
	statusCalls int
}

func (s *stubJobs) SubmitJob(_ context.Context, content string) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.submissions = append(s.submissions, content)
	return "run-1", nil
}

func (s *stubJobs) GetJobStatus(_ context.Context, runID string) (*JobStatus, error) {
	s.statusCalls++
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	if s.statusCalls >= s.completeOn {
		return &JobStatus{ID: runID, Status: StatusComplete, FinalOutput: s.finalOutput}, nil
	}
	return &JobStatus{ID: runID, Status: "RUNNING"}, nil
}

type recordingSleep struct {
	calls []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

const validOutput = `{"summary": "Checkout is twice as fast.", "isCustomerFacing": true}`

func TestGetSummaryPollsUntilComplete(t *testing.T) {
	jobs := &stubJobs{completeOn: 3, finalOutput: validOutput}
	sleeper := &recordingSleep{}
	cache := store.NewFileStore(t.TempDir())
	s := NewSummarizer(jobs, cache, Options{Sleep: sleeper.sleep})

	result, err := s.GetSummary(context.Background(), "Web 1.2.0", "WEB-1", "ticket blob")
	require.NoError(t, err)

	assert.Equal(t, models.SummaryResult{Summary: "Checkout is twice as fast.", IsCustomerFacing: true}, result)
	assert.Equal(t, []string{"ticket blob"}, jobs.submissions)
	assert.Equal(t, 3, jobs.statusCalls)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, sleeper.calls)

	cached, found, err := cache.GetSummary(context.Background(), "Web 1.2.0", "WEB-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, result, *cached)
}

func TestGetSummaryUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := store.NewFileStore(t.TempDir())
	want := models.SummaryResult{Summary: "Cached", IsCustomerFacing: false}
	require.NoError(t, cache.SaveSummary(ctx, "Web 1.2.0", "WEB-1", want))

	jobs := &stubJobs{completeOn: 1, finalOutput: validOutput}
	s := NewSummarizer(jobs, cache, Options{Sleep: (&recordingSleep{}).sleep})

	for _, content := range []string{"original", "different content", ""} {
		result, err := s.GetSummary(ctx, "Web 1.2.0", "WEB-1", content)
		require.NoError(t, err)
		assert.Equal(t, want, result)
	}
	assert.Empty(t, jobs.submissions)
	assert.Zero(t, jobs.statusCalls)
}

func TestGetSummaryCacheIsPerRelease(t *testing.T) {
	ctx := context.Background()
	cache := store.NewFileStore(t.TempDir())
	require.NoError(t, cache.SaveSummary(ctx, "Web 1.1.0", "WEB-1", models.SummaryResult{Summary: "old"}))

	jobs := &stubJobs{completeOn: 1, finalOutput: validOutput}
	s := NewSummarizer(jobs, cache, Options{Sleep: (&recordingSleep{}).sleep})

	result, err := s.GetSummary(ctx, "Web 1.2.0", "WEB-1", "blob")
	require.NoError(t, err)
	assert.Equal(t, "Checkout is twice as fast.", result.Summary)
	assert.Len(t, jobs.submissions, 1)
}

func TestGetSummaryStopsAtMaxAttempts(t *testing.T) {
	jobs := &stubJobs{completeOn: 100, finalOutput: validOutput}
	sleeper := &recordingSleep{}
	cache := store.NewFileStore(t.TempDir())
	s := NewSummarizer(jobs, cache, Options{PollInterval: time.Second, MaxPollAttempts: 4, Sleep: sleeper.sleep})

	_, err := s.GetSummary(context.Background(), "Web 1.2.0", "WEB-1", "blob")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSummaryJob)
	assert.Equal(t, 4, jobs.statusCalls)
	assert.Len(t, sleeper.calls, 3)

	_, found, err := cache.GetSummary(context.Background(), "Web 1.2.0", "WEB-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetSummaryFailures(t *testing.T) {
	transport := errors.New("connection reset")

	testCases := []struct {
		name string
		jobs *stubJobs
	}{
		{name: "Submission fails", jobs: &stubJobs{submitErr: transport}},
		{name: "Polling fails", jobs: &stubJobs{statusErr: transport}},
		{name: "Malformed output", jobs: &stubJobs{completeOn: 1, finalOutput: "not json"}},
		{name: "Empty output", jobs: &stubJobs{completeOn: 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cache := store.NewFileStore(t.TempDir())
			s := NewSummarizer(tc.jobs, cache, Options{Sleep: (&recordingSleep{}).sleep})

			_, err := s.GetSummary(context.Background(), "Web 1.2.0", "WEB-1", "blob")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSummaryJob)

			_, found, err := cache.GetSummary(context.Background(), "Web 1.2.0", "WEB-1")
			require.NoError(t, err)
			assert.False(t, found, "nothing is cached on failure")
		})
	}
}

func TestGetSummaryRejectsEmptyContent(t *testing.T) {
	jobs := &stubJobs{completeOn: 1, finalOutput: validOutput}
	s := NewSummarizer(jobs, store.NewFileStore(t.TempDir()), Options{})

	_, err := s.GetSummary(context.Background(), "Web 1.2.0", "WEB-1", "")
	assert.ErrorIs(t, err, ErrSummaryJob)
	assert.Empty(t, jobs.submissions)
}

func TestGetSummaryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := &stubJobs{completeOn: 5, finalOutput: validOutput}
	s := NewSummarizer(jobs, store.NewFileStore(t.TempDir()), Options{PollInterval: time.Hour})

	_, err := s.GetSummary(ctx, "Web 1.2.0", "WEB-1", "blob")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSummaryJob)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, jobs.statusCalls)
}
