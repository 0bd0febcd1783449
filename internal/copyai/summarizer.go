package copyai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielolaszy/spark/internal/logging"
	"github.com/danielolaszy/spark/internal/store"
	"github.com/danielolaszy/spark/pkg/models"
)

const (
	defaultPollInterval    = 3 * time.Second
	defaultMaxPollAttempts = 200
)

// JobClient submits summarization jobs and reports their status.
type JobClient interface {
	SubmitJob(ctx context.Context, content string) (string, error)
	GetJobStatus(ctx context.Context, runID string) (*JobStatus, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options tunes the polling loop. Zero values select the defaults.
type Options struct {
	PollInterval    time.Duration
	MaxPollAttempts int
	Sleep           SleepFunc
}

// Summarizer returns cached summaries or runs a workflow to produce them.
type Summarizer struct {
	jobs        JobClient
	cache       store.SummaryStore
	interval    time.Duration
	maxAttempts int
	sleep       SleepFunc
}

// NewSummarizer creates a Summarizer backed by the job client and cache.
func NewSummarizer(jobs JobClient, cache store.SummaryStore, opts Options) *Summarizer {
	s := &Summarizer{
		jobs:        jobs,
		cache:       cache,
		interval:    opts.PollInterval,
		maxAttempts: opts.MaxPollAttempts,
		sleep:       opts.Sleep,
	}
	if s.interval <= 0 {
		s.interval = defaultPollInterval
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxPollAttempts
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	return s
}

// GetSummary returns the summary for (release, ticketNumber). A cached result
// is returned without contacting the workflow API, whatever content is passed.
// Otherwise a job is submitted with content as input and polled until it
// completes; the parsed result is cached before it is returned. Nothing is
// cached on failure.
func (s *Summarizer) GetSummary(ctx context.Context, release, ticketNumber, content string) (models.SummaryResult, error) {
	cached, found, err := s.cache.GetSummary(ctx, release, ticketNumber)
	if err != nil {
		return models.SummaryResult{}, err
	}
	if found {
		logging.Debug("using cached summary", "release", release, "ticket", ticketNumber)
		return *cached, nil
	}

	if content == "" {
		return models.SummaryResult{}, fmt.Errorf("%w: no content to summarize for %s", ErrSummaryJob, ticketNumber)
	}

	runID, err := s.jobs.SubmitJob(ctx, content)
	if err != nil {
		logging.Error("failed to submit summary job", "ticket", ticketNumber, "error", err)
		return models.SummaryResult{}, jobError("submit", err)
	}

	status, err := s.waitForCompletion(ctx, runID)
	if err != nil {
		logging.Error("summary job did not complete", "ticket", ticketNumber, "run_id", runID, "error", err)
		return models.SummaryResult{}, err
	}

	var result models.SummaryResult
	if err := json.Unmarshal([]byte(status.FinalOutput), &result); err != nil {
		return models.SummaryResult{}, fmt.Errorf("%w: malformed output of run %s: %v", ErrSummaryJob, runID, err)
	}

	if err := s.cache.SaveSummary(ctx, release, ticketNumber, result); err != nil {
		return models.SummaryResult{}, err
	}

	logging.Info("saved workflow output",
		"release", release,
		"ticket", ticketNumber,
		"run_id", runID,
		"customer_facing", result.IsCustomerFacing)

	return result, nil
}

// waitForCompletion polls the run until it reports COMPLETE or the attempt
// ceiling is reached.
func (s *Summarizer) waitForCompletion(ctx context.Context, runID string) (*JobStatus, error) {
	for attempt := 1; ; attempt++ {
		status, err := s.jobs.GetJobStatus(ctx, runID)
		if err != nil {
			return nil, jobError("poll", err)
		}
		if status.Status == StatusComplete {
			return status, nil
		}
		if attempt >= s.maxAttempts {
			return nil, fmt.Errorf("%w: run %s still %q after %d polls", ErrSummaryJob, runID, status.Status, attempt)
		}

		logging.Debug("workflow run not complete, polling again",
			"run_id", runID,
			"status", status.Status,
			"attempt", attempt,
			"interval", s.interval)

		if err := s.sleep(ctx, s.interval); err != nil {
			return nil, fmt.Errorf("%w: polling run %s: %w", ErrSummaryJob, runID, err)
		}
	}
}

// jobError makes sure err matches ErrSummaryJob.
func jobError(stage string, err error) error {
	if errors.Is(err, ErrSummaryJob) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrSummaryJob, stage, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
