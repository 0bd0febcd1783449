// Package release builds release reports from Jira tickets and their AI summaries.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/danielolaszy/spark/internal/copyai"
	"github.com/danielolaszy/spark/internal/jira"
	"github.com/danielolaszy/spark/internal/logging"
	"github.com/danielolaszy/spark/internal/store"
	"github.com/danielolaszy/spark/pkg/models"
)

// ErrEmptyRelease is returned when a release has no tickets.
var ErrEmptyRelease = errors.New("release has no tickets")

// Tracker is the subset of the Jira client used to build a report.
type Tracker interface {
	jira.IssueFetcher
	SearchIssuesByFixVersion(ctx context.Context, fixVersion string) ([]jira.Issue, error)
}

// Summarizer returns the AI summary for one ticket of a release.
type Summarizer interface {
	GetSummary(ctx context.Context, release, ticketNumber, content string) (models.SummaryResult, error)
}

// Options configures an Aggregator.
type Options struct {
	// TeamNames is the ordered list of team sections in the report
	TeamNames []string
	// Fields maps the team and brand custom fields
	Fields jira.FieldMapping
	// Concurrency bounds parallel summarization; values below 1 mean sequential
	Concurrency int
	// SkipFailedSummaries drops tickets whose summary job fails instead of
	// aborting the whole report
	SkipFailedSummaries bool
}

// Aggregator turns a release's Jira tickets into a ReleaseReport.
// Builds for the same release must not run concurrently.
type Aggregator struct {
	tracker    Tracker
	tickets    store.TicketStore
	summarizer Summarizer
	opts       Options
}

// NewAggregator creates an Aggregator.
func NewAggregator(tracker Tracker, tickets store.TicketStore, summarizer Summarizer, opts Options) *Aggregator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Aggregator{
		tracker:    tracker,
		tickets:    tickets,
		summarizer: summarizer,
		opts:       opts,
	}
}

// BuildReport fetches (or reuses cached) tickets for the release, summarizes
// them and their in-release epics, and groups them by team.
func (a *Aggregator) BuildReport(ctx context.Context, release string) (*models.ReleaseReport, error) {
	log := logging.With("release", release)

	cached, err := a.tickets.HasRelease(ctx, release)
	if err != nil {
		return nil, err
	}
	if cached {
		log.Info("tickets already cached, skipping jira fetch")
	} else if err := a.fetchRelease(ctx, release); err != nil {
		return nil, err
	}

	tickets, err := a.tickets.LoadTickets(ctx, release)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRelease, release)
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].TicketNumber < tickets[j].TicketNumber
	})
	log.Info("loaded tickets", "count", len(tickets))

	summarized, err := a.summarizeTickets(ctx, release, tickets)
	if err != nil {
		return nil, err
	}

	epics, err := a.summarizeEpics(ctx, release, summarized)
	if err != nil {
		return nil, err
	}

	regular := make([]models.Ticket, 0, len(summarized))
	for _, t := range summarized {
		if !t.IsEpic() {
			regular = append(regular, t)
		}
	}

	report := &models.ReleaseReport{
		Title:       fmt.Sprintf("Summary for Release %s", release),
		ReleaseDate: releaseDate(tickets, release),
		Epics:       epics,
		Teams:       PartitionByTeam(regular, a.opts.TeamNames),
	}

	log.Info("release report built",
		"epics", len(report.Epics),
		"teams", len(report.Teams),
		"tickets", len(regular))

	return report, nil
}

// fetchRelease pulls every issue of the release from Jira, attaches parent
// epics and stores the normalized tickets. Nothing is stored unless every
// ticket could be enriched, so a cached release is always complete.
func (a *Aggregator) fetchRelease(ctx context.Context, release string) error {
	issues, err := a.tracker.SearchIssuesByFixVersion(ctx, release)
	if err != nil {
		return err
	}
	logging.Info("fetched release issues", "release", release, "count", len(issues))

	epics := &epicCache{fetcher: a.tracker, issues: make(map[string]*jira.Issue)}
	seen := make(map[string]bool, len(issues))
	tickets := make([]models.Ticket, 0, len(issues))

	for _, issue := range issues {
		if seen[issue.Key] {
			continue
		}
		seen[issue.Key] = true

		ticket, err := jira.EnrichWithEpic(ctx, jira.Normalize(issue, a.opts.Fields), epics)
		if err != nil {
			return err
		}
		tickets = append(tickets, ticket)
	}

	for _, ticket := range tickets {
		if err := a.tickets.SaveTicket(ctx, release, ticket); err != nil {
			return err
		}
		logging.Info("saved ticket", "release", release, "ticket", ticket.TicketNumber)
	}

	return nil
}

// summarizeTickets attaches AI summaries, keeping input order.
func (a *Aggregator) summarizeTickets(ctx context.Context, release string, tickets []models.Ticket) ([]models.Ticket, error) {
	results, err := a.summarizeAll(ctx, release, len(tickets), func(i int) (string, any) {
		return tickets[i].TicketNumber, tickets[i]
	})
	if err != nil {
		return nil, err
	}

	summarized := make([]models.Ticket, 0, len(tickets))
	for i, ticket := range tickets {
		if results[i] == nil {
			continue
		}
		ticket.AISummary = results[i].Summary
		ticket.IsCustomerFacing = results[i].IsCustomerFacing
		summarized = append(summarized, ticket)
	}
	return summarized, nil
}

// summarizeEpics collects the epics that ship in this release, each once, in
// order of first appearance. Tickets that are epics themselves reuse their
// own summary; parent epics are summarized separately. Parent epics whose
// fix versions do not include the release stay attached to their tickets but
// are not listed.
func (a *Aggregator) summarizeEpics(ctx context.Context, release string, tickets []models.Ticket) ([]models.EpicSummary, error) {
	var epics []models.EpicSummary
	index := make(map[string]int)
	var pending []int

	for _, t := range tickets {
		switch {
		case t.IsEpic():
			if i, ok := index[t.TicketNumber]; ok {
				epics[i].Summary = t.AISummary
				epics[i].IsCustomerFacing = t.IsCustomerFacing
				continue
			}
			index[t.TicketNumber] = len(epics)
			epics = append(epics, models.EpicSummary{
				TicketNumber:          t.TicketNumber,
				SummaryTitle:          t.SummaryTitle,
				Description:           t.Description,
				FixVersionName:        t.FixVersionName,
				FixVersionReleaseDate: t.FixVersionReleaseDate,
				Summary:               t.AISummary,
				IsCustomerFacing:      t.IsCustomerFacing,
			})
		case t.EpicTicket != nil && jira.HasFixVersion(t.EpicTicket.FixVersionName, release):
			if _, ok := index[t.EpicTicket.TicketNumber]; ok {
				continue
			}
			index[t.EpicTicket.TicketNumber] = len(epics)
			pending = append(pending, len(epics))
			epics = append(epics, *t.EpicTicket)
		}
	}

	results, err := a.summarizeAll(ctx, release, len(pending), func(i int) (string, any) {
		epic := epics[pending[i]]
		return epic.TicketNumber, epic
	})
	if err != nil {
		return nil, err
	}

	skipped := make(map[int]bool)
	for i, pos := range pending {
		if results[i] == nil {
			skipped[pos] = true
			continue
		}
		epics[pos].Summary = results[i].Summary
		epics[pos].IsCustomerFacing = results[i].IsCustomerFacing
	}

	listed := make([]models.EpicSummary, 0, len(epics))
	for i, epic := range epics {
		if !skipped[i] {
			listed = append(listed, epic)
		}
	}
	return listed, nil
}

// summarizeAll summarizes n items with bounded concurrency. item returns the
// cache key and the value whose JSON form is the prompt. A nil entry in the
// result marks an item skipped under SkipFailedSummaries.
func (a *Aggregator) summarizeAll(ctx context.Context, release string, n int, item func(int) (string, any)) ([]*models.SummaryResult, error) {
	results := make([]*models.SummaryResult, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)

	for i := 0; i < n; i++ {
		i := i
		key, value := item(i)
		g.Go(func() error {
			content, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode prompt for %s: %w", key, err)
			}

			result, err := a.summarizer.GetSummary(gctx, release, key, string(content))
			if err != nil {
				if a.skippable(ctx, err) {
					logging.Warn("skipping ticket after failed summary",
						"release", release,
						"ticket", key,
						"error", err)
					return nil
				}
				return fmt.Errorf("failed to summarize %s: %w", key, err)
			}

			results[i] = &result
			return nil
		})
	}

	err := g.Wait()
	// Jobs cut short by cancellation surface as failed jobs.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// skippable reports whether a failed summary may be left out of the report.
func (a *Aggregator) skippable(ctx context.Context, err error) bool {
	if !a.opts.SkipFailedSummaries || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, copyai.ErrSummaryJob)
}

// releaseDate returns the release date of the first ticket that has one,
// picking the date that belongs to the release when a ticket carries several
// fix versions.
func releaseDate(tickets []models.Ticket, release string) string {
	for _, t := range tickets {
		if t.FixVersionReleaseDate == "" {
			continue
		}
		names := strings.Split(t.FixVersionName, ",")
		dates := strings.Split(t.FixVersionReleaseDate, ",")
		if len(names) == len(dates) {
			for i, name := range names {
				if strings.TrimSpace(name) == release {
					if date := strings.TrimSpace(dates[i]); date != "" {
						return date
					}
				}
			}
		}
		return t.FixVersionReleaseDate
	}
	return ""
}

// epicCache memoizes epic lookups within one fetch so that sibling tickets
// share a single request.
type epicCache struct {
	fetcher jira.IssueFetcher
	issues  map[string]*jira.Issue
}

func (c *epicCache) GetIssue(ctx context.Context, key string) (*jira.Issue, error) {
	if issue, ok := c.issues[key]; ok {
		return issue, nil
	}
	issue, err := c.fetcher.GetIssue(ctx, key)
	if err != nil {
		return nil, err
	}
	c.issues[key] = issue
	return issue, nil
}
