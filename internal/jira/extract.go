package jira

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielolaszy/spark/internal/logging"
	"github.com/danielolaszy/spark/pkg/models"
)

// FieldMapping names the custom fields that carry team and brand.
type FieldMapping struct {
	Team  string
	Brand string
}

// IssueFetcher fetches a single issue by key.
type IssueFetcher interface {
	GetIssue(ctx context.Context, key string) (*Issue, error)
}

// Normalize flattens a tracker issue into a ticket. Missing fields become
// empty values; it never fails.
func Normalize(issue Issue, mapping FieldMapping) models.Ticket {
	f := issue.Fields

	ticket := models.Ticket{
		TicketNumber:          issue.Key,
		ResolutionDate:        f.ResolutionDate,
		Brand:                 f.CustomValue(mapping.Brand),
		Team:                  f.CustomValue(mapping.Team),
		Labels:                strings.Join(f.Labels, ", "),
		SummaryTitle:          f.Summary,
		Description:           RenderDescription(f.Description),
		FixVersionName:        joinFixVersions(f.FixVersions, func(v FixVersion) string { return v.Name }),
		FixVersionReleaseDate: joinFixVersions(f.FixVersions, func(v FixVersion) string { return v.ReleaseDate }),
	}
	if f.Parent != nil {
		ticket.EpicKey = f.Parent.Key
	}
	if f.IssueType != nil {
		ticket.IssueType = f.IssueType.Name
	}
	if f.Resolution != nil {
		ticket.Resolution = f.Resolution.Name
	}

	return ticket
}

// NormalizeEpic reduces an epic issue to the fields shown in release notes.
func NormalizeEpic(issue Issue) models.EpicSummary {
	f := issue.Fields
	return models.EpicSummary{
		TicketNumber:          issue.Key,
		SummaryTitle:          f.Summary,
		Description:           RenderDescription(f.Description),
		FixVersionName:        joinFixVersions(f.FixVersions, func(v FixVersion) string { return v.Name }),
		FixVersionReleaseDate: joinFixVersions(f.FixVersions, func(v FixVersion) string { return v.ReleaseDate }),
	}
}

// EnrichWithEpic attaches the parent epic to a ticket that references one.
// Tickets without a parent are returned unchanged.
func EnrichWithEpic(ctx context.Context, ticket models.Ticket, fetcher IssueFetcher) (models.Ticket, error) {
	if !ticket.HasEpic() {
		return ticket, nil
	}

	epic, err := fetcher.GetIssue(ctx, ticket.EpicKey)
	if err != nil {
		logging.Error("failed to fetch epic",
			"ticket", ticket.TicketNumber,
			"epic", ticket.EpicKey,
			"error", err)
		return ticket, fmt.Errorf("failed to fetch epic %s for %s: %w", ticket.EpicKey, ticket.TicketNumber, err)
	}

	summary := NormalizeEpic(*epic)
	ticket.EpicTicket = &summary

	logging.Debug("attached epic",
		"ticket", ticket.TicketNumber,
		"epic", ticket.EpicKey,
		"epic_fix_versions", summary.FixVersionName)

	return ticket, nil
}

// HasFixVersion reports whether a comma-joined fix version list contains name.
func HasFixVersion(joined, name string) bool {
	if name == "" {
		return false
	}
	for _, v := range strings.Split(joined, ",") {
		if strings.TrimSpace(v) == name {
			return true
		}
	}
	return false
}

func joinFixVersions(versions []FixVersion, field func(FixVersion) string) string {
	if len(versions) == 0 {
		return ""
	}
	values := make([]string, len(versions))
	for i, v := range versions {
		values[i] = field(v)
	}
	return strings.Join(values, ", ")
}
