// Package models defines data structures shared across the application.
package models

// Ticket is a normalized Jira issue belonging to one release.
//
// Absent optional values are empty strings. The legacy sentinels
// ("N/A", "No summary", "No labels") only appear in the JSON encoding.
type Ticket struct {
	// TicketNumber is the Jira issue key (e.g., "ABC-123")
	TicketNumber string

	// IssueType is the Jira issue type name (e.g., "Story", "Epic")
	IssueType string

	// EpicKey is the key of the parent epic, empty when the ticket has none
	EpicKey string

	Resolution     string
	ResolutionDate string
	Brand          string
	Team           string

	// Labels is the comma-joined label list
	Labels string

	// SummaryTitle is the issue's short title
	SummaryTitle string

	// Description is the plain-text rendering of the rich-text description
	Description string

	// FixVersionName and FixVersionReleaseDate are comma-joined when the
	// issue carries more than one fix version
	FixVersionName        string
	FixVersionReleaseDate string

	// EpicTicket is the parent epic, set by epic enrichment
	EpicTicket *EpicSummary

	// AISummary and IsCustomerFacing are filled in after summarization
	AISummary        string
	IsCustomerFacing bool
}

// HasEpic reports whether the ticket references a parent epic.
func (t Ticket) HasEpic() bool {
	return t.EpicKey != ""
}

// IsEpic reports whether the ticket is itself an epic.
func (t Ticket) IsEpic() bool {
	return t.IssueType == "Epic"
}

// EpicSummary is the reduced record of a parent epic.
type EpicSummary struct {
	TicketNumber          string
	SummaryTitle          string
	Description           string
	FixVersionName        string
	FixVersionReleaseDate string

	// Summary and IsCustomerFacing are set when the epic is summarized
	// for a release report
	Summary          string
	IsCustomerFacing bool
}

// SummaryResult is the terminal output of a summarization job.
type SummaryResult struct {
	Summary          string `json:"summary"`
	IsCustomerFacing bool   `json:"isCustomerFacing"`
}

// TeamTicket is the reduced ticket shape emitted in a team section.
type TeamTicket struct {
	Ticket         string `json:"ticket"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	CustomerFacing bool   `json:"customerFacing"`
}

// TeamRelease groups one team's tickets for a release.
type TeamRelease struct {
	Name    string       `json:"name"`
	Tickets []TeamTicket `json:"tickets"`
}

// ReleaseReport is the final release-notes structure.
type ReleaseReport struct {
	Title       string        `json:"title"`
	ReleaseDate string        `json:"releaseDate"`
	Epics       []EpicSummary `json:"epics"`
	Teams       []TeamRelease `json:"teams"`
}

// Version is a Jira fix version.
type Version struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"releaseDate"`
	Released    bool   `json:"released"`
}

// PullRequest is a merged GitHub pull request.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}
