package models

import "encoding/json"

// Placeholders written in place of absent values. Existing cache files and
// summarization prompts use these, so they are kept on the wire.
const (
	NotAvailable = "N/A"
	NoSummary    = "No summary"
	NoLabels     = "No labels"
)

type ticketJSON struct {
	TicketNumber          string       `json:"ticketNumber"`
	IssueType             string       `json:"issueType"`
	Epic                  string       `json:"epic"`
	Resolution            string       `json:"resolution"`
	Brand                 string       `json:"brand"`
	ResolutionDate        string       `json:"resolutiondate"`
	Summary               string       `json:"summary"`
	Description           string       `json:"description"`
	FixVersionName        string       `json:"fixVersionName"`
	FixVersionReleaseDate string       `json:"fixVersionReleaseDate"`
	Team                  string       `json:"team"`
	Labels                string       `json:"labels"`
	EpicTicket            *EpicSummary `json:"epicTicket,omitempty"`
	AISummary             string       `json:"aiSummary,omitempty"`
	IsCustomerFacing      bool         `json:"isCustomerFacing,omitempty"`
}

type epicJSON struct {
	TicketNumber          string `json:"ticketNumber"`
	Summary               string `json:"summary"`
	Description           string `json:"description"`
	FixVersionName        string `json:"fixVersionName"`
	FixVersionReleaseDate string `json:"fixVersionReleaseDate"`
	AISummary             string `json:"aiSummary,omitempty"`
	IsCustomerFacing      bool   `json:"isCustomerFacing,omitempty"`
}

func orDefault(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

func fromPlaceholder(v, placeholder string) string {
	if v == placeholder {
		return ""
	}
	return v
}

// MarshalJSON encodes the ticket with placeholders for absent values.
func (t Ticket) MarshalJSON() ([]byte, error) {
	return json.Marshal(ticketJSON{
		TicketNumber:          t.TicketNumber,
		IssueType:             orDefault(t.IssueType, NotAvailable),
		Epic:                  orDefault(t.EpicKey, NotAvailable),
		Resolution:            orDefault(t.Resolution, NotAvailable),
		Brand:                 orDefault(t.Brand, NotAvailable),
		ResolutionDate:        orDefault(t.ResolutionDate, NotAvailable),
		Summary:               orDefault(t.SummaryTitle, NoSummary),
		Description:           t.Description,
		FixVersionName:        orDefault(t.FixVersionName, NotAvailable),
		FixVersionReleaseDate: orDefault(t.FixVersionReleaseDate, NotAvailable),
		Team:                  orDefault(t.Team, NotAvailable),
		Labels:                orDefault(t.Labels, NoLabels),
		EpicTicket:            t.EpicTicket,
		AISummary:             t.AISummary,
		IsCustomerFacing:      t.IsCustomerFacing,
	})
}

// UnmarshalJSON decodes a ticket, turning placeholders back into empty values.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	var w ticketJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Ticket{
		TicketNumber:          w.TicketNumber,
		IssueType:             fromPlaceholder(w.IssueType, NotAvailable),
		EpicKey:               fromPlaceholder(w.Epic, NotAvailable),
		Resolution:            fromPlaceholder(w.Resolution, NotAvailable),
		Brand:                 fromPlaceholder(w.Brand, NotAvailable),
		ResolutionDate:        fromPlaceholder(w.ResolutionDate, NotAvailable),
		SummaryTitle:          fromPlaceholder(w.Summary, NoSummary),
		Description:           w.Description,
		FixVersionName:        fromPlaceholder(w.FixVersionName, NotAvailable),
		FixVersionReleaseDate: fromPlaceholder(w.FixVersionReleaseDate, NotAvailable),
		Team:                  fromPlaceholder(w.Team, NotAvailable),
		Labels:                fromPlaceholder(w.Labels, NoLabels),
		EpicTicket:            w.EpicTicket,
		AISummary:             w.AISummary,
		IsCustomerFacing:      w.IsCustomerFacing,
	}
	return nil
}

// MarshalJSON encodes the epic with placeholders for absent values.
func (e EpicSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(epicJSON{
		TicketNumber:          e.TicketNumber,
		Summary:               orDefault(e.SummaryTitle, NoSummary),
		Description:           e.Description,
		FixVersionName:        orDefault(e.FixVersionName, NotAvailable),
		FixVersionReleaseDate: orDefault(e.FixVersionReleaseDate, NotAvailable),
		AISummary:             e.Summary,
		IsCustomerFacing:      e.IsCustomerFacing,
	})
}

// UnmarshalJSON decodes an epic, turning placeholders back into empty values.
func (e *EpicSummary) UnmarshalJSON(data []byte) error {
	var w epicJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = EpicSummary{
		TicketNumber:          w.TicketNumber,
		SummaryTitle:          fromPlaceholder(w.Summary, NoSummary),
		Description:           w.Description,
		FixVersionName:        fromPlaceholder(w.FixVersionName, NotAvailable),
		FixVersionReleaseDate: fromPlaceholder(w.FixVersionReleaseDate, NotAvailable),
		Summary:               w.AISummary,
		IsCustomerFacing:      w.IsCustomerFacing,
	}
	return nil
}
