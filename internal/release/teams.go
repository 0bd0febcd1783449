package release

import (
	"strings"

	"github.com/danielolaszy/spark/pkg/models"
)

// PartitionByTeam groups tickets into one section per configured team name,
// in configuration order. A section is emitted even when it has no tickets;
// tickets whose team matches no configured name are left out.
func PartitionByTeam(tickets []models.Ticket, teamNames []string) []models.TeamRelease {
	teams := make([]models.TeamRelease, 0, len(teamNames))

	for _, name := range teamNames {
		section := models.TeamRelease{
			Name:    name,
			Tickets: []models.TeamTicket{},
		}
		for _, ticket := range tickets {
			if strings.TrimSpace(ticket.Team) != name {
				continue
			}
			section.Tickets = append(section.Tickets, models.TeamTicket{
				Ticket:         ticket.TicketNumber,
				Title:          ticket.SummaryTitle,
				Summary:        ticket.AISummary,
				CustomerFacing: ticket.IsCustomerFacing,
			})
		}
		teams = append(teams, section)
	}

	return teams
}
