// Package store persists normalized tickets and summarization results per release.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/pkg/models"
)

// TicketStore persists normalized tickets keyed by (release, ticket number).
type TicketStore interface {
	// HasRelease reports whether any ticket has been stored for the release
	HasRelease(ctx context.Context, release string) (bool, error)
	// SaveTicket stores one ticket, replacing any previous record for the same key
	SaveTicket(ctx context.Context, release string, ticket models.Ticket) error
	// LoadTickets returns every stored ticket of the release in no particular order
	LoadTickets(ctx context.Context, release string) ([]models.Ticket, error)
}

// SummaryStore persists summarization results keyed by (release, ticket number).
type SummaryStore interface {
	// GetSummary returns the cached result and whether one was found
	GetSummary(ctx context.Context, release, ticketNumber string) (*models.SummaryResult, bool, error)
	// SaveSummary stores a result for the key
	SaveSummary(ctx context.Context, release, ticketNumber string, result models.SummaryResult) error
}

// Store is a durable cache backend serving both tickets and summaries.
type Store interface {
	TicketStore
	SummaryStore
	Close() error
}

// New opens the backend selected in the configuration.
func New(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		return NewFileStore(cfg.Dir), nil
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}
