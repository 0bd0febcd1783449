package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/danielolaszy/spark/internal/logging"
	"github.com/danielolaszy/spark/pkg/models"
)

// SQLiteStore keeps tickets and summaries in two tables keyed by
// (release, ticket_number).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logging.Debug("sqlite cache opened", "path", path)
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tickets (
			release TEXT NOT NULL,
			ticket_number TEXT NOT NULL,
			data TEXT NOT NULL,
			saved_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (release, ticket_number)
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			release TEXT NOT NULL,
			ticket_number TEXT NOT NULL,
			data TEXT NOT NULL,
			saved_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (release, ticket_number)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// HasRelease reports whether any ticket row exists for the release.
func (s *SQLiteStore) HasRelease(ctx context.Context, release string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tickets WHERE release = ?)`, release).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query release cache: %w", err)
	}
	return exists, nil
}

// SaveTicket upserts one ticket row.
func (s *SQLiteStore) SaveTicket(ctx context.Context, release string, ticket models.Ticket) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to encode ticket %s: %w", ticket.TicketNumber, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tickets (release, ticket_number, data) VALUES (?, ?, ?)`,
		release, ticket.TicketNumber, string(data))
	if err != nil {
		return fmt.Errorf("failed to save ticket %s: %w", ticket.TicketNumber, err)
	}
	return nil
}

// LoadTickets returns the release's tickets ordered by ticket number.
func (s *SQLiteStore) LoadTickets(ctx context.Context, release string) ([]models.Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM tickets WHERE release = ? ORDER BY ticket_number`, release)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		var ticket models.Ticket
		if err := json.Unmarshal([]byte(data), &ticket); err != nil {
			return nil, fmt.Errorf("failed to decode ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// GetSummary returns the cached summary row, if any.
func (s *SQLiteStore) GetSummary(ctx context.Context, release, ticketNumber string) (*models.SummaryResult, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM summaries WHERE release = ? AND ticket_number = ?`,
		release, ticketNumber).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query summary for %s: %w", ticketNumber, err)
	}

	var result models.SummaryResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode summary for %s: %w", ticketNumber, err)
	}
	return &result, true, nil
}

// SaveSummary upserts one summary row.
func (s *SQLiteStore) SaveSummary(ctx context.Context, release, ticketNumber string, result models.SummaryResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode summary for %s: %w", ticketNumber, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO summaries (release, ticket_number, data) VALUES (?, ?, ?)`,
		release, ticketNumber, string(data))
	if err != nil {
		return fmt.Errorf("failed to save summary for %s: %w", ticketNumber, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
