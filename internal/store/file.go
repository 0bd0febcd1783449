package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielolaszy/spark/internal/logging"
	"github.com/danielolaszy/spark/pkg/models"
)

const (
	ticketsDir   = "tickets"
	workflowsDir = "workflows"
)

// encodeName maps a release or ticket name to a single path element.
// Separators, '%', control bytes and a leading dot are percent-encoded, so
// distinct names never share a file.
func encodeName(name string) string {
	if name == "" {
		return "%"
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '%' || c == '/' || c == '\\' || c < 0x20 || c == 0x7f || (c == '.' && i == 0) {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// FileStore keeps one JSON file per ticket and per summary:
//
//	<root>/tickets/<release>/<TICKET>.json
//	<root>/workflows/<release>/<TICKET>--workflow.json
type FileStore struct {
	root string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

func (s *FileStore) releaseDir(kind, release string) string {
	return filepath.Join(s.root, kind, encodeName(release))
}

// HasRelease reports whether the release's ticket directory exists.
func (s *FileStore) HasRelease(_ context.Context, release string) (bool, error) {
	info, err := os.Stat(s.releaseDir(ticketsDir, release))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat release cache: %w", err)
	}
	return info.IsDir(), nil
}

// SaveTicket writes the ticket atomically.
func (s *FileStore) SaveTicket(_ context.Context, release string, ticket models.Ticket) error {
	data, err := json.MarshalIndent(ticket, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ticket %s: %w", ticket.TicketNumber, err)
	}

	path := filepath.Join(s.releaseDir(ticketsDir, release), encodeName(ticket.TicketNumber)+".json")
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("failed to save ticket %s: %w", ticket.TicketNumber, err)
	}

	logging.Debug("saved ticket", "release", release, "ticket", ticket.TicketNumber, "path", path)
	return nil
}

// LoadTickets reads every ticket file of the release.
func (s *FileStore) LoadTickets(_ context.Context, release string) ([]models.Ticket, error) {
	dir := s.releaseDir(ticketsDir, release)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list release cache: %w", err)
	}

	var tickets []models.Ticket
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		var ticket models.Ticket
		if err := json.Unmarshal(data, &ticket); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", entry.Name(), err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, nil
}

func (s *FileStore) summaryPath(release, ticketNumber string) string {
	return filepath.Join(s.releaseDir(workflowsDir, release), encodeName(ticketNumber)+"--workflow.json")
}

// GetSummary reads a cached summarization result.
func (s *FileStore) GetSummary(_ context.Context, release, ticketNumber string) (*models.SummaryResult, bool, error) {
	data, err := os.ReadFile(s.summaryPath(release, ticketNumber))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read summary for %s: %w", ticketNumber, err)
	}

	var result models.SummaryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode summary for %s: %w", ticketNumber, err)
	}
	return &result, true, nil
}

// SaveSummary writes a summarization result atomically.
func (s *FileStore) SaveSummary(_ context.Context, release, ticketNumber string, result models.SummaryResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary for %s: %w", ticketNumber, err)
	}

	if err := writeAtomic(s.summaryPath(release, ticketNumber), data); err != nil {
		return fmt.Errorf("failed to save summary for %s: %w", ticketNumber, err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
