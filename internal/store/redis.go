package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/danielolaszy/spark/internal/logging"
	"github.com/danielolaszy/spark/pkg/models"
)

const redisKeyPrefix = "spark"

// RedisStore keeps one hash per release for tickets and one for summaries;
// hash fields are ticket numbers.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at url (redis://host:port/db).
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	if url == "" {
		return nil, fmt.Errorf("redis cache backend requires REDIS_URL")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logging.Debug("redis cache connected", "addr", opts.Addr, "db", opts.DB)
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func ticketsKey(release string) string {
	return fmt.Sprintf("%s:tickets:%s", redisKeyPrefix, release)
}

func summariesKey(release string) string {
	return fmt.Sprintf("%s:summaries:%s", redisKeyPrefix, release)
}

// HasRelease reports whether the release's ticket hash exists.
func (s *RedisStore) HasRelease(ctx context.Context, release string) (bool, error) {
	n, err := s.client.Exists(ctx, ticketsKey(release)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to query release cache: %w", err)
	}
	return n > 0, nil
}

// SaveTicket sets the ticket's hash field.
func (s *RedisStore) SaveTicket(ctx context.Context, release string, ticket models.Ticket) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to encode ticket %s: %w", ticket.TicketNumber, err)
	}
	if err := s.client.HSet(ctx, ticketsKey(release), ticket.TicketNumber, data).Err(); err != nil {
		return fmt.Errorf("failed to save ticket %s: %w", ticket.TicketNumber, err)
	}
	return nil
}

// LoadTickets returns every ticket in the release's hash.
func (s *RedisStore) LoadTickets(ctx context.Context, release string) ([]models.Ticket, error) {
	values, err := s.client.HGetAll(ctx, ticketsKey(release)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}

	tickets := make([]models.Ticket, 0, len(values))
	for field, data := range values {
		var ticket models.Ticket
		if err := json.Unmarshal([]byte(data), &ticket); err != nil {
			return nil, fmt.Errorf("failed to decode ticket %s: %w", field, err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// GetSummary reads the summary hash field.
func (s *RedisStore) GetSummary(ctx context.Context, release, ticketNumber string) (*models.SummaryResult, bool, error) {
	data, err := s.client.HGet(ctx, summariesKey(release), ticketNumber).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read summary for %s: %w", ticketNumber, err)
	}

	var result models.SummaryResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode summary for %s: %w", ticketNumber, err)
	}
	return &result, true, nil
}

// SaveSummary sets the summary hash field.
func (s *RedisStore) SaveSummary(ctx context.Context, release, ticketNumber string, result models.SummaryResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode summary for %s: %w", ticketNumber, err)
	}
	if err := s.client.HSet(ctx, summariesKey(release), ticketNumber, data).Err(); err != nil {
		return fmt.Errorf("failed to save summary for %s: %w", ticketNumber, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
