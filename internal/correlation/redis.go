package correlation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/replenishment-service/internal/models"
)

const keyPrefix = "replenishment:order:"

// RedisStore implements Store on Redis so several worker processes can share
// one idempotency view. Entries expire after the configured TTL; an expired
// entry simply permits one more supplier call, which the supplier's own order
// history absorbs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("correlation store: redis address is required")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("correlation store: connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Record stores the result as JSON. SetNX keeps the first recorded outcome.
func (s *RedisStore) Record(ctx context.Context, correlationID string, result models.OrderResult) error {
	if correlationID == "" {
		return errors.New("correlation store: correlation id is required")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("correlation store: marshal result: %w", err)
	}

	if err := s.client.SetNX(ctx, keyPrefix+correlationID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("correlation store: record result: %w", err)
	}
	return nil
}

// Lookup fetches and decodes the recorded result, if present.
func (s *RedisStore) Lookup(ctx context.Context, correlationID string) (*models.OrderResult, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+correlationID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("correlation store: lookup result: %w", err)
	}

	var result models.OrderResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false, fmt.Errorf("correlation store: decode result: %w", err)
	}
	return &result, true, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
