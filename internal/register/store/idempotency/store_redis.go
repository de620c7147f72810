// Package idempotency maps client-supplied idempotency keys to the row key
// their first attempt registered under, so a retried submission addresses the
// record it already created instead of minting a duplicate.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "careershot:idempotency:"

// Redis reserves idempotency keys with SETNX and a TTL.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed replay guard. Reservations expire after
// ttl; a retry beyond the TTL behaves like a fresh registration.
func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Reserve records key → rowKey if the key is unseen and returns rowKey; for a
// replayed key it returns the row key stored by the first attempt.
func (s *Redis) Reserve(ctx context.Context, key, rowKey string) (string, error) {
	redisKey := keyPrefix + key

	set, err := s.client.SetNX(ctx, redisKey, rowKey, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("reserve idempotency key: %w", err)
	}
	if set {
		return rowKey, nil
	}

	existing, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if err == redis.Nil {
			// Reservation expired between SetNX and Get; take the key.
			return s.Reserve(ctx, key, rowKey)
		}
		return "", fmt.Errorf("read idempotency key: %w", err)
	}
	return existing, nil
}
