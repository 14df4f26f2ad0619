package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventKeyPrefix  = "webhook:event:"
	DefaultEventTTL = 72 * time.Hour
	processedMarker = "1"
)

// RedisEventStore remembers processed webhook event ids for long enough to
// outlast the processor's redelivery window.
type RedisEventStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisEventStore(client redis.UniversalClient, ttl time.Duration) *RedisEventStore {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}

	return &RedisEventStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisEventStore) Claim(ctx context.Context, eventID string) (bool, error) {
	return s.client.SetNX(ctx, eventKey(eventID), processedMarker, s.ttl).Result()
}

func (s *RedisEventStore) Release(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, eventKey(eventID)).Err()
}

func eventKey(eventID string) string {
	return eventKeyPrefix + eventID
}
