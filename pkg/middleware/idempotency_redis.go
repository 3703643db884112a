package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"interviewsync/pkg/logger"
)

// inFlightTTL bounds a reservation left behind by a crashed instance.
const inFlightTTL = 30 * time.Second

// RedisIdempotencyStore shares cached responses between API instances.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client: client,
		ttl:    ttl,
		prefix: "idempotency:",
		log:    log,
	}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("Failed to read idempotency entry", "error", err)
		}
		return nil, false
	}

	var response CachedResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		s.log.Warn("Discarding malformed idempotency entry", "error", err)
		return nil, false
	}
	return &response, true
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, response *CachedResponse) {
	response.CreatedAt = time.Now()
	raw, err := json.Marshal(response)
	if err != nil {
		s.log.Warn("Failed to encode idempotency entry", "error", err)
		return
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		s.log.Warn("Failed to store idempotency entry", "error", err)
	}
}

// Reserve uses SET NX so exactly one instance processes a key at a time. A
// Redis failure lets the request through; the booking transaction still
// guards the slot.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string) bool {
	ok, err := s.client.SetNX(ctx, s.prefix+key+":inflight", time.Now().UnixMilli(), inFlightTTL).Result()
	if err != nil {
		s.log.Warn("Failed to reserve idempotency key", "error", err)
		return true
	}
	return ok
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) {
	if err := s.client.Del(ctx, s.prefix+key+":inflight").Err(); err != nil {
		s.log.Warn("Failed to release idempotency key", "error", err)
	}
}

// Stop is a no-op; the Redis client is closed with the rest of the clients.
func (s *RedisIdempotencyStore) Stop() {}
