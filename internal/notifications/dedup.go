package notifications

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduplicator remembers delivered event ids so a redelivered or republished
// event does not e-mail a participant twice.
type Deduplicator interface {
	Delivered(ctx context.Context, eventID string) (bool, error)
	MarkDelivered(ctx context.Context, eventID string) error
}

type RedisDeduplicator struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisDeduplicator(client *redis.Client, ttl time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, ttl: ttl, prefix: "notification:delivered:"}
}

func (d *RedisDeduplicator) Delivered(ctx context.Context, eventID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduplicator) MarkDelivered(ctx context.Context, eventID string) error {
	return d.client.Set(ctx, d.prefix+eventID, time.Now().UTC().Unix(), d.ttl).Err()
}

type HandlerOption func(*eventHandler)

// WithDeduplicator skips events whose id was already delivered.
func WithDeduplicator(d Deduplicator) HandlerOption {
	return func(h *eventHandler) {
		h.dedup = d
	}
}
