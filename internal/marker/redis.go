package marker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "sendmarker:"

	// defaultTTL keeps markers long enough to cover any realistic gap
	// between a crash and the next run, without accumulating forever.
	defaultTTL = 30 * 24 * time.Hour
)

// Redis is a marker store backed by a shared Redis instance, so markers
// survive process restarts and are visible across replicas.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Seen(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("checking send marker: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Mark(ctx context.Context, key string) error {
	if err := r.client.Set(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), r.ttl).Err(); err != nil {
		return fmt.Errorf("writing send marker: %w", err)
	}
	return nil
}
