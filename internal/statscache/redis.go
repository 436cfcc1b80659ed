package statscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	// TTL bounds how long a cached entry survives without being refreshed.
	TTL time.Duration
	// KeyPrefix namespaces cache keys. Defaults to "dupreview:stats:".
	KeyPrefix string
}

// Redis is a Redis-backed Store for multi-node deployments.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates a Redis store and verifies connectivity.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "dupreview:stats:"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{
		client: client,
		ttl:    cfg.TTL,
		prefix: cfg.KeyPrefix,
	}, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, projectID string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+projectID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt entry is treated as a miss; the next Put repairs it.
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, projectID string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+projectID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate implements Store.
func (r *Redis) Invalidate(ctx context.Context, projectID string) error {
	if err := r.client.Del(ctx, r.prefix+projectID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
