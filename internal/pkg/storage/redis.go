package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	// URL is a redis:// connection string, used when Client is nil.
	URL string
	// Client is an existing connection. The store does not close it.
	Client *redis.Client
	// Prefix namespaces every key, e.g. "authgate:".
	Prefix string
	// PingTimeout bounds the connectivity check on construction.
	PingTimeout time.Duration
}

// Redis stores values as plain Redis strings.
type Redis struct {
	client *redis.Client
	prefix string
	owned  bool
}

// NewRedis connects (or reuses opts.Client) and verifies connectivity.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := opts.Client
	owned := false
	if client == nil {
		opt, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opt)
		owned = true
	}

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if owned {
			_ = client.Close()
		}
		return nil, err
	}

	return &Redis{client: client, prefix: opts.Prefix, owned: owned}, nil
}

// Get returns the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return val, nil
}

// Set stores value with an optional ttl.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

// Delete removes keys in a single round trip.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := lo.Map(lo.Uniq(keys), func(k string, _ int) string { return r.prefix + k })

	return r.client.Del(ctx, prefixed...).Err()
}

// Close releases the connection when the store created it.
func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}

	return r.client.Close()
}
