package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/km-arc/go-autowire/framework/errors"
)

// KeyPrefix namespaces the keys the redis pool writes.
const KeyPrefix = "autowire:"

// Redis shares entries between processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// OpenRedis connects to addr, which is either host:port or a redis:// URL,
// and pings it.
func OpenRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	if addr == "" {
		return nil, &errors.ConfigurationError{Reason: "redis cache needs an address"}
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	r := NewRedis(redis.NewClient(opts), ttl)
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.client.Close()
		return nil, errors.Wrapf(err, "connect to redis at %s", addr)
	}
	return r, nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "read cache entry %s", key)
	}
	return b, true, nil
}

func (r *Redis) Store(ctx context.Context, key string, value []byte) error {
	err := r.client.Set(ctx, KeyPrefix+key, value, r.ttl).Err()
	return errors.Wrapf(err, "store cache entry %s", key)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, KeyPrefix+key).Err()
	return errors.Wrapf(err, "delete cache entry %s", key)
}

func (r *Redis) Close() error { return r.client.Close() }
