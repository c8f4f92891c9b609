package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"staybook/internal/app/middleware"
)

const defaultPrefix = "staybook:qc:"

// Redis keeps query results in Redis. The generation counter is a plain
// INCR key so every API replica observes the same invalidations.
type Redis struct {
	Client *redis.Client
	Prefix string
}

// NewRedis parses a redis:// URL and returns a cache bound to a new client.
func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{Client: redis.NewClient(opt)}, nil
}

func (r *Redis) Generation(ctx context.Context) (int64, error) {
	gen, err := r.Client.Get(ctx, r.key("generation")).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Redis) Bump(ctx context.Context) error {
	return r.Client.Incr(ctx, r.key("generation")).Err()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.Client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.Client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.Client.Close()
}

func (r *Redis) key(k string) string {
	if r.Prefix != "" {
		return r.Prefix + k
	}
	return defaultPrefix + k
}

var _ middleware.QueryCache = (*Redis)(nil)
