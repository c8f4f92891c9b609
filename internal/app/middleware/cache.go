package middleware

import (
	"context"
	"strconv"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/queries"
)

// CacheableQuery is implemented by queries whose results may be served from
// the query cache.
type CacheableQuery interface {
	queries.Query
	CacheKey() string
	ResultPrototype() any
}

// QueryCache stores encoded query results under a generation number that
// every successful command advances.
type QueryCache interface {
	Generation(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// QueryCaching serves cacheable queries from cache. Cache failures degrade
// to a direct read.
func QueryCaching(cache QueryCache, codec ResultCodec, ttl time.Duration) QueryMiddleware {
	if cache == nil {
		panic("middleware: query cache required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			cq, ok := q.(CacheableQuery)
			if !ok || ttl <= 0 {
				return nextFn(ctx, q)
			}
			gen, err := cache.Generation(ctx)
			if err != nil {
				return nextFn(ctx, q)
			}
			key := q.Key() + ":" + strconv.FormatInt(gen, 10) + ":" + cq.CacheKey()
			if data, found, err := cache.Get(ctx, key); err == nil && found {
				proto := cq.ResultPrototype()
				if proto != nil && codec.Decode(data, proto) == nil {
					return normalizePrototype(proto), nil
				}
			}
			res, err := nextFn(ctx, q)
			if err != nil {
				return nil, err
			}
			if data, encErr := codec.Encode(res); encErr == nil {
				_ = cache.Set(ctx, key, data, ttl)
			}
			return res, nil
		})
	}
}

// CacheInvalidation advances the cache generation after every successful
// command. It must wrap the Transaction middleware so it runs after commit.
func CacheInvalidation(cache QueryCache) CommandMiddleware {
	if cache == nil {
		panic("middleware: query cache required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			_ = cache.Bump(ctx)
			return res, nil
		})
	}
}
