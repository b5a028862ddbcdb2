package ratelimit

import (
	"context"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/trezcool/mansa/core"
)

const redisTimeout = time.Second

// RedisStore is a fixed window rate limiter shared by every API instance.
type RedisStore struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

var _ middleware.RateLimiterStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string, limit int, window time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, limit: int64(limit), window: window}
}

func (s *RedisStore) key(identifier string) string {
	return "ratelimit:" + s.prefix + ":" + identifier
}

// Allow counts a hit for identifier and reports whether it stays within the limit of the current window.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	var incr *redis.IntCmd
	key := s.key(identifier)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, s.window)
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "counting hit")
	}
	return incr.Val() <= s.limit, nil
}

// NewMemoryStore returns a per-process token bucket: a burst of limit requests,
// then one more every window/limit.
func NewMemoryStore(limit int, window time.Duration) middleware.RateLimiterStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
}

// NewStore returns a Redis store when Redis is configured, an in-memory one otherwise.
// Both admit limit requests up front. Afterwards the Redis store waits for the window
// to end while the memory store refills one request every window/limit, so the memory
// store is the more permissive under sustained traffic.
func NewStore(client *redis.Client, prefix string, conf core.ServerConfig) middleware.RateLimiterStore {
	if client == nil {
		return NewMemoryStore(conf.AuthRateLimit, conf.AuthRateWindow)
	}
	return NewRedisStore(client, prefix, conf.AuthRateLimit, conf.AuthRateWindow)
}

// NewRedisClient connects to Redis, returning nil when no address is configured.
func NewRedisClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	if conf.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}
