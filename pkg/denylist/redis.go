package denylist

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/passpolicy/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/passpolicy/pkg/errors"
)

// SetReader is the subset of *redis.Client used by RedisSource.
type SetReader interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

type RedisConfig struct {
	URL          string
	Key          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
	CacheTTL     time.Duration
}

// NewRedisClient parses cfg.URL, applies pool settings and pings the server.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = cfg.MaxRetries
	opts.MinRetryBackoff = cfg.RetryBackoff
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisSource reads the members of a Redis set. Results are cached for the
// configured TTL and fetches go through a circuit breaker.
type RedisSource struct {
	client SetReader
	key    string
	cache  *cache.Cache
	cb     *circuitbreaker.CircuitBreaker
}

// NewRedisSource reads the set named by cfg.Key, caching it for cfg.CacheTTL
// (five minutes when unset).
func NewRedisSource(client SetReader, cfg RedisConfig) *RedisSource {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisSource{
		client: client,
		key:    cfg.Key,
		cache:  cache.New(ttl, 2*ttl),
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-denylist",
			MaxFailures: 3,
			Timeout:     30 * time.Second,
		}),
	}
}

func (s *RedisSource) Name() string {
	return "redis:" + s.key
}

func (s *RedisSource) Entries(ctx context.Context) ([]string, error) {
	if cached, found := s.cache.Get(s.key); found {
		return cached.([]string), nil
	}

	var members []string
	err := s.cb.Execute(func() error {
		var err error
		members, err = s.client.SMembers(ctx, s.key).Result()
		return err
	})
	if err != nil {
		return nil, apperrors.Unavailable("redis denylist", err)
	}

	s.cache.Set(s.key, members, cache.DefaultExpiration)
	return members, nil
}

// Invalidate drops the cached snapshot so the next call refetches.
func (s *RedisSource) Invalidate() {
	s.cache.Delete(s.key)
}
