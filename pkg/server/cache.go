package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

// ResponseCache stores error-free OOV responses. Keys embed the analyzer
// load time, so a reload never serves stale candidates.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*OOVResponse, bool)
	Add(ctx context.Context, key string, resp *OOVResponse)
}

type memoryCache struct {
	lru *lru.LRU[string, *OOVResponse]
}

// NewMemoryCache creates an in-process LRU cache with a per-entry TTL
func NewMemoryCache(entries int, ttl time.Duration) ResponseCache {
	return &memoryCache{lru: lru.NewLRU[string, *OOVResponse](entries, nil, ttl)}
}

func (c *memoryCache) Get(_ context.Context, key string) (*OOVResponse, bool) {
	return c.lru.Get(key)
}

func (c *memoryCache) Add(_ context.Context, key string, resp *OOVResponse) {
	c.lru.Add(key, resp)
}

const redisKeyPrefix = "morph:oov:"

// RedisCache shares responses between server replicas
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// NewRedisCache connects to url and verifies the connection
func NewRedisCache(ctx context.Context, url string, ttl time.Duration, log *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if log == nil {
		log = logrus.New()
	}

	return &RedisCache{client: client, ttl: ttl, log: log}, nil
}

// Get returns a cached response. Redis errors and corrupt entries are misses.
func (c *RedisCache) Get(ctx context.Context, key string) (*OOVResponse, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		c.log.WithError(err).Warn("Redis cache get failed")
		return nil, false
	}

	var resp OOVResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.client.Del(ctx, redisKeyPrefix+key)
		c.log.WithError(err).Warn("Dropped corrupt cache entry")
		return nil, false
	}
	return &resp, true
}

// Add stores resp with the cache TTL
func (c *RedisCache) Add(ctx context.Context, key string, resp *OOVResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.log.WithError(err).Warn("Failed to marshal cache entry")
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("Redis cache set failed")
	}
}

// Client returns the underlying client, shared with the distributed rate limiter
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
