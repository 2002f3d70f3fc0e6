package userinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/instaflan/web/internal/models"
)

// Cache keeps the last aggregate per session so a new request can draw the
// navigation bar before the first refresh lands.
type Cache interface {
	Get(ctx context.Context, key string) (models.UserInfo, bool, error)
	Set(ctx context.Context, key string, info models.UserInfo) error
	Delete(ctx context.Context, key string) error
}

type memoryCache struct {
	mu    sync.RWMutex
	items map[string]models.UserInfo
}

func NewMemoryCache() Cache {
	return &memoryCache{items: map[string]models.UserInfo{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (models.UserInfo, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.items[key]
	return info, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, info models.UserInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = info
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache stores aggregates as JSON under "userinfo:<key>".
func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

// DialRedis parses url, connects and pings the server.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func redisKey(key string) string {
	return "userinfo:" + key
}

func (c *redisCache) Get(ctx context.Context, key string) (models.UserInfo, bool, error) {
	var info models.UserInfo
	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return info, false, nil
	}
	if err != nil {
		return info, false, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, false, err
	}
	return info, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, info models.UserInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(key), data, c.ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, redisKey(key)).Err()
}
