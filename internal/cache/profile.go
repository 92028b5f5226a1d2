// Package cache keeps public profiles in Redis so profile pages do not hit
// Postgres on every view.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/thereayou/securechat/internal/models"
)

const keyPrefix = "profile:"

// Connect parses a redis:// URL and checks the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration) *RedisProfileCache {
	return &RedisProfileCache{client: client, ttl: ttl}
}

func (c *RedisProfileCache) Get(ctx context.Context, username string) (*models.Profile, error) {
	data, err := c.client.Get(ctx, keyPrefix+username).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		// a corrupt entry is treated as a miss and dropped
		c.client.Del(ctx, keyPrefix+username)
		return nil, nil
	}
	return &p, nil
}

func (c *RedisProfileCache) Set(ctx context.Context, profile models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+profile.Username, data, c.ttl).Err()
}

func (c *RedisProfileCache) Delete(ctx context.Context, username string) error {
	return c.client.Del(ctx, keyPrefix+username).Err()
}

// NopCache is used when REDIS_URL is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*models.Profile, error) { return nil, nil }
func (NopCache) Set(context.Context, models.Profile) error            { return nil }
func (NopCache) Delete(context.Context, string) error                 { return nil }
