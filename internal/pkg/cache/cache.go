package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/CoursePay/internal/pkg/config"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache miss")

// NewClient connects to the Redis compatible cache server. A failed ping is
// logged and the client is still returned, commands fail until it is reachable.
func NewClient(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.CacheHost, cfg.CachePort),
		Password: cfg.CachePassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("Could not connect to cache: %v", err)
	} else {
		log.Infof("Successfully connected to cache: %s", pong)
	}
	return client
}

// Cache is a thin key/value wrapper around a Redis client.
type Cache struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

func (c *Cache) set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, expiration).Err()
}

// get maps a missing key to ErrMiss.
func (c *Cache) get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

// SetJSON stores v encoded as JSON.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, expiration time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.set(ctx, key, data, expiration)
}

// GetJSON decodes a cached JSON value into v.
func (c *Cache) GetJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := c.get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}
