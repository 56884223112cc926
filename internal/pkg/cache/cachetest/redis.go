// Package cachetest provides Redis clients for tests that need a live server.
package cachetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ManuelReschke/CoursePay/internal/pkg/env"
	"github.com/redis/go-redis/v9"
)

func resolve(t *testing.T) (string, string, string) {
	t.Helper()

	hosts := uniq(env.GetEnv("CACHE_HOST", ""), "cache", "localhost", "127.0.0.1")
	ports := uniq(env.GetEnv("CACHE_PORT", "6379"), "6379")
	password := env.GetEnv("CACHE_PASSWORD", "")

	var lastErr error
	for _, host := range hosts {
		for _, port := range ports {
			client := redis.NewClient(&redis.Options{
				Addr:     fmt.Sprintf("%s:%s", host, port),
				Password: password,
			})
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			_, err := client.Ping(ctx).Result()
			cancel()
			_ = client.Close()
			if err == nil {
				return host, port, password
			}
			lastErr = err
		}
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
	return "", "", ""
}

func uniq(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NewClient returns a client on an isolated, flushed database or skips the
// test when no Redis server is reachable.
func NewClient(t *testing.T, db int) *redis.Client {
	t.Helper()

	host, port, password := resolve(t)
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})
	if err := client.FlushDB(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush isolated redis db %d: %v", db, err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}
