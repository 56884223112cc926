package counter

import (
	"context"
	"testing"
	"time"

	"github.com/ManuelReschke/CoursePay/internal/pkg/cache/cachetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookCounters(t *testing.T) {
	w := NewWebhookCounters(cachetest.NewClient(t, 12))
	ctx := context.Background()

	w.Add(ctx, Received)
	w.Add(ctx, Received)
	w.Add(ctx, Applied)

	snap, err := w.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap[Received])
	assert.Equal(t, int64(1), snap[Applied])
	assert.Equal(t, int64(0), snap[Duplicate])
	assert.Len(t, snap, len(Fields))
}

func TestWebhookCountersWithoutClient(t *testing.T) {
	w := NewWebhookCounters(nil)
	w.Add(context.Background(), Received)

	snap, err := w.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap[Received])

	var nilCounters *WebhookCounters
	nilCounters.Add(context.Background(), Received)
}

func TestWebhookCountersIgnoreCallerCancellation(t *testing.T) {
	w := NewWebhookCounters(cachetest.NewClient(t, 12))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.Add(ctx, Received)

	snap, err := w.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap[Received])
}

func TestWebhookCountersBoundedOnStalledRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "10.255.255.1:6379",
		DialTimeout: 30 * time.Second,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	w := NewWebhookCounters(client)

	start := time.Now()
	w.Add(context.Background(), Received)
	assert.Less(t, time.Since(start), 2*time.Second)
}
