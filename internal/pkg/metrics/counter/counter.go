package counter

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const webhookCountersKey = "billing:webhook:counters"

// AddTimeout bounds one counter write. It is detached from the caller's
// deadline so a stalled Redis cannot eat into request work.
const AddTimeout = 250 * time.Millisecond

// Webhook outcome fields.
const (
	Received         = "received"
	Duplicate        = "duplicate"
	InvalidSignature = "invalid_signature"
	Malformed        = "malformed"
	Ignored          = "ignored"
	Applied          = "applied"
	StorageWarning   = "storage_warning"
)

// Fields lists the outcome fields in display order.
var Fields = []string{Received, Duplicate, InvalidSignature, Malformed, Ignored, Applied, StorageWarning}

// WebhookCounters counts webhook outcomes in a Redis hash. A nil client
// turns every call into a no-op.
type WebhookCounters struct {
	client *redis.Client
}

func NewWebhookCounters(client *redis.Client) *WebhookCounters {
	return &WebhookCounters{client: client}
}

// Add increments a field. Errors are logged, counting never fails a request.
func (w *WebhookCounters) Add(ctx context.Context, field string) {
	if w == nil || w.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), AddTimeout)
	defer cancel()
	if err := w.client.HIncrBy(ctx, webhookCountersKey, field, 1).Err(); err != nil {
		log.Warnf("[Webhook] counter %s not updated: %v", field, err)
	}
}

// Snapshot returns all counters, with missing fields reported as zero.
func (w *WebhookCounters) Snapshot(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(Fields))
	for _, f := range Fields {
		out[f] = 0
	}
	if w == nil || w.client == nil {
		return out, nil
	}

	data, err := w.client.HGetAll(ctx, webhookCountersKey).Result()
	if err != nil {
		return out, err
	}
	for k, v := range data {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}
