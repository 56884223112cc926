package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CoursePay/internal/pkg/billing"
)

// EventProcessor is satisfied by *billing.Service.
type EventProcessor interface {
	Process(ctx context.Context, ev *billing.Event) (*billing.Result, error)
}

// EnqueueWebhookReplay queues a verified event whose storage failed.
func (q *Queue) EnqueueWebhookReplay(ctx context.Context, ev *billing.Event) (*Job, error) {
	payload := WebhookReplayJobPayload{EventID: ev.ID, Payload: string(ev.Raw)}
	return q.EnqueueJob(ctx, JobTypeWebhookReplay, payload.ToMap())
}

// WebhookReplayHandler re-runs processing for a queued event. The body was
// verified before it was queued, so it is only parsed here.
func WebhookReplayHandler(p EventProcessor) HandlerFunc {
	return func(ctx context.Context, job *Job) error {
		payload, err := WebhookReplayJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("failed to parse webhook replay payload: %w", err)
		}

		ev, err := billing.ParseEvent([]byte(payload.Payload))
		if err != nil {
			return fmt.Errorf("replay %s: %w", payload.EventID, err)
		}

		res, err := p.Process(ctx, ev)
		if err != nil {
			return err
		}
		log.Infof("[Webhook] replayed %s: inserted=%t outcome=%s", ev.ID, res.Inserted, res.Outcome)
		return nil
	}
}
