package archive

import (
	"context"
	"time"

	"github.com/ManuelReschke/CoursePay/app/models"
	"github.com/gofiber/fiber/v2/log"
)

// InlineSink archives newly logged events in a goroutine. Used when the job
// queue is disabled.
type InlineSink struct {
	client  *Client
	timeout time.Duration
}

func NewInlineSink(client *Client) *InlineSink {
	return &InlineSink{client: client, timeout: 10 * time.Second}
}

func (s *InlineSink) EventRecorded(_ context.Context, ev *models.WebhookEvent) {
	rec := RecordFromEvent(ev)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.client.ArchiveEvent(ctx, rec); err != nil {
			log.Warnf("[Archive] event %s not archived: %v", rec.EventID, err)
		}
	}()
}
