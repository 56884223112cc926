package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CoursePay/app/models"
	"github.com/ManuelReschke/CoursePay/internal/pkg/archive"
)

// EventArchiver is satisfied by *archive.Client.
type EventArchiver interface {
	ArchiveEvent(ctx context.Context, rec archive.Record) (string, error)
}

// ArchiveEventHandler uploads the event carried by an archive job.
func ArchiveEventHandler(a EventArchiver) HandlerFunc {
	return func(ctx context.Context, job *Job) error {
		payload, err := ArchiveEventJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("failed to parse archive payload: %w", err)
		}
		_, err = a.ArchiveEvent(ctx, archive.Record{
			EventID:     payload.EventID,
			Type:        payload.Type,
			ReceivedAt:  payload.ReceivedAt,
			PayloadJSON: payload.PayloadJSON,
		})
		return err
	}
}

// ArchiveEnqueueTimeout bounds the archive enqueue on the webhook path. It
// runs detached from the request deadline, which belongs to the ledger write.
const ArchiveEnqueueTimeout = 250 * time.Millisecond

// ArchiveSink queues an archive job for every newly logged event.
type ArchiveSink struct {
	queue *Queue
}

func NewArchiveSink(q *Queue) *ArchiveSink {
	return &ArchiveSink{queue: q}
}

func (s *ArchiveSink) EventRecorded(ctx context.Context, ev *models.WebhookEvent) {
	rec := archive.RecordFromEvent(ev)
	payload := ArchiveEventJobPayload{
		EventID:     rec.EventID,
		Type:        rec.Type,
		PayloadJSON: rec.PayloadJSON,
		ReceivedAt:  rec.ReceivedAt,
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ArchiveEnqueueTimeout)
	defer cancel()
	if _, err := s.queue.EnqueueJob(ctx, JobTypeArchiveEvent, payload.ToMap()); err != nil {
		log.Warnf("[Archive] event %s not queued: %v", ev.EventID, err)
	}
}
