package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/CoursePay/app/models"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// EventSink is notified after an event is written to the event log for the
// first time. Implementations must not block.
type EventSink interface {
	EventRecorded(ctx context.Context, event *models.WebhookEvent)
}

// Service records verified events and reconciles the payment ledger.
type Service struct {
	repo Repository
	sink EventSink
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// SetEventSink registers a sink for newly logged events. Nil disables it.
func (s *Service) SetEventSink(sink EventSink) {
	s.sink = sink
}

// RecordEvent stores the event once per event id. Failures come back as *StorageError.
func (s *Service) RecordEvent(ctx context.Context, ev *Event) (bool, error) {
	row := &models.WebhookEvent{
		EventID:     ev.ID,
		Type:        ev.Type,
		PayloadJSON: string(ev.Raw),
	}
	inserted, err := s.repo.CreateWebhookEventIfNotExists(ctx, row)
	if err != nil {
		return false, &StorageError{Op: "record event", Err: err}
	}
	if inserted && s.sink != nil {
		s.sink.EventRecorded(ctx, row)
	}
	return inserted, nil
}

// ApplyCompletion writes one completed checkout to the ledger.
func (s *Service) ApplyCompletion(ctx context.Context, c CheckoutCompleted) (*models.Payment, error) {
	payment, err := s.repo.ApplyCompletion(ctx, c)
	if err != nil {
		return nil, &StorageError{Op: "apply completion", Err: err}
	}
	return payment, nil
}

// Process logs the event and reconciles the ledger for completed checkouts.
// Reconciliation also runs for already logged events so redeliveries
// converge on the same row. A failed event log write stops processing.
func (s *Service) Process(ctx context.Context, ev *Event) (*Result, error) {
	res := &Result{EventID: ev.ID, EventType: ev.Type, Outcome: OutcomeIgnored}

	inserted, err := s.RecordEvent(ctx, ev)
	if err != nil {
		return res, err
	}
	res.Inserted = inserted

	return s.reconcile(ctx, ev, res)
}

// ReplayEvent re-runs reconciliation for an event already in the event log.
func (s *Service) ReplayEvent(ctx context.Context, eventID string) (*Result, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, ErrEventNotFound
	}

	stored, err := s.repo.FindWebhookEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, &StorageError{Op: "find event", Err: err}
	}

	ev, err := ParseEvent([]byte(stored.PayloadJSON))
	if err != nil {
		return nil, fmt.Errorf("stored event %s: %w", eventID, err)
	}

	return s.reconcile(ctx, ev, &Result{EventID: ev.ID, EventType: ev.Type, Outcome: OutcomeIgnored})
}

func (s *Service) reconcile(ctx context.Context, ev *Event, res *Result) (*Result, error) {
	completed, ok := ev.Data.(CheckoutCompleted)
	if !ok {
		log.Infof("[Webhook] received event %s type=%s", ev.ID, ev.Type)
		return res, nil
	}
	if completed.SessionID == "" {
		log.Warnf("[Webhook] %s %s has no session id, ledger not updated", ev.Type, ev.ID)
		return res, nil
	}

	payment, err := s.ApplyCompletion(ctx, completed)
	if err != nil {
		return res, err
	}
	res.Payment = payment
	res.Outcome = OutcomeApplied

	log.Infof("[Webhook] checkout completed stored: session=%s course_id=%s amount=%d status=%s",
		payment.StripeSessionID, payment.CourseID, payment.Amount, payment.Status)
	return res, nil
}

// ListPayments returns one page of the ledger for the admin view.
func (s *Service) ListPayments(ctx context.Context, q PaymentQuery) (*PaymentPage, error) {
	q = q.Normalize()

	rows, total, err := s.repo.ListPayments(ctx, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.Payment{}
	}

	offset := (q.Page - 1) * q.PageSize
	return &PaymentPage{
		Rows:     rows,
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
		HasPrev:  q.Page > 1,
		HasNext:  int64(offset+len(rows)) < total,
	}, nil
}
