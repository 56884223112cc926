package billing

import (
	"encoding/json"
	"time"

	"github.com/ManuelReschke/CoursePay/app/models"
)

const (
	// EventCheckoutSessionCompleted is the only event type that writes the ledger.
	EventCheckoutSessionCompleted = "checkout.session.completed"
)

// Event is a verified processor notification. Data holds the typed variant
// selected by Type.
type Event struct {
	ID     string
	Type   string
	Object json.RawMessage
	Raw    []byte
	Data   EventData
}

// EventData is implemented by every event variant the service understands.
type EventData interface {
	eventType() string
}

// CheckoutCompleted carries the fields extracted from a completed checkout
// session. Missing fields already hold their defaults.
type CheckoutCompleted struct {
	SessionID     string
	CourseID      string
	AmountMinor   int64
	PaymentStatus string
	BuyerEmail    *string
}

func (CheckoutCompleted) eventType() string { return EventCheckoutSessionCompleted }

// UnhandledEvent is any event type the ledger does not react to.
type UnhandledEvent struct {
	Type string
}

func (u UnhandledEvent) eventType() string { return u.Type }

// Outcome describes what processing did with an event.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
)

// Result is returned by Service.Process and Service.ReplayEvent.
type Result struct {
	EventID   string
	EventType string
	// Inserted is false when the event id was already in the event log.
	Inserted bool
	Outcome  Outcome
	Payment  *models.Payment
}

// PaymentQuery filters the admin payments view. CreatedBefore is exclusive.
type PaymentQuery struct {
	Q             string
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	Page          int
	PageSize      int
}

// PaymentPage is one page of ledger rows, newest first.
type PaymentPage struct {
	Rows     []models.Payment `json:"rows"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int64            `json:"total"`
	HasPrev  bool             `json:"has_prev"`
	HasNext  bool             `json:"has_next"`
}
