package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ManuelReschke/CoursePay/app/models"
)

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	ID              string            `json:"id"`
	Metadata        map[string]string `json:"metadata"`
	AmountTotal     *int64            `json:"amount_total"`
	PaymentStatus   *string           `json:"payment_status"`
	CustomerDetails *struct {
		Email *string `json:"email"`
	} `json:"customer_details"`
}

// ParseEvent decodes an event envelope. It does not check signatures.
// An envelope without an id is malformed: the event log is keyed by it, so
// such a delivery is rejected rather than reconciled.
func ParseEvent(raw []byte) (*Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	env.ID = strings.TrimSpace(env.ID)
	if env.ID == "" {
		return nil, fmt.Errorf("%w: missing event id", ErrMalformedPayload)
	}

	ev := &Event{
		ID:     env.ID,
		Type:   strings.TrimSpace(env.Type),
		Object: env.Data.Object,
		Raw:    raw,
	}

	switch ev.Type {
	case EventCheckoutSessionCompleted:
		completed, err := parseCheckoutCompleted(env.Data.Object)
		if err != nil {
			return nil, err
		}
		ev.Data = completed
	default:
		ev.Data = UnhandledEvent{Type: ev.Type}
	}
	return ev, nil
}

func parseCheckoutCompleted(obj json.RawMessage) (CheckoutCompleted, error) {
	var s checkoutSessionObject
	obj = bytes.TrimSpace(obj)
	if len(obj) > 0 && !bytes.Equal(obj, []byte("null")) {
		if err := json.Unmarshal(obj, &s); err != nil {
			return CheckoutCompleted{}, fmt.Errorf("%w: checkout session: %v", ErrMalformedPayload, err)
		}
	}

	c := CheckoutCompleted{
		SessionID: strings.TrimSpace(s.ID),
		CourseID:  models.COURSE_UNKNOWN,
	}
	if v := strings.TrimSpace(s.Metadata["course_id"]); v != "" {
		c.CourseID = v
	}
	if s.AmountTotal != nil {
		c.AmountMinor = *s.AmountTotal
	}
	if s.PaymentStatus != nil {
		c.PaymentStatus = strings.TrimSpace(*s.PaymentStatus)
	}
	if s.CustomerDetails != nil && s.CustomerDetails.Email != nil {
		if email := strings.TrimSpace(*s.CustomerDetails.Email); email != "" {
			c.BuyerEmail = &email
		}
	}
	return c, nil
}
