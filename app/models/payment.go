package models

import (
	"strings"
	"time"
)

const (
	PAYMENT_STATUS_PAID    = "paid"
	PAYMENT_STATUS_UNKNOWN = "unknown"
	COURSE_UNKNOWN         = "unknown"
)

// Payment is one ledger row per checkout session. Only Status changes after
// the row is created.
type Payment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StripeSessionID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_stripe_session_id" json:"session_id"`
	CourseID        string    `gorm:"type:varchar(100);not null;default:'unknown';index" json:"course_id"`
	Amount          int64     `gorm:"not null;default:0" json:"amount"`
	Status          string    `gorm:"type:varchar(32);not null;default:'unknown';index" json:"status"`
	BuyerEmail      *string   `gorm:"type:varchar(200);default:null;index" json:"buyer_email,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsPaid reports whether the processor has confirmed the payment.
func (p Payment) IsPaid() bool {
	return p.Status == PAYMENT_STATUS_PAID
}

// Email returns the buyer email or an empty string.
func (p *Payment) Email() string {
	if p.BuyerEmail == nil {
		return ""
	}
	return *p.BuyerEmail
}

// InitialPaymentStatus maps a processor-reported status to the status stored
// on a new ledger row.
func InitialPaymentStatus(reported string) string {
	reported = strings.TrimSpace(reported)
	switch reported {
	case PAYMENT_STATUS_PAID:
		return PAYMENT_STATUS_PAID
	case "":
		return PAYMENT_STATUS_UNKNOWN
	default:
		return reported
	}
}

// MinorToMajor converts processor minor units to whole currency units,
// truncating any fraction.
func MinorToMajor(minor int64) int64 {
	return minor / 100
}
