package models

import "time"

// WebhookEvent is the audit record of a verified payment processor
// notification. Rows are written once per EventID and never updated.
type WebhookEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_webhook_events_event_id" json:"event_id"`
	Type        string    `gorm:"type:varchar(100);not null;index" json:"type"`
	PayloadJSON string    `gorm:"type:longtext;not null" json:"payload_json"`
	ReceivedAt  time.Time `gorm:"autoCreateTime;index" json:"received_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
