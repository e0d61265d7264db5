package models

import "time"

// WebhookEvent is the append-only audit row for a verified provider delivery.
// WebhookID is the idempotency key and carries a unique index.
type WebhookEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	WebhookID  string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"webhook_id"`
	Timestamp  string    `gorm:"type:varchar(32);not null" json:"timestamp"`
	Signature  string    `gorm:"type:text;not null" json:"signature"`
	Payload    []byte    `gorm:"not null" json:"-"`
	EventType  string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PaymentID  *string   `gorm:"type:varchar(191);index" json:"payment_id,omitempty"`
	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
}
