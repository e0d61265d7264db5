package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending          PaymentStatus = "PENDING"
	PaymentPaid             PaymentStatus = "PAID"
	PaymentFailed           PaymentStatus = "FAILED"
	PaymentCancelled        PaymentStatus = "CANCELLED"
	PaymentPartialCancelled PaymentStatus = "PARTIAL_CANCELLED"
)

// Payment is one attempt to pay for a booking. A booking can own several.
type Payment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	BookingID         uint           `gorm:"not null;index" json:"booking_id"`
	ProviderPaymentID *string        `gorm:"type:varchar(191)" json:"provider_payment_id,omitempty"`
	Status            PaymentStatus  `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	AmountKRW         int64          `gorm:"not null;default:0" json:"amount_krw"`
	TransactionID     *string        `gorm:"type:varchar(191)" json:"transaction_id,omitempty"`
	StoreID           *string        `gorm:"type:varchar(191)" json:"store_id,omitempty"`
	RawResponse       datatypes.JSON `json:"raw_response,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
