package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusCancelled      BookingStatus = "CANCELLED"
)

// CanTransition reports whether a booking may move from one status to another.
// Only PENDING_PAYMENT has outgoing edges; CONFIRMED and CANCELLED are final.
func CanTransition(from, to BookingStatus) bool {
	if from != StatusPendingPayment {
		return false
	}
	return to == StatusConfirmed || to == StatusCancelled
}

type Booking struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PublicToken string `gorm:"type:varchar(64);not null;uniqueIndex" json:"public_token"`
	ListingID   uint   `gorm:"not null;index" json:"listing_id"`
	GuestID     *uint  `gorm:"index" json:"guest_id,omitempty"`
	GuestEmail  string `gorm:"not null" json:"guest_email"`
	GuestName   string `gorm:"not null" json:"guest_name"`

	CheckIn  datatypes.Date `gorm:"not null" json:"check_in"`
	CheckOut datatypes.Date `gorm:"not null" json:"check_out"`
	Nights   int            `gorm:"not null" json:"nights"`

	// Minor units only: won for KRW, cents for USD.
	TotalPriceKRW int64 `gorm:"not null" json:"total_price_krw"`
	TotalPriceUSD int64 `gorm:"not null;default:0" json:"total_price_usd"`

	Status               BookingStatus `gorm:"type:varchar(20);not null;default:'PENDING_PAYMENT';index" json:"status"`
	ConfirmedAt          *time.Time    `json:"confirmed_at,omitempty"`
	CancellationDeadline *time.Time    `json:"cancellation_deadline,omitempty"`
	NonRefundableSpecial bool          `gorm:"not null;default:false" json:"non_refundable_special"`

	// CheckoutPaymentID is the provider payment id issued by the checkout flow.
	CheckoutPaymentID *string `gorm:"type:varchar(191)" json:"checkout_payment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Payments []Payment `gorm:"foreignKey:BookingID" json:"payments,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.PublicToken == "" {
		b.PublicToken = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = StatusPendingPayment
	}
	return nil
}

func (b *Booking) CheckInDate() time.Time { return time.Time(b.CheckIn) }
func (b *Booking) CheckOutDate() time.Time { return time.Time(b.CheckOut) }
