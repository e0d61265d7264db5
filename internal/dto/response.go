package dto

import (
	"time"

	"github.com/Eursukkul/stay-booking/internal/models"
	"github.com/Eursukkul/stay-booking/internal/policy"
	"github.com/Eursukkul/stay-booking/internal/service"
)

// Guest-facing booking states. Reconciliation detail stays internal.
const (
	GuestProcessing = "processing"
	GuestConfirmed  = "confirmed"
	GuestCancelled  = "cancelled"
)

const dateLayout = "2006-01-02"

type WebhookAckResponse struct {
	Status string `json:"status"`
}

type GuestBookingResponse struct {
	Token                 string  `json:"token"`
	Status                string  `json:"status"`
	CheckIn               string  `json:"check_in"`
	CheckOut              string  `json:"check_out"`
	Nights                int     `json:"nights"`
	TotalPriceKRW         int64   `json:"total_price_krw"`
	TotalPriceUSD         int64   `json:"total_price_usd"`
	RatePlan              string  `json:"rate_plan"`
	FreeCancellationUntil string  `json:"free_cancellation_until"`
	FreeCancellationNow   bool    `json:"free_cancellation_now"`
	ConfirmedAt           *string `json:"confirmed_at,omitempty"`
}

type WebhookEventResponse struct {
	WebhookID  string    `json:"webhook_id"`
	EventType  string    `json:"event_type"`
	PaymentID  *string   `json:"payment_id,omitempty"`
	Timestamp  string    `json:"timestamp"`
	ReceivedAt time.Time `json:"received_at"`
	Payload    string    `json:"payload"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func GuestStatus(s models.BookingStatus) string {
	switch s {
	case models.StatusConfirmed:
		return GuestConfirmed
	case models.StatusCancelled:
		return GuestCancelled
	default:
		return GuestProcessing
	}
}

func ToGuestBookingResponse(v *service.BookingView) GuestBookingResponse {
	b := v.Booking
	resp := GuestBookingResponse{
		Token:                 b.PublicToken,
		Status:                GuestStatus(b.Status),
		CheckIn:               b.CheckInDate().Format(dateLayout),
		CheckOut:              b.CheckOutDate().Format(dateLayout),
		Nights:                b.Nights,
		TotalPriceKRW:         b.TotalPriceKRW,
		TotalPriceUSD:         b.TotalPriceUSD,
		RatePlan:              string(v.Terms.RatePlan),
		FreeCancellationUntil: policy.FormatKST(v.Terms.Deadline),
		FreeCancellationNow:   v.FreeNow,
	}
	if b.ConfirmedAt != nil {
		at := policy.FormatKST(*b.ConfirmedAt)
		resp.ConfirmedAt = &at
	}
	return resp
}

func ToWebhookEventResponse(e *models.WebhookEvent) WebhookEventResponse {
	return WebhookEventResponse{
		WebhookID:  e.WebhookID,
		EventType:  e.EventType,
		PaymentID:  e.PaymentID,
		Timestamp:  e.Timestamp,
		ReceivedAt: e.ReceivedAt,
		Payload:    string(e.Payload),
	}
}
