// Package notifier announces booking confirmations and reconciliation anomalies
// to downstream consumers (guest email, operator on-call).
package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	RoutingBookingConfirmed = "booking.confirmed"
	RoutingPaymentAnomaly   = "payment.anomaly"
)

type AnomalyKind string

const (
	AnomalyAmountMismatch  AnomalyKind = "amount_mismatch"
	AnomalyPaidAfterCancel AnomalyKind = "paid_after_cancel"
	AnomalyUnknownCurrency AnomalyKind = "unknown_currency"
)

// Anomaly is a reconciliation outcome an operator has to look at.
type Anomaly struct {
	Kind      AnomalyKind `json:"kind"`
	BookingID uint        `json:"booking_id"`
	PaymentID string      `json:"payment_id"`
	Currency  string      `json:"currency,omitempty"`
	Expected  *int64      `json:"expected,omitempty"`
	Actual    *int64      `json:"actual,omitempty"`
	At        time.Time   `json:"at"`
}

type Notifier interface {
	NotifyConfirmed(ctx context.Context, bookingID uint) error
}

type Alerter interface {
	Alert(ctx context.Context, a Anomaly) error
}

// Publisher is the slice of pkg/rabbitmq the notifier needs.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, payload any) error
}

type ConfirmedMessage struct {
	BookingID  uint      `json:"booking_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AMQPNotifier struct {
	pub Publisher
	log *zap.Logger
	now func() time.Time
}

func NewAMQPNotifier(pub Publisher, log *zap.Logger) *AMQPNotifier {
	return &AMQPNotifier{pub: pub, log: log.With(zap.String("component", "notifier")), now: time.Now}
}

func (n *AMQPNotifier) NotifyConfirmed(ctx context.Context, bookingID uint) error {
	msg := ConfirmedMessage{BookingID: bookingID, OccurredAt: n.now().UTC()}
	if err := n.pub.PublishJSON(ctx, RoutingBookingConfirmed, msg); err != nil {
		return err
	}
	n.log.Info("booking confirmation published", zap.Uint("booking_id", bookingID))
	return nil
}

func (n *AMQPNotifier) Alert(ctx context.Context, a Anomaly) error {
	if a.At.IsZero() {
		a.At = n.now().UTC()
	}
	return n.pub.PublishJSON(ctx, RoutingPaymentAnomaly, a)
}

// LogNotifier stands in when no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("component", "notifier"))}
}

func (n *LogNotifier) NotifyConfirmed(_ context.Context, bookingID uint) error {
	n.log.Info("booking confirmed", zap.Uint("booking_id", bookingID))
	return nil
}

func (n *LogNotifier) Alert(_ context.Context, a Anomaly) error {
	fields := []zap.Field{
		zap.String("kind", string(a.Kind)),
		zap.Uint("booking_id", a.BookingID),
		zap.String("payment_id", a.PaymentID),
	}
	if a.Currency != "" {
		fields = append(fields, zap.String("currency", a.Currency))
	}
	if a.Expected != nil {
		fields = append(fields, zap.Int64("expected", *a.Expected))
	}
	if a.Actual != nil {
		fields = append(fields, zap.Int64("actual", *a.Actual))
	}
	n.log.Warn("payment anomaly", fields...)
	return nil
}
