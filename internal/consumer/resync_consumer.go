package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Eursukkul/stay-booking/internal/portone"
	"github.com/Eursukkul/stay-booking/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const RoutingPaymentResync = "payment.resync"

// ResyncMessage asks for an out-of-band authoritative sync of one payment.
type ResyncMessage struct {
	PaymentID string `json:"payment_id"`
}

type ResyncConsumer struct {
	payments service.PaymentService
	log      *zap.Logger
}

func NewResyncConsumer(payments service.PaymentService, log *zap.Logger) *ResyncConsumer {
	return &ResyncConsumer{payments: payments, log: log.With(zap.String("component", "resync_consumer"))}
}

// Start processes messages until the channel closes. done is closed afterwards.
func (rc *ResyncConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) (done <-chan struct{}) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for msg := range msgs {
			rc.handleMessage(ctx, msg)
		}
		rc.log.Info("channel closed, stopping consumer")
	}()
	return finished
}

func (rc *ResyncConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var req ResyncMessage
	if err := json.Unmarshal(msg.Body, &req); err != nil || req.PaymentID == "" {
		rc.log.Warn("dropping malformed resync message", zap.ByteString("body", msg.Body), zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	log := rc.log.With(zap.String("payment_id", req.PaymentID))

	res, err := rc.payments.SyncPayment(ctx, req.PaymentID)
	if errors.Is(err, portone.ErrPaymentNotFound) {
		log.Warn("provider does not know payment, dropping", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	if err != nil {
		log.Error("resync failed, requeueing", zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}

	log.Info("resynced payment", zap.String("action", string(res.Action)))
	_ = msg.Ack(false)
}
