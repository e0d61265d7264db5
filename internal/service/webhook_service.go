package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/stay-booking/internal/models"
	"github.com/Eursukkul/stay-booking/internal/repository"
	"github.com/Eursukkul/stay-booking/internal/webhook"
	"github.com/Eursukkul/stay-booking/pkg/cache"
	"go.uber.org/zap"
)

var (
	ErrEventPersist  = errors.New("failed to persist webhook event")
	ErrEventNotFound = errors.New("webhook event not found")
)

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeNoPayment Outcome = "no_payment"
)

type DeliveryResult struct {
	Outcome      Outcome
	Notification webhook.Notification
	Sync         *SyncResult // nil when no sync ran or the sync failed
}

type DeliveryVerifier interface {
	Verify(d webhook.Delivery) (webhook.Notification, error)
}

type WebhookService interface {
	// HandleDelivery authenticates, records and applies one provider delivery.
	// Errors are either verification errors from package webhook or
	// ErrEventPersist; anything after the event is durable is only logged.
	HandleDelivery(ctx context.Context, d webhook.Delivery) (*DeliveryResult, error)
	GetEvent(ctx context.Context, webhookID string) (*models.WebhookEvent, error)
}

type webhookService struct {
	verifier DeliveryVerifier
	events   repository.WebhookEventRepository
	seen     cache.SeenDeliveries
	payments PaymentService
	log      *zap.Logger
	now      func() time.Time
}

// NewWebhookService wires the delivery pipeline. seen may be nil.
func NewWebhookService(
	verifier DeliveryVerifier,
	events repository.WebhookEventRepository,
	seen cache.SeenDeliveries,
	payments PaymentService,
	log *zap.Logger,
) WebhookService {
	return &webhookService{
		verifier: verifier,
		events:   events,
		seen:     seen,
		payments: payments,
		log:      log.With(zap.String("component", "webhook")),
		now:      time.Now,
	}
}

func (s *webhookService) HandleDelivery(ctx context.Context, d webhook.Delivery) (*DeliveryResult, error) {
	n, err := s.verifier.Verify(d)
	if err != nil {
		s.log.Warn("rejected webhook delivery", zap.String("webhook_id", d.ID), zap.Error(err))
		return nil, err
	}

	log := s.log.With(
		zap.String("webhook_id", d.ID),
		zap.String("event_type", n.Type),
		zap.String("payment_id", n.PaymentID),
	)
	result := &DeliveryResult{Notification: n}

	if s.seen != nil {
		seen, err := s.seen.Seen(ctx, d.ID)
		if err != nil {
			log.Warn("seen-delivery cache unavailable", zap.Error(err))
		} else if seen {
			log.Info("duplicate delivery (cached)")
			result.Outcome = OutcomeDuplicate
			return result, nil
		}
	}

	eventType := n.Type
	if eventType == "" {
		eventType = n.Kind.String()
	}
	event := &models.WebhookEvent{
		WebhookID:  d.ID,
		Timestamp:  d.Timestamp,
		Signature:  d.Signature,
		Payload:    d.Body,
		EventType:  eventType,
		ReceivedAt: s.now().UTC(),
	}
	if n.HasPayment() {
		paymentID := n.PaymentID
		event.PaymentID = &paymentID
	}

	recorded, err := s.events.Record(ctx, event)
	if err != nil {
		log.Error("failed to persist webhook event", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEventPersist, err)
	}
	if !recorded {
		log.Info("duplicate delivery")
		result.Outcome = OutcomeDuplicate
		return result, nil
	}

	if s.seen != nil {
		if err := s.seen.MarkSeen(ctx, d.ID); err != nil {
			log.Warn("failed to cache delivery id", zap.Error(err))
		}
	}

	if !n.HasPayment() {
		log.Info("delivery carries no payment id", zap.String("kind", n.Kind.String()))
		result.Outcome = OutcomeNoPayment
		return result, nil
	}

	result.Outcome = OutcomeProcessed

	// The delivery is durable and will be acknowledged; finish the sync even if
	// the provider hangs up.
	sync, err := s.payments.SyncPayment(context.WithoutCancel(ctx), n.PaymentID)
	if err != nil {
		log.Error("payment sync failed", zap.Error(err))
		return result, nil
	}
	result.Sync = sync
	return result, nil
}

func (s *webhookService) GetEvent(ctx context.Context, webhookID string) (*models.WebhookEvent, error) {
	event, err := s.events.FindByWebhookID(ctx, webhookID)
	if errors.Is(err, repository.ErrEventNotFound) {
		return nil, ErrEventNotFound
	}
	return event, err
}
