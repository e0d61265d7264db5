package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/stay-booking/internal/models"
	"github.com/Eursukkul/stay-booking/internal/notifier"
	"github.com/Eursukkul/stay-booking/internal/policy"
	"github.com/Eursukkul/stay-booking/internal/portone"
	"github.com/Eursukkul/stay-booking/internal/repository"
	"go.uber.org/zap"
)

// Action is what a sync did to the booking.
type Action string

const (
	ActionConfirmed        Action = "confirmed"
	ActionAlreadyConfirmed Action = "already_confirmed"
	ActionCancelled        Action = "cancelled"
	ActionFailureRecorded  Action = "failure_recorded"
	ActionRecorded         Action = "recorded"
	ActionAmountMismatch   Action = "amount_mismatch"
	ActionPaidAfterCancel  Action = "paid_after_cancel"
	ActionSkipped          Action = "skipped"
)

type SyncResult struct {
	PaymentID      string `json:"payment_id"`
	BookingID      uint   `json:"booking_id,omitempty"`
	ProviderStatus string `json:"provider_status,omitempty"`
	Action         Action `json:"action"`
}

// PaymentProvider is the authoritative source of payment state.
type PaymentProvider interface {
	GetPayment(ctx context.Context, paymentID string) (*portone.Payment, error)
}

type PaymentService interface {
	// SyncPayment pulls the provider's view of paymentID and applies it to the
	// owning booking. Unknown payment ids are a no-op.
	SyncPayment(ctx context.Context, paymentID string) (*SyncResult, error)
}

type paymentService struct {
	bookings repository.BookingRepository
	provider PaymentProvider
	policy   policy.Policy
	notifier notifier.Notifier
	alerter  notifier.Alerter
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentService(
	bookings repository.BookingRepository,
	provider PaymentProvider,
	pol policy.Policy,
	n notifier.Notifier,
	alerter notifier.Alerter,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		bookings: bookings,
		provider: provider,
		policy:   pol,
		notifier: n,
		alerter:  alerter,
		log:      log.With(zap.String("component", "payment_sync")),
		now:      time.Now,
	}
}

func (s *paymentService) SyncPayment(ctx context.Context, paymentID string) (*SyncResult, error) {
	log := s.log.With(zap.String("payment_id", paymentID))

	booking, payment, err := s.bookings.FindBookingForPayment(ctx, paymentID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		log.Info("no booking for payment, skipping")
		return &SyncResult{PaymentID: paymentID, Action: ActionSkipped}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find booking for payment %s: %w", paymentID, err)
	}

	remote, err := s.provider.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("query provider payment %s: %w", paymentID, err)
	}

	log = log.With(zap.Uint("booking_id", booking.ID), zap.String("provider_status", remote.Status))
	result := &SyncResult{PaymentID: paymentID, BookingID: booking.ID, ProviderStatus: remote.Status}

	u := repository.PaymentUpdate{
		BookingID:         booking.ID,
		ProviderPaymentID: paymentID,
		TransactionID:     remote.TransactionID,
		StoreID:           remote.StoreID,
		Raw:               remote.Raw,
	}
	if payment != nil {
		u.PaymentRowID = payment.ID
	}

	switch remote.Status {
	case portone.StatusPaid:
		result.Action, err = s.applyPaid(ctx, log, booking, payment, remote, u)
	case portone.StatusFailed:
		u.Status = models.PaymentFailed
		result.Action, err = s.applyTerminal(ctx, log, u)
	case portone.StatusCancelled:
		u.Status = models.PaymentCancelled
		result.Action, err = s.applyTerminal(ctx, log, u)
	case portone.StatusPartialCancelled:
		u.Status = models.PaymentPartialCancelled
		result.Action, err = s.applyTerminal(ctx, log, u)
	default:
		err = s.bookings.ApplyInitiated(ctx, u)
		result.Action = ActionRecorded
	}
	if err != nil {
		return nil, fmt.Errorf("apply %s for booking %d: %w", remote.Status, booking.ID, err)
	}

	log.Info("payment synced", zap.String("action", string(result.Action)))
	return result, nil
}

func (s *paymentService) applyPaid(
	ctx context.Context,
	log *zap.Logger,
	booking *models.Booking,
	payment *models.Payment,
	remote *portone.Payment,
	u repository.PaymentUpdate,
) (Action, error) {
	actual := remote.ChargedAmount()

	if actual != nil {
		if _, known := ExpectedAmount(booking, payment, remote.Currency); !known {
			log.Warn("cannot reconcile amount in unknown currency",
				zap.String("currency", remote.Currency),
				zap.Int64("actual", *actual),
			)
			s.alert(ctx, log, notifier.Anomaly{
				Kind:      notifier.AnomalyUnknownCurrency,
				BookingID: booking.ID,
				PaymentID: u.ProviderPaymentID,
				Currency:  remote.Currency,
				Actual:    actual,
			})
		}
	}

	if !AmountMatches(booking, payment, actual, remote.Currency) {
		expected, _ := ExpectedAmount(booking, payment, remote.Currency)
		log.Warn("amount mismatch, booking left unconfirmed",
			zap.String("currency", remote.Currency),
			zap.Int64("expected", expected),
			zap.Int64("actual", *actual),
		)
		if err := s.bookings.ApplyInitiated(ctx, u); err != nil {
			return "", err
		}
		s.alert(ctx, log, notifier.Anomaly{
			Kind:      notifier.AnomalyAmountMismatch,
			BookingID: booking.ID,
			PaymentID: u.ProviderPaymentID,
			Currency:  remote.Currency,
			Expected:  &expected,
			Actual:    actual,
		})
		return ActionAmountMismatch, nil
	}

	terms := s.policy.Evaluate(policy.Stay{
		CheckIn:   booking.CheckInDate(),
		CreatedAt: booking.CreatedAt,
		RatePlan:  policy.PlanFor(booking.NonRefundableSpecial),
	})
	deadline := terms.Deadline

	confirmed, err := s.bookings.ApplyPaid(ctx, u, s.now().UTC(), &deadline)
	if errors.Is(err, repository.ErrPaidAfterCancel) {
		log.Warn("payment arrived for an already-cancelled booking")
		s.alert(ctx, log, notifier.Anomaly{
			Kind:      notifier.AnomalyPaidAfterCancel,
			BookingID: booking.ID,
			PaymentID: u.ProviderPaymentID,
			Currency:  remote.Currency,
			Actual:    actual,
		})
		return ActionPaidAfterCancel, nil
	}
	if err != nil {
		return "", err
	}
	if confirmed == nil {
		return ActionAlreadyConfirmed, nil
	}

	// Only the call that performed the transition notifies. A failed
	// notification does not undo the confirmation.
	if err := s.notifier.NotifyConfirmed(ctx, confirmed.ID); err != nil {
		log.Error("confirmation notification failed", zap.Error(err))
	}
	return ActionConfirmed, nil
}

func (s *paymentService) applyTerminal(ctx context.Context, log *zap.Logger, u repository.PaymentUpdate) (Action, error) {
	cancelled, err := s.bookings.ApplyFailedOrCancelled(ctx, u)
	if err != nil {
		return "", err
	}
	if cancelled {
		return ActionCancelled, nil
	}
	log.Info("terminal payment status on a settled booking, status kept", zap.String("payment_status", string(u.Status)))
	return ActionFailureRecorded, nil
}

func (s *paymentService) alert(ctx context.Context, log *zap.Logger, a notifier.Anomaly) {
	if err := s.alerter.Alert(ctx, a); err != nil {
		log.Error("operator alert failed", zap.String("kind", string(a.Kind)), zap.Error(err))
	}
}
