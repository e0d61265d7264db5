package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Eursukkul/stay-booking/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaidAfterCancel = errors.New("payment arrived for an already-cancelled booking")
)

// PaymentUpdate carries the provider view of one payment onto a payment row.
// PaymentRowID == 0 means the booking has no row yet and one is created.
type PaymentUpdate struct {
	BookingID         uint
	PaymentRowID      uint
	ProviderPaymentID string
	Status            models.PaymentStatus
	TransactionID     string
	StoreID           string
	Raw               []byte
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByPublicToken(ctx context.Context, token string) (*models.Booking, error)
	FindBookingForPayment(ctx context.Context, paymentID string) (*models.Booking, *models.Payment, error)

	// ApplyPaid confirms a PENDING_PAYMENT booking. The booking is returned only
	// when this call performed the transition.
	ApplyPaid(ctx context.Context, u PaymentUpdate, confirmedAt time.Time, deadline *time.Time) (*models.Booking, error)
	// ApplyFailedOrCancelled records a terminal payment outcome and cancels the
	// booking if it is still awaiting payment.
	ApplyFailedOrCancelled(ctx context.Context, u PaymentUpdate) (cancelled bool, err error)
	// ApplyInitiated stores identifiers and the raw snapshot only.
	ApplyInitiated(ctx context.Context, u PaymentUpdate) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

func (r *bookingRepository) FindByPublicToken(ctx context.Context, token string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("public_token = ?", token).First(&booking).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

// FindBookingForPayment resolves the booking a provider payment id belongs to.
// A payment row carrying the id wins; otherwise the booking whose checkout
// issued the id is used together with its earliest payment row, if any.
func (r *bookingRepository) FindBookingForPayment(ctx context.Context, paymentID string) (*models.Booking, *models.Payment, error) {
	db := r.db.WithContext(ctx)

	var payment models.Payment
	err := db.Where("provider_payment_id = ?", paymentID).Order("id ASC").First(&payment).Error
	if err == nil {
		booking, err := r.FindByID(ctx, payment.BookingID)
		if err != nil {
			return nil, nil, err
		}
		return booking, &payment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	var booking models.Booking
	if err := db.Where("checkout_payment_id = ?", paymentID).First(&booking).Error; err != nil {
		return nil, nil, notFound(err)
	}

	var earliest models.Payment
	err = db.Where("booking_id = ?", booking.ID).Order("created_at ASC, id ASC").First(&earliest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &booking, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &booking, &earliest, nil
}

func (r *bookingRepository) ApplyPaid(ctx context.Context, u PaymentUpdate, confirmedAt time.Time, deadline *time.Time) (*models.Booking, error) {
	var (
		confirmed *models.Booking
		refused   bool
	)
	paid := models.PaymentPaid

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Compare-and-set on a null confirmed_at: of two racing deliveries only
		// one matches the row.
		set := map[string]any{
			"status":       models.StatusConfirmed,
			"confirmed_at": confirmedAt,
		}
		if deadline != nil {
			set["cancellation_deadline"] = gorm.Expr("COALESCE(cancellation_deadline, ?)", *deadline)
		}
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ? AND confirmed_at IS NULL", u.BookingID, models.StatusPendingPayment).
			Updates(set)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var current models.Booking
			if err := tx.First(&current, u.BookingID).Error; err != nil {
				return notFound(err)
			}
			if current.Status == models.StatusCancelled {
				refused = true
				return writePayment(tx, u, nil)
			}
			return writePayment(tx, u, &paid)
		}

		if err := writePayment(tx, u, &paid); err != nil {
			return err
		}
		var booking models.Booking
		if err := tx.First(&booking, u.BookingID).Error; err != nil {
			return err
		}
		confirmed = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	if refused {
		return nil, ErrPaidAfterCancel
	}
	return confirmed, nil
}

func (r *bookingRepository) ApplyFailedOrCancelled(ctx context.Context, u PaymentUpdate) (bool, error) {
	var cancelled bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status := u.Status
		if err := writePayment(tx, u, &status); err != nil {
			return err
		}

		// Never downgrade a confirmed booking from a stale failure.
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", u.BookingID, models.StatusPendingPayment).
			Update("status", models.StatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		cancelled = res.RowsAffected == 1
		return nil
	})
	return cancelled, err
}

func (r *bookingRepository) ApplyInitiated(ctx context.Context, u PaymentUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return writePayment(tx, u, nil)
	})
}

// writePayment stores identifiers, the raw snapshot and optionally a status on
// the payment row. An existing provider payment id is never overwritten.
func writePayment(tx *gorm.DB, u PaymentUpdate, status *models.PaymentStatus) error {
	if u.PaymentRowID == 0 {
		row := &models.Payment{
			BookingID:         u.BookingID,
			ProviderPaymentID: optional(u.ProviderPaymentID),
			Status:            models.PaymentPending,
			TransactionID:     optional(u.TransactionID),
			StoreID:           optional(u.StoreID),
			RawResponse:       datatypes.JSON(u.Raw),
		}
		if status != nil {
			row.Status = *status
		}
		return tx.Create(row).Error
	}

	set := map[string]any{
		"raw_response": datatypes.JSON(u.Raw),
	}
	if u.ProviderPaymentID != "" {
		set["provider_payment_id"] = gorm.Expr("COALESCE(provider_payment_id, ?)", u.ProviderPaymentID)
	}
	if u.TransactionID != "" {
		set["transaction_id"] = u.TransactionID
	}
	if u.StoreID != "" {
		set["store_id"] = u.StoreID
	}
	if status != nil {
		set["status"] = *status
	}
	return tx.Model(&models.Payment{}).Where("id = ?", u.PaymentRowID).Updates(set).Error
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBookingNotFound
	}
	return err
}
