package service

import (
	"context"
	"errors"
	"time"

	"github.com/Eursukkul/stay-booking/internal/models"
	"github.com/Eursukkul/stay-booking/internal/policy"
	"github.com/Eursukkul/stay-booking/internal/repository"
)

var ErrBookingNotFound = errors.New("booking not found")

// BookingView is a booking together with its cancellation terms as of now.
type BookingView struct {
	Booking *models.Booking
	Terms   policy.Terms
	FreeNow bool
}

type BookingService interface {
	GetByToken(ctx context.Context, token string) (*BookingView, error)
}

type bookingService struct {
	bookings repository.BookingRepository
	policy   policy.Policy
	now      func() time.Time
}

func NewBookingService(bookings repository.BookingRepository, pol policy.Policy) BookingService {
	return &bookingService{bookings: bookings, policy: pol, now: time.Now}
}

func (s *bookingService) GetByToken(ctx context.Context, token string) (*BookingView, error) {
	b, err := s.bookings.FindByPublicToken(ctx, token)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	terms := s.policy.Evaluate(policy.Stay{
		CheckIn:   b.CheckInDate(),
		CreatedAt: b.CreatedAt,
		RatePlan:  policy.PlanFor(b.NonRefundableSpecial),
	})
	// The deadline fixed at confirmation is what the guest agreed to.
	if b.CancellationDeadline != nil {
		terms.Deadline = b.CancellationDeadline.UTC()
	}

	return &BookingView{
		Booking: b,
		Terms:   terms,
		FreeNow: b.Status != models.StatusCancelled && terms.FreeAt(s.now()),
	}, nil
}
