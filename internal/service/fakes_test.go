package service

import (
	"context"
	"sync"
	"time"

	"github.com/Eursukkul/stay-booking/internal/models"
	"github.com/Eursukkul/stay-booking/internal/notifier"
	"github.com/Eursukkul/stay-booking/internal/portone"
	"github.com/Eursukkul/stay-booking/internal/repository"
	"gorm.io/datatypes"
)

// --- In-memory BookingRepository with the same conditional-write rules ---

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uint]*models.Booking
	payments map[uint]*models.Payment
	nextPay  uint

	findErr  error
	applyErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: map[uint]*models.Booking{},
		payments: map[uint]*models.Payment{},
	}
}

func (r *fakeBookingRepo) add(b *models.Booking) *models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.Status == "" {
		b.Status = models.StatusPendingPayment
	}
	r.bookings[b.ID] = b
	return b
}

func (r *fakeBookingRepo) addPayment(p *models.Payment) *models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPay++
	p.ID = r.nextPay
	r.payments[p.ID] = p
	return p
}

func (r *fakeBookingRepo) booking(id uint) models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.bookings[id]
}

func (r *fakeBookingRepo) payment(id uint) models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.payments[id]
}

func (r *fakeBookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.add(b)
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uint) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) FindByPublicToken(_ context.Context, token string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.PublicToken == token {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (r *fakeBookingRepo) FindBookingForPayment(_ context.Context, paymentID string) (*models.Booking, *models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, nil, r.findErr
	}
	for _, p := range r.payments {
		if p.ProviderPaymentID != nil && *p.ProviderPaymentID == paymentID {
			b, pc := *r.bookings[p.BookingID], *p
			return &b, &pc, nil
		}
	}
	for _, b := range r.bookings {
		if b.CheckoutPaymentID == nil || *b.CheckoutPaymentID != paymentID {
			continue
		}
		bc := *b
		var earliest *models.Payment
		for _, p := range r.payments {
			if p.BookingID == b.ID && (earliest == nil || p.ID < earliest.ID) {
				earliest = p
			}
		}
		if earliest == nil {
			return &bc, nil, nil
		}
		pc := *earliest
		return &bc, &pc, nil
	}
	return nil, nil, repository.ErrBookingNotFound
}

func (r *fakeBookingRepo) ApplyPaid(_ context.Context, u repository.PaymentUpdate, confirmedAt time.Time, deadline *time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return nil, r.applyErr
	}
	b, ok := r.bookings[u.BookingID]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	paid := models.PaymentPaid
	if b.Status == models.StatusPendingPayment && b.ConfirmedAt == nil {
		b.Status = models.StatusConfirmed
		at := confirmedAt
		b.ConfirmedAt = &at
		if b.CancellationDeadline == nil && deadline != nil {
			d := *deadline
			b.CancellationDeadline = &d
		}
		r.writePayment(u, &paid)
		cp := *b
		return &cp, nil
	}
	if b.Status == models.StatusCancelled {
		r.writePayment(u, nil)
		return nil, repository.ErrPaidAfterCancel
	}
	r.writePayment(u, &paid)
	return nil, nil
}

func (r *fakeBookingRepo) ApplyFailedOrCancelled(_ context.Context, u repository.PaymentUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return false, r.applyErr
	}
	status := u.Status
	r.writePayment(u, &status)
	b := r.bookings[u.BookingID]
	if b.Status != models.StatusPendingPayment {
		return false, nil
	}
	b.Status = models.StatusCancelled
	return true, nil
}

func (r *fakeBookingRepo) ApplyInitiated(_ context.Context, u repository.PaymentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return r.applyErr
	}
	r.writePayment(u, nil)
	return nil
}

func (r *fakeBookingRepo) writePayment(u repository.PaymentUpdate, status *models.PaymentStatus) {
	p, ok := r.payments[u.PaymentRowID]
	if !ok {
		r.nextPay++
		p = &models.Payment{ID: r.nextPay, BookingID: u.BookingID, Status: models.PaymentPending}
		r.payments[p.ID] = p
	}
	if p.ProviderPaymentID == nil && u.ProviderPaymentID != "" {
		id := u.ProviderPaymentID
		p.ProviderPaymentID = &id
	}
	if u.TransactionID != "" {
		tx := u.TransactionID
		p.TransactionID = &tx
	}
	if u.StoreID != "" {
		store := u.StoreID
		p.StoreID = &store
	}
	if status != nil {
		p.Status = *status
	}
	p.RawResponse = datatypes.JSON(u.Raw)
}

// --- Mock provider ---

type mockProvider struct {
	mu    sync.Mutex
	calls int
	getFn func(ctx context.Context, paymentID string) (*portone.Payment, error)
}

func (m *mockProvider) GetPayment(ctx context.Context, paymentID string) (*portone.Payment, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.getFn(ctx, paymentID)
}

func staticProvider(p *portone.Payment) *mockProvider {
	return &mockProvider{getFn: func(context.Context, string) (*portone.Payment, error) {
		cp := *p
		return &cp, nil
	}}
}

// --- Recording notifier/alerter ---

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []uint
	anomalies []notifier.Anomaly
	err       error
}

func (n *recordingNotifier) NotifyConfirmed(_ context.Context, bookingID uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, bookingID)
	return n.err
}

func (n *recordingNotifier) Alert(_ context.Context, a notifier.Anomaly) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.anomalies = append(n.anomalies, a)
	return nil
}

func (n *recordingNotifier) confirmations() []uint {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint(nil), n.confirmed...)
}

// --- In-memory WebhookEventRepository keyed by webhook id ---

type fakeEventRepo struct {
	mu      sync.Mutex
	events  map[string]*models.WebhookEvent
	recErr  error
	records int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]*models.WebhookEvent{}}
}

func (r *fakeEventRepo) Record(_ context.Context, e *models.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records++
	if r.recErr != nil {
		return false, r.recErr
	}
	if _, ok := r.events[e.WebhookID]; ok {
		return false, nil
	}
	r.events[e.WebhookID] = e
	return true, nil
}

func (r *fakeEventRepo) FindByWebhookID(_ context.Context, id string) (*models.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return e, nil
}

// --- Mock seen-delivery cache ---

type mockSeen struct {
	mu     sync.Mutex
	ids    map[string]bool
	err    error
	marked []string
}

func (m *mockSeen) Seen(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.ids[id], nil
}

func (m *mockSeen) MarkSeen(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.ids == nil {
		m.ids = map[string]bool{}
	}
	m.ids[id] = true
	m.marked = append(m.marked, id)
	return nil
}
