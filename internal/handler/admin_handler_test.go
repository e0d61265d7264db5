package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Eursukkul/stay-booking/internal/dto"
	"github.com/Eursukkul/stay-booking/internal/middleware"
	"github.com/Eursukkul/stay-booking/internal/models"
	"github.com/Eursukkul/stay-booking/internal/portone"
	"github.com/Eursukkul/stay-booking/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const adminToken = "admin-secret"

// --- Mock PaymentService ---

type mockPaymentService struct {
	syncFn func(ctx context.Context, paymentID string) (*service.SyncResult, error)
}

func (m *mockPaymentService) SyncPayment(ctx context.Context, paymentID string) (*service.SyncResult, error) {
	return m.syncFn(ctx, paymentID)
}

func newAdminServer(payments service.PaymentService, webhooks service.WebhookService) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.NewErrorHandler(zap.NewNop())
	NewAdminHandler(payments, webhooks, zap.NewNop()).RegisterRoutes(e, adminToken)
	return e
}

func adminRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+adminToken)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminSync_Handler_Success(t *testing.T) {
	var got string
	payments := &mockPaymentService{
		syncFn: func(ctx context.Context, paymentID string) (*service.SyncResult, error) {
			got = paymentID
			return &service.SyncResult{PaymentID: paymentID, BookingID: 7, ProviderStatus: "PAID", Action: service.ActionConfirmed}, nil
		},
	}

	rec := adminRequest(newAdminServer(payments, nil), http.MethodPost, "/api/v1/admin/payments/pay-1/sync", `{"reason":"guest called"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pay-1", got)
	var resp service.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.ActionConfirmed, resp.Action)
	assert.Equal(t, uint(7), resp.BookingID)
}

func TestAdminSync_Handler_RequiresToken(t *testing.T) {
	payments := &mockPaymentService{
		syncFn: func(ctx context.Context, paymentID string) (*service.SyncResult, error) {
			t.Error("sync must not run without a token")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payments/pay-1/sync", nil)
	rec := httptest.NewRecorder()
	newAdminServer(payments, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminSync_Handler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown at provider", fmt.Errorf("query: %w: %w", portone.ErrPaymentNotFound, &portone.APIError{StatusCode: 404}), http.StatusNotFound},
		{"provider failure", fmt.Errorf("query: %w", &portone.APIError{StatusCode: 503}), http.StatusBadGateway},
		{"store failure", errors.New("deadlock detected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &mockPaymentService{
				syncFn: func(ctx context.Context, paymentID string) (*service.SyncResult, error) {
					return nil, tt.err
				},
			}

			rec := adminRequest(newAdminServer(payments, nil), http.MethodPost, "/api/v1/admin/payments/pay-1/sync", "")

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAdminWebhookEvent_Handler(t *testing.T) {
	paymentID := "pay-1"
	webhooks := &mockWebhookService{
		getFn: func(ctx context.Context, webhookID string) (*models.WebhookEvent, error) {
			if webhookID != "wh-1" {
				return nil, service.ErrEventNotFound
			}
			return &models.WebhookEvent{
				WebhookID:  "wh-1",
				EventType:  "Transaction.Paid",
				PaymentID:  &paymentID,
				Timestamp:  "1772326800",
				Payload:    []byte(`{"type":"Transaction.Paid"}`),
				ReceivedAt: time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	e := newAdminServer(nil, webhooks)

	rec := adminRequest(e, http.MethodGet, "/api/v1/admin/webhook-events/wh-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.WebhookEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Transaction.Paid", resp.EventType)
	assert.Equal(t, `{"type":"Transaction.Paid"}`, resp.Payload)

	rec = adminRequest(e, http.MethodGet, "/api/v1/admin/webhook-events/wh-404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
