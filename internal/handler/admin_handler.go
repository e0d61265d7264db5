package handler

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/stay-booking/internal/dto"
	"github.com/Eursukkul/stay-booking/internal/middleware"
	"github.com/Eursukkul/stay-booking/internal/portone"
	"github.com/Eursukkul/stay-booking/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminHandler serves support tooling: authoritative re-sync and webhook audit.
type AdminHandler struct {
	payments service.PaymentService
	webhooks service.WebhookService
	log      *zap.Logger
}

func NewAdminHandler(payments service.PaymentService, webhooks service.WebhookService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{payments: payments, webhooks: webhooks, log: log.With(zap.String("component", "admin"))}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo, token string) {
	admin := e.Group("/api/v1/admin", middleware.AdminAuth(token))
	admin.POST("/payments/:paymentId/sync", h.SyncPayment)
	admin.GET("/webhook-events/:webhookId", h.GetWebhookEvent)
}

func (h *AdminHandler) SyncPayment(c echo.Context) error {
	paymentID := c.Param("paymentId")
	if paymentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "payment id is required")
	}

	var req dto.SyncRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	h.log.Info("manual payment sync", zap.String("payment_id", paymentID), zap.String("reason", req.Reason))

	res, err := h.payments.SyncPayment(c.Request().Context(), paymentID)
	if err != nil {
		var apiErr *portone.APIError
		switch {
		case errors.Is(err, portone.ErrPaymentNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "payment not found at provider")
		case errors.As(err, &apiErr):
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		default:
			return err
		}
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) GetWebhookEvent(c echo.Context) error {
	event, err := h.webhooks.GetEvent(c.Request().Context(), c.Param("webhookId"))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToWebhookEventResponse(event))
}
