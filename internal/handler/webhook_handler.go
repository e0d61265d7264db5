package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/Eursukkul/stay-booking/internal/dto"
	"github.com/Eursukkul/stay-booking/internal/service"
	"github.com/Eursukkul/stay-booking/internal/webhook"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

const webhookBodyLimit = "1M"

type WebhookHandler struct {
	svc service.WebhookService
}

func NewWebhookHandler(svc service.WebhookService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/portone", h.Receive, echoMw.BodyLimit(webhookBodyLimit))
}

// Receive answers the provider. 400 and 500 make the provider redeliver;
// 200 means the delivery is durably recorded (or was already).
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	header := c.Request().Header
	res, err := h.svc.HandleDelivery(c.Request().Context(), webhook.Delivery{
		ID:        header.Get(webhook.HeaderID),
		Signature: header.Get(webhook.HeaderSignature),
		Timestamp: header.Get(webhook.HeaderTimestamp),
		Body:      body,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrMissingHeaders),
			errors.Is(err, webhook.ErrInvalidSignature),
			errors.Is(err, webhook.ErrStaleTimestamp):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEventPersist):
			return echo.NewHTTPError(http.StatusInternalServerError, service.ErrEventPersist.Error())
		default:
			return err
		}
	}

	if res.Outcome == service.OutcomeDuplicate {
		return c.JSON(http.StatusOK, dto.WebhookAckResponse{Status: "duplicate"})
	}
	return c.JSON(http.StatusOK, dto.WebhookAckResponse{Status: "ok"})
}
