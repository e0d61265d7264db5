package handler

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/stay-booking/internal/dto"
	"github.com/Eursukkul/stay-booking/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/bookings/:token", h.GetBooking)
}

// GetBooking is the guest status page. Payment reconciliation detail is
// collapsed into processing/confirmed/cancelled.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking token")
	}

	view, err := h.svc.GetByToken(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, dto.ToGuestBookingResponse(view))
}
