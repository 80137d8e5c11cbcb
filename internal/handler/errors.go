package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-checkout-demo/internal/dto"
	"storefront-checkout-demo/internal/service"
)

// httpError maps service errors onto HTTP statuses. Unknown errors are
// returned unchanged so echo answers 500.
func httpError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Message: verr.Error(),
			Field:   verr.Field,
			Reason:  verr.Reason,
		})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrPaymentInFlight),
		errors.Is(err, service.ErrEmptyCart):
		return echo.NewHTTPError(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
	}
	return err
}
