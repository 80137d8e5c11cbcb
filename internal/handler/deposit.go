package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront-checkout-demo/internal/client"
	"storefront-checkout-demo/internal/dto"
	"storefront-checkout-demo/internal/service"
)

type DepositHandler struct {
	deposits service.DepositService
}

func NewDepositHandler(deposits service.DepositService) *DepositHandler {
	return &DepositHandler{
		deposits: deposits,
	}
}

// CreateDeposit takes the deposit form and redirects to the relay's hosted
// checkout.
func (h *DepositHandler) CreateDeposit(c echo.Context) error {
	ctx := c.Request().Context()

	var form dto.DepositForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid deposit form")
	}

	// unparsable amounts count as zero and fail validation
	amount, err := decimal.NewFromString(strings.TrimSpace(form.Amount))
	if err != nil {
		amount = decimal.Zero
	}

	redirect, err := h.deposits.StartDeposit(ctx, service.DepositRequest{
		Amount:    amount,
		Currency:  form.Currency,
		FullName:  strings.TrimSpace(form.FullName),
		Email:     strings.TrimSpace(form.Email),
		AccountID: form.AccountID,
	})

	var relayErr *client.RelayError
	switch {
	case err == nil:
		return c.Redirect(http.StatusFound, redirect)
	case errors.As(err, &relayErr):
		return c.JSON(http.StatusBadGateway, &dto.RelayErrorResponse{
			Message:    "payment relay rejected the checkout",
			StatusCode: relayErr.StatusCode,
			Body:       relayErr.Body,
		})
	case errors.Is(err, client.ErrRelayUnreachable):
		return c.JSON(http.StatusBadGateway, &dto.RelayErrorResponse{
			Message: "could not reach the payment relay",
		})
	}
	return httpError(err)
}
