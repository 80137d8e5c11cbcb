package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront-checkout-demo/internal/config"
	"storefront-checkout-demo/internal/dto"
	"storefront-checkout-demo/internal/middleware"
	"storefront-checkout-demo/internal/paypalsdk"
	"storefront-checkout-demo/internal/service"
)

// PaypalHandler serves what the browser needs to load the PayPal JS SDK or
// post a PayPal Standard form for the session's cart.
type PaypalHandler struct {
	settings service.SettingsService
	sessions *service.SessionManager
	cfg      config.Paypal
	currency string
	merchant string
}

func NewPaypalHandler(settings service.SettingsService, sessions *service.SessionManager, cfg config.Paypal, checkoutCfg config.Checkout) *PaypalHandler {
	return &PaypalHandler{
		settings: settings,
		sessions: sessions,
		cfg:      cfg,
		currency: checkoutCfg.Currency,
		merchant: checkoutCfg.MerchantName,
	}
}

func (h *PaypalHandler) GetClientID(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := h.settings.ClientID(ctx, middleware.SessionID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.ClientIDResponse{
		ClientID:   id,
		Validation: paypalsdk.ValidateClientID(id),
	})
}

func (h *PaypalHandler) SaveClientID(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ClientIDRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	id, err := h.settings.SaveClientID(ctx, middleware.SessionID(c), req.ClientID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, &dto.ClientIDResponse{
		ClientID:   id,
		Validation: paypalsdk.Validation{OK: true},
	})
}

// ValidateClientID checks an identifier without saving it, for inline
// feedback while typing.
func (h *PaypalHandler) ValidateClientID(c echo.Context) error {
	var req dto.ClientIDRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	return c.JSON(http.StatusOK, paypalsdk.ValidateClientID(req.ClientID))
}

func (h *PaypalHandler) GetScriptURL(c echo.Context) error {
	ctx := c.Request().Context()
	debug, _ := strconv.ParseBool(c.QueryParam("debug"))

	url, err := h.settings.ScriptURL(ctx, middleware.SessionID(c), debug)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, &dto.ScriptURLResponse{URL: url})
}

func (h *PaypalHandler) GetStandardPayload(c echo.Context) error {
	co := h.sessions.Get(c.Request().Context(), middleware.SessionID(c))
	totals := co.Cart().Totals()
	if totals.TotalQuantity == 0 {
		return httpError(service.ErrEmptyCart)
	}

	fields, err := paypalsdk.BuildStandardPayload(paypalsdk.StandardPayloadInput{
		Business:  h.cfg.Business,
		Amount:    totals.TotalAmount,
		Currency:  h.currency,
		ItemName:  h.merchant + " purchase",
		ReturnURL: h.cfg.ReturnURL,
		CancelURL: h.cfg.CancelURL,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.StandardPayloadResponse{
		Action: h.cfg.StandardURL,
		Fields: fields,
	})
}
