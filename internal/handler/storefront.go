package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-checkout-demo/internal/catalog"
	"storefront-checkout-demo/internal/dto"
	"storefront-checkout-demo/internal/middleware"
	"storefront-checkout-demo/internal/service"
)

// StorefrontHandler serves the cart and the checkout view state of the
// caller's session. Every action answers with the full view snapshot.
type StorefrontHandler struct {
	sessions *service.SessionManager
	catalog  *catalog.Catalog
}

func NewStorefrontHandler(sessions *service.SessionManager, cat *catalog.Catalog) *StorefrontHandler {
	return &StorefrontHandler{
		sessions: sessions,
		catalog:  cat,
	}
}

func (h *StorefrontHandler) checkout(c echo.Context) *service.Checkout {
	return h.sessions.Get(c.Request().Context(), middleware.SessionID(c))
}

func snapshot(c echo.Context, co *service.Checkout) error {
	return c.JSON(http.StatusOK, &dto.ViewResponse{Snapshot: co.Snapshot()})
}

func (h *StorefrontHandler) GetView(c echo.Context) error {
	return snapshot(c, h.checkout(c))
}

func (h *StorefrontHandler) AddItem(c echo.Context) error {
	var req dto.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	p, ok := h.catalog.Get(req.ProductID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	co := h.checkout(c)
	if err := co.AddToCart(c.Request().Context(), p); err != nil {
		return httpError(err)
	}
	return snapshot(c, co)
}

func (h *StorefrontHandler) ChangeQuantity(c echo.Context) error {
	var req dto.ChangeQuantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	co := h.checkout(c)
	if err := co.ChangeQuantity(c.Request().Context(), c.Param("id"), req.Quantity); err != nil {
		return httpError(err)
	}
	return snapshot(c, co)
}

func (h *StorefrontHandler) RemoveItem(c echo.Context) error {
	co := h.checkout(c)
	if err := co.RemoveLine(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return snapshot(c, co)
}

func (h *StorefrontHandler) ClearCart(c echo.Context) error {
	co := h.checkout(c)
	if err := co.ClearCart(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return snapshot(c, co)
}

func (h *StorefrontHandler) Navigate(c echo.Context) error {
	var req dto.NavigateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	co := h.checkout(c)
	if err := co.Navigate(req.View); err != nil {
		return httpError(err)
	}
	return snapshot(c, co)
}

func (h *StorefrontHandler) ProceedToCheckout(c echo.Context) error {
	return h.transition(c, (*service.Checkout).ProceedToCheckout)
}

func (h *StorefrontHandler) StartProviderRedirect(c echo.Context) error {
	return h.transition(c, (*service.Checkout).StartProviderRedirect)
}

func (h *StorefrontHandler) Cancel(c echo.Context) error {
	return h.transition(c, (*service.Checkout).Cancel)
}

func (h *StorefrontHandler) ContinueShopping(c echo.Context) error {
	return h.transition(c, (*service.Checkout).ContinueShopping)
}

func (h *StorefrontHandler) ReturnToStore(c echo.Context) error {
	return h.transition(c, (*service.Checkout).ReturnToStore)
}

func (h *StorefrontHandler) transition(c echo.Context, fn func(*service.Checkout) error) error {
	co := h.checkout(c)
	if err := fn(co); err != nil {
		return httpError(err)
	}
	return snapshot(c, co)
}

func (h *StorefrontHandler) Pay(c echo.Context) error {
	co := h.checkout(c)
	_, err := co.PaySimulated(c.Request().Context())
	return h.settled(c, co, err)
}

func (h *StorefrontHandler) ProviderScreen(c echo.Context) error {
	co := h.checkout(c)
	if co.View() != service.ViewProviderRedirect {
		return httpError(service.ErrInvalidTransition)
	}
	return c.JSON(http.StatusOK, co.ProviderScreen())
}

func (h *StorefrontHandler) Approve(c echo.Context) error {
	var req dto.ApproveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	co := h.checkout(c)
	_, err := co.Approve(c.Request().Context(), service.Buyer{Name: req.Name, Email: req.Email})
	return h.settled(c, co, err)
}

// settled answers a payment attempt. A failed payment is a normal outcome
// that lands on the cancelled view, so it is not an HTTP error.
func (h *StorefrontHandler) settled(c echo.Context, co *service.Checkout, err error) error {
	if err != nil && !errors.Is(err, service.ErrPaymentFailed) {
		return httpError(err)
	}

	resp := &dto.ViewResponse{Snapshot: co.Snapshot()}
	if err != nil {
		resp.PaymentError = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// ProviderReturn is where a hosted payment page sends the buyer back.
func (h *StorefrontHandler) ProviderReturn(c echo.Context) error {
	title, message := "Payment approved", "We are confirming your payment."

	if c.QueryParam("cancel") != "" {
		title, message = "Payment cancelled", "Your cart was kept."
		co := h.checkout(c)
		if co.View() == service.ViewProviderRedirect {
			_ = co.Cancel()
		}
	}

	return c.HTML(http.StatusOK, returnPage(title, message))
}

func returnPage(title, message string) string {
	return `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>` + title + `</title>
	<style>
		body {
			font-family: Arial, sans-serif;
			text-align: center;
			margin-top: 80px;
		}
		.countdown {
			font-size: 24px;
			font-weight: bold;
		}
	</style>
</head>
<body>
	<h2>` + title + `</h2>
	<p>` + message + `</p>
	<p>Redirecting to the store in <span class="countdown" id="countdown">5</span> seconds…</p>

	<script>
		let seconds = 5;
		const el = document.getElementById("countdown");

		const timer = setInterval(function () {
			seconds--;
			el.textContent = seconds;

			if (seconds <= 0) {
				clearInterval(timer);
				window.location.href = "/";
			}
		}, 1000);
	</script>
</body>
</html>
`
}
