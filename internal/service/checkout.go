package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/metrics"
	"storefront-checkout-demo/internal/model"
	"storefront-checkout-demo/internal/money"
)

type View string

const (
	ViewHome             View = "home"
	ViewCategories       View = "categories"
	ViewCart             View = "cart"
	ViewCheckout         View = "checkout"
	ViewProviderRedirect View = "providerRedirect"
	ViewSuccess          View = "success"
	ViewCancelled        View = "cancelled"
)

// tab views are reachable from anywhere through the header
var tabViews = map[View]bool{
	ViewHome:       true,
	ViewCategories: true,
	ViewCart:       true,
	ViewCheckout:   true,
}

const (
	pathDirect   = "direct"
	pathRedirect = "redirect"

	defaultBuyerEmail   = "buyer@paypal.test"
	defaultMerchantName = "Kovex Shop"
)

// PendingPayment lives only while the provider-style screen is shown.
type PendingPayment struct {
	Amount       decimal.Decimal
	CurrencyCode string
	MerchantName string
}

// ProviderScreen is the provider-style payment page, always fully populated.
type ProviderScreen struct {
	MerchantName    string          `json:"merchant_name"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyCode    string          `json:"currency_code"`
	FormattedAmount string          `json:"formatted_amount"`
	BuyerEmail      string          `json:"buyer_email"`
	BuyerName       string          `json:"buyer_name"`
}

// Buyer is what the provider-style screen's form submits on approval.
type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CheckoutOptions struct {
	Currency         string
	MerchantName     string
	SimulatedLatency time.Duration
}

type Snapshot struct {
	View                 View             `json:"view"`
	Lines                []model.CartLine `json:"lines"`
	Totals               Totals           `json:"totals"`
	FormattedTotal       string           `json:"formatted_total"`
	CartEmpty            bool             `json:"cart_empty"`
	Paying               bool             `json:"paying"`
	Provider             *ProviderScreen  `json:"provider,omitempty"`
	LastPayment          *LastPayment     `json:"last_payment,omitempty"`
	FormattedLastPayment string           `json:"formatted_last_payment,omitempty"`
}

// Checkout is the view state machine of one session. It decides when the
// cart is cleared and which payment the success screen shows.
type Checkout struct {
	m           sync.Mutex
	view        View
	pending     *PendingPayment
	lastPayment *LastPayment
	paying      bool

	cart     *CartStore
	provider PaymentProvider
	opts     CheckoutOptions
	log      *logrus.Entry
	metrics  *metrics.Recorder
}

func NewCheckout(cart *CartStore, provider PaymentProvider, opts CheckoutOptions, log *logrus.Entry, rec *metrics.Recorder) *Checkout {
	if opts.Currency == "" {
		opts.Currency = money.DefaultCurrency
	}
	if opts.MerchantName == "" {
		opts.MerchantName = defaultMerchantName
	}

	return &Checkout{
		view:     ViewHome,
		cart:     cart,
		provider: provider,
		opts:     opts,
		log:      log.WithField("component", "checkout"),
		metrics:  rec,
	}
}

func (c *Checkout) Cart() *CartStore {
	return c.cart
}

func (c *Checkout) View() View {
	c.m.Lock()
	defer c.m.Unlock()
	return c.view
}

// Busy reports whether a payment is being settled.
func (c *Checkout) Busy() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.paying
}

// The cart is frozen while a payment is in flight and while the
// provider-style screen holds a pending amount, so the cleared cart is
// always the one that was charged.

func (c *Checkout) AddToCart(ctx context.Context, p model.Product) error {
	return c.mutateCart("add to cart", func() { c.cart.AddToCart(ctx, p) })
}

func (c *Checkout) ChangeQuantity(ctx context.Context, id string, requested int) error {
	return c.mutateCart("change quantity", func() { c.cart.ChangeQuantity(ctx, id, requested) })
}

func (c *Checkout) RemoveLine(ctx context.Context, id string) error {
	return c.mutateCart("remove line", func() { c.cart.RemoveLine(ctx, id) })
}

func (c *Checkout) ClearCart(ctx context.Context) error {
	return c.mutateCart("clear cart", func() { c.cart.Clear(ctx) })
}

func (c *Checkout) mutateCart(op string, fn func()) error {
	c.m.Lock()
	defer c.m.Unlock()

	if c.paying {
		return fmt.Errorf("%s: %w", op, ErrPaymentInFlight)
	}
	if c.view == ViewProviderRedirect {
		return fmt.Errorf("%s from %s: %w", op, c.view, ErrInvalidTransition)
	}
	fn()
	return nil
}

// Navigate handles the header tabs. It has no guards, but only tab views
// can be targeted this way.
func (c *Checkout) Navigate(to View) error {
	if !tabViews[to] {
		return fmt.Errorf("navigate to %q: %w", to, ErrInvalidTransition)
	}

	c.m.Lock()
	defer c.m.Unlock()
	c.view = to
	return nil
}

// ProceedToCheckout is the cart summary's pay button. An empty cart still
// moves to checkout, which then shows the empty message.
func (c *Checkout) ProceedToCheckout() error {
	c.m.Lock()
	defer c.m.Unlock()

	switch c.view {
	case ViewHome, ViewCategories, ViewCart:
		c.view = ViewCheckout
		return nil
	}
	return fmt.Errorf("proceed to checkout from %s: %w", c.view, ErrInvalidTransition)
}

// PaySimulated runs the in-checkout payment. It waits the simulated latency
// and then always resolves; a second call while one is outstanding fails
// with ErrPaymentInFlight.
func (c *Checkout) PaySimulated(ctx context.Context) (*LastPayment, error) {
	c.m.Lock()
	if c.view != ViewCheckout {
		view := c.view
		c.m.Unlock()
		return nil, fmt.Errorf("pay from %s: %w", view, ErrInvalidTransition)
	}
	if c.paying {
		c.m.Unlock()
		return nil, ErrPaymentInFlight
	}
	_, totals := c.cart.Snapshot()
	if totals.TotalQuantity == 0 {
		c.m.Unlock()
		return nil, ErrEmptyCart
	}
	c.paying = true
	c.m.Unlock()

	time.Sleep(c.opts.SimulatedLatency)

	// a paid cart must be cleared in storage even if the caller went away
	ctx = context.WithoutCancel(ctx)
	capture, err := c.settle(ctx, totals.TotalAmount, c.opts.Currency)

	c.m.Lock()
	defer c.m.Unlock()
	c.paying = false
	if err != nil {
		c.failLocked(pathDirect, err)
		return nil, err
	}

	last := capture.LastPayment()
	c.completeLocked(ctx, pathDirect, last)
	return &last, nil
}

// StartProviderRedirect moves to the provider-style screen. No order is
// created until the buyer approves.
func (c *Checkout) StartProviderRedirect() error {
	c.m.Lock()
	defer c.m.Unlock()

	if c.view != ViewCheckout {
		return fmt.Errorf("provider redirect from %s: %w", c.view, ErrInvalidTransition)
	}
	if c.paying {
		return ErrPaymentInFlight
	}
	_, totals := c.cart.Snapshot()
	if totals.TotalQuantity == 0 {
		return ErrEmptyCart
	}

	c.pending = &PendingPayment{
		Amount:       totals.TotalAmount,
		CurrencyCode: c.opts.Currency,
		MerchantName: c.opts.MerchantName,
	}
	c.view = ViewProviderRedirect
	return nil
}

// ProviderScreen renders the pending payment. Without one it degrades to a
// zero amount in the default currency.
func (c *Checkout) ProviderScreen() ProviderScreen {
	c.m.Lock()
	defer c.m.Unlock()
	return c.providerScreenLocked()
}

func (c *Checkout) providerScreenLocked() ProviderScreen {
	screen := ProviderScreen{
		MerchantName: c.opts.MerchantName,
		Amount:       decimal.Zero,
		CurrencyCode: c.opts.Currency,
		BuyerEmail:   defaultBuyerEmail,
		BuyerName:    demoPayerGivenName + " " + demoPayerSurname,
	}
	if p := c.pending; p != nil {
		screen.Amount = p.Amount
		if p.CurrencyCode != "" {
			screen.CurrencyCode = p.CurrencyCode
		}
		if p.MerchantName != "" {
			screen.MerchantName = p.MerchantName
		}
	}
	screen.FormattedAmount = money.FormatDecimal(screen.Amount, screen.CurrencyCode)
	return screen
}

// Approve creates and captures the order for the pending payment.
func (c *Checkout) Approve(ctx context.Context, buyer Buyer) (*LastPayment, error) {
	c.m.Lock()
	if c.view != ViewProviderRedirect {
		view := c.view
		c.m.Unlock()
		return nil, fmt.Errorf("approve from %s: %w", view, ErrInvalidTransition)
	}
	if c.paying {
		c.m.Unlock()
		return nil, ErrPaymentInFlight
	}
	screen := c.providerScreenLocked()
	c.paying = true
	c.m.Unlock()

	ctx = context.WithoutCancel(ctx)
	capture, err := c.settle(ctx, screen.Amount, screen.CurrencyCode)

	c.m.Lock()
	defer c.m.Unlock()
	c.paying = false
	c.pending = nil
	if err != nil {
		c.failLocked(pathRedirect, err)
		return nil, err
	}

	last := capture.LastPayment()
	last.PayerName = defaultPayerName
	if name := strings.TrimSpace(buyer.Name); name != "" {
		last.PayerName = name
	}
	last.PayerEmail = defaultBuyerEmail
	if email := strings.TrimSpace(buyer.Email); email != "" {
		last.PayerEmail = email
	}

	c.completeLocked(ctx, pathRedirect, last)
	return &last, nil
}

// Cancel leaves the provider-style screen without touching the cart.
func (c *Checkout) Cancel() error {
	c.m.Lock()
	defer c.m.Unlock()

	if c.view != ViewProviderRedirect {
		return fmt.Errorf("cancel from %s: %w", c.view, ErrInvalidTransition)
	}
	if c.paying {
		return ErrPaymentInFlight
	}

	c.pending = nil
	c.view = ViewCancelled
	c.metrics.CheckoutOutcomes.WithLabelValues(pathRedirect, "cancelled").Inc()
	return nil
}

func (c *Checkout) ContinueShopping() error {
	return c.leave(ViewSuccess)
}

func (c *Checkout) ReturnToStore() error {
	return c.leave(ViewCancelled)
}

func (c *Checkout) leave(from View) error {
	c.m.Lock()
	defer c.m.Unlock()

	if c.view != from {
		return fmt.Errorf("leave %s from %s: %w", from, c.view, ErrInvalidTransition)
	}
	c.view = ViewHome
	return nil
}

func (c *Checkout) LastPayment() *LastPayment {
	c.m.Lock()
	defer c.m.Unlock()
	if c.lastPayment == nil {
		return nil
	}
	last := *c.lastPayment
	return &last
}

func (c *Checkout) Snapshot() Snapshot {
	c.m.Lock()
	defer c.m.Unlock()

	lines, totals := c.cart.Snapshot()
	snap := Snapshot{
		View:           c.view,
		Lines:          lines,
		Totals:         totals,
		FormattedTotal: money.FormatDecimal(totals.TotalAmount, c.opts.Currency),
		CartEmpty:      len(lines) == 0,
		Paying:         c.paying,
	}
	if c.view == ViewProviderRedirect {
		screen := c.providerScreenLocked()
		snap.Provider = &screen
	}
	if c.lastPayment != nil {
		last := *c.lastPayment
		snap.LastPayment = &last
		snap.FormattedLastPayment = money.FormatDecimal(money.ParseAmount(last.Amount.Value), last.Amount.CurrencyCode)
	}
	return snap
}

// settle runs create + capture on the provider. Any failure, and any capture
// that is not COMPLETED, is reported as ErrPaymentFailed.
func (c *Checkout) settle(ctx context.Context, amount decimal.Decimal, currency string) (PaymentCapture, error) {
	provider := c.provider.Name()

	order, err := c.provider.CreateOrder(ctx, amount, currency)
	if err != nil {
		return PaymentCapture{}, fmt.Errorf("%w: create order: %w", ErrPaymentFailed, err)
	}
	c.metrics.OrdersCreated.WithLabelValues(provider).Inc()

	details, err := c.provider.CaptureOrder(ctx, order)
	if err != nil {
		return PaymentCapture{}, fmt.Errorf("%w: capture order %s: %w", ErrPaymentFailed, order.ID, err)
	}

	capture := NormalizeCapture(details, model.Amount{CurrencyCode: currency, Value: money.FixedAmount(amount)})
	if capture.Status != model.OrderStatusCompleted {
		return PaymentCapture{}, fmt.Errorf("%w: order %s captured with status %s", ErrPaymentFailed, capture.OrderID, capture.Status)
	}
	c.metrics.CapturesCompleted.WithLabelValues(provider).Inc()
	return capture, nil
}

func (c *Checkout) completeLocked(ctx context.Context, path string, last LastPayment) {
	c.lastPayment = &last
	c.cart.Clear(ctx)
	c.view = ViewSuccess
	c.metrics.CheckoutOutcomes.WithLabelValues(path, "success").Inc()
	c.log.WithFields(logrus.Fields{
		"order_id": last.OrderID,
		"amount":   last.Amount.Value,
		"currency": last.Amount.CurrencyCode,
		"path":     path,
	}).Info("checkout completed")
}

func (c *Checkout) failLocked(path string, err error) {
	c.view = ViewCancelled
	c.metrics.CheckoutOutcomes.WithLabelValues(path, "failed").Inc()
	c.log.WithError(err).WithField("path", path).Warn("payment failed, cart left untouched")
}
