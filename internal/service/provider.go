package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-checkout-demo/internal/model"
	"storefront-checkout-demo/internal/money"
)

// PaymentProvider creates and captures orders. The simulator, the PayPal
// REST client and the Braintree client are interchangeable behind it.
type PaymentProvider interface {
	Name() string
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*model.Order, error)
	CaptureOrder(ctx context.Context, order *model.Order) (*model.Order, error)
}

type PayerIdentity struct {
	GivenName string `json:"given_name"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
}

// PaymentCapture is a capture response with every field populated.
type PaymentCapture struct {
	OrderID   string        `json:"order_id"`
	CaptureID string        `json:"capture_id"`
	Status    string        `json:"status"`
	Amount    model.Amount  `json:"amount"`
	Payer     PayerIdentity `json:"payer"`
}

// LastPayment is what the success screen shows.
type LastPayment struct {
	OrderID    string       `json:"order_id"`
	PayerName  string       `json:"payer_name"`
	PayerEmail string       `json:"payer_email"`
	Amount     model.Amount `json:"amount"`
	Status     string       `json:"status"`
}

const defaultPayerName = "Cliente"

// NormalizeCapture converts a provider capture response, which may miss any
// nested field, into a PaymentCapture. fallback is used when the response
// carries no capture amount.
func NormalizeCapture(details *model.Order, fallback model.Amount) PaymentCapture {
	if details == nil {
		details = &model.Order{}
	}

	out := PaymentCapture{
		OrderID: details.ID,
		Amount:  fallback,
		Status:  details.Status,
	}

	if c := details.FirstCapture(); c != nil {
		out.CaptureID = c.ID
		if c.Status != "" {
			out.Status = c.Status
		}
		if c.Amount != nil && c.Amount.Value != "" {
			out.Amount = *c.Amount
		}
	}
	if out.Status == "" {
		out.Status = model.OrderStatusCompleted
	}
	if out.Amount.Value == "" {
		out.Amount.Value = "0.00"
	}
	if out.Amount.CurrencyCode == "" {
		out.Amount.CurrencyCode = money.DefaultCurrency
	}

	if p := details.Payer; p != nil {
		out.Payer.Email = p.Email
		if p.Name != nil {
			out.Payer.GivenName = p.Name.GivenName
			out.Payer.Surname = p.Name.Surname
		}
	}

	return out
}

func (c PaymentCapture) LastPayment() LastPayment {
	name := defaultPayerName
	if c.Payer.GivenName != "" {
		name = strings.TrimSpace(c.Payer.GivenName + " " + c.Payer.Surname)
	}

	return LastPayment{
		OrderID:    c.OrderID,
		PayerName:  name,
		PayerEmail: c.Payer.Email,
		Amount:     c.Amount,
		Status:     c.Status,
	}
}
