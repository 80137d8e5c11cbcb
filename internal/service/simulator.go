package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/model"
	"storefront-checkout-demo/internal/money"
)

const (
	demoPayerGivenName = "Demo"
	demoPayerSurname   = "User"
	demoPayerEmail     = "demo@buyer.test"
)

// Simulator mimics the v2 orders API without network I/O.
// CREATED --capture--> COMPLETED is the only transition.
type Simulator struct {
	log *logrus.Entry
	now func() time.Time
}

func NewSimulator(log *logrus.Entry) *Simulator {
	return &Simulator{
		log: log.WithField("component", "simulator"),
		now: time.Now,
	}
}

func (s *Simulator) Name() string {
	return "simulator"
}

func (s *Simulator) CreateOrder(_ context.Context, amount decimal.Decimal, currency string) (*model.Order, error) {
	if currency == "" {
		currency = money.DefaultCurrency
	}

	return &model.Order{
		ID:     fmt.Sprintf("SIM-%d-%s", s.now().UnixMilli(), randomSuffix()),
		Status: model.OrderStatusCreated,
		Intent: model.IntentCapture,
		PurchaseUnits: []model.PurchaseUnit{
			{Amount: &model.Amount{CurrencyCode: currency, Value: money.FixedAmount(amount)}},
		},
	}, nil
}

// CaptureOrder completes order. A missing purchase-unit amount is captured
// as "0.00" rather than failing the checkout.
func (s *Simulator) CaptureOrder(_ context.Context, order *model.Order) (*model.Order, error) {
	if order == nil {
		return nil, fmt.Errorf("capture nil order: %w", ErrInvalidState)
	}
	if order.Status == model.OrderStatusCompleted {
		return nil, fmt.Errorf("capture order %s already %s: %w", order.ID, order.Status, ErrInvalidState)
	}

	amount := model.Amount{CurrencyCode: money.DefaultCurrency, Value: "0.00"}
	if a := order.UnitAmount(); a != nil && a.Value != "" {
		amount.Value = a.Value
		if a.CurrencyCode != "" {
			amount.CurrencyCode = a.CurrencyCode
		}
	} else {
		s.log.WithField("order_id", order.ID).Warn("order has no purchase unit amount, capturing 0.00")
	}

	order.Status = model.OrderStatusCompleted

	return &model.Order{
		ID:     order.ID,
		Status: model.OrderStatusCompleted,
		Intent: model.IntentCapture,
		PurchaseUnits: []model.PurchaseUnit{{
			Payments: &model.Payments{Captures: []model.Capture{{
				ID:     fmt.Sprintf("CAP-%d", s.now().UnixMilli()),
				Status: model.OrderStatusCompleted,
				Amount: &amount,
			}}},
		}},
		Payer: &model.Payer{
			Name:  &model.PayerName{GivenName: demoPayerGivenName, Surname: demoPayerSurname},
			Email: demoPayerEmail,
		},
	}, nil
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
}
