package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/braintree-go/braintree-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/config"
	"storefront-checkout-demo/internal/model"
	"storefront-checkout-demo/internal/money"
)

const OrderStatusDeclined = "DECLINED"

// BraintreeClient settles checkout totals as Braintree sales. Orders are
// local until capture, which creates the sale and submits it for settlement.
type BraintreeClient interface {
	Name() string
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*model.Order, error)
	CaptureOrder(ctx context.Context, order *model.Order) (*model.Order, error)
}

// transactionCreator is the part of *braintree.TransactionGateway in use.
type transactionCreator interface {
	Create(ctx context.Context, tx *braintree.TransactionRequest) (*braintree.Transaction, error)
}

type braintreeClientImpl struct {
	transactions transactionCreator
	nonce        string
	log          *logrus.Entry
	now          func() time.Time
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree, log *logrus.Logger) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return newBraintreeClient(gateway.Transaction(), cfg.PaymentNonce, log)
}

func newBraintreeClient(transactions transactionCreator, nonce string, log *logrus.Logger) *braintreeClientImpl {
	return &braintreeClientImpl{
		transactions: transactions,
		nonce:        nonce,
		log:          log.WithField("component", "braintree"),
		now:          time.Now,
	}
}

func (c *braintreeClientImpl) Name() string {
	return "braintree"
}

func (c *braintreeClientImpl) CreateOrder(_ context.Context, amount decimal.Decimal, currency string) (*model.Order, error) {
	if currency == "" {
		currency = money.DefaultCurrency
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]

	return &model.Order{
		ID:     fmt.Sprintf("BT-%d-%s", c.now().UnixMilli(), suffix),
		Status: model.OrderStatusCreated,
		Intent: model.IntentCapture,
		PurchaseUnits: []model.PurchaseUnit{
			{Amount: &model.Amount{CurrencyCode: currency, Value: money.FixedAmount(amount)}},
		},
	}, nil
}

func (c *braintreeClientImpl) CaptureOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order == nil {
		return nil, fmt.Errorf("capture braintree order: nil order")
	}
	if order.Status == model.OrderStatusCompleted {
		return nil, fmt.Errorf("capture braintree order %s: already completed", order.ID)
	}
	amount := order.UnitAmount()
	if amount == nil {
		return nil, fmt.Errorf("capture braintree order %s: no amount", order.ID)
	}

	decAmount, err := decimal.NewFromString(amount.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	// braintree.NewDecimal(unscaled, scale): "50.00" -> NewDecimal(5000, 2)
	cents := money.RoundCents(decAmount).Shift(2).IntPart()

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(cents, 2),
		OrderId:            order.ID,
		PaymentMethodNonce: c.nonce,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.transactions.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transaction creation failed: %w", err)
	}

	status := captureStatus(tx.Status)
	entry := c.log.WithFields(logrus.Fields{
		"order_id":       order.ID,
		"transaction_id": tx.Id,
		"status":         tx.Status,
	})
	if status != model.OrderStatusCompleted {
		entry.WithField("processor_response", tx.ProcessorResponseText).Warn("braintree transaction not settled")
	} else {
		entry.Info("braintree transaction submitted for settlement")
		order.Status = model.OrderStatusCompleted
	}

	return &model.Order{
		ID:     order.ID,
		Status: status,
		Intent: model.IntentCapture,
		PurchaseUnits: []model.PurchaseUnit{{
			Payments: &model.Payments{Captures: []model.Capture{{
				ID:     tx.Id,
				Status: status,
				Amount: &model.Amount{CurrencyCode: amount.CurrencyCode, Value: money.FixedAmount(decAmount)},
			}}},
		}},
	}, nil
}

// captureStatus maps a Braintree transaction status onto the order
// capture vocabulary.
func captureStatus(s braintree.TransactionStatus) string {
	switch s {
	case braintree.TransactionStatusAuthorized,
		braintree.TransactionStatusSubmittedForSettlement,
		braintree.TransactionStatusSettling,
		braintree.TransactionStatusSettlementPending,
		braintree.TransactionStatusSettled,
		braintree.TransactionStatusSettlementConfirmed:
		return model.OrderStatusCompleted
	case braintree.TransactionStatusProcessorDeclined,
		braintree.TransactionStatusGatewayRejected,
		braintree.TransactionStatusSettlementDeclined,
		braintree.TransactionStatusFailed:
		return OrderStatusDeclined
	}
	return strings.ToUpper(string(s))
}
