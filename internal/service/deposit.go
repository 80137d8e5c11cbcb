package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/client"
)

var minDeposit = decimal.NewFromInt(10)

type DepositRequest struct {
	Amount    decimal.Decimal
	Currency  string
	FullName  string
	Email     string
	AccountID string
}

// DepositService starts account deposits on the hosted checkout of the
// payment relay.
type DepositService interface {
	StartDeposit(ctx context.Context, req DepositRequest) (string, error)
}

type depositServiceImpl struct {
	relay client.RelayClient
	log   *logrus.Entry
	now   func() time.Time
}

func NewDepositService(relay client.RelayClient, log *logrus.Logger) DepositService {
	return &depositServiceImpl{
		relay: relay,
		log:   log.WithField("component", "deposit"),
		now:   time.Now,
	}
}

// StartDeposit validates req and returns the hosted checkout URL.
func (s *depositServiceImpl) StartDeposit(ctx context.Context, req DepositRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}
	if req.Amount.LessThan(minDeposit) {
		return "", &ValidationError{Field: "amount", Reason: "minimum deposit is " + minDeposit.String()}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	switch currency {
	case "":
		currency = "USD"
	case "USD", "MXN":
	default:
		return "", &ValidationError{Field: "currency", Reason: "must be USD or MXN"}
	}

	order := s.orderToken(strings.TrimSpace(req.AccountID))
	entry := s.log.WithFields(logrus.Fields{
		"order":    order,
		"amount":   req.Amount.String(),
		"currency": currency,
	})

	redirect, err := s.relay.CreateCheckout(ctx, client.RelayCheckoutRequest{
		Amount:   req.Amount,
		Currency: currency,
		Order:    order,
	})
	if err != nil {
		entry.WithError(err).Warn("relay checkout failed")
		return "", fmt.Errorf("start deposit %s: %w", order, err)
	}

	entry.Info("relay checkout created")
	return redirect, nil
}

// orderToken is KVX-<date>-<time>-<4 digits>-<account id>.
func (s *depositServiceImpl) orderToken(accountID string) string {
	return fmt.Sprintf("KVX-%s-%d-%s", s.now().Format("20060102-150405"), 1000+rand.IntN(9000), accountID)
}
