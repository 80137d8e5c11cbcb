package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/logger"
	"storefront-checkout-demo/internal/metrics"
	"storefront-checkout-demo/internal/model"
	"storefront-checkout-demo/internal/repository"
)

var errStorageDown = errors.New("storage down")

// brokenRepository fails every call.
type brokenRepository struct{}

func (brokenRepository) Get(context.Context, string, string) ([]byte, error) {
	return nil, errStorageDown
}

func (brokenRepository) Set(context.Context, string, string, []byte) error {
	return errStorageDown
}

func (brokenRepository) Delete(context.Context, string, string) error {
	return errStorageDown
}

// ctxRepository behaves like a real driver: calls on a done context fail.
type ctxRepository struct {
	repository.KVRepository
}

func (r ctxRepository) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.KVRepository.Get(ctx, namespace, key)
}

func (r ctxRepository) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.KVRepository.Set(ctx, namespace, key, value)
}

func (r ctxRepository) Delete(ctx context.Context, namespace, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.KVRepository.Delete(ctx, namespace, key)
}

// failingProvider creates orders but can be told to fail or to return a
// non-completed capture.
type failingProvider struct {
	createErr  error
	captureErr error
	status     string
}

func (p *failingProvider) Name() string { return "failing" }

func (p *failingProvider) CreateOrder(_ context.Context, amount decimal.Decimal, currency string) (*model.Order, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	return &model.Order{
		ID:            "TEST-1",
		Status:        model.OrderStatusCreated,
		PurchaseUnits: []model.PurchaseUnit{{Amount: &model.Amount{CurrencyCode: currency, Value: amount.StringFixed(2)}}},
	}, nil
}

func (p *failingProvider) CaptureOrder(_ context.Context, order *model.Order) (*model.Order, error) {
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	return &model.Order{ID: order.ID, Status: p.status}, nil
}

func testEntry() *logrus.Entry {
	return logrus.NewEntry(logger.Discard())
}

func testRecorder() *metrics.Recorder {
	return metrics.NewRecorder(prometheus.NewRegistry())
}

func product(id, price string) model.Product {
	return model.Product{
		ID:    id,
		Title: "Product " + id,
		Price: decimal.RequireFromString(price),
		Image: "/img/" + id + ".png",
	}
}

func newTestCart(t *testing.T, repo repository.KVRepository) *CartStore {
	t.Helper()
	if repo == nil {
		repo = repository.NewMemoryRepository()
	}
	return NewCartStore(context.Background(), repo, "session-1", testEntry(), testRecorder())
}

func newTestCheckout(t *testing.T, provider PaymentProvider) *Checkout {
	t.Helper()
	if provider == nil {
		provider = NewSimulator(testEntry())
	}
	return NewCheckout(newTestCart(t, nil), provider, CheckoutOptions{}, testEntry(), testRecorder())
}
