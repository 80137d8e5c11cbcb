package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/metrics"
	"storefront-checkout-demo/internal/model"
	"storefront-checkout-demo/internal/money"
	"storefront-checkout-demo/internal/repository"
)

// CartKey is the storage key of the cart inside a session namespace.
const CartKey = "cart"

type Totals struct {
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// CartStore holds the lines of one session's cart. Every mutation writes the
// whole cart back to storage; write failures are logged and the in-memory
// cart stays authoritative.
type CartStore struct {
	m         sync.Mutex
	lines     []model.CartLine
	repo      repository.KVRepository
	sessionID string
	log       *logrus.Entry
	metrics   *metrics.Recorder
}

func NewCartStore(ctx context.Context, repo repository.KVRepository, sessionID string, log *logrus.Entry, rec *metrics.Recorder) *CartStore {
	s := &CartStore{
		repo:      repo,
		sessionID: sessionID,
		log:       log.WithFields(logrus.Fields{"component": "cart", "session_id": sessionID}),
		metrics:   rec,
	}
	s.lines = s.load(ctx)
	return s
}

func (s *CartStore) load(ctx context.Context) []model.CartLine {
	data, err := s.repo.Get(ctx, s.sessionID, CartKey)
	if errors.Is(err, repository.ErrNotFound) {
		return []model.CartLine{}
	}
	if err != nil {
		s.log.WithError(err).Warn("cart read failed, starting empty")
		s.metrics.PersistenceFailures.WithLabelValues("read").Inc()
		return []model.CartLine{}
	}

	var lines []model.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		s.log.WithError(err).Warn("stored cart is corrupt, starting empty")
		s.metrics.PersistenceFailures.WithLabelValues("decode").Inc()
		return []model.CartLine{}
	}

	seen := make(map[string]bool, len(lines))
	for i := range lines {
		if lines[i].ID == "" || seen[lines[i].ID] || lines[i].UnitPrice.IsNegative() {
			s.log.Warn("stored cart has invalid lines, starting empty")
			s.metrics.PersistenceFailures.WithLabelValues("decode").Inc()
			return []model.CartLine{}
		}
		seen[lines[i].ID] = true
		lines[i].Quantity = money.ClampQuantity(lines[i].Quantity)
	}
	if lines == nil {
		lines = []model.CartLine{}
	}
	return lines
}

// AddToCart increments an existing line (clamped) or appends a new line
// with quantity 1. Existing lines keep their position.
func (s *CartStore) AddToCart(ctx context.Context, p model.Product) {
	s.m.Lock()
	defer s.m.Unlock()

	if i := s.indexLocked(p.ID); i >= 0 {
		s.lines[i].Quantity = money.ClampQuantity(s.lines[i].Quantity + 1)
	} else {
		s.lines = append(s.lines, model.CartLine{
			ID:        p.ID,
			Title:     p.Title,
			UnitPrice: p.Price,
			Quantity:  1,
			ImageRef:  p.Image,
		})
	}
	s.commitLocked(ctx, "add")
}

// ChangeQuantity sets the clamped quantity of line id. Zero or negative
// requests leave the line at 1; unknown ids are ignored.
func (s *CartStore) ChangeQuantity(ctx context.Context, id string, requested int) {
	s.m.Lock()
	defer s.m.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return
	}
	s.lines[i].Quantity = money.ClampQuantity(requested)
	s.commitLocked(ctx, "change_quantity")
}

func (s *CartStore) RemoveLine(ctx context.Context, id string) {
	s.m.Lock()
	defer s.m.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return
	}
	s.lines = slices.Delete(s.lines, i, i+1)
	s.commitLocked(ctx, "remove")
}

func (s *CartStore) Clear(ctx context.Context) {
	s.m.Lock()
	defer s.m.Unlock()

	s.lines = []model.CartLine{}
	s.commitLocked(ctx, "clear")
}

// Lines returns a copy of the lines in display order.
func (s *CartStore) Lines() []model.CartLine {
	s.m.Lock()
	defer s.m.Unlock()
	return slices.Clone(s.lines)
}

func (s *CartStore) Totals() Totals {
	s.m.Lock()
	defer s.m.Unlock()
	return totalsOf(s.lines)
}

// Snapshot returns lines and their totals read under one lock.
func (s *CartStore) Snapshot() ([]model.CartLine, Totals) {
	s.m.Lock()
	defer s.m.Unlock()
	return slices.Clone(s.lines), totalsOf(s.lines)
}

func totalsOf(lines []model.CartLine) Totals {
	t := Totals{TotalAmount: decimal.Zero}
	for _, l := range lines {
		t.TotalQuantity += l.Quantity
		t.TotalAmount = t.TotalAmount.Add(l.Subtotal())
	}
	return t
}

func (s *CartStore) indexLocked(id string) int {
	return slices.IndexFunc(s.lines, func(l model.CartLine) bool { return l.ID == id })
}

func (s *CartStore) commitLocked(ctx context.Context, op string) {
	s.metrics.CartMutations.WithLabelValues(op).Inc()

	data, err := json.Marshal(s.lines)
	if err != nil {
		s.log.WithError(err).Warn("cart encode failed, keeping in-memory cart")
		s.metrics.PersistenceFailures.WithLabelValues("encode").Inc()
		return
	}
	if err := s.repo.Set(ctx, s.sessionID, CartKey, data); err != nil {
		s.log.WithError(err).WithField("op", op).Warn("cart write failed, keeping in-memory cart")
		s.metrics.PersistenceFailures.WithLabelValues("write").Inc()
	}
}
