package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/metrics"
	"storefront-checkout-demo/internal/repository"
)

const (
	DefaultSessionIdleTimeout = 30 * time.Minute
	DefaultMaxSessions        = 10000
)

// SessionOptions bound the in-memory session registry. Zero values pick
// the defaults.
type SessionOptions struct {
	IdleTimeout time.Duration
	MaxSessions int
}

type session struct {
	checkout *Checkout
	lastSeen time.Time
}

// SessionManager owns one Checkout per browser session. A session seen for
// the first time, or seen again after eviction, resumes its cart from
// durable storage. Idle sessions are evicted; view state and the last
// payment do not survive eviction.
type SessionManager struct {
	m         sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time

	repo     repository.KVRepository
	provider PaymentProvider
	opts     CheckoutOptions
	sessOpts SessionOptions
	log      *logrus.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

func NewSessionManager(repo repository.KVRepository, provider PaymentProvider, opts CheckoutOptions, sessOpts SessionOptions, log *logrus.Logger, rec *metrics.Recorder) *SessionManager {
	if sessOpts.IdleTimeout <= 0 {
		sessOpts.IdleTimeout = DefaultSessionIdleTimeout
	}
	if sessOpts.MaxSessions <= 0 {
		sessOpts.MaxSessions = DefaultMaxSessions
	}

	return &SessionManager{
		sessions: make(map[string]*session),
		repo:     repo,
		provider: provider,
		opts:     opts,
		sessOpts: sessOpts,
		log:      log,
		metrics:  rec,
		now:      time.Now,
	}
}

func (sm *SessionManager) Get(ctx context.Context, sessionID string) *Checkout {
	sm.m.Lock()
	defer sm.m.Unlock()

	now := sm.now()
	if s, ok := sm.sessions[sessionID]; ok {
		s.lastSeen = now
		return s.checkout
	}

	sm.evictLocked(now)

	entry := sm.log.WithField("session_id", sessionID)
	cart := NewCartStore(ctx, sm.repo, sessionID, entry, sm.metrics)
	c := NewCheckout(cart, sm.provider, sm.opts, entry, sm.metrics)
	sm.sessions[sessionID] = &session{checkout: c, lastSeen: now}
	return c
}

// evictLocked drops sessions idle for longer than IdleTimeout, then the
// least recently seen ones while the registry is full. Sessions with a
// payment in flight are never dropped.
func (sm *SessionManager) evictLocked(now time.Time) {
	full := len(sm.sessions) >= sm.sessOpts.MaxSessions
	if !full && now.Sub(sm.lastSweep) < sm.sessOpts.IdleTimeout/2 {
		return
	}
	sm.lastSweep = now

	evicted := 0
	for id, s := range sm.sessions {
		if now.Sub(s.lastSeen) > sm.sessOpts.IdleTimeout && !s.checkout.Busy() {
			delete(sm.sessions, id)
			evicted++
		}
	}

	for len(sm.sessions) >= sm.sessOpts.MaxSessions {
		oldestID := ""
		var oldest time.Time
		for id, s := range sm.sessions {
			if s.checkout.Busy() {
				continue
			}
			if oldestID == "" || s.lastSeen.Before(oldest) {
				oldestID, oldest = id, s.lastSeen
			}
		}
		if oldestID == "" {
			break
		}
		delete(sm.sessions, oldestID)
		evicted++
	}

	if evicted > 0 {
		sm.log.WithFields(logrus.Fields{
			"evicted": evicted,
			"active":  len(sm.sessions),
		}).Debug("evicted idle sessions")
	}
}

func (sm *SessionManager) Len() int {
	sm.m.Lock()
	defer sm.m.Unlock()
	return len(sm.sessions)
}
