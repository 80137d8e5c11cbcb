package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-checkout-demo/internal/logger"
	"storefront-checkout-demo/internal/repository"
)

func TestSessionManager_Get(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	sm := NewSessionManager(repo, NewSimulator(testEntry()), CheckoutOptions{}, SessionOptions{}, logger.Discard(), testRecorder())

	a := sm.Get(ctx, "a")
	assert.Same(t, a, sm.Get(ctx, "a"))
	assert.NotSame(t, a, sm.Get(ctx, "b"))
	assert.Equal(t, 2, sm.Len())

	a.Cart().AddToCart(ctx, product("p", "1.00"))
	assert.Empty(t, sm.Get(ctx, "b").Cart().Lines())
}

func TestSessionManager_ResumesCartFromStorage(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()

	first := NewSessionManager(repo, NewSimulator(testEntry()), CheckoutOptions{}, SessionOptions{}, logger.Discard(), testRecorder())
	first.Get(ctx, "s").Cart().AddToCart(ctx, product("p", "4.50"))

	// a new process sees the same storage
	second := NewSessionManager(repo, NewSimulator(testEntry()), CheckoutOptions{}, SessionOptions{}, logger.Discard(), testRecorder())
	c := second.Get(ctx, "s")

	lines := c.Cart().Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p", lines[0].ID)
	assert.Equal(t, ViewHome, c.View())
}

func TestSessionManager_EvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	sm := NewSessionManager(repo, NewSimulator(testEntry()), CheckoutOptions{}, SessionOptions{IdleTimeout: time.Minute}, logger.Discard(), testRecorder())

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	a := sm.Get(ctx, "a")
	require.NoError(t, a.AddToCart(ctx, product("p", "4.50")))
	require.NoError(t, a.Navigate(ViewCart))
	sm.Get(ctx, "b")

	now = now.Add(45 * time.Second)
	sm.Get(ctx, "b")

	// a is idle past the timeout, b was seen recently
	now = now.Add(30 * time.Second)
	sm.Get(ctx, "c")
	assert.Equal(t, 2, sm.Len())

	resumed := sm.Get(ctx, "a")
	assert.NotSame(t, a, resumed)
	assert.Equal(t, ViewHome, resumed.View())
	lines := resumed.Cart().Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p", lines[0].ID)
}

func TestSessionManager_CapsSessions(t *testing.T) {
	ctx := context.Background()
	sm := NewSessionManager(repository.NewMemoryRepository(), NewSimulator(testEntry()), CheckoutOptions{}, SessionOptions{MaxSessions: 2}, logger.Discard(), testRecorder())

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	a := sm.Get(ctx, "a")
	now = now.Add(time.Second)
	b := sm.Get(ctx, "b")
	now = now.Add(time.Second)
	sm.Get(ctx, "a")
	now = now.Add(time.Second)

	// b is the least recently seen
	sm.Get(ctx, "c")
	assert.Equal(t, 2, sm.Len())
	assert.Same(t, a, sm.Get(ctx, "a"))
	assert.NotSame(t, b, sm.Get(ctx, "b"))
}

func TestSessionManager_KeepsBusySessions(t *testing.T) {
	ctx := context.Background()
	sm := NewSessionManager(repository.NewMemoryRepository(), NewSimulator(testEntry()), CheckoutOptions{SimulatedLatency: 200 * time.Millisecond}, SessionOptions{IdleTimeout: time.Minute}, logger.Discard(), testRecorder())

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	a := sm.Get(ctx, "a")
	require.NoError(t, a.AddToCart(ctx, product("p", "4.50")))
	require.NoError(t, a.Navigate(ViewCheckout))

	done := make(chan error, 1)
	go func() {
		_, err := a.PaySimulated(ctx)
		done <- err
	}()
	require.Eventually(t, a.Busy, time.Second, 5*time.Millisecond)

	now = now.Add(time.Hour)
	sm.Get(ctx, "b")
	assert.Same(t, a, sm.Get(ctx, "a"))

	require.NoError(t, <-done)
	assert.Equal(t, ViewSuccess, a.View())
}
