package service

import (
	"testing"
	"time"

	"tracer-store/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(idle time.Duration) *SessionManager {
	return NewSessionManager(SessionDeps{
		Catalog:         store.DefaultCatalog(),
		NotificationTTL: time.Second,
	}, idle)
}

func TestSessionManagerLifecycle(t *testing.T) {
	m := newTestManager(time.Minute)

	s := m.Create()
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Close(s.ID()))
	assert.Equal(t, 0, m.Len())

	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(s.ID()), ErrSessionNotFound)
}

func TestSessionManagerEvictIdle(t *testing.T) {
	m := newTestManager(10 * time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	stale := m.Create()
	fresh := m.Create()

	now = now.Add(8 * time.Minute)
	_, err := m.Get(fresh.ID())
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, m.EvictIdle())

	_, err = m.Get(stale.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestSessionManagerEvictionDisabled(t *testing.T) {
	m := newTestManager(0)
	m.Create()
	assert.Equal(t, 0, m.EvictIdle())
	assert.Equal(t, 1, m.Len())
}

func TestSessionManagerShutdown(t *testing.T) {
	m := newTestManager(time.Minute)
	a := m.Create()
	m.Create()

	m.Shutdown()
	assert.Equal(t, 0, m.Len())

	_, err := a.Card("p1")
	assert.ErrorIs(t, err, ErrSessionClosed)
}
