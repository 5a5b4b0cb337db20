package session

import (
	"context"
	"sync"

	"github.com/devcrafthub/client-portal/pkg/logging"
)

// Fetcher resolves the current session from the identity provider.
// The lookup is asynchronous and resolves once at startup.
type Fetcher interface {
	CurrentSession(ctx context.Context) (Session, error)
}

// Manager holds the process-wide session state. It is created at
// startup, mutated only by provider-pushed events (sign-in, sign-out,
// token refresh), and torn down on sign-out. Every change is delivered
// to all subscribers.
type Manager struct {
	mu      sync.RWMutex
	current Session
	subs    map[int]func(Session)
	nextSub int
	logger  *logging.Logger
}

// NewManager creates a manager holding the anonymous session.
func NewManager(logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		subs:   make(map[int]func(Session)),
		logger: logger,
	}
}

// Bootstrap queries the provider once for an existing session. A
// failed lookup leaves the manager anonymous; the visitor can still
// sign in explicitly.
func (m *Manager) Bootstrap(ctx context.Context, fetcher Fetcher) {
	if fetcher == nil {
		return
	}
	s, err := fetcher.CurrentSession(ctx)
	if err != nil {
		m.logger.Warn("session bootstrap failed, starting anonymous", "error", err)
		return
	}
	m.Apply(s)
}

// Apply records a provider-pushed session change and fans it out to
// subscribers. Sign-out is Apply(Anonymous()).
func (m *Manager) Apply(s Session) {
	m.mu.Lock()
	m.current = s
	subs := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	m.logger.Debug("session changed", "authenticated", s.Authenticated, "user_id", s.UserID)
	for _, fn := range subs {
		fn(s)
	}
}

// Current returns the session as of the last provider event.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe registers a callback delivered the new session on every
// change. The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Session)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}
